//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"finchat/domain"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	StoreMessage(message domain.Message) error
	GetMessagesByRoom(roomID uuid.UUID, limit *int) ([]domain.Message, error)
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) IMessageRepository {
	return &MessageRepository{db: db, log: log}
}

type diskMessage struct {
	ID     string `json:"id"`
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
	Text   string `json:"text"`
	At     int64  `json:"at"`
}

// messageKey formats "msg:{room_id}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding
//     (lexicographical order).
//  2. Prevent data loss by using the message UUID as a collision
//     disconnector if two messages arrive at the same nanosecond.
func messageKey(message domain.Message) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s",
		message.RoomID,
		message.Timestamp.UnixNano(),
		message.ID,
	))
}

func (m MessageRepository) StoreMessage(message domain.Message) error {
	data, err := json.Marshal(fromMessage(message))
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(message), data)
	})
}

// GetMessagesByRoom retrieves a room's history in chronological order.
// Thanks to the padded timestamp in the key, a prefix scan is naturally
// sorted by time. When limit is set, the scan walks backwards so the most
// recent messages win, then the slice is reversed back to ascending order.
func (m MessageRepository) GetMessagesByRoom(roomID uuid.UUID, limit *int) ([]domain.Message, error) {
	var raw [][]byte
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("msg:%s:", roomID))
		options := badger.DefaultIteratorOptions
		options.Reverse = limit != nil
		it := txn.NewIterator(options)
		defer it.Close()

		seekKey := prefix
		if options.Reverse {
			// Reverse iteration must seek past the newest possible key.
			seekKey = append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		}

		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if limit != nil && len(raw) == *limit {
				m.log.Debug("Maximum message count reached", "limit", *limit)
				break
			}
			err := it.Item().Value(func(value []byte) error {
				raw = append(raw, append([]byte{}, value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(raw))
	for _, data := range raw {
		var disk diskMessage
		if err := json.Unmarshal(data, &disk); err != nil {
			return nil, err
		}
		message, err := toMessage(disk)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}

	if limit != nil {
		// Undo the reverse scan order.
		for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
			messages[i], messages[j] = messages[j], messages[i]
		}
	}
	return messages, nil
}

func fromMessage(message domain.Message) diskMessage {
	return diskMessage{
		ID:     message.ID.String(),
		RoomID: message.RoomID.String(),
		UserID: message.UserID.String(),
		Text:   message.Text,
		At:     message.Timestamp.UnixNano(),
	}
}

func toMessage(disk diskMessage) (domain.Message, error) {
	id, err := uuid.Parse(disk.ID)
	if err != nil {
		return domain.Message{}, err
	}
	roomID, err := uuid.Parse(disk.RoomID)
	if err != nil {
		return domain.Message{}, err
	}
	userID, err := uuid.Parse(disk.UserID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:        id,
		RoomID:    roomID,
		UserID:    userID,
		Text:      disk.Text,
		Timestamp: time.Unix(0, disk.At).UTC(),
	}, nil
}
