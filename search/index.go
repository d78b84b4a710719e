//go:generate go run go.uber.org/mock/mockgen -source=index.go -destination=../mocks/mock_search.go -package=mocks

// Package search maintains the full-text index over chat messages. Badger
// remains the source of truth; the index only answers room-scoped queries
// and can be rebuilt from the message log at any time.
package search

import (
	"context"
	"log/slog"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"

	"finchat/domain"
)

type IMessageIndex interface {
	Index(message domain.Message) error
	Search(ctx context.Context, roomID uuid.UUID, query string, limit int) ([]Hit, error)
	Close() error
}

// Hit is one search result, resolved back to the stored message fields.
type Hit struct {
	MessageID uuid.UUID `json:"messageId"`
	RoomID    uuid.UUID `json:"roomId"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type MessageIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewMessageIndex(writer *bluge.Writer, log *slog.Logger) *MessageIndex {
	return &MessageIndex{writer: writer, log: log}
}

func (idx *MessageIndex) Index(message domain.Message) error {
	// The timestamp travels twice: a sortable datetime field for ordering
	// and a stored string for resolving hits without a second lookup.
	doc := bluge.NewDocument(message.ID.String()).
		AddField(bluge.NewKeywordField("room", message.RoomID.String()).StoreValue()).
		AddField(bluge.NewTextField("text", message.Text).StoreValue()).
		AddField(bluge.NewDateTimeField("ts", message.Timestamp).Sortable()).
		AddField(bluge.NewStoredOnlyField("timestamp", []byte(message.Timestamp.UTC().Format(time.RFC3339Nano))))

	return idx.writer.Update(doc.ID(), doc)
}

// Search matches the query against message text within a single room,
// newest-first up to limit.
func (idx *MessageIndex) Search(ctx context.Context, roomID uuid.UUID, query string, limit int) ([]Hit, error) {
	reader, err := idx.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	q := bluge.NewBooleanQuery().
		AddMust(bluge.NewTermQuery(roomID.String()).SetField("room")).
		AddMust(bluge.NewMatchQuery(query).SetField("text"))

	req := bluge.NewTopNSearch(limit, q).SortBy([]string{"-ts"})
	it, err := reader.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	var hits []Hit
	for {
		match, err := it.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}

		var hit Hit
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				if id, parseErr := uuid.Parse(string(value)); parseErr == nil {
					hit.MessageID = id
				}
			case "room":
				if id, parseErr := uuid.Parse(string(value)); parseErr == nil {
					hit.RoomID = id
				}
			case "text":
				hit.Text = string(value)
			case "timestamp":
				if ts, parseErr := time.Parse(time.RFC3339Nano, string(value)); parseErr == nil {
					hit.Timestamp = ts
				}
			}
			return true
		})
		if err != nil {
			idx.log.Warn("Failed to load stored fields for hit", "err", err)
			continue
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func (idx *MessageIndex) Close() error {
	return idx.writer.Close()
}
