//go:generate go run go.uber.org/mock/mockgen -source=room.go -destination=../mocks/mock_room_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	stderrors "errors"
	"sort"
	"time"

	"finchat/domain"
	"finchat/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IRoomRepository interface {
	CreateRoom(room domain.Room) error
	GetRoomByID(id uuid.UUID) (domain.Room, error)
	GetAllRooms() ([]domain.Room, error)
}

type RoomRepository struct {
	db *badger.DB
}

func NewRoomRepository(db *badger.DB) IRoomRepository {
	return &RoomRepository{db: db}
}

type diskRoom struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"createdAt"`
}

const roomPrefix = "room:"

func roomKey(id uuid.UUID) []byte { return []byte(roomPrefix + id.String()) }

func (r RoomRepository) CreateRoom(room domain.Room) error {
	data, err := json.Marshal(fromRoom(room))
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(roomKey(room.ID), data)
	})
}

func (r RoomRepository) GetRoomByID(id uuid.UUID) (domain.Room, error) {
	var disk diskRoom
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(roomKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &disk)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Room{}, errors.ErrRoomNotFound
	}
	if err != nil {
		return domain.Room{}, err
	}
	return toRoom(disk)
}

// GetAllRooms scans the room prefix and returns rooms ordered by creation
// time, oldest first.
func (r RoomRepository) GetAllRooms() ([]domain.Room, error) {
	var disks []diskRoom
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(roomPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var disk diskRoom
				if err := json.Unmarshal(val, &disk); err != nil {
					return err
				}
				disks = append(disks, disk)
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

	rooms := make([]domain.Room, 0, len(disks))
	for _, disk := range disks {
		room, err := toRoom(disk)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt.Before(rooms[j].CreatedAt)
	})
	return rooms, nil
}

func fromRoom(room domain.Room) diskRoom {
	return diskRoom{
		ID:        room.ID.String(),
		Name:      room.Name,
		CreatedAt: room.CreatedAt.UnixNano(),
	}
}

func toRoom(disk diskRoom) (domain.Room, error) {
	id, err := uuid.Parse(disk.ID)
	if err != nil {
		return domain.Room{}, err
	}
	return domain.Room{
		ID:        id,
		Name:      disk.Name,
		CreatedAt: time.Unix(0, disk.CreatedAt).UTC(),
	}, nil
}
