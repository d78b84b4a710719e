package repositories

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"finchat/domain"
	"finchat/errors"
)

func TestRoomRepository_CreateAndGet(t *testing.T) {
	req := require.New(t)
	repo := NewRoomRepository(setupDB(t))

	room := domain.NewRoom("finance")
	req.NoError(repo.CreateRoom(room))

	got, err := repo.GetRoomByID(room.ID)
	req.NoError(err)
	req.Equal(room.Name, got.Name)
	req.Equal(room.ID, got.ID)
}

func TestRoomRepository_NotFound(t *testing.T) {
	req := require.New(t)
	repo := NewRoomRepository(setupDB(t))

	_, err := repo.GetRoomByID(uuid.New())
	req.ErrorIs(err, errors.ErrRoomNotFound)
}

func TestRoomRepository_GetAllRooms_SortedByCreation(t *testing.T) {
	req := require.New(t)
	repo := NewRoomRepository(setupDB(t))

	base := time.Now().UTC()
	names := []string{"third", "first", "second"}
	offsets := []time.Duration{2 * time.Second, 0, time.Second}
	for i, name := range names {
		room := domain.Room{ID: uuid.New(), Name: name, CreatedAt: base.Add(offsets[i])}
		req.NoError(repo.CreateRoom(room))
	}

	rooms, err := repo.GetAllRooms()
	req.NoError(err)
	req.Len(rooms, 3)
	req.Equal("first", rooms[0].Name)
	req.Equal("second", rooms[1].Name)
	req.Equal("third", rooms[2].Name)
}
