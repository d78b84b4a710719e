//go:generate go run go.uber.org/mock/mockgen -source=room_service.go -destination=../mocks/mock_room_service.go -package=mocks
package services

import (
	"finchat/domain"
	"finchat/repositories"
)

type IRoomService interface {
	Create(name string) (domain.Room, error)
	GetAll() ([]domain.Room, error)
}

type RoomService struct {
	rooms repositories.IRoomRepository
}

func NewRoomService(rooms repositories.IRoomRepository) *RoomService {
	return &RoomService{rooms: rooms}
}

func (s *RoomService) Create(name string) (domain.Room, error) {
	room := domain.NewRoom(name)
	if err := s.rooms.CreateRoom(room); err != nil {
		return domain.Room{}, err
	}
	return room, nil
}

func (s *RoomService) GetAll() ([]domain.Room, error) {
	return s.rooms.GetAllRooms()
}
