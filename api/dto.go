package api

import (
	"time"

	"github.com/google/uuid"
)

type RegisterRequest struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

type LoginRequest struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type CreateRoomRequest struct {
	Name string `json:"name"`
}

type RoomResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type SendMessageRequest struct {
	RoomID uuid.UUID `json:"roomId"`
	Text   string    `json:"text"`
}

// QueuedResponse is returned when a message turned out to be a bot
// command: nothing was stored, the reply will arrive over the push
// channel once the bot answers.
type QueuedResponse struct {
	Queued bool `json:"queued"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
