package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is a chat participant. The stock bot is a regular User with a
// well-known name, created lazily by the bot reply consumer.
type User struct {
	ID           uuid.UUID
	UserName     string
	PasswordHash string
	Roles        []string
	CreatedAt    time.Time
}
