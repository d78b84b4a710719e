// Package domain contains core concepts of the financial chat system.
// Entities here are immutable once created; no transport, storage or
// runtime logic belongs in this package.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents one persisted chat line in a room.
type Message struct {
	ID        uuid.UUID
	RoomID    uuid.UUID
	UserID    uuid.UUID
	Text      string
	Timestamp time.Time
}

// MessageView is the wire representation pushed to connected clients and
// returned by the HTTP API. UserName is denormalized so clients never need
// a second lookup to render the sender.
type MessageView struct {
	ID        uuid.UUID `json:"id"`
	RoomID    uuid.UUID `json:"roomId"`
	UserID    uuid.UUID `json:"userId"`
	UserName  string    `json:"userName"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// View maps a message to its wire representation.
func (m Message) View(userName string) MessageView {
	return MessageView{
		ID:        m.ID,
		RoomID:    m.RoomID,
		UserID:    m.UserID,
		UserName:  userName,
		Text:      m.Text,
		Timestamp: m.Timestamp,
	}
}
