// Package bot defines the stock bot command contract: how a chat line is
// recognized as a bot command and the payloads travelling through the two
// durable queues. Field names on the queue payloads are part of the wire
// format and must not change.
package bot

import (
	"strings"

	"github.com/google/uuid"
)

// CommandPrefix marks a chat line as a stock command, matched
// case-insensitively.
const CommandPrefix = "/stock="

// StockCommand is the commands-queue payload.
type StockCommand struct {
	RoomID    uuid.UUID `json:"RoomId"`
	StockCode string    `json:"StockCode"`
}

// Reply is the bot-replies-queue payload.
type Reply struct {
	RoomID uuid.UUID `json:"RoomId"`
	Text   string    `json:"Text"`
}

// TryParseStockCommand recognizes a stock command in a chat line.
// It matches only when text starts with the prefix (any case) and the
// trimmed remainder is non-empty; everything else is an ordinary message.
func TryParseStockCommand(roomID uuid.UUID, text string) (StockCommand, bool) {
	if len(text) < len(CommandPrefix) {
		return StockCommand{}, false
	}
	if !strings.EqualFold(text[:len(CommandPrefix)], CommandPrefix) {
		return StockCommand{}, false
	}
	code := strings.TrimSpace(text[len(CommandPrefix):])
	if code == "" {
		return StockCommand{}, false
	}
	return StockCommand{RoomID: roomID, StockCode: code}, true
}
