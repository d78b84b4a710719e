package realtime

import (
	"context"
	"log/slog"

	"finchat/contract"
	"finchat/domain"
)

// RoomNotifier fans one message view out to every sink currently
// subscribed to its room. Fire-and-forget: a failed or dropped push is
// the connection's problem, never the publisher's.
type RoomNotifier struct {
	registry contract.IRegistry
	log      *slog.Logger
}

func NewRoomNotifier(registry contract.IRegistry, log *slog.Logger) *RoomNotifier {
	return &RoomNotifier{registry: registry, log: log}
}

func (n *RoomNotifier) NotifyMessage(ctx context.Context, view domain.MessageView) {
	for _, sink := range n.registry.GetSinksForRoom(view.RoomID) {
		if err := sink.Consume(ctx, view); err != nil {
			n.log.Debug("Push sink rejected message", "room", view.RoomID, "err", err)
		}
	}
}
