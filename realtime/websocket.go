package realtime

import (
	"context"
	"log/slog"

	"finchat/auth"
	"finchat/contract"
	"finchat/observability"
	"finchat/repositories"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Handler upgrades authenticated clients to a websocket and streams the
// subscribed room's messages to them.
type Handler struct {
	registry   contract.IRegistry
	tokens     *auth.TokenManager
	rooms      repositories.IRoomRepository
	stats      *observability.PipelineStats
	bufferSize int
	log        *slog.Logger
}

func NewHandler(
	registry contract.IRegistry,
	tokens *auth.TokenManager,
	rooms repositories.IRoomRepository,
	stats *observability.PipelineStats,
	bufferSize int,
	log *slog.Logger,
) *Handler {
	return &Handler{
		registry:   registry,
		tokens:     tokens,
		rooms:      rooms,
		stats:      stats,
		bufferSize: bufferSize,
		log:        log,
	}
}

// Upgrade gates the websocket route: plain HTTP requests are refused.
func (h *Handler) Upgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

// Serve returns the websocket endpoint. The token and room travel as
// query parameters because browsers cannot set headers on websocket
// upgrades.
func (h *Handler) Serve() fiber.Handler {
	return websocket.New(h.handle)
}

func (h *Handler) handle(c *websocket.Conn) {
	defer c.Close()

	claims, err := h.tokens.Validate(c.Query("token"))
	if err != nil {
		h.log.Debug("Websocket rejected: invalid token", "err", err)
		return
	}

	roomID, err := uuid.Parse(c.Query("room"))
	if err != nil {
		h.log.Debug("Websocket rejected: invalid room id", "err", err)
		return
	}
	if _, err := h.rooms.GetRoomByID(roomID); err != nil {
		h.log.Debug("Websocket rejected: unknown room", "room", roomID)
		return
	}

	// One session per connection: the same user may watch a room from
	// several tabs, each with its own sink.
	sessionID := claims.UserID + "#" + uuid.NewString()
	sink := NewSink(h.bufferSize, h.stats)
	h.registry.Subscribe(sessionID, roomID, sink)
	defer h.registry.Unsubscribe(sessionID, roomID)

	h.log.Info("Websocket session opened", "user", claims.UserName, "room", roomID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Inbound frames are ignored (messages are sent over HTTP); the read
	// loop only detects the client going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			h.log.Info("Websocket session closed", "user", claims.UserName, "room", roomID)
			return
		case view := <-sink.Events:
			if err := c.WriteJSON(view); err != nil {
				h.log.Debug("Websocket write failed", "user", claims.UserName, "err", err)
				return
			}
		}
	}
}
