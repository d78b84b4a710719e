package api

import (
	stderrors "errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"finchat/auth"
	"finchat/domain"
	"finchat/errors"
	"finchat/observability"
	"finchat/services"
)

const defaultSearchLimit = 20

type Handlers struct {
	auth       services.IAuthService
	rooms      services.IRoomService
	chat       services.IChatService
	monitoring *observability.Monitoring
	log        *slog.Logger
}

func NewHandlers(
	authService services.IAuthService,
	rooms services.IRoomService,
	chat services.IChatService,
	monitoring *observability.Monitoring,
	log *slog.Logger,
) *Handlers {
	return &Handlers{
		auth:       authService,
		rooms:      rooms,
		chat:       chat,
		monitoring: monitoring,
		log:        log,
	}
}

func (h *Handlers) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	token, err := h.auth.Register(req.UserName, req.Password)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(TokenResponse{Token: string(token)})
}

func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	token, err := h.auth.Login(req.UserName, req.Password)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(TokenResponse{Token: string(token)})
}

func (h *Handlers) CreateRoom(c *fiber.Ctx) error {
	var req CreateRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Name) == "" {
		return badRequest(c, "Room name is required")
	}

	room, err := h.rooms.Create(strings.TrimSpace(req.Name))
	if err != nil {
		return h.mapError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toRoomResponse(room))
}

func (h *Handlers) ListRooms(c *fiber.Ctx) error {
	rooms, err := h.rooms.GetAll()
	if err != nil {
		return h.mapError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(lo.Map(rooms, func(room domain.Room, _ int) RoomResponse {
		return toRoomResponse(room)
	}))
}

// SendMessage posts a message on behalf of the authenticated user. A stock
// command is acknowledged with 202: it was queued for the bot, nothing was
// written to the room yet.
func (h *Handlers) SendMessage(c *fiber.Ctx) error {
	rawUserID, _ := c.Locals(auth.UserIDKey).(string)
	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		return unauthorized(c, "Invalid session")
	}

	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Text) == "" {
		return badRequest(c, "Message text is required")
	}

	view, err := h.chat.SendMessage(c.UserContext(), userID, req.RoomID, req.Text)
	if err != nil {
		return h.mapError(c, err)
	}
	if view == nil {
		return c.Status(fiber.StatusAccepted).JSON(QueuedResponse{Queued: true})
	}
	return c.Status(fiber.StatusCreated).JSON(view)
}

func (h *Handlers) GetHistory(c *fiber.Ctx) error {
	roomID, err := uuid.Parse(c.Params("roomID"))
	if err != nil {
		return badRequest(c, "Invalid room id")
	}

	var limit *int
	if raw := c.QueryInt("limit", 0); raw > 0 {
		limit = lo.ToPtr(raw)
	}

	views, err := h.chat.GetHistory(roomID, limit)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(views)
}

func (h *Handlers) SearchMessages(c *fiber.Ctx) error {
	roomID, err := uuid.Parse(c.Params("roomID"))
	if err != nil {
		return badRequest(c, "Invalid room id")
	}
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		return badRequest(c, "Query parameter q is required")
	}
	limit := c.QueryInt("limit", defaultSearchLimit)

	hits, err := h.chat.Search(c.UserContext(), roomID, query, limit)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(hits)
}

func (h *Handlers) Stats(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(h.monitoring.Snapshot())
}

func (h *Handlers) mapError(c *fiber.Ctx, err error) error {
	switch {
	case stderrors.Is(err, errors.ErrUserAlreadyExists):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Error:   "conflict",
			Message: "User name is already taken",
		})
	case stderrors.Is(err, errors.ErrInvalidPassword):
		return badRequest(c, "User name or password does not meet the requirements")
	case stderrors.Is(err, errors.ErrInvalidCredentials):
		return unauthorized(c, "Invalid user name or password")
	case stderrors.Is(err, errors.ErrRoomNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "Room does not exist",
		})
	case stderrors.Is(err, errors.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "User does not exist",
		})
	default:
		h.log.Error("Unhandled API error", "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
	}
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   "bad_request",
		Message: message,
	})
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
		Error:   "unauthorized",
		Message: message,
	})
}

func toRoomResponse(room domain.Room) RoomResponse {
	return RoomResponse{
		ID:        room.ID,
		Name:      room.Name,
		CreatedAt: room.CreatedAt,
	}
}
