//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"finchat/contract"
	"finchat/domain"
	"finchat/domain/bot"
	"finchat/moderation"
	"finchat/observability"
	"finchat/repositories"
	"finchat/search"
)

type IChatService interface {
	// SendMessage posts a message to a room. When the text is a stock
	// command the returned view is nil: the command goes to the bot, not
	// to the room's history.
	SendMessage(ctx context.Context, userID, roomID uuid.UUID, text string) (*domain.MessageView, error)
	GetHistory(roomID uuid.UUID, limit *int) ([]domain.MessageView, error)
	Search(ctx context.Context, roomID uuid.UUID, query string, limit int) ([]search.Hit, error)
}

type ChatService struct {
	users     repositories.IUserRepository
	rooms     repositories.IRoomRepository
	messages  repositories.IMessageRepository
	commands  contract.ICommandBus
	notifier  contract.INotifier
	moderator *moderation.Moderator
	index     search.IMessageIndex
	stats     *observability.PipelineStats
	log       *slog.Logger
}

func NewChatService(
	users repositories.IUserRepository,
	rooms repositories.IRoomRepository,
	messages repositories.IMessageRepository,
	commands contract.ICommandBus,
	notifier contract.INotifier,
	moderator *moderation.Moderator,
	index search.IMessageIndex,
	stats *observability.PipelineStats,
	log *slog.Logger,
) *ChatService {
	return &ChatService{
		users:     users,
		rooms:     rooms,
		messages:  messages,
		commands:  commands,
		notifier:  notifier,
		moderator: moderator,
		index:     index,
		stats:     stats,
		log:       log,
	}
}

func (s *ChatService) SendMessage(ctx context.Context, userID, roomID uuid.UUID, text string) (*domain.MessageView, error) {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	room, err := s.rooms.GetRoomByID(roomID)
	if err != nil {
		return nil, err
	}

	// Stock commands are routed to the bot pipeline and never persisted:
	// only the bot's eventual reply appears in the room.
	if cmd, ok := bot.TryParseStockCommand(room.ID, text); ok {
		if err := s.commands.Enqueue(ctx, cmd); err != nil {
			return nil, err
		}
		s.stats.CommandsEnqueued.Add(1)
		s.log.Info("Stock command enqueued",
			"room", room.ID, "user", user.UserName, "stock_code", cmd.StockCode)
		return nil, nil
	}

	message := domain.Message{
		ID:        uuid.New(),
		RoomID:    room.ID,
		UserID:    user.ID,
		Text:      s.moderator.Censor(text),
		Timestamp: time.Now().UTC(),
	}
	if err := s.messages.StoreMessage(message); err != nil {
		return nil, err
	}
	s.stats.MessagesPersisted.Add(1)

	// Indexing is best effort: the message is already durable in the log.
	if err := s.index.Index(message); err != nil {
		s.log.Warn("Failed to index message", "message", message.ID, "err", err)
	}

	s.log.Debug("Message stored",
		"room", room.ID, "user", user.UserName, "lang", moderation.DetectLanguage(message.Text))

	view := message.View(user.UserName)
	s.notifier.NotifyMessage(ctx, view)
	s.stats.Notifications.Add(1)

	return &view, nil
}

func (s *ChatService) GetHistory(roomID uuid.UUID, limit *int) ([]domain.MessageView, error) {
	if _, err := s.rooms.GetRoomByID(roomID); err != nil {
		return nil, err
	}
	messages, err := s.messages.GetMessagesByRoom(roomID, limit)
	if err != nil {
		return nil, err
	}

	// Resolve author names once per distinct user, not once per message.
	names := make(map[uuid.UUID]string)
	views := make([]domain.MessageView, 0, len(messages))
	for _, message := range messages {
		name, ok := names[message.UserID]
		if !ok {
			user, err := s.users.GetUserByID(message.UserID)
			if err != nil {
				name = "unknown"
			} else {
				name = user.UserName
			}
			names[message.UserID] = name
		}
		views = append(views, message.View(name))
	}
	return views, nil
}

func (s *ChatService) Search(ctx context.Context, roomID uuid.UUID, query string, limit int) ([]search.Hit, error) {
	if _, err := s.rooms.GetRoomByID(roomID); err != nil {
		return nil, err
	}
	return s.index.Search(ctx, roomID, query, limit)
}
