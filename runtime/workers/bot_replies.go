package workers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"time"

	"finchat/contract"
	"finchat/domain"
	"finchat/domain/bot"
	"finchat/errors"
	"finchat/observability"
	"finchat/repositories"

	"github.com/google/uuid"
)

// BotReplyConsumer drains the bot-replies queue: each reply becomes an
// ordinary chat message attributed to the bot identity, persisted and
// pushed to the room's connected clients. Replies for rooms that no
// longer exist are stale references, dropped without side effects.
type BotReplyConsumer struct {
	deliveries <-chan contract.Delivery
	rooms      repositories.IRoomRepository
	messages   repositories.IMessageRepository
	notifier   contract.INotifier
	stats      *observability.PipelineStats
	log        *slog.Logger
	botUser    domain.User
}

// NewBotReplyConsumer resolves the bot identity before accepting any
// delivery, so every reply can be attributed to a valid user id.
func NewBotReplyConsumer(
	deliveries <-chan contract.Delivery,
	users repositories.IUserRepository,
	rooms repositories.IRoomRepository,
	messages repositories.IMessageRepository,
	notifier contract.INotifier,
	stats *observability.PipelineStats,
	log *slog.Logger,
	botUserName string,
) (*BotReplyConsumer, error) {
	botUser, err := ensureBotUser(users, botUserName)
	if err != nil {
		return nil, err
	}
	log.Info("Bot identity ready", "user_name", botUser.UserName, "user_id", botUser.ID)

	return &BotReplyConsumer{
		deliveries: deliveries,
		rooms:      rooms,
		messages:   messages,
		notifier:   notifier,
		stats:      stats,
		log:        log,
		botUser:    botUser,
	}, nil
}

// ensureBotUser looks the bot identity up by its fixed name and creates it
// on first startup. Several consumer instances may race here: the loser of
// a duplicate create simply re-fetches, so all instances converge on the
// same record.
func ensureBotUser(users repositories.IUserRepository, name string) (domain.User, error) {
	user, err := users.GetUserByName(name)
	if err == nil {
		return user, nil
	}
	if !stderrors.Is(err, errors.ErrUserNotFound) {
		return domain.User{}, err
	}

	user = domain.User{
		ID:        uuid.New(),
		UserName:  name,
		Roles:     []string{"bot"},
		CreatedAt: time.Now().UTC(),
	}
	err = users.CreateUser(user)
	if stderrors.Is(err, errors.ErrUserAlreadyExists) {
		return users.GetUserByName(name)
	}
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (w *BotReplyConsumer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return ctx.Err()
		case delivery, ok := <-w.deliveries:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				// The broker feed died while we were supposed to keep
				// running: an error, not a finished worker.
				return errors.ErrDeliveriesClosed
			}
			w.handle(ctx, delivery)
		}
	}
}

// handle consumes one reply to completion, acknowledging after the attempt
// whatever happened: a failed store or push is logged, never redelivered.
// Availability of the queue wins over delivery of a single reply.
func (w *BotReplyConsumer) handle(ctx context.Context, delivery contract.Delivery) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("Panic while processing bot reply", "panic", r)
			if err := delivery.Ack(); err != nil {
				w.log.Warn("Failed to ack after panic", "err", err)
			}
		}
	}()

	var reply bot.Reply
	if err := json.Unmarshal(delivery.Data(), &reply); err != nil {
		w.log.Warn("Invalid bot reply payload, dropping", "err", err)
		w.stats.RepliesDropped.Add(1)
		if err := delivery.Term(); err != nil {
			w.log.Warn("Failed to terminate malformed delivery", "err", err)
		}
		return
	}
	w.stats.RepliesConsumed.Add(1)

	w.deliver(ctx, reply)

	if err := delivery.Ack(); err != nil {
		w.log.Warn("Failed to ack bot reply", "err", err)
	}
}

func (w *BotReplyConsumer) deliver(ctx context.Context, reply bot.Reply) {
	room, err := w.rooms.GetRoomByID(reply.RoomID)
	if stderrors.Is(err, errors.ErrRoomNotFound) {
		// The room was deleted after the command was sent: a stale
		// reference, not an error.
		w.log.Warn("Room not found, dropping bot reply", "room", reply.RoomID)
		w.stats.RepliesDropped.Add(1)
		return
	}
	if err != nil {
		w.log.Error("Room lookup failed", "room", reply.RoomID, "err", err)
		return
	}

	message := domain.Message{
		ID:        uuid.New(),
		RoomID:    room.ID,
		UserID:    w.botUser.ID,
		Text:      reply.Text,
		Timestamp: time.Now().UTC(),
	}
	if err := w.messages.StoreMessage(message); err != nil {
		w.log.Error("Failed to persist bot message", "room", room.ID, "err", err)
		return
	}
	w.stats.MessagesPersisted.Add(1)

	w.notifier.NotifyMessage(ctx, message.View(w.botUser.UserName))
	w.stats.Notifications.Add(1)
}
