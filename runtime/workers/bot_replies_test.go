package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"finchat/contract"
	"finchat/domain"
	"finchat/domain/bot"
	"finchat/errors"
	"finchat/mocks"
	"finchat/observability"
)

const botName = "stockbot"

func runConsumerOnce(t *testing.T, consumer *BotReplyConsumer, deliveries chan contract.Delivery, delivery contract.Delivery) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = consumer.Run(ctx)
	}()

	deliveries <- delivery
	close(deliveries)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not finish in time")
	}
	cancel()
}

func TestNewBotReplyConsumer_CreatesBotUser(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)

	users := mocks.NewMockIUserRepository(ctrl)
	users.EXPECT().GetUserByName(botName).Return(domain.User{}, errors.ErrUserNotFound)

	var created domain.User
	users.EXPECT().
		CreateUser(gomock.Any()).
		DoAndReturn(func(user domain.User) error {
			created = user
			return nil
		})

	consumer, err := NewBotReplyConsumer(
		make(chan contract.Delivery),
		users,
		mocks.NewMockIRoomRepository(ctrl),
		mocks.NewMockIMessageRepository(ctrl),
		mocks.NewMockINotifier(ctrl),
		&observability.PipelineStats{},
		log,
		botName,
	)
	req.NoError(err)
	req.Equal(botName, created.UserName)
	req.Equal([]string{"bot"}, created.Roles)
	req.Equal(created.ID, consumer.botUser.ID)
}

// Two consumers racing on first startup: the create loser re-fetches and
// converges on the winner's record.
func TestNewBotReplyConsumer_BotUserCreationRace(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)

	existing := domain.User{ID: uuid.New(), UserName: botName, Roles: []string{"bot"}}

	users := mocks.NewMockIUserRepository(ctrl)
	gomock.InOrder(
		users.EXPECT().GetUserByName(botName).Return(domain.User{}, errors.ErrUserNotFound),
		users.EXPECT().CreateUser(gomock.Any()).Return(errors.ErrUserAlreadyExists),
		users.EXPECT().GetUserByName(botName).Return(existing, nil),
	)

	consumer, err := NewBotReplyConsumer(
		make(chan contract.Delivery),
		users,
		mocks.NewMockIRoomRepository(ctrl),
		mocks.NewMockIMessageRepository(ctrl),
		mocks.NewMockINotifier(ctrl),
		&observability.PipelineStats{},
		log,
		botName,
	)
	req.NoError(err)
	req.Equal(existing.ID, consumer.botUser.ID)
}

func TestBotReplyConsumer_StoresAndNotifies(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)

	botUser := domain.User{ID: uuid.New(), UserName: botName, Roles: []string{"bot"}}
	room := domain.Room{ID: uuid.New(), Name: "finance", CreatedAt: time.Now().UTC()}

	users := mocks.NewMockIUserRepository(ctrl)
	users.EXPECT().GetUserByName(botName).Return(botUser, nil)

	rooms := mocks.NewMockIRoomRepository(ctrl)
	rooms.EXPECT().GetRoomByID(room.ID).Return(room, nil)

	var stored domain.Message
	messages := mocks.NewMockIMessageRepository(ctrl)
	messages.EXPECT().
		StoreMessage(gomock.Any()).
		DoAndReturn(func(message domain.Message) error {
			stored = message
			return nil
		})

	var pushed domain.MessageView
	notifier := mocks.NewMockINotifier(ctrl)
	notifier.EXPECT().
		NotifyMessage(gomock.Any(), gomock.Any()).
		Do(func(_ context.Context, view domain.MessageView) {
			pushed = view
		})

	stats := &observability.PipelineStats{}
	deliveries := make(chan contract.Delivery)
	consumer, err := NewBotReplyConsumer(deliveries, users, rooms, messages, notifier, stats, log, botName)
	req.NoError(err)

	data, err := json.Marshal(bot.Reply{RoomID: room.ID, Text: "AAPL.US quote is $93.42 per share"})
	req.NoError(err)
	delivery := newFakeDelivery(data)

	runConsumerOnce(t, consumer, deliveries, delivery)

	req.True(delivery.acked.Load())
	req.Equal(room.ID, stored.RoomID)
	req.Equal(botUser.ID, stored.UserID)
	req.Equal("AAPL.US quote is $93.42 per share", stored.Text)
	req.Equal(botName, pushed.UserName)
	req.Equal(stored.ID, pushed.ID)
	req.Equal(uint64(1), stats.RepliesConsumed.Load())
	req.Equal(uint64(1), stats.MessagesPersisted.Load())
	req.Equal(uint64(1), stats.Notifications.Load())
}

// A reply whose room was deleted after the command is a stale reference:
// nothing is stored, nothing is pushed, the item is still acknowledged.
func TestBotReplyConsumer_DropsReplyForDeletedRoom(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)

	botUser := domain.User{ID: uuid.New(), UserName: botName, Roles: []string{"bot"}}
	roomID := uuid.New()

	users := mocks.NewMockIUserRepository(ctrl)
	users.EXPECT().GetUserByName(botName).Return(botUser, nil)

	rooms := mocks.NewMockIRoomRepository(ctrl)
	rooms.EXPECT().GetRoomByID(roomID).Return(domain.Room{}, errors.ErrRoomNotFound)

	// No store, no push.
	messages := mocks.NewMockIMessageRepository(ctrl)
	notifier := mocks.NewMockINotifier(ctrl)

	stats := &observability.PipelineStats{}
	deliveries := make(chan contract.Delivery)
	consumer, err := NewBotReplyConsumer(deliveries, users, rooms, messages, notifier, stats, log, botName)
	req.NoError(err)

	data, err := json.Marshal(bot.Reply{RoomID: roomID, Text: "too late"})
	req.NoError(err)
	delivery := newFakeDelivery(data)

	runConsumerOnce(t, consumer, deliveries, delivery)

	req.True(delivery.acked.Load())
	req.False(delivery.termed.Load())
	req.Equal(uint64(1), stats.RepliesDropped.Load())
	req.Equal(uint64(0), stats.MessagesPersisted.Load())
}

// A reply feed closing under a live context is a broker failure, surfaced
// to the supervisor rather than swallowed as a finished worker.
func TestBotReplyConsumer_ClosedFeedIsAnError(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)

	users := mocks.NewMockIUserRepository(ctrl)
	users.EXPECT().GetUserByName(botName).Return(domain.User{ID: uuid.New(), UserName: botName}, nil)

	deliveries := make(chan contract.Delivery)
	consumer, err := NewBotReplyConsumer(
		deliveries, users,
		mocks.NewMockIRoomRepository(ctrl),
		mocks.NewMockIMessageRepository(ctrl),
		mocks.NewMockINotifier(ctrl),
		&observability.PipelineStats{}, log, botName,
	)
	req.NoError(err)

	close(deliveries)
	req.ErrorIs(consumer.Run(context.Background()), errors.ErrDeliveriesClosed)
}

func TestBotReplyConsumer_MalformedPayloadIsTerminated(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	ctrl := gomock.NewController(t)

	users := mocks.NewMockIUserRepository(ctrl)
	users.EXPECT().GetUserByName(botName).Return(domain.User{ID: uuid.New(), UserName: botName}, nil)

	stats := &observability.PipelineStats{}
	deliveries := make(chan contract.Delivery)
	consumer, err := NewBotReplyConsumer(
		deliveries, users,
		mocks.NewMockIRoomRepository(ctrl),
		mocks.NewMockIMessageRepository(ctrl),
		mocks.NewMockINotifier(ctrl),
		stats, log, botName,
	)
	req.NoError(err)

	delivery := newFakeDelivery([]byte("{broken"))

	runConsumerOnce(t, consumer, deliveries, delivery)

	req.True(delivery.termed.Load())
	req.False(delivery.acked.Load())
	req.Equal(uint64(1), stats.RepliesDropped.Load())
}
