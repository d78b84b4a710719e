package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"finchat/contract"
	"finchat/domain"
	"finchat/domain/bot"
	"finchat/observability"
	"finchat/realtime"
	"finchat/repositories"
	"finchat/runtime"
)

// stubQuoteSource answers a fixed price for one known code.
type stubQuoteSource struct{}

func (stubQuoteSource) Fetch(_ context.Context, stockCode string) domain.QuoteResult {
	if stockCode == "aapl.us" {
		return domain.SuccessQuote(stockCode, "AAPL.US", "190.32")
	}
	return domain.FailedQuote(stockCode, "", domain.QuoteNoData)
}

// channelPublisher bridges the stock worker's replies straight into the
// reply consumer's delivery channel, standing in for the broker.
type channelPublisher struct {
	out chan contract.Delivery
}

func (p channelPublisher) Publish(_ context.Context, reply bot.Reply) error {
	data, err := json.Marshal(reply)
	if err != nil {
		return err
	}
	p.out <- newFakeDelivery(data)
	return nil
}

// captureSink collects pushed views for one subscribed client.
type captureSink struct {
	views chan domain.MessageView
}

func (s captureSink) Consume(_ context.Context, view domain.MessageView) error {
	s.views <- view
	return nil
}

// The full pipeline without a broker: a parsed command flows through the
// stock worker and the reply consumer, ending as a persisted bot message
// pushed to the room's subscriber.
func TestPipeline_CommandToPushedBotMessage(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	req.NoError(err)
	defer db.Close()

	users := repositories.NewUserRepository(db)
	roomRepo := repositories.NewRoomRepository(db)
	messages := repositories.NewMessageRepository(db, log)

	room := domain.NewRoom("finance")
	req.NoError(roomRepo.CreateRoom(room))

	registry := runtime.NewRegistry()
	notifier := realtime.NewRoomNotifier(registry, log)
	sink := captureSink{views: make(chan domain.MessageView, 1)}
	registry.Subscribe("watcher", room.ID, sink)

	stats := &observability.PipelineStats{}
	commandDeliveries := make(chan contract.Delivery, 1)
	replyDeliveries := make(chan contract.Delivery, 1)

	worker := NewStockWorker(commandDeliveries, stubQuoteSource{}, channelPublisher{out: replyDeliveries}, stats, log)
	consumer, err := NewBotReplyConsumer(replyDeliveries, users, roomRepo, messages, notifier, stats, log, botName)
	req.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sup := NewSupervisor(log, 10*time.Millisecond)
	sup.Add(worker, consumer)
	go sup.Run(ctx)

	data, err := json.Marshal(bot.StockCommand{RoomID: room.ID, StockCode: "aapl.us"})
	req.NoError(err)
	commandDeliveries <- newFakeDelivery(data)

	var pushed domain.MessageView
	select {
	case pushed = <-sink.views:
	case <-time.After(3 * time.Second):
		t.Fatal("no message pushed to the room subscriber")
	}

	req.Equal("AAPL.US quote is $190.32 per share", pushed.Text)
	req.Equal(botName, pushed.UserName)
	req.Equal(room.ID, pushed.RoomID)

	// The reply is also durable in the room history, attributed to the bot.
	history, err := messages.GetMessagesByRoom(room.ID, nil)
	req.NoError(err)
	req.Len(history, 1)
	req.Equal(pushed.Text, history[0].Text)

	botUser, err := users.GetUserByName(botName)
	req.NoError(err)
	req.Equal(botUser.ID, history[0].UserID)

	req.Equal(uint64(1), stats.CommandsConsumed.Load())
	req.Equal(uint64(1), stats.RepliesPublished.Load())
	req.Equal(uint64(1), stats.RepliesConsumed.Load())
	req.Equal(uint64(1), stats.MessagesPersisted.Load())
}
