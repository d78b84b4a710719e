//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"finchat/domain"
	"finchat/domain/bot"

	"github.com/google/uuid"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself.
// Can be silly, focused. The supervisor owns restarts.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker
// initialization or lifecycle events, avoiding the need for manual naming
// in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// Delivery is one item pulled from a durable queue. Ack removes it for
// good; Term drops it without redelivery (poison payloads). An item left
// unresolved is redelivered by the broker after its ack deadline.
type Delivery interface {
	Data() []byte
	Ack() error
	Term() error
}

// ICommandBus durably enqueues parsed stock commands from the chat-send
// path. An error means the broker write failed and the send must fail.
type ICommandBus interface {
	Enqueue(ctx context.Context, cmd bot.StockCommand) error
}

// IReplyPublisher durably enqueues formatted bot replies.
type IReplyPublisher interface {
	Publish(ctx context.Context, reply bot.Reply) error
}

// IQuoteSource resolves a stock code to a quote. Implementations convert
// every failure into a QuoteResult; callers never handle errors.
type IQuoteSource interface {
	Fetch(ctx context.Context, stockCode string) domain.QuoteResult
}

// INotifier pushes a message to every client connected to its room.
// Fire-and-forget: delivery to end clients is the channel's concern.
type INotifier interface {
	NotifyMessage(ctx context.Context, view domain.MessageView)
}

// EventSink receives message views for one connected client.
type EventSink interface {
	Consume(ctx context.Context, view domain.MessageView) error
}

type IRegistry interface {
	GetSinksForRoom(roomID uuid.UUID) []EventSink
	Subscribe(participantID string, roomID uuid.UUID, sink EventSink)
	Unsubscribe(participantID string, roomID uuid.UUID)
}
