package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"finchat/contract"
	"finchat/domain"
	"finchat/domain/bot"
	"finchat/errors"
	"finchat/observability"
)

// StockWorker drains the commands queue: one delivery at a time, one quote
// lookup per command, one reply published per command. Provider failures
// are folded into an apology reply instead of being retried; the user
// always gets an answer and the queue never blocks on a bad item.
type StockWorker struct {
	deliveries <-chan contract.Delivery
	quotes     contract.IQuoteSource
	replies    contract.IReplyPublisher
	stats      *observability.PipelineStats
	log        *slog.Logger
}

func NewStockWorker(
	deliveries <-chan contract.Delivery,
	quotes contract.IQuoteSource,
	replies contract.IReplyPublisher,
	stats *observability.PipelineStats,
	log *slog.Logger,
) *StockWorker {
	return &StockWorker{
		deliveries: deliveries,
		quotes:     quotes,
		replies:    replies,
		stats:      stats,
		log:        log,
	}
}

func (w *StockWorker) Run(ctx context.Context) error {
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

// handle processes one delivery to completion. The recover boundary turns
// a handler panic into a log line with the item acknowledged: a single bad
// item must never wedge the consumer or loop through redelivery.
func (w *StockWorker) handle(ctx context.Context, delivery contract.Delivery) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("Panic while processing stock command", "panic", r)
			if err := delivery.Ack(); err != nil {
				w.log.Warn("Failed to ack after panic", "err", err)
			}
		}
	}()

	var cmd bot.StockCommand
	if err := json.Unmarshal(delivery.Data(), &cmd); err != nil {
		// A malformed payload can never succeed on retry.
		w.log.Warn("Invalid command payload, dropping", "err", err)
		w.stats.CommandsDropped.Add(1)
		if err := delivery.Term(); err != nil {
			w.log.Warn("Failed to terminate malformed delivery", "err", err)
		}
		return
	}
	w.stats.CommandsConsumed.Add(1)

	reply := bot.Reply{
		RoomID: cmd.RoomID,
		Text:   w.composeReply(ctx, cmd),
	}

	if err := w.replies.Publish(ctx, reply); err != nil {
		w.log.Error("Failed to publish bot reply", "room", cmd.RoomID, "err", err)
	} else {
		w.stats.RepliesPublished.Add(1)
	}

	// Ack after the publish attempt, success or not: the command has been
	// answered as well as it ever will be.
	if err := delivery.Ack(); err != nil {
		w.log.Warn("Failed to ack stock command", "err", err)
	}
}

// composeReply turns a quote lookup into the user-visible message text.
func (w *StockWorker) composeReply(ctx context.Context, cmd bot.StockCommand) string {
	quote := w.quotes.Fetch(ctx, cmd.StockCode)

	switch quote.Failure {
	case domain.QuoteNone:
		return fmt.Sprintf("%s quote is $%s per share", strings.ToUpper(quote.Symbol), quote.Price)
	case domain.QuoteEmptyReply:
		w.stats.QuoteFailures.Add(1)
		return fmt.Sprintf("Sorry, I couldn't retrieve a quote for %s.", cmd.StockCode)
	case domain.QuoteNoData:
		w.stats.QuoteFailures.Add(1)
		return fmt.Sprintf("Sorry, I couldn't find a valid quote for %s.", quote.Symbol)
	default:
		w.stats.QuoteFailures.Add(1)
		return fmt.Sprintf("Sorry, an error occurred while retrieving the quote for %s.", cmd.StockCode)
	}
}
