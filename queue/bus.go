// Package queue wires the two durable queues of the stock bot pipeline on
// NATS JetStream: parsed stock commands flow to the stock worker, formatted
// bot replies flow back to the chat server. Both streams are file-backed
// work queues, so items survive a broker restart until acknowledged.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"finchat/contract"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	CommandStream   = "STOCK_COMMANDS"
	CommandSubject  = "stock.commands"
	CommandConsumer = "stock-workers"

	ReplyStream   = "BOT_REPLIES"
	ReplySubject  = "bot.replies"
	ReplyConsumer = "bot-reply-consumers"
)

// Bus holds the broker connection shared by publishers and consumers.
type Bus struct {
	nc  *nats.Conn
	js  jetstream.JetStream
	log *slog.Logger
}

func Connect(url string, log *slog.Logger) (*Bus, error) {
	// Reconnect forever: the queues are durable precisely so the pipeline
	// survives broker restarts, however long they take. A capped reconnect
	// would close the connection for good and starve the consumers.
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			log.Info("Reconnected to NATS", "url", conn.ConnectedUrl())
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("Disconnected from NATS", "err", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	log.Info("Connected to NATS", "url", url)
	return &Bus{nc: nc, js: js, log: log}, nil
}

func (b *Bus) Close() {
	if b.nc != nil {
		b.nc.Close()
		b.log.Info("NATS connection closed")
	}
}

// declareStream creates or updates one durable work queue. Declaration is
// idempotent: every producer and consumer declares the queues it touches
// on startup, whichever process comes up first wins.
func (b *Bus) declareStream(ctx context.Context, name, subject, description string) (jetstream.Stream, error) {
	stream, err := b.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        name,
		Description: description,
		Subjects:    []string{subject},
		Retention:   jetstream.WorkQueuePolicy,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to declare stream %s: %w", name, err)
	}
	return stream, nil
}

func (b *Bus) DeclareCommandQueue(ctx context.Context) (jetstream.Stream, error) {
	return b.declareStream(ctx, CommandStream, CommandSubject, "Parsed stock commands awaiting a quote lookup")
}

func (b *Bus) DeclareReplyQueue(ctx context.Context) (jetstream.Stream, error) {
	return b.declareStream(ctx, ReplyStream, ReplySubject, "Formatted bot replies awaiting persistence and push")
}

// ConsumerOptions bounds a durable consumer. MaxAckPending 1 keeps exactly
// one unacknowledged delivery in flight, which is what serializes handling
// and preserves ack ordering.
type ConsumerOptions struct {
	AckWait       time.Duration
	MaxAckPending int
}

// deliveries declares the durable consumer and feeds its messages into a
// channel so workers can drain it with an ordinary select loop. The
// feeding goroutine stops when ctx is done; an in-flight delivery already
// handed to the worker is still completed by the worker.
func (b *Bus) deliveries(ctx context.Context, stream jetstream.Stream, name string, opts ConsumerOptions) (<-chan contract.Delivery, error) {
	consumer, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Name:          name,
		Durable:       name,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       opts.AckWait,
		MaxAckPending: opts.MaxAckPending,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer %s: %w", name, err)
	}

	iter, err := consumer.Messages(jetstream.PullMaxMessages(1))
	if err != nil {
		return nil, fmt.Errorf("failed to open message iterator for %s: %w", name, err)
	}

	out := make(chan contract.Delivery)
	go func() {
		<-ctx.Done()
		iter.Stop()
	}()
	go func() {
		defer close(out)
		for {
			msg, err := iter.Next()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				b.log.Warn("Message iterator closed", "consumer", name, "err", err)
				return
			}
			select {
			case out <- jsDelivery{msg: msg}:
			case <-ctx.Done():
				// Unclaimed delivery: let the ack deadline expire so the
				// broker redelivers it elsewhere.
				return
			}
		}
	}()
	return out, nil
}

// CommandDeliveries declares both queues (the worker publishes replies for
// every command it consumes) and returns the command delivery channel.
func (b *Bus) CommandDeliveries(ctx context.Context, opts ConsumerOptions) (<-chan contract.Delivery, error) {
	stream, err := b.DeclareCommandQueue(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := b.DeclareReplyQueue(ctx); err != nil {
		return nil, err
	}
	return b.deliveries(ctx, stream, CommandConsumer, opts)
}

// ReplyDeliveries declares the reply queue and returns its delivery channel.
func (b *Bus) ReplyDeliveries(ctx context.Context, opts ConsumerOptions) (<-chan contract.Delivery, error) {
	stream, err := b.DeclareReplyQueue(ctx)
	if err != nil {
		return nil, err
	}
	return b.deliveries(ctx, stream, ReplyConsumer, opts)
}

// jsDelivery adapts a JetStream message to the pipeline Delivery contract.
type jsDelivery struct {
	msg jetstream.Msg
}

func (d jsDelivery) Data() []byte { return d.msg.Data() }
func (d jsDelivery) Ack() error   { return d.msg.Ack() }
func (d jsDelivery) Term() error  { return d.msg.Term() }
