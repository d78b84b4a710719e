package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"finchat/domain/bot"
)

// CommandBus publishes parsed stock commands to the durable commands
// queue. It keeps no local state: one durable broker write per call.
type CommandBus struct {
	bus *Bus
}

// NewCommandBus declares the commands queue so enqueued items have a home
// even before any worker has started.
func NewCommandBus(ctx context.Context, bus *Bus) (*CommandBus, error) {
	if _, err := bus.DeclareCommandQueue(ctx); err != nil {
		return nil, err
	}
	return &CommandBus{bus: bus}, nil
}

func (c *CommandBus) Enqueue(ctx context.Context, cmd bot.StockCommand) error {
	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("failed to marshal stock command: %w", err)
	}
	if _, err := c.bus.js.Publish(ctx, CommandSubject, data); err != nil {
		return fmt.Errorf("failed to enqueue stock command: %w", err)
	}
	return nil
}

// ReplyPublisher publishes formatted bot replies to the durable replies
// queue.
type ReplyPublisher struct {
	bus *Bus
}

func NewReplyPublisher(ctx context.Context, bus *Bus) (*ReplyPublisher, error) {
	if _, err := bus.DeclareReplyQueue(ctx); err != nil {
		return nil, err
	}
	return &ReplyPublisher{bus: bus}, nil
}

func (p *ReplyPublisher) Publish(ctx context.Context, reply bot.Reply) error {
	data, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("failed to marshal bot reply: %w", err)
	}
	if _, err := p.bus.js.Publish(ctx, ReplySubject, data); err != nil {
		return fmt.Errorf("failed to publish bot reply: %w", err)
	}
	return nil
}
