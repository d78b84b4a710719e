// Package realtime is the room-scoped push channel: websocket connections
// subscribe to a room and receive every message persisted there, whether
// it came from a participant or from the stock bot.
package realtime

import (
	"context"

	"finchat/domain"
	"finchat/observability"
)

// Sink buffers message views for one websocket connection. Consume never
// blocks the caller: when the buffer is full the view is dropped and
// counted, because a slow client must not stall the pipeline.
type Sink struct {
	Events chan domain.MessageView
	stats  *observability.PipelineStats
}

func NewSink(bufferSize int, stats *observability.PipelineStats) *Sink {
	return &Sink{
		Events: make(chan domain.MessageView, bufferSize),
		stats:  stats,
	}
}

func (s *Sink) Consume(ctx context.Context, view domain.MessageView) error {
	select {
	case s.Events <- view:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		s.stats.PushDropped.Add(1)
		return nil
	}
}
