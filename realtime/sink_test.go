package realtime

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"finchat/domain"
	"finchat/observability"
	"finchat/runtime"
)

func TestSink_BuffersUpToCapacity(t *testing.T) {
	req := require.New(t)
	stats := &observability.PipelineStats{}
	sink := NewSink(2, stats)
	ctx := context.Background()

	req.NoError(sink.Consume(ctx, domain.MessageView{Text: "one"}))
	req.NoError(sink.Consume(ctx, domain.MessageView{Text: "two"}))

	req.Equal("one", (<-sink.Events).Text)
	req.Equal("two", (<-sink.Events).Text)
	req.Equal(uint64(0), stats.PushDropped.Load())
}

// A full buffer drops the view instead of blocking the notifying pipeline.
func TestSink_DropsWhenFull(t *testing.T) {
	req := require.New(t)
	stats := &observability.PipelineStats{}
	sink := NewSink(1, stats)
	ctx := context.Background()

	req.NoError(sink.Consume(ctx, domain.MessageView{Text: "kept"}))
	req.NoError(sink.Consume(ctx, domain.MessageView{Text: "dropped"}))

	req.Equal(uint64(1), stats.PushDropped.Load())
	req.Equal("kept", (<-sink.Events).Text)
}

func TestRoomNotifier_FansOutToRoomMembers(t *testing.T) {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	stats := &observability.PipelineStats{}

	registry := runtime.NewRegistry()
	notifier := NewRoomNotifier(registry, log)

	roomID := uuid.New()
	otherRoomID := uuid.New()

	member := NewSink(4, stats)
	bystander := NewSink(4, stats)
	registry.Subscribe("member", roomID, member)
	registry.Subscribe("bystander", otherRoomID, bystander)

	view := domain.MessageView{ID: uuid.New(), RoomID: roomID, Text: "hello"}
	notifier.NotifyMessage(context.Background(), view)

	select {
	case got := <-member.Events:
		req.Equal(view.Text, got.Text)
	default:
		t.Fatal("room member did not receive the message")
	}

	select {
	case <-bystander.Events:
		t.Fatal("message leaked to another room")
	default:
	}
}
