package search

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"

	"finchat/domain"
)

func setupIndex(t *testing.T) *MessageIndex {
	t.Helper()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	require.NoError(t, err)

	idx := NewMessageIndex(writer, log)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestMessageIndex_SearchIsRoomScoped(t *testing.T) {
	req := require.New(t)
	idx := setupIndex(t)
	ctx := context.Background()

	roomA := uuid.New()
	roomB := uuid.New()
	now := time.Now().UTC()

	inRoomA := domain.Message{ID: uuid.New(), RoomID: roomA, UserID: uuid.New(), Text: "apple quote please", Timestamp: now}
	inRoomB := domain.Message{ID: uuid.New(), RoomID: roomB, UserID: uuid.New(), Text: "apple pie recipe", Timestamp: now}
	req.NoError(idx.Index(inRoomA))
	req.NoError(idx.Index(inRoomB))

	hits, err := idx.Search(ctx, roomA, "apple", 10)
	req.NoError(err)
	req.Len(hits, 1)
	req.Equal(inRoomA.ID, hits[0].MessageID)
	req.Equal(roomA, hits[0].RoomID)
	req.Equal("apple quote please", hits[0].Text)
}

func TestMessageIndex_NoMatches(t *testing.T) {
	req := require.New(t)
	idx := setupIndex(t)

	roomID := uuid.New()
	message := domain.Message{ID: uuid.New(), RoomID: roomID, UserID: uuid.New(), Text: "hello world", Timestamp: time.Now().UTC()}
	req.NoError(idx.Index(message))

	hits, err := idx.Search(context.Background(), roomID, "unrelated", 10)
	req.NoError(err)
	req.Empty(hits)
}

func TestMessageIndex_ReindexSameMessageID(t *testing.T) {
	req := require.New(t)
	idx := setupIndex(t)
	ctx := context.Background()

	roomID := uuid.New()
	message := domain.Message{ID: uuid.New(), RoomID: roomID, UserID: uuid.New(), Text: "draft text", Timestamp: time.Now().UTC()}
	req.NoError(idx.Index(message))

	// Updating under the same id replaces the document, not duplicates it.
	message.Text = "final text"
	req.NoError(idx.Index(message))

	hits, err := idx.Search(ctx, roomID, "text", 10)
	req.NoError(err)
	req.Len(hits, 1)
	req.Equal("final text", hits[0].Text)
}
