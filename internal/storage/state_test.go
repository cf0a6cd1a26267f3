package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kovalyov-valentin/news-digest-bot/internal/logger"
)

func TestMessageRef(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()

	ref := LoadNotificationRef(ctx, backend, logger.Discard())
	_, ok := ref.Get()
	assert.False(t, ok)

	ref.Set(ctx, 42)
	id, ok := ref.Get()
	require.True(t, ok)
	assert.Equal(t, 42, id)

	raw, _ := backend.Raw(KeyLastNotification)
	assert.JSONEq(t, `{"message_id": 42}`, string(raw))

	reloaded := LoadNotificationRef(ctx, backend, logger.Discard())
	id, ok = reloaded.Get()
	require.True(t, ok)
	assert.Equal(t, 42, id)
}

func TestPinRef_NullAndFormat(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	backend.Put(KeyLastPinnedSummary, []byte(`{"pinned_message_id": null}`))

	ref := LoadPinRef(ctx, backend, logger.Discard())
	_, ok := ref.Get()
	assert.False(t, ok)

	ref.Set(ctx, 7)
	raw, _ := backend.Raw(KeyLastPinnedSummary)
	assert.JSONEq(t, `{"pinned_message_id": 7}`, string(raw))
}

func TestSlotLedger(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	backend.Put(KeyLastSentSummaries, []byte(`{"morning": "2026-10-15", "noon": null, "evening": null}`))

	l := LoadSlotLedger(ctx, backend, logger.Discard())
	assert.Equal(t, "2026-10-15", l.LastFired("morning"))
	assert.Equal(t, "", l.LastFired("noon"))

	l.MarkFired(ctx, "noon", "2026-10-16")

	reloaded := LoadSlotLedger(ctx, backend, logger.Discard())
	assert.Equal(t, "2026-10-15", reloaded.LastFired("morning"))
	assert.Equal(t, "2026-10-16", reloaded.LastFired("noon"))
}
