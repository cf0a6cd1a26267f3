package digest

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kovalyov-valentin/news-digest-bot/internal/botkit"
	"github.com/kovalyov-valentin/news-digest-bot/internal/botkit/telegramtest"
	"github.com/kovalyov-valentin/news-digest-bot/internal/logger"
	"github.com/kovalyov-valentin/news-digest-bot/internal/metrics"
	"github.com/kovalyov-valentin/news-digest-bot/internal/model"
	"github.com/kovalyov-valentin/news-digest-bot/internal/publisher"
	"github.com/kovalyov-valentin/news-digest-bot/internal/storage"
)

const testChannelID = -100555

type recordingEvents struct {
	mu      sync.Mutex
	payload []any
}

func (r *recordingEvents) Publish(_ context.Context, _ string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payload = append(r.payload, payload)
	return nil
}

type serviceEnv struct {
	svc     *Service
	srv     *telegramtest.Server
	buffer  *Buffer
	pin     *storage.MessageRef
	backend *storage.MemoryBackend
	events  *recordingEvents
	metrics *metrics.Metrics
}

func newServiceEnv(t *testing.T, gen *fakeCompleter) *serviceEnv {
	t.Helper()

	log := logger.Discard()
	srv := telegramtest.NewServer(t)
	backend := storage.NewMemoryBackend()

	e := &serviceEnv{
		srv:     srv,
		buffer:  NewBuffer(),
		pin:     storage.LoadPinRef(context.Background(), backend, log),
		backend: backend,
		events:  &recordingEvents{},
		metrics: metrics.New(),
	}

	e.svc = NewService(
		e.buffer,
		newComposer(gen),
		botkit.NewChannel(srv.BotAPI(t), testChannelID, 0),
		e.pin,
		e.events,
		e.metrics,
		log,
	)

	return e
}

func TestService_EmptyBuffer(t *testing.T) {
	e := newServiceEnv(t, &fakeCompleter{})

	res, err := e.svc.Publish(context.Background(), model.SlotMorning)
	require.NoError(t, err)
	assert.True(t, res.Pinned)
	assert.Zero(t, res.Items)

	sends := e.srv.Calls("sendMessage")
	require.Len(t, sends, 1)
	assert.Equal(t,
		"📊 Morning Briefing \\(October 16, 2026\\)\n\nNo significant news during this period\\.",
		sends[0].Params.Get("text"),
	)
	assert.Equal(t, "MarkdownV2", sends[0].Params.Get("parse_mode"))

	pins := e.srv.Calls("pinChatMessage")
	require.Len(t, pins, 1)
	assert.Equal(t, res.MessageID, pins[0].Int("message_id"))
	assert.Equal(t, "true", pins[0].Params.Get("disable_notification"))

	id, ok := e.pin.Get()
	require.True(t, ok)
	assert.Equal(t, res.MessageID, id)
}

func TestService_RotatesPinAndClearsBuffer(t *testing.T) {
	e := newServiceEnv(t, &fakeCompleter{text: "Gold rose. Oil fell."})
	ctx := context.Background()

	e.buffer.Append(model.NewsRecord{Title: "Gold rose", Source: "CNBC"})
	first, err := e.svc.Publish(ctx, model.SlotMorning)
	require.NoError(t, err)
	assert.True(t, first.Generated)
	assert.Zero(t, e.buffer.Len())

	e.buffer.Append(model.NewsRecord{Title: "Oil fell", Source: "Reuters"})
	second, err := e.svc.Publish(ctx, model.SlotNoon)
	require.NoError(t, err)

	unpins := e.srv.Calls("unpinChatMessage")
	require.Len(t, unpins, 1)
	assert.Equal(t, first.MessageID, unpins[0].Int("message_id"))

	id, _ := e.pin.Get()
	assert.Equal(t, second.MessageID, id)

	require.Len(t, e.events.payload, 2)
	ev := e.events.payload[1].(publisher.DigestPublished)
	assert.Equal(t, "noon", ev.Slot)
	assert.Equal(t, 1, ev.Items)
	assert.True(t, ev.Pinned)
	assert.EqualValues(t, 2, e.metrics.DigestsPublished)
}

func TestService_PinFailureSendsAnnotatedCopy(t *testing.T) {
	e := newServiceEnv(t, &fakeCompleter{})
	e.srv.FailNext("pinChatMessage", 400, "Bad Request: not enough rights to pin a message")

	res, err := e.svc.Publish(context.Background(), model.SlotEvening)
	require.NoError(t, err)
	assert.False(t, res.Pinned)

	sends := e.srv.Calls("sendMessage")
	require.Len(t, sends, 2)

	deletes := e.srv.Calls("deleteMessage")
	require.Len(t, deletes, 1)
	assert.Equal(t, e.srv.LastMessageID()-1, deletes[0].Int("message_id"))

	annotated := sends[1].Params.Get("text")
	assert.True(t, strings.HasPrefix(annotated, sends[0].Params.Get("text")))
	assert.True(t, strings.HasSuffix(annotated, "\n\n_\\(could not pin message\\)_"))
	assert.Equal(t, e.srv.LastMessageID(), res.MessageID)

	_, ok := e.pin.Get()
	assert.False(t, ok)
}

func TestService_SendFailureFallsBack(t *testing.T) {
	e := newServiceEnv(t, &fakeCompleter{})
	e.srv.FailNext("sendMessage", 400, "Bad Request: can't parse entities")

	res, err := e.svc.Publish(context.Background(), model.SlotManual)
	require.NoError(t, err)
	assert.False(t, res.Pinned)
	assert.Empty(t, e.srv.Calls("pinChatMessage"))
	assert.Len(t, e.srv.Calls("sendMessage"), 2)
}

func TestService_TotalFailure(t *testing.T) {
	e := newServiceEnv(t, &fakeCompleter{})
	e.buffer.Append(model.NewsRecord{Title: "Gold"})
	e.srv.FailNext("sendMessage", 500, "Internal Server Error")
	e.srv.FailNext("sendMessage", 500, "Internal Server Error")

	_, err := e.svc.Publish(context.Background(), model.SlotManual)
	require.Error(t, err)

	// Буфер все равно очищается
	assert.Zero(t, e.buffer.Len())
	assert.Empty(t, e.events.payload)
}

func TestService_KeepsItemsAddedDuringCompose(t *testing.T) {
	gen := &fakeCompleter{text: "Gold rose."}
	e := newServiceEnv(t, gen)
	gen.onRun = func() {
		e.buffer.Append(model.NewsRecord{Title: "Late news"})
	}

	e.buffer.Append(model.NewsRecord{Title: "Gold rose"})
	_, err := e.svc.Publish(context.Background(), model.SlotMorning)
	require.NoError(t, err)

	rest := e.buffer.Snapshot()
	require.Len(t, rest, 1)
	assert.Equal(t, "Late news", rest[0].Title)
}

func TestService_OneDigestAtATime(t *testing.T) {
	e := newServiceEnv(t, &fakeCompleter{})

	var wg sync.WaitGroup
	for _, slot := range []model.Slot{model.SlotMorning, model.SlotManual} {
		wg.Add(1)
		go func(slot model.Slot) {
			defer wg.Done()
			_, err := e.svc.Publish(context.Background(), slot)
			assert.NoError(t, err)
		}(slot)
	}
	wg.Wait()

	pins := e.srv.Calls("pinChatMessage")
	unpins := e.srv.Calls("unpinChatMessage")
	require.Len(t, pins, 2)
	require.Len(t, unpins, 1)

	// Второй дайджест снимает закреп именно с первого
	assert.Equal(t, pins[0].Int("message_id"), unpins[0].Int("message_id"))
}
