package botkit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kovalyov-valentin/news-digest-bot/internal/botkit/markup"
	"github.com/kovalyov-valentin/news-digest-bot/internal/botkit/telegramtest"
)

const testChannelID = -1001234

func TestChannel_SendText(t *testing.T) {
	srv := telegramtest.NewServer(t)
	ch := NewChannel(srv.BotAPI(t), testChannelID, 0)

	id, err := ch.SendText(context.Background(), "*hi*", markup.MarkdownV2, true)
	require.NoError(t, err)
	assert.Equal(t, srv.LastMessageID(), id)

	calls := srv.Calls("sendMessage")
	require.Len(t, calls, 1)
	assert.Equal(t, "-1001234", calls[0].Params.Get("chat_id"))
	assert.Equal(t, "*hi*", calls[0].Params.Get("text"))
	assert.Equal(t, "MarkdownV2", calls[0].Params.Get("parse_mode"))
	assert.Equal(t, "true", calls[0].Params.Get("disable_web_page_preview"))
}

func TestChannel_SendPhoto(t *testing.T) {
	srv := telegramtest.NewServer(t)
	ch := NewChannel(srv.BotAPI(t), testChannelID, 60)

	img := []byte{0xff, 0xd8, 0xff, 0xe0}
	id, err := ch.SendPhoto(context.Background(), img, "caption", markup.MarkdownV2)
	require.NoError(t, err)
	assert.NotZero(t, id)

	calls := srv.Calls("sendPhoto")
	require.Len(t, calls, 1)
	assert.Equal(t, "caption", calls[0].Params.Get("caption"))
	assert.Equal(t, img, calls[0].Files["photo"])
}

func TestChannel_DeletePinUnpin(t *testing.T) {
	srv := telegramtest.NewServer(t)
	ch := NewChannel(srv.BotAPI(t), testChannelID, 0)
	ctx := context.Background()

	require.NoError(t, ch.Delete(ctx, 11))
	require.NoError(t, ch.Pin(ctx, 12, true))
	require.NoError(t, ch.Unpin(ctx, 13))

	calls := srv.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "deleteMessage", calls[0].Method)
	assert.Equal(t, 11, calls[0].Int("message_id"))
	assert.Equal(t, "pinChatMessage", calls[1].Method)
	assert.Equal(t, "true", calls[1].Params.Get("disable_notification"))
	assert.Equal(t, "unpinChatMessage", calls[2].Method)
	assert.Equal(t, 13, calls[2].Int("message_id"))
}

func TestChannel_ProviderErrors(t *testing.T) {
	srv := telegramtest.NewServer(t)
	ch := NewChannel(srv.BotAPI(t), testChannelID, 0)
	ctx := context.Background()

	srv.FailNext("deleteMessage", 400, "Bad Request: message to delete not found")
	err := ch.Delete(ctx, 1)
	require.Error(t, err)
	assert.True(t, IsAPIError(err))
	assert.True(t, IsNotFound(err))

	srv.FailNext("sendMessage", 400, "Bad Request: can't parse entities")
	_, err = ch.SendText(ctx, "*broken", markup.MarkdownV2, true)
	require.Error(t, err)
	assert.True(t, IsAPIError(err))
	assert.False(t, IsNotFound(err))

	srv.DropNext("sendMessage")
	_, err = ch.SendText(ctx, "text", markup.Plain, true)
	require.Error(t, err)
	assert.False(t, IsAPIError(err))
}
