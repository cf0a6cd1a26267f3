package botkit

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/kovalyov-valentin/news-digest-bot/internal/botkit/markup"
)

// API - та часть tgbotapi.BotAPI, которая нужна для работы с каналом
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Channel - клиент одного канала. Все отправки проходят через лимитер,
// чтобы не упереться во флуд-контроль телеграма
type Channel struct {
	api     API
	chatID  int64
	limiter *rate.Limiter
}

// perMinute <= 0 отключает лимитер
func NewChannel(api API, chatID int64, perMinute int) *Channel {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if perMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 3)
	}

	return &Channel{
		api:     api,
		chatID:  chatID,
		limiter: limiter,
	}
}

func (c *Channel) ChatID() int64 {
	return c.chatID
}

func (c *Channel) SendText(ctx context.Context, text string, dialect markup.Dialect, disablePreview bool) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = string(dialect)
	msg.DisableWebPagePreview = disablePreview

	sent, err := c.api.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("send message: %w", err)
	}

	return sent.MessageID, nil
}

func (c *Channel) SendPhoto(ctx context.Context, image []byte, caption string, dialect markup.Dialect) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	photo := tgbotapi.NewPhoto(c.chatID, tgbotapi.FileBytes{Name: "news.jpg", Bytes: image})
	photo.Caption = caption
	photo.ParseMode = string(dialect)

	sent, err := c.api.Send(photo)
	if err != nil {
		return 0, fmt.Errorf("send photo: %w", err)
	}

	return sent.MessageID, nil
}

func (c *Channel) Delete(ctx context.Context, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := c.api.Request(tgbotapi.NewDeleteMessage(c.chatID, messageID)); err != nil {
		return fmt.Errorf("delete message %d: %w", messageID, err)
	}
	return nil
}

func (c *Channel) Pin(ctx context.Context, messageID int, silent bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := c.api.Request(tgbotapi.PinChatMessageConfig{
		ChatID:              c.chatID,
		MessageID:           messageID,
		DisableNotification: silent,
	}); err != nil {
		return fmt.Errorf("pin message %d: %w", messageID, err)
	}
	return nil
}

func (c *Channel) Unpin(ctx context.Context, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := c.api.Request(tgbotapi.UnpinChatMessageConfig{
		ChatID:    c.chatID,
		MessageID: messageID,
	}); err != nil {
		return fmt.Errorf("unpin message %d: %w", messageID, err)
	}
	return nil
}
