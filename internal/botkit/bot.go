package botkit

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Bot struct {
	// Инстанст апи телеграма
	api *tgbotapi.BotAPI
	// Мапа в которой будем хранить view
	cmdViews map[string]ViewFunc
	// Сколько даем view на обработку одной команды.
	// /summary ходит в llm, поэтому таймаут должен покрывать генерацию
	updateTimeout time.Duration
	log           *slog.Logger
}

// Update здесь это любой эвент, который приходит от телеграма при взаимодействии пользователя с ботом
// инстанс botapi - это клиент через который мы получаем доступ к телеграмму
// Это функция которая будет реагировать на определенную команду
type ViewFunc func(ctx context.Context, bot *tgbotapi.BotAPI, update tgbotapi.Update) error

func New(api *tgbotapi.BotAPI, updateTimeout time.Duration, log *slog.Logger) *Bot {
	return &Bot{
		api:           api,
		updateTimeout: updateTimeout,
		log:           log.With("component", "bot"),
	}
}

// Метод для регистрации View для команды
func (b *Bot) RegisterCmdView(cmd string, view ViewFunc) {
	if b.cmdViews == nil {
		b.cmdViews = make(map[string]ViewFunc)
	}

	b.cmdViews[cmd] = view
}

func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case update := <-updates:
			updateCtx, updateCancel := context.WithTimeout(ctx, b.updateTimeout)
			b.handleUpdate(updateCtx, update)
			updateCancel()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Метод, который обрабатывает update и роутит команды на сооветствующие view
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	// В процессе работы бота в каких то view может произойти паника, поэтому мы ее должны перехватить
	defer func() {
		if p := recover(); p != nil {
			b.log.Error("panic recovered", "panic", p, "stack", string(debug.Stack()))
		}
	}()

	if update.Message == nil || !update.Message.IsCommand() {
		return
	}

	cmd := update.Message.Command()

	view, ok := b.cmdViews[cmd]
	if !ok {
		return
	}

	b.log.Debug("handling command", "command", cmd, "chat_id", update.Message.Chat.ID)

	if err := view(ctx, b.api, update); err != nil {
		b.log.Error("failed to handle update", "command", cmd, "error", err)

		if _, err := b.api.Send(
			tgbotapi.NewMessage(update.Message.Chat.ID, "internal error"),
		); err != nil {
			b.log.Error("failed to send message", "error", err)
		}
	}
}
