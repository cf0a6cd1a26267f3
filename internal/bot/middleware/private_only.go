package middleware

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/tomakado/containers/set"

	"github.com/kovalyov-valentin/news-digest-bot/internal/botkit"
)

// ChatTypes пропускает команду только из чатов перечисленных типов,
// остальным отвечает rejectText
func ChatTypes(allowed []string, rejectText string, next botkit.ViewFunc) botkit.ViewFunc {
	allowedSet := set.New(allowed...)

	return func(ctx context.Context, bot *tgbotapi.BotAPI, update tgbotapi.Update) error {
		chat := update.Message.Chat
		if chat == nil {
			return nil
		}

		if allowedSet.Contains(chat.Type) {
			return next(ctx, bot, update)
		}

		reply := tgbotapi.NewMessage(chat.ID, rejectText)
		reply.ReplyToMessageID = update.Message.MessageID

		if _, err := bot.Send(reply); err != nil {
			return err
		}
		return nil
	}
}

// PrivateOnly - только личка с ботом, не группы и не каналы
func PrivateOnly(rejectText string, next botkit.ViewFunc) botkit.ViewFunc {
	return ChatTypes([]string{"private"}, rejectText, next)
}
