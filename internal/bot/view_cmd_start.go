package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/kovalyov-valentin/news-digest-bot/internal/botkit"
)

const startText = `I post market-moving news to the channel and pin a digest three times a day.

/summary - post and pin a digest right now (private chat only)
/sources - list the feeds I read`

func ViewCmdStart() botkit.ViewFunc {
	return func(ctx context.Context, bot *tgbotapi.BotAPI, update tgbotapi.Update) error {
		reply := tgbotapi.NewMessage(update.Message.Chat.ID, startText)
		reply.DisableWebPagePreview = true

		if _, err := bot.Send(reply); err != nil {
			return err
		}
		return nil
	}
}
