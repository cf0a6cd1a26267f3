package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/samber/lo"

	"github.com/kovalyov-valentin/news-digest-bot/internal/botkit"
	"github.com/kovalyov-valentin/news-digest-bot/internal/botkit/markup"
	"github.com/kovalyov-valentin/news-digest-bot/internal/model"
)

// Список лент из каталога. Каталог не меняется во время работы, поэтому берем его как есть
func ViewCmdListSources(sources []model.Source) botkit.ViewFunc {
	return func(ctx context.Context, bot *tgbotapi.BotAPI, update tgbotapi.Update) error {
		var (
			// Складываем в нее сформатированные тексты с метаинформацией об источниках
			sourceInfos = lo.Map(sources, func(source model.Source, _ int) string {
				return formatSource(source)
			})
			msgText = fmt.Sprintf(
				"Feeds \\(%d total\\):\n\n%s",
				len(sources),
				strings.Join(sourceInfos, "\n\n"),
			)
		)

		reply := tgbotapi.NewMessage(update.Message.Chat.ID, msgText)
		reply.ParseMode = tgbotapi.ModeMarkdownV2
		reply.DisableWebPagePreview = true

		if _, err := bot.Send(reply); err != nil {
			return err
		}
		return nil
	}
}

// Вывод форматированной информации об источнике
func formatSource(source model.Source) string {
	return fmt.Sprintf(
		"🌐 %s\nFeed URL: %s",
		markup.Bold(markup.MarkdownV2, source.Name),
		markup.EscapeForMarkdown(source.FeedURL),
	)
}
