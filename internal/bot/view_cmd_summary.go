package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/kovalyov-valentin/news-digest-bot/internal/botkit"
	"github.com/kovalyov-valentin/news-digest-bot/internal/digest"
	"github.com/kovalyov-valentin/news-digest-bot/internal/model"
)

const (
	SummaryPrivateOnlyText = "The /summary command works only in private messages"

	summaryPinnedText   = "Summary posted and pinned to the channel"
	summaryUnpinnedText = "Summary posted to the channel, but could not pin it"
)

type SummaryPublisher interface {
	Publish(ctx context.Context, slot model.Slot) (digest.Result, error)
}

// Внеочередной дайджест по команде
func ViewCmdSummary(publisher SummaryPublisher) botkit.ViewFunc {
	return func(ctx context.Context, bot *tgbotapi.BotAPI, update tgbotapi.Update) error {
		res, err := publisher.Publish(ctx, model.SlotManual)
		if err != nil {
			return err
		}

		text := summaryPinnedText
		if !res.Pinned {
			text = summaryUnpinnedText
		}

		reply := tgbotapi.NewMessage(update.Message.Chat.ID, text)
		reply.ReplyToMessageID = update.Message.MessageID

		if _, err := bot.Send(reply); err != nil {
			return err
		}
		return nil
	}
}
