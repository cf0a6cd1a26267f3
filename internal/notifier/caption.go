package notifier

import (
	"fmt"
	"strings"

	"github.com/kovalyov-valentin/news-digest-bot/internal/botkit/markup"
	"github.com/kovalyov-valentin/news-digest-bot/internal/media"
	"github.com/kovalyov-valentin/news-digest-bot/internal/model"
)

const (
	// Сколько символов описания попадает в подпись
	descriptionLimit = 220
	// Из даты публикации оставляем "Mon, 02 Jan 2006" без времени
	dateLimit = 16
)

// Caption - текст поста в двух вариантах
type Caption struct {
	// MarkdownV2, подпись к фото или текст сообщения
	Markdown string
	// Без разметки, уходит если телеграм отверг Markdown
	Plain string
	// Обрезанное описание, нужно для промпта картинки
	ShortDesc string
}

func BuildCaption(item model.Item) Caption {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		title = "No title"
	}

	link := item.Link
	if link == "" {
		link = "no link"
	}

	published := item.Published
	if published == "" {
		published = "date unknown"
	}
	published = truncateRunes(published, dateLimit)

	desc := item.Description
	if desc == "" {
		desc = item.Content
	}
	short := ShortDescription(media.HTMLToText(desc))

	trailer := item.SourceName + " • " + published

	var md strings.Builder
	md.WriteString(markup.Bold(markup.MarkdownV2, title))
	md.WriteString("\n\n")
	md.WriteString(markup.EscapeForMarkdown(short))
	md.WriteString("\n\n")
	if item.Link != "" {
		md.WriteString(markup.Link(markup.MarkdownV2, trailer, item.Link))
	} else {
		md.WriteString(markup.EscapeForMarkdown(trailer))
	}

	return Caption{
		Markdown:  md.String(),
		Plain:     fmt.Sprintf("📰 %s\n%s\n\n%s\n%s", title, short, trailer, link),
		ShortDesc: short,
	}
}

// ShortDescription обрезает текст до 220 символов по границе слова и ставит многоточие
func ShortDescription(text string) string {
	runes := []rune(text)
	if len(runes) <= descriptionLimit {
		return text
	}

	cut := string(runes[:descriptionLimit])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}

	return cut + "…"
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
