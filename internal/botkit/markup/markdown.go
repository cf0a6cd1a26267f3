package markup

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Dialect - режим разметки телеграма, под который экранируем текст
type Dialect string

const (
	MarkdownV2 Dialect = tgbotapi.ModeMarkdownV2
	Markdown   Dialect = tgbotapi.ModeMarkdown
	// Без разметки, текст уходит как есть
	Plain Dialect = ""
)

var (
	// Обратный слэш идет первым: replacer проходит строку один раз, поэтому двойного экранирования не будет
	replacerV2 = strings.NewReplacer(
		"\\", "\\\\",
		"-", "\\-",
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"]", "\\]",
		"(", "\\(",
		")", "\\)",
		"~", "\\~",
		"`", "\\`",
		">", "\\>",
		"#", "\\#",
		"+", "\\+",
		"=", "\\=",
		"|", "\\|",
		"{", "\\{",
		"}", "\\}",
		".", "\\.",
		"!", "\\!",
	)

	// В legacy Markdown экранируются только символы разметки
	replacerLegacy = strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"`", "\\`",
		"[", "\\[",
	)

	// Внутри (...) ссылки в MarkdownV2 экранируются только ) и \
	replacerV2URL = strings.NewReplacer(
		"\\", "\\\\",
		")", "\\)",
	)
)

// Функция которая делает escape спец символы markdown специально для телеграма
func EscapeForMarkdown(src string) string {
	return replacerV2.Replace(src)
}

func Escape(d Dialect, src string) string {
	switch d {
	case MarkdownV2:
		return replacerV2.Replace(src)
	case Markdown:
		return replacerLegacy.Replace(src)
	default:
		return src
	}
}

func Bold(d Dialect, src string) string {
	if d == Plain {
		return src
	}
	return "*" + Escape(d, src) + "*"
}

// Link собирает ссылку [text](url). В Plain возвращает "text url"
func Link(d Dialect, text, url string) string {
	switch d {
	case MarkdownV2:
		return "[" + replacerV2.Replace(text) + "](" + replacerV2URL.Replace(url) + ")"
	case Markdown:
		return "[" + replacerLegacy.Replace(text) + "](" + url + ")"
	default:
		return text + " " + url
	}
}
