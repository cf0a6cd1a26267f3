package digest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kovalyov-valentin/news-digest-bot/internal/clock"
	"github.com/kovalyov-valentin/news-digest-bot/internal/model"
	"github.com/kovalyov-valentin/news-digest-bot/internal/summary"
)

const (
	// Сколько последних новостей уходит в модель
	promptItems = 20
	maxTokens   = 180
	temperature = 0.65

	dateLayout = "January 02, 2006"
)

const systemPrompt = `You are a concise global markets analyst. Write a very short recap — 2 to 4 bullet points maximum.
Focus exclusively on the MOST important market-moving events/trends from TODAY's news only.
Start directly with bullets. No introductions, no commentary, no extra text.
Use this exact format for each line:
- Event description in one clear sentence.

Be direct, factual, professional. Use numbers and names where relevant.`

// Draft - готовый текст дайджеста, без разметки
type Draft struct {
	Text string
	// Текст написала модель, а не заглушка
	Generated bool
	Items     int
	Date      string
}

type Composer struct {
	completer summary.Completer
	timeout   time.Duration
	location  *time.Location
	clock     clock.Clock
	log       *slog.Logger
}

func NewComposer(completer summary.Completer, timeout time.Duration, location *time.Location, log *slog.Logger) *Composer {
	return &Composer{
		completer: completer,
		timeout:   timeout,
		location:  location,
		clock:     clock.Real{},
		log:       log.With("component", "digest"),
	}
}

func (c *Composer) WithClock(clk clock.Clock) *Composer {
	c.clock = clk
	return c
}

// Compose никогда не падает: если модель недоступна, возвращает текст с предупреждением
func (c *Composer) Compose(ctx context.Context, slot model.Slot, records []model.NewsRecord) Draft {
	date := c.clock.Now().In(c.location).Format(dateLayout)
	header := fmt.Sprintf("📊 %s (%s)", slot.Title(), date)

	draft := Draft{Items: len(records), Date: date}

	if len(records) == 0 {
		draft.Text = header + "\n\nNo significant news during this period."
		return draft
	}

	if len(records) > promptItems {
		records = records[len(records)-promptItems:]
	}

	var headlines strings.Builder
	for _, r := range records {
		fmt.Fprintf(&headlines, "[%s] %s\n", r.Source, r.Title)
	}

	genCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	text, err := c.completer.Complete(genCtx, summary.Request{
		System:      systemPrompt,
		Prompt:      fmt.Sprintf("Date: %s\nNews headlines:\n%s", date, headlines.String()),
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		c.log.Error("failed to generate summary", "slot", string(slot), "error", err)
		draft.Text = header + "\n\n⚠️ Failed to generate summary"
		return draft
	}

	body := Bullets(text)
	if body == "" {
		body = strings.TrimSpace(text)
	}

	draft.Text = header + " — Key market-moving events:\n\n" + body
	draft.Generated = true

	return draft
}

// Bullets раскладывает ответ модели по предложению на строку.
// Точка считается концом предложения, только если за ней пробел или конец строки,
// поэтому "2.5%" не разрывается
func Bullets(text string) string {
	var lines []string

	for _, line := range strings.Split(text, "\n") {
		runes := []rune(strings.Join(strings.Fields(line), " "))

		start := 0
		for i, r := range runes {
			if r != '.' && r != '!' && r != '?' {
				continue
			}
			if i+1 == len(runes) || runes[i+1] == ' ' {
				lines = appendBullet(lines, string(runes[start:i+1]))
				start = i + 1
			}
		}
		lines = appendBullet(lines, string(runes[start:]))
	}

	return strings.Join(lines, "\n")
}

func appendBullet(lines []string, sentence string) []string {
	s := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(sentence), "-*•"))
	if s == "" {
		return lines
	}

	if !strings.HasSuffix(s, ".") && !strings.HasSuffix(s, "!") && !strings.HasSuffix(s, "?") {
		s += "."
	}

	return append(lines, "• "+s)
}
