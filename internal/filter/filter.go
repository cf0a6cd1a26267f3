package filter

import (
	"strings"

	"github.com/kovalyov-valentin/news-digest-bot/internal/model"
)

// Сколько символов ссылки участвует в ключе
const linkKeyLen = 120

// DedupKey - ключ, по которому одну и ту же новость узнаем в разных лентах и между перезапусками
func DedupKey(title, link string) string {
	l := []rune(link)
	if len(l) > linkKeyLen {
		l = l[:linkKeyLen]
	}

	return strings.ToLower(strings.TrimSpace(title)) + "_" + string(l)
}

// Mode определяет, применяются ли стоп-слова
type Mode int

const (
	// Фоновый опрос: нужны ключевые слова и не должно быть стоп-слов
	ModeBackground Mode = iota
	// Стартовый прогон: только ключевые слова
	ModeCatchUp
)

func (m Mode) String() string {
	if m == ModeCatchUp {
		return "catch-up"
	}
	return "background"
}

type Verdict struct {
	Key      string
	Relevant bool
}

type Classifier struct {
	positive []string
	negative []string
}

// Слова ожидаются уже в нижнем регистре, см. config.Catalog
func NewClassifier(positive, negative []string) *Classifier {
	return &Classifier{
		positive: positive,
		negative: negative,
	}
}

func (c *Classifier) Classify(item model.Item, mode Mode) Verdict {
	return Verdict{
		Key:      DedupKey(item.Title, item.Link),
		Relevant: c.IsRelevant(item, mode),
	}
}

func (c *Classifier) IsRelevant(item model.Item, mode Mode) bool {
	title := strings.ToLower(item.Title)
	desc := strings.ToLower(item.Description)

	if !matchesAny(c.positive, title, desc) {
		return false
	}

	if mode == ModeCatchUp {
		return true
	}

	return !matchesAny(c.negative, title, desc)
}

// Совпадение в заголовке или в описании, поля проверяются по отдельности
func matchesAny(keywords []string, title, desc string) bool {
	for _, kw := range keywords {
		if strings.Contains(title, kw) || strings.Contains(desc, kw) {
			return true
		}
	}
	return false
}
