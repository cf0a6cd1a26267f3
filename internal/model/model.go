package model

import "time"

// Источник новостей. Список источников статический и не меняется во время работы
type Source struct {
	// Имя, которое попадает в подпись поста
	Name string `yaml:"name"`
	// Урл откуда забираем ленту
	FeedURL string `yaml:"url"`
}

// Кандидат на иллюстрацию к новости, найденный прямо в ленте
type ImageCandidate struct {
	URL string
	// Откуда взяли ссылку: media, thumbnail, enclosure, html
	Kind ImageKind
	// MIME тип, если лента его указала
	Type string
}

type ImageKind string

const (
	ImageKindMedia     ImageKind = "media"
	ImageKindThumbnail ImageKind = "thumbnail"
	ImageKindEnclosure ImageKind = "enclosure"
	ImageKindHTML      ImageKind = "html"
)

// Новость как элемент ленты
type Item struct {
	// Заголовок
	Title string
	// Ссылка на статью
	Link string
	// Дата публикации строкой, как она пришла в ленте
	Published string
	// Распарсенная дата публикации. nil, если разобрать не удалось
	PublishedAt *time.Time
	// Краткое описание (description или summary)
	Description string
	// Полный контент, если лента его отдает
	Content string
	// Категории статьи
	Categories []string
	// Картинки в порядке приоритета
	Images []ImageCandidate
	// Имя источника
	SourceName string
}

// Запись о запощенной новости, из таких записей собирается дайджест за день
type NewsRecord struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Source      string    `json:"source"`
	Published   string    `json:"published"`
	PostedAt    time.Time `json:"posted_at"`
}

// Слот дайджеста
type Slot string

const (
	SlotMorning Slot = "morning"
	SlotNoon    Slot = "noon"
	SlotEvening Slot = "evening"
	// Ручной дайджест по команде, в расписании не участвует
	SlotManual Slot = "manual"
)

// Заголовок дайджеста для слота
func (s Slot) Title() string {
	switch s {
	case SlotMorning:
		return "Morning Briefing"
	case SlotNoon:
		return "Midday Update"
	case SlotEvening:
		return "Evening Recap"
	case SlotManual:
		return "Manual Summary"
	default:
		return "Daily Summary"
	}
}
