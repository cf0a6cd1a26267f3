package publisher

import "time"

// Типы событий, они же routing key
const (
	EventNewsPosted      = "news.posted"
	EventDigestPublished = "digest.published"
)

// Envelope - то, что уходит в брокер
type Envelope struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

type NewsPosted struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Source    string `json:"source"`
	Published string `json:"published,omitempty"`
	// feed, article, generated или пусто, если пост ушел без картинки
	ImageOrigin string `json:"image_origin,omitempty"`
	// Пост ушел простым текстом после ошибки телеграма
	Fallback bool `json:"fallback"`
}

type DigestPublished struct {
	Slot      string `json:"slot"`
	Date      string `json:"date"`
	Items     int    `json:"items"`
	MessageID int    `json:"message_id,omitempty"`
	Pinned    bool   `json:"pinned"`
	Generated bool   `json:"generated"`
}
