package media

import (
	"github.com/kovalyov-valentin/news-digest-bot/internal/model"
)

// ImageURL выбирает ссылку на картинку прямо из ленты.
// Приоритет: media:content, media:thumbnail, enclosure с image/*, затем <img> в контенте и описании
func ImageURL(item model.Item) string {
	for _, kind := range []model.ImageKind{model.ImageKindMedia, model.ImageKindThumbnail, model.ImageKindEnclosure} {
		for _, c := range item.Images {
			if c.Kind == kind && c.URL != "" {
				return c.URL
			}
		}
	}

	for _, html := range []string{item.Content, item.Description} {
		if u := FirstImage(html); u != "" {
			return u
		}
	}

	return ""
}
