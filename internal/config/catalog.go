package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/kovalyov-valentin/news-digest-bot/internal/model"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Каталог: какие ленты читаем и по каким словам отбираем новости
//
// feeds:
//   - name: Investing.com News
//     url: https://www.investing.com/rss/news.rss
// keywords: [...]
// negative_keywords: [...]
type Catalog struct {
	Feeds            []model.Source `yaml:"feeds"`
	Keywords         []string       `yaml:"keywords"`
	NegativeKeywords []string       `yaml:"negative_keywords"`
}

// LoadCatalog читает каталог из файла, пустой путь - встроенный каталог
func LoadCatalog(path string) (Catalog, error) {
	data := defaultCatalog
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return Catalog{}, fmt.Errorf("read catalog: %w", err)
		}
	}

	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}

	c.Keywords = normalizeKeywords(c.Keywords)
	c.NegativeKeywords = normalizeKeywords(c.NegativeKeywords)

	if err := c.validate(); err != nil {
		return Catalog{}, err
	}

	return c, nil
}

func (c Catalog) validate() error {
	if len(c.Feeds) == 0 {
		return errors.New("catalog: at least one feed is required")
	}
	if len(c.Keywords) == 0 {
		return errors.New("catalog: at least one keyword is required")
	}

	for i, f := range c.Feeds {
		if f.Name == "" {
			return fmt.Errorf("catalog: feed %d: name is required", i)
		}
		u, err := url.Parse(f.FeedURL)
		if err != nil {
			return fmt.Errorf("catalog: feed %q: invalid url: %w", f.Name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("catalog: feed %q: url scheme must be http or https, got %q", f.Name, u.Scheme)
		}
	}

	return nil
}

// Ключевые слова сравниваются с текстом в нижнем регистре,
// поэтому сразу приводим их к нему и выкидываем пустые и повторы
func normalizeKeywords(keywords []string) []string {
	normalized := lo.Map(keywords, func(k string, _ int) string {
		return strings.ToLower(strings.TrimSpace(k))
	})

	return lo.Uniq(lo.Filter(normalized, func(k string, _ int) bool {
		return k != ""
	}))
}
