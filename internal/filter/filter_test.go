package filter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kovalyov-valentin/news-digest-bot/internal/model"
)

func TestDedupKey(t *testing.T) {
	assert.Equal(t, "fed raises rates_https://a.example/1", DedupKey("  Fed Raises Rates ", "https://a.example/1"))

	long := "https://example.com/" + strings.Repeat("x", 200)
	k1 := DedupKey("Title", long)
	k2 := DedupKey("title", long+"/tracking?utm=1")
	assert.Equal(t, k1, k2)
	assert.Equal(t, "title_"+long[:120], k1)
}

func TestDedupKey_SameItemFromDifferentFeeds(t *testing.T) {
	a := model.Item{Title: "Fed raises rates", Link: "https://news.example/fed", SourceName: "Feed A"}
	b := model.Item{Title: "FED RAISES RATES ", Link: "https://news.example/fed", SourceName: "Feed B"}

	c := NewClassifier([]string{"fed"}, nil)
	assert.Equal(t, c.Classify(a, ModeBackground).Key, c.Classify(b, ModeBackground).Key)
}

func TestClassifier_Modes(t *testing.T) {
	c := NewClassifier([]string{"inflation"}, []string{"divorce"})

	item := model.Item{
		Title:       "Markets wobble",
		Description: "Inflation fears rise as a celebrity divorce dominates headlines",
	}

	assert.False(t, c.Classify(item, ModeBackground).Relevant)
	assert.True(t, c.Classify(item, ModeCatchUp).Relevant)
}

func TestClassifier_IsRelevant(t *testing.T) {
	c := NewClassifier([]string{"gold", "tesla"}, []string{"tennis"})

	tests := []struct {
		name  string
		item  model.Item
		mode  Mode
		wants bool
	}{
		{
			name:  "keyword in title",
			item:  model.Item{Title: "Gold hits record"},
			wants: true,
		},
		{
			name:  "keyword in description only",
			item:  model.Item{Title: "Record day", Description: "TESLA shares jump"},
			wants: true,
		},
		{
			name:  "no keyword",
			item:  model.Item{Title: "Weather today", Description: "Sunny"},
			wants: false,
		},
		{
			name:  "negative in title",
			item:  model.Item{Title: "Tennis star buys gold", Description: ""},
			wants: false,
		},
		{
			name:  "negative ignored on catch-up",
			item:  model.Item{Title: "Tennis star buys gold"},
			mode:  ModeCatchUp,
			wants: true,
		},
		{
			name:  "catch-up still needs a keyword",
			item:  model.Item{Title: "Tennis final"},
			mode:  ModeCatchUp,
			wants: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wants, c.IsRelevant(tt.item, tt.mode))
		})
	}
}

func TestClassifier_Monotonic(t *testing.T) {
	items := []model.Item{
		{Title: "Gold rallies", Description: "Brother of CEO comments"},
		{Title: "Nvidia earnings", Description: "Chips"},
		{Title: "Local news", Description: "Tennis club opens"},
		{Title: "Bitcoin slides", Description: ""},
	}

	base := NewClassifier([]string{"gold", "nvidia"}, []string{"tennis"})
	moreNegative := NewClassifier([]string{"gold", "nvidia"}, []string{"tennis", "brother"})
	morePositive := NewClassifier([]string{"gold", "nvidia", "bitcoin"}, []string{"tennis"})

	for _, item := range items {
		before := base.IsRelevant(item, ModeBackground)

		if !before {
			assert.False(t, moreNegative.IsRelevant(item, ModeBackground), item.Title)
		}
		if before {
			assert.True(t, morePositive.IsRelevant(item, ModeBackground), item.Title)
		}
	}

	assert.True(t, base.IsRelevant(items[0], ModeBackground))
	assert.False(t, moreNegative.IsRelevant(items[0], ModeBackground))
	assert.True(t, morePositive.IsRelevant(items[3], ModeBackground))
}
