package media

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTMLToText выкидывает теги и схлопывает пробелы. Текстовые узлы разделяются пробелом,
// чтобы "<p>a</p><p>b</p>" не склеилось в "ab"
func HTMLToText(src string) string {
	if strings.TrimSpace(src) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return strings.Join(strings.Fields(src), " ")
	}

	var parts []string
	var walk func(s *goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			switch goquery.NodeName(c) {
			case "#text":
				parts = append(parts, c.Text())
			case "script", "style", "#comment":
			default:
				walk(c)
			}
		})
	}
	walk(doc.Selection)

	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

// FirstImage возвращает src первой картинки в html фрагменте
func FirstImage(src string) string {
	if !strings.Contains(strings.ToLower(src), "<img") {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return ""
	}

	var found string
	doc.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		if v, ok := img.Attr("src"); ok && strings.TrimSpace(v) != "" {
			found = strings.TrimSpace(v)
			return false
		}
		return true
	})

	return found
}
