package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeForMarkdown(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "plain text", want: "plain text"},
		{in: "S&P 500 up 1.5%!", want: "S&P 500 up 1\\.5%\\!"},
		{in: "[AAPL] (news) #1", want: "\\[AAPL\\] \\(news\\) \\#1"},
		{in: "a_b*c~d`e>f", want: "a\\_b\\*c\\~d\\`e\\>f"},
		{in: "x+y=z|{w}-v", want: "x\\+y\\=z\\|\\{w\\}\\-v"},
		{in: `back\slash`, want: `back\\slash`},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, EscapeForMarkdown(tt.in))
			assert.Equal(t, tt.want, Escape(MarkdownV2, tt.in))
		})
	}
}

func TestEscape_Dialects(t *testing.T) {
	src := "a_b*c.d[e]"

	assert.Equal(t, "a\\_b\\*c.d\\[e]", Escape(Markdown, src))
	assert.Equal(t, src, Escape(Plain, src))
}

func TestBold(t *testing.T) {
	assert.Equal(t, "*Fed raises rates\\.*", Bold(MarkdownV2, "Fed raises rates."))
	assert.Equal(t, "Fed", Bold(Plain, "Fed"))
}

func TestLink(t *testing.T) {
	assert.Equal(t,
		"[Reuters • Mon, 06 Oct 2026](https://a.example/x_(1\\))",
		Link(MarkdownV2, "Reuters • Mon, 06 Oct 2026", "https://a.example/x_(1)"),
	)
	assert.Equal(t, "Reuters https://a.example", Link(Plain, "Reuters", "https://a.example"))
}
