package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTMLToText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "plain", in: "  Gold   hits\nrecord  ", want: "Gold hits record"},
		{name: "paragraphs", in: "<p>Gold</p><p>rallies</p>", want: "Gold rallies"},
		{name: "entities", in: "S&amp;P 500 &lt;up&gt;", want: "S&P 500 <up>"},
		{name: "drops script", in: "<div>News<script>alert(1)</script></div>", want: "News"},
		{name: "image only", in: `<img src="https://a.example/x.jpg">`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTMLToText(tt.in))
		})
	}
}

func TestFirstImage(t *testing.T) {
	assert.Equal(t, "https://a.example/1.jpg", FirstImage(`<p>x</p><img alt="a" src="https://a.example/1.jpg"><img src="https://a.example/2.jpg">`))
	assert.Equal(t, "https://a.example/2.jpg", FirstImage(`<IMG SRC=''><img src='https://a.example/2.jpg'>`))
	assert.Equal(t, "", FirstImage("no images here"))
}
