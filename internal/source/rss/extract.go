package rss

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const maxContentLength = 500

// extractText strips feed item HTML down to plain text, dropping script,
// style and chrome elements and collapsing whitespace.
func extractText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return truncate(strings.TrimSpace(html))
	}

	doc.Find("script, style, nav, footer, aside").Remove()

	text := strings.Join(strings.Fields(doc.Text()), " ")
	return truncate(text)
}

func truncate(text string) string {
	if len(text) <= maxContentLength {
		return text
	}
	cut := maxContentLength
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
