package artifacts

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var stripPolicy = bluemonday.StrictPolicy()

// PlainText drops any markup from user supplied text. bluemonday escapes what it
// keeps, so entities are decoded again for markdown output.
func PlainText(s string) string {
	return strings.TrimSpace(html.UnescapeString(stripPolicy.Sanitize(s)))
}

func sanitizeLinks(links []Link) []Link {
	out := make([]Link, len(links))
	for i, l := range links {
		out[i] = l
		out[i].Title = PlainText(l.Title)
	}
	return out
}
