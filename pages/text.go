package pages

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PageText returns the visible text of an HTML document, with script and style contents
// removed and whitespace collapsed. Unparsable input is returned as is.
func PageText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	doc.Find("script, style, noscript, template").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// containsFold reports whether s contains substr, ignoring case.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
