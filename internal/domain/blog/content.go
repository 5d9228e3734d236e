package blog

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// Ellipsis marks a truncated excerpt
const Ellipsis = "…"

var ugc = bluemonday.UGCPolicy()

// Sanitize strips markup that is unsafe to render from user content
func Sanitize(html string) string {
	return ugc.Sanitize(html)
}

var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true, "tr": true, "td": true, "th": true,
}

// Excerpt returns the plain text of html with whitespace collapsed, cut to at
// most limit runes on a word boundary. limit <= 0 means no limit.
func Excerpt(html string, limit int) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	var b strings.Builder
	var walk func(*goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, node *goquery.Selection) {
			switch name := goquery.NodeName(node); {
			case name == "#text":
				b.WriteString(node.Text())
			case name == "script" || name == "style":
			default:
				walk(node)
				if blockElements[name] {
					b.WriteByte(' ')
				}
			}
		})
	}
	walk(doc.Find("body"))

	text := strings.Join(strings.Fields(b.String()), " ")
	return truncate(text, limit)
}

func truncate(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}

	runes := []rune(text)
	cut := string(runes[:limit])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,;:") + Ellipsis
}
