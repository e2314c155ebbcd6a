package fetcher

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Elements that never carry visible page text.
const invisibleSelector = "head, script, style, noscript, template, iframe, object, embed, svg, canvas, " +
	"[hidden], [aria-hidden='true'], [style*='display:none'], [style*='display: none'], " +
	"[style*='visibility:hidden'], [style*='visibility: hidden']"

var (
	spaceRun   = regexp.MustCompile(`[^\S\n]+`)
	newlineRun = regexp.MustCompile(`\s*\n\s*`)
)

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "br": true,
	"dd": true, "div": true, "dl": true, "dt": true, "fieldset": true, "figcaption": true,
	"figure": true, "footer": true, "form": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "header": true, "hr": true, "li": true,
	"main": true, "nav": true, "ol": true, "p": true, "pre": true, "section": true,
	"table": true, "tr": true, "td": true, "th": true, "ul": true, "title": true,
}

// CleanHTML strips non-visible markup and returns the page text with
// whitespace collapsed. Block boundaries become single newlines.
func CleanHTML(markup string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return CollapseWhitespace(markup)
	}

	title := strings.TrimSpace(doc.Find("head > title").First().Text())
	doc.Find(invisibleSelector).Remove()

	var b strings.Builder
	if title != "" {
		b.WriteString(title)
		b.WriteByte('\n')
	}
	for _, node := range doc.Find("body").Nodes {
		writeText(&b, node)
	}
	return CollapseWhitespace(b.String())
}

func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.CommentNode:
		return
	}

	block := n.Type == html.ElementNode && blockElements[n.Data]
	if block {
		b.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
	if block {
		b.WriteByte('\n')
	}
}

// CollapseWhitespace squeezes runs of blanks to one space and runs of blank
// lines to one newline.
func CollapseWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = spaceRun.ReplaceAllString(s, " ")
	s = newlineRun.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}

// Truncate cuts s to at most limit characters (runes).
func Truncate(s string, limit int) (string, bool) {
	if limit <= 0 {
		return s, false
	}
	count := 0
	for idx := range s {
		if count == limit {
			return s[:idx], true
		}
		count++
	}
	return s, false
}
