package collector

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true, "figcaption": true,
	"figure": true, "footer": true, "form": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "h5": true, "h6": true, "header": true,
	"hr": true, "li": true, "main": true, "nav": true, "ol": true,
	"p": true, "pre": true, "section": true, "table": true, "td": true,
	"th": true, "tr": true, "ul": true,
}

var skippedTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
}

// InnerText renders the text of sel roughly the way a browser lays it out:
// block elements and <br> start new lines, whitespace inside a line
// collapses, and blank lines are dropped.
func InnerText(sel *goquery.Selection) string {
	var b strings.Builder
	sel.Each(func(_ int, s *goquery.Selection) {
		writeText(&b, s)
		b.WriteByte('\n')
	})

	var lines []string
	for _, ln := range strings.Split(b.String(), "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			lines = append(lines, ln)
		}
	}
	return strings.Join(lines, "\n")
}

func writeText(b *strings.Builder, s *goquery.Selection) {
	s.Contents().Each(func(_ int, child *goquery.Selection) {
		name := goquery.NodeName(child)
		switch {
		case name == "#text":
			b.WriteString(whitespaceRegex.ReplaceAllString(child.Text(), " "))
		case name == "br":
			b.WriteByte('\n')
		case skippedTags[name], strings.HasPrefix(name, "#"):
		case blockTags[name]:
			b.WriteByte('\n')
			writeText(b, child)
			b.WriteByte('\n')
		default:
			writeText(b, child)
		}
	})
}
