package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/pwklam/scrape-chinese-social-media/internal/models"
	"github.com/pwklam/scrape-chinese-social-media/internal/reltime"
)

var (
	sectionHeaderRegex = regexp.MustCompile(`(?i)^\s*\d+\s*comment`)
	replyCountRegex    = regexp.MustCompile(`\d+\s*条回复`)
)

// Dense extracts comments from one unsegmented text dump, as copied out of
// the WeChat article view. A comment there reads:
//
//	username
//	location (optional)
//	time phrase
//	likes (optional)
//	content lines...
//
// Time phrases are the only reliable landmarks, so every time-shaped line
// becomes an anchor and the other fields are placed relative to it.
type Dense struct {
	// Layout renders the resolved comment date. Defaults to reltime.DateLayout.
	Layout string
}

func (d Dense) layout() string {
	if d.Layout == "" {
		return reltime.DateLayout
	}
	return d.Layout
}

func isSectionHeader(line string) bool {
	lower := strings.ToLower(strings.TrimSpace(line))
	return lower == "comment" || lower == "comments" || sectionHeaderRegex.MatchString(line)
}

// Extract implements Extractor. Fragments, if any, are joined into one blob.
func (d Dense) Extract(in Input, now time.Time) Result {
	var result Result

	text := in.Text
	if len(in.Fragments) > 0 {
		text = strings.Join(append([]string{text}, in.Fragments...), "\n")
	}
	if strings.TrimSpace(text) == "" {
		return result
	}

	lines := splitLines(text)
	start := 0
	for i, ln := range lines {
		if isSectionHeader(ln) {
			start = i + 1
			break
		}
	}

	var sub []string
	for _, ln := range lines[start:] {
		ln = strings.TrimSpace(ln)
		if ln != "" {
			sub = append(sub, ln)
		}
	}

	var anchors []int
	for i, ln := range sub {
		if reltime.IsTimeLine(ln) {
			anchors = append(anchors, i)
		}
	}
	if len(anchors) == 0 {
		if len(sub) > 0 {
			result.skip(start, strings.Join(sub, "\n"), "no time anchors")
		}
		return result
	}

	for n, anchor := range anchors {
		likes := DefaultLikes
		contentStart := anchor + 1
		if contentStart < len(sub) && isDigits(sub[contentStart]) {
			likes = sub[contentStart]
			contentStart++
		}

		contentEnd := len(sub)
		if n+1 < len(anchors) {
			contentEnd = max(contentStart, anchors[n+1]-2)
		}

		var content []string
		for _, ln := range sub[min(contentStart, contentEnd):contentEnd] {
			if replyCountRegex.MatchString(ln) {
				continue
			}
			content = append(content, ln)
		}

		result.add(models.Comment{
			Username: denseUsername(sub, anchor),
			Content:  strings.TrimSpace(strings.Join(content, "\n")),
			Time:     reltime.Format(sub[anchor], now, d.layout()),
			Likes:    likes,
		})
	}

	return result
}

// denseUsername takes the line two above the anchor (username, location,
// time). Near the top of the section it scans back for the closest line
// that is neither a time phrase nor a bare number.
func denseUsername(sub []string, anchor int) string {
	if anchor >= 2 {
		return sub[anchor-2]
	}
	for j := anchor - 1; j >= 0; j-- {
		if reltime.IsTimeLine(sub[j]) || isDigits(sub[j]) {
			continue
		}
		return sub[j]
	}
	return UnknownUser
}
