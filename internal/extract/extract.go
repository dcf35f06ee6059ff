// Package extract segments raw comment text into comment records.
//
// Each platform lays its comments out differently, so there is one
// Extractor per layout. Extraction is best-effort: text that cannot be read
// as a comment is dropped and reported in Result.Skipped, never returned as
// an error.
package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/pwklam/scrape-chinese-social-media/internal/models"
)

// UnknownUser is used when no username can be found for a comment.
const UnknownUser = "Unknown"

// DefaultLikes is used when a comment carries no like count.
const DefaultLikes = "0"

var digitsRegex = regexp.MustCompile(`^\d+$`)

// Input is raw comment text as produced by scraping, OCR or clipboard capture.
// Text is a single blob; Fragments are per-element texts that are already
// isolated from each other.
type Input struct {
	Text      string   `json:"text"`
	Fragments []string `json:"fragments"`
}

// Empty reports whether there is nothing to extract from.
func (in Input) Empty() bool {
	if strings.TrimSpace(in.Text) != "" {
		return false
	}
	for _, f := range in.Fragments {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// Skip describes a piece of input that was dropped.
type Skip struct {
	Index  int    `json:"index"`
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

// Result holds the extracted records, in order of appearance, and anything
// that was dropped along the way.
type Result struct {
	Records []models.Comment `json:"records"`
	Skipped []Skip           `json:"skipped,omitempty"`
}

// Degraded reports whether some input could not be turned into records.
func (r Result) Degraded() bool {
	return len(r.Skipped) > 0
}

func (r *Result) add(c models.Comment) {
	if strings.TrimSpace(c.Username) == "" {
		c.Username = UnknownUser
	}
	if !isDigits(c.Likes) {
		c.Likes = DefaultLikes
	}
	r.Records = append(r.Records, c)
}

func (r *Result) skip(index int, text, reason string) {
	r.Skipped = append(r.Skipped, Skip{Index: index, Text: text, Reason: reason})
}

// Extractor turns raw comment text into comment records. now is the
// reference instant for relative time phrases.
type Extractor interface {
	Extract(in Input, now time.Time) Result
}

func isDigits(s string) bool {
	return digitsRegex.MatchString(s)
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}
