package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/pwklam/scrape-chinese-social-media/internal/count"
	"github.com/pwklam/scrape-chinese-social-media/internal/models"
)

// ErrNegativeCount is returned when a count parses to a value below zero.
var ErrNegativeCount = errors.New("negative count")

// RawMetrics are engagement counts as displayed, e.g. "1.2万".
type RawMetrics struct {
	Shares   string `json:"shares"`
	Comments string `json:"comments"`
	Likes    string `json:"likes"`
}

// Empty reports whether no count text was captured.
func (r RawMetrics) Empty() bool {
	return strings.TrimSpace(r.Shares) == "" &&
		strings.TrimSpace(r.Comments) == "" &&
		strings.TrimSpace(r.Likes) == ""
}

// ParseMetrics expands every count of r. A count that cannot be parsed is an
// error: a wrong number would be stored as if it were real.
func ParseMetrics(r RawMetrics) (models.Metrics, error) {
	var m models.Metrics
	fields := []struct {
		name string
		text string
		dst  *float64
	}{
		{"shares", r.Shares, &m.Shares},
		{"comments", r.Comments, &m.Comments},
		{"likes", r.Likes, &m.Likes},
	}
	for _, f := range fields {
		v, err := count.Parse(f.text)
		if err != nil {
			return models.Metrics{}, fmt.Errorf("parse %s count: %w", f.name, err)
		}
		if v < 0 {
			return models.Metrics{}, fmt.Errorf("parse %s count: %w: %q", f.name, ErrNegativeCount, f.text)
		}
		*f.dst = v
	}
	return m, nil
}

// ParseMetricsLenient expands every count of r, defaulting unreadable or
// negative counts to zero. It returns the names of the fields that were
// defaulted along with their errors.
func ParseMetricsLenient(r RawMetrics) (models.Metrics, map[string]error) {
	var m models.Metrics
	defaulted := map[string]error{}
	for _, f := range []struct {
		name string
		text string
		dst  *float64
	}{
		{"shares", r.Shares, &m.Shares},
		{"comments", r.Comments, &m.Comments},
		{"likes", r.Likes, &m.Likes},
	} {
		v, err := count.ParseOrZero(f.text)
		if err == nil && v < 0 {
			v, err = 0, fmt.Errorf("%w: %q", ErrNegativeCount, f.text)
		}
		if err != nil {
			defaulted[f.name] = err
		}
		*f.dst = v
	}
	return m, defaulted
}

var toolbarNumberRegex = regexp.MustCompile(`\d*\.?\d+\s*(?:十亿|千万|百万|亿|万|千|[kKmMbB](?:\b|$))?`)

func firstNumberOrZero(s string) string {
	if n := toolbarNumberRegex.FindString(s); n != "" {
		return strings.TrimSpace(n)
	}
	return "0"
}

// ParseToolbar reads share, comment and like counts out of a post action bar
// such as "转发 12\n评论 3\n赞 1.2万". Parts are read in that order; missing
// counts are "0". Labels without a number (a bare "赞") count as zero.
func ParseToolbar(text string) RawMetrics {
	var parts []string
	for _, ln := range strings.Split(text, "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			parts = append(parts, ln)
		}
	}

	if len(parts) >= 3 {
		return RawMetrics{
			Shares:   firstNumberOrZero(parts[0]),
			Comments: firstNumberOrZero(parts[1]),
			Likes:    firstNumberOrZero(parts[2]),
		}
	}

	raw := RawMetrics{Shares: "0", Comments: "0", Likes: "0"}
	nums := toolbarNumberRegex.FindAllString(text, -1)
	for i := range nums {
		nums[i] = strings.TrimSpace(nums[i])
	}
	switch {
	case len(nums) >= 3:
		raw.Shares, raw.Comments, raw.Likes = nums[0], nums[1], nums[2]
	case len(nums) == 2:
		raw.Shares, raw.Comments = nums[0], nums[1]
	case len(nums) == 1:
		raw.Comments = nums[0]
	}
	return raw
}
