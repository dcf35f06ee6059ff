package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/pwklam/scrape-chinese-social-media/internal/models"
	"github.com/pwklam/scrape-chinese-social-media/internal/reltime"
)

var (
	delimitedLineRegex = regexp.MustCompile(
		`^['"]?` +
			`(?P<username>[^:：]+?)` +
			`[:：][\s\p{Zs}]*` +
			`(?P<content>.*?)[\s\p{Zs}]+` +
			`(?P<date>\d{2,4}[-/.]\d{1,2}[-/.]\d{1,2})` +
			`(?:[\s\p{Zs}]+(?P<time>\d{1,2}:\d{2}))?` +
			`(?:[\s\p{Zs}]+(?P<likes>\d+))?` +
			`['"]?[\s\p{Zs}]*$`,
	)
	clockPrefixRegex   = regexp.MustCompile(`^\d{1,2}:\d{2}`)
	datePrefixRegex    = regexp.MustCompile(`^\d{2,4}[-/.]\d{1,2}[-/.]\d{1,2}`)
	dashedDateRegex    = regexp.MustCompile(`^(\d{2,4})-(\d{1,2})-(\d{1,2})$`)
	dateFieldsRegex    = regexp.MustCompile(`\d+`)
	delimitedUserIdx   = delimitedLineRegex.SubexpIndex("username")
	delimitedTextIdx   = delimitedLineRegex.SubexpIndex("content")
	delimitedDateIdx   = delimitedLineRegex.SubexpIndex("date")
	delimitedLikesIdx  = delimitedLineRegex.SubexpIndex("likes")
	delimitedTrimChars = `'" `
)

// Delimited extracts comments that were flattened to one line each, the way
// Weibo comment cards read once their newlines are joined:
//
//	username: content 24-11-26 10:30 12
//
// The time of day is dropped; comment dates are rendered at midnight.
type Delimited struct {
	// Layout renders the comment date. Defaults to reltime.DateTimeLayout.
	Layout string
}

func (d Delimited) layout() string {
	if d.Layout == "" {
		return reltime.DateTimeLayout
	}
	return d.Layout
}

// Extract implements Extractor. Each fragment is treated as one more line.
func (d Delimited) Extract(in Input, now time.Time) Result {
	var result Result

	lines := splitLines(in.Text)
	for _, f := range in.Fragments {
		lines = append(lines, strings.Join(strings.Fields(f), " "))
	}

	for i, raw := range lines {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}

		if c, ok := d.parseLine(s, now); ok {
			result.add(c)
			continue
		}
		if c, ok := d.parseFallback(s, now); ok {
			result.add(c)
			continue
		}
		result.skip(i, s, "no username/date structure")
	}

	return result
}

func (d Delimited) parseLine(s string, now time.Time) (models.Comment, bool) {
	m := delimitedLineRegex.FindStringSubmatch(s)
	if m == nil {
		return models.Comment{}, false
	}

	likes := m[delimitedLikesIdx]
	if likes == "" {
		likes = DefaultLikes
	}

	return models.Comment{
		Username: strings.TrimSpace(m[delimitedUserIdx]),
		Content:  strings.TrimSpace(m[delimitedTextIdx]),
		Time:     commentDate(m[delimitedDateIdx], now).Format(d.layout()),
		Likes:    likes,
	}, true
}

// parseFallback reads the last whitespace tokens as date, time and likes.
// It is a best-effort path and may put fields in the wrong place on unusual
// lines.
func (d Delimited) parseFallback(s string, now time.Time) (models.Comment, bool) {
	parts := rsplitFields(strings.Trim(s, delimitedTrimChars), 3)
	if len(parts) < 2 {
		return models.Comment{}, false
	}
	penultimate := parts[len(parts)-2]
	clock := len(parts) >= 3 && clockPrefixRegex.MatchString(penultimate)
	if !clock && !datePrefixRegex.MatchString(penultimate) {
		return models.Comment{}, false
	}

	username, content, _ := strings.Cut(parts[0], ":")

	dateToken := penultimate
	if len(parts) >= 3 {
		dateToken = parts[len(parts)-3]
	}

	date := reltime.Midnight(now)
	if m := dashedDateRegex.FindStringSubmatch(dateToken); m != nil {
		y, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		dd, _ := strconv.Atoi(m[3])
		if t, ok := reltime.Date(y, mo, dd, now.Location()); ok {
			date = t
		}
	}

	likes := parts[len(parts)-1]
	if !isDigits(likes) {
		likes = DefaultLikes
	}

	return models.Comment{
		Username: strings.TrimSpace(username),
		Content:  strings.TrimSpace(content),
		Time:     date.Format(d.layout()),
		Likes:    likes,
	}, true
}

// commentDate reads year, month and day out of a date token, promoting
// two-digit years. Anything unreadable becomes the reference date.
func commentDate(token string, now time.Time) time.Time {
	fields := dateFieldsRegex.FindAllString(token, -1)
	if len(fields) >= 3 {
		y, _ := strconv.Atoi(fields[0])
		m, _ := strconv.Atoi(fields[1])
		d, _ := strconv.Atoi(fields[2])
		if t, ok := reltime.Date(y, m, d, now.Location()); ok {
			return t
		}
	}
	return reltime.Midnight(now)
}

// rsplitFields splits s on whitespace from the right, at most n times, so
// the result has at most n+1 elements and the first keeps its inner spacing.
func rsplitFields(s string, n int) []string {
	s = strings.TrimSpace(s)
	var tail []string
	for len(tail) < n {
		i := strings.LastIndexFunc(s, unicode.IsSpace)
		if i < 0 {
			break
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		tail = append(tail, s[i+size:])
		s = strings.TrimRightFunc(s[:i], unicode.IsSpace)
	}
	parts := []string{s}
	for i := len(tail) - 1; i >= 0; i-- {
		parts = append(parts, tail[i])
	}
	return parts
}
