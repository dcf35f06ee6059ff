// Package reltime resolves relative and partially specified time phrases
// ("3天前", "昨天", "2周前", "2024/01/05") into absolute dates.
//
// Resolution never fails: a phrase that matches no rule resolves to the
// reference instant. The reference instant is always passed in by the caller.
package reltime

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// DateLayout renders date-granularity results ("2024-01-07").
	DateLayout = "2006-01-02"
	// DateTimeLayout renders results as a full date-time ("2024-01-07 00:00:00").
	DateTimeLayout = "2006-01-02 15:04:05"
)

// Fixed-length calendar units. No calendar-aware month or year arithmetic is done.
const (
	Day   = 24 * time.Hour
	Week  = 7 * Day
	Month = 30 * Day
	Year  = 365 * Day
)

// LocationSeparator splits "3天前·北京" into the time phrase and a location.
const LocationSeparator = "·"

type rule struct {
	name    string
	pattern *regexp.Regexp
	resolve func(match []string, now time.Time) (time.Time, bool)
}

var (
	absoluteDateRegex = regexp.MustCompile(`^(\d{2,4})[-/.](\d{1,2})[-/.](\d{1,2})`)
	chineseDateRegex  = regexp.MustCompile(`(\d{4})\s*年\s*(\d{1,2})\s*月\s*(\d{1,2})\s*日`)
	yearsRegex        = regexp.MustCompile(`(?i)(\d+)\s*(?:年前|years?\s+ago|yrs?\s+ago)`)
	monthsRegex       = regexp.MustCompile(`(?i)(\d+)\s*(?:个?月前|months?\s+ago|mos?\s+ago)`)
	weeksRegex        = regexp.MustCompile(`(?i)(\d+)\s*(?:周前|星期前|weeks?\s+ago|wks?\s+ago)`)
	daysRegex         = regexp.MustCompile(`(?i)(\d+)\s*(?:天前|days?\s+ago)`)
	hoursRegex        = regexp.MustCompile(`(?i)(\d+)\s*(?:小时前?|hours?\s+ago|hrs?\s+ago)`)
	minutesRegex      = regexp.MustCompile(`(?i)(\d+)\s*(?:分钟前?|分前|minutes?\s+ago|mins?\s+ago)`)
	yesterdayRegex    = regexp.MustCompile(`(?i)昨天|yesterday`)
	todayRegex        = regexp.MustCompile(`(?i)今天|刚刚|today|just now`)
)

// rules are checked in order and the first match wins: explicit dates, then
// "N units ago" from the largest unit to the smallest, then qualitative words.
var rules = []rule{
	{name: "absolute", pattern: absoluteDateRegex, resolve: resolveAbsolute},
	{name: "absolute-zh", pattern: chineseDateRegex, resolve: resolveAbsolute},
	{name: "years", pattern: yearsRegex, resolve: ago(Year)},
	{name: "months", pattern: monthsRegex, resolve: ago(Month)},
	{name: "weeks", pattern: weeksRegex, resolve: ago(Week)},
	{name: "days", pattern: daysRegex, resolve: ago(Day)},
	{name: "hours", pattern: hoursRegex, resolve: ago(time.Hour)},
	{name: "minutes", pattern: minutesRegex, resolve: ago(time.Minute)},
	{name: "yesterday", pattern: yesterdayRegex, resolve: offset(-Day)},
	{name: "today", pattern: todayRegex, resolve: offset(0)},
}

// RuleNames lists the resolution rules in precedence order.
func RuleNames() []string {
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.name
	}
	return names
}

// maxAgoDays bounds "N units ago" offsets; larger counts match no rule.
const maxAgoDays = 9999 * 365

func ago(unit time.Duration) func([]string, time.Time) (time.Time, bool) {
	return func(match []string, now time.Time) (time.Time, bool) {
		n, err := strconv.Atoi(match[1])
		if err != nil {
			return time.Time{}, false
		}
		if int64(n) <= math.MaxInt64/int64(unit) {
			return now.Add(-time.Duration(n) * unit), true
		}
		// Past the range of time.Duration, step back in whole days.
		days := int(unit / Day)
		if days == 0 || n > maxAgoDays/days {
			return time.Time{}, false
		}
		return now.AddDate(0, 0, -n*days), true
	}
}

func offset(d time.Duration) func([]string, time.Time) (time.Time, bool) {
	return func(_ []string, now time.Time) (time.Time, bool) {
		return now.Add(d), true
	}
}

func resolveAbsolute(match []string, now time.Time) (time.Time, bool) {
	year, err := strconv.Atoi(match[1])
	if err != nil {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(match[2])
	if err != nil {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(match[3])
	if err != nil {
		return time.Time{}, false
	}
	return Date(year, month, day, now.Location())
}

// Date builds a midnight date, promoting two-digit years to the 2000s.
// Out-of-range months or days are rejected instead of normalized.
func Date(year, month, day int, loc *time.Location) (time.Time, bool) {
	if year < 100 {
		year += 2000
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// StripLocation drops a trailing "·location" suffix.
func StripLocation(phrase string) string {
	before, _, _ := strings.Cut(phrase, LocationSeparator)
	return strings.TrimSpace(before)
}

// Midnight truncates t to the start of its calendar day in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Explain resolves phrase against now and reports which rule decided the
// result. The rule name is "fallback" when nothing matched.
func Explain(phrase string, now time.Time) (time.Time, string) {
	s := StripLocation(phrase)
	if s != "" {
		for _, r := range rules {
			match := r.pattern.FindStringSubmatch(s)
			if match == nil {
				continue
			}
			if t, ok := r.resolve(match, now); ok {
				return Midnight(t), r.name
			}
		}
	}
	return Midnight(now), "fallback"
}

// Resolve converts phrase into an absolute date at midnight. The boolean is
// false when no rule matched and the result is the reference date itself.
func Resolve(phrase string, now time.Time) (time.Time, bool) {
	t, name := Explain(phrase, now)
	return t, name != "fallback"
}

// Format resolves phrase and renders it with layout.
func Format(phrase string, now time.Time, layout string) string {
	t, _ := Resolve(phrase, now)
	return t.Format(layout)
}

// ParseInstant reads a reference instant written either as RFC 3339 or in
// DateTimeLayout, the latter taken in loc. An empty string yields the zero
// time.
func ParseInstant(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation(DateTimeLayout, s, loc)
}
