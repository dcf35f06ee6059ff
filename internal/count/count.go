// Package count parses localized engagement counts such as "1.2万" or "3.4K"
// into plain numbers.
package count

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	// ErrUnparsableNumber is returned when the text has no leading number.
	ErrUnparsableNumber = errors.New("unparsable number")
	// ErrUnsupportedUnit is returned when a unit suffix is present but unknown.
	ErrUnsupportedUnit = errors.New("unsupported unit")
)

// Scale factors by unit.
const (
	Thousand       = 1_000
	TenThousand    = 10_000
	Million        = 1_000_000
	TenMillion     = 10_000_000
	HundredMillion = 100_000_000
	Billion        = 1_000_000_000
)

var numberRegex = regexp.MustCompile(`^([+-]?\d*\.?\d+)(?s:(.*))$`)

var exactUnits = map[string]float64{
	"千":  Thousand,
	"K":  Thousand,
	"k":  Thousand,
	"万":  TenThousand,
	"亿":  HundredMillion,
	"百万": Million,
	"千万": TenMillion,
	"十亿": Billion,
	"m":  Million,
	"M":  Million,
	"b":  Billion,
	"B":  Billion,
}

// Longest Chinese units first so "十亿" is never read as "亿".
var chineseUnits = []struct {
	unit  string
	scale float64
}{
	{"十亿", Billion},
	{"千万", TenMillion},
	{"百万", Million},
	{"亿", HundredMillion},
	{"万", TenThousand},
	{"千", Thousand},
}

var latinUnits = []struct {
	letter string
	scale  float64
}{
	{"m", Million},
	{"k", Thousand},
	{"b", Billion},
}

type scaleRule struct {
	name  string
	match func(unit string) (float64, bool)
}

// scaleRules are tried in order; the first rule that matches decides the scale.
var scaleRules = []scaleRule{
	{name: "exact", match: matchExact},
	{name: "chinese", match: matchChinese},
	{name: "latin", match: matchLatin},
}

func matchExact(unit string) (float64, bool) {
	scale, ok := exactUnits[unit]
	return scale, ok
}

func matchChinese(unit string) (float64, bool) {
	for _, u := range chineseUnits {
		if strings.Contains(unit, u.unit) {
			return u.scale, true
		}
	}
	return 0, false
}

func matchLatin(unit string) (float64, bool) {
	lower := strings.ToLower(unit)
	for _, u := range latinUnits {
		if strings.Contains(lower, u.letter) {
			return u.scale, true
		}
	}
	return 0, false
}

// Scale returns the multiplier for a unit suffix and the name of the rule that
// matched it. An empty unit scales by 1.
func Scale(unit string) (float64, string, error) {
	unit = strings.TrimSpace(unit)
	if unit == "" {
		return 1, "none", nil
	}
	for _, rule := range scaleRules {
		if scale, ok := rule.match(unit); ok {
			return scale, rule.name, nil
		}
	}
	return 0, "", fmt.Errorf("%w: %q", ErrUnsupportedUnit, unit)
}

// Parse converts text like "1.5万", "2K" or "42" into a number.
//
// Empty input yields 0 without an error. That default hides missing data as a
// real zero; callers that need to tell the two apart should check for empty
// input themselves.
func Parse(text string) (float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, nil
	}

	match := numberRegex.FindStringSubmatch(text)
	if match == nil {
		return 0, fmt.Errorf("%w: %q", ErrUnparsableNumber, text)
	}

	num, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrUnparsableNumber, text, err)
	}

	scale, _, err := Scale(match[2])
	if err != nil {
		return 0, err
	}
	return num * scale, nil
}

// ParseOrZero is Parse for callers that default unreadable counts to zero.
// The parse error is still returned so the caller can report it.
func ParseOrZero(text string) (float64, error) {
	v, err := Parse(text)
	if err != nil {
		return 0, err
	}
	return v, nil
}

// DigitsOrZero returns text unchanged when it holds at least one digit and "0"
// otherwise. OCR output for an absent counter is often an icon glyph or blank.
func DigitsOrZero(text string) string {
	for _, r := range text {
		if unicode.IsDigit(r) {
			return text
		}
	}
	return "0"
}
