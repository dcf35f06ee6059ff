package reltime

import (
	"regexp"
	"strings"
)

// Markers are the "N units ago" suffixes used to spot a time line inside a
// comment fragment.
var Markers = []string{"年前", "月前", "周前", "天前", "小时前", "分钟前"}

var timeLineRegex = regexp.MustCompile(`^(?:\d+\s*(?:年前|个?月前|周前|星期前|天前|小时前?|分钟前)|昨天|今天|刚刚|\d{4}[-/.]\d{1,2}[-/.]\d{1,2})$`)

// IsTimeLine reports whether a whole line is shaped like a time phrase:
// an explicit date or one of the fixed relative-time tokens.
func IsTimeLine(line string) bool {
	return timeLineRegex.MatchString(strings.TrimSpace(line))
}

// HasMarker reports whether s contains any relative-time marker.
func HasMarker(s string) bool {
	for _, m := range Markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
