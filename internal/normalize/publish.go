package normalize

import (
	"strings"
	"time"

	"github.com/pwklam/scrape-chinese-social-media/internal/reltime"
)

// Prefixes some pages put in front of the publish time.
var publishPrefixes = []string{"发布时间：", "发布时间:", "发布于"}

var publishLayouts = map[Platform][]string{
	Weibo:  {"06-1-2 15:04", "2006-1-2 15:04"},
	Douyin: {"2006-1-2 15:04", "2006-1-2 15:04:05"},
	Weixin: {"2006年1月2日 15:04", "2006-1-2 15:04"},
}

// PublishDate converts the publish time shown on a post page into
// "2006-01-02 15:04:05". Relative phrases resolve against now at midnight.
// When nothing fits, the text comes back unchanged and ok is false.
func PublishDate(p Platform, text string, now time.Time) (string, bool) {
	s := strings.TrimSpace(text)
	for _, prefix := range publishPrefixes {
		s = strings.TrimSpace(strings.TrimPrefix(s, prefix))
	}
	if s == "" {
		return "", false
	}

	layouts := append([]string{reltime.DateTimeLayout}, publishLayouts[p]...)
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return t.Format(reltime.DateTimeLayout), true
		}
	}

	if t, ok := reltime.Resolve(s, now); ok {
		return t.Format(reltime.DateTimeLayout), true
	}
	return text, false
}
