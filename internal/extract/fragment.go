package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/pwklam/scrape-chinese-social-media/internal/models"
	"github.com/pwklam/scrape-chinese-social-media/internal/reltime"
)

// Placeholder is the ellipsis line Douyin renders between a username and the
// comment body.
const Placeholder = "..."

var (
	noiseLines         = map[string]bool{Placeholder: true, "分享": true, "回复": true}
	expandRepliesRegex = regexp.MustCompile(`^展开\d+条回复$`)
)

// Fragments extracts comments from per-element texts, one fragment per
// comment, as read from Douyin comment items:
//
//	username\n...\ncontent\n3天前·北京\n\n12\n\n分享\n回复
type Fragments struct {
	// Layout renders the comment date. Defaults to reltime.DateTimeLayout.
	Layout string
}

func (f Fragments) layout() string {
	if f.Layout == "" {
		return reltime.DateTimeLayout
	}
	return f.Layout
}

func isNoise(line string) bool {
	return noiseLines[line] || expandRepliesRegex.MatchString(line)
}

// Extract implements Extractor. When only Text is given, every non-blank
// line of it is taken as a fragment of its own.
func (f Fragments) Extract(in Input, now time.Time) Result {
	var result Result

	entries := in.Fragments
	if len(entries) == 0 {
		for _, ln := range splitLines(in.Text) {
			if ln = strings.TrimSpace(ln); ln != "" {
				entries = append(entries, ln)
			}
		}
	}

	for i, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" || entry == "'" {
			continue
		}
		entry = strings.Trim(entry, `'"`)

		// kept still carries placeholder lines, which mark where the username
		// and content sit; signal drops them for everything else.
		var kept, signal []string
		for _, ln := range splitLines(entry) {
			ln = strings.TrimSpace(ln)
			if ln == "" || (ln != Placeholder && isNoise(ln)) {
				continue
			}
			kept = append(kept, ln)
			if ln != Placeholder {
				signal = append(signal, ln)
			}
		}
		if len(signal) < 2 {
			result.skip(i, entry, "too few lines")
			continue
		}

		result.add(f.parse(kept, signal, now))
	}

	return result
}

func (f Fragments) parse(kept, signal []string, now time.Time) models.Comment {
	username := kept[0]
	if username == Placeholder {
		username = UnknownUser
	}

	contentIdx := 1
	if contentIdx < len(kept) && kept[contentIdx] == Placeholder {
		contentIdx++
	}
	content := ""
	if contentIdx < len(kept) && kept[contentIdx] != Placeholder {
		content = kept[contentIdx]
	}

	when := reltime.Midnight(now)
	for _, ln := range signal {
		if reltime.HasMarker(ln) {
			when, _ = reltime.Resolve(ln, now)
			break
		}
	}

	likes := DefaultLikes
	for _, ln := range signal {
		if isDigits(ln) {
			likes = ln
			break
		}
	}

	// A time phrase in the content slot means the fragment was cut badly.
	if reltime.HasMarker(content) {
		content = ""
	}

	return models.Comment{
		Username: username,
		Content:  content,
		Time:     when.Format(f.layout()),
		Likes:    likes,
	}
}
