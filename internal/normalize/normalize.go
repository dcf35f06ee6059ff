// Package normalize turns raw post text from any supported platform into
// uniform records: comment lists, expanded engagement counts and absolute
// publish dates.
package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pwklam/scrape-chinese-social-media/internal/extract"
	"github.com/pwklam/scrape-chinese-social-media/internal/models"
	"github.com/pwklam/scrape-chinese-social-media/internal/reltime"
)

// Normalizer dispatches raw input to the extractor of its platform. It holds
// no mutable state and is safe for concurrent use.
type Normalizer struct {
	extractors    map[Platform]extract.Extractor
	clock         func() time.Time
	lenientCounts bool
	log           *logrus.Entry
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithClock sets the source of the reference instant used when callers pass
// a zero time.
func WithClock(clock func() time.Time) Option {
	return func(n *Normalizer) { n.clock = clock }
}

// WithLocation makes the default clock report wall time in loc.
func WithLocation(loc *time.Location) Option {
	return func(n *Normalizer) {
		n.clock = func() time.Time { return time.Now().In(loc) }
	}
}

// WithLenientCounts makes Post store unreadable counts as zero instead of
// failing the post. Defaulted fields are logged and listed in the report.
func WithLenientCounts() Option {
	return func(n *Normalizer) { n.lenientCounts = true }
}

// WithExtractor replaces the extractor used for p.
func WithExtractor(p Platform, e extract.Extractor) Option {
	return func(n *Normalizer) { n.extractors[p] = e }
}

// DefaultExtractors returns the extractor for each platform's layout: Weibo
// comments arrive as flattened lines, Weixin as one copied text dump, and
// Douyin as per-element fragments.
func DefaultExtractors() map[Platform]extract.Extractor {
	return map[Platform]extract.Extractor{
		Weibo:  extract.Delimited{Layout: reltime.DateTimeLayout},
		Weixin: extract.Dense{Layout: reltime.DateLayout},
		Douyin: extract.Fragments{Layout: reltime.DateTimeLayout},
	}
}

// New creates a Normalizer. A nil log discards output.
func New(log *logrus.Entry, opts ...Option) *Normalizer {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = logrus.NewEntry(l)
	}
	n := &Normalizer{
		extractors: DefaultExtractors(),
		clock:      time.Now,
		log:        log.WithField("component", "normalize"),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Now returns the default reference instant.
func (n *Normalizer) Now() time.Time {
	return n.clock()
}

func (n *Normalizer) reference(now time.Time) time.Time {
	if now.IsZero() {
		return n.clock()
	}
	return now
}

// Extractor returns the extractor registered for p.
func (n *Normalizer) Extractor(p Platform) (extract.Extractor, error) {
	e, ok := n.extractors[p]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlatform, p)
	}
	return e, nil
}

// Comments extracts comment records from in using p's extractor. A zero now
// means "use the normalizer's clock".
func (n *Normalizer) Comments(p Platform, in extract.Input, now time.Time) (extract.Result, error) {
	e, err := n.Extractor(p)
	if err != nil {
		return extract.Result{}, err
	}

	result := e.Extract(in, n.reference(now))
	for _, s := range result.Skipped {
		n.log.WithFields(logrus.Fields{
			"platform": p,
			"index":    s.Index,
			"reason":   s.Reason,
		}).Debug("skipped comment text")
	}
	return result, nil
}

// CommentPayload extracts comments and serializes them for storage. The
// payload is nil when nothing was extracted.
func (n *Normalizer) CommentPayload(p Platform, in extract.Input, now time.Time) (*string, extract.Result, error) {
	result, err := n.Comments(p, in, now)
	if err != nil {
		return nil, result, err
	}
	payload, err := Serialize(result.Records)
	if err != nil {
		return nil, result, err
	}
	return payload, result, nil
}

// Serialize renders records as a JSON list of flat objects, keeping
// non-ASCII text as is. It returns nil for an empty list so "nothing to
// store" differs from an empty payload.
func Serialize(records []models.Comment) (*string, error) {
	if len(records) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("serialize comments: %w", err)
	}
	payload := strings.TrimRight(buf.String(), "\n")
	return &payload, nil
}

// Deserialize reads a payload written by Serialize. A nil payload yields no
// records.
func Deserialize(payload *string) ([]models.Comment, error) {
	if payload == nil {
		return nil, nil
	}
	var records []models.Comment
	if err := json.Unmarshal([]byte(*payload), &records); err != nil {
		return nil, fmt.Errorf("deserialize comments: %w", err)
	}
	return records, nil
}

// Report summarizes how cleanly a post was normalized.
type Report struct {
	Platform        Platform       `json:"platform"`
	Comments        int            `json:"comments"`
	Skipped         []extract.Skip `json:"skipped,omitempty"`
	PublishParsed   bool           `json:"publish_parsed"`
	DefaultedCounts []string       `json:"defaulted_counts,omitempty"`
}

// Degraded reports whether any part of the post was only partly readable.
func (r Report) Degraded() bool {
	return len(r.Skipped) > 0 || !r.PublishParsed || len(r.DefaultedCounts) > 0
}

func (n *Normalizer) metrics(url string, counts RawMetrics, report *Report) (models.Metrics, error) {
	if !n.lenientCounts {
		metrics, err := ParseMetrics(counts)
		if err != nil {
			return models.Metrics{}, fmt.Errorf("%s: %w", url, err)
		}
		return metrics, nil
	}

	metrics, defaulted := ParseMetricsLenient(counts)
	for _, field := range []string{"shares", "comments", "likes"} {
		if err, ok := defaulted[field]; ok {
			report.DefaultedCounts = append(report.DefaultedCounts, field)
			n.log.WithFields(logrus.Fields{
				"url":   url,
				"field": field,
			}).WithError(err).Warn("unreadable count stored as zero")
		}
	}
	return metrics, nil
}

// Post normalizes a whole raw post. Malformed counts fail the post unless
// the normalizer is lenient; comment text that cannot be read only shows up
// in the report.
func (n *Normalizer) Post(raw models.RawPost, now time.Time) (*models.Post, Report, error) {
	now = n.reference(now)

	p, err := ParsePlatform(raw.Platform)
	if err != nil {
		return nil, Report{}, err
	}
	report := Report{Platform: p}

	counts := RawMetrics{Shares: raw.ShareText, Comments: raw.CommentText, Likes: raw.LikeText}
	if counts.Empty() && strings.TrimSpace(raw.Toolbar) != "" {
		counts = ParseToolbar(raw.Toolbar)
	}
	metrics, err := n.metrics(raw.URL, counts, &report)
	if err != nil {
		return nil, report, err
	}

	in := extract.Input{Text: raw.CommentBlob, Fragments: raw.CommentFragments}
	payload, result, err := n.CommentPayload(p, in, now)
	if err != nil {
		return nil, report, err
	}
	report.Comments = len(result.Records)
	report.Skipped = result.Skipped

	published, ok := PublishDate(p, raw.PublishTime, now)
	report.PublishParsed = ok
	if !ok && strings.TrimSpace(raw.PublishTime) != "" {
		n.log.WithFields(logrus.Fields{
			"url":          raw.URL,
			"publish_time": raw.PublishTime,
		}).Warn("could not parse publish time, keeping original text")
	}

	post := &models.Post{
		URL:             strings.TrimSpace(raw.URL),
		Platform:        string(p),
		UserName:        strings.TrimSpace(raw.Author),
		PublicationDate: strings.TrimSpace(published),
		Content:         strings.TrimSpace(raw.Content),
		Metrics:         metrics,
		Comments:        payload,
		ProcessedAt:     now,
	}
	return post, report, nil
}
