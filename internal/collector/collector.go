// Package collector visits post pages and reads the raw, still localized
// fields of a post out of the HTML.
package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"

	"github.com/pwklam/scrape-chinese-social-media/internal/config"
	"github.com/pwklam/scrape-chinese-social-media/internal/models"
	"github.com/pwklam/scrape-chinese-social-media/internal/normalize"
)

// DefaultMaxComments caps the comment elements read from one page.
const DefaultMaxComments = 20

var (
	// ErrNoSelectors is returned for a platform without configured selectors.
	ErrNoSelectors = errors.New("no selectors configured")
	// ErrNoDocument is returned when a visit yields no HTML document.
	ErrNoDocument = errors.New("no html document")
)

// Collector fetches post pages over http(s) or from file:// snapshots
type Collector struct {
	collector   *colly.Collector
	selectors   map[normalize.Platform]config.SelectorsConfig
	maxComments int
	log         *logrus.Entry
}

// New creates a collector from configuration
func New(cfg config.CollectorConfig, log *logrus.Entry) (*Collector, error) {
	delay, err := cfg.RequestDelay()
	if err != nil {
		return nil, err
	}

	selectors := make(map[normalize.Platform]config.SelectorsConfig, len(cfg.Selectors))
	for tag, sel := range cfg.Selectors {
		p, err := normalize.ParsePlatform(tag)
		if err != nil {
			return nil, fmt.Errorf("collector selectors: %w", err)
		}
		selectors[p] = sel
	}

	opts := []colly.CollectorOption{colly.AllowURLRevisit()}
	if cfg.UserAgent != "" {
		opts = append(opts, colly.UserAgent(cfg.UserAgent))
	}
	c := colly.NewCollector(opts...)

	// Snapshots saved from a browser are read through file:// URLs.
	t := &http.Transport{Proxy: http.ProxyFromEnvironment}
	t.RegisterProtocol("file", http.NewFileTransport(http.Dir("/")))
	c.WithTransport(t)

	if delay > 0 {
		err := c.Limit(&colly.LimitRule{
			DomainGlob:  "*",
			Delay:       delay,
			RandomDelay: delay / 2,
		})
		if err != nil {
			return nil, fmt.Errorf("collector limit: %w", err)
		}
	}

	maxComments := cfg.MaxComments
	if maxComments <= 0 {
		maxComments = DefaultMaxComments
	}

	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	return &Collector{
		collector:   c,
		selectors:   selectors,
		maxComments: maxComments,
		log:         log.WithField("component", "collector"),
	}, nil
}

// Collect visits url and reads the post of platform p from it
func (c *Collector) Collect(ctx context.Context, url string, p normalize.Platform) (*models.RawPost, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sel, ok := c.selectors[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSelectors, p)
	}

	raw := &models.RawPost{URL: url, Platform: string(p)}
	found := false

	cc := c.collector.Clone()

	cc.OnHTML("html", func(e *colly.HTMLElement) {
		if found {
			return
		}
		found = true
		c.fill(raw, p, sel, e.DOM)
	})

	cc.OnRequest(func(r *colly.Request) {
		c.log.WithField("url", r.URL.String()).Debug("visiting")
	})

	cc.OnError(func(r *colly.Response, err error) {
		c.log.WithFields(logrus.Fields{
			"url":    r.Request.URL.String(),
			"status": r.StatusCode,
		}).WithError(err).Warn("error fetching post page")
	})

	if err := cc.Visit(url); err != nil {
		return nil, fmt.Errorf("visit %s: %w", url, err)
	}
	cc.Wait()

	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNoDocument, url)
	}
	return raw, nil
}

func (c *Collector) fill(raw *models.RawPost, p normalize.Platform, sel config.SelectorsConfig, doc *goquery.Selection) {
	raw.Author = firstText(doc, sel.Author)
	raw.PublishTime = firstText(doc, sel.PublishTime)
	raw.Content = firstText(doc, sel.Content)
	if title := firstText(doc, sel.Title); title != "" {
		raw.Content = strings.TrimSpace(title + "\n" + raw.Content)
	}

	raw.ShareText = firstText(doc, sel.Shares)
	raw.CommentText = firstText(doc, sel.Comments)
	raw.LikeText = firstText(doc, sel.Likes)
	raw.Toolbar = firstText(doc, sel.Toolbar)

	items := find(doc, sel.CommentList)
	switch p {
	case normalize.Weibo:
		// One comment card per line, its own line breaks flattened.
		var lines []string
		items.Slice(0, min(items.Length(), c.maxComments)).Each(func(_ int, item *goquery.Selection) {
			if line := strings.Join(strings.Fields(InnerText(item)), " "); line != "" {
				lines = append(lines, line)
			}
		})
		raw.CommentBlob = strings.Join(lines, "\n")
	case normalize.Douyin:
		items.Slice(0, min(items.Length(), c.maxComments)).Each(func(_ int, item *goquery.Selection) {
			if text := InnerText(item); text != "" {
				raw.CommentFragments = append(raw.CommentFragments, text)
			}
		})
	default:
		raw.CommentBlob = InnerText(items)
	}

	c.log.WithFields(logrus.Fields{
		"url":       raw.URL,
		"platform":  p,
		"comments":  items.Length(),
		"fragments": len(raw.CommentFragments),
	}).Debug("read post page")
}

func find(doc *goquery.Selection, selector string) *goquery.Selection {
	if selector == "" {
		return doc.Slice(0, 0)
	}
	return doc.Find(selector)
}

func firstText(doc *goquery.Selection, selector string) string {
	return InnerText(find(doc, selector).First())
}
