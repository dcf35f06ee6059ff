// Package ingest runs the collect, normalize and save pipeline over a list
// of post URLs.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pwklam/scrape-chinese-social-media/internal/models"
	"github.com/pwklam/scrape-chinese-social-media/internal/normalize"
	"github.com/pwklam/scrape-chinese-social-media/internal/storage"
)

// ErrRunInProgress is returned when a run is requested while another is
// still going.
var ErrRunInProgress = errors.New("ingest run already in progress")

// Collector reads a raw post from a page.
type Collector interface {
	Collect(ctx context.Context, url string, p normalize.Platform) (*models.RawPost, error)
}

// Outcome is the result of one target in a run.
type Outcome struct {
	URL      string             `json:"url"`
	Platform normalize.Platform `json:"platform"`
	Updated  bool               `json:"updated"`
	Comments int                `json:"comments"`
	Skipped  int                `json:"skipped"`
	Error    string             `json:"error,omitempty"`
}

// Summary describes a finished run.
type Summary struct {
	RunID    string    `json:"run_id"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
	Saved    int       `json:"saved"`
	Failed   int       `json:"failed"`
	Outcomes []Outcome `json:"outcomes"`
}

// Service collects, normalizes and stores posts
type Service struct {
	collector  Collector
	normalizer *normalize.Normalizer
	store      storage.Storage
	urlsFile   string
	log        *logrus.Entry
	running    sync.Mutex
}

// New creates an ingest service reading its targets from urlsFile
func New(c Collector, n *normalize.Normalizer, store storage.Storage, urlsFile string, log *logrus.Entry) *Service {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Service{
		collector:  c,
		normalizer: n,
		store:      store,
		urlsFile:   urlsFile,
		log:        log.WithField("component", "ingest"),
	}
}

// Run processes every target in the configured URL list
func (s *Service) Run(ctx context.Context) (Summary, error) {
	return s.RunFile(ctx, s.urlsFile)
}

// RunFile processes every target in the URL list at path. Unreadable lines
// are recorded as failed outcomes and the remaining targets still run.
func (s *Service) RunFile(ctx context.Context, path string) (Summary, error) {
	targets, bad, err := LoadTargets(path)
	if err != nil {
		return Summary{}, fmt.Errorf("load targets: %w", err)
	}
	return s.run(ctx, targets, bad)
}

// RunTargets processes targets one after another. A failing target is
// recorded in the summary and never stops the run; only cancellation does.
func (s *Service) RunTargets(ctx context.Context, targets []Target) (Summary, error) {
	return s.run(ctx, targets, nil)
}

func (s *Service) run(ctx context.Context, targets []Target, bad []LineError) (Summary, error) {
	if !s.running.TryLock() {
		return Summary{}, ErrRunInProgress
	}
	defer s.running.Unlock()

	summary := Summary{RunID: uuid.NewString(), Started: time.Now()}
	log := s.log.WithField("run_id", summary.RunID)
	log.WithField("targets", len(targets)).Info("starting ingest run")

	for _, b := range bad {
		log.WithField("line", b.Line).WithError(b.Err).Warnf("skipping url line %q", b.Text)
		summary.Failed++
		summary.Outcomes = append(summary.Outcomes, Outcome{URL: b.Text, Error: b.Error()})
	}

	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			summary.Finished = time.Now()
			return summary, err
		}

		outcome := Outcome{URL: t.URL, Platform: t.Platform}
		post, report, updated, err := s.Process(ctx, t)
		if err != nil {
			outcome.Error = err.Error()
			summary.Failed++
			log.WithField("url", t.URL).WithError(err).Warn("failed to ingest post")
		} else {
			outcome.Updated = updated
			outcome.Comments = report.Comments
			outcome.Skipped = len(report.Skipped)
			summary.Saved++
			log.WithFields(logrus.Fields{
				"url":      post.URL,
				"comments": report.Comments,
				"updated":  updated,
				"degraded": report.Degraded(),
			}).Info("saved post")
		}
		summary.Outcomes = append(summary.Outcomes, outcome)
	}

	summary.Finished = time.Now()
	log.WithFields(logrus.Fields{
		"saved":  summary.Saved,
		"failed": summary.Failed,
	}).Info("ingest run finished")
	return summary, nil
}

// Process collects, normalizes and saves one target. updated reports whether
// the post was already stored and only had its counts refreshed.
func (s *Service) Process(ctx context.Context, t Target) (*models.Post, normalize.Report, bool, error) {
	raw, err := s.collector.Collect(ctx, t.URL, t.Platform)
	if err != nil {
		return nil, normalize.Report{}, false, fmt.Errorf("collect: %w", err)
	}
	raw.Platform = string(t.Platform)

	post, report, err := s.normalizer.Post(*raw, time.Time{})
	if err != nil {
		return nil, report, false, fmt.Errorf("normalize: %w", err)
	}

	updated, err := s.store.IsProcessed(post.URL)
	if err != nil {
		return nil, report, false, fmt.Errorf("lookup: %w", err)
	}
	if err := s.store.SavePost(post); err != nil {
		return nil, report, false, fmt.Errorf("save: %w", err)
	}
	return post, report, updated, nil
}

// Start runs the ingest once immediately and then on every interval until
// ctx is done.
func (s *Service) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.log.Info("starting initial ingest run")
	s.runScheduled(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.log.Info("running scheduled ingest")
			s.runScheduled(ctx)
		}
	}
}

func (s *Service) runScheduled(ctx context.Context) {
	if _, err := s.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.log.WithError(err).Error("ingest run failed")
	}
}
