// Package app assembles the services both binaries run from configuration.
package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/pwklam/scrape-chinese-social-media/internal/collector"
	"github.com/pwklam/scrape-chinese-social-media/internal/config"
	"github.com/pwklam/scrape-chinese-social-media/internal/ingest"
	"github.com/pwklam/scrape-chinese-social-media/internal/logging"
	"github.com/pwklam/scrape-chinese-social-media/internal/normalize"
	"github.com/pwklam/scrape-chinese-social-media/internal/storage"
)

// App holds the wired services.
type App struct {
	Config     *config.Config
	Logger     *logrus.Logger
	Normalizer *normalize.Normalizer
	Store      storage.Storage
	Ingest     *ingest.Service

	logCloser io.Closer
}

// New builds the logger and normalizer from cfg. Storage and ingest are
// opened on demand by OpenStore and OpenIngest.
func New(cfg *config.Config) (*App, error) {
	logger, closer, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Normalize.Location()
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("normalize timezone: %w", err)
	}

	opts := []normalize.Option{normalize.WithLocation(loc)}
	if cfg.Normalize.LenientCounts {
		opts = append(opts, normalize.WithLenientCounts())
	}

	return &App{
		Config:     cfg,
		Logger:     logger,
		Normalizer: normalize.New(logrus.NewEntry(logger), opts...),
		logCloser:  closer,
	}, nil
}

// OpenStore opens the configured storage.
func (a *App) OpenStore() (storage.Storage, error) {
	if a.Store != nil {
		return a.Store, nil
	}

	store, err := OpenStorage(a.Config.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.Store = store
	return store, nil
}

// OpenIngest opens storage and the collector and builds the ingest service.
func (a *App) OpenIngest() (*ingest.Service, error) {
	if a.Ingest != nil {
		return a.Ingest, nil
	}

	store, err := a.OpenStore()
	if err != nil {
		return nil, err
	}
	c, err := collector.New(a.Config.Collector, logrus.NewEntry(a.Logger))
	if err != nil {
		return nil, err
	}
	a.Ingest = ingest.New(c, a.Normalizer, store, a.Config.Collector.URLsFile, logrus.NewEntry(a.Logger))
	return a.Ingest, nil
}

// Close releases storage and the log file.
func (a *App) Close() error {
	var err error
	if a.Store != nil {
		err = a.Store.Close()
	}
	if cerr := a.logCloser.Close(); err == nil {
		err = cerr
	}
	return err
}

// OpenStorage opens the storage backend named by cfg.Type.
func OpenStorage(cfg config.StorageConfig) (storage.Storage, error) {
	switch cfg.Type {
	case "sqlite", "":
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
		return storage.NewSQLiteStorage(cfg.Path)
	case "postgres":
		return storage.NewPostgresStorage(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
