package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pwklam/scrape-chinese-social-media/internal/api"
)

// Serve runs the HTTP API and, when a poll interval is configured, the
// periodic ingest until ctx is done.
func (a *App) Serve(ctx context.Context) error {
	store, err := a.OpenStore()
	if err != nil {
		return err
	}
	svc, err := a.OpenIngest()
	if err != nil {
		return err
	}
	pollInterval, err := a.Config.Collector.Interval()
	if err != nil {
		return err
	}

	// Start ingesting in a goroutine
	if pollInterval > 0 {
		go svc.Start(ctx, pollInterval)
	}

	if a.Logger.GetLevel() < logrus.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.NewHandler(a.Normalizer, store, svc), logrus.NewEntry(a.Logger))

	srv := &http.Server{
		Addr:    a.Config.Server.Addr(),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.Logger.WithError(err).Error("server shutdown failed")
		}
	}()

	a.Logger.WithFields(logrus.Fields{
		"addr":          srv.Addr,
		"storage":       a.Config.Storage.Type,
		"urls_file":     a.Config.Collector.URLsFile,
		"poll_interval": pollInterval.String(),
	}).Info("starting server")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	a.Logger.Info("server stopped")
	return nil
}
