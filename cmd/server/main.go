package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pwklam/scrape-chinese-social-media/internal/app"
	"github.com/pwklam/scrape-chinese-social-media/internal/config"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Serve(ctx); err != nil {
		a.Logger.Fatalf("Failed to start server: %v", err)
	}
}
