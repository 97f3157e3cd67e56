package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/murkotick/shophub-core/internal/app"
	"github.com/murkotick/shophub-core/internal/pkg/storage"
	"github.com/murkotick/shophub-core/internal/remote"
)

func main() {
	// .env is optional; real env vars win.
	_ = godotenv.Load()

	apiURL := env("SHOPHUB_API_URL", "http://localhost:5000/api")
	dbPath := env("SHOPHUB_STATE_DB", "shophub.db")

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("zap.NewProduction: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle SIGINT/SIGTERM.
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		logger.Info("shutdown signal received")
		cancel()
	}()

	store, err := storage.Open(dbPath)
	if err != nil {
		logger.Warn("state db unavailable, falling back to in-memory state", zap.Error(err))
	}

	client, err := remote.NewClient(apiURL, logger)
	if err != nil {
		logger.Fatal("remote client", zap.Error(err))
	}

	clk := clockwork.NewRealClock()
	var core *app.App
	if store != nil {
		core = app.New(client, store, clk, logger)
	} else {
		core = app.New(client, storage.NewMemory(), clk, logger)
	}

	core.Start(ctx, logger)

	// One-second ticker drives the passwordless resend countdown.
	go func() {
		ticker := clk.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				core.Session.Passwordless().TickCooldown()
			}
		}
	}()

	logger.Info("shophub core ready",
		zap.String("api_url", apiURL),
		zap.Bool("authenticated", core.Session.Authenticated()),
		zap.Int("products", core.Catalog.FilteredCount()))

	<-ctx.Done()
	logger.Info("stopped")
}

func env(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
