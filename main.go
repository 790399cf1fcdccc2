package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"bingo-tracker-server/api"
	"bingo-tracker-server/auth"
	"bingo-tracker-server/config"
	"bingo-tracker-server/game"
	"bingo-tracker-server/loghandler"
	"bingo-tracker-server/scan"
	"bingo-tracker-server/storage"
	"bingo-tracker-server/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	slog.SetDefault(slog.New(loghandler.NewCompactHandler(os.Stderr, cfg.LogLevelValue())))
	if envErr != nil {
		slog.Info("no .env file found; using environment variables", "tag", "main")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server stopped", "tag", "main", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	slog.Info("configuration", "tag", "main",
		"rows", cfg.DefaultRows, "cols", cfg.DefaultCols,
		"grid_bounds", fmt.Sprintf("%d-%d", cfg.MinGridSize, cfg.MaxGridSize),
		"center_free", cfg.CenterFree, "port", cfg.HTTPPort)

	var rc *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parsing REDIS_URL: %w", err)
		}
		rc = redis.NewClient(opts)
		defer rc.Close()
		slog.Info("scan cache enabled", "tag", "main", "addr", opts.Addr)
	}

	scanner, err := scan.New(ctx, cfg, rc)
	if err != nil {
		return fmt.Errorf("creating scanner: %w", err)
	}

	var telemetry game.TelemetrySink
	store, err := storage.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	if store != nil {
		defer store.Close()
		telemetry = store
		slog.Info("telemetry store connected", "tag", "main")
	}

	var validator *auth.Validator
	if cfg.AuthJWKSBaseURL == "" {
		slog.Info("auth disabled: AUTH_JWKS_BASE_URL is not set", "tag", "main")
	} else {
		validator, err = auth.NewValidator(cfg.AuthJWKSBaseURL)
		if err != nil {
			return fmt.Errorf("configuring auth: %w", err)
		}
		slog.Info("auth configured", "tag", "main", "base_url", cfg.AuthJWKSBaseURL)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: newMux(ctx, cfg, scanner, telemetry, validator),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Bingo tracker listening", "tag", "main", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// newMux starts the hub and mounts the WebSocket and HTTP API routes. The
// hub stops when ctx is cancelled.
func newMux(ctx context.Context, cfg *config.Config, scanner game.Scanner, telemetry game.TelemetrySink, validator *auth.Validator) *http.ServeMux {
	hub := ws.NewHub(cfg, scanner, telemetry, validator)
	go hub.Run(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	api.NewHandler(cfg, scanner, validator).Register(mux)
	return mux
}
