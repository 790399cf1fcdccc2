package scan

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"bingo-tracker-server/config"
	"bingo-tracker-server/game"
)

// New builds the scanner chain from config: a remote scan service if one is
// configured, else Gemini if an API key is set, else the mock. The result is
// cached in Redis when rc is non-nil and always traced.
func New(ctx context.Context, cfg *config.Config, rc *redis.Client) (game.Scanner, error) {
	var base game.Scanner
	switch {
	case cfg.ScanServiceURL != "":
		slog.Info("using remote scan service", "tag", "scan", "url", cfg.ScanServiceURL)
		base = &RemoteScanner{
			URL:    cfg.ScanServiceURL,
			Client: &http.Client{Timeout: cfg.ScanTimeout()},
			Bounds: BoundsFromConfig(cfg),
		}
	case cfg.GeminiAPIKey != "":
		g, err := NewGeminiScanner(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.DebugAIResponse)
		if err != nil {
			return nil, err
		}
		g.Bounds = BoundsFromConfig(cfg)
		slog.Info("using gemini scanner", "tag", "scan", "model", cfg.GeminiModel)
		base = g
	default:
		slog.Warn("no GEMINI_API_KEY or SCAN_SERVICE_URL; scans return a mocked grid", "tag", "scan")
		base = MockScanner{}
	}

	if rc != nil {
		base = NewCache(base, rc, time.Duration(cfg.ScanCacheTTLSec)*time.Second)
	}
	return NewTraced(base), nil
}
