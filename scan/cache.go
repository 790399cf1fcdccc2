package scan

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"bingo-tracker-server/game"
)

// Cache wraps a Scanner with Redis-backed caching of successful scans, so
// re-uploading the same photo does not call the model again.
type Cache struct {
	next  game.Scanner
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching Scanner using the provided Redis client and TTL.
func NewCache(next game.Scanner, client *redis.Client, ttl time.Duration) *Cache {
	if next == nil {
		panic("scan.NewCache: next scanner is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{next: next, redis: client, ttl: ttl}
}

func (c *Cache) Scan(ctx context.Context, req game.ScanRequest) (game.ScanResult, error) {
	key := cacheKey(req)
	if res, ok := c.load(ctx, key); ok {
		slog.Debug("scan cache hit", "tag", "scan", "key", key)
		return res, nil
	}

	res, err := c.next.Scan(ctx, req)
	if err != nil {
		return game.ScanResult{}, err
	}
	c.store(ctx, key, res)
	return res, nil
}

func (c *Cache) load(ctx context.Context, key string) (game.ScanResult, bool) {
	if c.redis == nil {
		return game.ScanResult{}, false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("scan cache read failed", "tag", "scan", "err", err)
		}
		return game.ScanResult{}, false
	}
	var p Payload
	if err := sonic.Unmarshal(data, &p); err != nil || len(p.Grid) == 0 {
		// Unreadable entry: drop it and scan again.
		_ = c.redis.Del(ctx, key).Err()
		return game.ScanResult{}, false
	}
	return game.ScanResult{Rows: p.Rows, Cols: p.Cols, Grid: p.Grid}, true
}

func (c *Cache) store(ctx context.Context, key string, res game.ScanResult) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := sonic.Marshal(ResultPayload(res))
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		slog.Warn("scan cache write failed", "tag", "scan", "err", err)
	}
}

// cacheKey hashes the image together with the requested shape; the same
// photo scanned at a different size is a different entry.
func cacheKey(req game.ScanRequest) string {
	h := sha256.New()
	h.Write(req.Image)
	if req.Dimensions != nil {
		fmt.Fprintf(h, "|%dx%d", req.Dimensions.Rows, req.Dimensions.Cols)
	} else {
		h.Write([]byte("|auto"))
	}
	return "scan:" + hex.EncodeToString(h.Sum(nil))
}
