// Package cache keeps short-lived leaderboard snapshots in redis so
// windowed views can be served from one consistent snapshot without
// re-ranking on every request.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/example/provalab/internal/logger"
	"github.com/example/provalab/pkg/models"
)

const snapshotTTL = 30 * time.Second

// Leaderboard is a redis-backed standings snapshot cache. A miss or a
// redis failure falls back to the store; the cache is never authoritative.
type Leaderboard struct {
	rdb *goredis.Client
	log *logger.Logger
}

// NewLeaderboard connects to redis and verifies the connection.
func NewLeaderboard(addr string, log *logger.Logger) (*Leaderboard, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Leaderboard{
		rdb: rdb,
		log: log.With("component", "leaderboard-cache"),
	}, nil
}

func key(tier models.Tier) string {
	return "leaderboard:" + string(tier)
}

// Get returns the cached snapshot for a tier, if fresh.
func (c *Leaderboard) Get(ctx context.Context, tier models.Tier) ([]models.LeagueEntry, bool) {
	raw, err := c.rdb.Get(ctx, key(tier)).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("snapshot read failed", "tier", tier, "error", err)
		}
		return nil, false
	}
	var entries []models.LeagueEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		c.log.Warn("snapshot decode failed", "tier", tier, "error", err)
		return nil, false
	}
	return entries, true
}

// Set stores a snapshot with a short TTL.
func (c *Leaderboard) Set(ctx context.Context, tier models.Tier, entries []models.LeagueEntry) {
	raw, err := json.Marshal(entries)
	if err != nil {
		c.log.Warn("snapshot encode failed", "tier", tier, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, key(tier), raw, snapshotTTL).Err(); err != nil {
		c.log.Warn("snapshot write failed", "tier", tier, "error", err)
	}
}

// Invalidate drops the snapshots for the given tiers.
func (c *Leaderboard) Invalidate(ctx context.Context, tiers ...models.Tier) {
	keys := make([]string, 0, len(tiers))
	for _, tier := range tiers {
		keys = append(keys, key(tier))
	}
	if len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("snapshot invalidation failed", "error", err)
	}
}

// Close releases the redis connection.
func (c *Leaderboard) Close() error {
	return c.rdb.Close()
}
