package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/replenish-engine/internal/config"
	"github.com/andresuchdata/replenish-engine/internal/domain"
)

const (
	snapshotSummaryKeyPrefix = "snapshots:summary"
	snapshotScanBatchSize    = 100
)

// SnapshotCache caches the precomputed snapshot condition summary so
// dashboard consumers do not hit postgres on every request. Refresh runs
// invalidate the scope they superseded.
type SnapshotCache interface {
	GetSummary(ctx context.Context, filter domain.SnapshotFilter) ([]domain.SnapshotSummary, bool, error)
	SetSummary(ctx context.Context, filter domain.SnapshotFilter, summaries []domain.SnapshotSummary) error
	InvalidateClient(ctx context.Context, clientID int64) error
	InvalidateAll(ctx context.Context) error
}

type redisSnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopSnapshotCache struct{}

func NewSnapshotCache(cfg config.CacheConfig) (SnapshotCache, error) {
	if !cfg.Enabled {
		return &noopSnapshotCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisSnapshotCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopSnapshotCache() SnapshotCache {
	return &noopSnapshotCache{}
}

func (c *redisSnapshotCache) GetSummary(ctx context.Context, filter domain.SnapshotFilter) ([]domain.SnapshotSummary, bool, error) {
	key := buildSummaryKey(filter)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var summaries []domain.SnapshotSummary
	if err := json.Unmarshal(payload, &summaries); err != nil {
		return nil, false, fmt.Errorf("decode snapshot summary cache: %w", err)
	}

	return summaries, true, nil
}

func (c *redisSnapshotCache) SetSummary(ctx context.Context, filter domain.SnapshotFilter, summaries []domain.SnapshotSummary) error {
	key := buildSummaryKey(filter)
	payload, err := json.Marshal(summaries)
	if err != nil {
		return fmt.Errorf("encode snapshot summary cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// InvalidateClient drops every cached summary for one client scope. Keys
// embed the client id before the filter hash so a prefix scan covers all
// filter variants of that client.
func (c *redisSnapshotCache) InvalidateClient(ctx context.Context, clientID int64) error {
	prefix := fmt.Sprintf("%s:%d:", snapshotSummaryKeyPrefix, clientID)
	return deleteKeysWithPrefix(ctx, c.client, prefix, snapshotScanBatchSize)
}

func (c *redisSnapshotCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, snapshotSummaryKeyPrefix, snapshotScanBatchSize)
}

func (n *noopSnapshotCache) GetSummary(ctx context.Context, filter domain.SnapshotFilter) ([]domain.SnapshotSummary, bool, error) {
	return nil, false, nil
}

func (n *noopSnapshotCache) SetSummary(ctx context.Context, filter domain.SnapshotFilter, summaries []domain.SnapshotSummary) error {
	return nil
}

func (n *noopSnapshotCache) InvalidateClient(ctx context.Context, clientID int64) error {
	return nil
}

func (n *noopSnapshotCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildSummaryKey(filter domain.SnapshotFilter) string {
	return fmt.Sprintf("%s:%d:%s", snapshotSummaryKeyPrefix, filter.ClientID, snapshotFilterHash(filter))
}

func snapshotFilterHash(filter domain.SnapshotFilter) string {
	parts := []string{}

	if filter.LocationID != "" {
		parts = append(parts, "location="+strings.ToLower(strings.TrimSpace(filter.LocationID)))
	}
	if len(filter.ItemIDs) > 0 {
		parts = append(parts, "item_ids="+joinInt64s(filter.ItemIDs))
	}
	if len(filter.Conditions) > 0 {
		parts = append(parts, "conditions="+joinStrings(filter.Conditions))
	}

	if len(parts) == 0 {
		return "default"
	}

	sort.Strings(parts)
	raw := strings.Join(parts, "|")
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func joinInt64s(values []int64) string {
	c := append([]int64(nil), values...)
	sort.Slice(c, func(i, j int) bool { return c[i] < c[j] })
	strs := make([]string, len(c))
	for i, v := range c {
		strs[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(strs, ",")
}

func joinStrings(values []string) string {
	c := append([]string(nil), values...)
	for i := range c {
		c[i] = strings.TrimSpace(strings.ToLower(c[i]))
	}
	sort.Strings(c)
	return strings.Join(c, ",")
}
