package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/bookshelfapp/bookshelf-server/internal/metrics"
)

// DefaultScanCount is the SCAN batch size used by DeleteMatching.
const DefaultScanCount = 100

// Config configures the Redis cache.
type Config struct {
	Addr        string
	Password    string
	DB          int
	DefaultTTL  time.Duration
	ScanCount   int64
	DialTimeout time.Duration
	OpTimeout   time.Duration
}

// client is the subset of *redis.Client the cache uses.
type client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// Redis is a Cache backed by a Redis server.
//
// Until Connect succeeds every operation is a no-op. Errors after a
// successful connect are logged and counted, never returned.
type Redis struct {
	cfg    Config
	logger *slog.Logger

	mu     sync.RWMutex
	client client
}

var _ Cache = (*Redis)(nil)

// NewRedis returns a disconnected Redis cache.
func NewRedis(cfg Config, logger *slog.Logger) *Redis {
	if cfg.ScanCount <= 0 {
		cfg.ScanCount = DefaultScanCount
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = time.Hour
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 2 * time.Second
	}
	if cfg.OpTimeout <= 0 {
		cfg.OpTimeout = time.Second
	}
	return &Redis{cfg: cfg, logger: logger}
}

// Connect dials and pings the server. On failure the cache stays
// disconnected and the error is returned for logging only.
func (r *Redis) Connect(ctx context.Context) error {
	c := redis.NewClient(&redis.Options{
		Addr:         r.cfg.Addr,
		Password:     r.cfg.Password,
		DB:           r.cfg.DB,
		DialTimeout:  r.cfg.DialTimeout,
		ReadTimeout:  r.cfg.OpTimeout,
		WriteTimeout: r.cfg.OpTimeout,
	})
	return r.attach(ctx, c)
}

func (r *Redis) attach(ctx context.Context, c client) error {
	pingCtx, cancel := context.WithTimeout(ctx, r.cfg.DialTimeout)
	defer cancel()

	if err := c.Ping(pingCtx).Err(); err != nil {
		_ = c.Close()
		return fmt.Errorf("ping redis at %s: %w", r.cfg.Addr, err)
	}

	r.mu.Lock()
	old := r.client
	r.client = c
	r.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}

	r.logger.Debug("redis connected", "addr", r.cfg.Addr, "db", r.cfg.DB)
	return nil
}

// Connected reports whether a ping has succeeded.
func (r *Redis) Connected() bool {
	return r.conn() != nil
}

// Ping checks the server. It returns an error when disconnected.
func (r *Redis) Ping(ctx context.Context) error {
	c := r.conn()
	if c == nil {
		return errors.New("redis not connected")
	}
	return c.Ping(ctx).Err()
}

// Close releases the connection pool. Subsequent operations are no-ops.
func (r *Redis) Close() error {
	r.mu.Lock()
	c := r.client
	r.client = nil
	r.mu.Unlock()

	if c == nil {
		return nil
	}
	return c.Close()
}

func (r *Redis) conn() client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.client
}

// Get implements Cache.
func (r *Redis) Get(ctx context.Context, key string, dest any) bool {
	c := r.conn()
	if c == nil {
		metrics.CacheMisses.Inc()
		return false
	}

	raw, err := c.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.fail("get", key, err)
		}
		metrics.CacheMisses.Inc()
		return false
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		r.fail("decode", key, err)
		metrics.CacheMisses.Inc()
		return false
	}

	metrics.CacheHits.Inc()
	return true
}

// Set implements Cache.
func (r *Redis) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	c := r.conn()
	if c == nil {
		return
	}
	if ttl <= 0 {
		ttl = r.cfg.DefaultTTL
	}

	raw, err := json.Marshal(value)
	if err != nil {
		r.fail("encode", key, err)
		return
	}
	if err := c.Set(ctx, key, raw, ttl).Err(); err != nil {
		r.fail("set", key, err)
	}
}

// Delete implements Cache.
func (r *Redis) Delete(ctx context.Context, key string) {
	c := r.conn()
	if c == nil {
		return
	}
	if err := c.Del(ctx, key).Err(); err != nil {
		r.fail("delete", key, err)
	}
}

// DeleteMatching implements Cache. Matching keys are collected over a full
// SCAN and deleted in chunks of ScanCount only after the walk completes.
func (r *Redis) DeleteMatching(ctx context.Context, pattern string) int {
	c := r.conn()
	if c == nil {
		return 0
	}

	keys, err := r.scanAll(ctx, c, pattern)
	if err != nil {
		r.fail("scan", pattern, err)
		return 0
	}

	removed := 0
	for batch := range slices.Chunk(keys, int(r.cfg.ScanCount)) {
		n, err := c.Del(ctx, batch...).Result()
		if err != nil {
			r.fail("delete", pattern, err)
			break
		}
		removed += int(n)
	}

	metrics.CacheInvalidatedKeys.Add(float64(removed))
	r.logger.Debug("cache invalidated", "pattern", pattern, "keys", removed)
	return removed
}

// scanAll follows the SCAN cursor to completion. SCAN may return a key more
// than once, so results are deduplicated.
func (r *Redis) scanAll(ctx context.Context, c client, pattern string) ([]string, error) {
	var (
		cursor uint64
		keys   []string
		seen   = make(map[string]struct{})
	)
	for {
		batch, next, err := c.Scan(ctx, cursor, pattern, r.cfg.ScanCount).Result()
		if err != nil {
			return nil, err
		}
		for _, k := range batch {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
		if cursor = next; cursor == 0 {
			return keys, nil
		}
	}
}

func (r *Redis) fail(op, key string, err error) {
	metrics.CacheErrors.WithLabelValues(op).Inc()
	r.logger.Warn("cache operation failed",
		"op", op,
		"key", key,
		"error", err,
	)
}
