package providers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/bookshelfapp/bookshelf-server/internal/cache"
	"github.com/bookshelfapp/bookshelf-server/internal/config"
	"github.com/bookshelfapp/bookshelf-server/internal/logger"
	"github.com/bookshelfapp/bookshelf-server/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the SQLite database and applies migrations.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o750); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sqlite.Open(cfg.Database.Path, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", cfg.Database.Path)

	return &StoreHandle{Store: db}, nil
}

// CacheHandle holds the recommendation cache. Redis is nil when caching is
// disabled, in which case Cache is a no-op.
type CacheHandle struct {
	Cache cache.Cache
	Redis *cache.Redis
}

// Shutdown implements do.Shutdownable.
func (h *CacheHandle) Shutdown() error {
	if h.Redis == nil {
		return nil
	}
	return h.Redis.Close()
}

// ProvideCache connects to Redis. A failed connection is not fatal: the
// server starts with caching off and reports the cache as degraded.
func ProvideCache(i do.Injector) (*CacheHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Cache.Enabled {
		log.Info("Recommendation cache disabled by configuration")
		return &CacheHandle{Cache: cache.Noop{}}, nil
	}

	rc := cache.NewRedis(cache.Config{
		Addr:       cfg.Cache.Addr(),
		Password:   cfg.Cache.Password,
		DB:         cfg.Cache.DB,
		DefaultTTL: cfg.Cache.TTL,
		ScanCount:  int64(cfg.Cache.ScanCount),
	}, log.Logger)

	if err := rc.Connect(context.Background()); err != nil {
		log.Warn("Redis unavailable, recommendations will not be cached",
			"addr", cfg.Cache.Addr(),
			"error", err,
		)
	} else {
		log.Info("Redis cache connected", "addr", cfg.Cache.Addr(), "ttl", cfg.Cache.TTL)
	}

	return &CacheHandle{Cache: rc, Redis: rc}, nil
}
