package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"drinktracker/internal/cache"
	"drinktracker/internal/core"
	"drinktracker/internal/memory"
	"drinktracker/internal/storage"
)

const (
	defaultStreakCacheSize = 1000
	defaultStreakCacheTTL  = 10 * time.Minute
	streakKeyPrefix        = "drinktracker:"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Store:   repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*BackendResult, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}

	store := memory.NewFromFiles(dataDir)

	f.logger.InfoContext(ctx, "Initialized memory backend", "data_directory", dataDir)

	return &BackendResult{Store: store}, nil
}

// CreateStreakCache implements Factory.CreateStreakCache
func (f *DefaultFactory) CreateStreakCache(ctx context.Context, config Config) (*StreakCacheResult, error) {
	ttl := config.StreakCacheTTL
	if ttl <= 0 {
		ttl = defaultStreakCacheTTL
	}

	switch config.CacheType {
	case RedisCache:
		client, err := cache.NewRedisClient(ctx, config.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize redis cache: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized redis streak cache", "ttl", ttl)
		return &StreakCacheResult{
			Cache:   cache.NewRedisCache[core.StreakResult](client, streakKeyPrefix, ttl),
			Cleanup: client.Close,
		}, nil

	case MemoryCache, "":
		size := config.StreakCacheSize
		if size <= 0 {
			size = defaultStreakCacheSize
		}
		lru := cache.NewLRUCache[core.StreakResult](size, ttl)
		manager := cache.NewManager()
		manager.Register(lru)

		f.logger.InfoContext(ctx, "Initialized in-memory streak cache", "size", size, "ttl", ttl)
		return &StreakCacheResult{Cache: lru, Manager: manager}, nil

	default:
		return nil, fmt.Errorf("unsupported cache type: %s", config.CacheType)
	}
}
