package backend

import (
	"context"
	"time"

	"drinktracker/internal/cache"
	"drinktracker/internal/core"
	"drinktracker/internal/ports"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// BackendResult contains the store and an optional cleanup function.
type BackendResult struct {
	Store   ports.Store
	Cleanup CleanupFunc
}

// StreakCacheResult holds the streak cache plus the sweeper for in-process
// caches. Manager is nil for shared caches.
type StreakCacheResult struct {
	Cache   cache.Cache[core.StreakResult]
	Manager *cache.Manager
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
	CreateStreakCache(ctx context.Context, config Config) (*StreakCacheResult, error)
}

type Config struct {
	Type BackendType

	// SQLite
	SQLiteDBPath string

	// Memory backend seed files
	DataDirectory string

	// Streak cache
	CacheType       CacheType
	RedisURL        string
	StreakCacheSize int
	StreakCacheTTL  time.Duration
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

type CacheType string

const (
	MemoryCache CacheType = "memory"
	RedisCache  CacheType = "redis"
)

func (ct CacheType) IsValid() bool {
	return ct == MemoryCache || ct == RedisCache
}
