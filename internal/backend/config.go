package backend

import (
	"fmt"

	"drinktracker/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	cfg := Config{
		Type:            BackendType(appConfig.DataBackend),
		SQLiteDBPath:    appConfig.SQLiteDBPath,
		DataDirectory:   appConfig.SeedDir,
		CacheType:       CacheType(appConfig.CacheBackend),
		RedisURL:        appConfig.RedisURL,
		StreakCacheSize: appConfig.StreakCacheSize,
		StreakCacheTTL:  appConfig.StreakCacheTTL,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for sqlite backend")
	}

	if c.CacheType == "" {
		return nil
	}
	if !c.CacheType.IsValid() {
		return fmt.Errorf("invalid cache type: %s", c.CacheType)
	}
	if c.CacheType == RedisCache && c.RedisURL == "" {
		return fmt.Errorf("redis URL is required for redis cache")
	}
	return nil
}

// GetBackendTypeStrings lists the accepted DATA_BACKEND values.
func GetBackendTypeStrings() []string {
	return []string{SQLiteBackend.String(), MemoryBackend.String()}
}
