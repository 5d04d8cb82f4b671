// Package dbtest wires isolated SQLite and Redis instances for package tests.
package dbtest

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/oggyb/dating-app/internal/cache"
	"github.com/oggyb/dating-app/internal/config"
	"github.com/oggyb/dating-app/internal/db"
)

// Open spins up a named in-memory SQLite DB private to t, migrated and
// seeded with db.SeedMinimalTestData.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", name)
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 logger.Discard,
	})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	// one connection keeps transactions and the shared cache from locking each other
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(database))
	require.NoError(t, db.SeedMinimalTestData(database))
	return database
}

// Redis starts a miniredis server for t and returns a cache bound to it.
func Redis(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := Config()
	cfg.Redis.Addr = mr.Addr()
	return cache.NewRedisCache(cfg), mr
}

// Config returns defaults suitable for tests.
func Config() *config.Config {
	cfg := config.New()
	cfg.DB.Driver = "sqlite"
	cfg.Auth.TokenKey = strings.Repeat("test-key-", 8)
	cfg.Paging.DefaultPageSize = 10
	cfg.Paging.MaxPageSize = 50
	cfg.Cache.MatchTTL = 10 * time.Minute
	cfg.Cache.LikeCountTTL = time.Hour
	return cfg
}

// DiscardLogger drops all output.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
