package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/dating-app/internal/cache"
	"github.com/oggyb/dating-app/internal/config"
	"github.com/oggyb/dating-app/internal/imagestore"
)

// AppContext holds shared dependencies (DB, Redis, Logger, photo host, config).
type AppContext struct {
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Images     imagestore.Store
	Config     *config.Config
}

// New creates a new AppContext. A nil cfg falls back to config.New().
func New(db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger, images imagestore.Store, cfg *config.Config) *AppContext {
	if cfg == nil {
		cfg = config.New()
	}
	return &AppContext{
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Images:     images,
		Config:     cfg,
	}
}
