package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/oggyb/dating-app/internal/app"
	"github.com/oggyb/dating-app/internal/auth"
	"github.com/oggyb/dating-app/internal/cache"
	"github.com/oggyb/dating-app/internal/config"
	"github.com/oggyb/dating-app/internal/db"
	"github.com/oggyb/dating-app/internal/imagestore"
	"github.com/oggyb/dating-app/internal/logger"
	"github.com/oggyb/dating-app/internal/server"
	"github.com/oggyb/dating-app/internal/transport/httpapi"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		log.Error("failed to connect to redis", "err", err)
		os.Exit(1)
	}
	defer redisCache.Close()

	images, err := imagestore.NewS3Store(ctx, cfg)
	if err != nil {
		log.Error("failed to init image store", "err", err)
		os.Exit(1)
	}

	tokens, err := auth.NewTokenService(cfg)
	if err != nil {
		log.Error("failed to init token service", "err", err)
		os.Exit(1)
	}

	appCtx := app.New(database, redisCache, log, images, cfg)

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database, log); err != nil {
			log.Error("failed to seed", "err", err)
		} else {
			if err := redisCache.FlushMatches(ctx); err != nil {
				log.Warn("failed to flush match cache", "err", err)
			}
			if err := redisCache.FlushLikeCounts(ctx); err != nil {
				log.Warn("failed to flush like counters", "err", err)
			}
		}
	}

	if cfg.App.ENV == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Host + ":" + cfg.HTTP.Port,
		Handler:      httpapi.NewRouter(appCtx, tokens),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	health := server.NewHealthRegistrar(appCtx)
	grpcSrv := server.NewGRPCServer(cfg, log, health)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting HTTP server", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(grpcSrv.ListenAndServe)

	g.Go(func() error {
		return health.Watch(gctx, 15*time.Second)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		grpcSrv.Shutdown(shutdownCtx)
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", "err", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
