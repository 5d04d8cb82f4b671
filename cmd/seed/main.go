package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/oggyb/dating-app/internal/auth"
	"github.com/oggyb/dating-app/internal/cache"
	"github.com/oggyb/dating-app/internal/config"
	"github.com/oggyb/dating-app/internal/db"
	"github.com/oggyb/dating-app/internal/logger"
	"github.com/oggyb/dating-app/internal/repository"
	"github.com/oggyb/dating-app/internal/service/dto"
)

func main() {
	printTokens := flag.Bool("tokens", false, "print a development bearer token for every seeded user")
	flag.Parse()

	// Load configuration
	cfg := config.New()
	logger.InitFromConfig(cfg)
	log := logger.L()

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	if err := db.SeedTestData(database, log); err != nil {
		log.Error("failed to seed", "err", err)
		os.Exit(1)
	}
	log.Info("seeding completed")

	// like and match rows were replaced, cached values are stale
	redisCache := cache.NewRedisCache(cfg)
	defer redisCache.Close()
	if err := redisCache.FlushMatches(context.Background()); err != nil {
		log.Warn("failed to flush match cache", "err", err)
	}
	if err := redisCache.FlushLikeCounts(context.Background()); err != nil {
		log.Warn("failed to flush like counters", "err", err)
	}

	if !*printTokens {
		return
	}

	tokens, err := auth.NewTokenService(cfg)
	if err != nil {
		log.Error("failed to init token service", "err", err)
		os.Exit(1)
	}
	users, err := repository.NewUserRepository(database).UsersWithRoles(context.Background())
	if err != nil {
		log.Error("failed to load users", "err", err)
		os.Exit(1)
	}
	for _, u := range users {
		tok, err := tokens.Create(u.ID, u.Username, dto.UserRoles(u).Roles)
		if err != nil {
			log.Error("failed to sign token", "user", u.Username, "err", err)
			os.Exit(1)
		}
		fmt.Printf("%s\t%s\n", u.Username, tok)
	}
}
