package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App struct {
		ENV string
	}

	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	DB struct {
		Driver          string // mysql, postgres, sqlite
		DSN             string
		Host            string
		Port            string
		User            string
		Password        string
		Name            string
		SSLMode         string // postgres only
		Path            string // sqlite only
		MaxIdleConns    int
		MaxOpenConns    int
		ConnMaxLifetime time.Duration
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	HTTP struct {
		Host         string
		Port         string
		ReadTimeout  time.Duration
		WriteTimeout time.Duration
	}

	GRPC struct {
		Host string
		Port string
	}

	Auth struct {
		TokenKey string
		TokenTTL time.Duration
	}

	Storage struct {
		Endpoint        string
		Region          string
		Bucket          string
		AccessKeyID     string
		SecretAccessKey string
		UsePathStyle    bool
		PublicURL       string
		PhotoSize       int
	}

	Paging struct {
		DefaultPageSize int
		MaxPageSize     int
	}

	Cache struct {
		MatchTTL     time.Duration
		LikeCountTTL time.Duration
	}
}

// MinTokenKeyLength is the shortest HMAC key accepted for bearer tokens.
const MinTokenKeyLength = 64

func New() *Config {
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load() // optional .env for local
	}

	cfg := &Config{}
	cfg.App.ENV = getEnvDefault("APP_ENV", "development")

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "dating_api")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.Driver = strings.ToLower(getEnvDefault("DB_DRIVER", "mysql"))
	cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
	cfg.DB.User = getEnvDefault("DB_USER", "root")
	cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
	cfg.DB.Name = getEnvDefault("DB_NAME", "dating")
	cfg.DB.SSLMode = getEnvDefault("DB_SSLMODE", "disable")
	cfg.DB.Path = getEnvDefault("DB_PATH", "dating.db")
	cfg.DB.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 10)
	cfg.DB.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 50)
	cfg.DB.ConnMaxLifetime = getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute)

	defaultPort := "3306"
	if cfg.DB.Driver == "postgres" {
		defaultPort = "5432"
	}
	cfg.DB.Port = getEnvDefault("DB_PORT", defaultPort)

	cfg.DB.DSN = os.Getenv("DB_DSN")
	if cfg.DB.DSN == "" {
		cfg.DB.DSN = buildDSN(cfg)
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	// HTTP
	cfg.HTTP.Host = getEnvDefault("HTTP_HOST", "0.0.0.0")
	cfg.HTTP.Port = getEnvDefault("HTTP_PORT", "5000")
	cfg.HTTP.ReadTimeout = getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second)
	cfg.HTTP.WriteTimeout = getEnvDuration("HTTP_WRITE_TIMEOUT", 30*time.Second)

	// gRPC
	cfg.GRPC.Host = getEnvDefault("GRPC_HOST", "127.0.0.1")
	cfg.GRPC.Port = getEnvDefault("GRPC_PORT", "50051")

	// Auth
	cfg.Auth.TokenKey = os.Getenv("TOKEN_KEY")
	cfg.Auth.TokenTTL = getEnvDuration("TOKEN_TTL", 7*24*time.Hour)

	// Photo storage
	cfg.Storage.Endpoint = os.Getenv("STORAGE_ENDPOINT")
	cfg.Storage.Region = getEnvDefault("STORAGE_REGION", "us-east-1")
	cfg.Storage.Bucket = getEnvDefault("STORAGE_BUCKET", "dating-photos")
	cfg.Storage.AccessKeyID = os.Getenv("STORAGE_ACCESS_KEY_ID")
	cfg.Storage.SecretAccessKey = os.Getenv("STORAGE_SECRET_ACCESS_KEY")
	cfg.Storage.UsePathStyle = isTruthy(os.Getenv("STORAGE_USE_PATH_STYLE"))
	cfg.Storage.PublicURL = os.Getenv("STORAGE_PUBLIC_URL")
	cfg.Storage.PhotoSize = getEnvInt("PHOTO_SIZE", 500)

	// Paging
	cfg.Paging.DefaultPageSize = getEnvInt("PAGE_SIZE_DEFAULT", 10)
	cfg.Paging.MaxPageSize = getEnvInt("PAGE_SIZE_MAX", 50)

	// Cache
	cfg.Cache.MatchTTL = getEnvDuration("CACHE_MATCH_TTL", 10*time.Minute)
	cfg.Cache.LikeCountTTL = getEnvDuration("CACHE_LIKE_COUNT_TTL", time.Hour)

	return cfg
}

// Validate reports configuration that the server cannot run with.
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if len(c.Auth.TokenKey) < MinTokenKeyLength {
		return fmt.Errorf("TOKEN_KEY must be at least %d characters", MinTokenKeyLength)
	}
	if c.Paging.MaxPageSize <= 0 || c.Paging.DefaultPageSize <= 0 {
		return fmt.Errorf("page sizes must be positive")
	}
	if c.Paging.DefaultPageSize > c.Paging.MaxPageSize {
		return fmt.Errorf("PAGE_SIZE_DEFAULT (%d) exceeds PAGE_SIZE_MAX (%d)",
			c.Paging.DefaultPageSize, c.Paging.MaxPageSize)
	}
	return nil
}

func buildDSN(cfg *Config) string {
	switch cfg.DB.Driver {
	case "postgres":
		return fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.SSLMode,
		)
	case "sqlite":
		return cfg.DB.Path
	default:
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if n, err := strconv.Atoi(getEnvDefault(k, "")); err == nil {
		return n
	}
	return def
}

// getEnvDuration accepts Go durations ("90s") or plain seconds ("90").
func getEnvDuration(k string, def time.Duration) time.Duration {
	v := getEnvDefault(k, "")
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
