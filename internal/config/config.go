package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Search     SearchConfig
	RateLimit  RateLimitConfig
	CORS       CORSConfig
	Pagination PaginationConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// SearchConfig configures the shop name index and its synchronization stream
type SearchConfig struct {
	IndexPath      string
	Stream         string
	Group          string
	Consumer       string
	StreamMaxLen   int64
	ReindexOnStart bool
}

type RateLimitConfig struct {
	Requests       int // per window, 0 disables rate limiting
	SearchRequests int // per window for shop search, 0 counts it with the rest
	Window         time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type PaginationConfig struct {
	DefaultSize int
	MaxSize     int
}

// IsDevelopment reports whether the server runs outside production
func (c ServerConfig) IsDevelopment() bool {
	return c.Env != "production"
}

// Addr returns the host:port of the Redis server
func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

func Load() *Config {
	// .env is optional; real environment variables win over it
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not read .env file: %v", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SCHEMA", "public")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SEARCH_INDEX_PATH", "data/shops-index.db")
	v.SetDefault("SEARCH_STREAM", "shop-index-events")
	v.SetDefault("SEARCH_GROUP", "shop-indexer")
	v.SetDefault("SEARCH_CONSUMER", "indexer-1")
	v.SetDefault("SEARCH_STREAM_MAX_LEN", 10000)
	v.SetDefault("SEARCH_REINDEX_ON_START", true)
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_SEARCH_REQUESTS", 30)
	v.SetDefault("RATE_LIMIT_WINDOW", "1m")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("PAGE_DEFAULT_SIZE", 20)
	v.SetDefault("PAGE_MAX_SIZE", 2000)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port: v.GetString("SERVER_PORT"),
			Env:  v.GetString("SERVER_ENV"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Database: v.GetString("DB_DATABASE"),
			Schema:   v.GetString("DB_SCHEMA"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Search: SearchConfig{
			IndexPath:      v.GetString("SEARCH_INDEX_PATH"),
			Stream:         v.GetString("SEARCH_STREAM"),
			Group:          v.GetString("SEARCH_GROUP"),
			Consumer:       v.GetString("SEARCH_CONSUMER"),
			StreamMaxLen:   v.GetInt64("SEARCH_STREAM_MAX_LEN"),
			ReindexOnStart: v.GetBool("SEARCH_REINDEX_ON_START"),
		},
		RateLimit: RateLimitConfig{
			Requests:       v.GetInt("RATE_LIMIT_REQUESTS"),
			SearchRequests: v.GetInt("RATE_LIMIT_SEARCH_REQUESTS"),
			Window:         v.GetDuration("RATE_LIMIT_WINDOW"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Pagination: PaginationConfig{
			DefaultSize: v.GetInt("PAGE_DEFAULT_SIZE"),
			MaxSize:     v.GetInt("PAGE_MAX_SIZE"),
		},
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
