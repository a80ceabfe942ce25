package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	BindAddress string `envconfig:"BIND_ADDRESS" default:"localhost"`

	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"acroparty"`
	DBPassword string `envconfig:"DB_PASSWORD" default:"acroparty123"`
	DBName     string `envconfig:"DB_NAME" default:"acroparty"`

	RedisHost string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort string `envconfig:"REDIS_PORT" default:"6379"`

	JWTSecret string `envconfig:"JWT_SECRET" default:"your-secret-key-change-in-production"`

	// Public base URL embedded in share links and QR codes.
	JoinBaseURL string `envconfig:"JOIN_BASE_URL" default:"http://localhost:8080"`

	// How often Delectus scans in-progress games.
	TickInterval time.Duration `envconfig:"TICK_INTERVAL" default:"1s"`

	// Number of entries in the join-code lookup cache.
	CacheSize int `envconfig:"CACHE_SIZE" default:"1024"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("processing config from environment: %w", err)
	}
	return cfg, nil
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

func InitRedis(cfg *Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
	})
}
