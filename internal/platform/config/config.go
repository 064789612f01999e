package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Config captures process-level configuration. All values are read once at
// startup; nothing here mutates afterwards.
type Config struct {
	Addr        string
	DatabaseURL string

	JWTSigningKey string
	TokenLifetime time.Duration
	TokenIssuer   string

	BcryptCost int

	Redis RedisConfig

	KafkaBrokers []string
	AuditTopic   string

	Lockout LockoutConfig
}

// RedisConfig holds connection settings for the lockout store. An empty URL
// disables Redis and falls back to the in-memory store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// LockoutConfig controls the login failure throttle.
type LockoutConfig struct {
	MaxFailures  int
	Window       time.Duration
	LockDuration time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:          envOr("SIGIL_ADDR", ":8080"),
		DatabaseURL:   os.Getenv("SIGIL_DATABASE_URL"),
		JWTSigningKey: envOr("SIGIL_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		TokenLifetime: envDuration("SIGIL_TOKEN_LIFETIME", time.Hour),
		TokenIssuer:   envOr("SIGIL_TOKEN_ISSUER", "sigil"),
		BcryptCost:    envInt("SIGIL_BCRYPT_COST", 10),
		Redis: RedisConfig{
			URL:          os.Getenv("SIGIL_REDIS_URL"),
			PoolSize:     envInt("SIGIL_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("SIGIL_REDIS_MIN_IDLE", 2),
			DialTimeout:  envDuration("SIGIL_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("SIGIL_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("SIGIL_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		AuditTopic: envOr("SIGIL_AUDIT_TOPIC", "sigil.audit"),
		Lockout: LockoutConfig{
			MaxFailures:  envInt("SIGIL_LOCKOUT_MAX_FAILURES", 5),
			Window:       envDuration("SIGIL_LOCKOUT_WINDOW", 15*time.Minute),
			LockDuration: envDuration("SIGIL_LOCKOUT_DURATION", 15*time.Minute),
		},
	}

	if brokers := os.Getenv("SIGIL_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	// bcrypt silently clamps out-of-range costs; clamp here instead so the
	// configured value and the effective value never diverge.
	if cfg.BcryptCost < bcrypt.MinCost {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.BcryptCost > bcrypt.MaxCost {
		cfg.BcryptCost = bcrypt.MaxCost
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
