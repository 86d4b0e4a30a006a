package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers accepted by SESSION_STORE_DRIVER.
const (
	DriverBolt  = "bolt"
	DriverRedis = "redis"
)

// Config aggregates all runtime settings required by the client.
type Config struct {
	AppName     string
	Environment string
	API         APIConfig
	Store       StoreConfig
	Redis       RedisConfig
	Outbox      OutboxConfig
	Monitor     MonitorConfig
	Context     ContextConfig
	Logger      LoggerConfig
}

type APIConfig struct {
	BaseURL    string
	Timeout    time.Duration
	HealthPath string
	UserAgent  string
}

type StoreConfig struct {
	Driver   string
	BoltPath string
}

type RedisConfig struct {
	URL       string
	Password  string
	DB        int
	KeyPrefix string
}

type OutboxConfig struct {
	SyncInterval   time.Duration
	MaxRetry       int
	RetentionHours int
	BatchSize      int
}

type MonitorConfig struct {
	Interval time.Duration
}

type ContextConfig struct {
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

// Load reads configuration from environment variables (optionally .env)
// and applies defaults so the client works against a local backend.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "assettrack"),
		Environment: getString("APP_ENV", "development"),
		API: APIConfig{
			BaseURL:    strings.TrimRight(getString("API_BASE_URL", "http://localhost:3000/api/v1"), "/"),
			Timeout:    getDuration("API_TIMEOUT", 30*time.Second),
			HealthPath: getString("API_HEALTH_PATH", "/"),
			UserAgent:  getString("API_USER_AGENT", "assettrack-client"),
		},
		Store: StoreConfig{
			Driver:   strings.ToLower(getString("SESSION_STORE_DRIVER", DriverBolt)),
			BoltPath: getString("BOLTDB_PATH", "./data/session.db"),
		},
		Redis: RedisConfig{
			URL:       getString("REDIS_URL", "redis://localhost:6379"),
			Password:  os.Getenv("REDIS_PASSWORD"),
			DB:        getInt("REDIS_DB", 0),
			KeyPrefix: getString("REDIS_KEY_PREFIX", "assettrack:"),
		},
		Outbox: OutboxConfig{
			SyncInterval:   getDuration("OUTBOX_SYNC_INTERVAL", 30*time.Second),
			MaxRetry:       getInt("OUTBOX_MAX_RETRY", 5),
			RetentionHours: getInt("OUTBOX_RETENTION_HOURS", 72),
			BatchSize:      getInt("OUTBOX_BATCH_SIZE", 20),
		},
		Monitor: MonitorConfig{
			Interval: getDuration("MONITOR_INTERVAL", 15*time.Second),
		},
		Context: ContextConfig{
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "console"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case DriverBolt, DriverRedis:
	default:
		return fmt.Errorf("unsupported SESSION_STORE_DRIVER %q", c.Store.Driver)
	}
	if c.API.BaseURL == "" {
		return fmt.Errorf("API_BASE_URL must not be empty")
	}
	return nil
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// HealthURL returns the absolute URL probed by the connectivity monitor.
func (c *Config) HealthURL() string {
	path := c.API.HealthPath
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.API.BaseURL + path
}
