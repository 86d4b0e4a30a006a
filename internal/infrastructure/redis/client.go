package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	goRedis "github.com/redis/go-redis/v9"

	"github.com/fastygo/assettrack/internal/config"
)

// DefaultKeyPrefix namespaces session keys when REDIS_KEY_PREFIX is unset.
const DefaultKeyPrefix = "assettrack:"

const clientName = "assettrack-session"

// KeyPrefix returns the namespace for session keys, always ending in ':'.
func KeyPrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return DefaultKeyPrefix
	}
	if !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}
	return prefix
}

// NewClient connects the session store and verifies the server answers
// before any session is read from it.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*goRedis.Client, error) {
	opts, err := goRedis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}
	opts.ClientName = clientName

	client := goRedis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping session store: %w", err)
	}
	return client, nil
}
