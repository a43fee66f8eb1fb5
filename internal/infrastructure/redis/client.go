// Package redis dials the session backend for the admin token flow. The
// client is only constructed when an admin key is configured.
package redis

import (
	"context"
	"fmt"
	"time"

	goRedis "github.com/redis/go-redis/v9"

	"github.com/auditrail/backend/internal/config"
)

const dialTimeout = 5 * time.Second

// NewClient connects with the configured URL, applying the password and DB
// overrides, and verifies the backend answers before the token flow is wired
// up. A session store that is down should fail startup, not the first login.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*goRedis.Client, error) {
	opts, err := goRedis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("session backend url: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}

	client := goRedis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("session backend unreachable: %w", err)
	}

	return client, nil
}
