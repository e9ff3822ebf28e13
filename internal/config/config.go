package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type DeliveryMode string

const (
	// DeliveryTable persists jobs in the durable queue table and
	// processes them from a poll loop.
	DeliveryTable DeliveryMode = "table"
	// DeliveryPush forwards each job to the external dispatcher over
	// HTTP; nothing is persisted and nothing polls.
	DeliveryPush DeliveryMode = "push"
)

// Config is the explicit value object handed to the queue and executor
// constructors. It is loaded from the environment exactly once, at
// process bootstrap; no component reads ambient state on its own.
type Config struct {
	DeliveryMode DeliveryMode  `env:"JOB_DELIVERY_MODE,default=table"`
	PollInterval time.Duration `env:"JOB_POLL_INTERVAL,default=2s"`
	MaxAttempts  int           `env:"JOB_MAX_ATTEMPTS,default=5"`

	// LockTTL > 0 enables the stuck-lock reaper: rows locked longer
	// than this are released for re-claiming. Zero disables it.
	LockTTL time.Duration `env:"JOB_LOCK_TTL,default=0"`

	DispatcherURL     string        `env:"JOB_DISPATCHER_URL"`
	DispatcherToken   string        `env:"JOB_DISPATCHER_TOKEN"`
	DispatcherTimeout time.Duration `env:"JOB_DISPATCHER_TIMEOUT,default=10s"`
}

func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []string

	switch c.DeliveryMode {
	case DeliveryTable, DeliveryPush:
	default:
		errs = append(errs, fmt.Sprintf("JOB_DELIVERY_MODE must be %q or %q", DeliveryTable, DeliveryPush))
	}

	if c.PollInterval <= 0 {
		errs = append(errs, "JOB_POLL_INTERVAL must be positive")
	}

	if c.MaxAttempts < 1 {
		errs = append(errs, "JOB_MAX_ATTEMPTS must be at least 1")
	}

	if c.LockTTL < 0 {
		errs = append(errs, "JOB_LOCK_TTL must not be negative")
	}

	if c.DeliveryMode == DeliveryPush && strings.TrimSpace(c.DispatcherURL) == "" {
		errs = append(errs, "JOB_DISPATCHER_URL is required in push mode")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}
