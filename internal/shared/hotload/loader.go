package hotload

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"
)

const (
	// maxInitialRetries bounds the retries after the first load attempt,
	// for 4 attempts in total.
	maxInitialRetries = 3

	defaultBaseDelay = 500 * time.Millisecond
)

// LoadOptions configures the initial load.
type LoadOptions struct {
	// EnvVar names the process environment variable holding the config
	// file path.
	EnvVar string

	// FallbackPath is used when EnvVar is unset. Falling back is reported
	// as a warning, not an error.
	FallbackPath string

	// BaseDelay is the wait before the first retry. Each subsequent failed
	// attempt grows the delay by delay times the attempt number.
	// Defaults to 500ms.
	BaseDelay time.Duration

	Logger *slog.Logger
}

// Load resolves the config path, binds it to cfg and performs the first load
// with bounded retries and growing backoff. A missing file and an exhausted
// retry budget are both fatal: the process must not continue without a valid
// configuration, so the returned error is meant to abort startup.
func Load(ctx context.Context, cfg Loadable, opts LoadOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	path := os.Getenv(opts.EnvVar)
	if path == "" {
		logger.Warn("config path environment variable is not set, using fallback path",
			"env", opts.EnvVar,
			"fallback", opts.FallbackPath,
		)
		path = opts.FallbackPath
	}
	cfg.BindPath(path)

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("hotload: no config file found at %q: %w", path, err)
	}

	delay := opts.BaseDelay
	if delay <= 0 {
		delay = defaultBaseDelay
	}

	for attempt := 0; ; attempt++ {
		err := cfg.Reload()
		if err == nil {
			logger.Info("configuration loaded", "path", path, "attempt", attempt)
			return nil
		}

		logger.Error("configuration load failed", "path", path, "attempt", attempt, "error", err)

		if attempt == maxInitialRetries {
			return fmt.Errorf("hotload: initial load of %q failed after %d attempts: %w", path, attempt+1, err)
		}

		if attempt > 0 {
			delay += delay * time.Duration(attempt)
		}
		logger.Info("retrying configuration load", "attempt", attempt+1, "delay", delay.String())

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("hotload: initial load interrupted: %w", ctx.Err())
		}
	}
}
