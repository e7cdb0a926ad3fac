package retry

import (
	"context"
	"math/rand/v2"
	"time"
)

// Config configures retry behavior.
type Config struct {
	// MaxAttempts is the maximum number of attempts (including initial).
	// Values below 1 mean one attempt.
	MaxAttempts int

	// InitialBackoff is the starting backoff duration.
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration. Zero means no cap.
	MaxBackoff time.Duration

	// BackoffFactor is the multiplier applied to backoff after each attempt.
	BackoffFactor float64

	// Jitter is the random jitter factor (0.0-1.0).
	Jitter float64

	// Retryable optionally overrides IsRetryable.
	Retryable func(error) bool
}

// Default is the standard retry configuration for actions.
var Default = Config{
	MaxAttempts:    3,
	InitialBackoff: 200 * time.Millisecond,
	MaxBackoff:     5 * time.Second,
	BackoffFactor:  2.0,
	Jitter:         0.1,
}

// None disables retries.
var None = Config{
	MaxAttempts: 1,
}

// Result describes a retried call.
type Result struct {
	// Err is the last error, or nil if an attempt succeeded.
	Err error

	// Attempts is the number of attempts made.
	Attempts int

	// Duration is the total time spent, backoff included.
	Duration time.Duration
}

// Do calls fn until it succeeds, returns a non-retryable error, runs out
// of attempts, or ctx ends. Result.Err is fn's last error unchanged, or
// ctx's error when ctx ended during backoff.
func Do(ctx context.Context, cfg Config, fn func(context.Context) error) Result {
	start := time.Now()
	backoff := cfg.InitialBackoff

	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	isRetryable := cfg.Retryable
	if isRetryable == nil {
		isRetryable = IsRetryable
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil || !isRetryable(lastErr) || attempt == attempts {
			return Result{Err: lastErr, Attempts: attempt, Duration: time.Since(start)}
		}

		timer := time.NewTimer(withJitter(backoff, cfg.Jitter))
		select {
		case <-ctx.Done():
			timer.Stop()
			return Result{Err: ctx.Err(), Attempts: attempt, Duration: time.Since(start)}
		case <-timer.C:
		}

		if cfg.BackoffFactor > 0 {
			backoff = time.Duration(float64(backoff) * cfg.BackoffFactor)
		}
		if cfg.MaxBackoff > 0 && backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}

	return Result{Err: lastErr, Attempts: attempts, Duration: time.Since(start)}
}

// withJitter returns the backoff duration with jitter applied.
func withJitter(base time.Duration, jitter float64) time.Duration {
	if jitter <= 0 {
		return base
	}

	// base +/- (base * jitter * random)
	jitterAmount := float64(base) * jitter * (rand.Float64()*2 - 1)
	return time.Duration(float64(base) + jitterAmount)
}

// Option configures retry behavior.
type Option func(*Config)

// WithMaxAttempts sets the maximum number of attempts.
func WithMaxAttempts(n int) Option {
	return func(cfg *Config) {
		cfg.MaxAttempts = n
	}
}

// WithInitialBackoff sets the initial backoff duration.
func WithInitialBackoff(d time.Duration) Option {
	return func(cfg *Config) {
		cfg.InitialBackoff = d
	}
}

// WithMaxBackoff sets the maximum backoff duration.
func WithMaxBackoff(d time.Duration) Option {
	return func(cfg *Config) {
		cfg.MaxBackoff = d
	}
}

// WithBackoffFactor sets the backoff multiplier.
func WithBackoffFactor(f float64) Option {
	return func(cfg *Config) {
		cfg.BackoffFactor = f
	}
}

// WithJitter sets the jitter factor.
func WithJitter(j float64) Option {
	return func(cfg *Config) {
		cfg.Jitter = j
	}
}

// WithRetryable sets a custom retryability check.
func WithRetryable(fn func(error) bool) Option {
	return func(cfg *Config) {
		cfg.Retryable = fn
	}
}

// NewConfig creates a retry configuration from Default and opts.
func NewConfig(opts ...Option) Config {
	cfg := Default
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
