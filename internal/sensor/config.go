package sensor

import (
	"time"

	"codeberg.org/mutker/homemon/internal/errors"
)

const (
	defaultConnectTimeout = 20 * time.Second
	defaultQuietPeriod    = 500 * time.Millisecond
)

// defaultAttemptDelays is the retry backoff table: no delay before the
// first attempt, 5s before the second, 10s before the third.
var defaultAttemptDelays = []time.Duration{0, 5 * time.Second, 10 * time.Second}

type Config struct {
	// ConnectTimeout bounds a single connection attempt.
	ConnectTimeout time.Duration
	// QuietPeriod is waited after acquiring the gate, before
	// connecting, to let the radio settle from the previous
	// transaction.
	QuietPeriod time.Duration
	// AttemptDelays holds one entry per attempt: the delay waited
	// before that attempt runs. The first entry must be zero.
	AttemptDelays []time.Duration
}

func DefaultConfig() Config {
	return Config{
		ConnectTimeout: defaultConnectTimeout,
		QuietPeriod:    defaultQuietPeriod,
		AttemptDelays:  defaultAttemptDelays,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if c.ConnectTimeout <= 0 {
		return errFactory.WithMessage(ErrInvalidConfig, "connect timeout must be positive")
	}
	if c.QuietPeriod < 0 {
		return errFactory.WithMessage(ErrInvalidConfig, "quiet period must not be negative")
	}
	if len(c.AttemptDelays) == 0 {
		return errFactory.WithMessage(ErrInvalidConfig, "at least one attempt is required")
	}
	if c.AttemptDelays[0] != 0 {
		return errFactory.WithMessage(ErrInvalidConfig, "first attempt must not be delayed")
	}

	return nil
}
