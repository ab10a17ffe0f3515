// Package retry provides bounded exponential backoff with jitter.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// Policy is a scheduler-agnostic retry policy expressed as pure configuration.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first one.
	MaxAttempts int
	// InitialBackoff is the delay before the first retry.
	InitialBackoff time.Duration
	// MaxBackoff caps the delay between retries.
	MaxBackoff time.Duration
	// Multiplier is the exponential backoff multiplier.
	Multiplier float64
	// JitterFraction is the fraction of the backoff used for jitter (0.0-1.0).
	JitterFraction float64
}

// DefaultPolicy returns sensible defaults.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.2,
	}
}

// Classifier reports whether an error is worth retrying.
type Classifier func(error) bool

// Always is the fallback classifier: retry everything except context errors.
func Always(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// ErrExhausted wraps the last error once all attempts are spent.
var ErrExhausted = errors.New("retry attempts exhausted")

// Do executes fn under the policy, consulting the classifier after each
// failure. A nil classifier defaults to Always. The last error is wrapped
// in ErrExhausted when all attempts are spent.
func Do(ctx context.Context, p Policy, classify Classifier, fn func(context.Context) error) error {
	if classify == nil {
		classify = Always
	}
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	var lastErr error
	backoff := p.InitialBackoff

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if !classify(err) {
			return err
		}
		if attempt == p.MaxAttempts {
			break
		}

		sleep := backoff + jitter(backoff, p.JitterFraction)
		if p.MaxBackoff > 0 && sleep > p.MaxBackoff {
			sleep = p.MaxBackoff
		}

		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			return ctx.Err()
		}

		backoff = time.Duration(float64(backoff) * p.Multiplier)
		if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
			backoff = p.MaxBackoff
		}
	}

	return fmt.Errorf("%w: %w", ErrExhausted, lastErr)
}

// jitter returns a random duration in [-fraction*d, +fraction*d].
func jitter(d time.Duration, fraction float64) time.Duration {
	if fraction <= 0 {
		return 0
	}
	span := float64(d) * fraction
	return time.Duration((rand.Float64() - 0.5) * 2 * span)
}
