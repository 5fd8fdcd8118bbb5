package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"syscall"
	"time"

	"github.com/matzehuels/partscout/pkg/observability"
)

// Default retry settings used by [DefaultPolicy].
const (
	DefaultAttempts  = 3
	DefaultBaseDelay = time.Second
	DefaultMaxDelay  = 30 * time.Second
	DefaultJitter    = 0.2
)

// RetryableError wraps an error to indicate it should trigger a retry.
// Wrap transient failures (5xx responses, 408, 429) with this type
// so that [Policy.Do] knows to attempt the operation again.
type RetryableError struct{ Err error }

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err as a [RetryableError]. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// ExhaustedError is returned by [Policy.Do] when every attempt failed with a
// transient error. It unwraps to the last failure.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("giving up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Policy bounds how often a single idempotent remote call is attempted.
//
// A Policy is a plain value with no state shared between calls, so one
// Policy can be used by any number of goroutines at once.
type Policy struct {
	// Attempts is the total number of attempts, including the first one.
	// Values below 1 are treated as 1.
	Attempts int
	// BaseDelay is the wait before the second attempt. It doubles for every
	// further attempt.
	BaseDelay time.Duration
	// MaxDelay caps the wait between two attempts. Zero means no cap.
	MaxDelay time.Duration
	// Jitter scales each wait by a random factor in [1-Jitter, 1+Jitter].
	Jitter float64
}

// DefaultPolicy returns 3 attempts with 1s initial delay doubling up to 30s,
// each wait jittered by ±20%.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:  DefaultAttempts,
		BaseDelay: DefaultBaseDelay,
		MaxDelay:  DefaultMaxDelay,
		Jitter:    DefaultJitter,
	}
}

// Do runs fn until it succeeds, fails with a non-transient error, or the
// attempt budget is spent. attempt counts from 1. There is no delay before
// the first attempt.
//
// Non-transient errors are returned unchanged. When the budget runs out the
// last error is returned inside an [*ExhaustedError]. If ctx is cancelled
// while waiting, ctx.Err() is returned.
func (p Policy) Do(ctx context.Context, fn func(attempt int) error) error {
	attempts := max(p.Attempts, 1)
	var lastErr error

	for i := 1; i <= attempts; i++ {
		if i > 1 {
			observability.HTTP().OnRetry(ctx, i, lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.Delay(i - 1)):
			}
		}

		err := fn(i)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !IsTransient(err) {
			return err
		}
		lastErr = err
	}
	return &ExhaustedError{Attempts: attempts, Err: lastErr}
}

// Delay returns the wait after the given failed attempt (1-based).
func (p Policy) Delay(failed int) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	d := p.BaseDelay
	for i := 1; i < failed; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			d = p.MaxDelay
			break
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	if p.Jitter > 0 {
		factor := 1 + p.Jitter*(2*rand.Float64()-1)
		d = time.Duration(float64(d) * factor)
	}
	return d
}

// IsTransient reports whether err is worth another attempt: errors marked
// with [RetryableError], network timeouts, refused or reset connections and
// connections closed mid-response.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.As(err, new(*RetryableError)) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, context.DeadlineExceeded)
}
