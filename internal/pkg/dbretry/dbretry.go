package dbretry

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"
)

// IsTransient reports whether a storage error is contention that is worth
// retrying: sqlite lock/busy states and postgres serialization or deadlock
// failures. Validation and not-found conditions are never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "database table is locked"),
		strings.Contains(msg, "sqlite_busy"),
		strings.Contains(msg, "deadlock detected"),
		strings.Contains(msg, "could not serialize access"),
		strings.Contains(msg, "connection reset"):
		return true
	}
	return false
}

func jitter(base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	delta := base.Seconds() * 0.2
	low := base.Seconds() - delta
	v := low + rand.Float64()*(2*delta)
	return time.Duration(v * float64(time.Second))
}

// Do runs fn up to attempts times, sleeping a jittered, doubling backoff
// between tries, but only while the failure is transient. The last error is
// returned once attempts are exhausted or the error is permanent.
func Do(ctx context.Context, attempts int, base time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	delay := base
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if !IsTransient(err) || i == attempts-1 {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(jitter(delay)):
		}
		delay *= 2
	}
	return err
}
