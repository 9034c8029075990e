package util

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	maxLockRetries = 3
	baseLockDelay  = 100 * time.Millisecond
)

// IsLockError reports whether err is SQLite write contention
func IsLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "database table is locked")
}

// RetryOnLock retries the given function if it fails with a database lock error
func RetryOnLock(ctx context.Context, operation func() error) error {
	_, err := RetryOnLockWithResult(ctx, func() (struct{}, error) {
		return struct{}{}, operation()
	})
	return err
}

// RetryOnLockWithResult retries the given function if it fails with a database lock error
// and returns the result along with any error
func RetryOnLockWithResult[T any](ctx context.Context, operation func() (T, error)) (T, error) {
	var result T
	var err error

	for i := 0; i < maxLockRetries; i++ {
		result, err = operation()
		if !IsLockError(err) || i == maxLockRetries-1 {
			return result, err
		}

		// Exponential backoff: 100ms, 200ms, 400ms
		delay := baseLockDelay * time.Duration(1<<i)
		logrus.WithField("attempt", i+1).Warnf("Database locked, retrying in %v...", delay)

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(delay):
		}
	}

	return result, err
}
