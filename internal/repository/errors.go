// Package repository is the ledger server's storage: gorm repositories over
// Postgres in production and SQLite in tests.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrItemNotFound        = errors.New("item not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrCustomerInUse       = errors.New("customer has transactions")
	ErrMaxRetriesExceeded  = errors.New("max retries exceeded")
)

func isPermanent(err error) bool {
	return errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrItemNotFound) ||
		errors.Is(err, ErrTransactionNotFound) ||
		errors.Is(err, ErrCustomerInUse) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// withRetry retries transient failures (serialization conflicts, lock
// timeouts) with exponential backoff: 2ms, 4ms, 8ms.
func withRetry(ctx context.Context, fn func() error) error {
	const maxRetries = 3
	const baseDelay = 2 * time.Millisecond

	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = fn()
		if err == nil || isPermanent(err) {
			return err
		}

		if attempt < maxRetries {
			delay := baseDelay * time.Duration(1<<attempt)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return fmt.Errorf("%w: failed after %d attempts: %w", ErrMaxRetriesExceeded, maxRetries+1, err)
}
