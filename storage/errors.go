package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrUnavailable marks failures to reach the backing store. Callers fail
// the triggering event only; there is no local retry policy.
var ErrUnavailable = errors.New("storage unavailable")

// queryTimeout bounds every single-entity operation.
const queryTimeout = 3 * time.Second

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, queryTimeout)
}

// wrapErr tags a driver failure with ErrUnavailable while keeping the
// original error in the chain for logs.
func wrapErr(op string, err error) error {
	return fmt.Errorf("storage: %s: %w", op, errors.Join(ErrUnavailable, err))
}
