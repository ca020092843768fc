package tx

import (
	"context"
	"sync"
	"time"

	dErrors "ghostpost/pkg/domain-errors"
)

// LockingRunner serializes units of work for in-memory stores, which have no
// transactions of their own. Work that fails is not undone; callers run
// compensations themselves.
type LockingRunner struct {
	mu      sync.Mutex
	timeout time.Duration
}

func NewLockingRunner(timeout time.Duration) *LockingRunner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &LockingRunner{timeout: timeout}
}

func (r *LockingRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(ctx)
}
