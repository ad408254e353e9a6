package tx

import (
	"context"
	"sync"
)

// MemoryRunner serializes writers with a coarse lock. With in-memory stores
// there is no rollback, so mutual exclusion plus validate-before-mutate
// ordering in the services provides the same observable all-or-nothing
// discipline as the SQL runner.
type MemoryRunner struct {
	mu sync.Mutex
}

func (r *MemoryRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}
