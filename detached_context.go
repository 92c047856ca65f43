package swrcache

import (
	"context"
	"time"
)

// detachedContext keeps values of the parent context, but drops its
// deadline and cancellation. Background refreshes run with a detached
// context so that caller cancellation does not abort them.
type detachedContext struct {
	ctx context.Context
}

func (dctx detachedContext) Deadline() (deadline time.Time, ok bool) {
	return time.Time{}, false
}

func (dctx detachedContext) Done() <-chan struct{} {
	return nil
}

func (dctx detachedContext) Err() error {
	return nil
}

func (dctx detachedContext) Value(key interface{}) interface{} {
	return dctx.ctx.Value(key)
}
