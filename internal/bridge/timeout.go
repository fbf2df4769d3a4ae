package bridge

import (
	"context"
	"time"
)

type timeoutInvoker struct {
	inner   Invoker
	timeout time.Duration
}

// WithTimeout bounds every call made through inner. A non-positive timeout
// returns inner unchanged.
func WithTimeout(inner Invoker, timeout time.Duration) Invoker {
	if timeout <= 0 {
		return inner
	}
	return &timeoutInvoker{inner: inner, timeout: timeout}
}

func (t *timeoutInvoker) Invoke(ctx context.Context, command string, args any, out any) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Invoke(ctx, command, args, out)
}
