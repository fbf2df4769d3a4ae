package bridge

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTimeout(t *testing.T) {
	r := NewRouter()
	r.Handle("slow", func(ctx context.Context, _ json.RawMessage) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	r.Handle("deadline", func(ctx context.Context, _ json.RawMessage) (any, error) {
		_, ok := ctx.Deadline()
		return ok, nil
	})

	local := NewLocal(r)
	assert.Same(t, Invoker(local), WithTimeout(local, 0))

	inv := WithTimeout(local, 20*time.Millisecond)

	err := inv.Invoke(context.Background(), "slow", nil, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	var hasDeadline bool
	require.NoError(t, inv.Invoke(context.Background(), "deadline", nil, &hasDeadline))
	assert.True(t, hasDeadline)
}
