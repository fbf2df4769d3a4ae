package bridgetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurisky/taurisky/internal/bridge"
)

func TestRecorder(t *testing.T) {
	r := New()
	r.Result("echo", map[string]string{"ok": "yes"})
	r.Fail("boom", errors.New("exploded"))

	inv := r.Invoker()
	ctx := context.Background()

	var out map[string]string
	require.NoError(t, inv.Invoke(ctx, "echo", bridge.AccountArgs{AccountID: "a1"}, &out))
	assert.Equal(t, "yes", out["ok"])

	err := inv.Invoke(ctx, "boom", nil, nil)
	require.Error(t, err)
	assert.Equal(t, "exploded", err.Error())

	err = inv.Invoke(ctx, "missing", nil, nil)
	assert.ErrorIs(t, err, bridge.ErrUnknownCommand)

	assert.Equal(t, 1, r.Count("echo"))
	assert.Len(t, r.Calls(), 2)

	var args bridge.AccountArgs
	require.True(t, r.Last("echo", &args))
	assert.Equal(t, "a1", args.AccountID)
	assert.False(t, r.Last("missing", nil))
}
