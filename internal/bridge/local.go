package bridge

import (
	"context"
	"encoding/json"
	"fmt"
)

// Invoker is the client's view of the backend.
type Invoker interface {
	// Invoke runs command with args (any JSON-marshallable value, or nil) and
	// decodes the result into out when out is non-nil.
	Invoke(ctx context.Context, command string, args any, out any) error
}

// Local dispatches commands to a Router in the same process.
type Local struct {
	router *Router
}

func NewLocal(router *Router) *Local {
	return &Local{router: router}
}

func (l *Local) Invoke(ctx context.Context, command string, args any, out any) error {
	raw, err := encodeArgs(args)
	if err != nil {
		return &CommandError{Command: command, Message: err.Error(), Err: err}
	}

	result, err := l.router.Dispatch(ctx, command, raw)
	if err != nil {
		return err
	}
	return decodeResult(command, result, out)
}

func encodeArgs(args any) (json.RawMessage, error) {
	if args == nil {
		return nil, nil
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encode arguments: %w", err)
	}
	return raw, nil
}

func decodeResult(command string, raw json.RawMessage, out any) error {
	if out == nil || len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &CommandError{Command: command, Message: fmt.Sprintf("decode result: %v", err), Err: err}
	}
	return nil
}
