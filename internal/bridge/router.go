package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// HandlerFunc serves one command. args is the raw JSON payload and may be
// empty; the result is marshalled to JSON (nil means no result).
type HandlerFunc func(ctx context.Context, args json.RawMessage) (any, error)

// Router maps command names to handlers.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

func NewRouter() *Router {
	return &Router{handlers: make(map[string]HandlerFunc)}
}

// Handle registers h under command, replacing any previous handler.
func (r *Router) Handle(command string, h HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[command] = h
}

// Commands lists registered command names in sorted order.
func (r *Router) Commands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs the handler for command and returns its JSON result. Errors
// are always *CommandError.
func (r *Router) Dispatch(ctx context.Context, command string, args json.RawMessage) (json.RawMessage, error) {
	r.mu.RLock()
	h, ok := r.handlers[command]
	r.mu.RUnlock()
	if !ok {
		return nil, &CommandError{
			Command: command,
			Message: fmt.Sprintf("%s: %s", ErrUnknownCommand, command),
			Err:     ErrUnknownCommand,
		}
	}

	result, err := h(ctx, args)
	if err != nil {
		return nil, &CommandError{Command: command, Message: err.Error(), Err: err}
	}
	if result == nil {
		return nil, nil
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return nil, &CommandError{Command: command, Message: fmt.Sprintf("encode result: %v", err), Err: err}
	}
	return raw, nil
}

// Typed adapts a function with a decoded argument struct to a HandlerFunc.
// Missing or null args decode to the zero value of A.
func Typed[A any, R any](fn func(ctx context.Context, args A) (R, error)) HandlerFunc {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var args A
		if err := decodeArgs(raw, &args); err != nil {
			return nil, err
		}
		return fn(ctx, args)
	}
}

// NoResult adapts a function that only reports success or failure.
func NoResult[A any](fn func(ctx context.Context, args A) error) HandlerFunc {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var args A
		if err := decodeArgs(raw, &args); err != nil {
			return nil, err
		}
		return nil, fn(ctx, args)
	}
}

// NoArgs adapts a function that takes no arguments.
func NoArgs[R any](fn func(ctx context.Context) (R, error)) HandlerFunc {
	return func(ctx context.Context, _ json.RawMessage) (any, error) {
		return fn(ctx)
	}
}

func decodeArgs(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// Action adapts a function that takes no arguments and returns no result.
func Action(fn func(ctx context.Context) error) HandlerFunc {
	return func(ctx context.Context, _ json.RawMessage) (any, error) {
		return nil, fn(ctx)
	}
}
