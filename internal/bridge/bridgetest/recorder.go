// Package bridgetest provides an in-process backend double for client tests.
package bridgetest

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/taurisky/taurisky/internal/bridge"
)

// Call is one recorded command invocation.
type Call struct {
	Command string
	Args    json.RawMessage
}

// Recorder is a bridge.Router that remembers every dispatched command.
// Commands without a handler fail with bridge.ErrUnknownCommand, like the
// real router.
type Recorder struct {
	router *bridge.Router

	mu    sync.Mutex
	calls []Call
}

func New() *Recorder {
	return &Recorder{router: bridge.NewRouter()}
}

// Handle registers h for command, recording each call before running it.
func (r *Recorder) Handle(command string, h bridge.HandlerFunc) {
	r.router.Handle(command, func(ctx context.Context, args json.RawMessage) (any, error) {
		r.mu.Lock()
		r.calls = append(r.calls, Call{Command: command, Args: append(json.RawMessage(nil), args...)})
		r.mu.Unlock()
		return h(ctx, args)
	})
}

// Result registers a handler that always returns v.
func (r *Recorder) Result(command string, v any) {
	r.Handle(command, func(context.Context, json.RawMessage) (any, error) { return v, nil })
}

// Fail registers a handler that always returns err.
func (r *Recorder) Fail(command string, err error) {
	r.Handle(command, func(context.Context, json.RawMessage) (any, error) { return nil, err })
}

// Invoker returns the client-side view of the recorder.
func (r *Recorder) Invoker() bridge.Invoker {
	return bridge.NewLocal(r.router)
}

// Calls returns the recorded commands in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Count returns how many times command was dispatched.
func (r *Recorder) Count(command string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.Command == command {
			n++
		}
	}
	return n
}

// Last decodes the arguments of the latest call to command into v and
// reports whether there was one.
func (r *Recorder) Last(command string, v any) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.calls) - 1; i >= 0; i-- {
		if r.calls[i].Command == command {
			if v != nil && len(r.calls[i].Args) > 0 {
				_ = json.Unmarshal(r.calls[i].Args, v)
			}
			return true
		}
	}
	return false
}
