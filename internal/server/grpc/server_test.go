package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurisky/taurisky/internal/bridge"
	"github.com/taurisky/taurisky/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

func newRouter() *bridge.Router {
	r := bridge.NewRouter()
	r.Handle("ping", func(ctx context.Context, args json.RawMessage) (any, error) {
		return map[string]string{"pong": "ok"}, nil
	})
	r.Handle("fail", func(ctx context.Context, args json.RawMessage) (any, error) {
		return nil, errors.New("backend said no")
	})
	r.Handle("boom", func(ctx context.Context, args json.RawMessage) (any, error) {
		panic("kaboom")
	})
	return r
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:0", nopLogger{}, newRouter())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error on graceful stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	srv := NewGRPCServer("127.0.0.1:99999", nopLogger{}, newRouter())
	if err := srv.Run(context.Background()); err == nil {
		t.Fatal("expected listen error for invalid port")
	}
}

func TestServe_EndToEnd(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewGRPCServer("", nopLogger{}, newRouter()).Serve(ctx, lis) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	inv, err := bridge.Dial(lis.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { _ = inv.Close() })

	callCtx, callCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer callCancel()

	var out map[string]string
	require.NoError(t, inv.Invoke(callCtx, "ping", nil, &out))
	assert.Equal(t, "ok", out["pong"])

	err = inv.Invoke(callCtx, "fail", nil, nil)
	require.Error(t, err)
	assert.Equal(t, "backend said no", err.Error())

	err = inv.Invoke(callCtx, "boom", nil, nil)
	require.Error(t, err)
	assert.Equal(t, "internal error", err.Error())
}

func TestRecoveryInterceptor(t *testing.T) {
	s := NewGRPCServer("", nopLogger{}, newRouter())
	info := &grpc.UnaryServerInfo{FullMethod: "/taurisky.bridge.Bridge/Invoke"}
	req, err := structpb.NewStruct(map[string]any{"command": "boom"})
	require.NoError(t, err)

	_, err = s.recoveryInterceptor(context.Background(), req, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		panic("kaboom")
	})
	assert.Equal(t, codes.Internal, status.Code(err))

	resp, err := s.recoveryInterceptor(context.Background(), req, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
}

type recordingLogger struct {
	nopLogger
	warned []string
}

func (r *recordingLogger) Warn(_ context.Context, msg string, args ...any) {
	r.warned = append(r.warned, msg)
}

func (r *recordingLogger) With(...any) logging.Logger { return r }

func TestLoggingInterceptor_PassesThroughAndLogsFailures(t *testing.T) {
	l := &recordingLogger{}
	s := NewGRPCServer("", l, newRouter())
	info := &grpc.UnaryServerInfo{FullMethod: "/taurisky.bridge.Bridge/Invoke"}

	resp, err := s.loggingInterceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
	assert.Empty(t, l.warned)

	_, err = s.loggingInterceptor(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, status.Error(codes.Unknown, "nope")
	})
	require.Error(t, err)
	assert.Equal(t, []string{"command failed"}, l.warned)
}
