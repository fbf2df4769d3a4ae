package grpc

import (
	"context"
	"fmt"
	"time"

	"github.com/taurisky/taurisky/internal/bridge"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// loggingInterceptor logs every bridge command with its outcome and latency.
// Arguments are never logged: login carries the password.
func (s *GRPCServer) loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	command := bridge.CommandOf(req)

	resp, err := handler(ctx, req)

	elapsed := time.Since(start)
	if err != nil {
		s.logger.Warn(ctx, "command failed",
			"method", info.FullMethod, "command", command, "code", status.Code(err).String(), "error", status.Convert(err).Message(), "elapsed", elapsed)
		return resp, err
	}

	s.logger.Debug(ctx, "command served", "method", info.FullMethod, "command", command, "elapsed", elapsed)
	return resp, nil
}

// recoveryInterceptor turns a handler panic into an Internal status.
func (s *GRPCServer) recoveryInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
	defer func() {
		if p := recover(); p != nil {
			s.logger.Error(ctx, "panic in handler", "command", bridge.CommandOf(req), "panic", fmt.Sprint(p))
			err = status.Error(codes.Internal, "internal error")
		}
	}()
	return handler(ctx, req)
}
