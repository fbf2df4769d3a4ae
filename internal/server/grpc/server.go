// Package grpc serves the command bridge to out-of-process clients.
package grpc

import (
	"context"
	"net"

	"github.com/taurisky/taurisky/internal/bridge"
	"github.com/taurisky/taurisky/internal/logging"
	"google.golang.org/grpc"
)

type GRPCServer struct {
	address string
	router  *bridge.Router
	logger  logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, router *bridge.Router) *GRPCServer {
	return &GRPCServer{
		address: a,
		logger:  l.With("module", "grpc_server"),
		router:  router,
	}
}

// Run listens on the configured address and serves until ctx is cancelled,
// then stops gracefully.
func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve runs the server on an existing listener.
func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.recoveryInterceptor, s.loggingInterceptor))

	bridge.RegisterServer(srv, s.router)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String(), "commands", len(s.router.Commands()))

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
