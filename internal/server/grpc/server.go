// Package grpc serves the SafeCircle API over gRPC: transport setup, the
// auth, timeout and metrics interceptors, request handlers and the mapping
// of domain errors to status codes.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/safecircle/internal/api"
	"github.com/dmitrijs2005/safecircle/internal/logging"
	"github.com/dmitrijs2005/safecircle/internal/server/observability"
	"google.golang.org/grpc"
)

type GRPCServer struct {
	address string
	svc     Services
	opts    Options
	metrics *observability.Metrics
	logger  logging.Logger
}

var _ api.SafeCircleServer = (*GRPCServer)(nil)

func NewGRPCServer(address string, l logging.Logger, svc Services, m *observability.Metrics, opts Options) *GRPCServer {
	return &GRPCServer{
		address: address,
		svc:     svc,
		opts:    opts,
		metrics: m,
		logger:  l.With("module", "grpc_server"),
	}
}

// newServer creates the grpc.Server with the interceptor chain and the
// service registered. Interceptors run outermost first.
func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		s.metricsInterceptor,
		s.timeoutInterceptor,
		s.accessTokenInterceptor,
	))
	api.RegisterSafeCircleServer(srv, s)
	return srv
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
