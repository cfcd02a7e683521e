// Package grpc exposes the voice store over gRPC, together with the
// standard health service the clients ping.
package grpc

import (
	"context"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dmitrijs2005/voicesync/internal/api"
	"github.com/dmitrijs2005/voicesync/internal/logging"
	"github.com/dmitrijs2005/voicesync/internal/voices"
)

// VoiceService is the business layer the handlers call.
type VoiceService interface {
	Fetch(ctx context.Context, userID string) ([]voices.RemoteRecord, error)
	UpsertBatch(ctx context.Context, userID string, rows []voices.RemoteRecord) (int, error)
}

type GRPCServer struct {
	address   string
	voices    VoiceService
	logger    logging.Logger
	jwtSecret []byte
	health    *health.Server
}

func NewGRPCServer(a string, l logging.Logger, vs VoiceService, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		voices:    vs,
		jwtSecret: []byte(secretKey),
		health:    health.NewServer(),
	}
}

// newServer builds the gRPC server with every service registered.
func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))
	api.RegisterVoiceStoreServer(srv, s)
	healthpb.RegisterHealthServer(srv, s.health)
	return srv
}

// Run serves on the configured address until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve serves on lis until ctx is cancelled, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()
	s.health.SetServingStatus(api.ServiceName, healthpb.HealthCheckResponse_SERVING)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	return srv.Serve(lis)
}
