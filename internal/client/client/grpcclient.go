package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/voicesync/internal/api"
	"github.com/dmitrijs2005/voicesync/internal/common"
	"github.com/dmitrijs2005/voicesync/internal/voices"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// GRPCClient is the Client implementation backed by the voicesync server.
type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	voices      api.VoiceStoreClient
	health      healthpb.HealthClient

	mu          sync.RWMutex
	accessToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)
	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if token := s.token(); token != "" {
		ctx = withAccessToken(ctx, token)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewGRPCClient creates a client for endpointURL. The connection is
// established lazily on the first call.
func NewGRPCClient(endpointURL, accessToken string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, accessToken: accessToken}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("grpc client: %w", err)
	}

	c.conn = conn
	c.voices = api.NewVoiceStoreClient(conn)
	c.health = healthpb.NewHealthClient(conn)
	return c, nil
}

func (s *GRPCClient) token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// SetAccessToken replaces the token sent with subsequent calls.
func (s *GRPCClient) SetAccessToken(token string) {
	s.mu.Lock()
	s.accessToken = token
	s.mu.Unlock()
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

// Ping asks the server's health service about the VoiceStore service.
func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := s.health.Check(ctx, &healthpb.HealthCheckRequest{Service: api.ServiceName})
	if err != nil {
		return s.mapError(err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) FetchVoices(ctx context.Context, userID string) ([]voices.RemoteRecord, error) {
	resp, err := s.voices.FetchVoices(ctx, &api.FetchVoicesRequest{UserID: userID})
	if err != nil {
		return nil, s.mapError(err)
	}

	out := make([]voices.RemoteRecord, 0, len(resp.Voices))
	for _, row := range resp.Voices {
		out = append(out, row.Remote(userID))
	}
	return out, nil
}

func (s *GRPCClient) UpsertVoices(ctx context.Context, records []voices.RemoteRecord) error {
	if len(records) == 0 {
		return nil
	}

	owner, err := BatchOwner(records)
	if err != nil {
		return err
	}

	req := &api.UpsertVoicesRequest{UserID: owner, Voices: make([]api.VoiceRow, 0, len(records))}
	for _, r := range records {
		req.Voices = append(req.Voices, api.RowFromRemote(r))
	}

	if _, err := s.voices.UpsertVoices(ctx, req); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
