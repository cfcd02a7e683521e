package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/voicesync/internal/api"
	"github.com/dmitrijs2005/voicesync/internal/common"
	"github.com/dmitrijs2005/voicesync/internal/server/services"
	"github.com/dmitrijs2005/voicesync/internal/voices"
)

// owner resolves the authenticated owner and checks it against the one the
// request names, if any.
func owner(ctx context.Context, requested string) (string, error) {
	userID, ok := userIDFromContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "unauthenticated")
	}
	if requested != "" && requested != userID {
		return "", status.Error(codes.PermissionDenied, common.ErrOwnerMismatch.Error())
	}
	return userID, nil
}

func (s *GRPCServer) FetchVoices(ctx context.Context, req *api.FetchVoicesRequest) (*api.FetchVoicesResponse, error) {
	userID, err := owner(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	rows, err := s.voices.Fetch(ctx, userID)
	if err != nil {
		s.logger.Error(ctx, "fetch failed", "user_id", userID, "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}

	resp := &api.FetchVoicesResponse{UserID: userID, Voices: make([]api.VoiceRow, 0, len(rows))}
	for _, r := range rows {
		resp.Voices = append(resp.Voices, api.RowFromRemote(r))
	}
	return resp, nil
}

func (s *GRPCServer) UpsertVoices(ctx context.Context, req *api.UpsertVoicesRequest) (*api.UpsertVoicesResponse, error) {
	userID, err := owner(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	rows := make([]voices.RemoteRecord, 0, len(req.Voices))
	for _, v := range req.Voices {
		rows = append(rows, v.Remote(userID))
	}

	n, err := s.voices.UpsertBatch(ctx, userID, rows)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidRecord):
			return nil, status.Error(codes.InvalidArgument, err.Error())
		case errors.Is(err, common.ErrOwnerMismatch):
			return nil, status.Error(codes.PermissionDenied, err.Error())
		}
		s.logger.Error(ctx, "upsert failed", "user_id", userID, "count", len(rows), "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}

	s.logger.Info(ctx, "voices upserted", "user_id", userID, "count", n)
	return &api.UpsertVoicesResponse{Upserted: n}, nil
}
