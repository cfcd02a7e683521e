package services

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/dmitrijs2005/voicesync/internal/logging"
	"github.com/dmitrijs2005/voicesync/internal/reconcile"
	"github.com/dmitrijs2005/voicesync/internal/voices"
)

const offlineMessage = "offline, will retry later"

// OnlineChecker reports the device's connectivity.
type OnlineChecker interface {
	IsOnline() bool
}

// RemoteStore is the subset of client.Client a sync round needs.
type RemoteStore interface {
	FetchVoices(ctx context.Context, userID string) ([]voices.RemoteRecord, error)
	UpsertVoices(ctx context.Context, records []voices.RemoteRecord) error
}

// LocalStore commits a synced set together with the sync instant. base is
// the local set the round started from, so that changes made in the
// meantime survive the commit. It returns what was stored.
type LocalStore interface {
	CommitSync(ctx context.Context, base, merged []voices.Record, at time.Time) ([]voices.Record, error)
}

// SyncResult describes the outcome of one round. Records is always usable:
// the committed set on success, the caller's input otherwise (except after
// ErrLocalWrite, where the remote already holds the merged set and Records
// carries it). The committed set also holds opens recorded while the round
// was in flight.
type SyncResult struct {
	OK       bool
	Records  []voices.Record
	Upserted int
	Err      error
	Message  string
}

type SyncService struct {
	online OnlineChecker
	remote RemoteStore
	local  LocalStore
	logger logging.Logger
	now    func() time.Time

	// flights is nil unless WithSingleFlight was given.
	flights *singleflight.Group
}

type SyncOption func(*SyncService)

// WithSingleFlight collapses overlapping rounds for the same owner into
// one. Callers that join an in-flight round receive a copy of its result,
// which was computed from the local set passed by the first caller.
func WithSingleFlight() SyncOption {
	return func(s *SyncService) { s.flights = &singleflight.Group{} }
}

// WithClock overrides the source of the last-sync instant.
func WithClock(now func() time.Time) SyncOption {
	return func(s *SyncService) { s.now = now }
}

func NewSyncService(online OnlineChecker, remote RemoteStore, local LocalStore, logger logging.Logger, opts ...SyncOption) *SyncService {
	s := &SyncService{
		online: online,
		remote: remote,
		local:  local,
		logger: logger.With("module", "sync"),
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Sync reconciles local with the remote rows of ownerID.
func (s *SyncService) Sync(ctx context.Context, local []voices.Record, ownerID string) SyncResult {
	if s.flights == nil {
		return s.sync(ctx, local, ownerID)
	}

	v, _, shared := s.flights.Do(ownerID, func() (any, error) {
		return s.sync(ctx, local, ownerID), nil
	})
	res := v.(SyncResult)
	if shared {
		s.logger.Debug(ctx, "joined in-flight sync", "owner", ownerID)
		res.Records = slices.Clone(res.Records)
	}
	return res
}

func (s *SyncService) sync(ctx context.Context, local []voices.Record, ownerID string) SyncResult {
	log := s.logger.With("sync_id", uuid.NewString(), "owner", ownerID)

	if !s.online.IsOnline() {
		log.Info(ctx, "skipping sync while offline")
		return SyncResult{Records: local, Err: ErrOffline, Message: offlineMessage}
	}

	remote, err := s.remote.FetchVoices(ctx, ownerID)
	if err != nil {
		log.Warn(ctx, "failed to fetch remote voices", "error", err)
		return failed(local, fmt.Errorf("%w: %w", ErrRemoteRead, err))
	}

	res := reconcile.Merge(local, remote)
	for i := range res.Upserts {
		if res.Upserts[i].UserID == "" {
			res.Upserts[i].UserID = ownerID
		}
	}

	if len(res.Upserts) > 0 {
		if err := s.remote.UpsertVoices(ctx, res.Upserts); err != nil {
			log.Warn(ctx, "failed to write back voices", "count", len(res.Upserts), "error", err)
			return failed(local, fmt.Errorf("%w: %w", ErrRemoteWrite, err))
		}
	}

	for i := range res.Merged {
		res.Merged[i].Synced = true
	}

	committed, err := s.local.CommitSync(ctx, local, res.Merged, s.now())
	if err != nil {
		log.Error(ctx, "remote is up to date but local commit failed", "error", err)
		r := failed(res.Merged, fmt.Errorf("%w: %w", ErrLocalWrite, err))
		r.Upserted = len(res.Upserts)
		return r
	}

	log.Info(ctx, "sync finished",
		"local", len(local),
		"remote", len(remote),
		"merged", len(res.Merged),
		"committed", len(committed),
		"upserted", len(res.Upserts),
	)

	return SyncResult{
		OK:       true,
		Records:  committed,
		Upserted: len(res.Upserts),
		Message:  fmt.Sprintf("synced %d voices", len(res.Merged)),
	}
}

func failed(records []voices.Record, err error) SyncResult {
	return SyncResult{Records: records, Err: err, Message: err.Error()}
}
