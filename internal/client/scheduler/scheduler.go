// Package scheduler drives background work on the client: the online
// watcher and the periodic sync loop run side by side under one errgroup
// and stop together when the context ends.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/voicesync/internal/client/services"
	"github.com/dmitrijs2005/voicesync/internal/logging"
	"github.com/dmitrijs2005/voicesync/internal/voices"
)

type Watcher interface {
	Watch(ctx context.Context, interval time.Duration)
}

type Syncer interface {
	Sync(ctx context.Context, local []voices.Record, ownerID string) services.SyncResult
}

type LocalLoader interface {
	Load(ctx context.Context) ([]voices.Record, error)
}

// OwnerFunc resolves the owner whose voices are synced.
type OwnerFunc func() (string, error)

type Options struct {
	OnlineCheckInterval time.Duration
	// SyncInterval of zero disables periodic syncs; TriggerNow still works.
	SyncInterval time.Duration
	// OnResult, if set, receives the outcome of every round.
	OnResult func(services.SyncResult)
}

type Scheduler struct {
	watcher Watcher
	syncer  Syncer
	local   LocalLoader
	owner   OwnerFunc
	opts    Options
	logger  logging.Logger

	trigger chan struct{}
}

func New(w Watcher, s Syncer, local LocalLoader, owner OwnerFunc, opts Options, logger logging.Logger) *Scheduler {
	return &Scheduler{
		watcher: w,
		syncer:  s,
		local:   local,
		owner:   owner,
		opts:    opts,
		logger:  logger.With("module", "scheduler"),
		trigger: make(chan struct{}, 1),
	}
}

// TriggerNow asks the sync loop for an immediate round. Requests made
// while one is already pending are merged.
func (s *Scheduler) TriggerNow() {
	select {
	case s.trigger <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.watcher.Watch(gctx, s.opts.OnlineCheckInterval)
		return nil
	})
	g.Go(func() error {
		s.syncLoop(gctx)
		return nil
	})

	return g.Wait()
}

func (s *Scheduler) syncLoop(ctx context.Context) {
	var tick <-chan time.Time
	if s.opts.SyncInterval > 0 {
		ticker := time.NewTicker(s.opts.SyncInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			s.RunOnce(ctx)
		case <-s.trigger:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single round with the currently stored voices.
func (s *Scheduler) RunOnce(ctx context.Context) services.SyncResult {
	res := s.runOnce(ctx)
	if s.opts.OnResult != nil {
		s.opts.OnResult(res)
	}
	return res
}

func (s *Scheduler) runOnce(ctx context.Context) services.SyncResult {
	owner, err := s.owner()
	if err != nil {
		s.logger.Warn(ctx, "cannot resolve owner, skipping sync", "error", err)
		return services.SyncResult{Err: err, Message: fmt.Sprintf("no owner: %v", err)}
	}

	local, err := s.local.Load(ctx)
	if err != nil {
		s.logger.Error(ctx, "failed to load local voices", "error", err)
		return services.SyncResult{Err: err, Message: err.Error()}
	}

	res := s.syncer.Sync(ctx, local, owner)
	if !res.OK {
		s.logger.Debug(ctx, "sync round failed", "message", res.Message)
	}
	return res
}
