package services

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/voicesync/internal/logging"
)

const probeTimeout = 3 * time.Second

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// Pinger is anything that can tell whether the remote store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OnlineStatus is an OnlineChecker fed by periodic pings. It starts
// offline until the first probe succeeds.
type OnlineStatus struct {
	pinger Pinger
	logger logging.Logger
	online atomic.Bool

	// OnChange, if set before Watch starts, is called on every transition.
	OnChange func(Mode)
}

func NewOnlineStatus(p Pinger, logger logging.Logger) *OnlineStatus {
	return &OnlineStatus{pinger: p, logger: logger.With("module", "online")}
}

func (o *OnlineStatus) IsOnline() bool { return o.online.Load() }

func (o *OnlineStatus) Mode() Mode {
	if o.IsOnline() {
		return ModeOnline
	}
	return ModeOffline
}

// Probe pings once and records the result.
func (o *OnlineStatus) Probe(ctx context.Context) bool {
	pctx, cancel := context.WithTimeout(ctx, probeTimeout)
	err := o.pinger.Ping(pctx)
	cancel()

	up := err == nil
	if o.online.Swap(up) != up {
		mode := o.Mode()
		if up {
			o.logger.Info(ctx, "switched mode", "mode", mode)
		} else {
			o.logger.Warn(ctx, "switched mode", "mode", mode, "error", err)
		}
		if o.OnChange != nil {
			o.OnChange(mode)
		}
	}
	return up
}

// Watch probes immediately and then on every tick until ctx is done.
func (o *OnlineStatus) Watch(ctx context.Context, interval time.Duration) {
	o.Probe(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			o.Probe(ctx)
		case <-ctx.Done():
			return
		}
	}
}
