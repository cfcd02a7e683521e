package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/voicesync/internal/client/services"
)

var errUsage = errors.New("usage: open <voiceId> [display name...]")

// Open records that the owner opened a voice's profile.
func (a *App) Open(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printlnFn(errUsage.Error())
		return errUsage
	}

	rec, err := a.state.RecordOpen(ctx, args[0], strings.Join(args[1:], " "), a.now())
	if err != nil {
		a.logger.Error(ctx, "failed to record open", "voice_id", args[0], "error", err)
		return err
	}

	printlnFn(fmt.Sprintf("opened %s at %s", rec.VoiceID, rec.LastOpenedAt))
	return nil
}

func (a *App) List(ctx context.Context) error {
	recs, err := a.state.Load(ctx)
	if err != nil {
		a.logger.Error(ctx, "failed to load voices", "error", err)
		return err
	}
	if len(recs) == 0 {
		printlnFn("no voices discovered yet")
		return nil
	}

	for _, r := range recs {
		mark := " "
		if !r.Synced {
			mark = "*"
		}
		name := r.DisplayName
		if name == "" {
			name = "-"
		}
		printlnFn(fmt.Sprintf("%s %-24s %-20s first %s  last %s", mark, r.VoiceID, name, r.FirstDiscoveredAt, r.LastOpenedAt))
	}
	return nil
}

// Sync runs one round in the foreground and reports its outcome.
func (a *App) Sync(ctx context.Context) error {
	res := a.scheduler.RunOnce(ctx)

	switch {
	case res.OK:
		printlnFn(fmt.Sprintf("%s (%d written)", res.Message, res.Upserted))
		return nil
	case errors.Is(res.Err, services.ErrOffline):
		printlnFn(res.Message)
		return nil
	default:
		printlnFn("sync failed: " + res.Message)
		return res.Err
	}
}

// Reset drops the local copy. Voices already synced come back with the
// next sync; pending opens are lost.
func (a *App) Reset(ctx context.Context) error {
	if err := a.state.Reset(ctx); err != nil {
		a.logger.Error(ctx, "failed to reset local voices", "error", err)
		printlnFn("reset failed: " + err.Error())
		return err
	}
	printlnFn("local voices cleared")
	return nil
}

func (a *App) Status(ctx context.Context) error {
	recs, err := a.state.Load(ctx)
	if err != nil {
		return err
	}
	pending := 0
	for _, r := range recs {
		if !r.Synced {
			pending++
		}
	}

	last := "never"
	if t, ok, err := a.state.LastSync(ctx); err != nil {
		return err
	} else if ok {
		last = t.Format("2006-01-02 15:04:05 MST")
	}

	printlnFn(fmt.Sprintf("owner:     %s", a.ownerID))
	printlnFn(fmt.Sprintf("mode:      %s", a.online.Mode()))
	printlnFn(fmt.Sprintf("voices:    %d (%d pending)", len(recs), pending))
	printlnFn(fmt.Sprintf("last sync: %s", last))
	return nil
}
