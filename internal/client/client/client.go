package client

import (
	"context"

	"github.com/dmitrijs2005/voicesync/internal/voices"
)

// Client is a remote store of discovered voices.
type Client interface {
	// Ping reports whether the remote store is reachable.
	Ping(ctx context.Context) error

	// FetchVoices returns every remote row of userID.
	FetchVoices(ctx context.Context, userID string) ([]voices.RemoteRecord, error)

	// UpsertVoices writes one batch with insert-or-update semantics keyed
	// by (UserID, VoiceID). The batch is applied entirely or not at all.
	UpsertVoices(ctx context.Context, records []voices.RemoteRecord) error

	Close() error
}

// BatchOwner returns the single owner of a batch, or ErrMixedOwners.
func BatchOwner(records []voices.RemoteRecord) (string, error) {
	if len(records) == 0 {
		return "", nil
	}
	owner := records[0].UserID
	for _, r := range records[1:] {
		if r.UserID != owner {
			return "", ErrMixedOwners
		}
	}
	return owner, nil
}
