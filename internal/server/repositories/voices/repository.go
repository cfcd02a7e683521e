// Package voices declares the server-side store of discovered voices, one
// row per (owner, voice) pair.
package voices

import (
	"context"

	"github.com/dmitrijs2005/voicesync/internal/voices"
)

type Repository interface {
	// SelectByOwner returns every row of userID, ordered by voice id.
	SelectByOwner(ctx context.Context, userID string) ([]voices.RemoteRecord, error)

	// Upsert inserts rec or overwrites the timestamps of the existing row
	// with the same (UserID, VoiceID). It never creates a duplicate.
	Upsert(ctx context.Context, rec voices.RemoteRecord) error
}
