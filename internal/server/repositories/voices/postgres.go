package voices

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/voicesync/internal/dbx"
	"github.com/dmitrijs2005/voicesync/internal/voices"
)

// PostgresRepository implements Repository over dbx.DBTX, so the same code
// serves both *sql.DB and a batch transaction.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) SelectByOwner(ctx context.Context, userID string) ([]voices.RemoteRecord, error) {
	query := `
		SELECT voice_id, first_discovered_at, last_opened_at
		FROM discovered_voices
		WHERE user_id = $1
		ORDER BY voice_id
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]voices.RemoteRecord, 0)
	for rows.Next() {
		rec := voices.RemoteRecord{UserID: userID}
		if err := rows.Scan(&rec.VoiceID, &rec.FirstDiscoveredAt, &rec.LastOpenedAt); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return result, nil
}

// Upsert inserts rec or widens the stored row: first_discovered_at only
// moves earlier and last_opened_at only moves later, so a device writing a
// stale snapshot cannot roll the row back. Timestamps stay stored as the
// text the client sent; they are compared as instants.
func (r *PostgresRepository) Upsert(ctx context.Context, rec voices.RemoteRecord) error {
	query := `
		INSERT INTO discovered_voices (user_id, voice_id, first_discovered_at, last_opened_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, voice_id) DO UPDATE
		SET first_discovered_at = CASE
		        WHEN EXCLUDED.first_discovered_at::timestamptz < discovered_voices.first_discovered_at::timestamptz
		        THEN EXCLUDED.first_discovered_at
		        ELSE discovered_voices.first_discovered_at
		    END,
		    last_opened_at = CASE
		        WHEN EXCLUDED.last_opened_at::timestamptz > discovered_voices.last_opened_at::timestamptz
		        THEN EXCLUDED.last_opened_at
		        ELSE discovered_voices.last_opened_at
		    END,
		    updated_at = now()
	`
	if _, err := r.db.ExecContext(ctx, query, rec.UserID, rec.VoiceID, rec.FirstDiscoveredAt, rec.LastOpenedAt); err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}
