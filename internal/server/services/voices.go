// Package services contains server-side business logic. VoiceService reads
// and writes an owner's discovered voices; a batch write is one
// transaction.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/voicesync/internal/common"
	"github.com/dmitrijs2005/voicesync/internal/dbx"
	"github.com/dmitrijs2005/voicesync/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/voicesync/internal/voices"
)

var ErrInvalidRecord = errors.New("invalid voice record")

type VoiceService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewVoiceService(db *sql.DB, m repomanager.RepositoryManager) *VoiceService {
	return &VoiceService{db: db, repomanager: m}
}

// Fetch returns every row of userID.
func (s *VoiceService) Fetch(ctx context.Context, userID string) ([]voices.RemoteRecord, error) {
	rows, err := s.repomanager.Voices(s.db).SelectByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error fetching voices: %w", err)
	}
	return rows, nil
}

// UpsertBatch applies rows for userID in a single transaction and returns
// the number written. Rows naming another owner are rejected with
// common.ErrOwnerMismatch; rows without a voice id or with an unparsable
// timestamp are rejected with ErrInvalidRecord. Nothing is written unless
// every row is accepted.
func (s *VoiceService) UpsertBatch(ctx context.Context, userID string, rows []voices.RemoteRecord) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	rows = slices.Clone(rows)
	for i := range rows {
		if rows[i].UserID != "" && rows[i].UserID != userID {
			return 0, common.ErrOwnerMismatch
		}
		rows[i].UserID = userID
		if err := validate(rows[i]); err != nil {
			return 0, err
		}
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Voices(tx)
		for _, r := range rows {
			if err := repo.Upsert(ctx, r); err != nil {
				return fmt.Errorf("error upserting voice %s: %w", r.VoiceID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func validate(r voices.RemoteRecord) error {
	if r.VoiceID == "" {
		return fmt.Errorf("%w: empty voice id", ErrInvalidRecord)
	}
	if _, err := voices.ParseInstant(r.FirstDiscoveredAt); err != nil {
		return fmt.Errorf("%w: %s first_discovered_at: %w", ErrInvalidRecord, r.VoiceID, err)
	}
	if _, err := voices.ParseInstant(r.LastOpenedAt); err != nil {
		return fmt.Errorf("%w: %s last_opened_at: %w", ErrInvalidRecord, r.VoiceID, err)
	}
	return nil
}
