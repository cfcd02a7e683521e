package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/voicesync/internal/dbx"
	"github.com/dmitrijs2005/voicesync/internal/server/repositories/voices"
)

// RepositoryManager vends repositories bound to a handle, so services can
// choose between the pool and a transaction per call.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Voices(db dbx.DBTX) voices.Repository
}
