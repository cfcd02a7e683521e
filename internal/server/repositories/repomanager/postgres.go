// Package repomanager provides the PostgreSQL RepositoryManager and runs
// the embedded goose migrations.
package repomanager

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/voicesync/internal/dbx"
	"github.com/dmitrijs2005/voicesync/internal/server/migrations"
	"github.com/dmitrijs2005/voicesync/internal/server/repositories/voices"
)

type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Voices(db dbx.DBTX) voices.Repository {
	return voices.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}
