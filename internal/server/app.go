// Package server wires the voicesync server: it opens PostgreSQL, applies
// migrations, and serves the voice store over gRPC until a shutdown signal.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/voicesync/internal/logging"
	"github.com/dmitrijs2005/voicesync/internal/server/config"
	"github.com/dmitrijs2005/voicesync/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/voicesync/internal/server/services"

	gs "github.com/dmitrijs2005/voicesync/internal/server/grpc"
)

// openDB is a seam for tests.
var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	manager repomanager.RepositoryManager
}

func NewApp(c *config.Config, logger logging.Logger) (*App, error) {
	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	return &App{
		config:  c,
		logger:  logger.With("module", "server"),
		db:      db,
		manager: repomanager.NewPostgresRepositoryManager(),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run applies migrations and serves until ctx is cancelled or a shutdown
// signal arrives. The database is closed on return.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.db.Close()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	if err := app.manager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	vs := services.NewVoiceService(app.db, app.manager)
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, vs, app.config.SecretKey)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "grpc server failed", "error", err)
		return err
	}

	app.logger.Info(ctx, "Server stopped")
	return nil
}
