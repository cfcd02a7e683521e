package cli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/voicesync/internal/auth"
	"github.com/dmitrijs2005/voicesync/internal/client/client"
	"github.com/dmitrijs2005/voicesync/internal/client/config"
	"github.com/dmitrijs2005/voicesync/internal/client/remote/s3store"
	"github.com/dmitrijs2005/voicesync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/voicesync/internal/client/scheduler"
	"github.com/dmitrijs2005/voicesync/internal/client/services"
	"github.com/dmitrijs2005/voicesync/internal/client/state"
	"github.com/dmitrijs2005/voicesync/internal/logging"
)

var ErrNoOwner = errors.New("access token does not name an owner")

type App struct {
	config    *config.Config
	logger    logging.Logger
	db        *sql.DB
	remote    client.Client
	state     *state.State
	online    *services.OnlineStatus
	syncer    *services.SyncService
	scheduler *scheduler.Scheduler
	ownerID   string
	now       func() time.Time
}

// NewApp opens local storage and the configured remote store.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	owner, err := auth.SubjectFromToken(c.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoOwner, err)
	}

	db, err := client.InitDatabase(ctx, c.LocalDBPath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	remote, err := newRemote(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	a := newApp(c, logger, remote, metadata.NewSQLiteRepository(db), owner)
	a.db = db
	return a, nil
}

func newRemote(ctx context.Context, c *config.Config) (client.Client, error) {
	switch c.RemoteBackend {
	case config.BackendS3:
		store, err := s3store.New(ctx, s3store.Options{
			Region:       c.S3Region,
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
			Bucket:       c.S3Bucket,
			BaseEndpoint: c.S3BaseEndpoint,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendGRPC, "":
		gc, err := client.NewGRPCClient(c.ServerEndpointAddr, c.AccessToken)
		if err != nil {
			return nil, err
		}
		return gc, nil
	default:
		return nil, fmt.Errorf("unknown remote backend %q", c.RemoteBackend)
	}
}

func newApp(c *config.Config, logger logging.Logger, remote client.Client, kv state.KV, owner string) *App {
	a := &App{
		config:  c,
		logger:  logger,
		remote:  remote,
		state:   state.New(kv, logger),
		online:  services.NewOnlineStatus(remote, logger),
		ownerID: owner,
		now:     time.Now,
	}
	a.syncer = services.NewSyncService(a.online, remote, a.state, logger, services.WithSingleFlight())
	a.scheduler = scheduler.New(a.online, a.syncer, a.state,
		func() (string, error) { return a.ownerID, nil },
		scheduler.Options{
			OnlineCheckInterval: c.OnlineCheckInterval,
			SyncInterval:        c.SyncInterval,
		},
		logger,
	)
	return a
}

// Run starts background work, then blocks in the REPL until the user exits
// or stdin closes.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer a.close()

	unsubscribe := a.state.Subscribe(func(ev state.Event) {
		if ev.Type == state.EventSynced {
			a.logger.Debug(ctx, "voices synced", "count", len(ev.Records))
		}
	})
	defer unsubscribe()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := a.scheduler.Run(ctx); err != nil {
			a.logger.Error(ctx, "scheduler stopped", "error", err)
		}
	}()

	printlnFn("voicesync client (type 'help' for commands)")
	runREPL(ctx, a, a.status, bufio.NewScanner(os.Stdin))

	cancel()
	wg.Wait()
	return nil
}

func (a *App) close() {
	if err := a.remote.Close(); err != nil {
		a.logger.Warn(context.Background(), "error closing remote", "error", err)
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

func (a *App) status() string {
	return fmt.Sprintf("%s %s", a.ownerID, a.online.Mode())
}
