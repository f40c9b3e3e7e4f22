// Package server wires the SafeCircle server together: logger, database,
// migrations, services, the gRPC and ops servers and the group sweeper, and
// runs them until a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/safecircle/internal/logging"
	"github.com/dmitrijs2005/safecircle/internal/server/config"
	"github.com/dmitrijs2005/safecircle/internal/server/observability"
	"github.com/dmitrijs2005/safecircle/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/safecircle/internal/server/services"
	_ "github.com/jackc/pgx/v5/stdlib"

	gs "github.com/dmitrijs2005/safecircle/internal/server/grpc"
)

const migrationTimeout = 30 * time.Second

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	metrics    *observability.Metrics
	grpcServer *gs.GRPCServer
	opsServer  *observability.OpsServer
	sweeper    *services.Sweeper
}

func NewApp(c *config.Config) (*App, error) {

	logger, err := logging.New(c.LogFormat, c.LogLevel, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()

	ctx, cancel := context.WithTimeout(context.Background(), migrationTimeout)
	defer cancel()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	metrics := observability.NewMetrics()

	sessions := services.NewSessionService(db, rm, c)
	presence := services.NewPresenceService(db, rm, c)
	groups := services.NewGroupService(db, rm, c)
	messages := services.NewMessageService(db, rm, c)

	grpcServer := gs.NewGRPCServer(c.EndpointAddrGRPC, logger, gs.Services{
		Sessions:    sessions,
		Presence:    presence,
		Groups:      groups,
		Messages:    messages,
		Sync:        services.NewSyncService(presence, groups, messages),
		Attachments: services.NewAttachmentService(c),
	}, metrics, gs.Options{StoreTimeout: c.StoreTimeout})

	return &App{
		config:     c,
		logger:     logger,
		db:         db,
		metrics:    metrics,
		grpcServer: grpcServer,
		opsServer:  observability.NewOpsServer(c.OpsAddr, logger, metrics, db),
		sweeper:    services.NewSweeper(groups, c.GroupSweepInterval, logger.With("module", "sweeper"), metrics.GroupsSwept),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// runServer runs one long-lived server and cancels the whole app if it fails.
func (app *App) runServer(ctx context.Context, cancelFunc context.CancelFunc, name string, run func(context.Context) error) {
	if err := run(ctx); err != nil {
		app.logger.Error(ctx, "server failed", "server", name, "error", err)
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.runServer(ctx, cancelFunc, "grpc", app.grpcServer.Run)
	}()
	go func() {
		defer wg.Done()
		app.runServer(ctx, cancelFunc, "ops", app.opsServer.Run)
	}()
	go func() {
		defer wg.Done()
		app.sweeper.Run(ctx)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
