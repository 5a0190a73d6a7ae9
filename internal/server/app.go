// Package server wires configuration, storage, services and the HTTP and
// gRPC health endpoints into one process, and runs them until a signal or
// a fatal error.
package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/cipherkeeper/internal/logging"
	"github.com/dmitrijs2005/cipherkeeper/internal/server/config"
	"github.com/dmitrijs2005/cipherkeeper/internal/server/docstore"
	"github.com/dmitrijs2005/cipherkeeper/internal/server/httpserver"
	"github.com/dmitrijs2005/cipherkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/cipherkeeper/internal/server/services"

	gs "github.com/dmitrijs2005/cipherkeeper/internal/server/grpc"
)

// logOutput is where the process logger writes.
var logOutput io.Writer = os.Stdout

type App struct {
	config   *config.Config
	logger   logging.Logger
	repos    repomanager.RepositoryManager
	sessions *services.SessionService
	users    *services.UserService
	entries  *services.EntryService
	gateway  *services.Authenticator
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(logOutput, c.LogFormat, c.LogLevel)

	repos, err := openRepositories(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	if err := repos.RunMigrations(ctx); err != nil {
		_ = repos.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	sessions := services.NewSessionService(repos, c.SessionTTL, logger)

	return &App{
		config:   c,
		logger:   logger,
		repos:    repos,
		sessions: sessions,
		users:    services.NewUserService(repos, sessions, c.BcryptCost, logger),
		entries:  services.NewEntryService(repos),
		gateway:  services.NewAuthenticator(sessions, repos, logger),
	}, nil
}

// openRepositories picks the persistence backend named by c.StorageDriver.
func openRepositories(ctx context.Context, c *config.Config) (repomanager.RepositoryManager, error) {
	switch c.StorageDriver {
	case config.DriverPostgres:
		return repomanager.NewPostgresRepositoryManager(ctx, c.DatabaseDSN)

	case config.DriverMemory:
		return repomanager.NewDocumentRepositoryManager(docstore.New(docstore.NewMemoryBackend()), nil), nil

	case config.DriverFile:
		return repomanager.NewDocumentRepositoryManager(docstore.New(docstore.NewFileBackend(c.FilePath)), nil), nil

	case config.DriverRedis:
		client := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		backend := docstore.NewRedisBackend(client, c.RedisKey)
		return repomanager.NewDocumentRepositoryManager(docstore.New(backend), client), nil

	case config.DriverS3:
		backend, err := docstore.NewS3Backend(ctx, docstore.S3Config{
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
			Region:       c.S3Region,
			Bucket:       c.S3Bucket,
			Key:          c.S3Key,
			BaseEndpoint: c.S3BaseEndpoint,
		})
		if err != nil {
			return nil, err
		}
		return repomanager.NewDocumentRepositoryManager(docstore.New(backend), nil), nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		signal.Stop(sigs)
		cancelFunc()
	}()
}

// ready is the store probe shared by /healthz and the gRPC health service.
func (app *App) ready(ctx context.Context) error {
	return app.repos.View(ctx, func(context.Context, repomanager.Repositories) error { return nil })
}

// Run serves until ctx is cancelled, a termination signal arrives or one of
// the servers fails. Storage is closed on the way out.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", app.config.StorageDriver, "env", app.config.AppEnv)

	app.initSignalHandler(cancelFunc)

	httpSrv := httpserver.New(httpserver.Options{
		Addr:           app.config.HTTPAddr,
		Production:     app.config.IsProduction(),
		RequestTimeout: app.config.RequestTimeout,
		AuthRateLimit:  app.config.AuthRateLimit,
		SessionTTL:     app.config.SessionTTL,
		Ready:          app.ready,
	}, app.users, app.entries, app.gateway, app.logger)

	grpcSrv := gs.NewHealthServer(app.config.GRPCAddr, app.logger, app.ready, 0)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return httpSrv.Run(gctx) })
	g.Go(func() error { return grpcSrv.Run(gctx) })

	if app.config.SessionSweepInterval > 0 {
		g.Go(func() error {
			app.sessions.RunSweeper(gctx, app.config.SessionSweepInterval)
			return nil
		})
	}

	err := g.Wait()

	if cerr := app.repos.Close(); cerr != nil {
		app.logger.Error(ctx, "closing storage", "error", cerr)
	}

	if err != nil {
		app.logger.Error(ctx, "server stopped with error", "error", err)
		return err
	}
	app.logger.Info(ctx, "App stopped")
	return nil
}
