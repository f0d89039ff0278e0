// Package server wires the medconb backend together: storage, the auth
// components, the GraphQL endpoint, the asset mount and the HTTP server.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/medconb/internal/logging"
	"github.com/dmitrijs2005/medconb/internal/server/assets"
	"github.com/dmitrijs2005/medconb/internal/server/auth"
	"github.com/dmitrijs2005/medconb/internal/server/config"
	"github.com/dmitrijs2005/medconb/internal/server/graphql"
	"github.com/dmitrijs2005/medconb/internal/server/httpserver"
	"github.com/dmitrijs2005/medconb/internal/server/metrics"
	"github.com/dmitrijs2005/medconb/internal/server/services"
	"github.com/dmitrijs2005/medconb/internal/server/shared/db"
	"github.com/dmitrijs2005/medconb/internal/server/users"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpserver.Server
}

// NewApp builds every component from c. reg receives the metrics; pass
// prometheus.NewRegistry() to keep tests off the default registry.
func NewApp(ctx context.Context, c *config.Config, reg *prometheus.Registry) (*App, error) {
	logger := logging.NewJSONLogger(c.Debug)
	if !c.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	app := &App{config: c, logger: logger}

	repo, err := app.initRepository(ctx)
	if err != nil {
		return nil, err
	}

	m := metrics.New(reg)

	var (
		verifier httpserver.TokenVerifier
		issuer   services.TokenIssuer
	)
	if c.PasswordAuthEnabled() {
		tokens, err := auth.NewTokenService(c.PasswordSecret(), c.TokenValidityDuration)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("token service init error: %w", err)
		}
		verifier, issuer = tokens, tokens
	} else {
		logger.Info(ctx, "password auth is disabled")
	}

	hasher := auth.NewArgon2idHasher(auth.DefaultParams)
	us := services.NewUserService(repo, hasher, issuer, c, logger, m)

	schema, err := graphql.LoadSchema()
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("schema load error: %w", err)
	}

	backend, err := app.initAssets(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.server = httpserver.NewServer(c, logger, verifier, httpserver.Routes{
		GraphQL:  graphql.NewHandler(schema, us, logger, m).Handle,
		Assets:   assets.NewGate(backend, logger, m),
		Gatherer: reg,
	})

	return app, nil
}

// initRepository selects PostgreSQL when a DSN is configured and the
// in-memory store otherwise.
func (app *App) initRepository(ctx context.Context) (users.Repository, error) {
	if app.config.DatabaseDSN == "" {
		app.logger.Warn(ctx, "no database configured, users are kept in memory")
		return users.NewMemoryRepository(), nil
	}

	conn, err := db.Open(ctx, app.config.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.RunMigrations(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, err
	}
	app.db = conn

	return users.NewPostgresRepository(conn), nil
}

func (app *App) initAssets(ctx context.Context) (http.Handler, error) {
	s3cfg := app.config.AssetsS3
	if !s3cfg.Enabled() {
		app.logger.Info(ctx, "serving assets from directory", "dir", app.config.AssetsDir)
		return assets.LocalHandler(app.config.AssetsDir), nil
	}

	client, err := assets.NewS3Client(ctx, s3cfg)
	if err != nil {
		return nil, fmt.Errorf("s3 init error: %w", err)
	}
	app.logger.Info(ctx, "serving assets from bucket", "bucket", s3cfg.Bucket, "prefix", s3cfg.Prefix)
	return assets.NewS3Handler(client, s3cfg.Bucket, s3cfg.Prefix, app.logger), nil
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

// Run serves until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.Close()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		return err
	}

	return nil
}

// Close releases the database handle, if any.
func (app *App) Close() {
	if app.db == nil {
		return
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(context.Background(), "db close error", "error", err)
	}
	app.db = nil
}
