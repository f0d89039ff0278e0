// Package httpserver is the HTTP transport: a gin engine with request ids,
// CORS, bearer authentication and the medconb routes.
package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/medconb/internal/logging"
	"github.com/dmitrijs2005/medconb/internal/server/config"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 10 * time.Second

// Routes are the handlers mounted on the engine. Nil entries are skipped.
type Routes struct {
	GraphQL  gin.HandlerFunc
	Assets   http.Handler
	Gatherer prometheus.Gatherer
}

type Server struct {
	address string
	engine  *gin.Engine
	logger  logging.Logger
}

// NewServer builds the engine. verifier may be nil when password auth is
// disabled.
func NewServer(cfg *config.Config, logger logging.Logger, verifier TokenVerifier, routes Routes) *Server {
	logger = logger.With("module", "http_server")

	return &Server{
		address: cfg.EndpointAddr,
		engine:  newEngine(cfg, logger, verifier, routes),
		logger:  logger,
	}
}

func newEngine(cfg *config.Config, logger logging.Logger, verifier TokenVerifier, routes Routes) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(correlationID())
	router.Use(requestLogger(logger))
	if mw := newCORSMiddleware(cfg.CORSOrigins); mw != nil {
		router.Use(mw)
	}
	router.Use(authenticate(verifier, logger))

	router.GET("/", statusHandler(cfg.VersionSuffix))

	if routes.GraphQL != nil {
		router.POST("/graphql", routes.GraphQL)
		router.GET("/graphql", routes.GraphQL)
	}

	if routes.Assets != nil {
		assets := gin.WrapH(http.StripPrefix("/assets", routes.Assets))
		router.GET("/assets/*filepath", assets)
		router.HEAD("/assets/*filepath", assets)
	}

	if routes.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(routes.Gatherer, promhttp.HandlerOpts{})))
	}

	return router
}

// Handler exposes the engine for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(shutdownCtx, "http shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
