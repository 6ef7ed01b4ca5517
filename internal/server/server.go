// Package server assembles the pieces behind the HTTP API: the SQLite
// store, the auth service, the ngspice simulator, and the gin router.
package server

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"vlab/api/middleware"
	v1 "vlab/api/v1"
	"vlab/internal/auth"
	"vlab/internal/config"
	verrors "vlab/internal/errors"
	"vlab/internal/logging"
	"vlab/internal/spice"
	"vlab/internal/store"
)

// Server owns the long-lived components and the HTTP listener.
type Server struct {
	cfg   *config.Config
	store *store.Store
	http  *http.Server

	mu   sync.Mutex
	addr net.Addr
}

// New wires up a server from configuration. The ngspice binary must be
// resolvable; a missing binary is a startup error, not a request error.
func New(cfg *config.Config) (*Server, error) {
	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, verrors.WrapError(verrors.ErrStoreUnavailable, err)
	}

	runner, err := spice.NewRunner(cfg.Spice.BinaryCandidates, cfg.GetSimTimeout())
	if err != nil {
		st.Close()
		return nil, err
	}
	sim := spice.NewService(runner, cfg.Spice.StrictHeader)

	authSvc := auth.NewService(st, cfg.Auth.Secret, cfg.GetTokenExpiry(), cfg.Auth.BcryptCost)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	v1.RegisterOpenAPIV1Routes(router, v1.NewOpenAPIV1(authSvc, st, sim))
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, middleware.HTTPError{
			Code:    string(verrors.ErrNotFound.RFCCode()),
			Message: "no such endpoint",
		})
	})

	return &Server{
		cfg:   cfg,
		store: st,
		http: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.GetReadTimeout(),
			WriteTimeout: cfg.GetWriteTimeout(),
		},
	}, nil
}

// Addr returns the bound listener address once Run has started serving.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, configPath string) error {
	lis, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.addr = lis.Addr()
	s.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logging.L().Info("http server listening", zap.Stringer("addr", lis.Addr()))
		err := s.http.Serve(lis)
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	})

	if configPath != "" {
		g.Go(func() error {
			return config.Watch(ctx, configPath)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.GetShutdownTimeout())
		defer cancel()
		logging.L().Info("shutting down http server")
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return s.store.Close()
	})

	return g.Wait()
}
