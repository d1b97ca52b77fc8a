package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/hrygo/prefcache/internal/profile"
	"github.com/hrygo/prefcache/server/internal/observability"
	"github.com/hrygo/prefcache/server/middleware"
	apiv1 "github.com/hrygo/prefcache/server/router/api/v1"
	"github.com/hrygo/prefcache/store"
	"github.com/hrygo/prefcache/store/cache"
)

type Server struct {
	Profile  *profile.Profile
	Store    *store.Store
	Registry *cache.Registry

	echoServer *echo.Echo
	listener   net.Listener
}

func NewServer(_ context.Context, profile *profile.Profile, store *store.Store, registry *cache.Registry) (*Server, error) {
	s := &Server{
		Profile:  profile,
		Store:    store,
		Registry: registry,
	}

	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	// Rate limiting keys on the client IP, so only trust the socket peer.
	echoServer.IPExtractor = echo.ExtractIPDirect()
	echoServer.Use(echomiddleware.Recover())
	metrics := observability.NewMetrics(1000)
	echoServer.Use(middleware.RequestLogger(slog.Default(), metrics))
	echoServer.Use(middleware.NewRateLimiter(profile.RateLimit, profile.RateBurst).Middleware())
	s.echoServer = echoServer

	// Healthz endpoint.
	echoServer.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})

	apiv1.NewAPIV1Service(profile, store, registry, metrics).RegisterRoutes(echoServer)

	return s, nil
}

// Handler exposes the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}

// Start listens on the profile address and serves until Shutdown.
func (s *Server) Start(_ context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrap(err, "failed to listen")
	}
	s.listener = listener

	go func() {
		if err := s.echoServer.Server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start echo server", "error", err)
		}
	}()
	slog.Info("prefcache server started", slog.String("address", listener.Addr().String()), slog.String("mode", s.Profile.Mode))
	return nil
}

// Addr returns the bound address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops the HTTP server and closes the store.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	slog.Info("server shutting down")

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", slog.String("error", err.Error()))
	}

	slog.Info("prefcache stopped properly")
}
