// Package web serves the helpline's tools to the voice agent over HTTP.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/rakshak-ai/internal/web/handlers"
	"github.com/rakshak-ai/internal/web/middleware"
)

// Deps are the components the routes call into. Alerter may be nil.
type Deps struct {
	Locator  handlers.Locator
	Stations handlers.StationLister
	Store    handlers.Pinger
	Callers  handlers.CallerStore
	Alerter  handlers.Alerter
}

// Server represents the tool server
type Server struct {
	config     *Config
	deps       Deps
	log        *slog.Logger
	router     *mux.Router
	handler    http.Handler
	httpServer *http.Server
}

// NewServer creates a new tool server instance
func NewServer(config *Config, deps Deps, log *slog.Logger) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	if log == nil {
		log = slog.Default()
	}
	s := &Server{config: config, deps: deps, log: log}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(config.Server.Host, fmt.Sprint(config.Server.Port)),
		Handler:      s.handler,
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()

	tools := &handlers.ToolsHandler{Locator: s.deps.Locator, Alerter: s.deps.Alerter, Log: s.log}
	stations := &handlers.StationsHandler{Names: s.deps.Stations, Store: s.deps.Store}
	callers := &handlers.CallersHandler{Store: s.deps.Callers, Log: s.log}

	s.router.HandleFunc("/healthz", stations.Health).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()

	// Agent tools
	api.HandleFunc("/tools", tools.ListTools).Methods("GET")
	api.HandleFunc("/tools/get_police_station", tools.GetPoliceStation).Methods("POST")
	api.HandleFunc("/tools/select_location", tools.SelectLocation).Methods("POST")
	api.HandleFunc("/tools/send_alert_to_officer", tools.SendAlert).Methods("POST")

	// Directory and callers
	api.HandleFunc("/stations", stations.ListStations).Methods("GET")
	api.HandleFunc("/callers", callers.Touch).Methods("POST")

	if s.config.Auth.Enabled() {
		api.Use(middleware.Authentication([]byte(s.config.Auth.Secret)))
	}

	// CORS wraps the router so preflight requests never reach route matching.
	s.handler = middleware.CORS(s.config.CORS.Origins)(
		middleware.RequestLogging(s.log)(s.router))
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr is the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("tool server listening", "addr", s.httpServer.Addr, "auth", s.config.Auth.Enabled())
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down tool server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.log.Info("tool server stopped")
	return nil
}
