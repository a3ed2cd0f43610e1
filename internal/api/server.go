// Package api provides the HTTP REST API for Brewlink.
//
// It exposes machine control (power, schedule, clock), live telemetry
// and history endpoints to local clients (home dashboards, curl,
// shortcut apps).
//
// The server follows the same lifecycle pattern as other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/brewlink/internal/backup"
	"github.com/nerrad567/brewlink/internal/bridges/s1"
	"github.com/nerrad567/brewlink/internal/infrastructure/config"
	"github.com/nerrad567/brewlink/internal/infrastructure/influxdb"
	"github.com/nerrad567/brewlink/internal/infrastructure/logging"
	"github.com/nerrad567/brewlink/internal/telemetry"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// HistoryQuerier answers temperature-history queries.
// Satisfied by *influxdb.Client.
type HistoryQuerier interface {
	QueryTemperatureHistory(ctx context.Context, boiler string, lookback time.Duration) ([]influxdb.TemperatureSample, error)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  config.APIConfig
	Logger  *logging.Logger
	Machine *s1.Machine
	Worker  *s1.ConnectionWorker

	// Monitor is optional; without it the temperature endpoint
	// reports no data.
	Monitor *telemetry.Monitor

	// Store is optional; without it backup and power-event history
	// endpoints return 503.
	Store *backup.Store

	// History is optional; without it the temperature history
	// endpoint returns 503.
	History HistoryQuerier

	MachineName string
	Version     string
}

// Server is the HTTP API server for Brewlink.
//
// It manages the HTTP listener, routes and middleware. The server is
// created with New() and started with Start().
type Server struct {
	cfg     config.APIConfig
	logger  *logging.Logger
	machine *s1.Machine
	worker  *s1.ConnectionWorker
	monitor *telemetry.Monitor
	store   *backup.Store
	history HistoryQuerier
	name    string
	version string
	server  *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, machine, worker)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Machine == nil {
		return nil, fmt.Errorf("machine is required")
	}
	if deps.Worker == nil {
		return nil, fmt.Errorf("connection worker is required")
	}

	name := deps.MachineName
	if name == "" {
		name = "espresso"
	}

	return &Server{
		cfg:     deps.Config,
		logger:  deps.Logger,
		machine: deps.Machine,
		worker:  deps.Worker,
		monitor: deps.Monitor,
		store:   deps.Store,
		history: deps.History,
		name:    name,
		version: deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It builds the router and launches the HTTP listener in a background
// goroutine. The server can be stopped with Close().
//
// Parameters:
//   - ctx: Context for cancellation (not used for listener lifetime)
//
// Returns:
//   - error: If the server fails to start (port in use, etc.)
func (s *Server) Start(_ context.Context) error {
	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
