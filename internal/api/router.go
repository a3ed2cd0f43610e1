package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Unknown routes and methods get the structured error shape too.
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeBadRequest,
			"method "+r.Method+" not allowed")
	})

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/machine", s.handleMachineStatus)

		// Connection management
		r.Post("/connect", s.handleConnect)
		r.Post("/disconnect", s.handleDisconnect)

		// Power control
		r.Route("/power", func(r chi.Router) {
			r.Post("/on", s.handlePowerOn)
			r.Post("/off", s.handlePowerOff)
			r.Get("/events", s.handlePowerEvents)
		})

		// Telemetry
		r.Route("/temperature", func(r chi.Router) {
			r.Get("/", s.handleTemperature)
			r.Get("/history", s.handleTemperatureHistory)
		})

		// Weekly schedule
		r.Route("/schedule", func(r chi.Router) {
			r.Get("/", s.handleGetSchedule)
			r.Put("/", s.handleSetSchedule)
			r.Get("/status", s.handleScheduleStatus)
			r.Post("/enable", s.handleScheduleEnable)
			r.Post("/disable", s.handleScheduleDisable)
			r.Get("/backups", s.handleScheduleBackups)
		})

		// Appliance clock
		r.Route("/time", func(r chi.Router) {
			r.Get("/", s.handleGetTime)
			r.Put("/", s.handleSetTime)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"machine": s.name,
		"version": s.version,
	})
}
