package api

import (
	"context"
	"net/http"
	"time"

	"github.com/nerrad567/brewlink/internal/bridges/s1"
)

// historyLookback bounds for the temperature history endpoint, in hours.
const (
	defaultHistoryHours = 24
	maxHistoryHours     = 24 * 30
)

// handleTemperature returns the latest monitor snapshot for the brew
// boiler, falling back to a direct read when no monitor is running.
// The steam boiler is not polled, so ?boiler=steam always reads live.
func (s *Server) handleTemperature(w http.ResponseWriter, r *http.Request) {
	boiler := r.URL.Query().Get("boiler")
	if boiler == "" {
		boiler = "brew"
	}

	switch boiler {
	case "brew":
		if s.monitor != nil {
			status := s.monitor.Snapshot()
			if status.HasSample {
				writeJSON(w, http.StatusOK, status)
				return
			}
		}
		s.readBoiler(w, r, boiler, s.machine.BrewBoiler)
	case "steam":
		s.readBoiler(w, r, boiler, s.machine.SteamBoiler)
	default:
		writeBadRequest(w, "boiler must be brew or steam")
	}
}

// readBoiler performs a live read and writes the response envelope.
func (s *Server) readBoiler(w http.ResponseWriter, r *http.Request, boiler string, read func(context.Context) (s1.BoilerReading, error)) {
	reading, err := read(r.Context())
	if err != nil {
		writeMachineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"boiler":      boiler,
		"temperature": reading.Temperature,
		"status":      reading.StatusText(),
		"updated_at":  time.Now().UTC(),
	})
}

// handleTemperatureHistory returns recorded samples from InfluxDB.
//
// Query parameters:
//   - boiler: "brew" (default) or "steam"
//   - hours: lookback window, default 24, max 720
func (s *Server) handleTemperatureHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "telemetry history not configured")
		return
	}

	boiler := r.URL.Query().Get("boiler")
	if boiler == "" {
		boiler = "brew"
	}
	if boiler != "brew" && boiler != "steam" {
		writeBadRequest(w, "boiler must be brew or steam")
		return
	}

	hours := queryInt(r, "hours", defaultHistoryHours)
	if hours <= 0 || hours > maxHistoryHours {
		writeBadRequest(w, "hours must be between 1 and 720")
		return
	}

	samples, err := s.history.QueryTemperatureHistory(r.Context(), boiler, time.Duration(hours)*time.Hour)
	if err != nil {
		s.logger.Error("querying temperature history", "boiler", boiler, "error", err)
		writeInternalError(w, "failed to query temperature history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"boiler":  boiler,
		"hours":   hours,
		"samples": samples,
	})
}
