package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/nerrad567/brewlink/internal/bridges/s1"
)

// clockResponse is the appliance clock in wire and RFC3339 form.
type clockResponse struct {
	Time string `json:"time"`
}

// handleGetTime reads the appliance's wall clock.
func (s *Server) handleGetTime(w http.ResponseWriter, r *http.Request) {
	at, err := s.machine.CurrentTime(r.Context())
	if err != nil {
		writeMachineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, clockResponse{
		Time: at.Time(time.UTC).Format(time.RFC3339),
	})
}

// handleSetTime sets the appliance's wall clock.
//
// The body is {"time":"2026-08-29T15:04:05Z"}. An empty body syncs the
// clock to the server's current time.
func (s *Server) handleSetTime(w http.ResponseWriter, r *http.Request) {
	target := time.Now()

	var req clockResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.Time != "" {
		parsed, err := time.Parse(time.RFC3339, req.Time)
		if err != nil {
			writeBadRequest(w, "time must be RFC3339")
			return
		}
		target = parsed
	}

	if err := s.machine.SetCurrentTime(r.Context(), s1.TimeFrom(target)); err != nil {
		writeMachineError(w, err)
		return
	}

	s.logger.Info("appliance clock set", "time", target.UTC().Format(time.RFC3339))
	writeJSON(w, http.StatusOK, clockResponse{
		Time: target.UTC().Format(time.RFC3339),
	})
}
