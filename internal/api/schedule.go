package api

import (
	"encoding/json"
	"net/http"

	"github.com/nerrad567/brewlink/internal/bridges/s1"
)

// handleGetSchedule reads the weekly schedule from the machine.
func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	schedule, err := s.machine.Schedule(r.Context())
	if err != nil {
		writeMachineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schedule)
}

// handleSetSchedule writes a weekly schedule to the machine.
//
// The body is the schedule's JSON form, keyed by day name:
//
//	{"monday":[{"start":"07:30","end":"09:00","boiler_on":true}]}
func (s *Server) handleSetSchedule(w http.ResponseWriter, r *http.Request) {
	var schedule s1.WeeklySchedule
	if err := json.NewDecoder(r.Body).Decode(&schedule); err != nil {
		writeBadRequest(w, "invalid schedule: "+err.Error())
		return
	}

	if err := s.machine.SetSchedule(r.Context(), schedule); err != nil {
		writeMachineError(w, err)
		return
	}

	s.logger.Info("schedule updated")
	writeJSON(w, http.StatusOK, schedule)
}

// handleScheduleStatus reports whether the schedule timer is enabled.
func (s *Server) handleScheduleStatus(w http.ResponseWriter, r *http.Request) {
	enabled, err := s.machine.ScheduleEnabled(r.Context())
	if err != nil {
		writeMachineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"enabled": enabled})
}

// handleScheduleEnable switches the schedule timer on.
func (s *Server) handleScheduleEnable(w http.ResponseWriter, r *http.Request) {
	s.setScheduleEnabled(w, r, true)
}

// handleScheduleDisable switches the schedule timer off.
func (s *Server) handleScheduleDisable(w http.ResponseWriter, r *http.Request) {
	s.setScheduleEnabled(w, r, false)
}

func (s *Server) setScheduleEnabled(w http.ResponseWriter, r *http.Request, enabled bool) {
	if err := s.machine.EnableSchedule(r.Context(), enabled); err != nil {
		writeMachineError(w, err)
		return
	}
	s.logger.Info("schedule timer changed", "enabled", enabled)
	writeJSON(w, http.StatusOK, map[string]any{"enabled": enabled})
}

// handleScheduleBackups lists stored schedule snapshots, newest first.
func (s *Server) handleScheduleBackups(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "backup store not configured")
		return
	}

	limit := queryInt(r, "limit", 0)
	backups, err := s.store.ListBackups(r.Context(), limit)
	if err != nil {
		s.logger.Error("listing schedule backups", "error", err)
		writeInternalError(w, "failed to list schedule backups")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"backups": backups})
}
