package api

import (
	"context"
	"net/http"

	"github.com/nerrad567/brewlink/internal/backup"
)

// handleMachineStatus returns the machine's connection state and
// worker counters, plus the latest telemetry snapshot when available.
func (s *Server) handleMachineStatus(w http.ResponseWriter, _ *http.Request) {
	stats := s.worker.Stats()

	status := map[string]any{
		"name":      s.name,
		"connected": s.worker.IsConnected(),
		"worker": map[string]uint64{
			"commands_processed": stats.CommandsProcessed,
			"commands_failed":    stats.CommandsFailed,
			"poll_samples":       stats.PollSamples,
			"reconnects":         stats.Reconnects,
		},
	}

	if s.monitor != nil {
		status["telemetry"] = s.monitor.Snapshot()
	}

	writeJSON(w, http.StatusOK, status)
}

// handleConnect establishes the BLE session, lifting a prior explicit
// disconnect.
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	if err := s.machine.Connect(r.Context()); err != nil {
		writeMachineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"connected": true})
}

// handleDisconnect drops the BLE session.
func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := s.machine.Disconnect(r.Context()); err != nil {
		writeMachineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"connected": false})
}

// handlePowerOn runs the power-on choreography.
func (s *Server) handlePowerOn(w http.ResponseWriter, r *http.Request) {
	s.runPowerCommand(w, r, backup.ActionPowerOn, s.machine.PowerOn)
}

// handlePowerOff runs the power-off choreography.
func (s *Server) handlePowerOff(w http.ResponseWriter, r *http.Request) {
	s.runPowerCommand(w, r, backup.ActionPowerOff, s.machine.PowerOff)
}

// runPowerCommand executes a power choreography and journals the
// attempt. Journal failures are logged, never surfaced to the client.
func (s *Server) runPowerCommand(w http.ResponseWriter, r *http.Request, action string, run func(context.Context) error) {
	err := run(r.Context())

	s.recordPowerEvent(r.Context(), action, err)

	if err != nil {
		s.logger.Error("power command failed", "action", action, "error", err)
		writeMachineError(w, err)
		return
	}

	s.logger.Info("power command completed", "action", action)
	writeJSON(w, http.StatusOK, map[string]any{
		"action": action,
		"result": backup.OutcomeOK,
	})
}

// recordPowerEvent journals one power command attempt.
func (s *Server) recordPowerEvent(ctx context.Context, action string, cmdErr error) {
	if s.store == nil {
		return
	}

	event := &backup.PowerEvent{Action: action, Outcome: backup.OutcomeOK}
	if cmdErr != nil {
		event.Outcome = backup.OutcomeFailed
		event.Detail = cmdErr.Error()
	}

	if err := s.store.RecordPowerEvent(ctx, event); err != nil {
		s.logger.Warn("recording power event", "action", action, "error", err)
	}
}

// handlePowerEvents returns the power command journal, newest first.
func (s *Server) handlePowerEvents(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "event store not configured")
		return
	}

	limit := queryInt(r, "limit", 0)
	events, err := s.store.ListPowerEvents(r.Context(), limit)
	if err != nil {
		s.logger.Error("listing power events", "error", err)
		writeInternalError(w, "failed to list power events")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}
