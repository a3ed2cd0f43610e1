package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/nerrad567/brewlink/internal/bridges/s1"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeInternal     = "internal_error"
	ErrCodeUnavailable  = "unavailable"
	ErrCodeNotConnected = "not_connected"
	ErrCodeLinkFailure  = "link_failure"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeMachineError maps link-layer sentinels to HTTP responses.
//
//	ErrNotConnected       → 409 (connect first)
//	ErrUnknownCharacteristic, ErrMalformedPayload → 502 (firmware surprise)
//	ErrConnectionFailed, ErrLinkFailure, ErrWorkerStopped → 503
func writeMachineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, s1.ErrNotConnected):
		writeError(w, http.StatusConflict, ErrCodeNotConnected, err.Error())
	case errors.Is(err, s1.ErrUnknownCharacteristic), errors.Is(err, s1.ErrMalformedPayload):
		writeError(w, http.StatusBadGateway, ErrCodeLinkFailure, err.Error())
	case errors.Is(err, s1.ErrConnectionFailed),
		errors.Is(err, s1.ErrLinkFailure),
		errors.Is(err, s1.ErrWorkerStopped):
		writeError(w, http.StatusServiceUnavailable, ErrCodeLinkFailure, err.Error())
	default:
		writeInternalError(w, err.Error())
	}
}

// queryInt parses an integer query parameter, returning fallback when
// absent or malformed.
func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
