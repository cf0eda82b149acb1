package api

import (
	"encoding/json"
	"net/http"

	"cib/internal/errors"
)

// writeJSON writes a JSON response with the given status
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeValidationError answers a malformed request with a usage example
func writeValidationError(w http.ResponseWriter, message string, example interface{}) {
	writeJSON(w, http.StatusBadRequest, map[string]interface{}{
		"error":   message,
		"example": example,
	})
}

// writeNotFound answers an unresolvable symbol lookup
func writeNotFound(w http.ResponseWriter, symbolName, message string) {
	writeJSON(w, http.StatusNotFound, map[string]interface{}{
		"error":      "Symbol not found",
		"symbolName": symbolName,
		"message":    message,
	})
}

// writeInternalError answers an unexpected failure
func writeInternalError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]interface{}{
		"error":   "Internal server error",
		"message": err.Error(),
	})
}

// statusFor maps bridge error codes onto HTTP statuses
func statusFor(err error) int {
	switch errors.CodeOf(err) {
	case errors.ValidationFailed:
		return http.StatusBadRequest
	case errors.SymbolNotFound:
		return http.StatusNotFound
	case errors.EngineUnavailable:
		return http.StatusServiceUnavailable
	case errors.Timeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
