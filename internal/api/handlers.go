package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"cib/internal/engine"
	"cib/internal/errors"
)

// findReferencesRequest is the body of POST /api/findReferences
type findReferencesRequest struct {
	SymbolName string `json:"symbolName"`
}

// documentReferencesRequest is the body of POST /api/textDocument/references
type documentReferencesRequest struct {
	URI                string           `json:"uri"`
	Position           *engine.Position `json:"position"`
	IncludeDeclaration bool             `json:"includeDeclaration"`
}

var findReferencesExample = map[string]string{"symbolName": "greetUser"}

// handleHealth reports liveness and the active workspace
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"workspace": s.workspaceRoot,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleFindReferences resolves a symbol by name and returns its usages
func (s *Server) handleFindReferences(w http.ResponseWriter, r *http.Request) {
	var req findReferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "request body must be JSON", findReferencesExample)
		return
	}
	if strings.TrimSpace(req.SymbolName) == "" {
		writeValidationError(w, "symbolName is required", findReferencesExample)
		return
	}

	result, err := s.service.FindReferences(r.Context(), req.SymbolName)
	if err != nil {
		switch errors.CodeOf(err) {
		case errors.ValidationFailed:
			writeValidationError(w, err.Error(), findReferencesExample)
		case errors.SymbolNotFound:
			writeNotFound(w, req.SymbolName, err.Error())
		default:
			s.logger.Error("findReferences failed", map[string]interface{}{
				"symbolName": req.SymbolName,
				"error":      err.Error(),
				"requestID":  GetRequestID(r.Context()),
			})
			writeInternalError(w, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleDocumentReferences returns usages for a known position
func (s *Server) handleDocumentReferences(w http.ResponseWriter, r *http.Request) {
	var req documentReferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidationError(w, "request body must be JSON",
			map[string]interface{}{"uri": "file:///src/app.ts", "position": map[string]int{"line": 3, "character": 9}})
		return
	}
	if req.URI == "" || req.Position == nil {
		writeValidationError(w, "uri and position are required",
			map[string]interface{}{"uri": "file:///src/app.ts", "position": map[string]int{"line": 3, "character": 9}})
		return
	}

	references, err := s.service.ReferencesAt(r.Context(), req.URI, *req.Position, req.IncludeDeclaration)
	if err != nil {
		s.logger.Error("textDocument/references failed", map[string]interface{}{
			"uri":       req.URI,
			"error":     err.Error(),
			"requestID": GetRequestID(r.Context()),
		})
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"references": references,
	})
}
