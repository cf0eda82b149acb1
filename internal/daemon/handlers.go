package daemon

import (
	"context"
	"encoding/json"
	"time"

	"cib/internal/errors"
)

// findReferencesParams is the params shape of the findReferences method
type findReferencesParams struct {
	SymbolName string `json:"symbolName"`
}

// registerHandlers wires the pipe methods into the dispatcher
func (s *Server) registerHandlers() {
	s.dispatcher.Register("health", s.handleHealth)
	s.dispatcher.Register("findReferences", s.handleFindReferences)
}

// handleHealth reports liveness, the workspace, and the endpoint
func (s *Server) handleHealth(ctx context.Context, params json.RawMessage) (interface{}, error) {
	return map[string]interface{}{
		"status":    "ok",
		"workspace": s.workspaceRoot,
		"pipeName":  s.address,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// handleFindReferences resolves a symbol by name and returns its usages
func (s *Server) handleFindReferences(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var p findReferencesParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, errors.New(errors.ValidationFailed, "params must carry a symbolName string", err)
		}
	}

	return s.service.FindReferences(ctx, p.SymbolName)
}
