// Package bridge implements the intelligence operations exposed over
// HTTP and the pipe transport: resolving a symbol by name and
// aggregating its references.
package bridge

import (
	"context"
	"sync"

	"cib/internal/config"
	"cib/internal/docs"
	"cib/internal/engine"
	"cib/internal/logging"
)

// Service ties an engine to the workspace's documents
type Service struct {
	workspaceRoot string
	engine        engine.Engine
	store         *docs.Store
	scanner       *docs.Scanner
	logger        *logging.Logger

	scanOnce sync.Once
	scanErr  error
}

// NewService creates the bridge service for one workspace
func NewService(workspaceRoot string, cfg config.ResolverConfig, eng engine.Engine, logger *logging.Logger) *Service {
	return &Service{
		workspaceRoot: workspaceRoot,
		engine:        eng,
		store:         docs.NewStore(),
		scanner:       docs.NewScanner(workspaceRoot, cfg, logger),
		logger:        logger,
	}
}

// Engine exposes the underlying engine for status reporting
func (s *Service) Engine() engine.Engine {
	return s.engine
}

// OpenDocuments returns the documents currently known to the service
func (s *Service) OpenDocuments() []*docs.Document {
	return s.store.List()
}

// ensureDocumentsOpen scans the workspace once and opens every
// discovered source file, both in the store and toward the engine.
// Files that cannot be read or announced are skipped, not fatal.
func (s *Service) ensureDocumentsOpen(ctx context.Context) error {
	s.scanOnce.Do(func() {
		paths, err := s.scanner.Scan(ctx)
		if err != nil {
			s.scanErr = err
			return
		}

		opened := 0
		for _, path := range paths {
			doc, err := s.store.Open(path)
			if err != nil {
				s.logger.Debug("Skipping unreadable file", map[string]interface{}{
					"path":  path,
					"error": err.Error(),
				})
				continue
			}
			if err := s.engine.OpenDocument(ctx, doc.URI, doc.LanguageID, doc.Text); err != nil && err != engine.ErrUnsupported {
				s.logger.Debug("Engine rejected document", map[string]interface{}{
					"uri":   doc.URI,
					"error": err.Error(),
				})
			}
			opened++
		}

		s.logger.Info("Workspace documents opened", map[string]interface{}{
			"count": opened,
		})
	})
	return s.scanErr
}

// Close shuts the engine down
func (s *Service) Close() error {
	return s.engine.Close()
}
