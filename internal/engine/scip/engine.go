package scip

import (
	"context"
	"path/filepath"

	"cib/internal/docs"
	"cib/internal/engine"
	"cib/internal/logging"
)

// Engine implements engine.Engine over a loaded SCIP index. The index
// is immutable after load, so every method is safe for concurrent use.
type Engine struct {
	workspaceRoot string
	index         *Index
	logger        *logging.Logger
}

// New loads the index at indexPath and wraps it as an engine
func New(workspaceRoot, indexPath string, logger *logging.Logger) (*Engine, error) {
	idx, err := LoadIndex(indexPath)
	if err != nil {
		return nil, err
	}

	logger.Info("Loaded SCIP index", map[string]interface{}{
		"path":      indexPath,
		"documents": len(idx.raw.Documents),
	})

	return &Engine{
		workspaceRoot: workspaceRoot,
		index:         idx,
		logger:        logger,
	}, nil
}

// Name identifies the engine for logs and status output
func (e *Engine) Name() string {
	return "scip"
}

// relativePath maps a document URI onto the index's relative paths
func (e *Engine) relativePath(uri string) string {
	rel, err := filepath.Rel(e.workspaceRoot, docs.PathForURI(uri))
	if err != nil {
		return ""
	}
	return filepath.ToSlash(rel)
}

// absoluteURI maps an index-relative path back to a document URI
func (e *Engine) absoluteURI(relativePath string) string {
	return docs.URIForPath(filepath.Join(e.workspaceRoot, filepath.FromSlash(relativePath)))
}

// WorkspaceSymbols returns the indexed symbols matching query, exact
// name matches first
func (e *Engine) WorkspaceSymbols(ctx context.Context, query string) ([]engine.SymbolInformation, error) {
	var out []engine.SymbolInformation
	for _, symbol := range e.index.symbolsNamed(query) {
		def, ok := e.index.definitions[symbol]
		if !ok {
			continue
		}
		out = append(out, engine.SymbolInformation{
			Name: e.index.names[symbol],
			Location: engine.Location{
				URI:   e.absoluteURI(def.URI),
				Range: def.Range,
			},
		})
	}
	return out, nil
}

// DocumentSymbols is not served from a SCIP index; occurrences carry no
// outline hierarchy
func (e *Engine) DocumentSymbols(ctx context.Context, uri string) ([]engine.DocumentSymbol, error) {
	return nil, engine.ErrUnsupported
}

// References returns every indexed occurrence of the symbol at pos
func (e *Engine) References(ctx context.Context, uri string, pos engine.Position, includeDeclaration bool) ([]engine.Location, error) {
	occ := e.index.occurrenceAt(e.relativePath(uri), pos)
	if occ == nil {
		return nil, nil
	}

	locations := e.index.occurrencesOf(occ.Symbol, includeDeclaration)
	out := make([]engine.Location, 0, len(locations))
	for _, loc := range locations {
		out = append(out, engine.Location{
			URI:   e.absoluteURI(loc.URI),
			Range: loc.Range,
		})
	}
	return out, nil
}

// Hover returns the indexed documentation for the symbol at pos
func (e *Engine) Hover(ctx context.Context, uri string, pos engine.Position) (*engine.Hover, error) {
	occ := e.index.occurrenceAt(e.relativePath(uri), pos)
	if occ == nil {
		return nil, nil
	}

	text := e.index.documentation(occ.Symbol)
	if text == "" {
		text = e.index.names[occ.Symbol]
	}
	if text == "" {
		return nil, nil
	}
	return &engine.Hover{Contents: text}, nil
}

// OpenDocument is a no-op; the index already covers every document
func (e *Engine) OpenDocument(ctx context.Context, uri, languageID, text string) error {
	return engine.ErrUnsupported
}

// Close releases nothing; the index lives in memory
func (e *Engine) Close() error {
	return nil
}
