package engine

import (
	"context"
	stderrors "errors"
	"fmt"

	"cib/internal/errors"
	"cib/internal/logging"
)

// Ladder composes engines in preference order. Each query walks the
// ladder and returns the first engine's answer; an engine that reports
// the capability unsupported or itself unavailable is skipped and the
// next rung is tried. Any other failure is returned as-is, since a
// healthy engine giving a wrong answer is worse than no answer.
type Ladder struct {
	rungs  []Engine
	logger *logging.Logger
}

// NewLadder creates a ladder over the given engines, tried in order
func NewLadder(logger *logging.Logger, rungs ...Engine) *Ladder {
	return &Ladder{
		rungs:  rungs,
		logger: logger,
	}
}

// Name identifies the ladder composition for logs
func (l *Ladder) Name() string {
	name := "ladder("
	for i, e := range l.rungs {
		if i > 0 {
			name += ","
		}
		name += e.Name()
	}
	return name + ")"
}

// Engines returns the configured rungs, in preference order
func (l *Ladder) Engines() []Engine {
	return l.rungs
}

// skippable reports whether the ladder should fall through to the next rung
func skippable(err error) bool {
	if stderrors.Is(err, ErrUnsupported) {
		return true
	}
	return errors.CodeOf(err) == errors.EngineUnavailable
}

func (l *Ladder) noEngine(capability string) error {
	return errors.New(errors.EngineUnavailable,
		fmt.Sprintf("no configured engine can serve %s", capability), nil)
}

// WorkspaceSymbols queries the first engine that serves workspace symbols
func (l *Ladder) WorkspaceSymbols(ctx context.Context, query string) ([]SymbolInformation, error) {
	for _, e := range l.rungs {
		symbols, err := e.WorkspaceSymbols(ctx, query)
		if err != nil {
			if skippable(err) {
				l.logger.Debug("Engine skipped for workspace symbols", map[string]interface{}{
					"engine": e.Name(),
					"reason": err.Error(),
				})
				continue
			}
			return nil, err
		}
		return symbols, nil
	}
	return nil, l.noEngine("workspace/symbol")
}

// DocumentSymbols queries the first engine that serves document outlines
func (l *Ladder) DocumentSymbols(ctx context.Context, uri string) ([]DocumentSymbol, error) {
	for _, e := range l.rungs {
		symbols, err := e.DocumentSymbols(ctx, uri)
		if err != nil {
			if skippable(err) {
				continue
			}
			return nil, err
		}
		return symbols, nil
	}
	return nil, l.noEngine("textDocument/documentSymbol")
}

// References queries the first engine that serves reference lookup
func (l *Ladder) References(ctx context.Context, uri string, pos Position, includeDeclaration bool) ([]Location, error) {
	for _, e := range l.rungs {
		refs, err := e.References(ctx, uri, pos, includeDeclaration)
		if err != nil {
			if skippable(err) {
				continue
			}
			return nil, err
		}
		return refs, nil
	}
	return nil, l.noEngine("textDocument/references")
}

// Hover queries the first engine that serves hover information
func (l *Ladder) Hover(ctx context.Context, uri string, pos Position) (*Hover, error) {
	for _, e := range l.rungs {
		hover, err := e.Hover(ctx, uri, pos)
		if err != nil {
			if skippable(err) {
				continue
			}
			return nil, err
		}
		return hover, nil
	}
	return nil, l.noEngine("textDocument/hover")
}

// OpenDocument offers the document to every rung that accepts documents
func (l *Ladder) OpenDocument(ctx context.Context, uri, languageID, text string) error {
	opened := false
	for _, e := range l.rungs {
		err := e.OpenDocument(ctx, uri, languageID, text)
		if err != nil {
			if skippable(err) {
				continue
			}
			return err
		}
		opened = true
	}
	if !opened {
		return l.noEngine("textDocument/didOpen")
	}
	return nil
}

// Close closes every rung, keeping the first failure
func (l *Ladder) Close() error {
	var firstErr error
	for _, e := range l.rungs {
		if err := e.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
