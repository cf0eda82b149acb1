package bridge

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf16"

	"cib/internal/engine"
	"cib/internal/errors"
)

// Symbol is a resolved symbol: its name and the position of its
// declaration.
type Symbol struct {
	Name     string          `json:"name"`
	URI      string          `json:"uri"`
	Position engine.Position `json:"position"`
}

// Resolve turns a symbol name into a declaration position. It tries the
// cheapest strategy first: an exact workspace-symbol match, then the
// outline of each open document, then a text scan confirmed by a hover
// probe. Resolution is read-only, so repeated calls for the same name
// return the same answer while the workspace is unchanged.
func (s *Service) Resolve(ctx context.Context, name string) (*Symbol, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New(errors.ValidationFailed, "symbolName must be a non-empty string", nil)
	}

	if sym, err := s.resolveByWorkspaceQuery(ctx, name); err != nil {
		return nil, err
	} else if sym != nil {
		return sym, nil
	}

	if err := s.ensureDocumentsOpen(ctx); err != nil {
		return nil, err
	}

	if sym, err := s.resolveByOutline(ctx, name); err != nil {
		return nil, err
	} else if sym != nil {
		return sym, nil
	}

	if sym, err := s.resolveByTextScan(ctx, name); err != nil {
		return nil, err
	} else if sym != nil {
		return sym, nil
	}

	return nil, errors.New(errors.SymbolNotFound,
		fmt.Sprintf("symbol %q was not found in the workspace", name), nil)
}

// resolveByWorkspaceQuery asks the engine for workspace symbols and
// keeps only an exact name match
func (s *Service) resolveByWorkspaceQuery(ctx context.Context, name string) (*Symbol, error) {
	symbols, err := s.engine.WorkspaceSymbols(ctx, name)
	if err != nil {
		if errors.CodeOf(err) == errors.EngineUnavailable {
			return nil, nil
		}
		return nil, err
	}

	for _, sym := range symbols {
		if sym.Name == name {
			return &Symbol{
				Name:     name,
				URI:      sym.Location.URI,
				Position: sym.Location.Range.Start,
			}, nil
		}
	}
	return nil, nil
}

// resolveByOutline walks the outline of every open document looking for
// a symbol with the requested name
func (s *Service) resolveByOutline(ctx context.Context, name string) (*Symbol, error) {
	for _, doc := range s.store.List() {
		symbols, err := s.engine.DocumentSymbols(ctx, doc.URI)
		if err != nil {
			if skippableResolveError(err) {
				continue
			}
			return nil, err
		}

		if pos := findInOutline(symbols, name); pos != nil {
			return &Symbol{Name: name, URI: doc.URI, Position: *pos}, nil
		}
	}
	return nil, nil
}

// findInOutline searches a symbol tree depth-first and returns the
// selection position of the first match
func findInOutline(symbols []engine.DocumentSymbol, name string) *engine.Position {
	for _, sym := range symbols {
		if sym.Name == name {
			pos := sym.SelectionRange.Start
			return &pos
		}
		if pos := findInOutline(sym.Children, name); pos != nil {
			return pos
		}
	}
	return nil
}

// resolveByTextScan finds a whole-word textual occurrence of the name
// and confirms with a hover probe that the engine knows a symbol there
func (s *Service) resolveByTextScan(ctx context.Context, name string) (*Symbol, error) {
	pattern, err := regexp.Compile(`\b` + regexp.QuoteMeta(name) + `\b`)
	if err != nil {
		return nil, errors.New(errors.ValidationFailed,
			fmt.Sprintf("symbol name %q cannot be searched", name), err)
	}

	for _, doc := range s.store.List() {
		loc := pattern.FindStringIndex(doc.Text)
		if loc == nil {
			continue
		}
		pos := positionOf(doc.Text, loc[0])

		hover, err := s.engine.Hover(ctx, doc.URI, pos)
		if err != nil {
			if errors.CodeOf(err) == errors.EngineUnavailable {
				// No engine can confirm; trust the textual match.
				return &Symbol{Name: name, URI: doc.URI, Position: pos}, nil
			}
			if skippableResolveError(err) {
				continue
			}
			return nil, err
		}
		if hover != nil {
			return &Symbol{Name: name, URI: doc.URI, Position: pos}, nil
		}
	}
	return nil, nil
}

// positionOf converts a byte offset into a zero-indexed position. The
// character coordinate counts UTF-16 code units, matching the column
// semantics language servers use, so the hover probe lands on the right
// column even when non-ASCII text precedes the match.
func positionOf(text string, offset int) engine.Position {
	var line, lineStart int
	for i := 0; i < offset; i++ {
		if text[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	return engine.Position{
		Line:      uint32(line),
		Character: uint32(len(utf16.Encode([]rune(text[lineStart:offset])))),
	}
}

// skippableResolveError reports whether a per-document engine failure
// should end the search or just move it to the next document
func skippableResolveError(err error) bool {
	if err == engine.ErrUnsupported {
		return true
	}
	switch errors.CodeOf(err) {
	case errors.EngineUnavailable, errors.Timeout:
		return true
	}
	return false
}
