// Package engine defines the language-intelligence capability the bridge
// relays to. The bridge implements no indexing or parsing of its own;
// concrete engines wrap pre-existing intelligence sources (a language
// server subprocess, a SCIP index file).
package engine

import (
	"context"
	stderrors "errors"
)

// Position is a zero-indexed line/character pair
type Position struct {
	Line      uint32 `json:"line"`
	Character uint32 `json:"character"`
}

// Range is a half-open span between two positions
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Location identifies a range inside a document
type Location struct {
	URI   string `json:"uri"`
	Range Range  `json:"range"`
}

// SymbolInformation is a flat workspace-index entry for a declaration
type SymbolInformation struct {
	Name     string   `json:"name"`
	Kind     int      `json:"kind"`
	Location Location `json:"location"`
}

// DocumentSymbol is a node in a document's symbol outline tree
type DocumentSymbol struct {
	Name           string           `json:"name"`
	Kind           int              `json:"kind"`
	Range          Range            `json:"range"`
	SelectionRange Range            `json:"selectionRange"`
	Children       []DocumentSymbol `json:"children,omitempty"`
}

// Hover carries the engine's hover text for a position. A nil Hover
// means the engine has nothing to say about the position.
type Hover struct {
	Contents string `json:"contents"`
}

// ErrUnsupported is returned by an engine for a capability it does not
// provide. Callers treat it as "try the next engine", not as a failure.
var ErrUnsupported = stderrors.New("capability not supported by this engine")

// Engine is the opaque language-intelligence capability consumed by the
// resolver and aggregator. Implementations must be safe for concurrent
// read queries.
type Engine interface {
	// Name identifies the engine for logs and status output
	Name() string

	// WorkspaceSymbols queries the workspace-wide symbol index
	WorkspaceSymbols(ctx context.Context, query string) ([]SymbolInformation, error)

	// DocumentSymbols returns the symbol outline of a document,
	// including nested children
	DocumentSymbols(ctx context.Context, uri string) ([]DocumentSymbol, error)

	// References returns every reference location for the symbol at the
	// given position
	References(ctx context.Context, uri string, pos Position, includeDeclaration bool) ([]Location, error)

	// Hover returns hover information at a position, or nil when absent
	Hover(ctx context.Context, uri string, pos Position) (*Hover, error)

	// OpenDocument makes a document's content visible to the engine
	OpenDocument(ctx context.Context, uri, languageID, text string) error

	// Close releases engine resources
	Close() error
}
