package engine

import (
	"context"
	"io"
	"testing"

	"cib/internal/errors"
	"cib/internal/logging"
)

// fakeEngine is a scriptable Engine for ladder tests
type fakeEngine struct {
	name       string
	symbols    []SymbolInformation
	symbolsErr error
	refs       []Location
	refsErr    error
	hover      *Hover
	hoverErr   error
	outline    []DocumentSymbol
	outlineErr error
	openErr    error
	calls      int
}

func (f *fakeEngine) Name() string { return f.name }

func (f *fakeEngine) WorkspaceSymbols(ctx context.Context, query string) ([]SymbolInformation, error) {
	f.calls++
	return f.symbols, f.symbolsErr
}

func (f *fakeEngine) DocumentSymbols(ctx context.Context, uri string) ([]DocumentSymbol, error) {
	return f.outline, f.outlineErr
}

func (f *fakeEngine) References(ctx context.Context, uri string, pos Position, includeDeclaration bool) ([]Location, error) {
	return f.refs, f.refsErr
}

func (f *fakeEngine) Hover(ctx context.Context, uri string, pos Position) (*Hover, error) {
	return f.hover, f.hoverErr
}

func (f *fakeEngine) OpenDocument(ctx context.Context, uri, languageID, text string) error {
	return f.openErr
}

func (f *fakeEngine) Close() error { return nil }

func testLogger() *logging.Logger {
	return logging.NewLogger(logging.Config{
		Level:  logging.ErrorLevel,
		Format: logging.JSONFormat,
		Output: io.Discard,
	})
}

func TestLadderPrefersFirstRung(t *testing.T) {
	first := &fakeEngine{name: "scip", symbols: []SymbolInformation{{Name: "greetUser"}}}
	second := &fakeEngine{name: "lsp", symbols: []SymbolInformation{{Name: "other"}}}
	ladder := NewLadder(testLogger(), first, second)

	symbols, err := ladder.WorkspaceSymbols(context.Background(), "greetUser")
	if err != nil {
		t.Fatalf("WorkspaceSymbols failed: %v", err)
	}
	if len(symbols) != 1 || symbols[0].Name != "greetUser" {
		t.Errorf("Expected first rung's answer, got %+v", symbols)
	}
	if second.calls != 0 {
		t.Error("Second rung should not have been queried")
	}
}

func TestLadderFallsThroughUnsupported(t *testing.T) {
	first := &fakeEngine{name: "scip", symbolsErr: ErrUnsupported}
	second := &fakeEngine{name: "lsp", symbols: []SymbolInformation{{Name: "greetUser"}}}
	ladder := NewLadder(testLogger(), first, second)

	symbols, err := ladder.WorkspaceSymbols(context.Background(), "greetUser")
	if err != nil {
		t.Fatalf("WorkspaceSymbols failed: %v", err)
	}
	if len(symbols) != 1 {
		t.Errorf("Expected fallback answer, got %+v", symbols)
	}
}

func TestLadderFallsThroughUnavailable(t *testing.T) {
	first := &fakeEngine{
		name:     "scip",
		hoverErr: errors.New(errors.EngineUnavailable, "index not loaded", nil),
	}
	second := &fakeEngine{name: "lsp", hover: &Hover{Contents: "func greetUser()"}}
	ladder := NewLadder(testLogger(), first, second)

	hover, err := ladder.Hover(context.Background(), "file:///main.go", Position{})
	if err != nil {
		t.Fatalf("Hover failed: %v", err)
	}
	if hover == nil || hover.Contents != "func greetUser()" {
		t.Errorf("Expected fallback hover, got %+v", hover)
	}
}

func TestLadderPropagatesRealFailures(t *testing.T) {
	first := &fakeEngine{
		name:    "lsp",
		refsErr: errors.New(errors.EngineFailed, "references query failed", nil),
	}
	second := &fakeEngine{name: "scip", refs: []Location{{URI: "file:///a.go"}}}
	ladder := NewLadder(testLogger(), first, second)

	_, err := ladder.References(context.Background(), "file:///a.go", Position{}, true)
	if err == nil {
		t.Fatal("Expected the real failure to propagate, not fall through")
	}
	if errors.CodeOf(err) != errors.EngineFailed {
		t.Errorf("Expected ENGINE_FAILED, got %v", errors.CodeOf(err))
	}
}

func TestLadderAllRungsExhausted(t *testing.T) {
	first := &fakeEngine{name: "scip", symbolsErr: ErrUnsupported}
	second := &fakeEngine{name: "lsp", symbolsErr: errors.New(errors.EngineUnavailable, "not running", nil)}
	ladder := NewLadder(testLogger(), first, second)

	_, err := ladder.WorkspaceSymbols(context.Background(), "anything")
	if err == nil {
		t.Fatal("Expected an error when every rung is skipped")
	}
	if errors.CodeOf(err) != errors.EngineUnavailable {
		t.Errorf("Expected ENGINE_UNAVAILABLE, got %v", errors.CodeOf(err))
	}
}

func TestLadderOpenDocumentBestEffort(t *testing.T) {
	first := &fakeEngine{name: "scip", openErr: ErrUnsupported}
	second := &fakeEngine{name: "lsp"}
	ladder := NewLadder(testLogger(), first, second)

	if err := ladder.OpenDocument(context.Background(), "file:///a.go", "go", "package a"); err != nil {
		t.Errorf("Expected open to succeed via second rung, got %v", err)
	}
}
