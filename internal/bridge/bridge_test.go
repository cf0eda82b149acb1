package bridge

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"cib/internal/config"
	"cib/internal/docs"
	"cib/internal/engine"
	"cib/internal/errors"
	"cib/internal/logging"
)

func testLogger() *logging.Logger {
	return logging.NewLogger(logging.Config{
		Level:  logging.ErrorLevel,
		Format: logging.JSONFormat,
		Output: io.Discard,
	})
}

// fakeEngine scripts the engine answers and records which capabilities
// were exercised.
type fakeEngine struct {
	workspaceSymbols []engine.SymbolInformation
	documentSymbols  map[string][]engine.DocumentSymbol
	references       []engine.Location
	hover            *engine.Hover
	hoverErr         error

	calls []string
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) WorkspaceSymbols(ctx context.Context, query string) ([]engine.SymbolInformation, error) {
	f.calls = append(f.calls, "workspaceSymbols")
	return f.workspaceSymbols, nil
}

func (f *fakeEngine) DocumentSymbols(ctx context.Context, uri string) ([]engine.DocumentSymbol, error) {
	f.calls = append(f.calls, "documentSymbols")
	if f.documentSymbols == nil {
		return nil, engine.ErrUnsupported
	}
	return f.documentSymbols[uri], nil
}

func (f *fakeEngine) References(ctx context.Context, uri string, pos engine.Position, includeDeclaration bool) ([]engine.Location, error) {
	f.calls = append(f.calls, "references")
	return f.references, nil
}

func (f *fakeEngine) Hover(ctx context.Context, uri string, pos engine.Position) (*engine.Hover, error) {
	f.calls = append(f.calls, "hover")
	return f.hover, f.hoverErr
}

func (f *fakeEngine) OpenDocument(ctx context.Context, uri, languageID, text string) error {
	return nil
}

func (f *fakeEngine) Close() error { return nil }

const appSource = `import { log } from "./log"

function greetUser(name: string): string {
  return "Hello, " + name
}

function main() {
  log(greetUser("ada"))
  log(greetUser("grace"))
  const g = greetUser
  console.log(g("alan"))
}

export { greetUser }
`

func writeWorkspaceFile(t *testing.T, root, name, content string) string {
	t.Helper()
	path := filepath.Join(root, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestService(t *testing.T, root string, eng engine.Engine) *Service {
	t.Helper()
	return NewService(root, config.DefaultConfig().Resolver, eng, testLogger())
}

func greetUserFixture(t *testing.T) (string, string, *fakeEngine) {
	t.Helper()
	root := t.TempDir()
	path := writeWorkspaceFile(t, root, "src/app.ts", appSource)
	uri := docs.URIForPath(path)

	eng := &fakeEngine{
		workspaceSymbols: []engine.SymbolInformation{
			{Name: "greetUser", Location: engine.Location{
				URI:   uri,
				Range: engine.Range{Start: engine.Position{Line: 2, Character: 9}, End: engine.Position{Line: 2, Character: 18}},
			}},
		},
		references: []engine.Location{
			{URI: uri, Range: engine.Range{Start: engine.Position{Line: 7, Character: 6}}},
			{URI: uri, Range: engine.Range{Start: engine.Position{Line: 8, Character: 6}}},
			{URI: uri, Range: engine.Range{Start: engine.Position{Line: 9, Character: 12}}},
			{URI: uri, Range: engine.Range{Start: engine.Position{Line: 13, Character: 9}}},
		},
	}
	return root, uri, eng
}

func TestFindReferences(t *testing.T) {
	root, uri, eng := greetUserFixture(t)
	svc := newTestService(t, root, eng)

	result, err := svc.FindReferences(context.Background(), "greetUser")
	if err != nil {
		t.Fatalf("FindReferences failed: %v", err)
	}

	if result.Symbol.Name != "greetUser" || result.Symbol.URI != uri {
		t.Errorf("Unexpected symbol %+v", result.Symbol)
	}
	if result.Symbol.Position.Line != 2 {
		t.Errorf("Expected declaration on line 2, got %d", result.Symbol.Position.Line)
	}
	if result.TotalReferences != 4 {
		t.Errorf("Expected 4 references, got %d", result.TotalReferences)
	}
	if len(result.References) != result.TotalReferences {
		t.Errorf("Count disagrees with the reference list")
	}
}

func TestFindReferencesExcludesDeclaration(t *testing.T) {
	root, uri, eng := greetUserFixture(t)
	// A server that returns the declaration among the references.
	eng.references = append([]engine.Location{
		{URI: uri, Range: engine.Range{Start: engine.Position{Line: 2, Character: 9}}},
	}, eng.references...)
	svc := newTestService(t, root, eng)

	result, err := svc.FindReferences(context.Background(), "greetUser")
	if err != nil {
		t.Fatalf("FindReferences failed: %v", err)
	}
	if result.TotalReferences != 4 {
		t.Errorf("Expected the declaration to be dropped, got %d references", result.TotalReferences)
	}
	for _, ref := range result.References {
		if ref.Range.Start == result.Symbol.Position {
			t.Errorf("Declaration leaked into the references: %+v", ref)
		}
	}
}

func TestFindReferencesIsRepeatable(t *testing.T) {
	root, _, eng := greetUserFixture(t)
	svc := newTestService(t, root, eng)

	first, err := svc.FindReferences(context.Background(), "greetUser")
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.FindReferences(context.Background(), "greetUser")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("Expected identical results for repeated queries")
	}
}

func TestResolveEmptyName(t *testing.T) {
	eng := &fakeEngine{}
	svc := newTestService(t, t.TempDir(), eng)

	for _, name := range []string{"", "   "} {
		_, err := svc.Resolve(context.Background(), name)
		if errors.CodeOf(err) != errors.ValidationFailed {
			t.Errorf("Resolve(%q): expected VALIDATION_FAILED, got %v", name, err)
		}
	}
	if len(eng.calls) != 0 {
		t.Errorf("Expected no engine calls for invalid input, got %v", eng.calls)
	}
}

func TestResolveUnknownSymbol(t *testing.T) {
	root, _, eng := greetUserFixture(t)
	svc := newTestService(t, root, eng)

	_, err := svc.Resolve(context.Background(), "NoSuchSymbolXYZ")
	if errors.CodeOf(err) != errors.SymbolNotFound {
		t.Errorf("Expected SYMBOL_NOT_FOUND, got %v", err)
	}
}

func TestResolveViaOutline(t *testing.T) {
	root := t.TempDir()
	path := writeWorkspaceFile(t, root, "src/app.ts", appSource)
	uri := docs.URIForPath(path)

	eng := &fakeEngine{
		documentSymbols: map[string][]engine.DocumentSymbol{
			uri: {
				{Name: "AppModule", Kind: 2, Children: []engine.DocumentSymbol{
					{Name: "greetUser", Kind: 12,
						Range:          engine.Range{Start: engine.Position{Line: 2, Character: 0}, End: engine.Position{Line: 4, Character: 1}},
						SelectionRange: engine.Range{Start: engine.Position{Line: 2, Character: 9}, End: engine.Position{Line: 2, Character: 18}}},
				}},
			},
		},
	}
	svc := newTestService(t, root, eng)

	sym, err := svc.Resolve(context.Background(), "greetUser")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if sym.URI != uri {
		t.Errorf("Unexpected URI %q", sym.URI)
	}
	if sym.Position.Line != 2 || sym.Position.Character != 9 {
		t.Errorf("Expected the nested selection position, got %+v", sym.Position)
	}
}

func TestResolveViaTextScan(t *testing.T) {
	root := t.TempDir()
	path := writeWorkspaceFile(t, root, "src/app.ts", appSource)
	uri := docs.URIForPath(path)

	eng := &fakeEngine{
		hover: &engine.Hover{Contents: "function greetUser(name: string): string"},
	}
	svc := newTestService(t, root, eng)

	sym, err := svc.Resolve(context.Background(), "greetUser")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if sym.URI != uri {
		t.Errorf("Unexpected URI %q", sym.URI)
	}
	// First whole-word occurrence is the declaration on line 2.
	if sym.Position.Line != 2 || sym.Position.Character != 9 {
		t.Errorf("Unexpected position %+v", sym.Position)
	}

	found := false
	for _, call := range eng.calls {
		if call == "hover" {
			found = true
		}
	}
	if !found {
		t.Error("Expected the text scan to probe with hover")
	}
}

func TestResolveTextScanRejectsUnconfirmedMatch(t *testing.T) {
	root := t.TempDir()
	writeWorkspaceFile(t, root, "notes.go", "package notes\n\n// mentions greetUser in a comment only\n")

	eng := &fakeEngine{hover: nil}
	svc := newTestService(t, root, eng)

	_, err := svc.Resolve(context.Background(), "greetUser")
	if errors.CodeOf(err) != errors.SymbolNotFound {
		t.Errorf("Expected SYMBOL_NOT_FOUND for an unconfirmed match, got %v", err)
	}
}

func TestPositionOfCountsUTF16Columns(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		offset   int
		wantLine uint32
		wantChar uint32
	}{
		{"ascii", "ab cd", 3, 0, 3},
		{"second line", "ab\ncd", 3, 1, 0},
		{"accented prefix", "héllo greetUser", 7, 0, 6},
		{"surrogate pair prefix", "\U0001F642 greetUser", 5, 0, 3},
		{"multibyte on earlier line", "héllo\ngreetUser", 7, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos := positionOf(tt.text, tt.offset)
			if pos.Line != tt.wantLine || pos.Character != tt.wantChar {
				t.Errorf("positionOf(%q, %d) = %d:%d, want %d:%d",
					tt.text, tt.offset, pos.Line, pos.Character, tt.wantLine, tt.wantChar)
			}
		})
	}
}

func TestReferencesAtReturnsEmptySlice(t *testing.T) {
	root, uri, eng := greetUserFixture(t)
	eng.references = nil
	svc := newTestService(t, root, eng)

	refs, err := svc.ReferencesAt(context.Background(), uri, engine.Position{Line: 2, Character: 9}, true)
	if err != nil {
		t.Fatalf("ReferencesAt failed: %v", err)
	}
	if refs == nil {
		t.Fatal("Expected a non-nil slice")
	}
	if len(refs) != 0 {
		t.Errorf("Expected no references, got %d", len(refs))
	}
}
