package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cib/internal/bridge"
	"cib/internal/config"
	"cib/internal/docs"
	"cib/internal/engine"
	"cib/internal/logging"
)

type stubEngine struct {
	symbols    []engine.SymbolInformation
	references []engine.Location
}

func (s *stubEngine) Name() string { return "stub" }

func (s *stubEngine) WorkspaceSymbols(ctx context.Context, query string) ([]engine.SymbolInformation, error) {
	return s.symbols, nil
}

func (s *stubEngine) DocumentSymbols(ctx context.Context, uri string) ([]engine.DocumentSymbol, error) {
	return nil, engine.ErrUnsupported
}

func (s *stubEngine) References(ctx context.Context, uri string, pos engine.Position, includeDeclaration bool) ([]engine.Location, error) {
	return s.references, nil
}

func (s *stubEngine) Hover(ctx context.Context, uri string, pos engine.Position) (*engine.Hover, error) {
	return nil, nil
}

func (s *stubEngine) OpenDocument(ctx context.Context, uri, languageID, text string) error {
	return nil
}

func (s *stubEngine) Close() error { return nil }

func testServer(t *testing.T) (*Server, string, string) {
	t.Helper()

	root := t.TempDir()
	path := filepath.Join(root, "app.ts")
	if err := os.WriteFile(path, []byte("function greetUser() {}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	uri := docs.URIForPath(path)

	eng := &stubEngine{
		symbols: []engine.SymbolInformation{
			{Name: "greetUser", Location: engine.Location{
				URI:   uri,
				Range: engine.Range{Start: engine.Position{Line: 0, Character: 9}},
			}},
		},
		references: []engine.Location{
			{URI: uri, Range: engine.Range{Start: engine.Position{Line: 8, Character: 4}}},
			{URI: uri, Range: engine.Range{Start: engine.Position{Line: 9, Character: 4}}},
		},
	}

	logger := logging.NewLogger(logging.Config{
		Level:  logging.ErrorLevel,
		Format: logging.JSONFormat,
		Output: io.Discard,
	})
	service := bridge.NewService(root, config.DefaultConfig().Resolver, eng, logger)
	return NewServer("127.0.0.1:0", root, service, logger), root, uri
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON response: %v\n%s", err, rec.Body.String())
	}
	return body
}

func TestHealthEndpoint(t *testing.T) {
	s, root, _ := testServer(t)

	rec := doRequest(t, s, "GET", "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	body := decodeBody(t, rec)
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", body["status"])
	}
	if body["workspace"] != root {
		t.Errorf("Expected workspace %q, got %v", root, body["workspace"])
	}
	if body["timestamp"] == "" {
		t.Error("Expected a timestamp")
	}
}

func TestFindReferences(t *testing.T) {
	s, _, uri := testServer(t)

	rec := doRequest(t, s, "POST", "/api/findReferences", `{"symbolName": "greetUser"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["totalReferences"] != float64(2) {
		t.Errorf("Expected 2 references, got %v", body["totalReferences"])
	}

	symbol, ok := body["symbol"].(map[string]interface{})
	if !ok {
		t.Fatalf("Missing symbol in response: %v", body)
	}
	if symbol["name"] != "greetUser" || symbol["uri"] != uri {
		t.Errorf("Unexpected symbol %v", symbol)
	}
}

func TestFindReferencesMissingName(t *testing.T) {
	s, _, _ := testServer(t)

	for _, body := range []string{`{}`, `{"symbolName": ""}`, `not json`} {
		rec := doRequest(t, s, "POST", "/api/findReferences", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Body %q: expected 400, got %d", body, rec.Code)
			continue
		}
		resp := decodeBody(t, rec)
		if resp["error"] == nil || resp["example"] == nil {
			t.Errorf("Body %q: expected error and example fields, got %v", body, resp)
		}
	}
}

func TestFindReferencesUnknownSymbol(t *testing.T) {
	s, _, _ := testServer(t)

	rec := doRequest(t, s, "POST", "/api/findReferences", `{"symbolName": "NoSuchSymbolXYZ"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["symbolName"] != "NoSuchSymbolXYZ" {
		t.Errorf("Expected the symbol name echoed back, got %v", body)
	}
	if body["error"] == nil || body["message"] == nil {
		t.Errorf("Expected error and message fields, got %v", body)
	}
}

func TestDocumentReferences(t *testing.T) {
	s, _, uri := testServer(t)

	rec := doRequest(t, s, "POST", "/api/textDocument/references",
		`{"uri": "`+uri+`", "position": {"line": 0, "character": 9}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	refs, ok := body["references"].([]interface{})
	if !ok {
		t.Fatalf("Expected a references array, got %v", body)
	}
	if len(refs) != 2 {
		t.Errorf("Expected 2 references, got %d", len(refs))
	}
}

func TestDocumentReferencesMalformedBody(t *testing.T) {
	s, _, _ := testServer(t)

	for _, body := range []string{`not json`, `{}`, `{"uri": "file:///x"}`} {
		rec := doRequest(t, s, "POST", "/api/textDocument/references", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("Body %q: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	s, _, _ := testServer(t)

	rec := doRequest(t, s, "OPTIONS", "/api/findReferences", "")
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 for preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected CORS headers on preflight response")
	}
}

func TestRequestIDEcho(t *testing.T) {
	s, _, _ := testServer(t)

	req := httptest.NewRequest("GET", "/api/health", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") != "fixed-id" {
		t.Errorf("Expected the request ID echoed, got %q", rec.Header().Get("X-Request-ID"))
	}
}
