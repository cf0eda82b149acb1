// Package docs tracks the set of currently-open documents. The resolver's
// fallback scan only ever looks at documents registered here, mirroring an
// editor's open-document list; only file-backed documents are admitted.
package docs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Document is an open, file-backed document
type Document struct {
	URI        string
	Path       string
	LanguageID string
	Text       string
}

// Store is the open-document registry. It is read-mostly: documents are
// opened while scanning and then only read, so an RWMutex suffices.
type Store struct {
	mu    sync.RWMutex
	docs  map[string]*Document
	order []string
}

// NewStore creates an empty document store
func NewStore() *Store {
	return &Store{
		docs: make(map[string]*Document),
	}
}

// Open reads a file from disk and registers it. Opening an already-open
// path returns the existing document; open documents are not reloaded.
func (s *Store) Open(path string) (*Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	uri := URIForPath(abs)

	s.mu.RLock()
	existing, ok := s.docs[uri]
	s.mu.RUnlock()
	if ok {
		return existing, nil
	}

	text, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	doc := &Document{
		URI:        uri,
		Path:       abs,
		LanguageID: LanguageForPath(abs),
		Text:       string(text),
	}

	s.mu.Lock()
	if existing, ok := s.docs[uri]; ok {
		s.mu.Unlock()
		return existing, nil
	}
	s.docs[uri] = doc
	s.order = append(s.order, uri)
	s.mu.Unlock()

	return doc, nil
}

// Get returns the open document for a URI, or nil
func (s *Store) Get(uri string) *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs[uri]
}

// List returns all open documents in opening order
func (s *Store) List() []*Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Document, 0, len(s.order))
	for _, uri := range s.order {
		out = append(out, s.docs[uri])
	}
	return out
}

// Len returns the number of open documents
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// URIForPath converts an absolute filesystem path to a file URI
func URIForPath(path string) string {
	path = filepath.ToSlash(path)
	if !strings.HasPrefix(path, "/") {
		// Windows drive paths need a leading slash in the URI.
		path = "/" + path
	}
	return "file://" + path
}

// PathForURI converts a file URI back to a filesystem path
func PathForURI(uri string) string {
	path := strings.TrimPrefix(uri, "file://")
	return filepath.FromSlash(path)
}

// languageByExt maps file extensions to LSP language identifiers
var languageByExt = map[string]string{
	".go":   "go",
	".ts":   "typescript",
	".tsx":  "typescriptreact",
	".js":   "javascript",
	".jsx":  "javascriptreact",
	".py":   "python",
	".dart": "dart",
	".rs":   "rust",
	".java": "java",
	".rb":   "ruby",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".cs":   "csharp",
}

// LanguageForPath infers the LSP language identifier from a file extension,
// defaulting to "plaintext"
func LanguageForPath(path string) string {
	if lang, ok := languageByExt[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return "plaintext"
}
