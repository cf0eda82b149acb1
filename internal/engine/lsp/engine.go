package lsp

import (
	"context"
	"fmt"
	"sync"

	"cib/internal/config"
	"cib/internal/docs"
	"cib/internal/engine"
	"cib/internal/errors"
	"cib/internal/logging"
)

// Engine relays intelligence queries to language server subprocesses,
// one per configured language, started lazily on first use. It
// implements engine.Engine.
type Engine struct {
	workspaceRoot string
	servers       map[string]config.LspServerCfg
	logger        *logging.Logger

	mu      sync.Mutex
	clients map[string]*Client
	failed  map[string]error
	opened  map[string]bool
}

// New creates an LSP engine from configuration. No server is started
// until a query needs one.
func New(workspaceRoot string, cfg config.LspConfig, logger *logging.Logger) *Engine {
	servers := cfg.Servers
	if !cfg.Enabled {
		servers = nil
	}

	return &Engine{
		workspaceRoot: workspaceRoot,
		servers:       servers,
		logger:        logger,
		clients:       make(map[string]*Client),
		failed:        make(map[string]error),
		opened:        make(map[string]bool),
	}
}

// Name identifies the engine for logs and status output
func (e *Engine) Name() string {
	return "lsp"
}

// clientFor returns the running client for a language, starting it on
// first use. A language whose server failed to start stays failed; the
// bridge is not a process supervisor.
func (e *Engine) clientFor(ctx context.Context, languageID string) (*Client, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if c, ok := e.clients[languageID]; ok {
		return c, nil
	}
	if err, ok := e.failed[languageID]; ok {
		return nil, err
	}

	server, ok := e.servers[languageID]
	if !ok {
		return nil, errors.New(errors.EngineUnavailable,
			fmt.Sprintf("no language server configured for %q", languageID), nil)
	}

	e.logger.Info("Starting language server", map[string]interface{}{
		"languageId": languageID,
		"command":    server.Command,
	})

	c, err := StartClient(ctx, languageID, server.Command, server.Args, e.workspaceRoot, e.logger)
	if err != nil {
		e.failed[languageID] = err
		return nil, err
	}

	e.clients[languageID] = c
	return c, nil
}

// clientForURI routes a document URI to its language's client
func (e *Engine) clientForURI(ctx context.Context, uri string) (*Client, error) {
	return e.clientFor(ctx, docs.LanguageForPath(docs.PathForURI(uri)))
}

// allClients starts every configured server and returns the ones running
func (e *Engine) allClients(ctx context.Context) []*Client {
	out := make([]*Client, 0, len(e.servers))
	for languageID := range e.servers {
		c, err := e.clientFor(ctx, languageID)
		if err != nil {
			continue
		}
		out = append(out, c)
	}
	return out
}

// WorkspaceSymbols fans the query out across running servers and returns
// the first non-empty answer
func (e *Engine) WorkspaceSymbols(ctx context.Context, query string) ([]engine.SymbolInformation, error) {
	if len(e.servers) == 0 {
		return nil, errors.New(errors.EngineUnavailable, "no language servers configured", nil)
	}

	clients := e.allClients(ctx)
	if len(clients) == 0 {
		return nil, errors.New(errors.EngineUnavailable, "no language server could be started", nil)
	}

	var lastErr error
	answered := false
	for _, c := range clients {
		result, err := c.Call(ctx, "workspace/symbol", map[string]interface{}{
			"query": query,
		})
		if err != nil {
			lastErr = err
			continue
		}
		answered = true

		symbols, err := parseSymbolInformation(result)
		if err != nil {
			lastErr = errors.New(errors.EngineFailed, "malformed workspace/symbol result", err)
			continue
		}
		if len(symbols) > 0 {
			return symbols, nil
		}
	}

	if answered {
		return nil, nil
	}
	return nil, lastErr
}

// DocumentSymbols returns the outline of one document
func (e *Engine) DocumentSymbols(ctx context.Context, uri string) ([]engine.DocumentSymbol, error) {
	c, err := e.clientForURI(ctx, uri)
	if err != nil {
		return nil, err
	}

	result, err := c.Call(ctx, "textDocument/documentSymbol", map[string]interface{}{
		"textDocument": map[string]interface{}{"uri": uri},
	})
	if err != nil {
		return nil, err
	}

	symbols, err := parseDocumentSymbols(result)
	if err != nil {
		return nil, errors.New(errors.EngineFailed, "malformed documentSymbol result", err)
	}
	return symbols, nil
}

// References returns every reference location for the symbol at pos
func (e *Engine) References(ctx context.Context, uri string, pos engine.Position, includeDeclaration bool) ([]engine.Location, error) {
	c, err := e.clientForURI(ctx, uri)
	if err != nil {
		return nil, err
	}

	result, err := c.Call(ctx, "textDocument/references", map[string]interface{}{
		"textDocument": map[string]interface{}{"uri": uri},
		"position":     map[string]interface{}{"line": pos.Line, "character": pos.Character},
		"context":      map[string]interface{}{"includeDeclaration": includeDeclaration},
	})
	if err != nil {
		return nil, err
	}

	locations, err := parseLocations(result)
	if err != nil {
		return nil, errors.New(errors.EngineFailed, "malformed references result", err)
	}
	return locations, nil
}

// Hover returns hover information at pos, or nil when the server has none
func (e *Engine) Hover(ctx context.Context, uri string, pos engine.Position) (*engine.Hover, error) {
	c, err := e.clientForURI(ctx, uri)
	if err != nil {
		return nil, err
	}

	result, err := c.Call(ctx, "textDocument/hover", map[string]interface{}{
		"textDocument": map[string]interface{}{"uri": uri},
		"position":     map[string]interface{}{"line": pos.Line, "character": pos.Character},
	})
	if err != nil {
		return nil, err
	}

	return parseHover(result), nil
}

// OpenDocument sends didOpen for the document, once per URI
func (e *Engine) OpenDocument(ctx context.Context, uri, languageID, text string) error {
	c, err := e.clientFor(ctx, languageID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	if e.opened[uri] {
		e.mu.Unlock()
		return nil
	}
	e.opened[uri] = true
	e.mu.Unlock()

	return c.Notify("textDocument/didOpen", map[string]interface{}{
		"textDocument": map[string]interface{}{
			"uri":        uri,
			"languageId": languageID,
			"version":    1,
			"text":       text,
		},
	})
}

// Close shuts down every running language server
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for languageID, c := range e.clients {
		_ = c.Close()
		delete(e.clients, languageID)
	}
	return nil
}
