// Package lsp implements the engine capability over a language server
// subprocess speaking JSON-RPC on stdio.
package lsp

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"cib/internal/errors"
	"cib/internal/jsonrpc"
	"cib/internal/logging"
)

// defaultRequestTimeout bounds a single request to the language server
const defaultRequestTimeout = 30 * time.Second

// Client manages one language server subprocess: it frames outgoing
// requests, correlates responses by id, and answers server-initiated
// requests with an empty result so the server never stalls on us.
type Client struct {
	languageID    string
	workspaceRoot string

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser

	writeMu sync.Mutex

	requestsMu sync.Mutex
	nextID     int
	pending    map[int]chan *jsonrpc.Message

	done      chan struct{}
	closeOnce sync.Once

	timeout time.Duration
	logger  *logging.Logger
}

// StartClient spawns the language server process, wires its stdio, and
// performs the initialize handshake
func StartClient(ctx context.Context, languageID, command string, args []string, workspaceRoot string, logger *logging.Logger) (*Client, error) {
	cmd := exec.Command(command, args...)
	cmd.Dir = workspaceRoot

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, errors.New(errors.EngineUnavailable,
			fmt.Sprintf("failed to start language server %q", command), err)
	}

	c := &Client{
		languageID:    languageID,
		workspaceRoot: workspaceRoot,
		cmd:           cmd,
		stdin:         stdin,
		stdout:        stdout,
		stderr:        stderr,
		pending:       make(map[int]chan *jsonrpc.Message),
		done:          make(chan struct{}),
		timeout:       defaultRequestTimeout,
		logger:        logger,
	}

	go c.readLoop()
	go c.drainStderr()

	if err := c.initialize(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}

	return c, nil
}

// initialize runs the LSP initialize handshake
func (c *Client) initialize(ctx context.Context) error {
	rootURI := "file://" + c.workspaceRoot

	params := map[string]interface{}{
		"processId": os.Getpid(),
		"rootUri":   rootURI,
		"capabilities": map[string]interface{}{
			"textDocument": map[string]interface{}{
				"documentSymbol": map[string]interface{}{
					"hierarchicalDocumentSymbolSupport": true,
				},
			},
		},
		"workspaceFolders": []map[string]interface{}{
			{"uri": rootURI, "name": "workspace"},
		},
	}

	if _, err := c.Call(ctx, "initialize", params); err != nil {
		return errors.New(errors.EngineUnavailable,
			fmt.Sprintf("initialize handshake failed for %s server", c.languageID), err)
	}

	return c.Notify("initialized", map[string]interface{}{})
}

// Call sends a request and waits for the correlated response
func (c *Client) Call(ctx context.Context, method string, params interface{}) (interface{}, error) {
	c.requestsMu.Lock()
	select {
	case <-c.done:
		c.requestsMu.Unlock()
		return nil, errors.New(errors.EngineUnavailable, "language server is shut down", nil)
	default:
	}
	id := c.nextID
	c.nextID++
	respChan := make(chan *jsonrpc.Message, 1)
	c.pending[id] = respChan
	c.requestsMu.Unlock()

	msg, err := jsonrpc.NewRequest(id, method, params)
	if err != nil {
		c.forget(id)
		return nil, err
	}

	if err := c.writeMessage(msg); err != nil {
		c.forget(id)
		return nil, errors.New(errors.EngineFailed,
			fmt.Sprintf("failed to send %s request", method), err)
	}

	select {
	case resp, ok := <-respChan:
		if !ok {
			return nil, errors.New(errors.EngineUnavailable, "language server exited mid-request", nil)
		}
		if resp.Error != nil {
			return nil, errors.New(errors.EngineFailed,
				fmt.Sprintf("language server error [%d]: %s", resp.Error.Code, resp.Error.Message), nil)
		}
		return resp.Result, nil
	case <-time.After(c.timeout):
		c.forget(id)
		return nil, errors.New(errors.Timeout,
			fmt.Sprintf("%s request timed out after %s", method, c.timeout), nil)
	case <-ctx.Done():
		c.forget(id)
		return nil, errors.New(errors.Timeout,
			fmt.Sprintf("%s request cancelled", method), ctx.Err())
	case <-c.done:
		return nil, errors.New(errors.EngineUnavailable, "language server shutting down", nil)
	}
}

// Notify sends a notification; no response is expected
func (c *Client) Notify(method string, params interface{}) error {
	msg := &jsonrpc.Message{
		Jsonrpc: "2.0",
		Method:  method,
	}
	if params != nil {
		req, err := jsonrpc.NewRequest(0, method, params)
		if err != nil {
			return err
		}
		msg.Params = req.Params
	}

	return c.writeMessage(msg)
}

// forget abandons correlation tracking for a request id
func (c *Client) forget(id int) {
	c.requestsMu.Lock()
	delete(c.pending, id)
	c.requestsMu.Unlock()
}

// writeMessage frames and writes one message to the server's stdin
func (c *Client) writeMessage(msg *jsonrpc.Message) error {
	data, err := jsonrpc.Encode(msg)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err = c.stdin.Write(data)
	return err
}

// readLoop decodes messages from the server's stdout until EOF
func (c *Client) readLoop() {
	defer func() {
		// Wake every waiter; the process is gone.
		c.requestsMu.Lock()
		for _, ch := range c.pending {
			close(ch)
		}
		c.pending = make(map[int]chan *jsonrpc.Message)
		c.requestsMu.Unlock()
	}()

	var framer jsonrpc.Framer
	buf := make([]byte, 4096)

	for {
		n, err := c.stdout.Read(buf)
		if n > 0 {
			framer.Feed(buf[:n])
			c.drainFramer(&framer)
		}
		if err != nil {
			return
		}
	}
}

// drainFramer handles every complete message currently buffered
func (c *Client) drainFramer(framer *jsonrpc.Framer) {
	for {
		msg, err := framer.Next()
		if err != nil {
			// Undecodable body; the framer already resynchronized.
			c.logger.Warn("Discarding malformed message from language server", map[string]interface{}{
				"languageId": c.languageID,
				"error":      err.Error(),
			})
			continue
		}
		if msg == nil {
			return
		}
		c.handleMessage(msg)
	}
}

// handleMessage routes one decoded message
func (c *Client) handleMessage(msg *jsonrpc.Message) {
	if msg.IsResponse() {
		c.requestsMu.Lock()
		respChan, ok := c.pending[*msg.Id]
		if ok {
			delete(c.pending, *msg.Id)
		}
		c.requestsMu.Unlock()

		if ok {
			respChan <- msg
		}
		return
	}

	if msg.IsRequest() {
		// Server-initiated traffic (diagnostics, progress, config
		// requests). Requests get an empty result so the server does
		// not block; notifications are dropped.
		if msg.Id != nil {
			_ = c.writeMessage(jsonrpc.NewResponse(msg.Id, nil))
		}
	}
}

// drainStderr consumes stderr so the child never blocks on a full pipe
func (c *Client) drainStderr() {
	buf := make([]byte, 4096)
	for {
		n, err := c.stderr.Read(buf)
		if n > 0 {
			c.logger.Debug("Language server stderr", map[string]interface{}{
				"languageId": c.languageID,
				"output":     string(buf[:n]),
			})
		}
		if err != nil {
			return
		}
	}
}

// Close shuts the language server down, forcefully if needed
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		// Best-effort polite shutdown before the kill. shutdown is a
		// request, so wait briefly for the server to acknowledge it.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_, _ = c.Call(ctx, "shutdown", nil)
		cancel()
		_ = c.Notify("exit", nil)

		close(c.done)
		_ = c.stdin.Close()

		if c.cmd != nil && c.cmd.Process != nil {
			_ = c.cmd.Process.Kill()
		}
		if c.cmd != nil {
			_ = c.cmd.Wait()
		}
	})
	return nil
}
