// Package daemon serves the bridge over a workspace-derived Unix
// socket, speaking Content-Length framed JSON-RPC.
package daemon

import (
	"context"
	"fmt"
	"net"
	"os"
	"runtime/debug"
	"strings"
	"sync"

	"cib/internal/bridge"
	"cib/internal/dispatch"
	"cib/internal/errors"
	"cib/internal/jsonrpc"
	"cib/internal/logging"
)

// Server owns the socket listener lifecycle. The composition root
// creates it, starts it, and shuts it down; there is no package-level
// listener state.
type Server struct {
	address       string
	workspaceRoot string
	service       *bridge.Service
	dispatcher    *dispatch.Dispatcher
	logger        *logging.Logger

	pidFile  *PIDFile
	listener net.Listener

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewServer creates a socket server for the derived endpoint address
func NewServer(address, workspaceRoot string, service *bridge.Service, logger *logging.Logger) *Server {
	s := &Server{
		address:       address,
		workspaceRoot: workspaceRoot,
		service:       service,
		dispatcher:    dispatch.NewDispatcher(logger),
		logger:        logger,
		pidFile:       NewPIDFile(address + ".pid"),
	}
	s.registerHandlers()
	return s
}

// Start binds the socket and serves connections until Shutdown. A bind
// failure is fatal; there is no retry.
func (s *Server) Start() error {
	if strings.HasPrefix(s.address, `\\.\pipe\`) {
		return errors.New(errors.TransportFailed,
			"named pipe endpoints are not served on this platform", nil)
	}

	if err := s.pidFile.Acquire(); err != nil {
		return errors.New(errors.TransportFailed,
			fmt.Sprintf("endpoint %s is already in use", s.address), err)
	}

	// The PID file proved the previous owner is gone, so a leftover
	// socket file is stale.
	if err := os.Remove(s.address); err != nil && !os.IsNotExist(err) {
		_ = s.pidFile.Release()
		return errors.New(errors.TransportFailed,
			fmt.Sprintf("cannot remove stale socket %s", s.address), err)
	}

	listener, err := net.Listen("unix", s.address)
	if err != nil {
		_ = s.pidFile.Release()
		return errors.New(errors.TransportFailed,
			fmt.Sprintf("cannot bind %s", s.address), err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.logger.Info("Listening on endpoint", map[string]interface{}{
		"address": s.address,
	})

	for {
		conn, err := listener.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return nil
			}
			s.logger.Warn("Accept failed", map[string]interface{}{
				"error": err.Error(),
			})
			continue
		}

		s.wg.Add(1)
		go s.serveConnection(conn)
	}
}

// Shutdown stops accepting, waits for in-flight connections, and
// removes the socket
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	listener := s.listener
	s.mu.Unlock()

	if listener != nil {
		_ = listener.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}

	_ = os.Remove(s.address)
	return s.pidFile.Release()
}

// serveConnection runs one framed session. Requests on a connection are
// handled one at a time, in arrival order; connections are independent.
func (s *Server) serveConnection(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Connection handler panicked", map[string]interface{}{
				"error": fmt.Sprintf("%v", r),
				"stack": string(debug.Stack()),
			})
		}
	}()

	var framer jsonrpc.Framer
	buf := make([]byte, 4096)

	for {
		n, err := conn.Read(buf)
		if n > 0 {
			framer.Feed(buf[:n])
			if err := s.drainFramer(conn, &framer); err != nil {
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// drainFramer answers every complete message currently buffered
func (s *Server) drainFramer(conn net.Conn, framer *jsonrpc.Framer) error {
	for {
		msg, err := framer.Next()
		if err != nil {
			s.logger.Warn("Discarding malformed message", map[string]interface{}{
				"error": err.Error(),
			})
			continue
		}
		if msg == nil {
			return nil
		}

		resp := s.dispatcher.Dispatch(context.Background(), msg)
		if resp == nil {
			continue
		}

		data, err := jsonrpc.Encode(resp)
		if err != nil {
			s.logger.Error("Failed to encode response", map[string]interface{}{
				"error": err.Error(),
			})
			continue
		}
		if _, err := conn.Write(data); err != nil {
			return err
		}
	}
}
