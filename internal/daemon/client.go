package daemon

import (
	"fmt"
	"net"
	"time"

	"cib/internal/errors"
	"cib/internal/jsonrpc"
)

// Client talks to a running bridge over its socket. The server enforces
// no timeout, so the client bounds every call locally and abandons the
// request id when the deadline passes.
type Client struct {
	conn    net.Conn
	framer  jsonrpc.Framer
	timeout time.Duration
	nextID  int

	// ids whose responses were abandoned by an earlier timeout
	stale map[int]bool
}

// Dial connects to the bridge at the given endpoint address
func Dial(address string, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout("unix", address, timeout)
	if err != nil {
		return nil, errors.New(errors.TransportFailed,
			fmt.Sprintf("cannot connect to bridge at %s", address), err)
	}

	return &Client{
		conn:    conn,
		timeout: timeout,
		stale:   make(map[int]bool),
	}, nil
}

// Call sends one request and waits for its correlated response
func (c *Client) Call(method string, params interface{}) (interface{}, error) {
	c.nextID++
	id := c.nextID

	msg, err := jsonrpc.NewRequest(id, method, params)
	if err != nil {
		return nil, err
	}
	data, err := jsonrpc.Encode(msg)
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(c.timeout)
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, errors.New(errors.TransportFailed, "cannot arm call deadline", err)
	}
	if _, err := c.conn.Write(data); err != nil {
		return nil, errors.New(errors.TransportFailed,
			fmt.Sprintf("failed to send %s request", method), err)
	}

	buf := make([]byte, 4096)
	for {
		resp, err := c.framer.Next()
		if err != nil {
			continue
		}
		if resp != nil {
			if !resp.IsResponse() {
				continue
			}
			if c.stale[*resp.Id] {
				// Late answer to an abandoned request.
				delete(c.stale, *resp.Id)
				continue
			}
			if *resp.Id != id {
				continue
			}
			if resp.Error != nil {
				return nil, responseError(resp.Error)
			}
			return resp.Result, nil
		}

		n, err := c.conn.Read(buf)
		if n > 0 {
			c.framer.Feed(buf[:n])
			continue
		}
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				c.stale[id] = true
				return nil, errors.New(errors.Timeout,
					fmt.Sprintf("%s request timed out after %s", method, c.timeout), nil)
			}
			return nil, errors.New(errors.TransportFailed, "connection to bridge lost", err)
		}
	}
}

// Close closes the connection
func (c *Client) Close() error {
	return c.conn.Close()
}

// responseError turns a JSON-RPC error into a typed failure
func responseError(rpcErr *jsonrpc.RpcError) error {
	code := errors.EngineFailed
	switch rpcErr.Code {
	case jsonrpc.InvalidParams:
		code = errors.ValidationFailed
	case -31404:
		code = errors.SymbolNotFound
	}
	return errors.New(code, rpcErr.Message, nil)
}
