// Package client is the thin dialer side of the daemon protocol, used
// by the one-shot CLI and the end-to-end tests.
package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/compd-sh/compd/internal/daemon"
)

// DefaultTimeout bounds dial plus one request/response round trip. The
// shell is blocked while we wait, so this errs on the aggressive side.
const DefaultTimeout = 500 * time.Millisecond

// Client talks to a running compd daemon.
type Client struct {
	socket  string
	timeout time.Duration
}

// New creates a client for the daemon at socket.
func New(socket string) *Client {
	return &Client{socket: socket, timeout: DefaultTimeout}
}

// WithTimeout overrides the round-trip timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.timeout = d
	return c
}

// reply covers both response shapes; Code is empty on success.
type reply struct {
	Suggestions []daemon.WireSuggestion `json:"suggestions"`
	Error       string                  `json:"error"`
	Code        string                  `json:"code"`
}

// Complete sends one request and decodes one response. A non-empty
// error code in the response is surfaced as an error.
func (c *Client) Complete(buffer string, cursor int) ([]daemon.WireSuggestion, error) {
	conn, err := net.DialTimeout("unix", c.socket, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("daemon not reachable at %s: %w", c.socket, err)
	}
	defer func() { _ = conn.Close() }()

	deadline := time.Now().Add(c.timeout)
	_ = conn.SetDeadline(deadline)

	req, err := json.Marshal(daemon.Request{Buffer: buffer, Cursor: cursor})
	if err != nil {
		return nil, err
	}
	if _, err := conn.Write(append(req, '\n')); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var r reply
	if err := json.Unmarshal(line, &r); err != nil {
		return nil, fmt.Errorf("malformed response: %w", err)
	}
	if r.Code != "" {
		return nil, fmt.Errorf("%s: %s", r.Code, r.Error)
	}

	return r.Suggestions, nil
}

// Ping reports whether the daemon answers on the socket.
func (c *Client) Ping() bool {
	_, err := c.Complete("", 0)
	return err == nil
}
