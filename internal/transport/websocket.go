// ABOUTME: WebSocket implementation of Dialer and Conn on github.com/coder/websocket
// ABOUTME: Attaches the optional bearer token and classifies close codes

package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/coder/websocket"
)

// defaultReadLimit bounds a single inbound frame. Step frames carry the full
// roster and attention matrices, so the library default of 32KiB is too low.
const defaultReadLimit = 4 << 20

// WebSocketDialer dials a fixed ws:// or wss:// endpoint.
type WebSocketDialer struct {
	url       string
	header    http.Header
	client    *http.Client
	readLimit int64
}

// NewWebSocketDialer creates a dialer for endpoint. When token is non-empty
// it is sent as a bearer Authorization header on every handshake.
func NewWebSocketDialer(endpoint, token string) *WebSocketDialer {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	return &WebSocketDialer{
		url:       endpoint,
		header:    header,
		readLimit: defaultReadLimit,
	}
}

// WithHTTPClient sets the client used for the opening handshake.
func (d *WebSocketDialer) WithHTTPClient(c *http.Client) *WebSocketDialer {
	d.client = c
	return d
}

// URL returns the endpoint this dialer connects to.
func (d *WebSocketDialer) URL() string {
	return d.url
}

// Dial performs the WebSocket handshake.
func (d *WebSocketDialer) Dial(ctx context.Context) (Conn, error) {
	c, resp, err := websocket.Dial(ctx, d.url, &websocket.DialOptions{
		HTTPClient: d.client,
		HTTPHeader: d.header.Clone(),
	})
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dialing %s: status %d: %w", d.url, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dialing %s: %w", d.url, err)
	}
	c.SetReadLimit(d.readLimit)
	return NewWebSocketConn(c), nil
}

// wsConn adapts *websocket.Conn to Conn.
type wsConn struct {
	conn      *websocket.Conn
	closeOnce sync.Once
	closeErr  error
}

// NewWebSocketConn wraps an established connection. Servers use it after
// websocket.Accept.
func NewWebSocketConn(c *websocket.Conn) Conn {
	return &wsConn{conn: c}
}

func (c *wsConn) Read(ctx context.Context) ([]byte, error) {
	_, data, err := c.conn.Read(ctx)
	if err != nil {
		return nil, classifyReadError(err)
	}
	return data, nil
}

func (c *wsConn) Write(ctx context.Context, data []byte) error {
	return c.conn.Write(ctx, websocket.MessageText, data)
}

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close(websocket.StatusNormalClosure, "")
	})
	return c.closeErr
}

func classifyReadError(err error) error {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return fmt.Errorf("%w: %v", ErrClosed, err)
	}
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", ErrClosed, err)
	}
	return err
}
