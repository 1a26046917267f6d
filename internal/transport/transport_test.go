// ABOUTME: Tests for endpoint derivation and the WebSocket transport
// ABOUTME: Runs a real coder/websocket server via httptest to verify framing and close handling

package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpointURL(t *testing.T) {
	tests := []struct {
		base    string
		channel string
		want    string
	}{
		{"http://localhost:8000", "simulation", "ws://localhost:8000/ws/simulation"},
		{"https://sim.example.com", "simulation", "wss://sim.example.com/ws/simulation"},
		{"https://sim.example.com/dashboard?x=1", "/park/", "wss://sim.example.com/ws/park"},
		{"ws://127.0.0.1:9000", "simulation", "ws://127.0.0.1:9000/ws/simulation"},
		{"WSS://host", "a", "wss://host/ws/a"},
	}

	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			got, err := EndpointURL(tt.base, tt.channel)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEndpointURL_Errors(t *testing.T) {
	_, err := EndpointURL("ftp://host", "simulation")
	assert.Error(t, err)

	_, err = EndpointURL("localhost:8000", "simulation")
	assert.Error(t, err)

	_, err = EndpointURL("http://host", "")
	assert.Error(t, err)

	_, err = EndpointURL("http://host", "///")
	assert.Error(t, err)
}

func TestIsCleanClose(t *testing.T) {
	assert.True(t, IsCleanClose(classifyReadError(websocket.CloseError{Code: websocket.StatusNormalClosure})))
	assert.True(t, IsCleanClose(classifyReadError(websocket.CloseError{Code: websocket.StatusGoingAway})))
	assert.False(t, IsCleanClose(classifyReadError(websocket.CloseError{Code: websocket.StatusInternalError})))
	assert.False(t, IsCleanClose(context.DeadlineExceeded))
}

func TestWebSocketDialer_RoundTrip(t *testing.T) {
	authCh := make(chan string, 1)
	receivedCh := make(chan string, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authCh <- r.Header.Get("Authorization")
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer c.CloseNow()

		ctx := r.Context()
		if err := c.Write(ctx, websocket.MessageText, []byte(`{"type":"step_update"}`)); err != nil {
			return
		}
		_, data, err := c.Read(ctx)
		if err != nil {
			return
		}
		receivedCh <- string(data)
		c.Close(websocket.StatusNormalClosure, "bye")
	}))
	defer srv.Close()

	endpoint, err := EndpointURL(srv.URL, "simulation")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(endpoint, "ws://"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	d := NewWebSocketDialer(endpoint, "secret-token")
	assert.Equal(t, endpoint, d.URL())

	conn, err := d.Dial(ctx)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, "Bearer secret-token", <-authCh)

	data, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"type":"step_update"}`, string(data))

	require.NoError(t, conn.Write(ctx, []byte(`{"action":"pause"}`)))
	assert.Equal(t, `{"action":"pause"}`, <-receivedCh)

	_, err = conn.Read(ctx)
	require.Error(t, err)
	assert.True(t, IsCleanClose(err), "normal closure should be clean, got %v", err)
}

func TestWebSocketDialer_NoTokenNoHeader(t *testing.T) {
	d := NewWebSocketDialer("ws://localhost/ws/simulation", "")
	assert.Empty(t, d.header.Get("Authorization"))
}

func TestWebSocketDialer_DialFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	endpoint, err := EndpointURL(srv.URL, "simulation")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = NewWebSocketDialer(endpoint, "").WithHTTPClient(srv.Client()).Dial(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
