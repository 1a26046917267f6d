// ABOUTME: Dialer and Conn interfaces for the telemetry socket
// ABOUTME: Plus endpoint URL derivation and clean-close classification

package transport

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrClosed marks a clean close by the peer.
var ErrClosed = errors.New("connection closed")

// Conn is one open duplex connection carrying text frames.
type Conn interface {
	// Read blocks until the next frame arrives or the connection ends.
	Read(ctx context.Context) ([]byte, error)
	// Write sends one text frame.
	Write(ctx context.Context, data []byte) error
	// Close closes the connection. It is safe to call more than once.
	Close() error
}

// Dialer opens new connections to a fixed endpoint.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// IsCleanClose reports whether err ended a connection without a fault.
func IsCleanClose(err error) bool {
	return errors.Is(err, ErrClosed)
}

// EndpointURL builds the socket URL for channel from an http(s) or ws(s)
// base URL. Any path on the base URL is replaced.
func EndpointURL(base, channel string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parsing base url: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("base url %q has no host", base)
	}

	switch strings.ToLower(u.Scheme) {
	case "https", "wss":
		u.Scheme = "wss"
	case "http", "ws":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	channel = strings.Trim(channel, "/")
	if channel == "" {
		return "", errors.New("channel is required")
	}

	u.Path = "/ws/" + channel
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}
