// Package transport abstracts the duplex text-frame connection used by the
// session manager and implements it over WebSocket.
//
// The session package only sees Dialer and Conn; tests substitute in-memory
// fakes. The WebSocket implementation uses github.com/coder/websocket.
//
// # Endpoint
//
// EndpointURL derives the socket URL from the HTTP base URL of the
// simulation, mirroring how a browser page picks ws or wss from its own
// scheme:
//
//	EndpointURL("https://sim.example.com", "simulation")
//	// wss://sim.example.com/ws/simulation
//
// # Close Classification
//
// Conn.Read returns an error wrapping ErrClosed when the peer closed the
// connection cleanly (normal closure, going away, or EOF). Any other error
// is a transport failure.
package transport
