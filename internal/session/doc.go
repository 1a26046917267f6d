// Package session maintains one live connection to a simulation stream and
// publishes its state to any number of consumers.
//
// # Overview
//
// A Client wraps two pieces:
//
//   - Manager: an actor goroutine that owns the socket, the reconnect timer,
//     and the current Snapshot
//   - Broadcaster: fans each published Update out to subscribers
//
//	client, err := session.NewClient(session.Options{Dialer: dialer})
//	client.Start()
//	updates, id := client.Subscribe(ctx)
//	for u := range updates {
//	    render(u.Phase, u.Snapshot)
//	}
//
// # Phases
//
// The connection moves through Idle, Connecting, Open, Closed, and Failed.
// A clean close from the server ends in Closed; a transport error or failed
// dial ends in Failed. Both schedule an automatic retry.
//
// # Reconnection
//
// Automatic retries follow Backoff: the n-th retry waits min(Base*2^n, Max)
// and no retry follows once MaxAttempts have been used. Opening a connection
// resets the count. Reconnect resets the count, drops the current socket and
// history, and dials again after ManualDelay. Calling it repeatedly inside
// that delay leaves exactly one pending attempt.
//
// Every connection and timer carries a generation number. Events from a
// connection or timer that has since been replaced are discarded, so a late
// frame from an abandoned socket never reaches the Snapshot.
//
// # Commands
//
// SendCommand writes immediately when Open and returns false otherwise.
// Commands are not queued across reconnects. Each fresh connection sends
// Options.InitialCommand, pause by default.
//
// # Lifetime
//
// Unsubscribing the last subscriber closes the client: the timer is
// cancelled, the socket closed, and the phase returns to Idle.
package session
