// ABOUTME: Consumer-facing session handle combining the manager and the broadcaster
// ABOUTME: Tears the connection down when the last subscriber unsubscribes

package session

import (
	"context"
	"sync"

	"github.com/2389/symbios-live/internal/live"
	"github.com/2389/symbios-live/internal/wire"
)

// Client is the subscriber interface to one simulation stream. Any number of
// consumers may observe and subscribe; they all share one connection.
type Client struct {
	manager     *Manager
	broadcaster *Broadcaster
	closeOnce   sync.Once
}

// NewClient builds a client from opts. Options.Publisher is replaced by the
// client's broadcaster. The client stays Idle until Start is called.
func NewClient(opts Options) (*Client, error) {
	b := NewBroadcaster(opts.Logger)
	opts.Publisher = b

	m, err := NewManager(opts)
	if err != nil {
		b.Close()
		return nil, err
	}

	c := &Client{manager: m, broadcaster: b}
	b.OnEmpty(c.Close)
	return c, nil
}

// Start begins connecting.
func (c *Client) Start() {
	c.manager.Connect()
}

// Observe returns the current phase and snapshot. The snapshot is nil until
// the first step arrives on the current connection.
func (c *Client) Observe() (live.Phase, *live.Snapshot) {
	u := c.manager.Current()
	return u.Phase, u.Snapshot
}

// Current returns the full latest update.
func (c *Client) Current() Update {
	return c.manager.Current()
}

// Subscribe returns a channel of updates primed with the current state, and
// an ID for Unsubscribe. Cancelling ctx also unsubscribes.
func (c *Client) Subscribe(ctx context.Context) (<-chan Update, string) {
	return c.broadcaster.Subscribe(ctx)
}

// Unsubscribe removes a subscriber. Removing the last one closes the client.
func (c *Client) Unsubscribe(id string) {
	c.broadcaster.Unsubscribe(id)
}

// Reconnect restarts the connection with fresh history and retry budget.
func (c *Client) Reconnect() {
	c.manager.Reconnect()
}

// SendCommand sends cmd if the connection is open.
func (c *Client) SendCommand(cmd wire.Command) bool {
	return c.manager.SendCommand(cmd)
}

func (c *Client) Play() bool  { return c.SendCommand(wire.Command{Action: wire.ActionPlay}) }
func (c *Client) Pause() bool { return c.SendCommand(wire.Command{Action: wire.ActionPause}) }
func (c *Client) Step() bool  { return c.SendCommand(wire.Command{Action: wire.ActionStep}) }

// Auto asks the simulation to advance n steps on its own. n <= 0 uses the
// server default.
func (c *Client) Auto(n int) bool {
	if n < 0 {
		n = 0
	}
	return c.SendCommand(wire.Command{Action: wire.ActionAuto, Steps: n})
}

// TogglePlay flips between play and pause.
func (c *Client) TogglePlay() bool {
	return c.manager.TogglePlay()
}

// Playing reports whether the last run command sent was play.
func (c *Client) Playing() bool {
	return c.manager.Current().Playing
}

// Exhausted reports whether automatic reconnection has given up.
func (c *Client) Exhausted() bool {
	return c.manager.Current().Exhausted
}

// Done is closed once the client has been torn down.
func (c *Client) Done() <-chan struct{} {
	return c.manager.Done()
}

// Close tears down the connection and closes every subscriber channel.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.manager.Close()
		c.broadcaster.Close()
	})
}
