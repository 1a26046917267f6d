// ABOUTME: In-memory fan-out of session updates to every subscribed consumer
// ABOUTME: Slow subscribers lose intermediate updates but always receive the latest one

package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/2389/symbios-live/internal/live"
)

const (
	// subscriberBufferSize is the channel buffer for each subscriber.
	subscriberBufferSize = 64
)

// Update is one published view of the session. Every subscriber receives the
// same Snapshot pointer for a given publish.
type Update struct {
	Phase     live.Phase
	Snapshot  *live.Snapshot
	Attempt   int
	Exhausted bool
	Playing   bool
}

// Broadcaster fans Updates out to subscribers. Because updates are full
// state rather than deltas, a subscriber whose buffer is full has its oldest
// pending update replaced instead of blocking the publisher.
type Broadcaster struct {
	mu          sync.Mutex
	subscribers map[string]chan Update
	last        Update
	hasLast     bool
	closed      bool
	onEmpty     func()
	logger      *slog.Logger
}

// NewBroadcaster creates a broadcaster. Pass nil logger for default.
func NewBroadcaster(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		subscribers: make(map[string]chan Update),
		logger:      logger.With("component", "broadcaster"),
	}
}

// OnEmpty registers f to run when the last subscriber leaves. f runs on the
// goroutine that removed the subscriber, outside the broadcaster lock.
func (b *Broadcaster) OnEmpty(f func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onEmpty = f
}

// Subscribe registers a subscriber and primes its channel with the most
// recent update, if any. The subscription is removed when ctx is cancelled.
// Subscribing to a closed broadcaster returns an already closed channel.
func (b *Broadcaster) Subscribe(ctx context.Context) (<-chan Update, string) {
	subID := uuid.New().String()
	ch := make(chan Update, subscriberBufferSize)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, subID
	}
	b.subscribers[subID] = ch
	if b.hasLast {
		ch <- b.last
	}
	count := len(b.subscribers)
	b.mu.Unlock()

	b.logger.Debug("subscriber added", "sub_id", subID, "subscribers", count)

	go func() {
		<-ctx.Done()
		b.Unsubscribe(subID)
	}()

	return ch, subID
}

// Publish delivers u to every subscriber without blocking.
func (b *Broadcaster) Publish(u Update) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.last = u
	b.hasLast = true

	for id, ch := range b.subscribers {
		select {
		case ch <- u:
			continue
		default:
		}
		// Full: discard the oldest pending update and retry once.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- u:
		default:
		}
		b.logger.Debug("replaced stale update for slow subscriber", "sub_id", id)
	}
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broadcaster) Unsubscribe(subID string) {
	b.mu.Lock()
	ch, exists := b.subscribers[subID]
	if !exists {
		b.mu.Unlock()
		return
	}
	delete(b.subscribers, subID)
	close(ch)
	empty := len(b.subscribers) == 0
	onEmpty := b.onEmpty
	b.mu.Unlock()

	b.logger.Debug("subscriber removed", "sub_id", subID)

	if empty && onEmpty != nil {
		onEmpty()
	}
}

// Len returns the number of active subscribers.
func (b *Broadcaster) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

// Close closes all subscriber channels. Later publishes are discarded.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for subID, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, subID)
	}

	b.logger.Debug("broadcaster closed")
}
