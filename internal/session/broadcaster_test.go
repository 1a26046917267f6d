// ABOUTME: Tests for the update broadcaster
// ABOUTME: Covers priming, fan-out, slow subscribers, unsubscribe, and the empty hook

package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/symbios-live/internal/live"
)

func recv(t *testing.T, ch <-chan Update) Update {
	t.Helper()
	select {
	case u, ok := <-ch:
		require.True(t, ok, "channel closed")
		return u
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for update")
		return Update{}
	}
}

func TestBroadcaster_SubscribersShareSnapshot(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	ch1, _ := b.Subscribe(t.Context())
	ch2, _ := b.Subscribe(t.Context())

	snap := &live.Snapshot{Phase: live.PhaseOpen, Step: 3}
	b.Publish(Update{Phase: live.PhaseOpen, Snapshot: snap})

	assert.Same(t, snap, recv(t, ch1).Snapshot)
	assert.Same(t, snap, recv(t, ch2).Snapshot)
}

func TestBroadcaster_SubscribePrimesWithLatest(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	b.Publish(Update{Phase: live.PhaseConnecting})
	b.Publish(Update{Phase: live.PhaseOpen})

	ch, _ := b.Subscribe(t.Context())
	assert.Equal(t, live.PhaseOpen, recv(t, ch).Phase)

	select {
	case u := <-ch:
		t.Fatalf("unexpected extra update %+v", u)
	default:
	}
}

func TestBroadcaster_SlowSubscriberKeepsLatest(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	ch, _ := b.Subscribe(t.Context())

	total := subscriberBufferSize + 10
	for i := range total {
		b.Publish(Update{Snapshot: &live.Snapshot{Step: i}})
	}

	var last Update
	for range subscriberBufferSize {
		last = recv(t, ch)
	}
	assert.Equal(t, total-1, last.Snapshot.Step)
}

func TestBroadcaster_UnsubscribeClosesChannel(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	ch, id := b.Subscribe(t.Context())
	require.Equal(t, 1, b.Len())

	b.Unsubscribe(id)
	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, b.Len())

	// Unknown IDs are ignored.
	b.Unsubscribe(id)
}

func TestBroadcaster_ContextCancelUnsubscribes(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	ctx, cancel := context.WithCancel(t.Context())
	ch, _ := b.Subscribe(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
	assert.Equal(t, 0, b.Len())
}

func TestBroadcaster_OnEmptyFiresOnLastUnsubscribe(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	var fired atomic.Int32
	b.OnEmpty(func() { fired.Add(1) })

	_, id1 := b.Subscribe(t.Context())
	_, id2 := b.Subscribe(t.Context())

	b.Unsubscribe(id1)
	assert.Equal(t, int32(0), fired.Load())

	b.Unsubscribe(id2)
	assert.Equal(t, int32(1), fired.Load())
}

func TestBroadcaster_CloseClosesAllAndRejectsNew(t *testing.T) {
	b := NewBroadcaster(nil)

	ch1, _ := b.Subscribe(t.Context())
	ch2, _ := b.Subscribe(t.Context())
	b.Close()
	b.Close()

	for _, ch := range []<-chan Update{ch1, ch2} {
		_, ok := <-ch
		assert.False(t, ok)
	}

	ch3, _ := b.Subscribe(t.Context())
	_, ok := <-ch3
	assert.False(t, ok)

	assert.NotPanics(t, func() { b.Publish(Update{}) })
}

func TestBroadcaster_ConcurrentPublishAndSubscribe(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Close()

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			b.Publish(Update{Attempt: i})
		}()
		go func() {
			defer wg.Done()
			_, id := b.Subscribe(t.Context())
			b.Unsubscribe(id)
		}()
	}
	wg.Wait()
}
