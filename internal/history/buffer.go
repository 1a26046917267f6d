// ABOUTME: Fixed-capacity FIFO ring of per-step performance samples
// ABOUTME: Oldest samples are evicted first once capacity is reached

package history

// DefaultCapacity is the number of samples kept by the live dashboard.
const DefaultCapacity = 60

// Sample is the aggregate performance of one simulation step.
type Sample struct {
	StepIndex  int     `json:"step"`
	MeanReward float64 `json:"reward"`
}

// Buffer is a bounded queue of samples in insertion order. Capacity is fixed
// at construction. A Buffer is owned by a single aggregator and is not safe
// for concurrent use.
type Buffer struct {
	ring []Sample
	head int // index of the oldest sample
	size int
}

// New creates a buffer holding at most capacity samples. Capacities below
// one are clamped to one.
func New(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{ring: make([]Sample, capacity)}
}

// Push appends s, evicting the oldest sample when the buffer is full.
func (b *Buffer) Push(s Sample) {
	if b.size < len(b.ring) {
		b.ring[(b.head+b.size)%len(b.ring)] = s
		b.size++
		return
	}
	b.ring[b.head] = s
	b.head = (b.head + 1) % len(b.ring)
}

// Samples returns a copy of the buffered samples, oldest first.
func (b *Buffer) Samples() []Sample {
	out := make([]Sample, b.size)
	for i := range b.size {
		out[i] = b.ring[(b.head+i)%len(b.ring)]
	}
	return out
}

// Len returns the number of buffered samples.
func (b *Buffer) Len() int { return b.size }

// Cap returns the fixed capacity.
func (b *Buffer) Cap() int { return len(b.ring) }

// Reset discards every sample.
func (b *Buffer) Reset() {
	clear(b.ring)
	b.head = 0
	b.size = 0
}
