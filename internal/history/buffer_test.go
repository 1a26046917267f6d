// ABOUTME: Tests for the rolling performance sample buffer
// ABOUTME: Includes property checks that the buffer keeps exactly the newest samples

package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestBuffer_PushBelowCapacity(t *testing.T) {
	b := New(3)
	b.Push(Sample{StepIndex: 0, MeanReward: 1})
	b.Push(Sample{StepIndex: 1, MeanReward: 2})

	assert.Equal(t, 2, b.Len())
	assert.Equal(t, 3, b.Cap())
	assert.Equal(t, []Sample{{0, 1}, {1, 2}}, b.Samples())
}

func TestBuffer_EvictsOldestFirst(t *testing.T) {
	b := New(3)
	for i := range 5 {
		b.Push(Sample{StepIndex: i})
	}

	assert.Equal(t, 3, b.Len())
	assert.Equal(t, []Sample{{StepIndex: 2}, {StepIndex: 3}, {StepIndex: 4}}, b.Samples())
}

func TestBuffer_SamplesIsACopy(t *testing.T) {
	b := New(2)
	b.Push(Sample{StepIndex: 1, MeanReward: 5})

	s := b.Samples()
	s[0].MeanReward = 99

	assert.Equal(t, 5.0, b.Samples()[0].MeanReward)
}

func TestBuffer_EmptySamplesIsNonNil(t *testing.T) {
	b := New(4)
	assert.NotNil(t, b.Samples())
	assert.Empty(t, b.Samples())
}

func TestBuffer_Reset(t *testing.T) {
	b := New(2)
	b.Push(Sample{StepIndex: 1})
	b.Push(Sample{StepIndex: 2})
	b.Push(Sample{StepIndex: 3})
	b.Reset()

	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.Samples())

	b.Push(Sample{StepIndex: 10})
	assert.Equal(t, []Sample{{StepIndex: 10}}, b.Samples())
}

func TestBuffer_ClampsCapacity(t *testing.T) {
	b := New(0)
	b.Push(Sample{StepIndex: 1})
	b.Push(Sample{StepIndex: 2})

	assert.Equal(t, 1, b.Cap())
	assert.Equal(t, []Sample{{StepIndex: 2}}, b.Samples())
}

func TestBuffer_DefaultCapacityKeepsLastSixty(t *testing.T) {
	b := New(DefaultCapacity)
	for i := range 100 {
		b.Push(Sample{StepIndex: i})
	}

	s := b.Samples()
	assert.Len(t, s, 60)
	assert.Equal(t, 40, s[0].StepIndex)
	assert.Equal(t, 99, s[59].StepIndex)
}

func TestBuffer_KeepsExactlyTheLastCapacitySamples(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(1, 80).Draw(t, "capacity")
		n := rapid.IntRange(0, 300).Draw(t, "pushes")

		b := New(capacity)
		for i := range n {
			b.Push(Sample{StepIndex: i, MeanReward: float64(i) / 2})
			if b.Len() > capacity {
				t.Fatalf("len %d exceeds capacity %d", b.Len(), capacity)
			}
		}

		want := min(n, capacity)
		got := b.Samples()
		if len(got) != want {
			t.Fatalf("len = %d, want %d", len(got), want)
		}
		for i, s := range got {
			if expected := n - want + i; s.StepIndex != expected {
				t.Fatalf("sample %d has step %d, want %d", i, s.StepIndex, expected)
			}
		}
	})
}
