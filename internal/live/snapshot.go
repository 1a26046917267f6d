// ABOUTME: Immutable live-state snapshot and the aggregator that folds step events into it
// ABOUTME: Computes the rounded mean reward and threads the rolling history between steps

package live

import (
	"maps"
	"math"
	"slices"

	"github.com/2389/symbios-live/internal/history"
	"github.com/2389/symbios-live/internal/wire"
)

// Snapshot is the complete state visible to consumers after a step.
// Treat every field as read-only.
type Snapshot struct {
	Phase       Phase
	Agents      []wire.AgentState
	Step        int
	Rewards     map[string]float64
	Disruptions map[string]bool
	EpisodeDone bool
	Attention   map[string][][]float64
	Narration   string
	History     []history.Sample
}

// WithPhase returns a copy of s carrying phase p. The step data is shared,
// which is safe because neither copy is ever mutated.
func (s *Snapshot) WithPhase(p Phase) *Snapshot {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Phase = p
	return &cp
}

// Disrupted reports whether the agent was disrupted in this step.
func (s *Snapshot) Disrupted(agentID string) bool {
	if s == nil {
		return false
	}
	return s.Disruptions[agentID]
}

// Aggregator folds step events into snapshots. It owns the rolling history
// and must be used by a single goroutine.
type Aggregator struct {
	buf *history.Buffer
}

// NewAggregator creates an aggregator whose history keeps capacity samples.
func NewAggregator(capacity int) *Aggregator {
	return &Aggregator{buf: history.New(capacity)}
}

// Fold builds the snapshot that follows prev once ev is applied. prev is
// never modified; it may be nil for the first step of a session.
func (a *Aggregator) Fold(prev *Snapshot, ev *wire.StepEvent) *Snapshot {
	a.buf.Push(history.Sample{
		StepIndex:  ev.StepIndex,
		MeanReward: MeanReward(ev.Rewards),
	})

	phase := PhaseOpen
	if prev != nil {
		phase = prev.Phase
	}

	return &Snapshot{
		Phase:       phase,
		Agents:      ev.Agents,
		Step:        ev.StepIndex,
		Rewards:     ev.Rewards,
		Disruptions: ev.Disruptions,
		EpisodeDone: ev.EpisodeDone,
		Attention:   ev.Attention,
		Narration:   ev.Narration,
		History:     a.buf.Samples(),
	}
}

// Reset discards the rolling history.
func (a *Aggregator) Reset() {
	a.buf.Reset()
}

// Capacity returns the history capacity.
func (a *Aggregator) Capacity() int {
	return a.buf.Cap()
}

// MeanReward averages the reward values, rounded to three decimals.
// The mean of no rewards is zero.
func MeanReward(rewards map[string]float64) float64 {
	if len(rewards) == 0 {
		return 0
	}
	// Sum in key order so the result does not depend on map iteration.
	var sum float64
	for _, k := range slices.Sorted(maps.Keys(rewards)) {
		sum += rewards[k]
	}
	return roundTo(sum/float64(len(rewards)), 3)
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow10(places)
	return math.Round(v*scale) / scale
}
