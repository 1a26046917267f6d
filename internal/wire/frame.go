// ABOUTME: Typed representation of simulation step frames and agent state
// ABOUTME: Shared by the client-side decoder and the fake simulation server

package wire

// TypeStepUpdate is the discriminator of the only frame kind that carries state.
const TypeStepUpdate = "step_update"

// AgentState is one factory agent as reported by the simulation.
// Identity is ID; every other field may change on every step.
type AgentState struct {
	ID                 string             `json:"id"`
	DisplayName        string             `json:"name"`
	Type               string             `json:"type,omitempty"`
	Cash               float64            `json:"cash"`
	Reputation         float64            `json:"reputation"`
	ProductionSchedule float64            `json:"production_schedule"`
	Inventory          map[string]float64 `json:"inventory"`
	AttentionMemory    []float64          `json:"attention_memory,omitempty"`
}

// StepEvent is a validated step_update frame. It is immutable once decoded
// and carries the full state of the step; nothing is a delta.
type StepEvent struct {
	StepIndex   int
	Agents      []AgentState
	Rewards     map[string]float64
	Disruptions map[string]bool
	EpisodeDone bool
	Attention   map[string][][]float64
	Narration   string
}

// stepFrame is the on-the-wire layout of a step_update frame.
type stepFrame struct {
	Type      string                 `json:"type"`
	Step      *stepPayload           `json:"step,omitempty"`
	Agents    []AgentState           `json:"agents,omitempty"`
	Attention map[string][][]float64 `json:"attention,omitempty"`
	Narration string                 `json:"narration,omitempty"`
}

type stepPayload struct {
	Step        int                `json:"step"`
	Rewards     map[string]float64 `json:"rewards"`
	Disruptions map[string]bool    `json:"disruptions"`
	Done        bool               `json:"done"`
}

// frameHeader is decoded first so the discriminator can be checked before
// the rest of the payload.
type frameHeader struct {
	Type *string `json:"type"`
}
