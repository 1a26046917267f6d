// ABOUTME: Decodes inbound text frames into StepEvents and encodes them for the fake server
// ABOUTME: Malformed and foreign frames are reported as distinct sentinel errors

package wire

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMalformedFrame indicates a frame that is not a JSON object of the
	// expected shape. The frame is dropped; the connection stays up.
	ErrMalformedFrame = errors.New("malformed frame")

	// ErrIgnoredFrame indicates a well-formed frame whose type is not
	// step_update. It is not an error condition.
	ErrIgnoredFrame = errors.New("ignored frame")
)

// Decode parses a single inbound text frame. It has no side effects.
func Decode(raw []byte) (*StepEvent, error) {
	var header frameHeader
	if err := json.Unmarshal(raw, &header); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if header.Type == nil {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedFrame)
	}
	if *header.Type != TypeStepUpdate {
		return nil, fmt.Errorf("%w: type %q", ErrIgnoredFrame, *header.Type)
	}

	var frame stepFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	ev := &StepEvent{
		Agents:      normalizeAgents(frame.Agents),
		Rewards:     map[string]float64{},
		Disruptions: map[string]bool{},
		Attention:   frame.Attention,
		Narration:   frame.Narration,
	}
	if ev.Attention == nil {
		ev.Attention = map[string][][]float64{}
	}

	if frame.Step != nil {
		if frame.Step.Step < 0 {
			return nil, fmt.Errorf("%w: negative step index %d", ErrMalformedFrame, frame.Step.Step)
		}
		ev.StepIndex = frame.Step.Step
		ev.EpisodeDone = frame.Step.Done
		if frame.Step.Rewards != nil {
			ev.Rewards = frame.Step.Rewards
		}
		if frame.Step.Disruptions != nil {
			ev.Disruptions = frame.Step.Disruptions
		}
	}

	return ev, nil
}

// normalizeAgents replaces nil collections with empty ones so consumers never
// have to distinguish "omitted" from "empty".
func normalizeAgents(agents []AgentState) []AgentState {
	if agents == nil {
		return []AgentState{}
	}
	for i := range agents {
		if agents[i].Inventory == nil {
			agents[i].Inventory = map[string]float64{}
		}
	}
	return agents
}

// EncodeStepEvent renders ev as a step_update frame.
func EncodeStepEvent(ev *StepEvent) ([]byte, error) {
	if ev == nil {
		return nil, errors.New("nil step event")
	}
	frame := stepFrame{
		Type: TypeStepUpdate,
		Step: &stepPayload{
			Step:        ev.StepIndex,
			Rewards:     ev.Rewards,
			Disruptions: ev.Disruptions,
			Done:        ev.EpisodeDone,
		},
		Agents:    ev.Agents,
		Attention: ev.Attention,
		Narration: ev.Narration,
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return nil, fmt.Errorf("marshaling step frame: %w", err)
	}
	return data, nil
}
