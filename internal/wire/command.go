// ABOUTME: Outbound control commands sent from the client to the simulation
// ABOUTME: Validates action names and renders the {"action", "steps"} JSON shape

package wire

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Action names a simulation control command.
type Action string

const (
	ActionPlay  Action = "play"
	ActionPause Action = "pause"
	ActionAuto  Action = "auto"
	ActionStep  Action = "step"
)

// DefaultAutoSteps is the step count the simulation assumes for an auto
// command without an explicit count.
const DefaultAutoSteps = 5

// ErrUnknownAction indicates an action name outside the supported set.
var ErrUnknownAction = errors.New("unknown action")

// Command is one outbound control message.
type Command struct {
	Action Action `json:"action"`
	Steps  int    `json:"steps,omitempty"`
}

// ParseAction validates a case-insensitive action name.
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionPlay, ActionPause, ActionAuto, ActionStep:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}
}

// EncodeCommand renders cmd as a JSON text frame.
func EncodeCommand(cmd Command) ([]byte, error) {
	if _, err := ParseAction(string(cmd.Action)); err != nil {
		return nil, err
	}
	if cmd.Steps < 0 {
		return nil, fmt.Errorf("negative step count %d", cmd.Steps)
	}
	data, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("marshaling command: %w", err)
	}
	return data, nil
}

// DecodeCommand parses a command frame received by a simulation server.
// A missing steps field on an auto command yields DefaultAutoSteps.
func DecodeCommand(raw []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return Command{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	action, err := ParseAction(string(cmd.Action))
	if err != nil {
		return Command{}, err
	}
	cmd.Action = action
	if cmd.Action == ActionAuto && cmd.Steps <= 0 {
		cmd.Steps = DefaultAutoSteps
	}
	return cmd, nil
}

func (c Command) String() string {
	if c.Steps > 0 {
		return fmt.Sprintf("%s(%d)", c.Action, c.Steps)
	}
	return string(c.Action)
}
