// ABOUTME: Connection phase enum shared by the session manager and consumers
// ABOUTME: Renders as lowercase text in logs, JSON, and the terminal UI

package live

// Phase is the connection state of a telemetry session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseConnecting
	PhaseOpen
	PhaseClosed
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseConnecting:
		return "connecting"
	case PhaseOpen:
		return "open"
	case PhaseClosed:
		return "closed"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Offline reports whether consumers should offer a manual reconnect.
func (p Phase) Offline() bool {
	return p == PhaseClosed || p == PhaseFailed
}
