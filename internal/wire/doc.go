// Package wire defines the JSON frame protocol spoken between the live
// telemetry client and a simulation process.
//
// # Inbound Frames
//
// The simulation pushes UTF-8 text frames. Only frames whose "type" is
// "step_update" carry state; everything else is ignored:
//
//	{
//	  "type": "step_update",
//	  "step": {"step": 12, "rewards": {"agent_a": 9.8}, "disruptions": {"agent_a": false}, "done": false},
//	  "agents": [{"id": "agent_a", "name": "SteelCo", "cash": 10250.5, "inventory": {"HEAT": 120}}],
//	  "attention": {"agent_a": [[0.2, 0.8]]},
//	  "narration": "SteelCo sold surplus heat to ChemCorp"
//	}
//
// Every field besides "type" may be omitted; omitted numbers, flags and
// collections decode to their zero value (collections as empty, never nil).
//
// # Decode Results
//
// Decode returns one of:
//
//   - a *StepEvent for a well-formed step_update frame
//   - ErrIgnoredFrame for a well-formed frame of another type
//   - ErrMalformedFrame for anything that is not a JSON object of the
//     expected shape
//
// Neither error is a transport failure. Callers drop the frame and keep the
// connection.
//
// # Outbound Commands
//
// Commands are small JSON objects:
//
//	{"action": "pause"}
//	{"action": "auto", "steps": 999}
//
// EncodeCommand validates the action and omits "steps" when zero.
package wire
