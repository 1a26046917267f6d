// Package simserver is a stand-in for the simulation backend. It serves the
// same socket protocol the live client consumes, so the client can be run
// and tested without the real model.
//
// Routes:
//
//   - GET /ws/{channel}: WebSocket stream of step_update frames
//   - GET /health: liveness check
//
// Each channel has its own park. Clients on a channel share it and steer it
// with commands: play streams a step every Interval until pause, auto N
// streams N steps at the same pace, and step emits one immediately.
package simserver
