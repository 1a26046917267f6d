// Package logging configures log/slog for the symbios binaries.
//
// Format "json" writes slog's JSON records. Any other format uses
// ColorHandler, which prints one line per record:
//
//	15:04:05 INF connected component=session conn_id=...
//
// Colors are dropped automatically when the output is not a terminal.
package logging
