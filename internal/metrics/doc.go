// Package metrics counts what the telemetry client does with its stream:
// frames accepted, ignored and dropped as malformed, reconnect attempts,
// commands sent or dropped, and the current connection phase.
//
// Counters live in a private Prometheus registry so several clients (or
// tests) never collide on the global default registry. Handler exposes the
// registry for scraping.
//
// A nil *Collector is valid and records nothing.
package metrics
