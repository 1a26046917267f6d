// Package live holds the externally visible state of a telemetry session:
// the connection Phase and the immutable Snapshot built by folding step
// events.
//
// # Snapshots
//
// A Snapshot is never modified after it is returned by Fold or WithPhase.
// Readers may hold and share the pointer freely; a new step always produces a
// new Snapshot, so a reader never sees a half-applied step.
//
// # Folding
//
// Fields are replaced wholesale on every step (latest wins). The only state
// carried between steps is the rolling reward history, owned by the
// Aggregator:
//
//	agg := live.NewAggregator(history.DefaultCapacity)
//	snap := agg.Fold(nil, ev0)
//	snap = agg.Fold(snap, ev1)
package live
