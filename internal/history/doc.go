// Package history provides the fixed-capacity rolling series of performance
// samples shown as the live reward chart.
package history
