// Package events defines the yard events emitted while a simulation runs.
//
// Available event types:
//   - ActionEvent: one operation applied to the yard (place, move, sell, discard)
//   - RunEvent: start and end of a simulation run
package events
