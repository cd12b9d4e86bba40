// Package pipeline runs a list of independent simulation jobs through a
// Simulator on a bounded worker pool and calls a visit callback in input
// order.
//
// The only contract to implement is Simulator (Run). This keeps the
// pipeline swappable and testable.
package pipeline
