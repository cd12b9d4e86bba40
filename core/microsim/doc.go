// Package microsim drives the individual-level state-transition cycle loop.
// It composes probs, sample and accrue; it never imports application code.
//
// # Determinism
//
// A run owns one rng.Stream seeded from Input.Seed. Cycle t consumes stream
// epoch t and individual i draws from sub-stream (t, i), so two runs with
// identical inputs return bit-identical trajectories and totals for any
// Config.Workers value.
//
// # Cycle timing
//
// Column 0 of Result.States is the initial state. During cycle t
// (0 ≤ t < n_T) an individual accrues the cost and effect of the state it
// occupies at the start of the cycle, weighted by 1/(1+d)^t, then moves to
// the sampled next state stored in column t+1.
package microsim
