package pipeline

import "microsim-core/microsim"

// Simulator is the minimal engine contract the pipeline needs.
type Simulator interface {
	Run(in microsim.Input) (*microsim.Result, error)
}
