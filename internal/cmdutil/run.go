package cmdutil

import (
	"context"

	"microsim/internal/pipeline"
)

// RunStream runs the shared pipeline, maps each outcome to zero or more
// records with visit, and streams them via send.
// It returns the number of records sent and the first error encountered.
func RunStream[T any](
	ctx context.Context,
	cfg pipeline.Config,
	jobs []pipeline.Job,
	sim pipeline.Simulator,
	visit func(pipeline.Outcome) ([]T, error),
	send func(T) error,
) (int, error) {
	total := 0
	err := pipeline.ForEachRun(ctx, cfg, jobs, sim, func(o pipeline.Outcome) error {
		recs, vErr := visit(o)
		if vErr != nil {
			return vErr
		}
		for _, r := range recs {
			if err := send(r); err != nil {
				return err
			}
			total++
		}
		return nil
	})
	return total, err
}
