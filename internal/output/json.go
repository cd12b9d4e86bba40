package output

import (
	"io"

	"microsim/internal/jsonutil"
	"microsim/pkg/api"
)

// Report groups a record stream into the single JSON document shape.
// Individual and trace records attach to the most recent summary of the same
// model and strategy.
func Report(recs []api.RecordV1) api.ReportV1 {
	rep := api.ReportV1{Runs: []api.RunV1{}}
	find := func(model, strategy string) *api.RunV1 {
		for i := len(rep.Runs) - 1; i >= 0; i-- {
			if r := &rep.Runs[i]; r.Summary.Model == model && r.Summary.Strategy == strategy {
				return r
			}
		}
		return nil
	}
	for _, r := range recs {
		switch r.Kind {
		case api.KindSummary:
			rep.Runs = append(rep.Runs, api.RunV1{Summary: *r.Summary})
		case api.KindIndividual:
			if run := find(r.Individual.Model, r.Individual.Strategy); run != nil {
				run.Individuals = append(run.Individuals, *r.Individual)
			}
		case api.KindTrace:
			if run := find(r.Trace.Model, r.Trace.Strategy); run != nil {
				run.Trace = append(run.Trace, *r.Trace)
			}
		case api.KindComparison:
			rep.Comparisons = append(rep.Comparisons, *r.Comparison)
		}
	}
	return rep
}

// WriteJSON writes the records as one indented ReportV1 document.
func WriteJSON(w io.Writer, recs []api.RecordV1) error {
	return jsonutil.EncodePretty(w, Report(recs))
}
