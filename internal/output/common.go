package output

// TSV headers for the text format. Keep these as the single source of truth;
// all writers use them.
const (
	SummaryHeader    = "model\tstrategy\tseed\tindividuals\tcycles\tmean_cost\tse_cost\tmean_effect\tse_effect\tundiscounted_cost\tundiscounted_effect\tfinal_occupancy"
	IndividualHeader = "model\tstrategy\tindividual\tinitial\tfinal\ttotal_cost\ttotal_effect\ttrajectory"
	TraceHeaderBase  = "model\tstrategy\tcycle"
	ComparisonHeader = "model\tbase\talt\tdelta_cost\tdelta_effect\ticer\tverdict"
)

// Strategy names.
const (
	StrategyNone      = "none"
	StrategyTreatment = "treatment"
	StrategyBoth      = "both" // run none then treatment and compare
)

// StrategyName maps the treatment flag to its strategy name.
func StrategyName(trt bool) string {
	if trt {
		return StrategyTreatment
	}
	return StrategyNone
}
