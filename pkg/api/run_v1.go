// pkg/api/run_v1.go
package api

// Record kinds carried in RecordV1.Kind.
const (
	KindIndividual = "individual"
	KindTrace      = "trace"
	KindSummary    = "summary"
	KindComparison = "comparison"
)

// SummaryV1 is the stable schema for one scenario/strategy run.
// Keep fields, names, and types stable. Add new fields only with ",omitempty".
type SummaryV1 struct {
	RunID          string   `json:"run_id,omitempty"`
	Model          string   `json:"model"`
	Strategy       string   `json:"strategy"` // "none" | "treatment"
	Seed           int64    `json:"seed"`
	Individuals    int      `json:"individuals"`
	States         int      `json:"states"`
	Cycles         int      `json:"cycles"`
	CycleLength    float64  `json:"cycle_length"`
	CostDiscount   float64  `json:"cost_discount"`
	EffectDiscount float64  `json:"effect_discount"`
	StateLabels    []string `json:"state_labels,omitempty"`

	MeanCost               float64 `json:"mean_cost"`
	MeanEffect             float64 `json:"mean_effect"`
	SDCost                 float64 `json:"sd_cost"`
	SDEffect               float64 `json:"sd_effect"`
	SECost                 float64 `json:"se_cost"`
	SEEffect               float64 `json:"se_effect"`
	UndiscountedMeanCost   float64 `json:"undiscounted_mean_cost"`
	UndiscountedMeanEffect float64 `json:"undiscounted_mean_effect"`
	FinalOccupancy         []int   `json:"final_occupancy"`
}

// IndividualV1 is one simulated individual.
type IndividualV1 struct {
	Model       string  `json:"model"`
	Strategy    string  `json:"strategy"`
	Index       int     `json:"index"`
	Initial     string  `json:"initial"`
	Final       string  `json:"final"`
	TotalCost   float64 `json:"total_cost"`
	TotalEffect float64 `json:"total_effect"`
	Trajectory  []int   `json:"trajectory,omitempty"`
}

// TraceRowV1 is the cohort state occupancy at one cycle boundary.
type TraceRowV1 struct {
	Model    string `json:"model"`
	Strategy string `json:"strategy"`
	Cycle    int    `json:"cycle"`
	Counts   []int  `json:"counts"`
}

// ComparisonV1 is the incremental analysis of one strategy over another.
type ComparisonV1 struct {
	Model       string  `json:"model"`
	Base        string  `json:"base"`
	Alt         string  `json:"alt"`
	DeltaCost   float64 `json:"delta_cost"`
	DeltaEffect float64 `json:"delta_effect"`
	ICER        float64 `json:"icer,omitempty"` // set only when verdict == "icer"
	Verdict     string  `json:"verdict"`
}

// RecordV1 is one JSONL line; exactly one payload field is set, named by Kind.
type RecordV1 struct {
	Kind       string        `json:"kind"`
	Individual *IndividualV1 `json:"individual,omitempty"`
	Trace      *TraceRowV1   `json:"trace,omitempty"`
	Summary    *SummaryV1    `json:"summary,omitempty"`
	Comparison *ComparisonV1 `json:"comparison,omitempty"`
}

// RunV1 groups one run's records in the JSON document.
type RunV1 struct {
	Summary     SummaryV1      `json:"summary"`
	Individuals []IndividualV1 `json:"individuals,omitempty"`
	Trace       []TraceRowV1   `json:"trace,omitempty"`
}

// ReportV1 is the single JSON document written by --output json.
type ReportV1 struct {
	Runs        []RunV1        `json:"runs"`
	Comparisons []ComparisonV1 `json:"comparisons,omitempty"`
}
