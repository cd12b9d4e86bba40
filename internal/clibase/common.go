// internal/clibase/common.go
package clibase

import (
	"errors"
	"flag"
	"fmt"

	"microsim/internal/config"
	"microsim/internal/model"
	"microsim/internal/output"
)

// Strategy values for --strategy.
const (
	StrategyFile      = "" // model file decides
	StrategyNone      = output.StrategyNone
	StrategyTreatment = output.StrategyTreatment
	StrategyBoth      = output.StrategyBoth
)

// Common holds CLI fields shared by microsim and sicksicker.
type Common struct {
	// Run shape (overrides the model file when set)
	Individuals    int
	Cycles         int
	Seed           int64
	CostDiscount   float64
	EffectDiscount float64
	CycleLength    float64
	Strategy       string

	// Performance
	Threads int
	Jobs    int

	// Output
	Output         string // text|json|jsonl
	IndividualRows bool
	Trace          bool
	Pretty         bool
	Header         bool
	Store          string

	// Logging
	LogLevel  string
	LogFormat string

	// Misc
	Quiet   bool
	Version bool

	set map[string]bool
}

// Defaults seeds the run-shape flag defaults per tool.
type Defaults struct {
	Strategy string
	Discount float64
}

// Register wires shared flags onto fs, taking performance, store and logging
// defaults from env. It returns a pointer to the "no-header" bool that
// AfterParse folds into Common.Header.
func Register(fs *flag.FlagSet, c *Common, env config.Env, d Defaults) *bool {
	// Run shape
	fs.IntVar(&c.Individuals, "individuals", model.DefaultIndividuals, "cohort size n_I")
	fs.IntVar(&c.Individuals, "n", model.DefaultIndividuals, "alias of --individuals")
	fs.IntVar(&c.Cycles, "cycles", model.DefaultCycles, "number of cycles n_T")
	fs.IntVar(&c.Cycles, "T", model.DefaultCycles, "alias of --cycles")
	fs.Int64Var(&c.Seed, "seed", model.DefaultSeed, "random seed")
	fs.Float64Var(&c.CostDiscount, "cost-discount", d.Discount, "per-cycle cost discount rate in [0,1)")
	fs.Float64Var(&c.EffectDiscount, "effect-discount", d.Discount, "per-cycle effect discount rate in [0,1)")
	fs.Float64Var(&c.CycleLength, "cycle-length", 1, "cycle length multiplier on utilities")
	fs.StringVar(&c.Strategy, "strategy", d.Strategy, "strategy: none | treatment | both")

	// Performance
	fs.IntVar(&c.Threads, "threads", env.Threads, "worker threads per run (0=all CPUs)")
	fs.IntVar(&c.Threads, "t", env.Threads, "alias of --threads")
	fs.IntVar(&c.Jobs, "jobs", env.Jobs, "runs simulated concurrently")

	// Output
	fs.StringVar(&c.Output, "output", "text", "output: text | json | jsonl")
	fs.StringVar(&c.Output, "o", "text", "alias of --output")
	fs.BoolVar(&c.IndividualRows, "individual-rows", false, "emit one record per individual")
	fs.BoolVar(&c.Trace, "trace", false, "emit the cohort trace (state counts per cycle)")
	fs.BoolVar(&c.Pretty, "pretty", false, "summary tables instead of TSV (text)")
	noHeader := false
	fs.BoolVar(&noHeader, "no-header", false, "suppress header lines")
	fs.StringVar(&c.Store, "store", env.Store, "SQLite file to persist runs in")

	// Logging
	fs.StringVar(&c.LogLevel, "log-level", env.LogLevel, "log level: debug | info | warn | error")
	fs.StringVar(&c.LogFormat, "log-format", env.LogFormat, "log format: console | json")

	// Misc
	fs.BoolVar(&c.Quiet, "quiet", false, "suppress non-essential warnings")
	fs.BoolVar(&c.Quiet, "q", false, "alias of --quiet")
	fs.BoolVar(&c.Version, "v", false, "print version and exit")
	fs.BoolVar(&c.Version, "version", false, "print version and exit")

	return &noHeader
}

// flag aliases → canonical names, for Overrides.
var canonical = map[string]string{"n": "individuals", "T": "cycles"}

// AfterParse finalizes header, records which flags were set, and validates.
func AfterParse(fs *flag.FlagSet, c *Common, noHeader *bool) error {
	c.Header = !*noHeader
	c.set = map[string]bool{}
	fs.Visit(func(f *flag.Flag) {
		name := f.Name
		if n, ok := canonical[name]; ok {
			name = n
		}
		c.set[name] = true
	})
	return Validate(c)
}

// IsSet reports whether the user passed the flag (or its alias).
func (c *Common) IsSet(name string) bool { return c.set[name] }

// Overrides returns the run-shape flags the user set explicitly.
func (c *Common) Overrides() model.Overrides {
	var o model.Overrides
	if c.IsSet("individuals") {
		o.Individuals = &c.Individuals
	}
	if c.IsSet("cycles") {
		o.Cycles = &c.Cycles
	}
	if c.IsSet("seed") {
		o.Seed = &c.Seed
	}
	if c.IsSet("cost-discount") {
		o.CostDiscount = &c.CostDiscount
	}
	if c.IsSet("effect-discount") {
		o.EffectDiscount = &c.EffectDiscount
	}
	if c.IsSet("cycle-length") {
		o.CycleLength = &c.CycleLength
	}
	return o
}

// Validate applies shared CLI invariants used by all tools.
func Validate(c *Common) error {
	if c.Individuals < 1 {
		return errors.New("--individuals must be ≥ 1")
	}
	if c.Cycles < 0 {
		return errors.New("--cycles must be ≥ 0")
	}
	if c.CostDiscount < 0 || c.CostDiscount >= 1 || c.EffectDiscount < 0 || c.EffectDiscount >= 1 {
		return errors.New("discount rates must be in [0,1)")
	}
	if c.CycleLength <= 0 {
		return errors.New("--cycle-length must be > 0")
	}
	if c.Threads < 0 {
		return errors.New("--threads must be ≥ 0")
	}
	if c.Jobs < 1 {
		return errors.New("--jobs must be ≥ 1")
	}
	switch c.Strategy {
	case StrategyFile, StrategyNone, StrategyTreatment, StrategyBoth:
	default:
		return fmt.Errorf("invalid --strategy %q", c.Strategy)
	}
	switch c.Output {
	case "text", "json", "jsonl":
	default:
		return fmt.Errorf("invalid --output %q", c.Output)
	}
	if c.Pretty && c.Output != "text" {
		return errors.New("--pretty applies to --output text only")
	}
	return nil
}
