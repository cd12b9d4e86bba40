// Package model loads YAML scenario files into engine inputs.
package model

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"microsim-core/accrue"
	"microsim-core/matrix"
	"microsim-core/microsim"
	"microsim-core/probs"
	"microsim-core/sicksicker"
)

// ErrInvalidModel marks a model file that parsed but does not describe a
// runnable scenario.
var ErrInvalidModel = errors.New("invalid model")

// Defaults applied when a file (and the command line) leaves a field unset.
const (
	DefaultIndividuals = 1000
	DefaultCycles      = 30
	DefaultSeed        = 1
	// Sick-Sicker runs discount both streams at 3% unless told otherwise.
	DefaultSickSickerDiscount = 0.03
)

// File is the YAML document.
type File struct {
	Name        string        `yaml:"name"`
	States      []string      `yaml:"states"`
	Transitions *Transitions  `yaml:"transitions"`
	Schedule    []Transitions `yaml:"schedule"`
	Costs       *Values       `yaml:"costs"`
	Utilities   *Values       `yaml:"utilities"`
	Initial     Initial       `yaml:"initial"`
	Individuals *int          `yaml:"individuals"`
	Cycles      *int          `yaml:"cycles"`
	CycleLength *float64      `yaml:"cycle_length"`
	Discount    *Discount     `yaml:"discount"`
	Seed        *int64        `yaml:"seed"`
	Treatment   bool          `yaml:"treatment"`
	SickSicker  yaml.Node     `yaml:"sick_sicker"`
}

// Transitions is one transition table.
type Transitions struct {
	Layout string      `yaml:"layout"` // broadcast | individual | state; empty = infer
	Rows   [][]float64 `yaml:"rows"`
}

// Values is a per-state value table with an optional treated variant.
type Values struct {
	Untreated []float64 `yaml:"untreated"`
	Treated   []float64 `yaml:"treated"`
}

// Discount holds the per-cycle discount rates.
type Discount struct {
	Costs   float64 `yaml:"costs"`
	Effects float64 `yaml:"effects"`
}

// Initial is a state label/index, or one per individual.
type Initial []string

// UnmarshalYAML accepts a scalar or a sequence of scalars.
func (in *Initial) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		*in = Initial{n.Value}
		return nil
	case yaml.SequenceNode:
		out := make(Initial, 0, len(n.Content))
		for _, c := range n.Content {
			if c.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: initial entries must be scalars", c.Line)
			}
			out = append(out, c.Value)
		}
		*in = out
		return nil
	}
	return fmt.Errorf("line %d: initial must be a state or a list of states", n.Line)
}

// Overrides are command-line values that win over the file. Nil means unset.
type Overrides struct {
	Individuals    *int
	Cycles         *int
	Seed           *int64
	CostDiscount   *float64
	EffectDiscount *float64
	CycleLength    *float64
}

// Scenario is a runnable model.
type Scenario struct {
	Name      string
	Source    string   // file path, or "" when built in code
	Labels    []string // state labels, index order
	Variant   string   // "" or "sick-sicker"
	Treatment bool     // the file's default strategy
	Input     microsim.Input
}

// Load reads and parses path.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	f, err := Parse(bytes.NewReader(data))
	if err != nil {
		return File{}, fmt.Errorf("%s: %w", path, err)
	}
	if f.Name == "" {
		f.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return f, nil
}

// Parse decodes one YAML document, rejecting unknown keys.
func Parse(r io.Reader) (File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return File{}, fmt.Errorf("%w: empty document", ErrInvalidModel)
		}
		return File{}, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}
	return f, nil
}

// IsSickSicker reports whether the file uses the built-in Sick-Sicker model.
func (f File) IsSickSicker() bool { return f.SickSicker.Kind != 0 }

// Scenario resolves the file plus overrides into a validated engine input.
func (f File) Scenario(o Overrides) (Scenario, error) {
	if f.IsSickSicker() {
		return f.sickSicker(o)
	}
	return f.generic(o)
}

func (f File) sickSicker(o Overrides) (Scenario, error) {
	if len(f.States) > 0 || f.Transitions != nil || len(f.Schedule) > 0 || f.Costs != nil || f.Utilities != nil {
		return Scenario{}, fmt.Errorf("%w: sick_sicker cannot be combined with states, transitions, costs or utilities", ErrInvalidModel)
	}
	p := sicksicker.DefaultParams()
	if err := decodeStrict(&f.SickSicker, &p); err != nil {
		return Scenario{}, fmt.Errorf("%w: sick_sicker: %v", ErrInvalidModel, err)
	}
	d := Discount{Costs: DefaultSickSickerDiscount, Effects: DefaultSickSickerDiscount}
	if f.Discount != nil {
		d = *f.Discount
	}
	f.Discount = &d
	return SickSicker(f.Name, p, f.common(o, sicksicker.Labels[:]))
}

// decodeStrict decodes n into v, rejecting keys v does not declare.
// yaml.Node.Decode ignores unknown keys, so the node is re-encoded first.
func decodeStrict(n *yaml.Node, v any) error {
	if n.Kind == yaml.ScalarNode && n.Tag == "!!null" {
		return nil
	}
	raw, err := yaml.Marshal(n)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	return dec.Decode(v)
}

// Common holds the run-shape fields shared by every scenario kind.
type Common struct {
	Initial        Initial
	Individuals    int
	Cycles         int
	CycleLength    float64
	CostDiscount   float64
	EffectDiscount float64
	Seed           int64
	Treatment      bool
}

func (f File) common(o Overrides, labels []string) Common {
	c := Common{
		Initial:     f.Initial,
		Individuals: DefaultIndividuals,
		Cycles:      DefaultCycles,
		Seed:        DefaultSeed,
		Treatment:   f.Treatment,
	}
	if len(f.Initial) > 1 {
		c.Individuals = len(f.Initial)
	}
	if len(c.Initial) == 0 && len(labels) > 0 {
		c.Initial = Initial{labels[0]}
	}
	pickInt(&c.Individuals, f.Individuals, o.Individuals)
	pickInt(&c.Cycles, f.Cycles, o.Cycles)
	pickFloat(&c.CycleLength, f.CycleLength, o.CycleLength)
	if f.Discount != nil {
		c.CostDiscount, c.EffectDiscount = f.Discount.Costs, f.Discount.Effects
	}
	pickFloat(&c.CostDiscount, nil, o.CostDiscount)
	pickFloat(&c.EffectDiscount, nil, o.EffectDiscount)
	if f.Seed != nil {
		c.Seed = *f.Seed
	}
	if o.Seed != nil {
		c.Seed = *o.Seed
	}
	return c
}

func pickInt(dst *int, file, flag *int) {
	if file != nil {
		*dst = *file
	}
	if flag != nil {
		*dst = *flag
	}
}

func pickFloat(dst *float64, file, flag *float64) {
	if file != nil {
		*dst = *file
	}
	if flag != nil {
		*dst = *flag
	}
}

// SickSicker builds a Sick-Sicker scenario from parameters.
func SickSicker(name string, p sicksicker.Params, c Common) (Scenario, error) {
	if name == "" {
		name = "sick-sicker"
	}
	labels := sicksicker.Labels[:]
	if len(c.Initial) == 0 {
		c.Initial = Initial{labels[sicksicker.Healthy]}
	}
	initial, err := resolveInitial(c.Initial, c.Individuals, labels)
	if err != nil {
		return Scenario{}, err
	}
	in, err := p.Input(len(initial), c.Cycles, c.CostDiscount, c.EffectDiscount, c.Treatment, c.Seed)
	if err != nil {
		return Scenario{}, err
	}
	in.Initial = initial
	in.CycleLength = c.CycleLength
	if err := sicksicker.CheckInput(in); err != nil {
		return Scenario{}, err
	}
	if err := in.Validate(); err != nil {
		return Scenario{}, err
	}
	return Scenario{
		Name:      name,
		Labels:    append([]string(nil), labels...),
		Variant:   "sick-sicker",
		Treatment: c.Treatment,
		Input:     in,
	}, nil
}

func (f File) generic(o Overrides) (Scenario, error) {
	nS := len(f.States)
	if nS == 0 {
		return Scenario{}, fmt.Errorf("%w: states must list at least one label", ErrInvalidModel)
	}
	seen := make(map[string]struct{}, nS)
	for _, l := range f.States {
		if _, dup := seen[l]; dup || l == "" {
			return Scenario{}, fmt.Errorf("%w: state label %q empty or repeated", ErrInvalidModel, l)
		}
		seen[l] = struct{}{}
	}
	if f.Costs == nil || f.Utilities == nil {
		return Scenario{}, fmt.Errorf("%w: costs and utilities are required", ErrInvalidModel)
	}
	specs := f.Schedule
	switch {
	case f.Transitions != nil && len(specs) > 0:
		return Scenario{}, fmt.Errorf("%w: use transitions or schedule, not both", ErrInvalidModel)
	case f.Transitions != nil:
		specs = []Transitions{*f.Transitions}
	case len(specs) == 0:
		return Scenario{}, fmt.Errorf("%w: transitions or schedule is required", ErrInvalidModel)
	}

	c := f.common(o, f.States)
	initial, err := resolveInitial(c.Initial, c.Individuals, f.States)
	if err != nil {
		return Scenario{}, err
	}
	nI := len(initial)

	sched := make(probs.Schedule, 0, len(specs))
	for k, sp := range specs {
		tab, err := sp.table(nI, nS)
		if err != nil {
			return Scenario{}, fmt.Errorf("transition table %d: %w", k, err)
		}
		sched = append(sched, tab)
	}
	costs, err := accrue.NewTable(f.Costs.Untreated, orNil(f.Costs.Treated))
	if err != nil {
		return Scenario{}, fmt.Errorf("costs: %w", err)
	}
	utils, err := accrue.NewTable(f.Utilities.Untreated, orNil(f.Utilities.Treated))
	if err != nil {
		return Scenario{}, fmt.Errorf("utilities: %w", err)
	}

	in := microsim.Input{
		Initial:        initial,
		States:         nS,
		Cycles:         c.Cycles,
		Transitions:    sched,
		Costs:          costs,
		Utilities:      utils,
		CycleLength:    c.CycleLength,
		CostDiscount:   c.CostDiscount,
		EffectDiscount: c.EffectDiscount,
		Treatment:      c.Treatment,
		Seed:           c.Seed,
	}
	if err := in.Validate(); err != nil {
		return Scenario{}, err
	}
	return Scenario{
		Name:      f.Name,
		Labels:    append([]string(nil), f.States...),
		Treatment: c.Treatment,
		Input:     in,
	}, nil
}

func orNil(v []float64) []float64 {
	if len(v) == 0 {
		return nil
	}
	return v
}

func (t Transitions) table(nI, nS int) (probs.Table, error) {
	m, err := matrix.FromRows(t.Rows)
	if err != nil {
		return probs.Table{}, err
	}
	var layout probs.Layout
	if t.Layout == "" {
		layout, err = probs.InferLayout(m.Rows()*m.Cols(), nI, nS)
	} else {
		layout, err = probs.ParseLayout(t.Layout)
	}
	if err != nil {
		return probs.Table{}, err
	}
	return probs.NewTable(layout, nS, m, probs.DefaultTolerance)
}

// resolveInitial expands a single entry to n individuals, or maps a list
// one-to-one. Entries are state labels or 0-based indices.
func resolveInitial(in Initial, n int, labels []string) ([]int, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("%w: initial state is required", ErrInvalidModel)
	}
	idx := make([]int, len(in))
	for k, v := range in {
		s, err := stateIndex(v, labels)
		if err != nil {
			return nil, err
		}
		idx[k] = s
	}
	if len(idx) == 1 {
		if n < 1 {
			return nil, fmt.Errorf("%w: individuals must be ≥ 1, got %d", ErrInvalidModel, n)
		}
		return microsim.Uniform(n, idx[0]), nil
	}
	if n != len(idx) {
		return nil, fmt.Errorf("%w: initial lists %d individuals but individuals=%d", ErrInvalidModel, len(idx), n)
	}
	return idx, nil
}

func stateIndex(v string, labels []string) (int, error) {
	for i, l := range labels {
		if l == v {
			return i, nil
		}
	}
	if i, err := strconv.Atoi(v); err == nil && i >= 0 && i < len(labels) {
		return i, nil
	}
	return 0, fmt.Errorf("%w: unknown initial state %q", ErrInvalidModel, v)
}
