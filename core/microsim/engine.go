package microsim

import (
	"fmt"

	"microsim-core/accrue"
	"microsim-core/internal/par"
	"microsim-core/matrix"
	"microsim-core/rng"
	"microsim-core/sample"
)

// Config holds engine-level knobs that do not change results.
type Config struct {
	Workers int // goroutines per cycle (<=0 = all CPUs)

	// OnCycle, when set, is called after every cycle with the cycle index and
	// the state occupancy counts at its end.
	OnCycle func(t int, occupancy []int)
}

// Engine runs microsimulations. It holds no per-run state and may be shared.
type Engine struct {
	cfg Config
}

// New creates a new Engine.
func New(c Config) *Engine { return &Engine{cfg: c} }

// Workers returns the configured worker count.
func (e *Engine) Workers() int { return e.cfg.Workers }

// Run executes one seeded microsimulation (MicroSimV).
func (e *Engine) Run(in Input) (*Result, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	nI, nS, nT := in.individuals(), in.States, in.Cycles
	cl := in.cycleLength()

	res := &Result{
		States:       matrix.New[int](nI, nT+1),
		Costs:        matrix.New[float64](nI, nT),
		Effects:      matrix.New[float64](nI, nT),
		TotalCosts:   make([]float64, nI),
		TotalEffects: make([]float64, nI),
		Seed:         in.Seed,
		Treatment:    in.Treatment,
		nS:           nS,
	}
	res.States.SetCol(0, in.Initial)

	cur := append([]int(nil), in.Initial...)
	next := make([]int, nI)
	wC := accrue.Weights(in.CostDiscount, nT)
	wE := accrue.Weights(in.EffectDiscount, nT)
	stream := rng.New(in.Seed)

	for t := 0; t < nT; t++ {
		tab := in.Transitions.At(t)
		epoch := stream.Next()
		err := par.Range(nI, e.cfg.Workers, func(lo, hi int) error {
			g := stream.NewSub()
			for i := lo; i < hi; i++ {
				s := cur[i]
				row, err := tab.Row(i, s)
				if err != nil {
					return fmt.Errorf("cycle %d individual %d: %w", t, i, err)
				}
				ns, err := sample.Pick(row, g.Reset(epoch, uint64(i)).Float64())
				if err != nil {
					return fmt.Errorf("cycle %d individual %d: %w", t, i, err)
				}
				c, err := in.Costs.Value(s, in.Treatment)
				if err != nil {
					return fmt.Errorf("cycle %d individual %d cost: %w", t, i, err)
				}
				u, err := in.Utilities.Value(s, in.Treatment)
				if err != nil {
					return fmt.Errorf("cycle %d individual %d utility: %w", t, i, err)
				}
				u *= cl
				res.Costs.Set(i, t, c)
				res.Effects.Set(i, t, u)
				res.TotalCosts[i] += c * wC[t]
				res.TotalEffects[i] += u * wE[t]
				next[i] = ns
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		cur, next = next, cur
		res.States.SetCol(t+1, cur)
		if e.cfg.OnCycle != nil {
			e.cfg.OnCycle(t, occupancy(cur, nS))
		}
	}

	res.finish()
	return res, nil
}

func occupancy(states []int, nS int) []int {
	out := make([]int, nS)
	for _, s := range states {
		out[s]++
	}
	return out
}
