// internal/sicksickercli/options.go
package sicksickercli

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"microsim-core/sicksicker"
	"microsim/internal/clibase"
	"microsim/internal/cliutil"
	"microsim/internal/config"
	"microsim/internal/model"
)

// Options holds sicksicker flags.
type Options struct {
	clibase.Common
	Name    string
	Initial string
	Params  sicksicker.Params
}

type paramFlag struct {
	name, help string
	dst        *float64
}

func paramFlags(p *sicksicker.Params) []paramFlag {
	return []paramFlag{
		{"p-hd", "P(H→D) per cycle", &p.PHD},
		{"p-hs1", "P(H→S1) per cycle", &p.PHS1},
		{"p-s1h", "P(S1→H) per cycle", &p.PS1H},
		{"p-s1s2", "P(S1→S2) per cycle", &p.PS1S2},
		{"rr-s1", "death-rate ratio S1 vs H", &p.RRS1},
		{"rr-s2", "death-rate ratio S2 vs H", &p.RRS2},
		{"c-h", "cost per cycle in H", &p.CH},
		{"c-s1", "cost per cycle in S1", &p.CS1},
		{"c-s2", "cost per cycle in S2", &p.CS2},
		{"c-trt", "treatment cost per cycle (S1, S2)", &p.CTrt},
		{"u-h", "utility in H", &p.UH},
		{"u-s1", "utility in S1", &p.US1},
		{"u-s2", "utility in S2", &p.US2},
		{"u-trt", "utility in S1 when treated", &p.UTrt},
	}
}

// ParseArgs registers and parses all flags. No positionals are accepted.
func ParseArgs(fs *flag.FlagSet, argv []string, env config.Env) (Options, error) {
	opt := Options{Params: sicksicker.DefaultParams()}
	var help bool

	noHeader := clibase.Register(fs, &opt.Common, env, clibase.Defaults{
		Strategy: clibase.StrategyBoth,
		Discount: model.DefaultSickSickerDiscount,
	})
	fs.StringVar(&opt.Name, "name", "sick-sicker", "model name in outputs")
	fs.StringVar(&opt.Initial, "initial", sicksicker.Labels[sicksicker.Healthy], "starting state: H | S1 | S2 | D")
	pf := paramFlags(&opt.Params)
	for _, f := range pf {
		fs.Float64Var(f.dst, f.name, *f.dst, f.help)
	}
	fs.BoolVar(&help, "h", false, "show help")
	fs.BoolVar(&help, "help", false, "show help")
	clibase.UsageCommon(fs, "sicksicker", "Sick-Sicker cohort microsimulation",
		func(out io.Writer, def func(string) string) {
			fmt.Fprintln(out, "Usage: sicksicker [flags]")
			fmt.Fprintln(out, "\nModel:")
			fmt.Fprintf(out, "      --name string           Model name [%s]\n", def("name"))
			fmt.Fprintf(out, "      --initial string        Starting state [%s]\n", def("initial"))
			for _, f := range pf {
				fmt.Fprintf(out, "      --%-22s%s [%s]\n", f.name+" float", f.help, def(f.name))
			}
		})

	flagArgs, posArgs := cliutil.SplitFlagsAndPositionals(fs, argv)
	if err := fs.Parse(flagArgs); err != nil {
		return opt, err
	}
	if help {
		return opt, flag.ErrHelp
	}
	if opt.Version {
		return opt, nil
	}
	if len(posArgs) > 0 {
		return opt, fmt.Errorf("unexpected argument %q (sicksicker takes no model files)", posArgs[0])
	}
	if err := clibase.AfterParse(fs, &opt.Common, noHeader); err != nil {
		return opt, err
	}
	if opt.Strategy == clibase.StrategyFile {
		return opt, errors.New("--strategy must be none, treatment or both")
	}
	if _, ok := sicksicker.StateIndex(opt.Initial); !ok {
		return opt, fmt.Errorf("invalid --initial %q", opt.Initial)
	}
	return opt, opt.Params.Validate()
}

// Scenario builds the run from the parsed options.
func (o Options) Scenario() (model.Scenario, error) {
	return model.SickSicker(o.Name, o.Params, model.Common{
		Initial:        model.Initial{o.Initial},
		Individuals:    o.Individuals,
		Cycles:         o.Cycles,
		CycleLength:    o.CycleLength,
		CostDiscount:   o.CostDiscount,
		EffectDiscount: o.EffectDiscount,
		Seed:           o.Seed,
	})
}
