// internal/cli/options.go
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"microsim/internal/clibase"
	"microsim/internal/cliutil"
	"microsim/internal/config"
)

// Options holds the microsim flags and model files.
type Options struct {
	clibase.Common
	ModelFiles []string
}

// ParseArgs registers and parses all flags; positionals are model files or globs.
func ParseArgs(fs *flag.FlagSet, argv []string, env config.Env) (Options, error) {
	var opt Options
	var help bool
	var models stringSlice

	noHeader := clibase.Register(fs, &opt.Common, env, clibase.Defaults{Strategy: clibase.StrategyFile})
	fs.Var(&models, "model", "YAML model file (repeatable, '-' for stdin)")
	fs.BoolVar(&help, "h", false, "show help")
	fs.BoolVar(&help, "help", false, "show help")
	clibase.UsageCommon(fs, "microsim", "individual-level state-transition microsimulation",
		func(out io.Writer, _ func(string) string) {
			fmt.Fprintln(out, "Usage: microsim [flags] model.yaml [more.yaml | dir | 'glob*.yaml' ...]")
			fmt.Fprintln(out, "\nInput:")
			fmt.Fprintln(out, "      --model file            YAML model (repeatable, '-' for stdin)")
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
	if err := clibase.AfterParse(fs, &opt.Common, noHeader); err != nil {
		return opt, err
	}

	files, err := cliutil.ExpandPositionals(append([]string(models), posArgs...))
	if err != nil {
		return opt, err
	}
	opt.ModelFiles = files
	if len(opt.ModelFiles) == 0 {
		return opt, errors.New("at least one model file is required")
	}
	stdin := 0
	for _, f := range opt.ModelFiles {
		if f == "-" {
			stdin++
		}
	}
	if stdin > 1 {
		return opt, errors.New("stdin ('-') may be used for one model only")
	}
	return opt, nil
}

// stringSlice allows repeatable string flags.
type stringSlice []string

func (s *stringSlice) String() string     { return strings.Join(*s, ",") }
func (s *stringSlice) Set(v string) error { *s = append(*s, v); return nil }
