// internal/app/app.go
package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"microsim/internal/appcore"
	"microsim/internal/cli"
	"microsim/internal/cmdutil"
	"microsim/internal/config"
	"microsim/internal/model"
	"microsim/internal/output"
	"microsim/internal/pretty"
	"microsim/internal/version"
	"microsim/internal/writers"
)

// Stdin backs the "-" model file.
var Stdin io.Reader = os.Stdin

func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)

	env, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}

	fs := cli.NewFlagSet("microsim")
	fs.SetOutput(io.Discard)
	opts, err := cli.ParseArgs(fs, argv, env)
	if err != nil {
		return cmdutil.ParseFailure(err, fs, outw, stderr)
	}
	if opts.Version {
		_, _ = fmt.Fprintf(outw, "microsim version %s\n", version.Version)
		return cmdutil.Flush(outw, stderr, 0)
	}

	log, stop, err := appcore.Ambient(parent, "microsim", env, opts.LogLevel, opts.LogFormat, opts.Quiet, stderr)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}
	defer stop()

	scenarios, err := LoadScenarios(opts.ModelFiles, opts.Overrides())
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}
	if opts.Pretty && opts.IndividualRows {
		cmdutil.Warnf(stderr, opts.Quiet, "--pretty only tabulates summaries; individual rows stay TSV")
	}

	coreOpts := appcore.Options{
		Threads: opts.Threads, Jobs: opts.Jobs, Strategy: opts.Strategy,
		Records: output.RecordOptions{Individuals: opts.IndividualRows, Trace: opts.Trace},
		Store:   opts.Store, Quiet: opts.Quiet, Logger: log,
	}
	writer := appcore.NewRecordWriterFactory(opts.Output, writers.Options{
		Header: opts.Header, Pretty: opts.Pretty, Style: pretty.ForWriter(stdout),
	})
	return appcore.Run(parent, stdout, stderr, coreOpts, scenarios, writer)
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}

// LoadScenarios reads every model file ("-" = Stdin) and applies overrides.
func LoadScenarios(files []string, o model.Overrides) ([]model.Scenario, error) {
	out := make([]model.Scenario, 0, len(files))
	for _, path := range files {
		var (
			f   model.File
			err error
		)
		if path == "-" {
			f, err = model.Parse(Stdin)
			if err == nil && f.Name == "" {
				f.Name = "stdin"
			}
		} else {
			f, err = model.Load(path)
		}
		if err != nil {
			return nil, err
		}
		sc, err := f.Scenario(o)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		sc.Source = path
		out = append(out, sc)
	}
	return out, nil
}
