// internal/sicksickerapp/app.go
package sicksickerapp

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"microsim/internal/appcore"
	"microsim/internal/cli"
	"microsim/internal/cmdutil"
	"microsim/internal/config"
	"microsim/internal/model"
	"microsim/internal/output"
	"microsim/internal/pretty"
	"microsim/internal/sicksickercli"
	"microsim/internal/version"
	"microsim/internal/writers"
)

func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)

	env, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}

	fs := cli.NewFlagSet("sicksicker")
	fs.SetOutput(io.Discard)
	opts, err := sicksickercli.ParseArgs(fs, argv, env)
	if err != nil {
		return cmdutil.ParseFailure(err, fs, outw, stderr)
	}
	if opts.Version {
		_, _ = fmt.Fprintf(outw, "sicksicker version %s\n", version.Version)
		return cmdutil.Flush(outw, stderr, 0)
	}

	log, stop, err := appcore.Ambient(parent, "sicksicker", env, opts.LogLevel, opts.LogFormat, opts.Quiet, stderr)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}
	defer stop()

	sc, err := opts.Scenario()
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return appcore.ExitCode(err)
	}

	coreOpts := appcore.Options{
		Threads: opts.Threads, Jobs: opts.Jobs, Strategy: opts.Strategy,
		Records: output.RecordOptions{Individuals: opts.IndividualRows, Trace: opts.Trace},
		Store:   opts.Store, Quiet: opts.Quiet, Logger: log,
	}
	writer := appcore.NewRecordWriterFactory(opts.Output, writers.Options{
		Header: opts.Header, Pretty: opts.Pretty, Style: pretty.ForWriter(stdout),
	})
	return appcore.Run(parent, stdout, stderr, coreOpts, []model.Scenario{sc}, writer)
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}
