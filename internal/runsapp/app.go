// internal/runsapp/app.go
package runsapp

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"microsim/internal/appcore"
	"microsim/internal/cli"
	"microsim/internal/cmdutil"
	"microsim/internal/config"
	"microsim/internal/jsonutil"
	"microsim/internal/output"
	"microsim/internal/pretty"
	"microsim/internal/store"
	"microsim/internal/version"
	"microsim/pkg/api"
)

// ListHeader is the TSV header of the run listing.
const ListHeader = "run_id\tcreated_at\tmodel\tstrategy\tseed\tindividuals\tcycles\tmean_cost\tmean_effect"

// Options holds microsim-runs flags.
type Options struct {
	Store   string
	Limit   int
	RunID   string
	Output  string
	Pretty  bool
	Header  bool
	Version bool
}

// ParseArgs registers and parses all flags.
func ParseArgs(fs *flag.FlagSet, argv []string, env config.Env) (Options, error) {
	var opt Options
	var help, noHeader bool
	fs.StringVar(&opt.Store, "store", env.Store, "SQLite run store")
	fs.IntVar(&opt.Limit, "limit", 20, "newest N runs (0=all)")
	fs.StringVar(&opt.RunID, "run", "", "show one run with its trace")
	fs.StringVar(&opt.Output, "output", "text", "output: text | json")
	fs.StringVar(&opt.Output, "o", "text", "alias of --output")
	fs.BoolVar(&opt.Pretty, "pretty", false, "summary table (text)")
	fs.BoolVar(&noHeader, "no-header", false, "suppress header lines")
	fs.BoolVar(&opt.Version, "v", false, "print version and exit")
	fs.BoolVar(&opt.Version, "version", false, "print version and exit")
	fs.BoolVar(&help, "h", false, "show help")
	fs.BoolVar(&help, "help", false, "show help")
	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "microsim-runs – list persisted microsim runs\n\nVersion: %s\n\n", version.Version)
		fmt.Fprintln(out, "Usage: microsim-runs --store runs.db [--limit N] [--run ID] [-o text|json]")
		fmt.Fprintln(out)
		fs.PrintDefaults()
	}

	if err := fs.Parse(argv); err != nil {
		return opt, err
	}
	if help {
		return opt, flag.ErrHelp
	}
	if opt.Version {
		return opt, nil
	}
	opt.Header = !noHeader
	switch {
	case opt.Store == "":
		return opt, errors.New("--store (or MICROSIM_STORE) is required")
	case opt.Limit < 0:
		return opt, errors.New("--limit must be ≥ 0")
	case opt.Output != "text" && opt.Output != "json":
		return opt, fmt.Errorf("invalid --output %q", opt.Output)
	case opt.Pretty && opt.Output != "text":
		return opt, errors.New("--pretty applies to --output text only")
	}
	return opt, nil
}

func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)

	env, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}
	fs := cli.NewFlagSet("microsim-runs")
	fs.SetOutput(io.Discard)
	opts, err := ParseArgs(fs, argv, env)
	if err != nil {
		return cmdutil.ParseFailure(err, fs, outw, stderr)
	}
	if opts.Version {
		_, _ = fmt.Fprintf(outw, "microsim-runs version %s\n", version.Version)
		return cmdutil.Flush(outw, stderr, 0)
	}

	log, stop, err := appcore.Ambient(parent, "microsim-runs", env, env.LogLevel, env.LogFormat, false, stderr)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}
	defer stop()

	db, err := store.Open(parent, opts.Store)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 3
	}
	defer db.Close()

	if opts.RunID != "" {
		run, err := db.GetRun(parent, opts.RunID)
		if err != nil {
			_, _ = fmt.Fprintln(stderr, err)
			if errors.Is(err, store.ErrNotFound) {
				return 2
			}
			return appcore.ExitCode(err)
		}
		if err := writeRun(outw, opts, run); err != nil {
			_, _ = fmt.Fprintln(stderr, err)
			return 3
		}
		return cmdutil.Flush(outw, stderr, 0)
	}

	runs, err := db.ListRuns(parent, opts.Limit)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return appcore.ExitCode(err)
	}
	log.Debug("listed runs", zap.Int("runs", len(runs)), zap.String("store", opts.Store))
	if err := writeList(outw, opts, runs); err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 3
	}
	return cmdutil.Flush(outw, stderr, 0)
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}

// listedRun is the JSON shape of one listing entry.
type listedRun struct {
	CreatedAt time.Time     `json:"created_at"`
	Summary   api.SummaryV1 `json:"summary"`
	Trace     [][]int       `json:"trace,omitempty"`
}

func writeList(w io.Writer, o Options, runs []store.Run) error {
	switch {
	case o.Output == "json":
		out := make([]listedRun, len(runs))
		for i, r := range runs {
			out[i] = listedRun{CreatedAt: r.CreatedAt, Summary: r.Summary}
		}
		return jsonutil.EncodePretty(w, out)
	case o.Pretty:
		sums := make([]api.SummaryV1, len(runs))
		for i, r := range runs {
			sums[i] = r.Summary
		}
		_, err := io.WriteString(w, pretty.Summaries(sums, pretty.ForWriter(w)))
		return err
	}
	if o.Header {
		if _, err := fmt.Fprintln(w, ListHeader); err != nil {
			return err
		}
	}
	for _, r := range runs {
		s := r.Summary
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%.4f\t%.4f\n",
			r.ID, r.CreatedAt.Format(time.RFC3339), s.Model, s.Strategy, s.Seed,
			s.Individuals, s.Cycles, s.MeanCost, s.MeanEffect); err != nil {
			return err
		}
	}
	return nil
}

func writeRun(w io.Writer, o Options, r store.Run) error {
	if o.Output == "json" {
		return jsonutil.EncodePretty(w, listedRun{CreatedAt: r.CreatedAt, Summary: r.Summary, Trace: r.Trace})
	}
	if o.Header {
		if _, err := fmt.Fprintln(w, output.SummaryHeader); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, output.FormatSummary(r.Summary)); err != nil {
		return err
	}
	if len(r.Trace) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	if o.Header {
		if _, err := fmt.Fprintln(w, output.TraceHeader(r.Summary.StateLabels, r.Summary.States)); err != nil {
			return err
		}
	}
	for t, counts := range r.Trace {
		row := api.TraceRowV1{Model: r.Summary.Model, Strategy: r.Summary.Strategy, Cycle: t, Counts: counts}
		if _, err := fmt.Fprintln(w, output.FormatTrace(row)); err != nil {
			return err
		}
	}
	return nil
}
