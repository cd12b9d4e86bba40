// internal/clibase/usage.go
package clibase

import (
	"flag"
	"fmt"
	"io"

	"microsim/internal/version"
)

// UsageCommon installs a shared Usage() handler on fs.
// extra prints tool-specific sections (usage line, parameter blocks).
func UsageCommon(fs *flag.FlagSet, name, tagline string, extra func(out io.Writer, def func(string) string)) {
	fs.Usage = func() {
		out := fs.Output()
		def := func(flagName string) string {
			if f := fs.Lookup(flagName); f != nil {
				return f.DefValue
			}
			return ""
		}

		// Header
		fmt.Fprintf(out, "%s – %s\n\n", name, tagline)
		fmt.Fprintf(out, "Version: %s\n\n", version.Version)

		if extra != nil {
			extra(out, def)
		}

		// Shared blocks
		fmt.Fprintln(out, "\nRun:")
		fmt.Fprintf(out, "  -n, --individuals int       Cohort size [%s]\n", def("individuals"))
		fmt.Fprintf(out, "  -T, --cycles int            Number of cycles [%s]\n", def("cycles"))
		fmt.Fprintf(out, "      --seed int              Random seed [%s]\n", def("seed"))
		fmt.Fprintf(out, "      --cost-discount float   Per-cycle cost discount rate [%s]\n", def("cost-discount"))
		fmt.Fprintf(out, "      --effect-discount float Per-cycle effect discount rate [%s]\n", def("effect-discount"))
		fmt.Fprintf(out, "      --cycle-length float    Utility multiplier per cycle [%s]\n", def("cycle-length"))
		fmt.Fprintf(out, "      --strategy string       none | treatment | both [%s]\n", def("strategy"))

		fmt.Fprintln(out, "\nPerformance:")
		fmt.Fprintf(out, "  -t, --threads int           Worker threads per run (0=all CPUs) [%s]\n", def("threads"))
		fmt.Fprintf(out, "      --jobs int              Runs simulated concurrently [%s]\n", def("jobs"))

		fmt.Fprintln(out, "\nOutput:")
		fmt.Fprintf(out, "  -o, --output string         Output: text | json | jsonl [%s]\n", def("output"))
		fmt.Fprintf(out, "      --individual-rows       One record per individual [%s]\n", def("individual-rows"))
		fmt.Fprintf(out, "      --trace                 Cohort trace per cycle [%s]\n", def("trace"))
		fmt.Fprintf(out, "      --pretty                Summary tables (text) [%s]\n", def("pretty"))
		fmt.Fprintf(out, "      --no-header             Suppress header lines [%s]\n", def("no-header"))
		fmt.Fprintf(out, "      --store file            Persist runs in SQLite [%s]\n", def("store"))

		fmt.Fprintln(out, "\nMiscellaneous:")
		fmt.Fprintf(out, "      --log-level string      debug | info | warn | error [%s]\n", def("log-level"))
		fmt.Fprintf(out, "      --log-format string     console | json [%s]\n", def("log-format"))
		fmt.Fprintf(out, "  -q, --quiet                 Suppress non-essential warnings [%s]\n", def("quiet"))
		fmt.Fprintln(out, "  -v, --version               Print version and exit")
		fmt.Fprintln(out, "  -h, --help                  Show this help and exit")
		fmt.Fprintln(out, "\nEnvironment: MICROSIM_THREADS, MICROSIM_JOBS, MICROSIM_STORE, MICROSIM_LOG_LEVEL,")
		fmt.Fprintln(out, "MICROSIM_LOG_FORMAT, MICROSIM_OTEL_ENDPOINT, MICROSIM_OTEL_ENABLED")
	}
}
