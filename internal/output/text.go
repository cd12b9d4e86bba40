// internal/output/text.go
package output

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"microsim/pkg/api"
)

// FormatSummary renders one summary as a TSV row.
func FormatSummary(s api.SummaryV1) string {
	occ := make([]string, len(s.FinalOccupancy))
	for i, n := range s.FinalOccupancy {
		occ[i] = label(s.StateLabels, i) + "=" + strconv.Itoa(n)
	}
	return fmt.Sprintf("%s\t%s\t%d\t%d\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s",
		s.Model, s.Strategy, s.Seed, s.Individuals, s.Cycles,
		num(s.MeanCost), num(s.SECost), num(s.MeanEffect), num(s.SEEffect),
		num(s.UndiscountedMeanCost), num(s.UndiscountedMeanEffect),
		strings.Join(occ, ","),
	)
}

// FormatIndividual renders one individual as a TSV row.
func FormatIndividual(in api.IndividualV1) string {
	return fmt.Sprintf("%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s",
		in.Model, in.Strategy, in.Index, in.Initial, in.Final,
		num(in.TotalCost), num(in.TotalEffect), joinInts(in.Trajectory),
	)
}

// FormatTrace renders one trace row.
func FormatTrace(tr api.TraceRowV1) string {
	return fmt.Sprintf("%s\t%s\t%d\t%s", tr.Model, tr.Strategy, tr.Cycle, strings.ReplaceAll(joinInts(tr.Counts), ",", "\t"))
}

// TraceHeader is TraceHeaderBase plus one column per state.
func TraceHeader(labels []string, nS int) string {
	cols := make([]string, nS)
	for i := range cols {
		cols[i] = label(labels, i)
	}
	return TraceHeaderBase + "\t" + strings.Join(cols, "\t")
}

// FormatComparison renders one comparison; icer is "NA" unless the verdict is "icer".
func FormatComparison(c api.ComparisonV1) string {
	icer := "NA"
	if c.Verdict == "icer" {
		icer = num(c.ICER)
	}
	return fmt.Sprintf("%s\t%s\t%s\t%s\t%s\t%s\t%s",
		c.Model, c.Base, c.Alt, num(c.DeltaCost), num(c.DeltaEffect), icer, c.Verdict)
}

// TextFilter lets a caller take over some records (pretty mode renders
// summaries and comparisons itself). Return true to suppress the TSV line.
type TextFilter func(api.RecordV1) bool

// StreamText writes records as TSV sections. A new section (blank line plus
// header when header is true) starts whenever the record kind changes.
func StreamText(w io.Writer, in <-chan api.RecordV1, header bool, skip TextFilter) error {
	bw := bufio.NewWriter(w)
	var (
		section string
		started bool
		labels  []string
		werr    error
	)
	for r := range in {
		if werr != nil || (skip != nil && skip(r)) {
			if r.Kind == api.KindSummary && r.Summary != nil {
				labels = r.Summary.StateLabels
			}
			continue
		}
		var line, head string
		switch r.Kind {
		case api.KindSummary:
			labels = r.Summary.StateLabels
			line, head = FormatSummary(*r.Summary), SummaryHeader
		case api.KindIndividual:
			line, head = FormatIndividual(*r.Individual), IndividualHeader
		case api.KindTrace:
			line, head = FormatTrace(*r.Trace), TraceHeader(labels, len(r.Trace.Counts))
		case api.KindComparison:
			line, head = FormatComparison(*r.Comparison), ComparisonHeader
		default:
			werr = fmt.Errorf("unknown record kind %q", r.Kind)
			continue
		}
		if head != section {
			if started {
				werr = writeLine(bw, "")
			}
			if header && werr == nil {
				werr = writeLine(bw, head)
			}
			section, started = head, true
		}
		if werr == nil {
			werr = writeLine(bw, line)
		}
	}
	if werr != nil {
		return werr
	}
	return bw.Flush()
}

func writeLine(w *bufio.Writer, s string) error {
	if _, err := w.WriteString(s); err != nil {
		return err
	}
	return w.WriteByte('\n')
}

func label(labels []string, i int) string {
	if i < len(labels) {
		return labels[i]
	}
	return strconv.Itoa(i)
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) }

func joinInts(xs []int) string {
	var b strings.Builder
	for i, x := range xs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(x))
	}
	return b.String()
}
