// Package pretty renders human-facing summary tables for --pretty.
package pretty

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"microsim/pkg/api"
)

// Options control the rendering.
type Options struct {
	Color bool // ANSI styling; off for pipes and files
	Lang  language.Tag
}

// DefaultOptions renders plain English-grouped numbers.
var DefaultOptions = Options{Lang: language.English}

// ForWriter enables colour when w is a terminal.
func ForWriter(w io.Writer) Options {
	opt := DefaultOptions
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		opt.Color = true
	}
	return opt
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))
	headStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#87CEEB"))
	goodStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#90EE90"))
	badStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	ruleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

type table struct {
	title string
	head  []string
	rows  [][]string
	right []bool // right-align column
	tone  func(row, col int) *lipgloss.Style
}

// Summaries renders one row per run.
func Summaries(sums []api.SummaryV1, opt Options) string {
	p := message.NewPrinter(opt.Lang)
	t := table{
		title: "Runs",
		head:  []string{"model", "strategy", "n", "cycles", "cost", "± se", "effect", "± se"},
		right: []bool{false, false, true, true, true, true, true, true},
	}
	for _, s := range sums {
		t.rows = append(t.rows, []string{
			s.Model, s.Strategy,
			p.Sprintf("%d", s.Individuals), p.Sprintf("%d", s.Cycles),
			p.Sprintf("%.2f", s.MeanCost), p.Sprintf("%.2f", s.SECost),
			p.Sprintf("%.4f", s.MeanEffect), p.Sprintf("%.4f", s.SEEffect),
		})
	}
	return t.render(opt)
}

// Comparisons renders the incremental analyses.
func Comparisons(cmps []api.ComparisonV1, opt Options) string {
	p := message.NewPrinter(opt.Lang)
	t := table{
		title: "Cost-effectiveness",
		head:  []string{"model", "vs", "Δ cost", "Δ effect", "ICER", "verdict"},
		right: []bool{false, false, true, true, true, false},
	}
	for _, c := range cmps {
		icer := "—"
		if c.Verdict == "icer" {
			icer = p.Sprintf("%.0f", c.ICER)
		}
		t.rows = append(t.rows, []string{
			c.Model, c.Alt + " vs " + c.Base,
			p.Sprintf("%.2f", c.DeltaCost), p.Sprintf("%.4f", c.DeltaEffect),
			icer, c.Verdict,
		})
	}
	t.tone = func(row, col int) *lipgloss.Style {
		if col != 5 {
			return nil
		}
		switch cmps[row].Verdict {
		case "dominant":
			return &goodStyle
		case "dominated":
			return &badStyle
		}
		return nil
	}
	return t.render(opt)
}

func (t table) render(opt Options) string {
	widths := make([]int, len(t.head))
	for c, h := range t.head {
		widths[c] = lipgloss.Width(h)
	}
	for _, r := range t.rows {
		for c, cell := range r {
			if w := lipgloss.Width(cell); w > widths[c] {
				widths[c] = w
			}
		}
	}
	paint := func(s string, st *lipgloss.Style) string {
		if !opt.Color || st == nil {
			return s
		}
		return st.Render(s)
	}
	cell := func(s string, c int) string {
		pad := strings.Repeat(" ", widths[c]-lipgloss.Width(s))
		if t.right[c] {
			return pad + s
		}
		return s + pad
	}

	var b strings.Builder
	b.WriteString(paint(" "+t.title+" ", &titleStyle))
	b.WriteByte('\n')
	heads := make([]string, len(t.head))
	total := 0
	for c, h := range t.head {
		heads[c] = paint(cell(h, c), &headStyle)
		total += widths[c]
	}
	b.WriteString(strings.Join(heads, "  "))
	b.WriteByte('\n')
	b.WriteString(paint(strings.Repeat("─", total+2*(len(widths)-1)), &ruleStyle))
	b.WriteByte('\n')
	for i, r := range t.rows {
		cells := make([]string, len(r))
		for c, s := range r {
			var st *lipgloss.Style
			if t.tone != nil {
				st = t.tone(i, c)
			}
			cells[c] = paint(cell(s, c), st)
		}
		b.WriteString(strings.Join(cells, "  "))
		b.WriteByte('\n')
	}
	return b.String()
}
