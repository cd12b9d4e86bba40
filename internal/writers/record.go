package writers

import (
	"io"

	"microsim/internal/output"
	"microsim/internal/pretty"
	"microsim/pkg/api"
)

func init() {
	RegisterRecord("text", StartTextWriter)
	RegisterRecord("json", StartJSONWriter)
	RegisterRecord("jsonl", StartJSONLWriter)
}

// StartTextWriter streams TSV sections. In pretty mode summaries and
// comparisons are held back and rendered as tables after the stream ends.
func StartTextWriter(out io.Writer, opt Options, bufSize int) (chan<- api.RecordV1, <-chan error) {
	if bufSize <= 0 {
		bufSize = 64
	}
	in := make(chan api.RecordV1, bufSize)
	errCh := make(chan error, 1)

	go func() {
		var (
			sums []api.SummaryV1
			cmps []api.ComparisonV1
			skip output.TextFilter
		)
		if opt.Pretty {
			skip = func(r api.RecordV1) bool {
				switch r.Kind {
				case api.KindSummary:
					sums = append(sums, *r.Summary)
					return true
				case api.KindComparison:
					cmps = append(cmps, *r.Comparison)
					return true
				}
				return false
			}
		}
		err := output.StreamText(out, in, opt.Header, skip)
		if err == nil && opt.Pretty {
			err = writePretty(out, sums, cmps, opt.Style)
		}
		if IsBrokenPipe(err) {
			err = nil
		}
		errCh <- err
	}()
	return in, errCh
}

func writePretty(out io.Writer, sums []api.SummaryV1, cmps []api.ComparisonV1, st pretty.Options) error {
	if len(sums) > 0 {
		if _, err := io.WriteString(out, "\n"+pretty.Summaries(sums, st)); err != nil {
			return err
		}
	}
	if len(cmps) > 0 {
		if _, err := io.WriteString(out, "\n"+pretty.Comparisons(cmps, st)); err != nil {
			return err
		}
	}
	return nil
}

// StartJSONWriter buffers every record and writes one ReportV1 document.
func StartJSONWriter(out io.Writer, _ Options, bufSize int) (chan<- api.RecordV1, <-chan error) {
	if bufSize <= 0 {
		bufSize = 64
	}
	in := make(chan api.RecordV1, bufSize)
	errCh := make(chan error, 1)
	go func() {
		var buf []api.RecordV1
		for r := range in {
			buf = append(buf, r)
		}
		err := output.WriteJSON(out, buf)
		if IsBrokenPipe(err) {
			err = nil
		}
		errCh <- err
	}()
	return in, errCh
}
