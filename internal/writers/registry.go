// internal/writers/registry.go
package writers

import (
	"fmt"
	"io"

	"microsim/internal/pretty"
	"microsim/pkg/api"
)

// Options carry the presentation switches shared by all formats.
type Options struct {
	Header bool
	Pretty bool // text only: summaries and comparisons as tables
	Style  pretty.Options
}

// Starter spins up a writer goroutine; the caller sends records and closes
// the channel, then waits on the error channel.
type Starter func(out io.Writer, opt Options, bufSize int) (chan<- api.RecordV1, <-chan error)

// RecordWriters maps format → starter. Register in init() blocks.
var RecordWriters = map[string]Starter{}

// RegisterRecord adds or replaces (last wins) a format.
func RegisterRecord(format string, fn Starter) { RecordWriters[format] = fn }

// StartRecordWriter dispatches on format. An unknown format still returns a
// channel (drained) and reports the error once it is closed.
func StartRecordWriter(out io.Writer, format string, opt Options, bufSize int) (chan<- api.RecordV1, <-chan error) {
	if fn, ok := RecordWriters[format]; ok {
		return fn(out, opt, bufSize)
	}
	in := make(chan api.RecordV1, 1)
	errCh := make(chan error, 1)
	go func() {
		for range in {
		}
		errCh <- fmt.Errorf("unknown record format %q (no writer registered)", format)
	}()
	return in, errCh
}
