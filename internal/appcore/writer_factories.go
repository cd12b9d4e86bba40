// internal/appcore/writer_factories.go
package appcore

import (
	"io"

	"microsim/internal/writers"
	"microsim/pkg/api"
)

// RecordWriterFactory starts the registered writer for a format.
type RecordWriterFactory struct {
	Format string
	Opts   writers.Options
}

// NewRecordWriterFactory returns a factory for format with opts.
func NewRecordWriterFactory(format string, opts writers.Options) RecordWriterFactory {
	return RecordWriterFactory{Format: format, Opts: opts}
}

// Start implements WriterFactory.
func (f RecordWriterFactory) Start(out io.Writer, bufSize int) (chan<- api.RecordV1, <-chan error) {
	return writers.StartRecordWriter(out, f.Format, f.Opts, bufSize)
}
