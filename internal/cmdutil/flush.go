package cmdutil

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"
)

// Flush flushes w and returns code, or 3 on a write error (0 on broken pipe).
func Flush(w *bufio.Writer, stderr io.Writer, code int) int {
	if err := w.Flush(); err != nil {
		if errors.Is(err, syscall.EPIPE) || errors.Is(err, io.ErrClosedPipe) {
			return 0
		}
		_, _ = fmt.Fprintln(stderr, err)
		return 3
	}
	return code
}

// Usage prints fs usage to w and returns code after flushing.
func Usage(fs *flag.FlagSet, w *bufio.Writer, stderr io.Writer, code int) int {
	fs.SetOutput(w)
	fs.Usage()
	return Flush(w, stderr, code)
}

// ParseFailure handles a flag parsing error the same way for every tool:
// help exits 0, anything else prints the error and usage and exits 2.
func ParseFailure(err error, fs *flag.FlagSet, w *bufio.Writer, stderr io.Writer) int {
	if errors.Is(err, flag.ErrHelp) {
		return Usage(fs, w, stderr, 0)
	}
	_, _ = fmt.Fprintln(stderr, err)
	return Usage(fs, w, stderr, 2)
}
