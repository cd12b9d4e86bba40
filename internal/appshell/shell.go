// Package appshell is the process wrapper shared by the cmd/ mains.
package appshell

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// RunFunc is an app entry point.
type RunFunc func(context.Context, []string, io.Writer, io.Writer) int

// Main runs run with a signal-aware context and exits with its code.
// No arguments means -h.
func Main(run RunFunc) { mainWith(run, Exec) }

// MainDefaults is Main for tools that run their built-in model when given no
// arguments.
func MainDefaults(run RunFunc) { mainWith(run, ExecDefaults) }

func mainWith(run RunFunc, exec func(context.Context, RunFunc, []string, io.Writer, io.Writer) int) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := exec(ctx, run, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// Exec runs run with argv (no arguments means -h) and normalizes the exit
// code.
func Exec(ctx context.Context, run RunFunc, argv []string, stdout, stderr io.Writer) int {
	if len(argv) == 0 {
		argv = []string{"-h"}
	}
	return ExecDefaults(ctx, run, argv, stdout, stderr)
}

// ExecDefaults runs run with argv unchanged. A cancelled context never
// reports success.
func ExecDefaults(ctx context.Context, run RunFunc, argv []string, stdout, stderr io.Writer) int {
	code := run(ctx, argv, stdout, stderr)
	if ctx.Err() != nil && code == 0 {
		code = 130
	}
	return code
}
