// Package par splits an index range across goroutines.
package par

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Workers normalises a worker count: <=0 means all CPUs, never more than n.
func Workers(workers, n int) int {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}
	return workers
}

// Range calls fn over contiguous [lo, hi) chunks of [0, n) and returns the
// first error. With one worker it runs inline.
func Range(n, workers int, fn func(lo, hi int) error) error {
	if n == 0 {
		return nil
	}
	workers = Workers(workers, n)
	if workers == 1 {
		return fn(0, n)
	}
	step := (n + workers - 1) / workers
	var g errgroup.Group
	for lo := 0; lo < n; lo += step {
		lo, hi := lo, min(lo+step, n)
		g.Go(func() error { return fn(lo, hi) })
	}
	return g.Wait()
}
