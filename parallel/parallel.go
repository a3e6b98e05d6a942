// Package parallel implements a lattice parallel-for abstraction:
// a lattice range is sharded across workers, and reductions are restricted
// to commutative, associative folds (sum, min, max) so that result ordering
// never depends on scheduling. Built on golang.org/x/sync/errgroup, already
// pulled in by banshee-data/velocity.report and AleutianAI/AleutianFOSS for
// the same fan-out-and-join shape.
package parallel

import (
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// Workers is the default shard count, matching GOMAXPROCS unless overridden.
var Workers = runtime.GOMAXPROCS(0)

func shards(n int) (workers, chunk int) {
	workers = Workers
	if workers > n {
		workers = n
	}
	if workers <= 0 {
		workers = 1
	}
	chunk = (n + workers - 1) / workers
	return
}

// For runs body(lo, hi) over disjoint, contiguous sub-ranges of [0, n) on
// up to Workers goroutines, and returns the first error encountered (if
// any). body must not retain lo/hi past its call.
func For(n int, body func(lo, hi int) error) error {
	if n <= 0 {
		return nil
	}
	workers, chunk := shards(n)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		if lo >= hi {
			continue
		}
		g.Go(func() error {
			return body(lo, hi)
		})
	}
	return g.Wait()
}

// ForEach is a convenience wrapper around For that calls f once per index
// instead of once per shard.
func ForEach(n int, f func(i int) error) error {
	return For(n, func(lo, hi int) error {
			for i := lo; i < hi; i++ {
				if err := f(i); err != nil {
					return err
				}
			}
			return nil
		})
}

// SumReduce runs f once per index on up to Workers goroutines and returns
// the commutative, associative sum of its per-shard partial sums.
// Summation order (and hence the exact floating-point rounding) depends on
// the number of shards: runs with a different Workers count can differ in
// the last few bits even though both are mathematically valid.
func SumReduce(n int, f func(i int) float64) float64 {
	if n == 0 {
		return 0
	}
	workers, chunk := shards(n)
	partials := make([]float64, workers)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		wIdx := w
		g.Go(func() error {
				buf := make([]float64, 0, hi-lo)
				for i := lo; i < hi; i++ {
					buf = append(buf, f(i))
				}
				partials[wIdx] = floats.Sum(buf)
				return nil
			})
	}
	_ = g.Wait()

	return floats.Sum(partials)
}

// MinMaxReduce returns the min and max of f(i) over [0, n), computed via
// the same sharded-reduction strategy as SumReduce.
func MinMaxReduce(n int, f func(i int) float64) (min, max float64) {
	if n == 0 {
		return math.Inf(1), math.Inf(-1)
	}
	workers, chunk := shards(n)
	mins := make([]float64, workers)
	maxs := make([]float64, workers)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		wIdx := w
		g.Go(func() error {
				lmin, lmax := math.Inf(1), math.Inf(-1)
				for i := lo; i < hi; i++ {
					v := f(i)
					if v < lmin {
						lmin = v
					}
					if v > lmax {
						lmax = v
					}
				}
				mins[wIdx], maxs[wIdx] = lmin, lmax
				return nil
			})
	}
	_ = g.Wait()

	return floats.Min(mins), floats.Max(maxs)
}
