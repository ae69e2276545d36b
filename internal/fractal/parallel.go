package fractal

import (
	"context"
	"fmt"
	"runtime"
	"sync"
)

// RunParallel spreads the x slabs of the lattice over a pool of workers.
// Each slab gets its own registry and a random source seeded with
// seed+slab, so colors depend only on the seed and never on the worker
// count. Positions match Run exactly. Coordinate-keyed registry hits that
// would cross slab boundaries in a sequential run are not shared.
func (g *Generator) RunParallel(ctx context.Context, workers int) (*Cloud, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	R := g.params.Resolution
	total := 2 * R
	if total == 0 {
		return NewCloud(0), nil
	}
	if workers > total {
		workers = total
	}

	slabs := make([]*Cloud, total)
	jobs := make(chan int)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		done int
	)

	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for idx := range jobs {
				out := NewCloud(0)
				reg := NewRegistry(g.params.KeyMode)
				src := NewSource(g.seed + int64(idx))
				g.slab(idx-R, reg, src, out)
				slabs[idx] = out

				mu.Lock()
				done++
				g.notify(done, total)
				mu.Unlock()
			}
		}()
	}

	var canceled error
dispatch:
	for idx := 0; idx < total; idx++ {
		if err := ctx.Err(); err != nil {
			canceled = err
			break
		}
		select {
		case <-ctx.Done():
			canceled = ctx.Err()
			break dispatch
		case jobs <- idx:
		}
	}
	close(jobs)
	wg.Wait()

	if canceled != nil {
		return nil, fmt.Errorf("%w: %w", ErrCanceled, canceled)
	}

	out := NewCloud(0)
	for _, s := range slabs {
		out.Concat(s)
	}
	return out, nil
}

// GenerateParallel is shorthand for New followed by RunParallel.
func GenerateParallel(ctx context.Context, params Params, workers int, opts ...Option) (*Cloud, error) {
	g, err := New(params, opts...)
	if err != nil {
		return nil, err
	}
	return g.RunParallel(ctx, workers)
}
