package fractal

import (
	"context"
	"fmt"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"
)

// Observer is notified after every completed x slab of the lattice.
type Observer interface {
	OnSlab(done, total int)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(done, total int)

func (f ObserverFunc) OnSlab(done, total int) { f(done, total) }

type Option func(*Generator)

// WithSource injects the random source used for colors. It takes precedence
// over WithSeed for sequential runs.
func WithSource(src RandomSource) Option {
	return func(g *Generator) { g.source = src }
}

// WithSeed seeds the default random source. Parallel runs derive one
// source per slab from this seed.
func WithSeed(seed int64) Option {
	return func(g *Generator) { g.seed = seed }
}

func WithObserver(o Observer) Option {
	return func(g *Generator) { g.observers = append(g.observers, o) }
}

type Generator struct {
	params    Params
	seed      int64
	source    RandomSource
	observers []Observer
}

func New(params Params, opts ...Option) (*Generator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if params.KeyMode == "" {
		params.KeyMode = KeyCoordinate
	}
	g := &Generator{params: params}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Generate is shorthand for New followed by Run.
func Generate(ctx context.Context, params Params, opts ...Option) (*Cloud, error) {
	g, err := New(params, opts...)
	if err != nil {
		return nil, err
	}
	return g.Run(ctx)
}

// Run traverses the lattice in x, y, z order with a single registry and a
// single random source. The context is checked before every x slab.
func (g *Generator) Run(ctx context.Context) (*Cloud, error) {
	src := g.source
	if src == nil {
		src = NewSource(g.seed)
	}
	reg := NewRegistry(g.params.KeyMode)

	R := g.params.Resolution
	total := 2 * R
	out := NewCloud(0)

	for i, x := 0, -R; x < R; i, x = i+1, x+1 {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrCanceled, ctx.Err())
		default:
		}

		g.slab(x, reg, src, out)
		g.notify(i+1, total)
	}

	return out, nil
}

func (g *Generator) notify(done, total int) {
	for _, o := range g.observers {
		o.OnSlab(done, total)
	}
}

// slab emits every point whose cell has the given x index.
func (g *Generator) slab(x int, reg *Registry, src RandomSource, out *Cloud) {
	p := g.params
	R := p.Resolution

	for y := -R; y < R; y++ {
		for z := -R; z < R; z++ {
			cell := Cell{X: x, Y: y, Z: z}
			p0 := p.Position(cell)
			if r3.Norm(p0) > p.DistanceThreshold {
				out.Skipped++
				continue
			}

			e := EscapeTime(p0, p.Power, p.MaxIterations)
			col := RandomColor(src)
			key := reg.KeyFor(cell, e.Point)
			reg.Put(key, col)
			out.Append(e.Point, col, Primary, e.Iterations)
			if !e.Escaped {
				out.Exhausted++
			}

			if x < R-1 {
				g.bridge(key, e.Point, Cell{X: x + 1, Y: y, Z: z}, BridgeX, reg, src, out)
			}
			if y < R-1 {
				g.bridge(key, e.Point, Cell{X: x, Y: y + 1, Z: z}, BridgeY, reg, src, out)
			}
		}
	}
}

// bridge appends the midpoint between from and the fractal point of the
// neighbor cell, provided the neighbor passes the distance threshold.
func (g *Generator) bridge(fromKey Key, from r3.Vec, neighbor Cell, kind PointKind, reg *Registry, src RandomSource, out *Cloud) {
	p := g.params
	n0 := p.Position(neighbor)
	if r3.Norm(n0) > p.DistanceThreshold {
		return
	}

	en := EscapeTime(n0, p.Power, p.MaxIterations)
	c1, _ := reg.Resolve(fromKey, src)
	c2, _ := reg.Resolve(reg.KeyFor(neighbor, en.Point), src)

	out.Append(Midpoint(from, en.Point), Blend(c1, c2, p.Blend), kind, en.Iterations)
}

// Midpoint interpolates a and b at 0.5.
func Midpoint(a, b r3.Vec) r3.Vec {
	return r3.Add(a, r3.Scale(0.5, r3.Sub(b, a)))
}

// Blend linearly interpolates two colors channel by channel.
func Blend(a, b colorful.Color, t float64) colorful.Color {
	return a.BlendRgb(b, t)
}
