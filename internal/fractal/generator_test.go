package fractal_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/bulbfield/internal/fractal"
)

// cycleSource replays a fixed sequence of values.
type cycleSource struct {
	vals []float64
	i    int
}

func (s *cycleSource) Float64() float64 {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v
}

// drawCounter yields well spread values and counts draws.
type drawCounter struct {
	n int
}

func (s *drawCounter) Float64() float64 {
	s.n++
	return math.Mod(float64(s.n)*0.618033988749, 1)
}

func params(resolution int, scale float64, maxIter int, threshold float64) fractal.Params {
	p := fractal.DefaultParams()
	p.Resolution = resolution
	p.Scale = scale
	p.MaxIterations = maxIter
	p.DistanceThreshold = threshold
	return p
}

func countKind(c *fractal.Cloud, k fractal.PointKind) int {
	n := 0
	for _, kind := range c.Kinds {
		if kind == k {
			n++
		}
	}
	return n
}

var _ = Describe("Generate", func() {
	ctx := context.Background()

	Context("with an 8-cell lattice fully inside the threshold", func() {
		var cloud *fractal.Cloud

		BeforeEach(func() {
			var err error
			cloud, err = fractal.Generate(ctx, params(1, 2, 1, 10), fractal.WithSeed(7))
			Expect(err).NotTo(HaveOccurred())
		})

		It("emits one primary point per cell", func() {
			Expect(cloud.Primary).To(Equal(8))
			Expect(cloud.Skipped).To(BeZero())
			Expect(countKind(cloud, fractal.Primary)).To(Equal(8))
		})

		It("bridges only from cells with a successor on the axis", func() {
			Expect(countKind(cloud, fractal.BridgeX)).To(Equal(4))
			Expect(countKind(cloud, fractal.BridgeY)).To(Equal(4))
			Expect(cloud.Bridges).To(Equal(8))
		})

		It("keeps positions and colors aligned", func() {
			Expect(cloud.Len()).To(Equal(16))
			Expect(cloud.Positions).To(HaveLen(48))
			Expect(cloud.Colors).To(HaveLen(48))
			Expect(cloud.Kinds).To(HaveLen(16))
			Expect(cloud.Iterations).To(HaveLen(16))
		})

		It("visits cells in x, y, z order", func() {
			Expect(cloud.Kinds[:3]).To(Equal([]fractal.PointKind{fractal.Primary, fractal.BridgeX, fractal.BridgeY}))
			first := fractal.EscapeTime(r3.Vec{X: -3, Y: -3, Z: -3}, 4, 1).Point
			p := cloud.Point(0)
			Expect(float64(p[0])).To(BeNumerically("~", first.X, math.Abs(first.X)*1e-6))
			Expect(float64(p[2])).To(BeNumerically("~", first.Z, math.Abs(first.Z)*1e-6))
		})

		It("keeps every color channel in [0,1]", func() {
			for _, v := range cloud.Colors {
				Expect(v).To(BeNumerically(">=", 0))
				Expect(v).To(BeNumerically("<=", 1))
			}
		})
	})

	Context("bridge points", func() {
		It("sit halfway between both endpoints in position and color", func() {
			src := &cycleSource{vals: []float64{0.1, 0.2, 0.3, 0.9, 0.6, 0.5}}
			cloud, err := fractal.Generate(ctx, params(1, 2, 1, 10), fractal.WithSource(src))
			Expect(err).NotTo(HaveOccurred())

			a := fractal.EscapeTime(r3.Vec{X: -3, Y: -3, Z: -3}, 4, 1).Point
			b := fractal.EscapeTime(r3.Vec{X: -1, Y: -3, Z: -3}, 4, 1).Point
			mid := cloud.Point(1)
			Expect(float64(mid[0])).To(BeNumerically("~", (a.X+b.X)/2, 1e-3))
			Expect(float64(mid[1])).To(BeNumerically("~", (a.Y+b.Y)/2, 1e-3))
			Expect(float64(mid[2])).To(BeNumerically("~", (a.Z+b.Z)/2, 1e-3))

			// The neighbor was never registered, so its color is the next
			// fallback draw from the source.
			c := cloud.Color(1)
			Expect(c.R).To(BeNumerically("~", 0.5, 1e-6))
			Expect(c.G).To(BeNumerically("~", 0.4, 1e-6))
			Expect(c.B).To(BeNumerically("~", 0.4, 1e-6))
		})

		It("are not emitted toward neighbors outside the threshold", func() {
			// Only the origin cell passes; its neighbors do not.
			cloud, err := fractal.Generate(ctx, params(4, 2, 3, 0), fractal.WithSeed(1))
			Expect(err).NotTo(HaveOccurred())
			Expect(cloud.Primary).To(Equal(1))
			Expect(cloud.Bridges).To(BeZero())
		})
	})

	Context("coordinate-keyed registry hits", func() {
		// Every cell lies inside the unit sphere, so the refinement loop
		// collapses each one onto the origin and all cells share a key.
		collapsing := params(2, 0.25, 8, 10)

		It("reuses the registered color for the neighbor endpoint", func() {
			src := &drawCounter{}
			cloud, err := fractal.Generate(ctx, collapsing, fractal.WithSource(src))
			Expect(err).NotTo(HaveOccurred())
			Expect(cloud.Primary).To(Equal(64))
			Expect(cloud.Bridges).To(BeNumerically(">", 0))

			for _, v := range cloud.Positions {
				Expect(v).To(BeNumerically("==", 0))
			}

			var primary []float32
			for i, k := range cloud.Kinds {
				if k == fractal.Primary {
					primary = cloud.Colors[3*i : 3*i+3]
					continue
				}
				Expect(cloud.Colors[3*i : 3*i+3]).To(Equal(primary))
			}
			Expect(src.n).To(Equal(3 * cloud.Primary))
		})
	})

	Context("distance threshold", func() {
		It("admits only cells whose initial radius is within it", func() {
			p := params(2, 2, 2, 1.5)
			cloud, err := fractal.Generate(ctx, p, fractal.WithSeed(3))
			Expect(err).NotTo(HaveOccurred())

			inside := 0
			for x := -2; x < 2; x++ {
				for y := -2; y < 2; y++ {
					for z := -2; z < 2; z++ {
						if r3.Norm(p.Position(fractal.Cell{X: x, Y: y, Z: z})) <= 1.5 {
							inside++
						}
					}
				}
			}
			Expect(cloud.Primary).To(Equal(inside))
			Expect(cloud.Skipped).To(Equal(p.Cells() - inside))
		})

		It("keeps only the origin cell at zero", func() {
			cloud, err := fractal.Generate(ctx, params(2, 2, 3, 0), fractal.WithSeed(1))
			Expect(err).NotTo(HaveOccurred())
			Expect(cloud.Len()).To(Equal(1))
			Expect(cloud.Positions).To(Equal([]float32{0, 0, 0}))
			Expect(cloud.Exhausted).To(Equal(1))
		})

		It("yields nothing at zero when no cell sits on the origin", func() {
			cloud, err := fractal.Generate(ctx, params(1, 2, 3, 0), fractal.WithSeed(1))
			Expect(err).NotTo(HaveOccurred())
			Expect(cloud.Len()).To(BeZero())
			Expect(cloud.Colors).To(BeEmpty())
		})
	})

	Context("escape-time budget", func() {
		It("never exceeds maxIterations", func() {
			cloud, err := fractal.Generate(ctx, params(3, 0.5, 5, 10), fractal.WithSeed(11))
			Expect(err).NotTo(HaveOccurred())
			Expect(cloud.Len()).To(BeNumerically(">", 0))
			for _, it := range cloud.Iterations {
				Expect(it).To(BeNumerically("<=", 5))
			}
		})

		It("still applies the power map once with a zero budget", func() {
			p := params(1, 0.5, 0, 10)
			cloud, err := fractal.Generate(ctx, p, fractal.WithSeed(5))
			Expect(err).NotTo(HaveOccurred())
			Expect(cloud.Primary).To(Equal(8))

			want := fractal.PowerMap(p.Position(fractal.Cell{X: -1, Y: -1, Z: -1}), 4)
			got := cloud.Point(0)
			Expect(float64(got[0])).To(BeNumerically("~", want.X, 1e-6))
			Expect(float64(got[1])).To(BeNumerically("~", want.Y, 1e-6))
			Expect(float64(got[2])).To(BeNumerically("~", want.Z, 1e-6))
			for _, it := range cloud.Iterations {
				Expect(it).To(BeZero())
			}
		})
	})

	Context("determinism", func() {
		It("reproduces both buffers for a fixed seed", func() {
			p := params(3, 1.5, 4, 2)
			a, err := fractal.Generate(ctx, p, fractal.WithSeed(99))
			Expect(err).NotTo(HaveOccurred())
			b, err := fractal.Generate(ctx, p, fractal.WithSeed(99))
			Expect(err).NotTo(HaveOccurred())
			Expect(a.Positions).To(Equal(b.Positions))
			Expect(a.Colors).To(Equal(b.Colors))
		})

		It("changes colors but not geometry across seeds", func() {
			p := params(2, 2, 2, 10)
			a, _ := fractal.Generate(ctx, p, fractal.WithSeed(1))
			b, _ := fractal.Generate(ctx, p, fractal.WithSeed(2))
			Expect(a.Positions).To(Equal(b.Positions))
			Expect(a.Colors).NotTo(Equal(b.Colors))
		})
	})

	Context("degenerate and invalid configuration", func() {
		It("returns an empty cloud for resolution zero", func() {
			cloud, err := fractal.Generate(ctx, params(0, 2, 3, 10))
			Expect(err).NotTo(HaveOccurred())
			Expect(cloud.Len()).To(BeZero())
		})

		DescribeTable("rejects out-of-range parameters",
			func(mutate func(*fractal.Params), field string) {
				p := fractal.DefaultParams()
				mutate(&p)
				_, err := fractal.Generate(ctx, p)
				Expect(err).To(MatchError(fractal.ErrParameterBounds))
				var pe *fractal.ParamError
				Expect(errors.As(err, &pe)).To(BeTrue())
				Expect(pe.Field).To(Equal(field))
			},
			Entry("negative resolution", func(p *fractal.Params) { p.Resolution = -1 }, "resolution"),
			Entry("zero scale", func(p *fractal.Params) { p.Scale = 0 }, "scale"),
			Entry("NaN scale", func(p *fractal.Params) { p.Scale = math.NaN() }, "scale"),
			Entry("negative iterations", func(p *fractal.Params) { p.MaxIterations = -2 }, "max_iterations"),
			Entry("negative threshold", func(p *fractal.Params) { p.DistanceThreshold = -0.1 }, "distance_threshold"),
			Entry("zero power", func(p *fractal.Params) { p.Power = 0 }, "power"),
			Entry("blend above one", func(p *fractal.Params) { p.Blend = 1.5 }, "blend"),
		)

		It("rejects unknown key modes", func() {
			p := fractal.DefaultParams()
			p.KeyMode = "hash"
			_, err := fractal.Generate(ctx, p)
			Expect(err).To(MatchError(fractal.ErrUnknownKeyMode))
		})
	})

	Context("cancellation", func() {
		It("stops before the first slab of a canceled context", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := fractal.Generate(cctx, params(2, 2, 2, 10))
			Expect(err).To(MatchError(fractal.ErrCanceled))
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		})
	})

	Context("observers", func() {
		It("reports every x slab", func() {
			var calls []int
			obs := fractal.ObserverFunc(func(done, total int) {
				Expect(total).To(Equal(6))
				calls = append(calls, done)
			})
			_, err := fractal.Generate(ctx, params(3, 2, 1, 10), fractal.WithObserver(obs))
			Expect(err).NotTo(HaveOccurred())
			Expect(calls).To(Equal([]int{1, 2, 3, 4, 5, 6}))
		})
	})
})

var _ = Describe("GenerateParallel", func() {
	ctx := context.Background()
	p := params(4, 1.2, 6, 1.5)

	It("produces the same geometry as a sequential run", func() {
		seq, err := fractal.Generate(ctx, p, fractal.WithSeed(5))
		Expect(err).NotTo(HaveOccurred())
		par, err := fractal.GenerateParallel(ctx, p, 3, fractal.WithSeed(5))
		Expect(err).NotTo(HaveOccurred())

		Expect(par.Positions).To(Equal(seq.Positions))
		Expect(par.Kinds).To(Equal(seq.Kinds))
		Expect(par.Primary).To(Equal(seq.Primary))
		Expect(par.Bridges).To(Equal(seq.Bridges))
		Expect(par.Skipped).To(Equal(seq.Skipped))
		Expect(par.Colors).To(HaveLen(len(seq.Colors)))
	})

	It("derives colors from the seed regardless of worker count", func() {
		one, err := fractal.GenerateParallel(ctx, p, 1, fractal.WithSeed(8))
		Expect(err).NotTo(HaveOccurred())
		many, err := fractal.GenerateParallel(ctx, p, 8, fractal.WithSeed(8))
		Expect(err).NotTo(HaveOccurred())
		Expect(many.Colors).To(Equal(one.Colors))
	})

	It("handles an empty lattice", func() {
		cloud, err := fractal.GenerateParallel(ctx, params(0, 2, 1, 1), 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(cloud.Len()).To(BeZero())
	})

	It("reports cancellation", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := fractal.GenerateParallel(cctx, p, 2)
		Expect(err).To(MatchError(fractal.ErrCanceled))
	})
})
