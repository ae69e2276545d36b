package analysis

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/san-kum/bulbfield/internal/fractal"
)

// Summary describes the shape of a point cloud.
type Summary struct {
	Points    int
	Primary   int
	Bridges   int
	Skipped   int
	Exhausted int
	// NonFinite counts points whose coordinates overflowed; they are left
	// out of the bounds and radius statistics.
	NonFinite int

	Min, Max   mgl32.Vec3
	MeanRadius float64
	MaxRadius  float64
	MeanColor  colorful.Color
}

func Summarize(c *fractal.Cloud) Summary {
	s := Summary{
		Points:    c.Len(),
		Primary:   c.Primary,
		Bridges:   c.Bridges,
		Skipped:   c.Skipped,
		Exhausted: c.Exhausted,
	}
	if s.Points == 0 {
		return s
	}

	inf := float32(math.Inf(1))
	lo := mgl32.Vec3{inf, inf, inf}
	hi := mgl32.Vec3{-inf, -inf, -inf}

	var sumCol [3]float64
	radiusTotal := 0.0
	for i := 0; i < s.Points; i++ {
		for a := 0; a < 3; a++ {
			sumCol[a] += float64(c.Colors[3*i+a])
		}

		p := c.Point(i)
		r, ok := Radius(p)
		if !ok {
			s.NonFinite++
			continue
		}
		for a := 0; a < 3; a++ {
			lo[a] = min(lo[a], p[a])
			hi[a] = max(hi[a], p[a])
		}
		radiusTotal += r
		s.MaxRadius = math.Max(s.MaxRadius, r)
	}

	n := float64(s.Points)
	s.MeanColor = colorful.Color{R: sumCol[0] / n, G: sumCol[1] / n, B: sumCol[2] / n}
	if finite := s.Points - s.NonFinite; finite > 0 {
		s.Min, s.Max = lo, hi
		s.MeanRadius = radiusTotal / float64(finite)
	}
	return s
}

// Radius returns the distance of p from the origin. ok is false when a
// coordinate or the distance itself is not finite.
func Radius(p mgl32.Vec3) (r float64, ok bool) {
	x, y, z := float64(p[0]), float64(p[1]), float64(p[2])
	r = math.Sqrt(x*x + y*y + z*z)
	return r, !math.IsInf(r, 0) && !math.IsNaN(r)
}

// Extent is the largest side of the bounding box. It is +Inf when the
// finite points span more than float32 can hold.
func (s Summary) Extent() float32 {
	d := s.Max.Sub(s.Min)
	return max(d[0], d[1], d[2])
}
