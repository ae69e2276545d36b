package analysis

import (
	"github.com/san-kum/bulbfield/internal/fractal"
)

// RadiusHistogram bins the distance of every finite point from the origin
// into the given number of equal-width bins spanning [0, max radius].
func RadiusHistogram(c *fractal.Cloud, bins int) []float64 {
	if bins <= 0 {
		return nil
	}
	hist := make([]float64, bins)
	n := c.Len()
	if n == 0 {
		return hist
	}

	radii := make([]float64, 0, n)
	maxR := 0.0
	for i := 0; i < n; i++ {
		r, ok := Radius(c.Point(i))
		if !ok {
			continue
		}
		radii = append(radii, r)
		maxR = max(maxR, r)
	}
	if maxR == 0 {
		hist[0] = float64(len(radii))
		return hist
	}

	for _, r := range radii {
		b := int(r / maxR * float64(bins))
		if b >= bins {
			b = bins - 1
		}
		hist[b]++
	}
	return hist
}

// IterationHistogram counts primary points by the number of escape-time
// refinements they consumed; index i holds the count for i iterations.
func IterationHistogram(c *fractal.Cloud) []float64 {
	maxIt := 0
	for i, k := range c.Kinds {
		if k == fractal.Primary {
			maxIt = max(maxIt, c.Iterations[i])
		}
	}

	hist := make([]float64, maxIt+1)
	for i, k := range c.Kinds {
		if k == fractal.Primary {
			hist[c.Iterations[i]]++
		}
	}
	return hist
}
