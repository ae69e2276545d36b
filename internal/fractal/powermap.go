package fractal

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Spherical returns the radius and the polar/azimuthal angles of p.
func Spherical(p r3.Vec) (r, theta, phi float64) {
	r = r3.Norm(p)
	theta = math.Atan2(math.Hypot(p.X, p.Y), p.Z)
	phi = math.Atan2(p.Y, p.X)
	return r, theta, phi
}

func powerMap(r, theta, phi float64, power int) r3.Vec {
	n := float64(power)
	rn := math.Pow(r, n)
	sinT, cosT := math.Sincos(n * theta)
	sinP, cosP := math.Sincos(n * phi)
	return r3.Vec{
		X: rn * sinT * cosP,
		Y: rn * sinT * sinP,
		Z: rn * cosT,
	}
}

// PowerMap applies one spherical power map: the radius is raised to power
// and both angles are multiplied by it.
func PowerMap(p r3.Vec, power int) r3.Vec {
	r, theta, phi := Spherical(p)
	return powerMap(r, theta, phi, power)
}

// Escape is the outcome of the escape-time refinement of one coordinate.
// Escaped is false when the iteration budget ran out while the last
// measured radius was still below 1.
type Escape struct {
	Point      r3.Vec
	Iterations int
	Escaped    bool
}

// EscapeTime applies the power map once unconditionally and then keeps
// reapplying it while the last measured radius is below 1 and fewer than
// maxIterations refinements have run.
func EscapeTime(p0 r3.Vec, power, maxIterations int) Escape {
	r, theta, phi := Spherical(p0)
	p := powerMap(r, theta, phi, power)

	i := 0
	for r < 1 && i < maxIterations {
		r, theta, phi = Spherical(p)
		p = powerMap(r, theta, phi, power)
		i++
	}
	return Escape{Point: p, Iterations: i, Escaped: r >= 1}
}
