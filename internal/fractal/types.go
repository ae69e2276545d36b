package fractal

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	DefaultResolution        = 32
	DefaultScale             = 2.0
	DefaultMaxIterations     = 10
	DefaultDistanceThreshold = 2.0
	DefaultPower             = 4
	DefaultBlend             = 0.5
)

// Cell is one integer-indexed sample location of the lattice.
type Cell struct {
	X, Y, Z int
}

// KeyMode selects what the color registry is keyed by.
type KeyMode string

const (
	// KeyCoordinate keys colors by the iterated point coordinate.
	KeyCoordinate KeyMode = "coordinate"
	// KeyLattice keys colors by the originating lattice cell.
	KeyLattice KeyMode = "lattice"
)

func ParseKeyMode(s string) (KeyMode, error) {
	switch KeyMode(s) {
	case "", KeyCoordinate:
		return KeyCoordinate, nil
	case KeyLattice:
		return KeyLattice, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKeyMode, s)
}

type Params struct {
	Resolution        int
	Scale             float64
	MaxIterations     int
	DistanceThreshold float64
	Power             int
	Blend             float64
	KeyMode           KeyMode
}

func DefaultParams() Params {
	return Params{
		Resolution:        DefaultResolution,
		Scale:             DefaultScale,
		MaxIterations:     DefaultMaxIterations,
		DistanceThreshold: DefaultDistanceThreshold,
		Power:             DefaultPower,
		Blend:             DefaultBlend,
		KeyMode:           KeyCoordinate,
	}
}

// Validate checks every parameter against its range. The first offending
// field is reported as a *ParamError.
func (p Params) Validate() error {
	if p.Resolution < 0 {
		return &ParamError{Field: "resolution", Value: float64(p.Resolution)}
	}
	if !finite(p.Scale) || p.Scale <= 0 {
		return &ParamError{Field: "scale", Value: p.Scale}
	}
	if p.MaxIterations < 0 {
		return &ParamError{Field: "max_iterations", Value: float64(p.MaxIterations)}
	}
	if !finite(p.DistanceThreshold) || p.DistanceThreshold < 0 {
		return &ParamError{Field: "distance_threshold", Value: p.DistanceThreshold}
	}
	if p.Power < 1 {
		return &ParamError{Field: "power", Value: float64(p.Power)}
	}
	if !finite(p.Blend) || p.Blend < 0 || p.Blend > 1 {
		return &ParamError{Field: "blend", Value: p.Blend}
	}
	if _, err := ParseKeyMode(string(p.KeyMode)); err != nil {
		return err
	}
	return nil
}

// Normalize maps a lattice index onto the scaled coordinate domain.
func (p Params) Normalize(index int) float64 {
	return p.Scale * (float64(index)/float64(p.Resolution) - 0.5)
}

// Position returns the normalized coordinate of a cell.
func (p Params) Position(c Cell) r3.Vec {
	return r3.Vec{X: p.Normalize(c.X), Y: p.Normalize(c.Y), Z: p.Normalize(c.Z)}
}

// Cells returns the total number of lattice cells, (2R)^3.
func (p Params) Cells() int {
	side := 2 * p.Resolution
	return side * side * side
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

type PointKind uint8

const (
	Primary PointKind = iota
	BridgeX
	BridgeY
)

func (k PointKind) String() string {
	switch k {
	case Primary:
		return "primary"
	case BridgeX:
		return "bridge_x"
	case BridgeY:
		return "bridge_y"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

func ParsePointKind(s string) (PointKind, error) {
	switch s {
	case "primary":
		return Primary, nil
	case "bridge_x":
		return BridgeX, nil
	case "bridge_y":
		return BridgeY, nil
	}
	return 0, fmt.Errorf("fractal: unknown point kind %q", s)
}

// Cloud holds the index-aligned output buffers. Point i occupies
// Positions[3i:3i+3] and its color Colors[3i:3i+3].
type Cloud struct {
	Positions  []float32
	Colors     []float32
	Kinds      []PointKind
	Iterations []int

	Primary   int
	Bridges   int
	Skipped   int
	Exhausted int
}

func NewCloud(capacity int) *Cloud {
	return &Cloud{
		Positions:  make([]float32, 0, 3*capacity),
		Colors:     make([]float32, 0, 3*capacity),
		Kinds:      make([]PointKind, 0, capacity),
		Iterations: make([]int, 0, capacity),
	}
}

// Append pushes a point and its color in the same step.
func (c *Cloud) Append(p r3.Vec, col colorful.Color, kind PointKind, iterations int) {
	pos := mgl32.Vec3{float32(p.X), float32(p.Y), float32(p.Z)}
	rgb := mgl32.Vec3{float32(col.R), float32(col.G), float32(col.B)}
	c.Positions = append(c.Positions, pos[:]...)
	c.Colors = append(c.Colors, rgb[:]...)
	c.Kinds = append(c.Kinds, kind)
	c.Iterations = append(c.Iterations, iterations)
	if kind == Primary {
		c.Primary++
	} else {
		c.Bridges++
	}
}

func (c *Cloud) Len() int {
	return len(c.Positions) / 3
}

func (c *Cloud) Point(i int) mgl32.Vec3 {
	return mgl32.Vec3{c.Positions[3*i], c.Positions[3*i+1], c.Positions[3*i+2]}
}

func (c *Cloud) Color(i int) colorful.Color {
	return colorful.Color{
		R: float64(c.Colors[3*i]),
		G: float64(c.Colors[3*i+1]),
		B: float64(c.Colors[3*i+2]),
	}
}

// Concat appends other's points and counters to c, preserving order.
func (c *Cloud) Concat(other *Cloud) {
	c.Positions = append(c.Positions, other.Positions...)
	c.Colors = append(c.Colors, other.Colors...)
	c.Kinds = append(c.Kinds, other.Kinds...)
	c.Iterations = append(c.Iterations, other.Iterations...)
	c.Primary += other.Primary
	c.Bridges += other.Bridges
	c.Skipped += other.Skipped
	c.Exhausted += other.Exhausted
}
