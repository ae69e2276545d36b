package fractal

import (
	"math/rand"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"
)

// RandomSource draws uniform values in [0, 1).
type RandomSource interface {
	Float64() float64
}

// NewSource returns a seeded source suitable for reproducible runs.
func NewSource(seed int64) RandomSource {
	return rand.New(rand.NewSource(seed))
}

// RandomColor draws each channel independently from src.
func RandomColor(src RandomSource) colorful.Color {
	return colorful.Color{R: src.Float64(), G: src.Float64(), B: src.Float64()}
}

// Key identifies a registered point. Exactly one of the two fields is
// meaningful, depending on the registry's KeyMode.
type Key struct {
	Coord r3.Vec
	Cell  Cell
}

// Registry maps generated points to the colors they were given. It lives for
// a single generation run and is not safe for concurrent use.
type Registry struct {
	mode   KeyMode
	colors map[Key]colorful.Color
}

func NewRegistry(mode KeyMode) *Registry {
	if mode == "" {
		mode = KeyCoordinate
	}
	return &Registry{mode: mode, colors: make(map[Key]colorful.Color)}
}

// KeyFor builds the key for a point computed from cell.
func (r *Registry) KeyFor(cell Cell, point r3.Vec) Key {
	if r.mode == KeyLattice {
		return Key{Cell: cell}
	}
	return Key{Coord: point}
}

func (r *Registry) Put(k Key, c colorful.Color) {
	r.colors[k] = c
}

// Resolve returns the registered color for k, or a fresh random color from
// src when k was never registered. The fallback is not stored.
func (r *Registry) Resolve(k Key, src RandomSource) (colorful.Color, bool) {
	if c, ok := r.colors[k]; ok {
		return c, true
	}
	return RandomColor(src), false
}

func (r *Registry) Len() int {
	return len(r.colors)
}
