package viz

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/bulbfield/internal/analysis"
	"github.com/san-kum/bulbfield/internal/fractal"
)

// Camera is a fixed viewpoint for static snapshots of a cloud. Points are
// recentered on Center, divided by Extent, rotated by Yaw then Pitch and
// projected with a weak perspective.
type Camera struct {
	Yaw, Pitch float64
	Zoom       float64
	Distance   float64
	Center     mgl64.Vec3
	Extent     float64
}

func NewCamera() *Camera {
	return &Camera{Yaw: math.Pi / 6, Pitch: -math.Pi / 8, Zoom: 1, Distance: 3, Extent: 1}
}

// Fit frames the bounding box of the finite points in s.
func (c *Camera) Fit(s analysis.Summary) {
	if s.Points == s.NonFinite {
		return
	}
	lo := mgl64.Vec3{float64(s.Min[0]), float64(s.Min[1]), float64(s.Min[2])}
	hi := mgl64.Vec3{float64(s.Max[0]), float64(s.Max[1]), float64(s.Max[2])}
	c.Center = lo.Add(hi).Mul(0.5)

	d := hi.Sub(lo)
	c.Extent = max(d[0], d[1], d[2])
	if c.Extent == 0 || !finite(c.Extent) {
		c.Extent = 1
	}
}

func finite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

func (c *Camera) rotation() mgl64.Mat3 {
	return mgl64.Rotate3DX(c.Pitch).Mul3(mgl64.Rotate3DY(c.Yaw))
}

// Project maps p to screen coordinates on a w x h surface. Depth grows
// away from the viewer; ok is false for points behind the near plane or
// off screen.
func (c *Camera) Project(p mgl32.Vec3, w, h int) (x, y int, depth float64, ok bool) {
	return c.project(c.rotation(), p, w, h)
}

func (c *Camera) project(rot mgl64.Mat3, p mgl32.Vec3, w, h int) (int, int, float64, bool) {
	v := mgl64.Vec3{float64(p[0]), float64(p[1]), float64(p[2])}
	v = rot.Mul3x1(v.Sub(c.Center).Mul(c.Zoom / c.Extent))

	depth := c.Distance - v[2]
	if !finite(v[0]) || !finite(v[1]) || !finite(depth) || depth <= 0.1 {
		return 0, 0, depth, false
	}
	scale := c.Distance / depth * float64(min(w, h)) / 1.5

	fx := v[0]*scale + float64(w/2)
	fy := -v[1]*scale + float64(h/2)
	if fx < 0 || fx >= float64(w) || fy < 0 || fy >= float64(h) {
		return 0, 0, depth, false
	}
	return int(fx), int(fy), depth, true
}

// Projected is one visible point of a cloud in screen space.
type Projected struct {
	X, Y  int
	Depth float64
	Index int
}

// ProjectCloud returns the visible points ordered far to near.
func ProjectCloud(cloud *fractal.Cloud, cam *Camera, w, h int) []Projected {
	rot := cam.rotation()
	out := make([]Projected, 0, cloud.Len())
	for i := 0; i < cloud.Len(); i++ {
		x, y, d, ok := cam.project(rot, cloud.Point(i), w, h)
		if ok {
			out = append(out, Projected{X: x, Y: y, Depth: d, Index: i})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Depth > out[j].Depth })
	return out
}

// RenderCloud plots every visible point of the cloud onto the canvas.
func RenderCloud(c *Canvas, cloud *fractal.Cloud, cam *Camera) int {
	if c == nil || cloud == nil || cam == nil {
		return 0
	}
	w, h := c.PixelSize()
	pts := ProjectCloud(cloud, cam, w, h)
	for _, p := range pts {
		c.Set(p.X, p.Y)
	}
	return len(pts)
}
