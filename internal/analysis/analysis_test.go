package analysis

import (
	"context"
	"math"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/bulbfield/internal/fractal"
)

func sampleCloud() *fractal.Cloud {
	c := fractal.NewCloud(4)
	c.Append(r3.Vec{X: 1}, colorful.Color{R: 1}, fractal.Primary, 0)
	c.Append(r3.Vec{Y: -2}, colorful.Color{G: 1}, fractal.Primary, 3)
	c.Append(r3.Vec{Z: 4}, colorful.Color{B: 1}, fractal.BridgeX, 7)
	c.Append(r3.Vec{X: 3, Y: 4}, colorful.Color{R: 1, G: 1, B: 1}, fractal.Primary, 3)
	c.Skipped = 5
	return c
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleCloud())

	if s.Points != 4 || s.Primary != 3 || s.Bridges != 1 || s.Skipped != 5 {
		t.Errorf("unexpected counts: %+v", s)
	}
	if s.Min[0] != 0 || s.Min[1] != -2 || s.Min[2] != 0 {
		t.Errorf("unexpected min: %v", s.Min)
	}
	if s.Max[0] != 3 || s.Max[1] != 4 || s.Max[2] != 4 {
		t.Errorf("unexpected max: %v", s.Max)
	}
	if math.Abs(s.MaxRadius-5) > 1e-6 {
		t.Errorf("expected max radius 5, got %f", s.MaxRadius)
	}
	if math.Abs(s.MeanRadius-3) > 1e-6 {
		t.Errorf("expected mean radius 3, got %f", s.MeanRadius)
	}
	if !s.MeanColor.AlmostEqualRgb(colorful.Color{R: 0.5, G: 0.5, B: 0.5}) {
		t.Errorf("unexpected mean color: %v", s.MeanColor)
	}
	if s.Extent() != 6 {
		t.Errorf("expected extent 6, got %f", s.Extent())
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(fractal.NewCloud(0))
	if s.Points != 0 || s.MaxRadius != 0 {
		t.Errorf("expected zero summary, got %+v", s)
	}
}

func TestRadiusHistogram(t *testing.T) {
	hist := RadiusHistogram(sampleCloud(), 5)
	if len(hist) != 5 {
		t.Fatalf("expected 5 bins, got %d", len(hist))
	}

	// radii 1, 2, 4, 5 over [0, 5]
	want := []float64{0, 1, 1, 0, 2}
	for i := range want {
		if hist[i] != want[i] {
			t.Errorf("bin %d: expected %v, got %v", i, want[i], hist[i])
		}
	}

	total := 0.0
	for _, v := range hist {
		total += v
	}
	if total != 4 {
		t.Errorf("histogram should account for every point, got %v", total)
	}
}

func TestRadiusHistogram_Degenerate(t *testing.T) {
	if h := RadiusHistogram(sampleCloud(), 0); h != nil {
		t.Errorf("expected nil for zero bins, got %v", h)
	}

	origin := fractal.NewCloud(1)
	origin.Append(r3.Vec{}, colorful.Color{}, fractal.Primary, 2)
	h := RadiusHistogram(origin, 3)
	if h[0] != 1 {
		t.Errorf("origin point should land in the first bin, got %v", h)
	}
}

func TestIterationHistogram(t *testing.T) {
	hist := IterationHistogram(sampleCloud())

	// bridges are excluded, so the highest count is 3, not 7
	want := []float64{1, 0, 0, 2}
	if len(hist) != len(want) {
		t.Fatalf("expected %d bins, got %v", len(want), hist)
	}
	for i := range want {
		if hist[i] != want[i] {
			t.Errorf("iterations %d: expected %v, got %v", i, want[i], hist[i])
		}
	}
}

func overflowCloud() *fractal.Cloud {
	c := sampleCloud()
	inf := math.Inf(1)
	c.Append(r3.Vec{X: inf, Y: -inf, Z: inf}, colorful.Color{}, fractal.Primary, 1)
	c.Append(r3.Vec{X: math.NaN(), Y: 1, Z: 1}, colorful.Color{}, fractal.BridgeY, 1)
	return c
}

func TestSummarize_NonFinite(t *testing.T) {
	s := Summarize(overflowCloud())

	if s.Points != 6 || s.NonFinite != 2 {
		t.Fatalf("unexpected counts: %+v", s)
	}
	if math.Abs(s.MaxRadius-5) > 1e-6 || math.Abs(s.MeanRadius-3) > 1e-6 {
		t.Errorf("non-finite points leaked into radius stats: %+v", s)
	}
	if s.Extent() != 6 {
		t.Errorf("expected extent 6, got %f", s.Extent())
	}
}

func TestRadiusHistogram_NonFinite(t *testing.T) {
	hist := RadiusHistogram(overflowCloud(), 5)
	total := 0.0
	for _, v := range hist {
		total += v
	}
	if total != 4 {
		t.Errorf("expected only the 4 finite points binned, got %v", hist)
	}
}

func TestHistogramsOnOverflowingRun(t *testing.T) {
	p := fractal.DefaultParams()
	p.Resolution = 2
	p.Scale = 100
	p.DistanceThreshold = 1000
	p.Power = 200

	cloud, err := fractal.Generate(context.Background(), p, fractal.WithSeed(1))
	if err != nil {
		t.Fatal(err)
	}

	s := Summarize(cloud)
	if s.NonFinite == 0 {
		t.Fatal("expected overflowing points")
	}
	if math.IsNaN(s.MeanRadius) || math.IsInf(s.MeanRadius, 0) {
		t.Errorf("mean radius not finite: %f", s.MeanRadius)
	}
	RadiusHistogram(cloud, 40)
	IterationHistogram(cloud)
}
