// Package fractal builds point clouds approximating a spherical-power
// escape-time fractal.
//
// A cubic lattice of (2R)^3 cells is traversed in x, y, z order. Each cell
// inside the distance threshold yields:
//
//   - a primary point: the cell's coordinate after the escape-time power map,
//     colored with a fresh random color
//   - up to two bridge points: midpoints toward the +x and +y neighbors,
//     colored by blending both endpoint colors
//
// The result is a [Cloud] whose Positions and Colors buffers are index
// aligned, three scalars per point:
//
//	cloud, err := fractal.Generate(ctx, fractal.DefaultParams(), fractal.WithSeed(42))
//	if err != nil {
//	    return err
//	}
//	geometry.SetAttribute("position", cloud.Positions)
//	geometry.SetAttribute("color", cloud.Colors)
package fractal
