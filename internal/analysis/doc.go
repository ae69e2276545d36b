// Package analysis summarizes generated point clouds.
//
//   - [Summarize]: point counts, bounding box, radius and color statistics
//   - [RadiusHistogram]: distribution of point distances from the origin
//   - [IterationHistogram]: escape-time refinements used by primary points
//
// The histograms are plain slices ready for plotting:
//
//	hist := analysis.RadiusHistogram(cloud, 40)
//	fmt.Println(asciigraph.Plot(hist))
package analysis
