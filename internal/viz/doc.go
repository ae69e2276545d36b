// Package viz draws static terminal snapshots of point clouds and reports
// generation progress.
//
// Snapshots use a braille [Canvas]: each character cell holds a 2x4 dot
// matrix, so an 80x24 terminal region resolves 160x96 points. A [Camera]
// fixes the viewing angles; there is no interactive navigation.
//
//	canvas := viz.NewCanvas(80, 24)
//	cam := viz.NewCamera()
//	cam.Fit(analysis.Summarize(cloud))
//	viz.RenderCloud(canvas, cloud, cam)
//	fmt.Print(canvas)
//
// [ProgressModel] is a Bubble Tea model fed by the generator's observer.
package viz
