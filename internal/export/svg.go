package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/bulbfield/internal/fractal"
	"github.com/san-kum/bulbfield/internal/viz"
)

const background = "#0a0a0a"

// CanvasToSVG converts a Braille canvas to SVG format
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.Width) * scale * 2
	height := float64(canvas.Height) * scale * 4

	var sb strings.Builder
	writeHeader(&sb, width, height)
	sb.WriteString(`<g fill="#00ff00">` + "\n")

	dotRadius := scale * 0.4
	pw, ph := canvas.PixelSize()
	for y := 0; y < ph; y++ {
		for x := 0; x < pw; x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			cx := float64(x)*scale + scale/2
			cy := float64(y)*scale + scale/2
			fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, dotRadius)
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// CloudToSVG renders a static snapshot of the cloud seen through cam.
// Points are drawn far to near in their own colors; nearer points get
// slightly larger dots.
func CloudToSVG(cloud *fractal.Cloud, cam *viz.Camera, width, height int) string {
	if cloud == nil || cam == nil || width <= 0 || height <= 0 {
		return ""
	}

	var sb strings.Builder
	writeHeader(&sb, float64(width), float64(height))

	base := float64(min(width, height)) / 300
	for _, p := range viz.ProjectCloud(cloud, cam, width, height) {
		r := base * cam.Distance / p.Depth
		fmt.Fprintf(&sb, "<circle cx=\"%d\" cy=\"%d\" r=\"%.2f\" fill=\"%s\"/>\n",
			p.X, p.Y, max(r, 0.5), cloud.Color(p.Index).Clamped().Hex())
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func writeHeader(sb *strings.Builder, width, height float64) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)
}
