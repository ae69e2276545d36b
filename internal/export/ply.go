package export

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/bulbfield/internal/fractal"
)

// WritePLY writes the cloud as an ASCII PLY vertex list with 8-bit colors.
func WritePLY(w io.Writer, cloud *fractal.Cloud) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "ply")
	fmt.Fprintln(bw, "format ascii 1.0")
	fmt.Fprintln(bw, "comment bulbfield point cloud")
	fmt.Fprintf(bw, "element vertex %d\n", cloud.Len())
	for _, p := range []string{"x", "y", "z"} {
		fmt.Fprintf(bw, "property float %s\n", p)
	}
	for _, p := range []string{"red", "green", "blue"} {
		fmt.Fprintf(bw, "property uchar %s\n", p)
	}
	fmt.Fprintln(bw, "end_header")

	for i := 0; i < cloud.Len(); i++ {
		p := cloud.Point(i)
		r, g, b := cloud.Color(i).Clamped().RGB255()
		fmt.Fprintf(bw, "%s %s %s %d %d %d\n",
			plyFloat(p[0]), plyFloat(p[1]), plyFloat(p[2]), r, g, b)
	}

	return bw.Flush()
}

func plyFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}
