package export

import (
	"encoding/json"
	"io"

	"github.com/san-kum/bulbfield/internal/fractal"
)

// Buffers is the layout expected by a BufferGeometry style consumer: two
// flat, index aligned arrays of three scalars per point.
type Buffers struct {
	Positions []float32 `json:"positions"`
	Colors    []float32 `json:"colors"`
}

func WriteJSON(w io.Writer, cloud *fractal.Cloud) error {
	b := Buffers{Positions: cloud.Positions, Colors: cloud.Colors}
	if b.Positions == nil {
		b.Positions = []float32{}
	}
	if b.Colors == nil {
		b.Colors = []float32{}
	}
	return json.NewEncoder(w).Encode(b)
}
