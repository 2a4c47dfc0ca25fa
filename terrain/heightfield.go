package terrain

import (
	"fmt"
	"math"

	"github.com/vmihailenco/msgpack/v5"
)

// Heightfield is the collision shape of one region: a square grid of
// Samples x Samples heights starting at (OriginX, OriginZ). A NaN height means
// the surface at that sample lies outside this vertical slice.
type Heightfield struct {
	Key      RegionKey `msgpack:"key"`
	OriginX  float64   `msgpack:"ox"`
	OriginZ  float64   `msgpack:"oz"`
	Samples  int       `msgpack:"n"`
	CellSize float64   `msgpack:"cell"`
	Heights  []float32 `msgpack:"h"`
}

func (h *Heightfield) at(i, j int) float64 {
	return float64(h.Heights[j*h.Samples+i])
}

// HeightAt interpolates the surface height at world (x, z).
// ok is false outside the region or when a surrounding sample has no surface.
func (h *Heightfield) HeightAt(x, z float64) (float64, bool) {
	if h.Samples < 2 {
		return 0, false
	}
	fx := (x - h.OriginX) / h.CellSize
	fz := (z - h.OriginZ) / h.CellSize
	last := float64(h.Samples - 1)
	if fx < 0 || fz < 0 || fx > last || fz > last {
		return 0, false
	}

	i := min(int(fx), h.Samples-2)
	j := min(int(fz), h.Samples-2)
	tx := fx - float64(i)
	tz := fz - float64(j)

	h00 := h.at(i, j)
	h10 := h.at(i+1, j)
	h01 := h.at(i, j+1)
	h11 := h.at(i+1, j+1)
	if math.IsNaN(h00) || math.IsNaN(h10) || math.IsNaN(h01) || math.IsNaN(h11) {
		return 0, false
	}

	return lerp(lerp(h00, h10, tx), lerp(h01, h11, tx), tz), true
}

// Empty reports a slice without any surface.
func (h *Heightfield) Empty() bool {
	for _, v := range h.Heights {
		if !math.IsNaN(float64(v)) {
			return false
		}
	}
	return true
}

func (h *Heightfield) Marshal() ([]byte, error) {
	return msgpack.Marshal(h)
}

func UnmarshalHeightfield(data []byte) (*Heightfield, error) {
	var h Heightfield
	if err := msgpack.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("terrain: decode heightfield: %w", err)
	}
	if h.Samples < 0 || len(h.Heights) != h.Samples*h.Samples {
		return nil, fmt.Errorf("terrain: decode heightfield %s: %d heights for %d samples", h.Key, len(h.Heights), h.Samples)
	}

	return &h, nil
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}
