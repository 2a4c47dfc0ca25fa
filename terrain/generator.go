package terrain

import (
	"math"
)

// Generator gives the terrain surface height for a world column.
type Generator interface {
	Height(x, z float64) float64
}

// FlatGenerator is an infinite plane
type FlatGenerator struct {
	Level float64
}

func (g FlatGenerator) Height(x, z float64) float64 {
	return g.Level
}

// NoiseGenerator builds hills from fractal smooth value noise.
type NoiseGenerator struct {
	Seed float64
	// Base is the height of the zero noise level
	Base float64
	// Amplitude is the full height range of the hills
	Amplitude float64
	// Scale is the horizontal size of the largest features
	Scale float64
}

func DefaultNoiseGenerator(seed float64) NoiseGenerator {
	return NoiseGenerator{Seed: seed, Base: 0, Amplitude: 12, Scale: 96}
}

var (
	octaveScales     = [...]float64{1.0, 0.5, 0.25, 0.125, 0.0625}
	octaveAmplitudes = [...]float64{0.5, 0.25, 0.125, 0.0625, 0.03125}
)

func (g NoiseGenerator) Height(x, z float64) float64 {
	nx := x/g.Scale + g.Seed*17.0
	nz := z/g.Scale - g.Seed*31.0

	// octaves sum to at most 0.96875
	value := 0.0
	for layer := range octaveScales {
		frequency := 1.0 / octaveScales[layer]
		value += smoothNoise(nx*frequency, nz*frequency) * octaveAmplitudes[layer]
	}

	return g.Base + (value-0.5)*g.Amplitude
}

// hashNoise is a cheap pseudo random value in [0, 1)
func hashNoise(x, y float64) float64 {
	h := math.Sin(x*12.9898+y*78.233) * 43758.5453
	return h - math.Floor(h)
}

func smoothstep(t float64) float64 {
	return t * t * (3.0 - 2.0*t)
}

func smoothNoise(x, y float64) float64 {
	x0 := math.Floor(x)
	y0 := math.Floor(y)

	sx := smoothstep(x - x0)
	sy := smoothstep(y - y0)

	n00 := hashNoise(x0, y0)
	n10 := hashNoise(x0+1, y0)
	n01 := hashNoise(x0, y0+1)
	n11 := hashNoise(x0+1, y0+1)

	return lerp(lerp(n00, n10, sx), lerp(n01, n11, sx), sy)
}

// BuildHeightfield samples gen over the region. Samples more than one slice
// away from the slice are stored as NaN, so neighbouring slices overlap.
func BuildHeightfield(gen Generator, grid Grid, key RegionKey, cellSize float64) *Heightfield {
	origin := grid.Origin(key)
	samples := int(math.Round(grid.RegionSize/cellSize)) + 1
	bottom := origin.Y() - grid.SliceHeight
	top := origin.Y() + 2*grid.SliceHeight

	h := &Heightfield{
		Key:      key,
		OriginX:  origin.X(),
		OriginZ:  origin.Z(),
		Samples:  samples,
		CellSize: cellSize,
		Heights:  make([]float32, samples*samples),
	}
	for j := 0; j < samples; j++ {
		for i := 0; i < samples; i++ {
			y := gen.Height(origin.X()+float64(i)*cellSize, origin.Z()+float64(j)*cellSize)
			if y < bottom || y >= top {
				y = math.NaN()
			}
			h.Heights[j*samples+i] = float32(y)
		}
	}

	return h
}
