package noise

import (
	"github.com/cespare/xxhash/v2"
	"github.com/ojrac/opensimplex-go"
)

// Fractal holds the parameters of fractal (multi-octave) noise.
type Fractal struct {
	// Octaves is the number of noise layers summed. Values below 1 are treated
	// as 1.
	Octaves int
	// Persistence is the factor the amplitude is multiplied with each octave.
	Persistence float64
	// Lacunarity is the factor the frequency is multiplied with each octave.
	Lacunarity float64
}

// DefaultFractal returns fractal parameters that produce rolling terrain.
func DefaultFractal() Fractal {
	return Fractal{Octaves: 4, Persistence: 0.5, Lacunarity: 2}
}

// Source is a seeded fractal simplex noise function. Values returned are in
// the range [-1, 1]. A Source is safe for concurrent use.
type Source struct {
	n    opensimplex.Noise
	f    Fractal
	norm float64
}

// NewSource creates a fractal noise source from the seed and parameters passed.
func NewSource(seed int64, f Fractal) *Source {
	if f.Octaves < 1 {
		f.Octaves = 1
	}
	if f.Lacunarity == 0 {
		f.Lacunarity = 2
	}
	if f.Persistence == 0 {
		f.Persistence = 0.5
	}
	var norm, amp float64 = 0, 1
	for i := 0; i < f.Octaves; i++ {
		norm += amp
		amp *= f.Persistence
	}
	return &Source{n: opensimplex.New(seed), f: f, norm: norm}
}

// Eval2 evaluates the noise at a 2D point.
func (s *Source) Eval2(x, y float64) float64 {
	var sum float64
	amp, freq := 1.0, 1.0
	for i := 0; i < s.f.Octaves; i++ {
		sum += s.n.Eval2(x*freq, y*freq) * amp
		amp *= s.f.Persistence
		freq *= s.f.Lacunarity
	}
	return sum / s.norm
}

// Eval3 evaluates the noise at a 3D point.
func (s *Source) Eval3(x, y, z float64) float64 {
	var sum float64
	amp, freq := 1.0, 1.0
	for i := 0; i < s.f.Octaves; i++ {
		sum += s.n.Eval3(x*freq, y*freq, z*freq) * amp
		amp *= s.f.Persistence
		freq *= s.f.Lacunarity
	}
	return sum / s.norm
}

// LayerSeed derives the seed of a named noise layer from a world seed, so
// that every layer of a world is independent but reproducible.
func LayerSeed(seed int64, layer string) int64 {
	return int64(xxhash.Sum64String(layer) ^ uint64(seed)*0x9e3779b97f4a7c15)
}
