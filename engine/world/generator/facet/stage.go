package facet

import (
	"context"
	"math"

	"github.com/dm-vev/voxelworld/engine/world/noise"
)

// Stage computes one facet of a region from zero or more other facets.
// Implementations must only read the facets named by Inputs and only write
// the facet named by Output.
type Stage interface {
	// Name returns a name for the stage, used in errors and logging.
	Name() string
	// Inputs returns the facets that must be present before the stage runs.
	Inputs() []Kind
	// Output returns the facet that the stage produces.
	Output() Kind
	// Run computes the output facet and attaches it to the region.
	Run(ctx context.Context, r *Region) error
}

// SeaLevel sets the sea level of a region to a constant.
type SeaLevel struct {
	Level float64
}

func (SeaLevel) Name() string   { return "sea_level" }
func (SeaLevel) Inputs() []Kind { return nil }
func (SeaLevel) Output() Kind   { return KindSeaLevel }

func (s SeaLevel) Run(_ context.Context, r *Region) error {
	l := s.Level
	r.SeaLevel = &l
	return nil
}

// FlatElevation produces an elevation field with the same height in every
// column.
type FlatElevation struct {
	Height int32
}

func (FlatElevation) Name() string   { return "flat_elevation" }
func (FlatElevation) Inputs() []Kind { return []Kind{KindSeaLevel} }
func (FlatElevation) Output() Kind   { return KindElevation }

func (f FlatElevation) Run(_ context.Context, r *Region) error {
	g := NewGrid2[int32](r.Extent)
	for i := range g.Values {
		g.Values[i] = f.Height
	}
	r.Elevation = g
	return nil
}

// NoiseElevation produces an elevation field shaped by fractal noise and
// centred on a multiple of the sea level.
type NoiseElevation struct {
	Sampler *noise.Sampler
	// Multiple is multiplied with the sea level to get the mean height.
	Multiple float64
	// Amplitude is the maximum deviation from the mean height.
	Amplitude float64
}

func (NoiseElevation) Name() string   { return "noise_elevation" }
func (NoiseElevation) Inputs() []Kind { return []Kind{KindSeaLevel} }
func (NoiseElevation) Output() Kind   { return KindElevation }

func (e NoiseElevation) Run(_ context.Context, r *Region) error {
	g := NewGrid2[int32](r.Extent)
	values := make([]float64, len(g.Values))
	e.Sampler.Fill2(values, g.MinX, g.MinZ, g.SizeX, g.SizeZ)

	mean := e.Multiple * *r.SeaLevel
	for i, v := range values {
		g.Values[i] = int32(math.Round(mean + v*e.Amplitude))
	}
	r.Elevation = g
	return nil
}

// Roughness combines how far terrain rises above sea level with a coarse
// noise field into a roughness value in [0, 1] per column.
type Roughness struct {
	Sampler *noise.Sampler
	// DeviationScale is the height above sea level at which the height part
	// of the roughness saturates.
	DeviationScale float64
	// NoiseWeight is the share of the noise field in the result. The rest is
	// made up by the height deviation.
	NoiseWeight float64
}

func (Roughness) Name() string   { return "roughness" }
func (Roughness) Inputs() []Kind { return []Kind{KindSeaLevel, KindElevation} }
func (Roughness) Output() Kind   { return KindRoughness }

func (ro Roughness) Run(_ context.Context, r *Region) error {
	elev := r.Elevation
	g := NewGrid2[float64](r.Extent)
	n := make([]float64, len(g.Values))
	if ro.Sampler != nil {
		ro.Sampler.Fill2(n, g.MinX, g.MinZ, g.SizeX, g.SizeZ)
	}
	scale := ro.DeviationScale
	if scale <= 0 {
		scale = 1
	}
	w := clamp01(ro.NoiseWeight)
	for i := range g.Values {
		dev := clamp01((float64(elev.Values[i]) - *r.SeaLevel) / scale)
		g.Values[i] = clamp01((1-w)*dev + w*(n[i]*0.5+0.5))
	}
	r.Roughness = g
	return nil
}

// Surface marks every voxel whose height equals the elevation of its column.
type Surface struct{}

func (Surface) Name() string   { return "surface" }
func (Surface) Inputs() []Kind { return []Kind{KindElevation} }
func (Surface) Output() Kind   { return KindSurface }

func (Surface) Run(_ context.Context, r *Region) error {
	v := r.Volume()
	g := NewGrid3[bool](v)
	for y := v.Min[1]; y <= v.Max[1]; y++ {
		for z := v.Min[2]; z <= v.Max[2]; z++ {
			for x := v.Min[0]; x <= v.Max[0]; x++ {
				g.Set(x, y, z, int32(y) == r.Elevation.At(x, z))
			}
		}
	}
	r.Surface = g
	return nil
}

// Density computes the coarse density, the distance of every voxel below the
// elevation of its column. Density is positive below the surface and negative
// above it.
type Density struct{}

func (Density) Name() string   { return "density" }
func (Density) Inputs() []Kind { return []Kind{KindElevation} }
func (Density) Output() Kind   { return KindDensity }

func (Density) Run(_ context.Context, r *Region) error {
	v := r.Volume()
	g := NewGrid3[float64](v)
	for y := v.Min[1]; y <= v.Max[1]; y++ {
		for z := v.Min[2]; z <= v.Max[2]; z++ {
			for x := v.Min[0]; x <= v.Max[0]; x++ {
				g.Set(x, y, z, float64(r.Elevation.At(x, z))-float64(y))
			}
		}
	}
	r.Density = g
	return nil
}

// Refine perturbs the coarse density with two noise fields and recomputes the
// surface from the result. The small-scale field dominates in rough columns,
// the large-scale field in smooth ones.
type Refine struct {
	Small, Large                   *noise.Sampler
	SmallAmplitude, LargeAmplitude float64
}

func (Refine) Name() string   { return "refine" }
func (Refine) Inputs() []Kind { return []Kind{KindRoughness, KindDensity, KindSurface} }
func (Refine) Output() Kind   { return KindRefined }

// Perturbs reports if the stage changes the coarse density at all.
func (f Refine) Perturbs() bool {
	return (f.Small != nil && f.SmallAmplitude != 0) || (f.Large != nil && f.LargeAmplitude != 0)
}

func (f Refine) Run(ctx context.Context, r *Region) error {
	if !f.Perturbs() {
		r.Refined = &Refined{Density: r.Density, Surface: r.Surface}
		return nil
	}
	v := r.Volume()
	size := v.Size()
	small := f.sample(f.Small, f.SmallAmplitude, v.Min, size)
	large := f.sample(f.Large, f.LargeAmplitude, v.Min, size)
	if err := ctx.Err(); err != nil {
		return err
	}

	density := NewGrid3[float64](v)
	for i, d := range r.Density.Values {
		x := i % size[0]
		z := (i / size[0]) % size[2]
		rough := r.Roughness.At(v.Min[0]+x, v.Min[2]+z)
		density.Values[i] = d + large[i] + (small[i]-large[i])*rough
	}
	surface := NewGrid3[bool](v)
	for y := v.Min[1]; y < v.Max[1]; y++ {
		for z := v.Min[2]; z <= v.Max[2]; z++ {
			for x := v.Min[0]; x <= v.Max[0]; x++ {
				surface.Set(x, y, z, Solid(density.At(x, y, z)) && !Solid(density.At(x, y+1, z)))
			}
		}
	}
	r.Refined = &Refined{Density: density, Surface: surface}
	return nil
}

func (f Refine) sample(s *noise.Sampler, amp float64, min, size [3]int) []float64 {
	out := make([]float64, size[0]*size[1]*size[2])
	if s == nil || amp == 0 {
		return out
	}
	s.Fill3(out, min, size)
	for i := range out {
		out[i] *= amp
	}
	return out
}

// Solid checks if a density value lies inside terrain. A density of exactly
// zero is the surface itself and counts as inside.
func Solid(d float64) bool {
	return d >= 0
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
