package generator

import (
	"context"
	"fmt"

	"github.com/dm-vev/voxelworld/engine/world/chunk"
	"github.com/dm-vev/voxelworld/engine/world/generator/facet"
	"github.com/dm-vev/voxelworld/engine/world/noise"
)

// TerrainConfig holds the parameters of the facet based terrain generator.
type TerrainConfig struct {
	// Seed seeds every noise layer of the generator.
	Seed int64
	// SeaLevel is the height of the water surface.
	SeaLevel float64
	// Flat replaces the noise shaped elevation with a flat one at FlatHeight.
	Flat bool
	// FlatHeight is the height of the terrain if Flat is set.
	FlatHeight int32
	// ElevationMultiple is multiplied with the sea level to find the mean
	// terrain height.
	ElevationMultiple float64
	// ElevationAmplitude is the maximum deviation of the terrain height from
	// the mean.
	ElevationAmplitude float64
	// ElevationScale is the frequency of the elevation noise.
	ElevationScale float64
	// RoughnessScale is the frequency of the roughness noise. It should be
	// lower than ElevationScale.
	RoughnessScale float64
	// DeviationScale is the height above sea level at which terrain is
	// considered fully rough.
	DeviationScale float64
	// RoughnessNoiseWeight is the share of noise in the roughness field.
	RoughnessNoiseWeight float64
	// DensitySmallScale and DensitySmallAmplitude control the small-scale
	// density noise that dominates rough terrain.
	DensitySmallScale, DensitySmallAmplitude float64
	// DensityLargeScale and DensityLargeAmplitude control the large-scale
	// density noise that dominates smooth terrain.
	DensityLargeScale, DensityLargeAmplitude float64
	// Stride is the sub-sampling stride of all noise layers.
	Stride int
	// Hardness is the density above which dirt turns into stone.
	Hardness float64
	// Fractal holds the octave parameters shared by all noise layers.
	Fractal noise.Fractal
	// Palette holds the material ids to place.
	Palette Palette
}

// DefaultTerrainConfig returns a configuration producing hills around a sea
// level of 32.
func DefaultTerrainConfig() TerrainConfig {
	return TerrainConfig{
		SeaLevel:              32,
		ElevationMultiple:     1.25,
		ElevationAmplitude:    24,
		ElevationScale:        1.0 / 256,
		RoughnessScale:        1.0 / 1024,
		DeviationScale:        24,
		RoughnessNoiseWeight:  0.5,
		DensitySmallScale:     1.0 / 24,
		DensitySmallAmplitude: 8,
		DensityLargeScale:     1.0 / 96,
		DensityLargeAmplitude: 3,
		Stride:                4,
		Hardness:              32,
		Fractal:               noise.DefaultFractal(),
		Palette:               DefaultPalette(),
	}
}

// Terrain generates chunks by running a facet pipeline over the padded extent
// of a chunk and rasterizing the result. Terrain is safe for concurrent use.
type Terrain struct {
	conf     TerrainConfig
	pipeline *facet.Pipeline
}

// NewTerrain builds the facet pipeline described by conf.
func NewTerrain(conf TerrainConfig) (*Terrain, error) {
	layer := func(name string, scale float64, vertical bool) *noise.Sampler {
		src := noise.NewSource(noise.LayerSeed(conf.Seed, name), conf.Fractal)
		s := [3]float64{scale, 0, scale}
		if vertical {
			s[1] = scale
		}
		return noise.NewSampler(src, s, conf.Stride)
	}

	var elevation facet.Stage = facet.FlatElevation{Height: conf.FlatHeight}
	if !conf.Flat {
		elevation = facet.NoiseElevation{
			Sampler:   layer("elevation", conf.ElevationScale, false),
			Multiple:  conf.ElevationMultiple,
			Amplitude: conf.ElevationAmplitude,
		}
	}
	refine := facet.Refine{
		SmallAmplitude: conf.DensitySmallAmplitude,
		LargeAmplitude: conf.DensityLargeAmplitude,
	}
	if conf.DensitySmallAmplitude != 0 {
		refine.Small = layer("density_small", conf.DensitySmallScale, true)
	}
	if conf.DensityLargeAmplitude != 0 {
		refine.Large = layer("density_large", conf.DensityLargeScale, true)
	}
	p, err := facet.NewPipeline(
		facet.SeaLevel{Level: conf.SeaLevel},
		elevation,
		facet.Roughness{
			Sampler:        layer("roughness", conf.RoughnessScale, false),
			DeviationScale: conf.DeviationScale,
			NoiseWeight:    conf.RoughnessNoiseWeight,
		},
		facet.Surface{},
		facet.Density{},
		refine,
	)
	if err != nil {
		return nil, fmt.Errorf("build terrain pipeline: %w", err)
	}
	return &Terrain{conf: conf, pipeline: p}, nil
}

// NewFlat returns a generator producing flat terrain at the height passed,
// without any density noise.
func NewFlat(height int32, seaLevel float64, palette Palette) *Terrain {
	conf := DefaultTerrainConfig()
	conf.Flat, conf.FlatHeight = true, height
	conf.SeaLevel = seaLevel
	conf.DensitySmallAmplitude, conf.DensityLargeAmplitude = 0, 0
	conf.Palette = palette
	t, err := NewTerrain(conf)
	if err != nil {
		// The stage set is fixed, so building the pipeline cannot fail.
		panic(err)
	}
	return t
}

// Pipeline returns the facet pipeline of the generator.
func (t *Terrain) Pipeline() *facet.Pipeline {
	return t.pipeline
}

// Region runs the facet pipeline for the chunk at pos and returns the
// resulting region.
func (t *Terrain) Region(ctx context.Context, pos chunk.Pos) (*facet.Region, error) {
	r := facet.NewRegion(pos)
	if err := t.pipeline.Run(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// GenerateChunk fills c with the terrain of the chunk at pos, including its
// padding.
func (t *Terrain) GenerateChunk(ctx context.Context, pos chunk.Pos, c *chunk.Chunk) error {
	r, err := t.Region(ctx, pos)
	if err != nil {
		return err
	}
	Rasterize(r, t.conf.Palette, t.conf.Hardness, c)
	return nil
}
