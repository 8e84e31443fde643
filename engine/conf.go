package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dm-vev/voxelworld/engine/render"
	"github.com/dm-vev/voxelworld/engine/world/generator"
	"github.com/dm-vev/voxelworld/engine/world/noise"
	"github.com/pelletier/go-toml"
)

// Config contains options for starting an Engine.
type Config struct {
	// Log is the Logger to use for logging information. If nil, Log is set to
	// slog.Default().
	Log *slog.Logger
	// BlockFolder is the folder block records are loaded from. If empty, the
	// default dirt, stone and water blocks are used. If the folder does not
	// exist, it is created holding the default blocks.
	BlockFolder string
	// MissingTexture is the texture drawn for materials without a registered
	// block. If empty, such geometry is not drawn.
	MissingTexture string
	// Terrain holds the parameters of the terrain generator. The palette is
	// resolved from the block registry once it has been loaded. If left as
	// the zero value, generator.DefaultTerrainConfig() is used.
	Terrain generator.TerrainConfig
	// Sink receives the draw batches of all chunks. If nil, a render.Recorder
	// is used.
	Sink render.Sink
	// Workers is the number of goroutines generating and meshing chunks. Set
	// to 0 to use one worker per CPU.
	Workers int
	// GenerationRate is the maximum number of chunk generations started per
	// second. Set to 0 for no limit.
	GenerationRate float64
	// GenerationBurst is the number of generations that may start at once.
	GenerationBurst int
	// FrameRate is the number of frames per second the world is ticked at.
	FrameRate int
	// DefaultRadius is the streaming radius, in chunks per axis, of subjects
	// added through Engine.AddSubject. If zero, a radius of 5 chunks on every
	// axis is used.
	DefaultRadius [3]int32
}

// New creates an Engine using fields of conf. Blocks are loaded in the
// background; the world is created once they are available, either by Load
// or by the first call to Run.
func (conf Config) New() *Engine {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if conf.Sink == nil {
		conf.Sink = render.NewRecorder()
	}
	if conf.DefaultRadius == ([3]int32{}) {
		conf.DefaultRadius = [3]int32{5, 5, 5}
	}
	if conf.Terrain == (generator.TerrainConfig{}) {
		conf.Terrain = generator.DefaultTerrainConfig()
	}
	return newEngine(conf)
}

// UserConfig is the user configuration of an Engine. It may be serialised as
// TOML and converted to a Config by calling UserConfig.Config().
type UserConfig struct {
	World struct {
		// Seed seeds every noise layer of the terrain generator.
		Seed int64
		// SeaLevel is the height of the water surface.
		SeaLevel float64
		// Flat makes the terrain flat at FlatHeight instead of shaping it
		// with noise.
		Flat bool
		// FlatHeight is the height of flat terrain.
		FlatHeight int32
		// Hardness is the depth below the surface at which dirt turns into
		// stone.
		Hardness float64
		// StreamRadius is the number of chunks streamed in around a subject
		// horizontally.
		StreamRadius int32
		// StreamHeight is the number of chunks streamed in around a subject
		// vertically.
		StreamHeight int32
	}
	Terrain struct {
		ElevationMultiple     float64
		ElevationAmplitude    float64
		ElevationScale        float64
		RoughnessScale        float64
		DeviationScale        float64
		RoughnessNoiseWeight  float64
		DensitySmallScale     float64
		DensitySmallAmplitude float64
		DensityLargeScale     float64
		DensityLargeAmplitude float64
		// Stride is the noise sub-sampling stride. Higher values generate
		// faster at the cost of detail.
		Stride int
		// Octaves, Persistence and Lacunarity shape the fractal noise.
		Octaves     int
		Persistence float64
		Lacunarity  float64
	}
	Blocks struct {
		// Folder controls the location block records are loaded from.
		Folder string
		// MissingTexture is the texture drawn for unknown materials.
		MissingTexture string
	}
	Workers struct {
		// Count is the number of worker goroutines. Set to 0 to use one per
		// CPU.
		Count int
		// GenerationRate is the maximum number of chunk generations started
		// per second. Set to 0 for no limit.
		GenerationRate float64
		// GenerationBurst is the number of generations that may start at once.
		GenerationBurst int
		// FrameRate is the number of frames per second.
		FrameRate int
	}
}

// Config converts a UserConfig to a Config, so that it may be used for
// creating an Engine. An error is returned if the configuration holds values
// that cannot be used.
func (uc UserConfig) Config(log *slog.Logger) (Config, error) {
	if uc.Terrain.Stride < 1 {
		return Config{}, fmt.Errorf("terrain stride must be at least 1, got %d", uc.Terrain.Stride)
	}
	if uc.World.StreamRadius < 0 || uc.World.StreamHeight < 0 {
		return Config{}, errors.New("stream radius must not be negative")
	}
	conf := Config{
		Log:             log,
		BlockFolder:     strings.TrimSpace(uc.Blocks.Folder),
		MissingTexture:  uc.Blocks.MissingTexture,
		Workers:         uc.Workers.Count,
		GenerationRate:  uc.Workers.GenerationRate,
		GenerationBurst: uc.Workers.GenerationBurst,
		FrameRate:       uc.Workers.FrameRate,
		DefaultRadius:   [3]int32{uc.World.StreamRadius, uc.World.StreamHeight, uc.World.StreamRadius},
		Terrain: generator.TerrainConfig{
			Seed:                  uc.World.Seed,
			SeaLevel:              uc.World.SeaLevel,
			Flat:                  uc.World.Flat,
			FlatHeight:            uc.World.FlatHeight,
			Hardness:              uc.World.Hardness,
			ElevationMultiple:     uc.Terrain.ElevationMultiple,
			ElevationAmplitude:    uc.Terrain.ElevationAmplitude,
			ElevationScale:        uc.Terrain.ElevationScale,
			RoughnessScale:        uc.Terrain.RoughnessScale,
			DeviationScale:        uc.Terrain.DeviationScale,
			RoughnessNoiseWeight:  uc.Terrain.RoughnessNoiseWeight,
			DensitySmallScale:     uc.Terrain.DensitySmallScale,
			DensitySmallAmplitude: uc.Terrain.DensitySmallAmplitude,
			DensityLargeScale:     uc.Terrain.DensityLargeScale,
			DensityLargeAmplitude: uc.Terrain.DensityLargeAmplitude,
			Stride:                uc.Terrain.Stride,
			Fractal: noise.Fractal{
				Octaves:     uc.Terrain.Octaves,
				Persistence: uc.Terrain.Persistence,
				Lacunarity:  uc.Terrain.Lacunarity,
			},
			Palette: generator.DefaultPalette(),
		},
	}
	return conf, nil
}

// DefaultConfig returns a configuration with the default values filled out.
func DefaultConfig() UserConfig {
	t := generator.DefaultTerrainConfig()

	c := UserConfig{}
	c.World.Seed = 0
	c.World.SeaLevel = t.SeaLevel
	c.World.Hardness = t.Hardness
	c.World.StreamRadius = 5
	c.World.StreamHeight = 5
	c.Terrain.ElevationMultiple = t.ElevationMultiple
	c.Terrain.ElevationAmplitude = t.ElevationAmplitude
	c.Terrain.ElevationScale = t.ElevationScale
	c.Terrain.RoughnessScale = t.RoughnessScale
	c.Terrain.DeviationScale = t.DeviationScale
	c.Terrain.RoughnessNoiseWeight = t.RoughnessNoiseWeight
	c.Terrain.DensitySmallScale = t.DensitySmallScale
	c.Terrain.DensitySmallAmplitude = t.DensitySmallAmplitude
	c.Terrain.DensityLargeScale = t.DensityLargeScale
	c.Terrain.DensityLargeAmplitude = t.DensityLargeAmplitude
	c.Terrain.Stride = t.Stride
	c.Terrain.Octaves = t.Fractal.Octaves
	c.Terrain.Persistence = t.Fractal.Persistence
	c.Terrain.Lacunarity = t.Fractal.Lacunarity
	c.Blocks.Folder = "blocks"
	c.Blocks.MissingTexture = "missing"
	c.Workers.GenerationRate = 256
	c.Workers.FrameRate = 60
	return c
}

// LoadConfig reads the TOML user configuration at path. If the file does not
// exist, it is created holding DefaultConfig().
func LoadConfig(path string, log *slog.Logger) (UserConfig, error) {
	if log == nil {
		log = slog.Default()
	}
	c := DefaultConfig()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		data, err = toml.Marshal(c)
		if err != nil {
			return c, fmt.Errorf("encode default config: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return c, fmt.Errorf("create default config: %w", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return c, fmt.Errorf("create default config: %w", err)
		}
		log.Info("Created default config.", "path", path)
		return c, nil
	}
	if err != nil {
		return c, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}
	return c, nil
}
