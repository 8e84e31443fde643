package world

import (
	"context"
	"log/slog"
	"math"
	"runtime"

	"github.com/alitto/pond/v2"
	"golang.org/x/time/rate"
)

// Config holds the options of a World.
type Config struct {
	// Log is the Logger used to report failed chunks and scheduler warnings.
	// If nil, Log is set to slog.Default().
	Log *slog.Logger
	// Generator fills newly requested chunks with voxels. If nil, chunks are
	// left empty.
	Generator Generator
	// Sink receives every mesh built, as well as the positions of removed
	// chunks. If nil, meshes are still built and kept by the World but not
	// passed on.
	Sink MeshSink
	// Workers is the number of goroutines generating and meshing chunks. Set
	// to 0 to use one worker per CPU.
	Workers int
	// GenerationRate limits the number of chunk generations started per
	// second. Requests over the limit wait in a backlog and are started in
	// later frames, nearest first per subject. Set to 0 for no limit.
	GenerationRate float64
	// GenerationBurst is the number of generations that may start at once
	// when GenerationRate is set. Set to 0 to use the number of workers.
	GenerationBurst int
	// FrameRate is the number of frames per second Run ticks the World at.
	// Set to 0 to tick 60 times per second.
	FrameRate int
	// Metrics, if non-nil, is updated with scheduler counters. A World
	// always tracks metrics; passing one in allows sharing it.
	Metrics *Metrics
}

func (conf Config) withDefaults() Config {
	if conf.Log == nil {
		conf.Log = slog.Default()
	}
	if conf.Generator == nil {
		conf.Generator = NopGenerator{}
	}
	if conf.Sink == nil {
		conf.Sink = NopSink{}
	}
	if conf.Workers <= 0 {
		conf.Workers = runtime.NumCPU()
	}
	if conf.GenerationBurst <= 0 {
		conf.GenerationBurst = conf.Workers
	}
	if conf.FrameRate <= 0 {
		conf.FrameRate = 60
	}
	if conf.Metrics == nil {
		conf.Metrics = NewMetrics()
	}
	return conf
}

// New creates a World using the Config. The World does not tick by itself:
// call Tick once per frame, or Run to tick at the configured frame rate.
func (conf Config) New() *World {
	conf = conf.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	limit := rate.Inf
	if conf.GenerationRate > 0 && !math.IsInf(conf.GenerationRate, 1) {
		limit = rate.Limit(conf.GenerationRate)
	}
	return &World{
		conf:       conf,
		ctx:        ctx,
		cancel:     cancel,
		pool:       pond.NewPool(conf.Workers),
		limiter:    rate.NewLimiter(limit, conf.GenerationBurst),
		index:      NewSpatialIndex(0),
		generating: make(map[ChunkPos]*Record),
		dirty:      make(map[ChunkPos]*Record),
		meshing:    make(map[ChunkPos]*Record),
		closing:    make(chan struct{}),
	}
}
