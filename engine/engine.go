// Package engine wires the block registry, terrain generator, world and
// render path of a voxel world together.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"sync/atomic"

	"github.com/dm-vev/voxelworld/engine/block"
	"github.com/dm-vev/voxelworld/engine/render"
	"github.com/dm-vev/voxelworld/engine/world"
	"github.com/dm-vev/voxelworld/engine/world/chunk"
	"github.com/dm-vev/voxelworld/engine/world/generator"
	"github.com/go-gl/mathgl/mgl64"
)

// ErrClosed is returned by an Engine that has been closed.
var ErrClosed = errors.New("engine closed")

// State is the startup state of an Engine.
type State int32

const (
	// StateLoading is the state of an Engine waiting for its blocks.
	StateLoading State = iota
	// StateRunning is the state of an Engine with a world.
	StateRunning
	// StateClosed is the state of an Engine after Close.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateRunning:
		return "running"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int32(s))
}

// Engine runs a procedurally generated voxel world. An Engine starts in the
// loading state, in which it waits for its block registry, and creates its
// world once the registry is available.
type Engine struct {
	conf  Config
	state atomic.Int32

	blocks  <-chan block.LoadResult
	loadMu  sync.Mutex
	loadErr error

	mu       sync.Mutex
	registry *block.Registry
	w        *world.World
	pending  []*world.Subject
}

func newEngine(conf Config) *Engine {
	e := &Engine{conf: conf}
	if conf.BlockFolder != "" {
		e.blocks = block.LoadAsync(context.Background(), conf.BlockFolder, conf.Log)
	} else {
		res := make(chan block.LoadResult, 1)
		res <- block.LoadResult{Registry: block.Default()}
		close(res)
		e.blocks = res
	}
	return e
}

// State returns the current startup state of the Engine.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Load waits for the block registry and creates the world. Load returns
// immediately if the world already exists. If ctx is cancelled first, ctx.Err()
// is returned and Load may be called again.
func (e *Engine) Load(ctx context.Context) error {
	e.loadMu.Lock()
	defer e.loadMu.Unlock()
	switch {
	case e.State() == StateClosed:
		return ErrClosed
	case e.World() != nil:
		return nil
	case e.loadErr != nil:
		return e.loadErr
	}

	var res block.LoadResult
	select {
	case res = <-e.blocks:
	case <-ctx.Done():
		return ctx.Err()
	}
	reg := e.registryFrom(res)

	conf := e.conf.Terrain
	conf.Palette = e.palette(reg)
	terrain, err := generator.NewTerrain(conf)
	if err != nil {
		e.loadErr = fmt.Errorf("load engine: %w", err)
		return e.loadErr
	}
	w := world.Config{
		Log:       e.conf.Log,
		Generator: terrain,
		Sink: &render.Translator{
			Registry: reg,
			Fallback: e.conf.MissingTexture,
			Sink:     e.conf.Sink,
			Log:      e.conf.Log,
		},
		Workers:         e.conf.Workers,
		GenerationRate:  e.conf.GenerationRate,
		GenerationBurst: e.conf.GenerationBurst,
		FrameRate:       e.conf.FrameRate,
	}.New()

	e.mu.Lock()
	if e.State() == StateClosed {
		e.mu.Unlock()
		_ = w.Close()
		return ErrClosed
	}
	for _, s := range e.pending {
		w.AddSubject(s)
	}
	e.registry, e.w, e.pending = reg, w, nil
	e.state.Store(int32(StateRunning))
	e.mu.Unlock()
	e.conf.Log.Info("Engine running.", "blocks", reg.Len(), "seed", conf.Seed)
	return nil
}

// registryFrom returns the registry of a load result, falling back to the
// default blocks if the folder could not be read. A missing folder is created
// holding the default blocks.
func (e *Engine) registryFrom(res block.LoadResult) *block.Registry {
	switch {
	case res.Err == nil && res.Registry.Len() > 0:
		return res.Registry
	case res.Err == nil:
		e.conf.Log.Warn("load blocks: folder holds no blocks, using defaults", "folder", e.conf.BlockFolder)
		return block.Default()
	case errors.Is(res.Err, fs.ErrNotExist):
		reg := block.Default()
		if err := reg.Export(e.conf.BlockFolder); err != nil {
			e.conf.Log.Error("create block folder: "+err.Error(), "folder", e.conf.BlockFolder)
		} else {
			e.conf.Log.Info("Created default block folder.", "folder", e.conf.BlockFolder)
		}
		return reg
	default:
		e.conf.Log.Error("load blocks: "+res.Err.Error(), "folder", e.conf.BlockFolder)
		return block.Default()
	}
}

// palette resolves the materials placed by the terrain generator by block
// name. Blocks that are not registered keep their default id.
func (e *Engine) palette(reg *block.Registry) generator.Palette {
	p := generator.DefaultPalette()
	resolve := func(name string, dst *chunk.Voxel) {
		if b, ok := reg.ByName(name); ok {
			*dst = b.ID
			return
		}
		e.conf.Log.Warn("resolve palette: block not registered, using default id", "block", name, "id", *dst)
	}
	resolve("dirt", &p.Dirt)
	resolve("stone", &p.Stone)
	resolve("water", &p.Water)
	return p
}

// Run loads the Engine if needed and ticks its world until ctx is cancelled
// or the Engine is closed.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.Load(ctx); err != nil {
		return err
	}
	e.World().Run(ctx)
	return nil
}

// AddSubject adds a subject at pos that streams chunks within the default
// radius. AddSubject may be called from any goroutine, also before the world
// has been created.
func (e *Engine) AddSubject(pos mgl64.Vec3) *world.Subject {
	s := world.NewSubject(pos, e.conf.DefaultRadius)
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.w == nil {
		e.pending = append(e.pending, s)
		return s
	}
	e.w.Exec(func(w *world.World) { w.AddSubject(s) })
	return s
}

// World returns the world of the Engine, or nil if the Engine is still
// loading.
func (e *Engine) World() *world.World {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.w
}

// Registry returns the block registry of the Engine, or nil if the Engine is
// still loading.
func (e *Engine) Registry() *block.Registry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry
}

// Sink returns the render sink the Engine uploads batches to.
func (e *Engine) Sink() render.Sink {
	return e.conf.Sink
}

// Close stops the world of the Engine and waits for its workers.
func (e *Engine) Close() error {
	e.mu.Lock()
	w := e.w
	e.state.Store(int32(StateClosed))
	e.mu.Unlock()
	if w != nil {
		return w.Close()
	}
	return nil
}
