package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dm-vev/voxelworld/engine/render"
	"github.com/dm-vev/voxelworld/engine/world"
	"github.com/dm-vev/voxelworld/engine/world/generator"
	"github.com/go-gl/mathgl/mgl64"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func flatConfig(t *testing.T, folder string) Config {
	t.Helper()
	terrain := generator.DefaultTerrainConfig()
	terrain.Flat, terrain.FlatHeight = true, 40
	terrain.SeaLevel = 32
	terrain.DensitySmallAmplitude, terrain.DensityLargeAmplitude = 0, 0
	return Config{
		Log:            discard,
		BlockFolder:    folder,
		MissingTexture: "missing",
		Terrain:        terrain,
		Workers:        4,
		DefaultRadius:  [3]int32{1, 0, 1},
	}
}

func newTestEngine(t *testing.T, conf Config) *Engine {
	t.Helper()
	e := conf.New()
	t.Cleanup(func() {
		if err := e.Close(); err != nil {
			t.Fatalf("failed closing engine: %v", err)
		}
	})
	return e
}

// tickUntil ticks the world of e until cond holds, failing the test after a
// deadline.
func tickUntil(t *testing.T, e *Engine, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for {
		e.World().Tick()
		if cond() {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestEngineStreamsSubjectAddedWhileLoading(t *testing.T) {
	folder := filepath.Join(t.TempDir(), "blocks")
	e := newTestEngine(t, flatConfig(t, folder))
	if e.World() != nil || e.State() != StateLoading {
		t.Fatalf("engine must be loading before Load, got %v", e.State())
	}
	e.AddSubject(mgl64.Vec3{0, 40, 0})

	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if e.State() != StateRunning || e.Registry().Len() != 3 {
		t.Fatalf("unexpected state %v with %d blocks", e.State(), e.Registry().Len())
	}
	// The missing block folder is created holding the default blocks.
	if entries, err := os.ReadDir(folder); err != nil || len(entries) != 3 {
		t.Fatalf("block folder holds %d entries (%v), want 3", len(entries), err)
	}

	rec := e.Sink().(*render.Recorder)
	tickUntil(t, e, func() bool { return len(rec.Positions()) == 9 && !e.World().Busy() })

	batches, _ := rec.Batches(world.ChunkPos{0, 1, 0})
	if len(batches) == 0 || batches[0].Texture != "dirt" || batches[0].Quads() == 0 {
		t.Fatalf("surface chunk has no dirt geometry: %+v", batches)
	}
}

func TestEngineResolvesPaletteByName(t *testing.T) {
	folder := t.TempDir()
	for name, content := range map[string]string{
		"clay.block.toml":  "texture_name = \"clay\"\nopaque = true\n",
		"dirt.block.toml":  "texture_name = \"grass\"\nopaque = true\n",
		"stone.block.toml": "texture_name = \"rock\"\nopaque = true\n",
		"water.block.yaml": "texture_name: water\nliquid: true\n",
	} {
		if err := os.WriteFile(filepath.Join(folder, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %v: %v", name, err)
		}
	}
	e := newTestEngine(t, flatConfig(t, folder))
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	dirt, _ := e.Registry().ByName("dirt")
	if dirt.ID != 2 {
		t.Fatalf("dirt registered as %d, want 2", dirt.ID)
	}

	e.AddSubject(mgl64.Vec3{0, 40, 0})
	pos := world.ChunkPos{0, 1, 0}
	tickUntil(t, e, func() bool {
		_, ok := e.World().Mesh(pos)
		return ok
	})
	c, _ := e.World().Chunk(pos)
	// The surface at y=40 lies at interior y=8 of chunk y=1.
	if v := c.Interior(3, 8, 3); v != dirt.ID {
		t.Fatalf("surface voxel is %d, want dirt (%d)", v, dirt.ID)
	}
	rec := e.Sink().(*render.Recorder)
	batches, _ := rec.Batches(pos)
	if len(batches) == 0 || batches[0].Texture != "grass" {
		t.Fatalf("surface batches do not use the registered texture: %+v", batches)
	}
}

func TestEngineRunStopsOnCancel(t *testing.T) {
	e := newTestEngine(t, flatConfig(t, ""))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not return after cancellation")
	}
}

func TestEngineLoadAfterClose(t *testing.T) {
	e := flatConfig(t, "").New()
	if err := e.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := e.Load(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestLoadConfigCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	c, err := LoadConfig(path, discard)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if c != DefaultConfig() {
		t.Fatalf("loaded config differs from the default")
	}

	// Loading the written file yields the same configuration.
	again, err := LoadConfig(path, discard)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again != c {
		t.Fatalf("reloaded config differs:\n%+v\n%+v", again, c)
	}
	conf, err := again.Config(discard)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if conf.BlockFolder != "blocks" || conf.DefaultRadius != [3]int32{5, 5, 5} || conf.Terrain.Stride != 4 {
		t.Fatalf("unexpected converted config %+v", conf)
	}
}

func TestUserConfigRejectsInvalidStride(t *testing.T) {
	c := DefaultConfig()
	c.Terrain.Stride = 0
	if _, err := c.Config(discard); err == nil {
		t.Fatalf("expected an error for stride 0")
	}
}

func TestUserConfigFlatAtHeightZero(t *testing.T) {
	c := DefaultConfig()
	c.World.Flat, c.World.FlatHeight = true, 0
	conf, err := c.Config(discard)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !conf.Terrain.Flat || conf.Terrain.FlatHeight != 0 {
		t.Fatalf("flat terrain at height 0 was not kept: %+v", conf.Terrain)
	}
	if _, err := generator.NewTerrain(conf.Terrain); err != nil {
		t.Fatalf("new terrain: %v", err)
	}
}
