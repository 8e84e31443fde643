package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dm-vev/voxelworld/engine"
	"github.com/dm-vev/voxelworld/engine/render"
	"github.com/go-gl/mathgl/mgl64"
)

func main() {
	var (
		configPath = flag.String("config", "config.toml", "path of the TOML configuration file")
		frames     = flag.Int("frames", 0, "number of frames to run before exiting, 0 to run until interrupted")
		x          = flag.Float64("x", 0, "x position of the subject")
		y          = flag.Float64("y", 48, "y position of the subject")
		z          = flag.Float64("z", 0, "z position of the subject")
		objPath    = flag.String("obj", "", "write all meshes to this OBJ file on exit, compressed if it ends in .zst")
		debug      = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	uc, err := engine.LoadConfig(*configPath, log)
	if err != nil {
		log.Error("load config: " + err.Error())
		os.Exit(1)
	}
	conf, err := uc.Config(log)
	if err != nil {
		log.Error("convert config: " + err.Error())
		os.Exit(1)
	}
	rec := render.NewRecorder()
	conf.Sink = rec

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e := conf.New()
	e.AddSubject(mgl64.Vec3{*x, *y, *z})

	start := time.Now()
	if err := run(ctx, e, *frames); err != nil {
		log.Error("run engine: " + err.Error())
	}
	if err := e.Close(); err != nil {
		log.Error("close engine: " + err.Error())
	}

	uploads, removes, quads := rec.Stats()
	if w := e.World(); w != nil {
		m := w.Metrics()
		fmt.Printf("ran for %v\n", time.Since(start).Round(time.Millisecond))
		fmt.Printf("chunks: requested %d, generated %d, failed %d, dropped %d, live %d\n", m.Requested, m.Generated, m.Failed, m.Dropped, w.Len())
		fmt.Printf("meshes: built %d, discarded %d, failed %d\n", m.MeshBuilt, m.MeshDiscarded, m.MeshFailed)
	}
	fmt.Printf("render: %d uploads, %d removals, %d quads\n", uploads, removes, quads)

	if *objPath != "" {
		if err := render.WriteOBJFile(*objPath, rec); err != nil {
			log.Error("export meshes: " + err.Error())
			os.Exit(1)
		}
		log.Info("Exported meshes.", "path", *objPath)
	}
}

// run runs e until ctx is cancelled, or for the number of frames passed if it
// is positive.
func run(ctx context.Context, e *engine.Engine, frames int) error {
	if frames <= 0 {
		return e.Run(ctx)
	}
	if err := e.Load(ctx); err != nil {
		return err
	}
	w := e.World()
	tc := time.NewTicker(time.Second / 60)
	defer tc.Stop()
	for i := 0; i < frames; i++ {
		select {
		case <-ctx.Done():
			return nil
		case <-tc.C:
			w.Tick()
		}
	}
	return nil
}
