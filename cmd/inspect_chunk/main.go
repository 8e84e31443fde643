package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"

	"github.com/dm-vev/voxelworld/engine/block"
	"github.com/dm-vev/voxelworld/engine/render"
	"github.com/dm-vev/voxelworld/engine/world/chunk"
	"github.com/dm-vev/voxelworld/engine/world/generator"
	"github.com/dm-vev/voxelworld/engine/world/mesh"
)

func main() {
	var (
		seed    = flag.Int64("seed", 0, "world seed")
		cx      = flag.Int("cx", 0, "chunk x coordinate")
		cy      = flag.Int("cy", 1, "chunk y coordinate")
		cz      = flag.Int("cz", 0, "chunk z coordinate")
		flat    = flag.Bool("flat", false, "generate flat terrain instead of noise terrain")
		height  = flag.Int("height", 40, "height of flat terrain")
		objPath = flag.String("obj", "", "write the chunk mesh to this OBJ file, compressed if it ends in .zst")
	)
	flag.Parse()
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	conf := generator.DefaultTerrainConfig()
	conf.Seed = *seed
	if *flat {
		conf.Flat, conf.FlatHeight = true, int32(*height)
		conf.DensitySmallAmplitude, conf.DensityLargeAmplitude = 0, 0
	}
	gen, err := generator.NewTerrain(conf)
	if err != nil {
		log.Error("create generator: " + err.Error())
		os.Exit(1)
	}

	pos := chunk.Pos{int32(*cx), int32(*cy), int32(*cz)}
	c := chunk.New(pos)
	if err := gen.GenerateChunk(context.Background(), pos, c); err != nil {
		log.Error("generate chunk: "+err.Error(), "pos", pos)
		os.Exit(1)
	}

	reg := block.Default()
	fmt.Printf("chunk %v digest %016x\n", pos, c.Digest())
	hist := c.Histogram()
	for _, id := range slices.Sorted(maps.Keys(hist)) {
		name := "empty"
		if b, ok := reg.ByID(id); ok {
			name = b.Name
		}
		fmt.Printf("  %3d %-8s %6d\n", id, name, hist[id])
	}

	b := mesh.Build(c)
	fmt.Printf("mesh: %d quads\n", b.Quads())
	for _, f := range mesh.Faces {
		fmt.Printf("  %-5v %6d\n", f, b.FaceQuads(f))
	}

	if *objPath == "" {
		return
	}
	rec := render.NewRecorder()
	tr := &render.Translator{Registry: reg, Fallback: "missing", Sink: rec, Log: log}
	tr.UploadMesh(pos, b)
	if err := render.WriteOBJFile(*objPath, rec); err != nil {
		log.Error("write obj: " + err.Error())
		os.Exit(1)
	}
}
