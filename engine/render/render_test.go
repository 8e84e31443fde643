package render

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dm-vev/voxelworld/engine/block"
	"github.com/dm-vev/voxelworld/engine/world"
	"github.com/dm-vev/voxelworld/engine/world/chunk"
	"github.com/dm-vev/voxelworld/engine/world/mesh"
	"github.com/klauspost/compress/zstd"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// twoMaterials returns the mesh of a chunk holding one dirt voxel and one
// voxel of an unregistered material.
func twoMaterials() *mesh.Buffers {
	c := chunk.New(world.ChunkPos{})
	c.SetInterior(0, 0, 0, 1)
	c.SetInterior(5, 5, 5, 9)
	return mesh.Build(c)
}

func TestTranslateSkipsMissingMaterial(t *testing.T) {
	tr := &Translator{Registry: block.Default(), Log: discard}
	batches, err := tr.Translate(twoMaterials())
	if !errors.Is(err, ErrMissingMaterial) {
		t.Fatalf("expected ErrMissingMaterial, got %v", err)
	}
	if len(batches) != 1 || batches[0].Material != 1 || batches[0].Texture != "dirt" {
		t.Fatalf("unexpected batches %+v", batches)
	}
}

func TestTranslateUsesFallback(t *testing.T) {
	tr := &Translator{Registry: block.Default(), Fallback: "missing", Log: discard}
	batches, err := tr.Translate(twoMaterials())
	if !errors.Is(err, ErrMissingMaterial) {
		t.Fatalf("expected ErrMissingMaterial, got %v", err)
	}
	if len(batches) != 2 {
		t.Fatalf("got %d batches, want 2", len(batches))
	}
	if batches[1].Material != 9 || batches[1].Texture != "missing" || batches[1].Quads() != 6 {
		t.Fatalf("unexpected fallback batch %+v", batches[1])
	}
}

func TestTranslatorForwardsToSink(t *testing.T) {
	rec := NewRecorder()
	tr := &Translator{Registry: block.Default(), Fallback: "missing", Sink: rec, Log: discard}
	var sink world.MeshSink = tr

	sink.UploadMesh(world.ChunkPos{1, 0, 0}, twoMaterials())
	sink.UploadMesh(world.ChunkPos{0, 0, 0}, twoMaterials())
	if uploads, _, quads := rec.Stats(); uploads != 2 || quads != 24 {
		t.Fatalf("got %d uploads with %d quads, want 2 with 24", uploads, quads)
	}
	if got := rec.Positions(); len(got) != 2 || got[0] != (world.ChunkPos{0, 0, 0}) {
		t.Fatalf("unexpected positions %v", got)
	}

	sink.RemoveMesh(world.ChunkPos{1, 0, 0})
	if _, ok := rec.Batches(world.ChunkPos{1, 0, 0}); ok {
		t.Fatalf("batches still present after removal")
	}
	if _, removes, quads := rec.Stats(); removes != 1 || quads != 12 {
		t.Fatalf("got %d removes with %d quads left, want 1 with 12", removes, quads)
	}
}

func countPrefix(s, prefix string) int {
	var n int
	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(line, prefix) {
			n++
		}
	}
	return n
}

func TestWriteOBJ(t *testing.T) {
	tr := &Translator{Registry: block.Default(), Log: discard}
	batches, _ := tr.Translate(twoMaterials())

	var buf bytes.Buffer
	if err := WriteOBJ(&buf, world.ChunkPos{1, 2, 3}, batches); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "o chunk_1_2_3\n") {
		t.Fatalf("unexpected header %q", out[:min(len(out), 20)])
	}
	if v, f := countPrefix(out, "v "), countPrefix(out, "f "); v != 24 || f != 12 {
		t.Fatalf("got %d vertices and %d faces, want 24 and 12", v, f)
	}
	// The voxel at interior (0,0,0) of chunk (1,2,3) starts at world (32,64,96).
	if !strings.Contains(out, "v 32 64 96\n") {
		t.Fatalf("vertices are not placed at world coordinates")
	}
}

func TestWriteOBJFileCompressed(t *testing.T) {
	rec := NewRecorder()
	tr := &Translator{Registry: block.Default(), Sink: rec, Log: discard}
	tr.UploadMesh(world.ChunkPos{0, 0, 0}, twoMaterials())
	tr.UploadMesh(world.ChunkPos{0, 1, 0}, twoMaterials())

	path := filepath.Join(t.TempDir(), "out", "world.obj.zst")
	if err := WriteOBJFile(path, rec); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer dec.Close()
	data, err := io.ReadAll(dec)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	out := string(data)
	if countPrefix(out, "o ") != 2 || countPrefix(out, "f ") != 24 {
		t.Fatalf("unexpected document:\n%v", out)
	}
	// Indices of the second chunk continue after the vertices of the first.
	if !strings.Contains(out, "f 25/25/25") {
		t.Fatalf("face indices are not global to the document")
	}
}
