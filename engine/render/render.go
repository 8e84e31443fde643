// Package render turns chunk meshes into draw batches and hands them to a
// Sink, such as a GPU uploader, a Recorder or an OBJ file.
package render

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dm-vev/voxelworld/engine/block"
	"github.com/dm-vev/voxelworld/engine/world"
	"github.com/dm-vev/voxelworld/engine/world/chunk"
	"github.com/dm-vev/voxelworld/engine/world/mesh"
)

// ErrMissingMaterial is returned when a mesh holds a material id that has no
// block registered for it.
var ErrMissingMaterial = errors.New("missing material")

// Batch is the geometry of a single material in a chunk, ready to be drawn
// with one texture.
type Batch struct {
	Material chunk.Voxel
	Texture  string
	*mesh.Group
}

// Sink receives the draw batches of chunks.
type Sink interface {
	// Upload replaces the batches of the chunk at pos.
	Upload(pos world.ChunkPos, batches []Batch)
	// Remove discards the batches of the chunk at pos.
	Remove(pos world.ChunkPos)
}

// Translator resolves the materials of chunk meshes to textures and forwards
// the result to a Sink. Translator implements world.MeshSink.
type Translator struct {
	// Registry resolves material ids to blocks.
	Registry *block.Registry
	// Fallback is the texture used for material ids that have no block
	// registered. If empty, geometry of such materials is not drawn.
	Fallback string
	// Sink receives the translated batches.
	Sink Sink
	// Log is the Logger used to report missing materials. If nil,
	// slog.Default() is used.
	Log *slog.Logger
}

// Translate converts b into batches ordered by material id. A material without
// a registered block is drawn with the fallback texture, or left out if no
// fallback is set. In both cases an error wrapping ErrMissingMaterial is
// returned next to the batches.
func (t *Translator) Translate(b *mesh.Buffers) ([]Batch, error) {
	var errs []error
	batches := make([]Batch, 0, len(b.Groups))
	for _, id := range b.Materials() {
		tex, ok := t.Registry.Texture(id)
		if !ok {
			errs = append(errs, fmt.Errorf("material %d: %w", id, ErrMissingMaterial))
			if t.Fallback == "" {
				continue
			}
			tex = t.Fallback
		}
		batches = append(batches, Batch{Material: id, Texture: tex, Group: b.Groups[id]})
	}
	return batches, errors.Join(errs...)
}

// UploadMesh translates b and uploads it to the Sink.
func (t *Translator) UploadMesh(pos world.ChunkPos, b *mesh.Buffers) {
	batches, err := t.Translate(b)
	if err != nil {
		t.log().Warn("translate mesh: "+err.Error(), "X", pos[0], "Y", pos[1], "Z", pos[2], "fallback", t.Fallback)
	}
	t.Sink.Upload(pos, batches)
}

// RemoveMesh removes the batches of the chunk at pos from the Sink.
func (t *Translator) RemoveMesh(pos world.ChunkPos) {
	t.Sink.Remove(pos)
}

func (t *Translator) log() *slog.Logger {
	if t.Log == nil {
		return slog.Default()
	}
	return t.Log
}

// sortedPositions returns the keys of m in ascending order.
func sortedPositions[V any](m map[world.ChunkPos]V) []world.ChunkPos {
	positions := make([]world.ChunkPos, 0, len(m))
	for pos := range m {
		positions = append(positions, pos)
	}
	slices.SortFunc(positions, func(a, b world.ChunkPos) int {
		return cmp.Or(cmp.Compare(a[1], b[1]), cmp.Compare(a[2], b[2]), cmp.Compare(a[0], b[0]))
	})
	return positions
}
