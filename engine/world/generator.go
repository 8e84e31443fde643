package world

import (
	"context"

	"github.com/dm-vev/voxelworld/engine/world/chunk"
	"github.com/dm-vev/voxelworld/engine/world/mesh"
)

// Generator fills chunks with voxels. GenerateChunk is called from worker
// goroutines, possibly for many chunks at once, so implementations must be
// safe for concurrent use. The chunk passed is owned by the call.
type Generator interface {
	GenerateChunk(ctx context.Context, pos ChunkPos, c *chunk.Chunk) error
}

// NopGenerator is a Generator that leaves chunks empty.
type NopGenerator struct{}

func (NopGenerator) GenerateChunk(context.Context, ChunkPos, *chunk.Chunk) error { return nil }

// MeshSink receives the meshes built by a World. Its methods are called from
// the goroutine that ticks the World.
type MeshSink interface {
	// UploadMesh replaces the mesh of the chunk at pos.
	UploadMesh(pos ChunkPos, b *mesh.Buffers)
	// RemoveMesh discards the mesh of the chunk at pos.
	RemoveMesh(pos ChunkPos)
}

// NopSink is a MeshSink that discards all meshes.
type NopSink struct{}

func (NopSink) UploadMesh(ChunkPos, *mesh.Buffers) {}
func (NopSink) RemoveMesh(ChunkPos)                {}
