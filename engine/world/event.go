package world

import "github.com/dm-vev/voxelworld/engine/world/chunk"

// ChunkPos is the position of a chunk in chunk grid units.
type ChunkPos = chunk.Pos

// EventKind is the kind of a generation event.
type EventKind uint8

const (
	// EventGenerate requests a chunk to be generated if it is neither loaded
	// nor being generated.
	EventGenerate EventKind = iota
	// EventUpdate requests a loaded chunk to be generated again. The old
	// voxels stay visible until the new ones are available.
	EventUpdate
	// EventRemove evicts a chunk and its mesh.
	EventRemove
)

// String implements fmt.Stringer.
func (k EventKind) String() string {
	switch k {
	case EventGenerate:
		return "generate"
	case EventUpdate:
		return "update"
	case EventRemove:
		return "remove"
	}
	return "unknown"
}

// Event is a request for the chunk at Pos.
type Event struct {
	Kind EventKind
	Pos  ChunkPos
}
