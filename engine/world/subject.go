package world

import (
	"cmp"
	"slices"
	"sync"

	"github.com/dm-vev/voxelworld/engine/world/chunk"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
)

// Subject is an observer that chunks are streamed in around, such as a camera
// or a player. Move may be called from any goroutine.
type Subject struct {
	id     uuid.UUID
	radius [3]int32

	mu  sync.Mutex
	pos mgl64.Vec3

	// chunk and tracked are only accessed by the Streamer.
	chunk   ChunkPos
	tracked bool
}

// NewSubject creates a subject at pos that requests all chunks within radius
// chunks on every axis.
func NewSubject(pos mgl64.Vec3, radius [3]int32) *Subject {
	return &Subject{id: uuid.New(), pos: pos, radius: radius}
}

// ID returns the unique ID of the subject.
func (s *Subject) ID() uuid.UUID {
	return s.id
}

// Radius returns the streaming radius of the subject in chunks per axis.
func (s *Subject) Radius() [3]int32 {
	return s.radius
}

// Position returns the current world position of the subject.
func (s *Subject) Position() mgl64.Vec3 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}

// Move changes the world position of the subject. The chunks around the new
// position are requested the next time the subject's World ticks.
func (s *Subject) Move(pos mgl64.Vec3) {
	s.mu.Lock()
	s.pos = pos
	s.mu.Unlock()
}

// Streamer turns subject movement into generation requests.
type Streamer struct{}

// Collect recomputes the chunk position of every subject. For each subject
// that entered a different chunk since the last call, or that was never seen
// before, a Generate event is returned for every position within its radius
// that is not in the index. Events of a subject are ordered from the nearest
// chunk outwards. Collect does not deduplicate events across subjects or
// against chunks that are being generated.
func (Streamer) Collect(subjects []*Subject, index *SpatialIndex) []Event {
	var events []Event
	for _, s := range subjects {
		centre := chunk.PosFromWorld(s.Position())
		if s.tracked && centre == s.chunk {
			continue
		}
		s.chunk, s.tracked = centre, true
		events = append(events, requests(centre, s.radius, index)...)
	}
	return events
}

func requests(centre ChunkPos, r [3]int32, index *SpatialIndex) []Event {
	var events []Event
	for y := -r[1]; y <= r[1]; y++ {
		for z := -r[2]; z <= r[2]; z++ {
			for x := -r[0]; x <= r[0]; x++ {
				pos := centre.Add(ChunkPos{x, y, z})
				if index.Contains(pos) {
					continue
				}
				events = append(events, Event{Kind: EventGenerate, Pos: pos})
			}
		}
	}
	slices.SortStableFunc(events, func(a, b Event) int {
		return cmp.Compare(distance(a.Pos, centre), distance(b.Pos, centre))
	})
	return events
}

func distance(a, b ChunkPos) int64 {
	var d int64
	for i := range a {
		v := int64(a[i] - b[i])
		d += v * v
	}
	return d
}
