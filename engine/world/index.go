package world

import (
	"errors"
	"iter"

	"github.com/brentp/intintmap"
	"github.com/dm-vev/voxelworld/engine/world/chunk"
	"github.com/dm-vev/voxelworld/engine/world/mesh"
)

// ErrOccupied is returned when inserting a record at a position that already
// holds one.
var ErrOccupied = errors.New("world: chunk position already occupied")

// GeneratingArea marks a record whose voxels are being generated. It is
// removed once the result of the generation has been applied.
type GeneratingArea struct {
	Extent chunk.Extent
}

// Record holds everything the World tracks for one chunk position. Every
// optional part is a separate field that is nil or false when absent.
type Record struct {
	pos ChunkPos

	chunk *chunk.Chunk
	area  *GeneratingArea
	gen   *job[*chunk.Chunk]

	mesh      *mesh.Buffers
	meshing   *job[*mesh.Buffers]
	meshingAt uint64

	dirty   bool
	removed bool

	version       uint64
	meshedVersion uint64
}

func newRecord(pos ChunkPos) *Record {
	return &Record{pos: pos}
}

// Pos returns the chunk position of the record.
func (r *Record) Pos() ChunkPos { return r.pos }

// Chunk returns the voxels of the record, or nil if none were generated yet.
func (r *Record) Chunk() *chunk.Chunk { return r.chunk }

// Mesh returns the latest mesh applied to the record, or nil.
func (r *Record) Mesh() *mesh.Buffers { return r.mesh }

// Area returns the area being generated, or nil if the record is idle.
func (r *Record) Area() *GeneratingArea { return r.area }

// Dirty checks if the voxels of the record changed since the last mesh build
// was started.
func (r *Record) Dirty() bool { return r.dirty }

// Version returns a counter incremented every time the voxels change.
func (r *Record) Version() uint64 { return r.version }

// MeshedVersion returns the version of the voxels that Mesh was built from.
func (r *Record) MeshedVersion() uint64 { return r.meshedVersion }

// SpatialIndex maps chunk positions to the records of live chunks. Records are
// stored in an arena and looked up through an open addressing hash map from a
// packed position to the arena slot. A SpatialIndex is not safe for concurrent
// use.
type SpatialIndex struct {
	slots *intintmap.Map
	arena []*Record
	free  []int
}

// NewSpatialIndex returns an empty index with room for about size records
// before growing.
func NewSpatialIndex(size int) *SpatialIndex {
	if size <= 0 {
		size = 1024
	}
	return &SpatialIndex{slots: intintmap.New(size, 0.6)}
}

// Insert adds a record to the index. ErrOccupied is returned if a record is
// already present at the position of r.
func (s *SpatialIndex) Insert(r *Record) error {
	k := key(r.pos)
	if _, ok := s.slots.Get(k); ok {
		return ErrOccupied
	}
	var slot int
	if n := len(s.free); n > 0 {
		slot, s.free = s.free[n-1], s.free[:n-1]
		s.arena[slot] = r
	} else {
		slot = len(s.arena)
		s.arena = append(s.arena, r)
	}
	s.slots.Put(k, int64(slot))
	return nil
}

// Lookup returns the record at pos.
func (s *SpatialIndex) Lookup(pos ChunkPos) (*Record, bool) {
	slot, ok := s.slots.Get(key(pos))
	if !ok {
		return nil, false
	}
	return s.arena[slot], true
}

// Contains checks if a record is present at pos.
func (s *SpatialIndex) Contains(pos ChunkPos) bool {
	_, ok := s.slots.Get(key(pos))
	return ok
}

// Remove removes the record at pos and returns it.
func (s *SpatialIndex) Remove(pos ChunkPos) (*Record, bool) {
	k := key(pos)
	slot, ok := s.slots.Get(k)
	if !ok {
		return nil, false
	}
	r := s.arena[slot]
	s.arena[slot] = nil
	s.free = append(s.free, int(slot))
	s.slots.Del(k)
	return r, true
}

// Len returns the number of records in the index.
func (s *SpatialIndex) Len() int {
	return len(s.arena) - len(s.free)
}

// All returns an iterator over all records in the index, in arena order.
func (s *SpatialIndex) All() iter.Seq2[ChunkPos, *Record] {
	return func(yield func(ChunkPos, *Record) bool) {
		for _, r := range s.arena {
			if r == nil {
				continue
			}
			if !yield(r.pos, r) {
				return
			}
		}
	}
}

const (
	keyBits = 21
	keyMask = 1<<keyBits - 1
)

// key packs a chunk position into a single int64. Each axis keeps its lowest
// 21 bits, so positions are unique for coordinates in [-2^20, 2^20).
func key(p ChunkPos) int64 {
	return int64(p[0])&keyMask | (int64(p[1])&keyMask)<<keyBits | (int64(p[2])&keyMask)<<(2*keyBits)
}
