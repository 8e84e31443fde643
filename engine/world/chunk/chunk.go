package chunk

import (
	"unsafe"

	"github.com/segmentio/fasthash/fnv1a"
)

const (
	// Size is the side length of a chunk in voxels, excluding padding.
	Size = 32
	// Padding is the number of border voxels stored on every side of a chunk.
	// Border voxels hold the content of neighbouring chunks and are only used
	// to decide whether a face at the chunk boundary is exposed.
	Padding = 1
	// PaddedSize is the physical side length of the voxel grid of a chunk.
	PaddedSize = Size + 2*Padding

	volume = PaddedSize * PaddedSize * PaddedSize
)

// Voxel is a material id. Voxel 0 is empty space.
type Voxel uint8

// Empty is the voxel that represents air.
const Empty Voxel = 0

// Empty checks if the voxel holds no material.
func (v Voxel) Empty() bool {
	return v == Empty
}

// Chunk is a padded cube of voxels at a fixed chunk position. Voxels are
// addressed in padded coordinates, so that interior voxels range from 1 to
// Size inclusive on every axis.
type Chunk struct {
	pos    Pos
	voxels [volume]Voxel
}

// New returns an empty chunk positioned at pos.
func New(pos Pos) *Chunk {
	return &Chunk{pos: pos}
}

// Pos returns the chunk position of the chunk.
func (c *Chunk) Pos() Pos {
	return c.pos
}

// At returns the voxel at the padded coordinates passed. Coordinates outside
// of the padded grid are considered empty.
func (c *Chunk) At(x, y, z int) Voxel {
	if !inPadded(x, y, z) {
		return Empty
	}
	return c.voxels[index(x, y, z)]
}

// Set sets the voxel at the padded coordinates passed. Set panics if the
// coordinates are outside of the padded grid.
func (c *Chunk) Set(x, y, z int, v Voxel) {
	c.voxels[index(x, y, z)] = v
}

// Interior returns the voxel at interior coordinates, where 0 is the first
// voxel owned by the chunk.
func (c *Chunk) Interior(x, y, z int) Voxel {
	return c.At(x+Padding, y+Padding, z+Padding)
}

// SetInterior sets a voxel at interior coordinates.
func (c *Chunk) SetInterior(x, y, z int, v Voxel) {
	c.Set(x+Padding, y+Padding, z+Padding, v)
}

// Fill sets every interior voxel of the chunk to v. Padding is left untouched.
func (c *Chunk) Fill(v Voxel) {
	for y := Padding; y < Size+Padding; y++ {
		for z := Padding; z < Size+Padding; z++ {
			for x := Padding; x < Size+Padding; x++ {
				c.voxels[index(x, y, z)] = v
			}
		}
	}
}

// Empty checks if the chunk has no non-empty voxel in its interior.
func (c *Chunk) Empty() bool {
	for y := Padding; y < Size+Padding; y++ {
		for z := Padding; z < Size+Padding; z++ {
			for x := Padding; x < Size+Padding; x++ {
				if c.voxels[index(x, y, z)] != Empty {
					return false
				}
			}
		}
	}
	return true
}

// Clone returns a deep copy of the chunk.
func (c *Chunk) Clone() *Chunk {
	cp := *c
	return &cp
}

// Histogram counts the interior voxels of every material id.
func (c *Chunk) Histogram() map[Voxel]int {
	m := make(map[Voxel]int)
	for y := Padding; y < Size+Padding; y++ {
		for z := Padding; z < Size+Padding; z++ {
			for x := Padding; x < Size+Padding; x++ {
				m[c.voxels[index(x, y, z)]]++
			}
		}
	}
	return m
}

// Digest returns a 64-bit FNV-1a hash of the full padded voxel grid. Two
// chunks with equal digests hold, with overwhelming probability, identical
// voxels.
func (c *Chunk) Digest() uint64 {
	b := unsafe.Slice((*byte)(unsafe.Pointer(&c.voxels[0])), volume)
	return fnv1a.HashBytes64(b)
}

// Voxels returns the raw padded grid in x, z, y order.
func (c *Chunk) Voxels() []Voxel {
	return c.voxels[:]
}

func inPadded(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 && x < PaddedSize && y < PaddedSize && z < PaddedSize
}

func index(x, y, z int) int {
	return x + z*PaddedSize + y*PaddedSize*PaddedSize
}
