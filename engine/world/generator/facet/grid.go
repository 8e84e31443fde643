package facet

import "github.com/dm-vev/voxelworld/engine/world/chunk"

// Grid2 is a field over the horizontal plane of a region, addressed with
// world voxel coordinates.
type Grid2[T any] struct {
	MinX, MinZ   int
	SizeX, SizeZ int
	Values       []T
}

// NewGrid2 allocates a horizontal field covering the X and Z axes of e.
func NewGrid2[T any](e chunk.Extent) *Grid2[T] {
	s := e.Size()
	return &Grid2[T]{MinX: e.Min[0], MinZ: e.Min[2], SizeX: s[0], SizeZ: s[2], Values: make([]T, s[0]*s[2])}
}

// At returns the value at the world column (x, z).
func (g *Grid2[T]) At(x, z int) T {
	return g.Values[(x-g.MinX)+(z-g.MinZ)*g.SizeX]
}

// Set sets the value at the world column (x, z).
func (g *Grid2[T]) Set(x, z int, v T) {
	g.Values[(x-g.MinX)+(z-g.MinZ)*g.SizeX] = v
}

// Grid3 is a field over a volume, addressed with world voxel coordinates. The
// layout of Values is x + z*SizeX + y*SizeX*SizeZ relative to Min.
type Grid3[T any] struct {
	Extent chunk.Extent
	size   [3]int
	Values []T
}

// NewGrid3 allocates a volume field covering e.
func NewGrid3[T any](e chunk.Extent) *Grid3[T] {
	s := e.Size()
	return &Grid3[T]{Extent: e, size: s, Values: make([]T, s[0]*s[1]*s[2])}
}

// Size returns the dimensions of the grid.
func (g *Grid3[T]) Size() [3]int {
	return g.size
}

// At returns the value at the world voxel (x, y, z).
func (g *Grid3[T]) At(x, y, z int) T {
	return g.Values[g.index(x, y, z)]
}

// Set sets the value at the world voxel (x, y, z).
func (g *Grid3[T]) Set(x, y, z int, v T) {
	g.Values[g.index(x, y, z)] = v
}

func (g *Grid3[T]) index(x, y, z int) int {
	m := g.Extent.Min
	return (x - m[0]) + (z-m[2])*g.size[0] + (y-m[1])*g.size[0]*g.size[2]
}
