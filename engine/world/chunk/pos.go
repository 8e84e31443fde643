package chunk

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// Pos is the position of a chunk in chunk grid units. Chunk (1, 0, 0) holds
// world voxels with an X of 32 through 63.
type Pos [3]int32

// X returns the X coordinate of the chunk position.
func (p Pos) X() int32 { return p[0] }

// Y returns the Y coordinate of the chunk position.
func (p Pos) Y() int32 { return p[1] }

// Z returns the Z coordinate of the chunk position.
func (p Pos) Z() int32 { return p[2] }

// Add returns the sum of two chunk positions.
func (p Pos) Add(o Pos) Pos {
	return Pos{p[0] + o[0], p[1] + o[1], p[2] + o[2]}
}

// String implements fmt.Stringer.
func (p Pos) String() string {
	return fmt.Sprintf("(%v, %v, %v)", p[0], p[1], p[2])
}

// Origin returns the world voxel coordinates of the first interior voxel of
// the chunk.
func (p Pos) Origin() [3]int {
	return [3]int{int(p[0]) * Size, int(p[1]) * Size, int(p[2]) * Size}
}

// Extent returns the padded voxel extent of the chunk in world voxel
// coordinates.
func (p Pos) Extent() Extent {
	o := p.Origin()
	return Extent{
		Min: [3]int{o[0] - Padding, o[1] - Padding, o[2] - Padding},
		Max: [3]int{o[0] + Size - 1 + Padding, o[1] + Size - 1 + Padding, o[2] + Size - 1 + Padding},
	}
}

// PosFromWorld returns the chunk position that a world position falls into.
// Each axis is divided by Size with truncation towards zero, so that world
// positions in (-32, 32) all map to chunk 0.
func PosFromWorld(v mgl64.Vec3) Pos {
	return Pos{int32(v[0]) / Size, int32(v[1]) / Size, int32(v[2]) / Size}
}

// Extent is an axis-aligned box of voxels. Both Min and Max are inclusive.
type Extent struct {
	Min, Max [3]int
}

// Size returns the number of voxels along every axis of the extent.
func (e Extent) Size() [3]int {
	return [3]int{e.Max[0] - e.Min[0] + 1, e.Max[1] - e.Min[1] + 1, e.Max[2] - e.Min[2] + 1}
}

// Contains checks if the world voxel passed lies within the extent.
func (e Extent) Contains(x, y, z int) bool {
	return x >= e.Min[0] && x <= e.Max[0] && y >= e.Min[1] && y <= e.Max[1] && z >= e.Min[2] && z <= e.Max[2]
}

// GrowUp returns the extent extended by n voxels upwards.
func (e Extent) GrowUp(n int) Extent {
	e.Max[1] += n
	return e
}
