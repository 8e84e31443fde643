package mesh

import (
	"maps"
	"slices"

	"github.com/dm-vev/voxelworld/engine/world/chunk"
	"github.com/go-gl/mathgl/mgl32"
)

// UVScale is the factor texture coordinates are multiplied with. A quad of
// ten voxels wide spans one texture width.
const UVScale = 0.1

// Group holds the geometry of one material in a chunk. Each quad adds four
// vertices and six indices.
type Group struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2
	Indices   []uint32
}

// Quads returns the number of quads in the group.
func (g *Group) Quads() int {
	return len(g.Indices) / 6
}

// Buffers holds the mesh of a chunk, one Group per material id. Positions are
// relative to the first interior voxel of the chunk.
type Buffers struct {
	Groups map[chunk.Voxel]*Group
	faces  [6]int
}

func newBuffers() *Buffers {
	return &Buffers{Groups: make(map[chunk.Voxel]*Group)}
}

// Quads returns the total number of quads over all materials.
func (b *Buffers) Quads() int {
	var n int
	for _, q := range b.faces {
		n += q
	}
	return n
}

// FaceQuads returns the number of quads facing f.
func (b *Buffers) FaceQuads(f Face) int {
	return b.faces[f]
}

// Empty checks if the mesh has no geometry.
func (b *Buffers) Empty() bool {
	return len(b.Groups) == 0
}

// Materials returns the material ids present in the mesh in ascending order.
func (b *Buffers) Materials() []chunk.Voxel {
	return slices.Sorted(maps.Keys(b.Groups))
}

// addQuad appends a quad on face f. base is the corner with the lowest
// coordinates in the plane of the face, w and h the size of the quad along
// the first and second axis of the plane.
func (b *Buffers) addQuad(v chunk.Voxel, f Face, base [3]int, w, h int) {
	g, ok := b.Groups[v]
	if !ok {
		g = &Group{}
		b.Groups[v] = g
	}
	d := f.Axis()
	u, vv := (d+1)%3, (d+2)%3

	start := uint32(len(g.Positions))
	corners := [4][2]int{{0, 0}, {w, 0}, {w, h}, {0, h}}
	n := f.Normal()
	for _, c := range corners {
		p := base
		p[u] += c[0]
		p[vv] += c[1]
		g.Positions = append(g.Positions, mgl32.Vec3{float32(p[0]), float32(p[1]), float32(p[2])})
		g.Normals = append(g.Normals, n)
		g.UVs = append(g.UVs, mgl32.Vec2{float32(c[0]) * UVScale, float32(c[1]) * UVScale})
	}
	if f.Positive() {
		g.Indices = append(g.Indices, start, start+1, start+2, start, start+2, start+3)
	} else {
		g.Indices = append(g.Indices, start, start+2, start+1, start, start+3, start+2)
	}
	b.faces[f]++
}
