package mesh

import "github.com/dm-vev/voxelworld/engine/world/chunk"

// Build produces the greedy mesh of the interior of c. For every face
// orientation, exposed faces of the same material that lie in the same plane
// are merged into maximal rectangles. A face is exposed if the voxel across
// it, which may be a padding voxel, is empty. Padding voxels never produce
// geometry themselves.
func Build(c *chunk.Chunk) *Buffers {
	b := newBuffers()
	var mask [chunk.Size * chunk.Size]chunk.Voxel
	for _, f := range Faces {
		d := f.Axis()
		u, v := (d+1)%3, (d+2)%3
		off := f.Offset()

		for s := 0; s < chunk.Size; s++ {
			// Fill the mask with the materials of all exposed faces in slice s.
			var exposed bool
			for j := 0; j < chunk.Size; j++ {
				for i := 0; i < chunk.Size; i++ {
					var p [3]int
					p[d], p[u], p[v] = s+chunk.Padding, i+chunk.Padding, j+chunk.Padding
					m := c.At(p[0], p[1], p[2])
					if !m.Empty() && c.At(p[0]+off[0], p[1]+off[1], p[2]+off[2]).Empty() {
						mask[i+j*chunk.Size] = m
						exposed = true
						continue
					}
					mask[i+j*chunk.Size] = chunk.Empty
				}
			}
			if !exposed {
				continue
			}
			plane := s
			if f.Positive() {
				plane++
			}
			mergeMask(&mask, func(m chunk.Voxel, i, j, w, h int) {
				var base [3]int
				base[d], base[u], base[v] = plane, i, j
				b.addQuad(m, f, base, w, h)
			})
		}
	}
	return b
}

// mergeMask greedily covers the non-empty cells of mask with rectangles of a
// single material and calls emit for each rectangle. The mask is cleared.
func mergeMask(mask *[chunk.Size * chunk.Size]chunk.Voxel, emit func(m chunk.Voxel, i, j, w, h int)) {
	const n = chunk.Size
	for j := 0; j < n; j++ {
		for i := 0; i < n; {
			m := mask[i+j*n]
			if m.Empty() {
				i++
				continue
			}
			w := 1
			for i+w < n && mask[i+w+j*n] == m {
				w++
			}
			h := 1
		grow:
			for j+h < n {
				for k := 0; k < w; k++ {
					if mask[i+k+(j+h)*n] != m {
						break grow
					}
				}
				h++
			}
			emit(m, i, j, w, h)
			for y := 0; y < h; y++ {
				for k := 0; k < w; k++ {
					mask[i+k+(j+y)*n] = chunk.Empty
				}
			}
			i += w
		}
	}
}
