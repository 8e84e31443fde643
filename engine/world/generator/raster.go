package generator

import (
	"github.com/dm-vev/voxelworld/engine/world/chunk"
	"github.com/dm-vev/voxelworld/engine/world/generator/facet"
)

// Palette holds the material ids the rasterizer places.
type Palette struct {
	Dirt, Stone, Water chunk.Voxel
}

// DefaultPalette returns the ids of dirt, stone and water when registered in
// that order.
func DefaultPalette() Palette {
	return Palette{Dirt: 1, Stone: 2, Water: 3}
}

// Rasterize classifies every voxel of the padded extent of the region and
// writes the result to c. The region must carry the refined facet. Rasterize
// only reads the region, so the same region always produces the same voxels.
//
// Voxels are classified in this order:
//   - water below sea level where the density noise opened up terrain whose
//     displaced surface rises above sea level,
//   - dirt on the refined surface,
//   - stone deeper than hardness below the surface, dirt above that,
//   - water at or below sea level,
//   - empty.
func Rasterize(r *facet.Region, p Palette, hardness float64, c *chunk.Chunk) {
	var (
		ext     = r.Extent
		sea     = *r.SeaLevel
		density = r.Refined.Density
		surface = r.Refined.Surface
		raised  = raisedColumns(r, sea)
	)
	for y := ext.Min[1]; y <= ext.Max[1]; y++ {
		fy := float64(y)
		for z := ext.Min[2]; z <= ext.Max[2]; z++ {
			for x := ext.Min[0]; x <= ext.Max[0]; x++ {
				d := density.At(x, y, z)
				solid := facet.Solid(d)

				v := chunk.Empty
				switch {
				case fy < sea && !solid && raised.At(x, z):
					v = p.Water
				case solid && surface.At(x, y, z):
					v = p.Dirt
				case solid && d > hardness:
					v = p.Stone
				case solid:
					v = p.Dirt
				case fy <= sea:
					v = p.Water
				}
				c.Set(x-ext.Min[0], y-ext.Min[1], z-ext.Min[2], v)
			}
		}
	}
}

// SurfaceHeight returns the height of the topmost refined surface voxel of the
// column (x, z) within the volume of the region. If the top of the volume is
// solid, the surface lies at or above it and the top of the volume is
// returned with ok set to false. If the column holds no solid voxel at all,
// the bottom of the volume minus one is returned, also with ok set to false.
func SurfaceHeight(r *facet.Region, x, z int) (y int, ok bool) {
	vol := r.Volume()
	if facet.Solid(r.Refined.Density.At(x, vol.Max[1], z)) {
		return vol.Max[1], false
	}
	for y := vol.Max[1] - 1; y >= vol.Min[1]; y-- {
		if r.Refined.Surface.At(x, y, z) {
			return y, true
		}
	}
	return vol.Min[1] - 1, false
}

// raisedColumns marks the columns of the region whose displaced surface lies
// above sea level.
func raisedColumns(r *facet.Region, sea float64) *facet.Grid2[bool] {
	g := facet.NewGrid2[bool](r.Extent)
	for z := r.Extent.Min[2]; z <= r.Extent.Max[2]; z++ {
		for x := r.Extent.Min[0]; x <= r.Extent.Max[0]; x++ {
			y, _ := SurfaceHeight(r, x, z)
			g.Set(x, z, float64(y) > sea)
		}
	}
	return g
}
