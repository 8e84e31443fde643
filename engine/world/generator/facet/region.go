package facet

import (
	"fmt"

	"github.com/dm-vev/voxelworld/engine/world/chunk"
)

// Kind identifies a facet that a stage produces or consumes.
type Kind uint8

const (
	KindSeaLevel Kind = iota
	KindElevation
	KindRoughness
	KindSurface
	KindDensity
	KindRefined
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindSeaLevel:
		return "sea_level"
	case KindElevation:
		return "elevation"
	case KindRoughness:
		return "roughness"
	case KindSurface:
		return "surface"
	case KindDensity:
		return "density"
	case KindRefined:
		return "refined"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Refined holds the density and surface fields after the density noise has
// been applied.
type Refined struct {
	Density *Grid3[float64]
	Surface *Grid3[bool]
}

// Region is the working set of a single generation request. It covers the
// padded extent of one chunk. Every facet is a separate field that is nil
// until the stage producing it has run. Once set, a facet is never modified.
type Region struct {
	Pos    chunk.Pos
	Extent chunk.Extent

	SeaLevel  *float64
	Elevation *Grid2[int32]
	Roughness *Grid2[float64]
	Surface   *Grid3[bool]
	Density   *Grid3[float64]
	Refined   *Refined
}

// NewRegion returns a region without any facets for the chunk at pos.
func NewRegion(pos chunk.Pos) *Region {
	return &Region{Pos: pos, Extent: pos.Extent()}
}

// Volume returns the extent covered by the volume facets of the region. It
// is one voxel taller than the region so that the surface of the topmost
// layer can be decided.
func (r *Region) Volume() chunk.Extent {
	return r.Extent.GrowUp(1)
}

// Has checks if the facet of the kind passed is present in the region.
func (r *Region) Has(k Kind) bool {
	switch k {
	case KindSeaLevel:
		return r.SeaLevel != nil
	case KindElevation:
		return r.Elevation != nil
	case KindRoughness:
		return r.Roughness != nil
	case KindSurface:
		return r.Surface != nil
	case KindDensity:
		return r.Density != nil
	case KindRefined:
		return r.Refined != nil
	}
	return false
}
