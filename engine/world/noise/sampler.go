package noise

// Sampler evaluates a Source on the integer voxel lattice. Coordinates are
// multiplied by Scale before they are passed to the source. With a Stride
// above 1, the source is only evaluated on points that are a multiple of the
// stride and values in between are interpolated linearly on every axis.
type Sampler struct {
	src    *Source
	scale  [3]float64
	stride int
}

// NewSampler returns a Sampler for the source passed. A stride of 0 or 1
// disables sub-sampling.
func NewSampler(src *Source, scale [3]float64, stride int) *Sampler {
	if stride < 1 {
		stride = 1
	}
	return &Sampler{src: src, scale: scale, stride: stride}
}

// Stride returns the sub-sampling stride of the sampler.
func (s *Sampler) Stride() int {
	return s.stride
}

// Base2 evaluates the source directly at (x, z), without sub-sampling.
func (s *Sampler) Base2(x, z int) float64 {
	return s.src.Eval2(float64(x)*s.scale[0], float64(z)*s.scale[2])
}

// Base3 evaluates the source directly at (x, y, z), without sub-sampling.
func (s *Sampler) Base3(x, y, z int) float64 {
	return s.src.Eval3(float64(x)*s.scale[0], float64(y)*s.scale[1], float64(z)*s.scale[2])
}

// At2 returns the sub-sampled value at (x, z).
func (s *Sampler) At2(x, z int) float64 {
	st := s.stride
	if st == 1 {
		return s.Base2(x, z)
	}
	mx, mz := Mod(x, st), Mod(z, st)
	x0, z0 := x-mx, z-mz
	tx, tz := float64(mx)/float64(st), float64(mz)/float64(st)
	return bilerp(
		s.Base2(x0, z0), s.Base2(x0+st, z0),
		s.Base2(x0, z0+st), s.Base2(x0+st, z0+st),
		tx, tz,
	)
}

// At3 returns the sub-sampled value at (x, y, z).
func (s *Sampler) At3(x, y, z int) float64 {
	st := s.stride
	if st == 1 {
		return s.Base3(x, y, z)
	}
	mx, my, mz := Mod(x, st), Mod(y, st), Mod(z, st)
	x0, y0, z0 := x-mx, y-my, z-mz
	tx, ty, tz := float64(mx)/float64(st), float64(my)/float64(st), float64(mz)/float64(st)
	var c [8]float64
	for i := range c {
		c[i] = s.Base3(x0+(i&1)*st, y0+(i>>2&1)*st, z0+(i>>1&1)*st)
	}
	return trilerp(c, tx, ty, tz)
}

// Fill2 fills dst with sub-sampled values of the area starting at (minX, minZ)
// that is sizeX by sizeZ voxels. dst is indexed x + z*sizeX and must hold at
// least sizeX*sizeZ values. Every lattice point is evaluated at most once.
func (s *Sampler) Fill2(dst []float64, minX, minZ, sizeX, sizeZ int) {
	st := s.stride
	if st == 1 {
		for z := 0; z < sizeZ; z++ {
			for x := 0; x < sizeX; x++ {
				dst[x+z*sizeX] = s.Base2(minX+x, minZ+z)
			}
		}
		return
	}
	lx, lz := minX-Mod(minX, st), minZ-Mod(minZ, st)
	nx, nz := latticeLen(minX, sizeX, lx, st), latticeLen(minZ, sizeZ, lz, st)
	lattice := make([]float64, nx*nz)
	for k := 0; k < nz; k++ {
		for i := 0; i < nx; i++ {
			lattice[i+k*nx] = s.Base2(lx+i*st, lz+k*st)
		}
	}
	for z := 0; z < sizeZ; z++ {
		wz := minZ + z - lz
		k, tz := wz/st, float64(wz%st)/float64(st)
		for x := 0; x < sizeX; x++ {
			wx := minX + x - lx
			i, tx := wx/st, float64(wx%st)/float64(st)
			dst[x+z*sizeX] = bilerp(
				lattice[i+k*nx], lattice[i+1+k*nx],
				lattice[i+(k+1)*nx], lattice[i+1+(k+1)*nx],
				tx, tz,
			)
		}
	}
}

// Fill3 fills dst with sub-sampled values of the volume starting at min that
// is size voxels large. dst is indexed x + z*size[0] + y*size[0]*size[2] and
// must hold at least size[0]*size[1]*size[2] values.
func (s *Sampler) Fill3(dst []float64, min, size [3]int) {
	st := s.stride
	sx, sy, sz := size[0], size[1], size[2]
	if st == 1 {
		for y := 0; y < sy; y++ {
			for z := 0; z < sz; z++ {
				for x := 0; x < sx; x++ {
					dst[x+z*sx+y*sx*sz] = s.Base3(min[0]+x, min[1]+y, min[2]+z)
				}
			}
		}
		return
	}
	var l, n [3]int
	for a := 0; a < 3; a++ {
		l[a] = min[a] - Mod(min[a], st)
		n[a] = latticeLen(min[a], size[a], l[a], st)
	}
	at := func(i, j, k int) int { return i + k*n[0] + j*n[0]*n[2] }
	lattice := make([]float64, n[0]*n[1]*n[2])
	for j := 0; j < n[1]; j++ {
		for k := 0; k < n[2]; k++ {
			for i := 0; i < n[0]; i++ {
				lattice[at(i, j, k)] = s.Base3(l[0]+i*st, l[1]+j*st, l[2]+k*st)
			}
		}
	}
	for y := 0; y < sy; y++ {
		wy := min[1] + y - l[1]
		j, ty := wy/st, float64(wy%st)/float64(st)
		for z := 0; z < sz; z++ {
			wz := min[2] + z - l[2]
			k, tz := wz/st, float64(wz%st)/float64(st)
			for x := 0; x < sx; x++ {
				wx := min[0] + x - l[0]
				i, tx := wx/st, float64(wx%st)/float64(st)
				var c [8]float64
				for b := range c {
					c[b] = lattice[at(i+(b&1), j+(b>>2&1), k+(b>>1&1))]
				}
				dst[x+z*sx+y*sx*sz] = trilerp(c, tx, ty, tz)
			}
		}
	}
}

// latticeLen returns the number of lattice points starting at l needed to
// interpolate every coordinate in [min, min+size).
func latticeLen(min, size, l, st int) int {
	return (min+size-1-l)/st + 2
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func bilerp(v00, v10, v01, v11, tx, tz float64) float64 {
	return lerp(lerp(v00, v10, tx), lerp(v01, v11, tx), tz)
}

// trilerp interpolates the corners of a cube. Corner b has an X offset of
// b&1, a Z offset of b>>1&1 and a Y offset of b>>2&1.
func trilerp(c [8]float64, tx, ty, tz float64) float64 {
	bottom := bilerp(c[0], c[1], c[2], c[3], tx, tz)
	top := bilerp(c[4], c[5], c[6], c[7], tx, tz)
	return lerp(bottom, top, ty)
}
