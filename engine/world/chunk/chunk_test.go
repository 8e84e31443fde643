package chunk

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestPosFromWorldTruncates(t *testing.T) {
	cases := []struct {
		in   mgl64.Vec3
		want Pos
	}{
		{mgl64.Vec3{0, 0, 0}, Pos{0, 0, 0}},
		{mgl64.Vec3{31.9, 32, 64.5}, Pos{0, 1, 2}},
		{mgl64.Vec3{-31.9, -32, -65}, Pos{0, -1, -2}},
	}
	for _, c := range cases {
		if got := PosFromWorld(c.in); got != c.want {
			t.Fatalf("PosFromWorld(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestExtentCoversPaddedGrid(t *testing.T) {
	e := Pos{1, -1, 0}.Extent()
	if e.Min != [3]int{31, -33, -1} || e.Max != [3]int{64, 0, 32} {
		t.Fatalf("unexpected extent %+v", e)
	}
	if s := e.Size(); s != [3]int{PaddedSize, PaddedSize, PaddedSize} {
		t.Fatalf("extent size %v, want %v", s, PaddedSize)
	}
}

func TestChunkAccessors(t *testing.T) {
	c := New(Pos{})
	if !c.Empty() {
		t.Fatalf("new chunk must be empty")
	}
	c.SetInterior(0, 0, 0, 3)
	if got := c.At(1, 1, 1); got != 3 {
		t.Fatalf("interior voxel not visible in padded coordinates: got %v", got)
	}
	if c.At(-1, 0, 0) != Empty || c.At(PaddedSize, 0, 0) != Empty {
		t.Fatalf("out of range voxels must read as empty")
	}
	// A padding voxel does not make a chunk non-empty.
	c.SetInterior(0, 0, 0, Empty)
	c.Set(0, 5, 5, 2)
	if !c.Empty() {
		t.Fatalf("padding voxels must not count towards chunk content")
	}
}

func TestDigestAndClone(t *testing.T) {
	a := New(Pos{})
	a.Fill(2)
	b := a.Clone()
	if a.Digest() != b.Digest() {
		t.Fatalf("clone digest differs")
	}
	b.SetInterior(4, 4, 4, 1)
	if a.Digest() == b.Digest() {
		t.Fatalf("digest did not change after modifying clone")
	}
	if a.Interior(4, 4, 4) != 2 {
		t.Fatalf("modifying clone changed original")
	}
	if h := a.Histogram(); h[2] != Size*Size*Size {
		t.Fatalf("histogram %v", h)
	}
}
