package mesh

import "github.com/go-gl/mathgl/mgl32"

// Face is one of the six orientations of a voxel face.
type Face uint8

const (
	FaceNegX Face = iota
	FacePosX
	FaceNegY
	FacePosY
	FaceNegZ
	FacePosZ
)

// Faces holds all six faces in meshing order.
var Faces = [...]Face{FaceNegX, FacePosX, FaceNegY, FacePosY, FaceNegZ, FacePosZ}

// Axis returns the axis the face is perpendicular to: 0 for X, 1 for Y and
// 2 for Z.
func (f Face) Axis() int {
	return int(f) / 2
}

// Positive checks if the face points towards the positive end of its axis.
func (f Face) Positive() bool {
	return f%2 == 1
}

// Normal returns the unit normal of the face.
func (f Face) Normal() mgl32.Vec3 {
	var n mgl32.Vec3
	n[f.Axis()] = -1
	if f.Positive() {
		n[f.Axis()] = 1
	}
	return n
}

// Offset returns the offset to the voxel across the face.
func (f Face) Offset() [3]int {
	var o [3]int
	o[f.Axis()] = -1
	if f.Positive() {
		o[f.Axis()] = 1
	}
	return o
}

// String implements fmt.Stringer.
func (f Face) String() string {
	return [...]string{"-x", "+x", "-y", "+y", "-z", "+z"}[f]
}
