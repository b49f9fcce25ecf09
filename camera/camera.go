// Package camera holds the Camera and Array types: intrinsics, optional
// extrinsics, and the posed/unposed bookkeeping the rest of the core keys
// its parameter layout off of.
package camera

import (
	"errors"

	"github.com/mprib/caliscope-core/geometry"
)

// ErrMissingIntrinsics is returned when pose estimation is attempted on a
// camera whose intrinsic matrix has not been set.
var ErrMissingIntrinsics = errors.New("camera: missing intrinsics")

// Matrix3 is a row-major 3x3 intrinsic matrix.
type Matrix3 [3][3]float64

// Distortion holds the 5 Brown-Conrady coefficients (k1, k2, p1, p2, k3).
// A zero-valued Distortion with HasDistortion=false models an ideal,
// distortion-free camera.
type Distortion struct {
	K1, K2, P1, P2, K3 float64
}

// Size is an image resolution in pixels.
type Size struct {
	Width, Height int
}

// Camera is one rig member: fixed intrinsics, optional extrinsics.
type Camera struct {
	Port int
	Size Size

	Matrix         Matrix3
	Distortion     Distortion
	HasDistortion  bool
	RotationCount  int // display orientation in {-3..3}; does not affect stored observation coordinates

	Pose    geometry.Transform
	HasPose bool

	Ignore bool
}

// IsPosed reports whether the camera has extrinsics and is not ignored.
func (c Camera) IsPosed() bool {
	return c.HasPose && !c.Ignore
}

// Transformation returns the camera's 4x4-equivalent rigid pose. Callers
// must check HasPose first; calling this on an unposed camera returns the
// zero-valued Transform (zero rotation matrix), which is never a
// meaningful pose.
func (c Camera) Transformation() geometry.Transform {
	return c.Pose
}

// WithPose returns a copy of c with the given pose set.
func (c Camera) WithPose(pose geometry.Transform) Camera {
	c.Pose = pose
	c.HasPose = true
	return c
}

// WithoutPose returns a copy of c with extrinsics cleared.
func (c Camera) WithoutPose() Camera {
	c.Pose = geometry.Transform{}
	c.HasPose = false
	return c
}

// RotateCW advances the display-orientation counter clockwise by one
// 90-degree step, wrapping past 3 back to a negative count. This only
// affects how a downstream viewer displays frames and never touches stored
// observation coordinates, which are always already unrotated.
func (c Camera) RotateCW() Camera {
	c.RotationCount++
	if c.RotationCount > 3 {
		c.RotationCount = -3
	}
	return c
}

// RotateCCW is the counter-clockwise complement of RotateCW.
func (c Camera) RotateCCW() Camera {
	c.RotationCount--
	if c.RotationCount < -3 {
		c.RotationCount = 3
	}
	return c
}
