// Package geometry provides rigid-transform and rotation-representation
// primitives: Rodrigues vectors, rotation matrices, quaternions, and 4x4
// homogeneous transforms represented as a 3x3 rotation plus a 3-vector
// translation. Rodrigues conversion goes through gocv.Rodrigues, the same
// calib3d primitive the rest of the module uses for every OpenCV-backed
// computation.
package geometry

import (
	"errors"

	"gocv.io/x/gocv"
)

// ErrDegenerate is returned when a rotation/pose computation collapses
// (e.g. a zero-norm axis-angle vector fed to a routine that needs a
// direction).
var ErrDegenerate = errors.New("geometry: degenerate input")

// Rotation is a row-major 3x3 rotation matrix.
type Rotation [3][3]float64

// Identity3 returns the 3x3 identity rotation.
func Identity3() Rotation {
	return Rotation{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// Vec3 is a 3-component vector (translation, Rodrigues axis-angle, point).
type Vec3 [3]float64

// Transform is a rigid rotation + translation, i.e. the top 3x4 block of a
// 4x4 homogeneous matrix; the bottom row [0 0 0 1] is implicit.
type Transform struct {
	R Rotation
	T Vec3
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{R: Identity3()}
}

// Apply maps a point through the transform: R*p + t.
func (tf Transform) Apply(p Vec3) Vec3 {
	return Vec3{
		tf.R[0][0]*p[0] + tf.R[0][1]*p[1] + tf.R[0][2]*p[2] + tf.T[0],
		tf.R[1][0]*p[0] + tf.R[1][1]*p[1] + tf.R[1][2]*p[2] + tf.T[1],
		tf.R[2][0]*p[0] + tf.R[2][1]*p[1] + tf.R[2][2]*p[2] + tf.T[2],
	}
}

// Compose returns the transform equivalent to applying tf first, then other:
// composed(p) = other.Apply(tf.Apply(p)), i.e. composed = other * tf in
// homogeneous matrix terms. This matches PairedPoseNetwork's bridging rule
// compose(T_AB, T_BC) = T_AC = T_BC . T_AB.
func Compose(tf, other Transform) Transform {
	var r Rotation
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var acc float64
			for k := 0; k < 3; k++ {
				acc += other.R[i][k] * tf.R[k][j]
			}
			r[i][j] = acc
		}
	}
	t := other.Apply(tf.T)
	// other.Apply adds other.T again relative to origin; what we want is
	// R_other*t_tf + t_other, which is exactly other.Apply(tf.T) evaluated
	// with the rotation-only product already baked into t via Apply.
	return Transform{R: r, T: t}
}

// Inverse returns the inverse rigid transform, using the efficient
// [R^T, -R^T*t] formula rather than a general 4x4 matrix inverse.
func (tf Transform) Inverse() Transform {
	rt := tf.R.Transpose()
	t := Vec3{
		-(rt[0][0]*tf.T[0] + rt[0][1]*tf.T[1] + rt[0][2]*tf.T[2]),
		-(rt[1][0]*tf.T[0] + rt[1][1]*tf.T[1] + rt[1][2]*tf.T[2]),
		-(rt[2][0]*tf.T[0] + rt[2][1]*tf.T[1] + rt[2][2]*tf.T[2]),
	}
	return Transform{R: rt, T: t}
}

// Transpose returns the transpose of r (for a rotation matrix, its inverse).
func (r Rotation) Transpose() Rotation {
	var out Rotation
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = r[j][i]
		}
	}
	return out
}

// RodriguesToMatrix converts a 3-vector axis-angle rotation to a rotation
// matrix via gocv's OpenCV binding.
func RodriguesToMatrix(rvec Vec3) (Rotation, error) {
	src := gocv.NewMatWithSize(3, 1, gocv.MatTypeCV64F)
	defer src.Close()
	src.SetDoubleAt(0, 0, rvec[0])
	src.SetDoubleAt(1, 0, rvec[1])
	src.SetDoubleAt(2, 0, rvec[2])

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Rodrigues(src, &dst)

	if dst.Rows() != 3 || dst.Cols() != 3 {
		return Rotation{}, ErrDegenerate
	}
	var r Rotation
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = dst.GetDoubleAt(i, j)
		}
	}
	return r, nil
}

// MatrixToRodrigues converts a rotation matrix to a 3-vector axis-angle
// rotation via gocv.Rodrigues.
func MatrixToRodrigues(r Rotation) (Vec3, error) {
	src := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	defer src.Close()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			src.SetDoubleAt(i, j, r[i][j])
		}
	}
	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Rodrigues(src, &dst)

	if dst.Rows() != 3 {
		return Vec3{}, ErrDegenerate
	}
	return Vec3{dst.GetDoubleAt(0, 0), dst.GetDoubleAt(1, 0), dst.GetDoubleAt(2, 0)}, nil
}
