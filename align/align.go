// Package align estimates and applies rigid + uniform-scale similarity
// transforms (Umeyama's method) used to bring a reconstruction into a
// known object coordinate frame. EstimateSimilarityTransform's contract is
// rotation/translation/scale with reflections rejected; the decomposition
// underneath is internal/linalg's SVD.
package align

import (
	"errors"

	"github.com/mprib/caliscope-core/geometry"
	"github.com/mprib/caliscope-core/internal/linalg"
)

// ErrInsufficientCorrespondences is returned when fewer than 3 matched
// point pairs are given to EstimateSimilarityTransform.
var ErrInsufficientCorrespondences = errors.New("align: fewer than 3 point correspondences")

// Transform is a rigid rotation + translation + uniform scale:
// target ~= Scale*R*source + T.
type Transform struct {
	R     geometry.Rotation
	T     geometry.Vec3
	Scale float64
}

// Apply maps a single point through the transform.
func (tf Transform) Apply(p geometry.Vec3) geometry.Vec3 {
	return geometry.AddVec3(geometry.ScaleVec3(geometry.ApplyRotation(tf.R, p), tf.Scale), tf.T)
}

// Inverse returns the transform that undoes tf: if target = tf.Apply(source)
// then source = tf.Inverse().Apply(target).
func (tf Transform) Inverse() Transform {
	rt := tf.R.Transpose()
	invScale := 1.0 / tf.Scale
	// source = (1/scale) * R^T * (target - T)
	negRtT := geometry.ScaleVec3(geometry.ApplyRotation(rt, tf.T), -invScale)
	return Transform{R: rt, T: negRtT, Scale: invScale}
}

// EstimateSimilarityTransform computes the least-squares similarity
// transform mapping source onto target via Umeyama's closed-form method:
// mean-center both point sets, take the SVD of the cross-covariance
// matrix, and correct for reflections so det(R) = +1. Requires at least 3
// matched correspondences (fewer cannot constrain a 3D rotation).
func EstimateSimilarityTransform(source, target []geometry.Vec3) (Transform, error) {
	n := len(source)
	if n != len(target) {
		return Transform{}, errors.New("align: source and target must have equal length")
	}
	if n < 3 {
		return Transform{}, ErrInsufficientCorrespondences
	}

	var meanSrc, meanTgt geometry.Vec3
	for i := 0; i < n; i++ {
		meanSrc = geometry.AddVec3(meanSrc, source[i])
		meanTgt = geometry.AddVec3(meanTgt, target[i])
	}
	meanSrc = geometry.ScaleVec3(meanSrc, 1/float64(n))
	meanTgt = geometry.ScaleVec3(meanTgt, 1/float64(n))

	srcC := make([]geometry.Vec3, n)
	tgtC := make([]geometry.Vec3, n)
	var srcVar float64
	for i := 0; i < n; i++ {
		srcC[i] = geometry.SubVec3(source[i], meanSrc)
		tgtC[i] = geometry.SubVec3(target[i], meanTgt)
		srcVar += geometry.DotVec3(srcC[i], srcC[i])
	}
	srcVar /= float64(n)

	// Cross-covariance: cov = (1/n) * sum(tgtC_i * srcC_i^T), a 3x3 matrix.
	cov := linalg.New(3, 3)
	for i := 0; i < n; i++ {
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				cov.Set(r, c, cov.Get(r, c)+tgtC[i][r]*srcC[i][c])
			}
		}
	}
	cov = cov.Scale(1 / float64(n))

	svd, err := linalg.SVD(cov)
	if err != nil {
		return Transform{}, err
	}

	u := matrixToRotation(svd.U)
	// The package's SVD stores right singular vectors as columns of Vt
	// (see internal/linalg.SVD's doc comment and triangulate.go's usage),
	// so V itself -- not its transpose -- is matrixToRotation(svd.Vt).
	v := matrixToRotation(svd.Vt)

	d := [3]float64{1, 1, 1}
	if geometry.Det3(u)*geometry.Det3(v) < 0 {
		d[2] = -1
	}

	// R = U * diag(d) * V^T
	dV := v.Transpose()
	for c := 0; c < 3; c++ {
		dV[2][c] *= d[2]
	}
	r := geometry.MulRotation(u, dV)

	// scale = trace(diag(S) * diag(d)) / srcVar
	var weightedTrace float64
	for i := 0; i < 3; i++ {
		weightedTrace += svd.S[i] * d[i]
	}
	scale := 1.0
	if srcVar > 0 {
		scale = weightedTrace / srcVar
	}

	t := geometry.SubVec3(meanTgt, geometry.ScaleVec3(geometry.ApplyRotation(r, meanSrc), scale))

	return Transform{R: r, T: t, Scale: scale}, nil
}

func matrixToRotation(m linalg.Matrix) geometry.Rotation {
	var r geometry.Rotation
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m.Get(i, j)
		}
	}
	return r
}
