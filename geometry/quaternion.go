// Quaternion representation and Markley-style eigenvector averaging.
// Stored as a plain [w, x, y, z] value type with a fixed sign convention
// (w >= 0) so that averaging and distance comparisons never straddle the
// +/-q double cover.
package geometry

import (
	"math"

	"github.com/mprib/caliscope-core/internal/linalg"
)

// Quaternion is (w, x, y, z) with w the scalar part.
type Quaternion [4]float64

// FromRotation converts a rotation matrix to a unit quaternion, sign
// normalized so w >= 0.
func FromRotation(r Rotation) Quaternion {
	trace := r[0][0] + r[1][1] + r[2][2]
	var q Quaternion
	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1.0)
		q = Quaternion{0.25 / s, (r[2][1] - r[1][2]) * s, (r[0][2] - r[2][0]) * s, (r[1][0] - r[0][1]) * s}
	case r[0][0] > r[1][1] && r[0][0] > r[2][2]:
		s := 2.0 * math.Sqrt(1.0+r[0][0]-r[1][1]-r[2][2])
		q = Quaternion{(r[2][1] - r[1][2]) / s, 0.25 * s, (r[0][1] + r[1][0]) / s, (r[0][2] + r[2][0]) / s}
	case r[1][1] > r[2][2]:
		s := 2.0 * math.Sqrt(1.0+r[1][1]-r[0][0]-r[2][2])
		q = Quaternion{(r[0][2] - r[2][0]) / s, (r[0][1] + r[1][0]) / s, 0.25 * s, (r[1][2] + r[2][1]) / s}
	default:
		s := 2.0 * math.Sqrt(1.0+r[2][2]-r[0][0]-r[1][1])
		q = Quaternion{(r[1][0] - r[0][1]) / s, (r[0][2] + r[2][0]) / s, (r[1][2] + r[2][1]) / s, 0.25 * s}
	}
	return q.Normalized().signNormalized()
}

// ToRotation converts a unit quaternion to a rotation matrix.
func (q Quaternion) ToRotation() Rotation {
	w, x, y, z := q[0], q[1], q[2], q[3]
	return Rotation{
		{1 - 2*(y*y+z*z), 2 * (x*y - z*w), 2 * (x*z + y*w)},
		{2 * (x*y + z*w), 1 - 2*(x*x+z*z), 2 * (y*z - x*w)},
		{2 * (x*z - y*w), 2 * (y*z + x*w), 1 - 2*(x*x+y*y)},
	}
}

// Normalized returns q scaled to unit norm.
func (q Quaternion) Normalized() Quaternion {
	n := math.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
	if n == 0 {
		return Quaternion{1, 0, 0, 0}
	}
	return Quaternion{q[0] / n, q[1] / n, q[2] / n, q[3] / n}
}

// signNormalized flips the quaternion's sign so that w >= 0; q and -q
// represent the same rotation, and a consistent sign is required before
// component-wise averaging or median computation.
func (q Quaternion) signNormalized() Quaternion {
	if q[0] < 0 {
		return Quaternion{-q[0], -q[1], -q[2], -q[3]}
	}
	return q
}

// AngularDistance returns the angle in radians between two unit quaternions.
func (q Quaternion) AngularDistance(other Quaternion) float64 {
	dot := q[0]*other[0] + q[1]*other[1] + q[2]*other[2] + q[3]*other[3]
	if dot > 1 {
		dot = 1
	} else if dot < -1 {
		dot = -1
	}
	return 2 * math.Acos(math.Abs(dot))
}

// AverageQuaternions computes the leading eigenvector of sum(q_i * q_i^T),
// the Markley method for averaging rotations (never the arithmetic mean of
// components, which does not stay on the unit sphere and is not rotation
// invariant). Returns an error if qs is empty.
func AverageQuaternions(qs []Quaternion) (Quaternion, error) {
	if len(qs) == 0 {
		return Quaternion{}, ErrDegenerate
	}
	accum := linalg.New(4, 4)
	for _, q := range qs {
		qn := q.signNormalized()
		for i := 0; i < 4; i++ {
			for j := 0; j < 4; j++ {
				accum.Set(i, j, accum.Get(i, j)+qn[i]*qn[j])
			}
		}
	}
	values, vectors, err := linalg.SymmetricEigen(accum)
	if err != nil {
		return Quaternion{}, err
	}
	best := 0
	for i := 1; i < 4; i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	avg := Quaternion{vectors.Get(0, best), vectors.Get(1, best), vectors.Get(2, best), vectors.Get(3, best)}
	return avg.Normalized().signNormalized(), nil
}
