package geometry

import "math"

// AddVec3 returns a + b.
func AddVec3(a, b Vec3) Vec3 {
	return Vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

// SubVec3 returns a - b.
func SubVec3(a, b Vec3) Vec3 {
	return Vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

// ScaleVec3 returns v scaled by c.
func ScaleVec3(v Vec3, c float64) Vec3 {
	return Vec3{v[0] * c, v[1] * c, v[2] * c}
}

// DotVec3 returns the dot product of a and b.
func DotVec3(a, b Vec3) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

// NormVec3 returns the Euclidean length of v.
func NormVec3(v Vec3) float64 {
	return math.Sqrt(DotVec3(v, v))
}

// MulRotation returns the matrix product a*b.
func MulRotation(a, b Rotation) Rotation {
	var out Rotation
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var acc float64
			for k := 0; k < 3; k++ {
				acc += a[i][k] * b[k][j]
			}
			out[i][j] = acc
		}
	}
	return out
}

// ApplyRotation returns r*v.
func ApplyRotation(r Rotation, v Vec3) Vec3 {
	return Vec3{
		r[0][0]*v[0] + r[0][1]*v[1] + r[0][2]*v[2],
		r[1][0]*v[0] + r[1][1]*v[1] + r[1][2]*v[2],
		r[2][0]*v[0] + r[2][1]*v[1] + r[2][2]*v[2],
	}
}

// Det3 returns the determinant of a 3x3 rotation (or general) matrix.
func Det3(r Rotation) float64 {
	return r[0][0]*(r[1][1]*r[2][2]-r[1][2]*r[2][1]) -
		r[0][1]*(r[1][0]*r[2][2]-r[1][2]*r[2][0]) +
		r[0][2]*(r[1][0]*r[2][1]-r[1][1]*r[2][0])
}
