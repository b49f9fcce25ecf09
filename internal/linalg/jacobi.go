// Cyclic Jacobi eigenvalue algorithm for small symmetric matrices. Used by
// package geometry to find the leading eigenvector of the 4x4 quaternion
// outer-product accumulator (Markley's method for averaging rotations),
// where a full SVD would be overkill for a matrix this size.
package linalg

import "math"

// SymmetricEigen returns the eigenvalues and eigenvectors (as columns of V)
// of the symmetric matrix a, via cyclic Jacobi rotations.
func SymmetricEigen(a Matrix) (values []float64, vectors Matrix, err error) {
	if a.Rows != a.Cols {
		return nil, Matrix{}, ErrNotSquare
	}
	n := a.Rows
	A := a.Clone()
	V := Identity(n)

	const maxSweeps = 100
	for sweep := 0; sweep < maxSweeps; sweep++ {
		off := 0.0
		for p := 0; p < n; p++ {
			for q := p + 1; q < n; q++ {
				off += A.Get(p, q) * A.Get(p, q)
			}
		}
		if off < 1e-20 {
			break
		}
		for p := 0; p < n; p++ {
			for q := p + 1; q < n; q++ {
				apq := A.Get(p, q)
				if math.Abs(apq) < 1e-300 {
					continue
				}
				app, aqq := A.Get(p, p), A.Get(q, q)
				theta := (aqq - app) / (2 * apq)
				t := math.Copysign(1, theta) / (math.Abs(theta) + math.Sqrt(theta*theta+1))
				c := 1 / math.Sqrt(t*t+1)
				s := t * c

				for i := 0; i < n; i++ {
					aip, aiq := A.Get(i, p), A.Get(i, q)
					A.Set(i, p, c*aip-s*aiq)
					A.Set(i, q, s*aip+c*aiq)
				}
				for i := 0; i < n; i++ {
					api, aqi := A.Get(p, i), A.Get(q, i)
					A.Set(p, i, c*api-s*aqi)
					A.Set(q, i, s*api+c*aqi)
				}
				for i := 0; i < n; i++ {
					vip, viq := V.Get(i, p), V.Get(i, q)
					V.Set(i, p, c*vip-s*viq)
					V.Set(i, q, s*vip+c*viq)
				}
			}
		}
	}

	values = make([]float64, n)
	for i := 0; i < n; i++ {
		values[i] = A.Get(i, i)
	}
	return values, V, nil
}
