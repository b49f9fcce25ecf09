// CholeskySolve solves the damped normal equations the Levenberg-Marquardt
// step in package bundle needs: (A + lambda*diag(A)) x = b, A symmetric
// positive (semi-)definite.
package linalg

import "math"

// CholeskySolve solves A*x = b for symmetric positive-definite A via
// Cholesky factorization A = L*L^T followed by forward/back substitution.
func CholeskySolve(a Matrix, b []float64) ([]float64, error) {
	n := a.Rows
	if a.Rows != a.Cols {
		return nil, ErrNotSquare
	}
	if len(b) != n {
		return nil, ErrDimensionMismatch
	}

	L := New(n, n)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := a.Get(i, j)
			for k := 0; k < j; k++ {
				sum -= L.Get(i, k) * L.Get(j, k)
			}
			if i == j {
				if sum <= 0 {
					return nil, ErrSingular
				}
				L.Set(i, i, math.Sqrt(sum))
			} else {
				L.Set(i, j, sum/L.Get(j, j))
			}
		}
	}

	y := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := b[i]
		for k := 0; k < i; k++ {
			sum -= L.Get(i, k) * y[k]
		}
		y[i] = sum / L.Get(i, i)
	}

	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := y[i]
		for k := i + 1; k < n; k++ {
			sum -= L.Get(k, i) * x[k]
		}
		x[i] = sum / L.Get(i, i)
	}

	return x, nil
}
