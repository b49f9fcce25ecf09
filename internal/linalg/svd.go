// Singular value decomposition by Householder bidiagonalization followed by
// implicit-shift QR iteration (Golub-Reinsch), the classic formulation from
// Numerical Recipes in C, at float64 precision throughout.
package linalg

import (
	"errors"
	"math"
)

// SVDResult holds M = U * diag(S) * Vt^T: despite its name, Vt stores V
// itself, with the right singular vectors as its columns.
type SVDResult struct {
	U  Matrix
	S  []float64
	Vt Matrix
}

func sign(a, b float64) float64 {
	if b >= 0 {
		return math.Abs(a)
	}
	return -math.Abs(a)
}

func pythag(a, b float64) float64 {
	absA, absB := math.Abs(a), math.Abs(b)
	if absA > absB {
		return absA * math.Sqrt(1.0+(absB/absA)*(absB/absA))
	}
	if absB == 0 {
		return 0
	}
	return absB * math.Sqrt(1.0+(absA/absB)*(absA/absB))
}

// SVD computes the decomposition of m (rows >= cols). The input is not
// modified; a working copy becomes U.
func SVD(m Matrix) (SVDResult, error) {
	rows, cols := m.Rows, m.Cols
	if rows == 0 || cols == 0 {
		return SVDResult{}, errors.New("svd: empty matrix")
	}
	if rows < cols {
		return SVDResult{}, errors.New("svd: rows must be >= cols")
	}

	U := m.Clone()
	S := make([]float64, cols)
	Vt := New(cols, cols)
	rv1 := make([]float64, cols)

	var g, scale, anorm float64
	var l int

	for i := 0; i < cols; i++ {
		l = i + 1
		rv1[i] = scale * g
		g, scale = 0, 0
		var s float64
		if i < rows {
			for k := i; k < rows; k++ {
				scale += math.Abs(U.Get(k, i))
			}
			if scale != 0 {
				for k := i; k < rows; k++ {
					U.Set(k, i, U.Get(k, i)/scale)
					s += U.Get(k, i) * U.Get(k, i)
				}
				f := U.Get(i, i)
				g = -sign(math.Sqrt(s), f)
				h := f*g - s
				U.Set(i, i, f-g)
				for j := l; j < cols; j++ {
					var sum float64
					for k := i; k < rows; k++ {
						sum += U.Get(k, i) * U.Get(k, j)
					}
					fac := sum / h
					for k := i; k < rows; k++ {
						U.Set(k, j, U.Get(k, j)+fac*U.Get(k, i))
					}
				}
				for k := i; k < rows; k++ {
					U.Set(k, i, U.Get(k, i)*scale)
				}
			}
		}
		S[i] = scale * g

		g, scale = 0, 0
		s = 0
		if i < rows && i != cols-1 {
			for k := l; k < cols; k++ {
				scale += math.Abs(U.Get(i, k))
			}
			if scale != 0 {
				for k := l; k < cols; k++ {
					U.Set(i, k, U.Get(i, k)/scale)
					s += U.Get(i, k) * U.Get(i, k)
				}
				f := U.Get(i, l)
				g = -sign(math.Sqrt(s), f)
				h := f*g - s
				U.Set(i, l, f-g)
				for k := l; k < cols; k++ {
					rv1[k] = U.Get(i, k) / h
				}
				for j := l; j < rows; j++ {
					var sum float64
					for k := l; k < cols; k++ {
						sum += U.Get(j, k) * U.Get(i, k)
					}
					for k := l; k < cols; k++ {
						U.Set(j, k, U.Get(j, k)+sum*rv1[k])
					}
				}
				for k := l; k < cols; k++ {
					U.Set(i, k, U.Get(i, k)*scale)
				}
			}
		}
		anorm = math.Max(anorm, math.Abs(S[i])+math.Abs(rv1[i]))
	}

	for i := cols - 1; i >= 0; i-- {
		if i < cols-1 {
			if g != 0 {
				for j := l; j < cols; j++ {
					Vt.Set(j, i, (U.Get(i, j)/U.Get(i, l))/g)
				}
				for j := l; j < cols; j++ {
					var sum float64
					for k := l; k < cols; k++ {
						sum += U.Get(i, k) * Vt.Get(k, j)
					}
					for k := l; k < cols; k++ {
						Vt.Set(k, j, Vt.Get(k, j)+sum*Vt.Get(k, i))
					}
				}
			}
			for j := l; j < cols; j++ {
				Vt.Set(i, j, 0)
				Vt.Set(j, i, 0)
			}
		}
		Vt.Set(i, i, 1)
		g = rv1[i]
		l = i
	}

	minDim := cols
	if rows < minDim {
		minDim = rows
	}
	for i := minDim - 1; i >= 0; i-- {
		l = i + 1
		g = S[i]
		for j := l; j < cols; j++ {
			U.Set(i, j, 0)
		}
		if g != 0 {
			g = 1.0 / g
			for j := l; j < cols; j++ {
				var sum float64
				for k := l; k < rows; k++ {
					sum += U.Get(k, i) * U.Get(k, j)
				}
				fac := (sum / U.Get(i, i)) * g
				for k := i; k < rows; k++ {
					U.Set(k, j, U.Get(k, j)+fac*U.Get(k, i))
				}
			}
			for j := i; j < rows; j++ {
				U.Set(j, i, U.Get(j, i)*g)
			}
		} else {
			for j := i; j < rows; j++ {
				U.Set(j, i, 0)
			}
		}
		U.Set(i, i, U.Get(i, i)+1)
	}

	const maxIterations = 50
	for k := cols - 1; k >= 0; k-- {
		for its := 1; its <= maxIterations; its++ {
			flag := true
			var nm int
			for l = k; l >= 0; l-- {
				nm = l - 1
				if math.Abs(rv1[l])+anorm == anorm {
					flag = false
					break
				}
				if nm >= 0 && math.Abs(S[nm])+anorm == anorm {
					break
				}
			}
			var c, s float64
			if flag {
				c, s = 0, 1
				for i := l; i <= k; i++ {
					f := s * rv1[i]
					rv1[i] = c * rv1[i]
					if math.Abs(f)+anorm == anorm {
						break
					}
					g = S[i]
					h := pythag(f, g)
					S[i] = h
					h = 1.0 / h
					c = g * h
					s = -f * h
					for j := 0; j < rows; j++ {
						y := U.Get(j, nm)
						z := U.Get(j, i)
						U.Set(j, nm, y*c+z*s)
						U.Set(j, i, z*c-y*s)
					}
				}
			}
			z := S[k]
			if l == k {
				if z < 0 {
					S[k] = -z
					for j := 0; j < cols; j++ {
						Vt.Set(j, k, -Vt.Get(j, k))
					}
				}
				break
			}
			if its == maxIterations {
				return SVDResult{}, errors.New("svd: no convergence")
			}
			x := S[l]
			nm = k - 1
			y := S[nm]
			g = rv1[nm]
			h := rv1[k]
			f := ((y-z)*(y+z) + (g-h)*(g+h)) / (2.0 * h * y)
			g = pythag(f, 1.0)
			f = ((x-z)*(x+z) + h*((y/(f+sign(g, f)))-h)) / x
			c, s = 1, 1
			for j := l; j <= nm; j++ {
				i := j + 1
				g = rv1[i]
				y = S[i]
				h = s * g
				g = c * g
				z = pythag(f, h)
				rv1[j] = z
				c = f / z
				s = h / z
				f = x*c + g*s
				g = g*c - x*s
				h = y * s
				y *= c
				for jj := 0; jj < cols; jj++ {
					x2 := Vt.Get(jj, j)
					z2 := Vt.Get(jj, i)
					Vt.Set(jj, j, x2*c+z2*s)
					Vt.Set(jj, i, z2*c-x2*s)
				}
				z = pythag(f, h)
				S[j] = z
				if z != 0 {
					z = 1.0 / z
					c = f * z
					s = h * z
				}
				f = c*g + s*y
				x = c*y - s*g
				for jj := 0; jj < rows; jj++ {
					y2 := U.Get(jj, j)
					z2 := U.Get(jj, i)
					U.Set(jj, j, y2*c+z2*s)
					U.Set(jj, i, z2*c-y2*s)
				}
			}
			rv1[l] = 0
			rv1[k] = f
			S[k] = x
		}
	}

	return SVDResult{U: U, S: S, Vt: Vt}, nil
}
