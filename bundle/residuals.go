package bundle

import (
	"math"

	"github.com/mprib/caliscope-core/camera"
	"github.com/mprib/caliscope-core/geometry"
	"github.com/mprib/caliscope-core/internal/linalg"
	"github.com/mprib/caliscope-core/points"
)

// observation is one 2D reprojection constraint: the observing camera's
// parameter offset, the observed point's parameter offset, and the
// undistorted-normalized target location it must reproject to.
type observation struct {
	camOffset, pointOffset int
	target                 geometry.Point2
}

func buildObservations(ip points.ImagePoints, array camera.Array, pi paramIndex) []observation {
	byPort := make(map[int][]points.ImageRow)
	for _, r := range ip.Rows {
		if _, ok := pi.pointIdx[pointKey{r.SyncIndex, r.PointID}]; !ok {
			continue
		}
		byPort[r.Port] = append(byPort[r.Port], r)
	}

	base := 6 * pi.nCams()
	var obs []observation
	for port, camIdx := range pi.camIdx {
		rows := byPort[port]
		if len(rows) == 0 {
			continue
		}
		c, ok := array.Get(port)
		if !ok {
			continue
		}
		pix := make([]geometry.Point2, len(rows))
		for i, r := range rows {
			pix[i] = geometry.Point2{X: r.ImgX, Y: r.ImgY}
		}
		norm := c.UndistortNormalize(pix)
		for i, r := range rows {
			pointIdx := pi.pointIdx[pointKey{r.SyncIndex, r.PointID}]
			obs = append(obs, observation{
				camOffset:   6 * camIdx,
				pointOffset: base + 3*pointIdx,
				target:      norm[i],
			})
		}
	}
	return obs
}

// reproject projects the point at x[pointOffset:pointOffset+3] through the
// camera pose at x[camOffset:camOffset+6] onto the unit-focal normalized
// image plane. A degenerate rotation falls back to identity rather than
// erroring mid-optimization; the residual it produces will simply be
// large, which Levenberg-Marquardt's damping handles like any other
// locally bad step.
func reproject(x []float64, camOffset, pointOffset int) (float64, float64) {
	rvec := geometry.Vec3{x[camOffset], x[camOffset+1], x[camOffset+2]}
	tvec := geometry.Vec3{x[camOffset+3], x[camOffset+4], x[camOffset+5]}
	point := geometry.Vec3{x[pointOffset], x[pointOffset+1], x[pointOffset+2]}

	r, err := geometry.RodriguesToMatrix(rvec)
	if err != nil {
		r = geometry.Identity3()
	}
	p := geometry.Transform{R: r, T: tvec}.Apply(point)

	depth := p[2]
	if depth >= 0 && depth < 1e-9 {
		depth = 1e-9
	} else if depth < 0 && depth > -1e-9 {
		depth = -1e-9
	}
	return p[0] / depth, p[1] / depth
}

func residualPair(x []float64, o observation) (float64, float64) {
	px, py := reproject(x, o.camOffset, o.pointOffset)
	return px - o.target.X, py - o.target.Y
}

func cost(x []float64, obs []observation) float64 {
	var sum float64
	for _, o := range obs {
		rx, ry := residualPair(x, o)
		sum += rx*rx + ry*ry
	}
	return 0.5 * sum
}

const finiteDiffRelStep = 1e-6

// accumulateNormalEquations builds J^T J and J^T r directly, without ever
// materializing the sparse Jacobian: each observation contributes a 9x9
// outer-product block (6 camera columns, 3 point columns), computed by
// perturbing only those 9 parameters in turn.
func accumulateNormalEquations(x []float64, obs []observation, nParams int) (linalg.Matrix, []float64) {
	JTJ := linalg.New(nParams, nParams)
	JTr := make([]float64, nParams)

	var cols [9]int
	var jx, jy [9]float64

	for _, o := range obs {
		for k := 0; k < 6; k++ {
			cols[k] = o.camOffset + k
		}
		for k := 0; k < 3; k++ {
			cols[6+k] = o.pointOffset + k
		}

		rx0, ry0 := reproject(x, o.camOffset, o.pointOffset)
		res0x, res0y := rx0-o.target.X, ry0-o.target.Y

		for ci, col := range cols {
			orig := x[col]
			step := finiteDiffRelStep * (1 + math.Abs(orig))
			x[col] = orig + step
			rx1, ry1 := reproject(x, o.camOffset, o.pointOffset)
			x[col] = orig

			jx[ci] = (rx1 - rx0) / step
			jy[ci] = (ry1 - ry0) / step
		}

		for a := 0; a < 9; a++ {
			JTr[cols[a]] += jx[a]*res0x + jy[a]*res0y
			for b := 0; b < 9; b++ {
				JTJ.Set(cols[a], cols[b], JTJ.Get(cols[a], cols[b])+jx[a]*jx[b]+jy[a]*jy[b])
			}
		}
	}

	return JTJ, JTr
}
