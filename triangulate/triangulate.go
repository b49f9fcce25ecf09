// Package triangulate reconstructs 3D points from 2D observations seen by
// two or more posed cameras, via the Direct Linear Transform. Two-view
// triangulation delegates to gocv.TriangulatePoints; three-or-more-view
// triangulation falls back to a homogeneous-least-squares DLT solved via
// internal/linalg.SVD.
package triangulate

import (
	"errors"

	"gocv.io/x/gocv"

	"github.com/mprib/caliscope-core/camera"
	"github.com/mprib/caliscope-core/geometry"
	"github.com/mprib/caliscope-core/internal/linalg"
	"github.com/mprib/caliscope-core/points"
)

// ErrInsufficientViews is returned when a point is observed by fewer than
// two posed cameras; such points are silently dropped by TriangulateAll and
// this error is only ever surfaced by the single-point entry point.
var ErrInsufficientViews = errors.New("triangulate: fewer than two posed views")

type view struct {
	transform geometry.Transform
	point     geometry.Point2
}

// triangulatePoint reconstructs a single 3D point from its observations in
// two or more posed, already-undistorted-and-normalized cameras.
func triangulatePoint(views []view) (geometry.Vec3, error) {
	if len(views) < 2 {
		return geometry.Vec3{}, ErrInsufficientViews
	}
	if len(views) == 2 {
		return triangulateTwoView(views[0], views[1]), nil
	}
	return triangulateDLT(views), nil
}

func projectionRows(tf geometry.Transform) [3][4]float64 {
	return [3][4]float64{
		{tf.R[0][0], tf.R[0][1], tf.R[0][2], tf.T[0]},
		{tf.R[1][0], tf.R[1][1], tf.R[1][2], tf.T[1]},
		{tf.R[2][0], tf.R[2][1], tf.R[2][2], tf.T[2]},
	}
}

func triangulateTwoView(a, b view) geometry.Vec3 {
	pa := projectionRows(a.transform)
	pb := projectionRows(b.transform)

	projA := gocv.NewMatWithSize(3, 4, gocv.MatTypeCV64F)
	defer projA.Close()
	projB := gocv.NewMatWithSize(3, 4, gocv.MatTypeCV64F)
	defer projB.Close()
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			projA.SetDoubleAt(i, j, pa[i][j])
			projB.SetDoubleAt(i, j, pb[i][j])
		}
	}

	ptsA := gocv.NewPoint2fVectorFromPoints([]gocv.Point2f{{X: float32(a.point.X), Y: float32(a.point.Y)}})
	defer ptsA.Close()
	ptsB := gocv.NewPoint2fVectorFromPoints([]gocv.Point2f{{X: float32(b.point.X), Y: float32(b.point.Y)}})
	defer ptsB.Close()

	out := gocv.NewMat()
	defer out.Close()
	gocv.TriangulatePoints(projA, projB, ptsA, ptsB, &out)

	w := out.GetDoubleAt(3, 0)
	if w == 0 {
		w = 1
	}
	return geometry.Vec3{
		out.GetDoubleAt(0, 0) / w,
		out.GetDoubleAt(1, 0) / w,
		out.GetDoubleAt(2, 0) / w,
	}
}

// triangulateDLT solves the homogeneous system A x = 0 built by stacking,
// for every view, the two equations x*(P row3) - (P row1) = 0 and
// y*(P row3) - (P row2) = 0; the solution is the right singular vector of
// A belonging to its smallest singular value.
func triangulateDLT(views []view) geometry.Vec3 {
	a := linalg.New(2*len(views), 4)
	for i, v := range views {
		p := projectionRows(v.transform)
		x, y := v.point.X, v.point.Y
		for c := 0; c < 4; c++ {
			a.Set(2*i, c, x*p[2][c]-p[0][c])
			a.Set(2*i+1, c, y*p[2][c]-p[1][c])
		}
	}

	svd, err := linalg.SVD(a)
	if err != nil {
		return geometry.Vec3{}
	}
	minIdx := 0
	for i := 1; i < len(svd.S); i++ {
		if svd.S[i] < svd.S[minIdx] {
			minIdx = i
		}
	}
	w := svd.Vt.Get(3, minIdx)
	if w == 0 {
		w = 1
	}
	return geometry.Vec3{
		svd.Vt.Get(0, minIdx) / w,
		svd.Vt.Get(1, minIdx) / w,
		svd.Vt.Get(2, minIdx) / w,
	}
}

// TriangulateAll reconstructs every (sync_index, point_id) observed by at
// least two posed, undistorted-normalized cameras, silently skipping the
// rest: a point with fewer than two views simply has no triangulation, not
// an error.
func TriangulateAll(ip points.ImagePoints, array camera.Array) (points.WorldPoints, error) {
	type key struct{ sync, pointID int }
	grouped := make(map[key][]view)

	for _, row := range ip.Rows {
		c, ok := array.Get(row.Port)
		if !ok || !c.IsPosed() {
			continue
		}
		normalized := c.UndistortNormalize([]geometry.Point2{{X: row.ImgX, Y: row.ImgY}})
		k := key{row.SyncIndex, row.PointID}
		grouped[k] = append(grouped[k], view{transform: c.Pose, point: normalized[0]})
	}

	var out []points.WorldRow
	for k, vs := range grouped {
		if len(vs) < 2 {
			continue
		}
		p, err := triangulatePoint(vs)
		if err != nil {
			continue
		}
		out = append(out, points.WorldRow{SyncIndex: k.sync, PointID: k.pointID, X: p[0], Y: p[1], Z: p[2]})
	}
	return points.NewWorldPoints(out)
}
