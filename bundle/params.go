// Package bundle refines camera poses and 3D point positions jointly via
// sparse nonlinear least squares, minimizing reprojection error across
// every posed-camera observation. The flat parameter vector is laid out
// as [r0,t0,r1,t1,...,x0,y0,z0,...]; the Jacobian has a fixed nonzero-column
// count per residual row (9: the 6 extrinsic parameters of the observing
// camera plus the 3 coordinates of the observed point), so it is
// accumulated directly into the normal equations rather than stored dense.
package bundle

import (
	"sort"

	"github.com/mprib/caliscope-core/camera"
	"github.com/mprib/caliscope-core/geometry"
	"github.com/mprib/caliscope-core/points"
)

type pointKey struct {
	sync, pointID int
}

// paramIndex fixes the ordering of the flat parameter vector: posed
// cameras first (6 values each, ascending port order), then points (3
// values each, ascending (sync_index, point_id) order). Only cameras and
// points that actually anchor at least one observation in ip get a slot;
// a posed camera or a world point with no matched image row would put an
// all-zero block on the normal-equations diagonal, which the damped
// Cholesky solve can never satisfy. Everything left out of the index is
// passed through unpackParams unchanged.
type paramIndex struct {
	camIdx    map[int]int
	camPorts  []int
	pointIdx  map[pointKey]int
	pointKeys []pointKey
}

func buildParamIndex(array camera.Array, world points.WorldPoints, ip points.ImagePoints) paramIndex {
	posedPorts := make(map[int]bool, len(array.PosedCameras()))
	for _, c := range array.PosedCameras() {
		posedPorts[c.Port] = true
	}

	worldSet := make(map[pointKey]bool, len(world.Rows))
	for _, r := range world.Rows {
		worldSet[pointKey{r.SyncIndex, r.PointID}] = true
	}

	refCams := make(map[int]bool)
	refPoints := make(map[pointKey]bool)
	for _, r := range ip.Rows {
		if !posedPorts[r.Port] {
			continue
		}
		k := pointKey{r.SyncIndex, r.PointID}
		if !worldSet[k] {
			continue
		}
		refCams[r.Port] = true
		refPoints[k] = true
	}

	camPorts := make([]int, 0, len(refCams))
	for port := range refCams {
		camPorts = append(camPorts, port)
	}
	sort.Ints(camPorts)
	camIdx := make(map[int]int, len(camPorts))
	for i, port := range camPorts {
		camIdx[port] = i
	}

	keys := make([]pointKey, 0, len(refPoints))
	for k := range refPoints {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].sync != keys[j].sync {
			return keys[i].sync < keys[j].sync
		}
		return keys[i].pointID < keys[j].pointID
	})
	pointIdx := make(map[pointKey]int, len(keys))
	for i, k := range keys {
		pointIdx[k] = i
	}

	return paramIndex{camIdx: camIdx, camPorts: camPorts, pointIdx: pointIdx, pointKeys: keys}
}

func (pi paramIndex) nCams() int   { return len(pi.camPorts) }
func (pi paramIndex) nPoints() int { return len(pi.pointKeys) }
func (pi paramIndex) nParams() int { return 6*pi.nCams() + 3*pi.nPoints() }

func packParams(array camera.Array, world points.WorldPoints, pi paramIndex) ([]float64, error) {
	x := make([]float64, pi.nParams())
	for port, idx := range pi.camIdx {
		c, ok := array.Get(port)
		if !ok {
			continue
		}
		rvec, err := geometry.MatrixToRodrigues(c.Pose.R)
		if err != nil {
			return nil, err
		}
		off := 6 * idx
		x[off], x[off+1], x[off+2] = rvec[0], rvec[1], rvec[2]
		x[off+3], x[off+4], x[off+5] = c.Pose.T[0], c.Pose.T[1], c.Pose.T[2]
	}

	worldByKey := make(map[pointKey]points.WorldRow, len(world.Rows))
	for _, r := range world.Rows {
		worldByKey[pointKey{r.SyncIndex, r.PointID}] = r
	}
	base := 6 * pi.nCams()
	for i, k := range pi.pointKeys {
		row := worldByKey[k]
		off := base + 3*i
		x[off], x[off+1], x[off+2] = row.X, row.Y, row.Z
	}
	return x, nil
}

// unpackParams writes the refined camera poses and point positions back
// onto array and origWorld. A posed camera or world point absent from pi
// (because it anchored no observation) is carried through unchanged
// rather than dropped.
func unpackParams(x []float64, array camera.Array, origWorld points.WorldPoints, pi paramIndex) (camera.Array, points.WorldPoints, error) {
	out := array
	for port, idx := range pi.camIdx {
		c, ok := out.Get(port)
		if !ok {
			continue
		}
		off := 6 * idx
		rvec := geometry.Vec3{x[off], x[off+1], x[off+2]}
		R, err := geometry.RodriguesToMatrix(rvec)
		if err != nil {
			return camera.Array{}, points.WorldPoints{}, err
		}
		tvec := geometry.Vec3{x[off+3], x[off+4], x[off+5]}
		out = out.With(c.WithPose(geometry.Transform{R: R, T: tvec}))
	}

	base := 6 * pi.nCams()
	refined := make(map[pointKey]points.WorldRow, len(pi.pointKeys))
	for i, k := range pi.pointKeys {
		off := base + 3*i
		refined[k] = points.WorldRow{SyncIndex: k.sync, PointID: k.pointID, X: x[off], Y: x[off+1], Z: x[off+2]}
	}

	rows := make([]points.WorldRow, len(origWorld.Rows))
	for i, r := range origWorld.Rows {
		k := pointKey{r.SyncIndex, r.PointID}
		if rr, ok := refined[k]; ok {
			rows[i] = rr
		} else {
			rows[i] = r
		}
	}
	world, err := points.NewWorldPoints(rows)
	if err != nil {
		return camera.Array{}, points.WorldPoints{}, err
	}
	return out, world, nil
}
