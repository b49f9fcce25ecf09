// PnP strategy: solve each camera's pose to the board independently per
// frame via gocv.SolvePnP, then compose and average relative poses across
// every sync index two cameras share.
package bootstrap

import (
	"math"
	"sort"

	"gocv.io/x/gocv"

	"github.com/mprib/caliscope-core/camera"
	"github.com/mprib/caliscope-core/geometry"
	"github.com/mprib/caliscope-core/logging"
	"github.com/mprib/caliscope-core/points"
	"github.com/mprib/caliscope-core/posenet"
)

// boardPose is a solved camera-to-board pose for one (port, sync_index).
type boardPose struct {
	port       int
	syncIndex  int
	pose       geometry.Transform
	reprojErr  float64
}

// solveBoardPose estimates the camera-to-board pose for one (port,
// sync_index) frame via SolvePnP, first attempting IPPE (the fast
// coplanar-points solver appropriate for a flat calibration board) and
// falling back to the general iterative solver when IPPE fails to
// converge to a usable pose.
func solveBoardPose(c camera.Camera, rows map[int]points.ImageRow, opts PnPOptions) (boardPose, bool) {
	if len(rows) < opts.MinObservations {
		return boardPose{}, false
	}

	var objPts []gocv.Point3f
	var pix []geometry.Point2
	for _, r := range rows {
		if !r.HasObj {
			continue
		}
		objPts = append(objPts, gocv.Point3f{X: float32(r.ObjX), Y: float32(r.ObjY), Z: float32(r.ObjZ)})
		pix = append(pix, geometry.Point2{X: r.ImgX, Y: r.ImgY})
	}
	if len(objPts) < opts.MinObservations {
		return boardPose{}, false
	}

	norm := c.UndistortNormalize(pix)
	var imgPts []gocv.Point2f
	for _, p := range norm {
		imgPts = append(imgPts, gocv.Point2f{X: float32(p.X), Y: float32(p.Y)})
	}

	objVec := gocv.NewPoint3fVectorFromPoints(objPts)
	defer objVec.Close()
	imgVec := gocv.NewPoint2fVectorFromPoints(imgPts)
	defer imgVec.Close()

	identity := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	defer identity.Close()
	identity.SetDoubleAt(0, 0, 1)
	identity.SetDoubleAt(1, 1, 1)
	identity.SetDoubleAt(2, 2, 1)
	zeroDist := gocv.NewMatWithSize(1, 5, gocv.MatTypeCV64F)
	defer zeroDist.Close()

	rvec := gocv.NewMat()
	defer rvec.Close()
	tvec := gocv.NewMat()
	defer tvec.Close()

	ok := gocv.SolvePnP(objVec, imgVec, identity, zeroDist, &rvec, &tvec, false, gocv.SolvePnPIPPE)
	if !ok {
		ok = gocv.SolvePnP(objVec, imgVec, identity, zeroDist, &rvec, &tvec, false, gocv.SolvePnPIterative)
	}
	if !ok {
		return boardPose{}, false
	}

	rotVec := geometry.Vec3{rvec.GetDoubleAt(0, 0), rvec.GetDoubleAt(1, 0), rvec.GetDoubleAt(2, 0)}
	rot, err := geometry.RodriguesToMatrix(rotVec)
	if err != nil {
		return boardPose{}, false
	}
	trans := geometry.Vec3{tvec.GetDoubleAt(0, 0), tvec.GetDoubleAt(1, 0), tvec.GetDoubleAt(2, 0)}
	pose := geometry.Transform{R: rot, T: trans}

	if trans[2] <= 0 {
		// Board lands behind the camera: not a usable solution.
		return boardPose{}, false
	}

	// The threshold applies to the mean Euclidean residual; reproj (the
	// mean squared residual) is what the caller receives.
	var meanDist float64
	for i, op := range objPts {
		p := pose.Apply(geometry.Vec3{float64(op.X), float64(op.Y), float64(op.Z)})
		if p[2] == 0 {
			continue
		}
		meanDist += math.Hypot(p[0]/p[2]-norm[i].X, p[1]/p[2]-norm[i].Y)
	}
	meanDist /= float64(len(objPts))

	reproj := meanReprojectionError(pose, objPts, norm)
	if meanDist > opts.MaxReprojectionError {
		return boardPose{}, false
	}

	return boardPose{pose: pose, reprojErr: reproj}, true
}

// BoardPoseResult is the public result of solving a single camera's pose
// relative to a calibration board from one frame's observations.
type BoardPoseResult struct {
	Pose              geometry.Transform
	ReprojectionError float64 // mean squared error in normalized (focal-length-independent) units
}

// SolveBoardPose estimates the camera-to-board pose for one frame's
// observations against c's calibrated intrinsics, for use wherever a
// single-frame PnP solve is needed outside pose-network bootstrap (for
// example, holdout-error evaluation against held-back frames).
func SolveBoardPose(c camera.Camera, rows map[int]points.ImageRow, opts PnPOptions) (BoardPoseResult, bool) {
	bp, ok := solveBoardPose(c, rows, opts)
	if !ok {
		return BoardPoseResult{}, false
	}
	return BoardPoseResult{Pose: bp.pose, ReprojectionError: bp.reprojErr}, true
}

func meanReprojectionError(pose geometry.Transform, objPts []gocv.Point3f, normalized []geometry.Point2) float64 {
	if len(objPts) == 0 {
		return 0
	}
	var sum float64
	for i, op := range objPts {
		p := pose.Apply(geometry.Vec3{float64(op.X), float64(op.Y), float64(op.Z)})
		if p[2] == 0 {
			continue
		}
		px, py := p[0]/p[2], p[1]/p[2]
		dx, dy := px-normalized[i].X, py-normalized[i].Y
		sum += dx*dx + dy*dy
	}
	return sum / float64(len(objPts))
}

// solveAllBoardPoses computes, for every (port, sync_index) in ip with
// enough shared observations, the camera-to-board pose.
func solveAllBoardPoses(ip points.ImagePoints, array camera.Array, opts PnPOptions) map[int]map[int]boardPose {
	byPortSync := make(map[int]map[int]map[int]points.ImageRow)
	for _, r := range ip.Rows {
		if byPortSync[r.Port] == nil {
			byPortSync[r.Port] = make(map[int]map[int]points.ImageRow)
		}
		if byPortSync[r.Port][r.SyncIndex] == nil {
			byPortSync[r.Port][r.SyncIndex] = make(map[int]points.ImageRow)
		}
		byPortSync[r.Port][r.SyncIndex][r.PointID] = r
	}

	out := make(map[int]map[int]boardPose)
	for _, port := range array.Ports() {
		c, ok := array.Get(port)
		if !ok {
			continue
		}
		for sync, rows := range byPortSync[port] {
			bp, ok := solveBoardPose(c, rows, opts)
			if !ok {
				continue
			}
			bp.port, bp.syncIndex = port, sync
			if out[port] == nil {
				out[port] = make(map[int]boardPose)
			}
			out[port][sync] = bp
		}
	}
	return out
}

// relativePoseAtSync composes portA and portB's board poses at a shared
// sync index into the relative pose T_AB = T_board->B . inverse(T_board->A).
func relativePoseAtSync(a, b boardPose) geometry.Transform {
	return geometry.Compose(a.pose.Inverse(), b.pose)
}

// aggregateRelativePoses combines one relative-pose estimate per shared
// sync index into a single StereoPair: translations average arithmetically
// after IQR outlier rejection on magnitude, rotations average via
// AverageQuaternions after IQR rejection on angular distance from the
// quaternion median.
func aggregateRelativePoses(portA, portB int, estimates []geometry.Transform, iqrMultiplier float64) (posenet.StereoPair, bool) {
	if len(estimates) == 0 {
		return posenet.StereoPair{}, false
	}

	mags := make([]float64, len(estimates))
	for i, e := range estimates {
		mags[i] = vecNorm(e.T)
	}
	keepByMag := iqrKeepMask(mags, iqrMultiplier)

	quats := make([]geometry.Quaternion, len(estimates))
	for i, e := range estimates {
		quats[i] = geometry.FromRotation(e.R)
	}
	medianQuat := medianQuaternion(quats)
	dists := make([]float64, len(estimates))
	for i, q := range quats {
		dists[i] = medianQuat.AngularDistance(q)
	}
	keepByAngle := iqrKeepMask(dists, iqrMultiplier)

	var keptT []geometry.Vec3
	var keptQ []geometry.Quaternion
	for i := range estimates {
		if keepByMag[i] && keepByAngle[i] {
			keptT = append(keptT, estimates[i].T)
			keptQ = append(keptQ, quats[i])
		}
	}
	if len(keptT) == 0 {
		keptT = append(keptT, estimates[0].T)
		keptQ = append(keptQ, quats[0])
	}

	var meanT geometry.Vec3
	for _, t := range keptT {
		meanT[0] += t[0]
		meanT[1] += t[1]
		meanT[2] += t[2]
	}
	n := float64(len(keptT))
	meanT = geometry.Vec3{meanT[0] / n, meanT[1] / n, meanT[2] / n}

	avgQ, err := geometry.AverageQuaternions(keptQ)
	if err != nil {
		return posenet.StereoPair{}, false
	}

	return posenet.StereoPair{
		PrimaryPort:   portA,
		SecondaryPort: portB,
		Pose:          geometry.Transform{R: avgQ.ToRotation(), T: meanT},
		ErrorScore:    meanOf(dists),
	}, true
}

func vecNorm(v geometry.Vec3) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// iqrKeepMask flags, for each value, whether it falls within
// [Q1 - mult*IQR, Q3 + mult*IQR].
func iqrKeepMask(values []float64, mult float64) []bool {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	q1 := percentile(sorted, 0.25)
	q3 := percentile(sorted, 0.75)
	iqr := q3 - q1
	lo, hi := q1-mult*iqr, q3+mult*iqr
	keep := make([]bool, len(values))
	for i, v := range values {
		keep[i] = v >= lo && v <= hi
	}
	return keep
}

func percentile(sorted []float64, frac float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := frac * float64(len(sorted)-1)
	lo := int(pos)
	hi := lo + 1
	if hi >= len(sorted) {
		return sorted[lo]
	}
	frac2 := pos - float64(lo)
	return sorted[lo]*(1-frac2) + sorted[hi]*frac2
}

// medianQuaternion picks the quaternion with the smallest summed angular
// distance to every other quaternion in the set, as a robust center point
// for outlier-distance scoring (the mean quaternion is not meaningful
// without the outliers it is meant to detect).
func medianQuaternion(qs []geometry.Quaternion) geometry.Quaternion {
	best := 0
	bestSum := -1.0
	for i, qi := range qs {
		sum := 0.0
		for _, qj := range qs {
			sum += qi.AngularDistance(qj)
		}
		if bestSum < 0 || sum < bestSum {
			best, bestSum = i, sum
		}
	}
	return qs[best]
}

// BuildPnPNetwork solves a board pose per (port, sync_index), then for
// every camera pair composes and aggregates the relative pose across every
// sync index both cameras solved.
func BuildPnPNetwork(ip points.ImagePoints, array camera.Array, opts PnPOptions) posenet.Network {
	opts = opts.WithDefaults()
	poses := solveAllBoardPoses(ip, array, opts)

	net := posenet.NewNetwork()
	ports := array.Ports()
	for i := 0; i < len(ports); i++ {
		for j := i + 1; j < len(ports); j++ {
			portA, portB := ports[i], ports[j]
			var estimates []geometry.Transform
			for sync, a := range poses[portA] {
				b, ok := poses[portB][sync]
				if !ok {
					continue
				}
				estimates = append(estimates, relativePoseAtSync(a, b))
			}
			if len(estimates) == 0 {
				continue
			}
			pair, ok := aggregateRelativePoses(portA, portB, estimates, opts.IQRMultiplier)
			if !ok {
				continue
			}
			net = net.Add(pair)
		}
	}

	result := net.BridgeAll()
	if len(result.LargestComponent()) < len(ports) {
		logging.Log.Debug().Msg("pnp bootstrap: pose network does not span every camera")
	}
	return result
}
