// Package quality computes reprojection-error reports, filters
// observations by absolute or percentile error with a safety floor, and
// scores out-of-sample holdout accuracy and physical scale accuracy.
package quality

import (
	"errors"
	"math"

	"github.com/mprib/caliscope-core/camera"
	"github.com/mprib/caliscope-core/geometry"
	"github.com/mprib/caliscope-core/points"
)

// ErrInvalidInput mirrors a schema or parameter violation (percentile out
// of (0, 100], max_pixels <= 0).
var ErrInvalidInput = errors.New("quality: invalid input")

// ErrInsufficientData is returned when a quality computation has nothing
// to measure (zero matched observations, fewer than two points at a sync
// index).
var ErrInsufficientData = errors.New("quality: insufficient data")

// RawError is one matched-and-posed observation's reprojection error, in
// approximate pixel units (the normalized-plane residual scaled by the
// observing camera's focal length).
type RawError struct {
	SyncIndex, Port, PointID int
	ErrorX, ErrorY           float64
	Euclidean                float64
}

// ReprojectionReport summarizes reprojection error across an image-point
// table matched against a posed camera array and triangulated/optimized
// world points.
type ReprojectionReport struct {
	OverallRMSE            float64
	ByCamera                map[int]float64
	ByPointID               map[int]float64
	NUnmatchedObservations  int
	UnmatchedByCamera       map[int]int
	RawErrors               []RawError
	MatchedObservations     int
	TotalObservations       int
	NCameras                int
	NPoints                 int
}

// ComputeReprojectionReport matches every image row to a posed camera and
// a triangulated world point (by (sync_index, point_id)); rows that
// reference an unposed camera or a point with no world estimate are
// unmatched and excluded from every RMSE figure.
func ComputeReprojectionReport(ip points.ImagePoints, array camera.Array, world points.WorldPoints) ReprojectionReport {
	worldByKey := make(map[[2]int]points.WorldRow, len(world.Rows))
	for _, w := range world.Rows {
		worldByKey[[2]int{w.SyncIndex, w.PointID}] = w
	}

	var raws []RawError
	byCameraSq := make(map[int]float64)
	byCameraCount := make(map[int]int)
	byPointSq := make(map[int]float64)
	byPointCount := make(map[int]int)
	unmatchedByCamera := make(map[int]int)

	var overallSq float64
	matched := 0

	for _, row := range ip.Rows {
		c, ok := array.Get(row.Port)
		if !ok || !c.IsPosed() {
			unmatchedByCamera[row.Port]++
			continue
		}
		wr, ok := worldByKey[[2]int{row.SyncIndex, row.PointID}]
		if !ok {
			unmatchedByCamera[row.Port]++
			continue
		}

		normObs := c.UndistortNormalize([]geometry.Point2{{X: row.ImgX, Y: row.ImgY}})[0]
		px, py := reprojectNormalized(c.Pose, geometry.Vec3{wr.X, wr.Y, wr.Z})

		fx, fy := c.Matrix[0][0], c.Matrix[1][1]
		ex := (px - normObs.X) * fx
		ey := (py - normObs.Y) * fy
		euclid := math.Hypot(ex, ey)

		raws = append(raws, RawError{SyncIndex: row.SyncIndex, Port: row.Port, PointID: row.PointID, ErrorX: ex, ErrorY: ey, Euclidean: euclid})

		overallSq += ex*ex + ey*ey
		matched++
		byCameraSq[row.Port] += ex*ex + ey*ey
		byCameraCount[row.Port]++
		byPointSq[row.PointID] += ex*ex + ey*ey
		byPointCount[row.PointID]++
	}

	byCamera := make(map[int]float64, len(byCameraSq))
	for port, sq := range byCameraSq {
		byCamera[port] = math.Sqrt(sq / float64(byCameraCount[port]))
	}
	byPointID := make(map[int]float64, len(byPointSq))
	for id, sq := range byPointSq {
		byPointID[id] = math.Sqrt(sq / float64(byPointCount[id]))
	}

	var overallRMSE float64
	if matched > 0 {
		overallRMSE = math.Sqrt(overallSq / float64(matched))
	}

	nUnmatched := 0
	for _, n := range unmatchedByCamera {
		nUnmatched += n
	}

	return ReprojectionReport{
		OverallRMSE:            overallRMSE,
		ByCamera:               byCamera,
		ByPointID:              byPointID,
		NUnmatchedObservations: nUnmatched,
		UnmatchedByCamera:      unmatchedByCamera,
		RawErrors:              raws,
		MatchedObservations:    matched,
		TotalObservations:      len(ip.Rows),
		NCameras:               len(array.PosedCameras()),
		NPoints:                len(world.Rows),
	}
}

func reprojectNormalized(pose geometry.Transform, point geometry.Vec3) (float64, float64) {
	p := pose.Apply(point)
	if p[2] == 0 {
		return 0, 0
	}
	return p[0] / p[2], p[1] / p[2]
}
