package quality

import (
	"math"

	"github.com/mprib/caliscope-core/bootstrap"
	"github.com/mprib/caliscope-core/camera"
	"github.com/mprib/caliscope-core/logging"
	"github.com/mprib/caliscope-core/points"
)

// FrameKey identifies one (port, sync_index) holdout frame.
type FrameKey struct {
	Port, SyncIndex int
}

// FrameResult is one successfully solved holdout frame's residual.
type FrameResult struct {
	FrameKey
	RMSENormalized float64
}

// HoldoutResult is the out-of-sample accuracy of a calibrated CameraArray
// against frames that were not used to produce it.
type HoldoutResult struct {
	OverallRMSENormalized float64
	ApproxPixelRMSE       float64 // OverallRMSENormalized scaled by mean focal length
	ByFrame               []FrameResult
	FailedFrames          []FrameKey
}

// ComputeHoldoutError estimates, for each (port, sync_index) present in
// holdout, that frame's board pose via PnP against array's calibrated
// intrinsics, then scores the post-solve residual against the board's
// known corner geometry. The caller selects which frames are held out:
// the core has no notion of a training/test split.
//
// Fitting and scoring use the same PnP call (bootstrap.SolveBoardPose), so
// the residual reported here is the pose solver's own least-squares fit
// quality against corners unseen by bundle adjustment, not a second
// independent check.
func ComputeHoldoutError(holdout points.ImagePoints, array camera.Array, board points.BoardGeometry, opts bootstrap.PnPOptions) (HoldoutResult, error) {
	opts = opts.WithDefaults()

	byPortSync := make(map[FrameKey]map[int]points.ImageRow)
	for _, r := range holdout.Rows {
		key := FrameKey{Port: r.Port, SyncIndex: r.SyncIndex}
		if byPortSync[key] == nil {
			byPortSync[key] = make(map[int]points.ImageRow)
		}
		row := r
		if obj, ok := board[r.PointID]; ok {
			row.HasObj = true
			row.ObjX, row.ObjY, row.ObjZ = obj[0], obj[1], obj[2]
		}
		byPortSync[key][r.PointID] = row
	}
	if len(byPortSync) == 0 {
		return HoldoutResult{}, ErrInsufficientData
	}

	var results []FrameResult
	var failed []FrameKey
	var focalSum float64
	var focalCount int

	for key, rows := range byPortSync {
		c, ok := array.Get(key.Port)
		if !ok {
			failed = append(failed, key)
			continue
		}
		res, ok := bootstrap.SolveBoardPose(c, rows, opts)
		if !ok {
			failed = append(failed, key)
			continue
		}
		results = append(results, FrameResult{FrameKey: key, RMSENormalized: math.Sqrt(res.ReprojectionError)})
		focalSum += (c.Matrix[0][0] + c.Matrix[1][1]) / 2
		focalCount++
	}

	if len(results) == 0 {
		logging.Log.Warn().Msg("holdout error: every frame failed to solve")
		return HoldoutResult{FailedFrames: failed}, ErrInsufficientData
	}

	var sq float64
	for _, r := range results {
		sq += r.RMSENormalized * r.RMSENormalized
	}
	overall := math.Sqrt(sq / float64(len(results)))
	meanFocal := focalSum / float64(focalCount)

	return HoldoutResult{
		OverallRMSENormalized: overall,
		ApproxPixelRMSE:       overall * meanFocal,
		ByFrame:               results,
		FailedFrames:          failed,
	}, nil
}
