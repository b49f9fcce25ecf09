package core

import (
	"github.com/mprib/caliscope-core/bootstrap"
	"github.com/mprib/caliscope-core/points"
	"github.com/mprib/caliscope-core/quality"
)

// ComputeHoldoutError scores b's CameraArray against holdout, a set of
// board frames the caller kept out of calibration. See
// quality.ComputeHoldoutError for the solve/score procedure.
func (b PointDataBundle) ComputeHoldoutError(holdout points.ImagePoints, board points.BoardGeometry, opts bootstrap.PnPOptions) (quality.HoldoutResult, error) {
	return quality.ComputeHoldoutError(holdout, b.Array, board, opts)
}
