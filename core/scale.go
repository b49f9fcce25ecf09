package core

import "github.com/mprib/caliscope-core/quality"

// ComputeScaleAccuracy reports how well b's triangulated world points at
// syncIndex match the calibration target's known physical geometry.
func (b PointDataBundle) ComputeScaleAccuracy(syncIndex int) (quality.ScaleAccuracyData, error) {
	return quality.ComputeScaleAccuracy(b.Image, b.World, syncIndex)
}
