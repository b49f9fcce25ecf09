package core

import "github.com/mprib/caliscope-core/quality"

// ReprojectionReport computes, and memoizes on first call, the
// reprojection-error report over b's matched, posed observations.
// Matches the Python original's @cached_property: safe because
// PointDataBundle is otherwise immutable, so the report can never go
// stale under the bundle that computed it.
func (b PointDataBundle) ReprojectionReport() quality.ReprojectionReport {
	b.report.once.Do(func() {
		b.report.report = quality.ComputeReprojectionReport(b.Image, b.Array, b.World)
	})
	return b.report.report
}
