package quality

import (
	"sort"

	"github.com/mprib/caliscope-core/camera"
	"github.com/mprib/caliscope-core/points"
)

// Scope selects whether FilterByPercentileError computes its drop
// threshold per camera or across every matched observation at once.
type Scope int

const (
	ScopeOverall Scope = iota
	ScopePerCamera
)

// FilterByAbsoluteError drops every matched observation whose euclidean
// reprojection error exceeds maxPixels, then restores the lowest-error
// dropped observations for any camera that would fall below
// minPerCamera, then prunes any world point left with zero observations.
func FilterByAbsoluteError(ip points.ImagePoints, array camera.Array, world points.WorldPoints, maxPixels float64, minPerCamera int) (points.ImagePoints, points.WorldPoints, error) {
	if maxPixels <= 0 {
		return points.ImagePoints{}, points.WorldPoints{}, ErrInvalidInput
	}
	report := ComputeReprojectionReport(ip, array, world)
	return filterCore(ip, world, report.RawErrors, func(e RawError) bool { return e.Euclidean > maxPixels }, minPerCamera)
}

// FilterByPercentileError drops the worst percentile% of matched
// observations, with the cutoff computed either per camera or over the
// whole matched set, then applies the same safety floor and orphan
// pruning as FilterByAbsoluteError.
func FilterByPercentileError(ip points.ImagePoints, array camera.Array, world points.WorldPoints, percentile float64, scope Scope, minPerCamera int) (points.ImagePoints, points.WorldPoints, error) {
	if percentile <= 0 || percentile > 100 {
		return points.ImagePoints{}, points.WorldPoints{}, ErrInvalidInput
	}
	report := ComputeReprojectionReport(ip, array, world)
	keepFraction := (100 - percentile) / 100.0

	var shouldDrop func(RawError) bool
	switch scope {
	case ScopePerCamera:
		byCameraErrs := make(map[int][]float64)
		for _, e := range report.RawErrors {
			byCameraErrs[e.Port] = append(byCameraErrs[e.Port], e.Euclidean)
		}
		thresholds := make(map[int]float64, len(byCameraErrs))
		for port, errs := range byCameraErrs {
			sorted := append([]float64(nil), errs...)
			sort.Float64s(sorted)
			thresholds[port] = percentileValue(sorted, keepFraction)
		}
		shouldDrop = func(e RawError) bool { return e.Euclidean > thresholds[e.Port] }
	default:
		errs := make([]float64, len(report.RawErrors))
		for i, e := range report.RawErrors {
			errs[i] = e.Euclidean
		}
		sort.Float64s(errs)
		threshold := percentileValue(errs, keepFraction)
		shouldDrop = func(e RawError) bool { return e.Euclidean > threshold }
	}

	return filterCore(ip, world, report.RawErrors, shouldDrop, minPerCamera)
}

func percentileValue(sorted []float64, frac float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := frac * float64(len(sorted)-1)
	lo := int(pos)
	hi := lo + 1
	if hi >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	f := pos - float64(lo)
	return sorted[lo]*(1-f) + sorted[hi]*f
}

// filterCore applies shouldDrop to every matched observation, restores
// the lowest-error dropped observations per camera until minPerCamera is
// met (the documented safety floor, which can leave the realized drop
// rate below whatever the caller requested), and prunes world points no
// observation references any more.
func filterCore(ip points.ImagePoints, world points.WorldPoints, raws []RawError, shouldDrop func(RawError) bool, minPerCamera int) (points.ImagePoints, points.WorldPoints, error) {
	type rowKey struct{ sync, port, pointID int }

	dropped := make(map[rowKey]RawError)
	remainingPerCamera := make(map[int]int)
	for _, e := range raws {
		k := rowKey{e.SyncIndex, e.Port, e.PointID}
		if shouldDrop(e) {
			dropped[k] = e
		} else {
			remainingPerCamera[e.Port]++
		}
	}

	droppedByCamera := make(map[int][]RawError)
	for _, e := range dropped {
		droppedByCamera[e.Port] = append(droppedByCamera[e.Port], e)
	}
	for port := range droppedByCamera {
		sort.Slice(droppedByCamera[port], func(i, j int) bool {
			return droppedByCamera[port][i].Euclidean < droppedByCamera[port][j].Euclidean
		})
	}

	for port, candidates := range droppedByCamera {
		need := minPerCamera - remainingPerCamera[port]
		for i := 0; i < len(candidates) && need > 0; i++ {
			k := rowKey{candidates[i].SyncIndex, candidates[i].Port, candidates[i].PointID}
			delete(dropped, k)
			remainingPerCamera[port]++
			need--
		}
	}

	newIP := ip.Filter(func(r points.ImageRow) bool {
		_, d := dropped[rowKey{r.SyncIndex, r.Port, r.PointID}]
		return !d
	})

	referenced := make(map[[2]int]bool, len(newIP.Rows))
	for _, r := range newIP.Rows {
		referenced[[2]int{r.SyncIndex, r.PointID}] = true
	}
	newWorld := world.Filter(func(w points.WorldRow) bool {
		return referenced[[2]int{w.SyncIndex, w.PointID}]
	})

	return newIP, newWorld, nil
}
