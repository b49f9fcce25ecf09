package quality

import (
	"math"

	"github.com/mprib/caliscope-core/points"
)

// ScaleAccuracyData reports how well a reconstruction's physical scale
// matches a calibration target's known geometry, at one sync index.
type ScaleAccuracyData struct {
	SyncIndex     int
	NPairs        int
	RMSError      float64 // RMS of (world_distance - object_distance), in world units
	RelativeError float64 // RMSError / mean object distance, as a percentage
}

// ComputeScaleAccuracy matches world points at syncIndex to their known
// board-frame obj_loc by point_id, computes every pairwise Euclidean
// distance in both spaces, and reports the RMS discrepancy. Requires at
// least two matched points (one pairwise distance).
func ComputeScaleAccuracy(ip points.ImagePoints, world points.WorldPoints, syncIndex int) (ScaleAccuracyData, error) {
	objByPoint := make(map[int][3]float64)
	for _, r := range ip.Rows {
		if r.SyncIndex != syncIndex || !r.HasObj {
			continue
		}
		if _, ok := objByPoint[r.PointID]; ok {
			continue
		}
		objByPoint[r.PointID] = [3]float64{r.ObjX, r.ObjY, r.ObjZ}
	}

	type matched struct {
		world [3]float64
		obj   [3]float64
	}
	var rows []matched
	for _, w := range world.Rows {
		if w.SyncIndex != syncIndex {
			continue
		}
		obj, ok := objByPoint[w.PointID]
		if !ok {
			continue
		}
		rows = append(rows, matched{world: [3]float64{w.X, w.Y, w.Z}, obj: obj})
	}

	if len(rows) < 2 {
		return ScaleAccuracyData{}, ErrInsufficientData
	}

	var sqErr, objSum float64
	var n int
	for i := 0; i < len(rows); i++ {
		for j := i + 1; j < len(rows); j++ {
			wd := dist3(rows[i].world, rows[j].world)
			od := dist3(rows[i].obj, rows[j].obj)
			diff := wd - od
			sqErr += diff * diff
			objSum += od
			n++
		}
	}

	rms := math.Sqrt(sqErr / float64(n))
	meanObj := objSum / float64(n)
	var relErr float64
	if meanObj != 0 {
		relErr = 100 * rms / meanObj
	}

	return ScaleAccuracyData{SyncIndex: syncIndex, NPairs: n, RMSError: rms, RelativeError: relErr}, nil
}

func dist3(a, b [3]float64) float64 {
	dx, dy, dz := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
