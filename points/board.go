package points

import "github.com/mprib/caliscope-core/geometry"

// BoardGeometry maps a calibration target's point_id to its known
// location in the board's own reference frame. It is the external
// geometry fed to holdout-error evaluation; PnP bootstrap reads the
// board-frame coordinates carried on each ImageRow instead.
type BoardGeometry map[int]geometry.Vec3

// PointIDs returns the sorted set of point_ids present.
func (g BoardGeometry) PointIDs() []int {
	out := make([]int, 0, len(g))
	for id := range g {
		out = append(out, id)
	}
	sortInts(out)
	return out
}
