package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mprib/caliscope-core/camera"
	"github.com/mprib/caliscope-core/geometry"
	"github.com/mprib/caliscope-core/points"
)

// buildScatteredScene returns one posed camera and npoints world points at
// z=1, each observed with a distinct, increasing pixel offset so their
// reprojection errors are strictly ordered by PointID.
func buildScatteredScene(t *testing.T, npoints int) (points.ImagePoints, camera.Array, points.WorldPoints) {
	t.Helper()
	pose := geometry.Identity()
	array := camera.NewArray([]camera.Camera{posedCamera(0, pose)})

	var worldRows []points.WorldRow
	var imageRows []points.ImageRow
	for i := 0; i < npoints; i++ {
		worldRows = append(worldRows, points.WorldRow{SyncIndex: 0, PointID: i, X: 0, Y: 0, Z: 1})
		px, py := reprojectNormalized(pose, geometry.Vec3{0, 0, 1})
		offset := float64(i) * 0.01
		imageRows = append(imageRows, points.ImageRow{SyncIndex: 0, Port: 0, PointID: i, ImgX: px + offset, ImgY: py})
	}

	world, err := points.NewWorldPoints(worldRows)
	require.NoError(t, err)
	ip, err := points.NewImagePoints(imageRows)
	require.NoError(t, err)
	return ip, array, world
}

func TestFilterByAbsoluteError_DropsObservationsOverThreshold(t *testing.T) {
	ip, array, world := buildScatteredScene(t, 5) // errors: 0, .01, .02, .03, .04

	newIP, newWorld, err := FilterByAbsoluteError(ip, array, world, 0.025, 0)
	require.NoError(t, err)
	assert.Len(t, newIP.Rows, 3) // point_ids 0,1,2 survive
	assert.Len(t, newWorld.Rows, 3)
}

func TestFilterByAbsoluteError_SafetyFloorRestoresLowestError(t *testing.T) {
	ip, array, world := buildScatteredScene(t, 5)

	// Threshold drops everything past point_id 0, but minPerCamera=3
	// restores the next-lowest-error dropped rows.
	newIP, _, err := FilterByAbsoluteError(ip, array, world, 0.001, 3)
	require.NoError(t, err)
	assert.Len(t, newIP.Rows, 3)

	var ids []int
	for _, r := range newIP.Rows {
		ids = append(ids, r.PointID)
	}
	assert.ElementsMatch(t, []int{0, 1, 2}, ids)
}

func TestFilterByAbsoluteError_RejectsNonPositiveThreshold(t *testing.T) {
	ip, array, world := buildScatteredScene(t, 2)
	_, _, err := FilterByAbsoluteError(ip, array, world, 0, 0)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestFilterByAbsoluteError_PrunesOrphanedWorldPoints(t *testing.T) {
	ip, array, world := buildScatteredScene(t, 3) // errors: 0, .01, .02
	newIP, newWorld, err := FilterByAbsoluteError(ip, array, world, 0.005, 0)
	require.NoError(t, err)
	assert.Len(t, newIP.Rows, 1)
	assert.Len(t, newWorld.Rows, 1)
	assert.Equal(t, 0, newWorld.Rows[0].PointID)
}

func TestFilterByPercentileError_RejectsOutOfRangePercentile(t *testing.T) {
	ip, array, world := buildScatteredScene(t, 2)
	_, _, err := FilterByPercentileError(ip, array, world, 0, ScopeOverall, 0)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, _, err = FilterByPercentileError(ip, array, world, 101, ScopeOverall, 0)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestFilterByPercentileError_DropsRoughlyRequestedFraction(t *testing.T) {
	ip, array, world := buildScatteredScene(t, 10)
	newIP, _, err := FilterByPercentileError(ip, array, world, 30, ScopeOverall, 0)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(newIP.Rows), 8)
	assert.GreaterOrEqual(t, len(newIP.Rows), 6)
}
