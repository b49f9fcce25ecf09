package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mprib/caliscope-core/camera"
	"github.com/mprib/caliscope-core/geometry"
	"github.com/mprib/caliscope-core/points"
)

func TestAlignToObject_RecoversKnownObjectCoordinates(t *testing.T) {
	array, _, _ := twoCameraScene(t)

	// Four world points at sync_index 0, each with a known obj_loc offset
	// by a fixed translation (no rotation/scale) from the world estimate.
	worldPts := []geometry.Vec3{{0, 0, 4}, {1, 0, 4}, {0, 1, 4}, {1, 1, 5}}
	offset := geometry.Vec3{10, 20, 30}

	var imageRows []points.ImageRow
	var worldRows []points.WorldRow
	for i, wp := range worldPts {
		worldRows = append(worldRows, points.WorldRow{SyncIndex: 0, PointID: i, X: wp[0], Y: wp[1], Z: wp[2]})
		obj := geometry.Vec3{wp[0] + offset[0], wp[1] + offset[1], wp[2] + offset[2]}
		imageRows = append(imageRows, points.ImageRow{
			SyncIndex: 0, Port: 0, PointID: i, ImgX: 0.1, ImgY: 0.1,
			HasObj: true, ObjX: obj[0], ObjY: obj[1], ObjZ: obj[2],
		})
	}
	ip, err := points.NewImagePoints(imageRows)
	require.NoError(t, err)
	wp, err := points.NewWorldPoints(worldRows)
	require.NoError(t, err)

	b, err := New(array, ip, wp)
	require.NoError(t, err)

	aligned, err := b.AlignToObject(0)
	require.NoError(t, err)

	for i, want := range worldPts {
		wantObj := geometry.Vec3{want[0] + offset[0], want[1] + offset[1], want[2] + offset[2]}
		var got points.WorldRow
		for _, r := range aligned.World.Rows {
			if r.PointID == i {
				got = r
			}
		}
		assert.InDelta(t, wantObj[0], got.X, 1e-6)
		assert.InDelta(t, wantObj[1], got.Y, 1e-6)
		assert.InDelta(t, wantObj[2], got.Z, 1e-6)
	}
}

func TestAlignToObject_RejectsTooFewCorrespondences(t *testing.T) {
	array, ip, wp := twoCameraScene(t)
	b, err := New(array, ip, wp)
	require.NoError(t, err)

	_, err = b.AlignToObject(0) // no HasObj rows at all
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestRotate_RejectsInvalidAxis(t *testing.T) {
	array, ip, wp := twoCameraScene(t)
	b, err := New(array, ip, wp)
	require.NoError(t, err)

	_, err = b.Rotate("w", 90)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestRotate_NinetyDegreesAboutZMapsXOntoY(t *testing.T) {
	array := camera.NewArray([]camera.Camera{
		posedCamera(0, geometry.Identity()),
		posedCamera(1, geometry.Transform{R: geometry.Identity3(), T: geometry.Vec3{1, 0, 0}}),
	})
	ip, err := points.NewImagePoints([]points.ImageRow{
		{SyncIndex: 0, Port: 0, PointID: 1, ImgX: 0.1, ImgY: 0.1},
		{SyncIndex: 0, Port: 1, PointID: 1, ImgX: 0.1, ImgY: 0.1},
	})
	require.NoError(t, err)
	wp, err := points.NewWorldPoints([]points.WorldRow{{SyncIndex: 0, PointID: 1, X: 1, Y: 0, Z: 0}})
	require.NoError(t, err)

	b, err := New(array, ip, wp)
	require.NoError(t, err)

	rotated, err := b.Rotate("z", 90)
	require.NoError(t, err)

	require.Len(t, rotated.World.Rows, 1)
	assert.InDelta(t, 0, rotated.World.Rows[0].X, 1e-9)
	assert.InDelta(t, 1, rotated.World.Rows[0].Y, 1e-9)
	assert.InDelta(t, 0, rotated.World.Rows[0].Z, 1e-9)
}

// Rotate re-expresses cameras and world points in lockstep, so the exact
// same observations must still reproject with zero error afterward.
func TestRotate_PreservesReprojectionConsistency(t *testing.T) {
	array, ip, wp := twoCameraScene(t)
	b, err := New(array, ip, wp)
	require.NoError(t, err)
	before := b.ReprojectionReport().OverallRMSE

	rotated, err := b.Rotate("y", 37)
	require.NoError(t, err)
	after := rotated.ReprojectionReport().OverallRMSE

	assert.InDelta(t, 0, before, 1e-9)
	assert.InDelta(t, 0, after, 1e-9)
}
