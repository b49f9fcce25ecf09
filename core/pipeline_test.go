package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mprib/caliscope-core/bootstrap"
	"github.com/mprib/caliscope-core/camera"
	"github.com/mprib/caliscope-core/geometry"
	"github.com/mprib/caliscope-core/points"
)

func flatBoard() []geometry.Vec3 {
	return []geometry.Vec3{
		{0, 0, 0}, {0.1, 0, 0}, {0.2, 0, 0},
		{0, 0.1, 0}, {0.1, 0.1, 0}, {0.2, 0.1, 0},
	}
}

func rotZ(rad float64) geometry.Rotation {
	c, s := math.Cos(rad), math.Sin(rad)
	return geometry.Rotation{{c, -s, 0}, {s, c, 0}, {0, 0, 1}}
}

func TestBootstrap_EndToEndPnPPipelineProducesValidBundle(t *testing.T) {
	board := flatBoard()
	truth := geometry.Transform{R: rotZ(0.1), T: geometry.Vec3{0.3, 0, 0}}

	cams := camera.NewArray([]camera.Camera{
		{Port: 0, Matrix: identityIntrinsics(), Size: camera.Size{Width: 100, Height: 100}},
		{Port: 1, Matrix: identityIntrinsics(), Size: camera.Size{Width: 100, Height: 100}},
	})

	var rows []points.ImageRow
	for f := 0; f < 5; f++ {
		boardToCam0 := geometry.Transform{R: rotZ(0.05 * float64(f)), T: geometry.Vec3{0, 0, 2 + 0.1*float64(f)}}
		boardToCam1 := geometry.Compose(boardToCam0, truth)
		for id, p := range board {
			c0 := boardToCam0.Apply(p)
			c1 := boardToCam1.Apply(p)
			rows = append(rows,
				points.ImageRow{SyncIndex: f, Port: 0, PointID: id, ImgX: c0[0] / c0[2], ImgY: c0[1] / c0[2], HasObj: true, ObjX: p[0], ObjY: p[1], ObjZ: p[2]},
				points.ImageRow{SyncIndex: f, Port: 1, PointID: id, ImgX: c1[0] / c1[2], ImgY: c1[1] / c1[2], HasObj: true, ObjX: p[0], ObjY: p[1], ObjZ: p[2]},
			)
		}
	}
	ip, err := points.NewImagePoints(rows)
	require.NoError(t, err)

	b, err := Bootstrap(ip, cams, bootstrap.MethodPnP, bootstrap.StereoOptions{}, bootstrap.PnPOptions{}, nil)
	require.NoError(t, err)

	assert.True(t, b.Array.Len() == 2)
	assert.NotEmpty(t, b.World.Rows)
	assert.Nil(t, b.Status)

	report := b.ReprojectionReport()
	assert.Less(t, report.OverallRMSE, 0.05)
}

func TestBootstrap_ComputeHoldoutErrorWiring(t *testing.T) {
	board := flatBoard()
	boardGeo := points.BoardGeometry{}
	for id, p := range board {
		boardGeo[id] = p
	}

	pose := geometry.Transform{R: geometry.Identity3(), T: geometry.Vec3{0, 0, 2}}
	array := camera.NewArray([]camera.Camera{posedCamera(0, pose), posedCamera(1, pose)})

	var trainRows []points.ImageRow
	for id, p := range board {
		c0 := pose.Apply(p)
		trainRows = append(trainRows,
			points.ImageRow{SyncIndex: 0, Port: 0, PointID: id, ImgX: c0[0] / c0[2], ImgY: c0[1] / c0[2], HasObj: true, ObjX: p[0], ObjY: p[1], ObjZ: p[2]},
			points.ImageRow{SyncIndex: 0, Port: 1, PointID: id, ImgX: c0[0] / c0[2], ImgY: c0[1] / c0[2], HasObj: true, ObjX: p[0], ObjY: p[1], ObjZ: p[2]},
		)
	}
	ip, err := points.NewImagePoints(trainRows)
	require.NoError(t, err)
	wp, err := points.NewWorldPoints([]points.WorldRow{{SyncIndex: 0, PointID: 0, X: 0, Y: 0, Z: 2}})
	require.NoError(t, err)
	b, err := New(array, ip, wp)
	require.NoError(t, err)

	var holdoutRows []points.ImageRow
	for id, p := range board {
		c0 := pose.Apply(p)
		holdoutRows = append(holdoutRows, points.ImageRow{SyncIndex: 1, Port: 0, PointID: id, ImgX: c0[0] / c0[2], ImgY: c0[1] / c0[2]})
	}
	holdout, err := points.NewImagePoints(holdoutRows)
	require.NoError(t, err)

	result, err := b.ComputeHoldoutError(holdout, boardGeo, bootstrap.PnPOptions{})
	require.NoError(t, err)
	assert.InDelta(t, 0, result.OverallRMSENormalized, 1e-4)
}

func TestBootstrap_ComputeScaleAccuracyWiring(t *testing.T) {
	array, _, _ := twoCameraScene(t)
	ip, err := points.NewImagePoints([]points.ImageRow{
		{SyncIndex: 0, Port: 0, PointID: 1, ImgX: 0.1, ImgY: 0.1, HasObj: true, ObjX: 0, ObjY: 0, ObjZ: 0},
		{SyncIndex: 0, Port: 0, PointID: 2, ImgX: 0.2, ImgY: 0.2, HasObj: true, ObjX: 1, ObjY: 0, ObjZ: 0},
	})
	require.NoError(t, err)
	wp, err := points.NewWorldPoints([]points.WorldRow{
		{SyncIndex: 0, PointID: 1, X: 5, Y: 0, Z: 0},
		{SyncIndex: 0, PointID: 2, X: 6, Y: 0, Z: 0},
	})
	require.NoError(t, err)
	b, err := New(array, ip, wp)
	require.NoError(t, err)

	got, err := b.ComputeScaleAccuracy(0)
	require.NoError(t, err)
	assert.Equal(t, 1, got.NPairs)
	assert.InDelta(t, 0, got.RMSError, 1e-9)
}
