package bundle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mprib/caliscope-core/camera"
	"github.com/mprib/caliscope-core/geometry"
	"github.com/mprib/caliscope-core/points"
)

func identityIntrinsics() camera.Matrix3 {
	return camera.Matrix3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

func posedCamera(port int, pose geometry.Transform) camera.Camera {
	return camera.Camera{Port: port, Matrix: identityIntrinsics()}.WithPose(pose)
}

// syntheticScene builds a two-camera, five-point scene with noiseless
// normalized-coordinate observations, for exercising the optimizer against
// a known-correct answer.
func syntheticScene() (camera.Array, points.WorldPoints, points.ImagePoints) {
	pose0 := geometry.Identity()
	pose1 := geometry.Transform{R: geometry.Identity3(), T: geometry.Vec3{1, 0, 0}}

	world := []geometry.Vec3{
		{0.2, 0.1, 4.0},
		{-0.3, 0.2, 3.5},
		{0.1, -0.4, 5.0},
		{-0.2, -0.1, 4.5},
		{0.4, 0.3, 3.8},
	}

	array := camera.NewArray([]camera.Camera{posedCamera(0, pose0), posedCamera(1, pose1)})

	var worldRows []points.WorldRow
	var imageRows []points.ImageRow
	for i, p := range world {
		worldRows = append(worldRows, points.WorldRow{SyncIndex: 0, PointID: i, X: p[0], Y: p[1], Z: p[2]})
		for _, pose := range []geometry.Transform{pose0, pose1} {
			cam := pose.Apply(p)
			port := 0
			if pose == pose1 {
				port = 1
			}
			imageRows = append(imageRows, points.ImageRow{
				SyncIndex: 0, Port: port, PointID: i,
				ImgX: cam[0] / cam[2], ImgY: cam[1] / cam[2],
			})
		}
	}

	world2, err := points.NewWorldPoints(worldRows)
	if err != nil {
		panic(err)
	}
	ip, err := points.NewImagePoints(imageRows)
	if err != nil {
		panic(err)
	}
	return array, world2, ip
}

func TestOptimize_RecoversPerturbedSceneToConvergence(t *testing.T) {
	truthArray, truthWorld, ip := syntheticScene()

	truthCam1, _ := truthArray.Get(1)
	perturbedPose := geometry.Transform{
		R: geometry.Identity3(),
		T: geometry.Vec3{truthCam1.Pose.T[0] + 0.05, truthCam1.Pose.T[1] - 0.03, truthCam1.Pose.T[2] + 0.02},
	}
	truthCam0, _ := truthArray.Get(0)
	startArray := camera.NewArray([]camera.Camera{truthCam0, truthCam1.WithPose(perturbedPose)})

	var startRows []points.WorldRow
	for _, r := range truthWorld.Rows {
		startRows = append(startRows, points.WorldRow{SyncIndex: r.SyncIndex, PointID: r.PointID, X: r.X + 0.02, Y: r.Y - 0.02, Z: r.Z + 0.03})
	}
	startWorld, err := points.NewWorldPoints(startRows)
	require.NoError(t, err)

	result, err := Optimize(ip, startArray, startWorld, Options{})
	require.NoError(t, err)
	assert.NotEqual(t, StatusImproperInput, result.Status)
	assert.NotEqual(t, StatusMaxEvaluations, result.Status)
	assert.Less(t, result.FinalCost, 1e-8)

	gotCam1, ok := result.Array.Get(1)
	require.True(t, ok)
	for i := 0; i < 3; i++ {
		assert.InDelta(t, truthCam1.Pose.T[i], gotCam1.Pose.T[i], 1e-3)
	}

	byKey := make(map[[2]int]points.WorldRow)
	for _, r := range result.World.Rows {
		byKey[[2]int{r.SyncIndex, r.PointID}] = r
	}
	for _, want := range truthWorld.Rows {
		got := byKey[[2]int{want.SyncIndex, want.PointID}]
		assert.InDelta(t, want.X, got.X, 1e-3)
		assert.InDelta(t, want.Y, got.Y, 1e-3)
		assert.InDelta(t, want.Z, got.Z, 1e-3)
	}
}

func TestOptimize_ReturnsImproperInputWhenNoPosedCameras(t *testing.T) {
	array := camera.NewArray([]camera.Camera{{Port: 0, Matrix: identityIntrinsics()}})
	world, err := points.NewWorldPoints([]points.WorldRow{{SyncIndex: 0, PointID: 0, X: 1, Y: 1, Z: 1}})
	require.NoError(t, err)
	ip, err := points.NewImagePoints(nil)
	require.NoError(t, err)

	result, err := Optimize(ip, array, world, Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusImproperInput, result.Status)
}

func TestOptimize_ReturnsImproperInputWhenNoObservations(t *testing.T) {
	array := camera.NewArray([]camera.Camera{posedCamera(0, geometry.Identity())})
	world, err := points.NewWorldPoints([]points.WorldRow{{SyncIndex: 0, PointID: 0, X: 1, Y: 1, Z: 1}})
	require.NoError(t, err)
	ip, err := points.NewImagePoints(nil)
	require.NoError(t, err)

	result, err := Optimize(ip, array, world, Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusImproperInput, result.Status)
}

// TestOptimize_SkipsUnlinkedCameraAndOrphanPoint exercises a scene where a
// third posed camera shares no sync index with anyone (so it anchors zero
// observations) and an extra world point was triangulated but never
// matched back to an image row. Neither should get a parameter slot, and
// both must come back out unchanged rather than stalling the solve with a
// singular damped-diagonal block.
func TestOptimize_SkipsUnlinkedCameraAndOrphanPoint(t *testing.T) {
	truthArray, truthWorld, ip := syntheticScene()

	unlinkedPose := geometry.Transform{R: geometry.Identity3(), T: geometry.Vec3{5, 5, 5}}
	unlinkedCam := posedCamera(2, unlinkedPose)
	cam0, _ := truthArray.Get(0)
	cam1, _ := truthArray.Get(1)
	array := camera.NewArray([]camera.Camera{cam0, cam1, unlinkedCam})

	orphanRow := points.WorldRow{SyncIndex: 99, PointID: 0, X: 1, Y: 2, Z: 3}
	worldRows := append([]points.WorldRow{}, truthWorld.Rows...)
	worldRows = append(worldRows, orphanRow)
	world, err := points.NewWorldPoints(worldRows)
	require.NoError(t, err)

	result, err := Optimize(ip, array, world, Options{})
	require.NoError(t, err)
	assert.NotEqual(t, StatusImproperInput, result.Status)

	gotUnlinked, ok := result.Array.Get(2)
	require.True(t, ok)
	assert.Equal(t, unlinkedPose, gotUnlinked.Pose)

	var gotOrphan points.WorldRow
	found := false
	for _, r := range result.World.Rows {
		if r.SyncIndex == orphanRow.SyncIndex && r.PointID == orphanRow.PointID {
			gotOrphan = r
			found = true
		}
	}
	require.True(t, found)
	assert.Equal(t, orphanRow, gotOrphan)
}

func TestPackUnpackParams_RoundTrips(t *testing.T) {
	array, world, ip := syntheticScene()
	pi := buildParamIndex(array, world, ip)

	x, err := packParams(array, world, pi)
	require.NoError(t, err)

	outArray, outWorld, err := unpackParams(x, array, world, pi)
	require.NoError(t, err)

	for _, port := range array.Ports() {
		want, _ := array.Get(port)
		got, ok := outArray.Get(port)
		require.True(t, ok)
		for i := 0; i < 3; i++ {
			assert.InDelta(t, want.Pose.T[i], got.Pose.T[i], 1e-9)
			for j := 0; j < 3; j++ {
				assert.InDelta(t, want.Pose.R[i][j], got.Pose.R[i][j], 1e-9)
			}
		}
	}

	byKey := make(map[[2]int]points.WorldRow)
	for _, r := range outWorld.Rows {
		byKey[[2]int{r.SyncIndex, r.PointID}] = r
	}
	for _, want := range world.Rows {
		got := byKey[[2]int{want.SyncIndex, want.PointID}]
		assert.InDelta(t, want.X, got.X, 1e-9)
		assert.InDelta(t, want.Y, got.Y, 1e-9)
		assert.InDelta(t, want.Z, got.Z, 1e-9)
	}
}
