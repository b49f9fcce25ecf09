package align

import (
	"github.com/mprib/caliscope-core/camera"
	"github.com/mprib/caliscope-core/geometry"
	"github.com/mprib/caliscope-core/points"
)

// ApplyToWorldPoints maps every row of world through tf.
func ApplyToWorldPoints(world points.WorldPoints, tf Transform) points.WorldPoints {
	rows := make([]points.WorldRow, len(world.Rows))
	for i, r := range world.Rows {
		p := tf.Apply(geometry.Vec3{r.X, r.Y, r.Z})
		rows[i] = points.WorldRow{SyncIndex: r.SyncIndex, PointID: r.PointID, X: p[0], Y: p[1], Z: p[2]}
	}
	// rows already satisfied the (SyncIndex, PointID) uniqueness invariant
	// of the input, so reconstruction cannot fail.
	out, _ := points.NewWorldPoints(rows)
	return out
}

// ApplyToCameraPose re-expresses a camera's extrinsics so that it projects
// points given in tf's target frame exactly as it used to project points
// given in tf's source frame: if p_cam = pose.R*p_world + pose.T, the
// returned pose satisfies p_cam = pose'.R*tf.Apply(p_world) + pose'.T for
// every p_world. Rotation divides by tf.Scale rather than staying
// orthogonal, which is the correct (and only reprojection-consistent)
// answer when tf rescales the world -- round-tripping tf then tf.Inverse()
// recovers the original pose exactly.
func ApplyToCameraPose(pose geometry.Transform, tf Transform) geometry.Transform {
	rt := tf.R.Transpose()
	composed := geometry.MulRotation(pose.R, rt)
	var scaled geometry.Rotation
	inv := 1 / tf.Scale
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			scaled[i][j] = composed[i][j] * inv
		}
	}
	t := geometry.SubVec3(pose.T, geometry.ApplyRotation(scaled, tf.T))
	return geometry.Transform{R: scaled, T: t}
}

// ApplyToArray applies tf to the pose of every posed camera in array,
// leaving unposed and ignored cameras untouched.
func ApplyToArray(array camera.Array, tf Transform) camera.Array {
	out := array
	for _, port := range out.Ports() {
		c, ok := out.Get(port)
		if !ok || !c.IsPosed() {
			continue
		}
		out = out.With(c.WithPose(ApplyToCameraPose(c.Pose, tf)))
	}
	return out
}
