package core

import (
	"fmt"
	"math"

	"github.com/mprib/caliscope-core/align"
	"github.com/mprib/caliscope-core/geometry"
)

// AlignToObject estimates the similarity transform from b's triangulated
// world points at syncIndex to their known board-frame obj_loc
// coordinates, then applies it to every world point and every posed
// camera in b. Image points are unchanged. Requires at least 3 valid
// (world point, object point) correspondences at syncIndex.
func (b PointDataBundle) AlignToObject(syncIndex int) (PointDataBundle, error) {
	objByPoint := make(map[int]geometry.Vec3)
	for _, r := range b.Image.Rows {
		if r.SyncIndex != syncIndex || !r.HasObj {
			continue
		}
		if _, ok := objByPoint[r.PointID]; ok {
			continue
		}
		objByPoint[r.PointID] = geometry.Vec3{r.ObjX, r.ObjY, r.ObjZ}
	}

	var source, target []geometry.Vec3
	for _, w := range b.World.Rows {
		if w.SyncIndex != syncIndex {
			continue
		}
		obj, ok := objByPoint[w.PointID]
		if !ok {
			continue
		}
		source = append(source, geometry.Vec3{w.X, w.Y, w.Z})
		target = append(target, obj)
	}

	if len(source) < 3 {
		return PointDataBundle{}, fmt.Errorf("%w: need at least 3 point correspondences at sync_index %d, got %d", ErrInvalidInput, syncIndex, len(source))
	}

	tf, err := align.EstimateSimilarityTransform(source, target)
	if err != nil {
		return PointDataBundle{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	newArray := align.ApplyToArray(b.Array, tf)
	newWorld := align.ApplyToWorldPoints(b.World, tf)
	return New(newArray, b.Image, newWorld)
}

// Rotate rotates the world frame by degrees around axis (right-hand
// rule), applying the rotation in lockstep to cameras and world points.
// axis must be "x", "y", or "z".
func (b PointDataBundle) Rotate(axis string, degrees float64) (PointDataBundle, error) {
	rad := degrees * math.Pi / 180
	c, s := math.Cos(rad), math.Sin(rad)

	var r geometry.Rotation
	switch axis {
	case "x":
		r = geometry.Rotation{{1, 0, 0}, {0, c, -s}, {0, s, c}}
	case "y":
		r = geometry.Rotation{{c, 0, s}, {0, 1, 0}, {-s, 0, c}}
	case "z":
		r = geometry.Rotation{{c, -s, 0}, {s, c, 0}, {0, 0, 1}}
	default:
		return PointDataBundle{}, fmt.Errorf("%w: invalid axis %q, must be x, y, or z", ErrInvalidInput, axis)
	}

	tf := align.Transform{R: r, T: geometry.Vec3{}, Scale: 1}
	newArray := align.ApplyToArray(b.Array, tf)
	newWorld := align.ApplyToWorldPoints(b.World, tf)

	return New(newArray, b.Image, newWorld)
}
