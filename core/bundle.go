package core

import (
	"fmt"
	"sync"

	"github.com/mprib/caliscope-core/camera"
	"github.com/mprib/caliscope-core/points"
	"github.com/mprib/caliscope-core/quality"
)

// reportBox lazily memoizes ReprojectionReport. A PointDataBundle carries a
// pointer to one so that every value copy of the same logical bundle (e.g.
// the receiver of a method call) shares the same cache slot, matching the
// Python original's @cached_property without needing a mutable bundle.
type reportBox struct {
	once   sync.Once
	report quality.ReprojectionReport
}

// noMatch is the img_to_obj_map sentinel for an image observation with no
// corresponding world point.
const noMatch = -1

// PointDataBundle is the immutable composite over a CameraArray, its
// ImagePoints, and the WorldPoints triangulated or refined from them. It
// is the single value every pipeline stage (bootstrap -> triangulate ->
// optimize -> filter -> align) consumes and returns a new copy of.
type PointDataBundle struct {
	Array  camera.Array
	Image  points.ImagePoints
	World  points.WorldPoints
	Status *OptimizationStatus // nil unless this bundle is the direct output of Optimize

	imgToObj []int // parallel to Image.Rows; index into World.Rows, or noMatch
	report   *reportBox
}

// New validates inputs and constructs a PointDataBundle, computing the
// img_to_obj_map join on construction the way the Python original's
// __post_init__ does.
func New(array camera.Array, image points.ImagePoints, world points.WorldPoints) (PointDataBundle, error) {
	return newBundle(array, image, world, nil)
}

func newBundle(array camera.Array, image points.ImagePoints, world points.WorldPoints, status *OptimizationStatus) (PointDataBundle, error) {
	if array.Len() < 2 {
		return PointDataBundle{}, fmt.Errorf("%w: camera array must have at least two cameras", ErrInvalidInput)
	}
	if len(image.Rows) == 0 {
		return PointDataBundle{}, fmt.Errorf("%w: no image observations provided", ErrInvalidInput)
	}
	if len(world.Rows) == 0 {
		return PointDataBundle{}, fmt.Errorf("%w: no world points provided", ErrInvalidInput)
	}

	worldIdx := make(map[[2]int]int, len(world.Rows))
	for i, r := range world.Rows {
		worldIdx[[2]int{r.SyncIndex, r.PointID}] = i
	}

	imgToObj := make([]int, len(image.Rows))
	matchedPosed := false
	for i, r := range image.Rows {
		idx, ok := worldIdx[[2]int{r.SyncIndex, r.PointID}]
		if !ok {
			imgToObj[i] = noMatch
			continue
		}
		imgToObj[i] = idx
		if c, ok := array.Get(r.Port); ok && c.IsPosed() {
			matchedPosed = true
		}
	}
	if !matchedPosed {
		return PointDataBundle{}, fmt.Errorf("%w: no image observation both matches a world point and comes from a posed camera", ErrInsufficientData)
	}

	return PointDataBundle{Array: array, Image: image, World: world, Status: status, imgToObj: imgToObj, report: &reportBox{}}, nil
}

// ImgToObjMap returns, for each row of b.Image (in order), the row index
// into b.World it matches, or -1 if unmatched.
func (b PointDataBundle) ImgToObjMap() []int {
	out := make([]int, len(b.imgToObj))
	copy(out, b.imgToObj)
	return out
}
