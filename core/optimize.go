package core

import "github.com/mprib/caliscope-core/bundle"

// Optimize runs bundle adjustment on b and returns a new PointDataBundle
// with refined extrinsics, refined 3D points, and OptimizationStatus
// populated. The original bundle is unchanged.
func (b PointDataBundle) Optimize(opts bundle.Options) (PointDataBundle, error) {
	result, err := bundle.Optimize(b.Image, b.Array, b.World, opts)
	if err != nil {
		return PointDataBundle{}, err
	}
	status := statusFromResult(result)
	return newBundle(result.Array, b.Image, result.World, &status)
}
