package core

import "github.com/mprib/caliscope-core/quality"

// FilterByAbsoluteError drops matched observations with reprojection error
// above maxPixels, restoring the lowest-error dropped observations for any
// camera that would fall below minPerCamera, then pruning orphaned world
// points. The returned bundle's OptimizationStatus is always nil: filtering
// changes the problem, invalidating whatever solve produced b.
func (b PointDataBundle) FilterByAbsoluteError(maxPixels float64, minPerCamera int) (PointDataBundle, error) {
	image, world, err := quality.FilterByAbsoluteError(b.Image, b.Array, b.World, maxPixels, minPerCamera)
	if err != nil {
		return PointDataBundle{}, err
	}
	return New(b.Array, image, world)
}

// FilterByPercentileError drops the worst percentile% of matched
// observations (per camera or overall per scope), with the same safety
// floor and orphan pruning as FilterByAbsoluteError.
func (b PointDataBundle) FilterByPercentileError(percentile float64, scope quality.Scope, minPerCamera int) (PointDataBundle, error) {
	image, world, err := quality.FilterByPercentileError(b.Image, b.Array, b.World, percentile, scope, minPerCamera)
	if err != nil {
		return PointDataBundle{}, err
	}
	return New(b.Array, image, world)
}
