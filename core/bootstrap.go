package core

import (
	"fmt"

	"github.com/mprib/caliscope-core/bootstrap"
	"github.com/mprib/caliscope-core/camera"
	"github.com/mprib/caliscope-core/points"
	"github.com/mprib/caliscope-core/triangulate"
)

// Bootstrap runs the full pipeline from raw observations to an initial
// PointDataBundle: build a pose network with the chosen strategy, apply
// it to array (anchor nil picks the lowest-error anchor automatically),
// then triangulate every point seen by at least two posed cameras.
func Bootstrap(ip points.ImagePoints, array camera.Array, method bootstrap.Method, stereoOpts bootstrap.StereoOptions, pnpOpts bootstrap.PnPOptions, anchor *int) (PointDataBundle, error) {
	if !array.HasIntrinsics() {
		return PointDataBundle{}, fmt.Errorf("%w: %w", ErrInvalidInput, camera.ErrMissingIntrinsics)
	}
	network, err := bootstrap.BuildPairedPoseNetwork(ip, array, method, stereoOpts, pnpOpts)
	if err != nil {
		return PointDataBundle{}, err
	}
	posed := network.ApplyTo(array, anchor)

	world, err := triangulate.TriangulateAll(ip, posed)
	if err != nil {
		return PointDataBundle{}, err
	}

	return New(posed, ip, world)
}
