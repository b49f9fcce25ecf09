// Package bootstrap builds an initial pose network to seed bundle
// adjustment, in one of two interchangeable strategies that both compose
// per-camera PnP board poses into relative poses: a pairwise strategy on a
// small, time-diverse sample of shared frames, or per-frame PnP composed
// and averaged across every shared sync index.
package bootstrap

import (
	"errors"

	"github.com/mprib/caliscope-core/camera"
	"github.com/mprib/caliscope-core/points"
	"github.com/mprib/caliscope-core/posenet"
)

// Method selects which bootstrap strategy builds the pose network.
type Method int

const (
	// MethodPnP solves each frame's camera-to-board pose independently and
	// averages composed relative poses across shared frames. The default
	// (zero value). A pair of cameras gets a relative pose only from sync
	// indices at which both cameras solved a board pose.
	MethodPnP Method = iota
	// MethodStereoCalibrate samples up to BoardsSampled time-diverse frames
	// that a camera pair sees simultaneously, solves each camera's board
	// pose by PnP and composes and averages the relative poses. No joint
	// two-camera stereo calibration is run.
	MethodStereoCalibrate
)

// ErrUnknownMethod is returned for a Method value outside the documented set.
var ErrUnknownMethod = errors.New("bootstrap: unknown method")

// BuildPairedPoseNetwork builds a pose network over array's cameras from
// image observations ip, using the requested strategy.
func BuildPairedPoseNetwork(ip points.ImagePoints, array camera.Array, method Method, stereoOpts StereoOptions, pnpOpts PnPOptions) (posenet.Network, error) {
	switch method {
	case MethodStereoCalibrate:
		return BuildStereocalibrateNetwork(ip, array, stereoOpts), nil
	case MethodPnP:
		return BuildPnPNetwork(ip, array, pnpOpts), nil
	default:
		return posenet.Network{}, ErrUnknownMethod
	}
}
