// Package core assembles the leaf packages (camera, points, posenet,
// bootstrap, triangulate, bundle, quality, align) into the calibration
// core's single public composite, PointDataBundle, and the pipeline
// operations that consume and return it: Optimize, the two filters,
// holdout and scale-accuracy scoring, and alignment/rotation.
// PointDataBundle is an immutable value type: every transformation returns
// a new value; the solver's internal iteration is the only mutation
// anywhere in the core.
package core

import "errors"

// ErrInvalidInput covers schema violations in ImagePoints/WorldPoints, a
// camera missing intrinsics when pose estimation begins, a similarity
// transform requested from fewer than 3 correspondences, a percentile
// outside (0, 100], or max_pixels <= 0.
var ErrInvalidInput = errors.New("core: invalid input")

// ErrInsufficientData covers a bundle with zero matched observations: a
// camera pair with zero shared observations is a silent bootstrap
// omission (not an error), but a bundle that cannot compute any residual
// cannot be constructed.
var ErrInsufficientData = errors.New("core: insufficient data")

// ErrOptimizationFailure names an algorithmic solver failure. Optimize
// does not return it: a step that no damping level makes solvable or
// acceptable (including a singular normal-equations matrix) ends the
// solve with status converged_small_step, and a solve that hits
// max_evaluations or improper_input returns a Result with
// Converged=false.
var ErrOptimizationFailure = errors.New("core: optimization failure")
