package core

import "github.com/mprib/caliscope-core/bundle"

// OptimizationStatus is the result metadata attached to a PointDataBundle
// by Optimize; filter operations clear it, since filtering changes the
// problem the previous solve was scored against.
type OptimizationStatus struct {
	Converged         bool
	TerminationReason bundle.Status
	Iterations        int
	FinalCost         float64
}

func statusFromResult(r bundle.Result) OptimizationStatus {
	converged := r.Status == bundle.StatusConvergedGtol ||
		r.Status == bundle.StatusConvergedFtol ||
		r.Status == bundle.StatusConvergedXtol ||
		r.Status == bundle.StatusConvergedSmallStep
	return OptimizationStatus{
		Converged:         converged,
		TerminationReason: r.Status,
		Iterations:        r.Evaluations,
		FinalCost:         r.FinalCost,
	}
}
