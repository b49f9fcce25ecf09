package bundle

import (
	"math"

	"github.com/mprib/caliscope-core/camera"
	"github.com/mprib/caliscope-core/internal/linalg"
	"github.com/mprib/caliscope-core/points"
)

// Status names the reason an optimization run stopped, matching the tags
// scipy.optimize.least_squares uses for its termination codes; caliscope's
// bundle adjustment surfaces these verbatim to callers.
type Status string

const (
	StatusConvergedGtol      Status = "converged_gtol"
	StatusConvergedFtol      Status = "converged_ftol"
	StatusConvergedXtol      Status = "converged_xtol"
	StatusConvergedSmallStep Status = "converged_small_step"
	StatusMaxEvaluations     Status = "max_evaluations"
	StatusImproperInput      Status = "improper_input"
)

// Options tunes the Levenberg-Marquardt solve. Zero fields fall back to
// the documented defaults via WithDefaults.
type Options struct {
	Ftol             float64
	Gtol             float64
	Xtol             float64
	MaxEvaluations   int
	InitialDamping   float64
	MaxDampingTries  int
}

// WithDefaults fills zero fields with scipy.optimize.least_squares'
// documented defaults (ftol=gtol=xtol=1e-8), except max_nfev, which
// caliscope pins to 1000 rather than leaving it unbounded.
func (o Options) WithDefaults() Options {
	if o.Ftol <= 0 {
		o.Ftol = 1e-8
	}
	if o.Gtol <= 0 {
		o.Gtol = 1e-8
	}
	if o.Xtol <= 0 {
		o.Xtol = 1e-8
	}
	if o.MaxEvaluations <= 0 {
		o.MaxEvaluations = 1000
	}
	if o.InitialDamping <= 0 {
		o.InitialDamping = 1e-3
	}
	if o.MaxDampingTries <= 0 {
		o.MaxDampingTries = 30
	}
	return o
}

// Result is the outcome of Optimize: refined extrinsics on Array, refined
// positions on World, and the Status explaining why the solve stopped.
type Result struct {
	Array       camera.Array
	World       points.WorldPoints
	Status      Status
	FinalCost   float64
	Evaluations int
}

// Optimize jointly refines every posed camera's extrinsics and every
// observed point's position to minimize summed squared reprojection
// error, via damped Gauss-Newton (Levenberg-Marquardt) with the normal
// equations solved by internal/linalg.CholeskySolve.
func Optimize(ip points.ImagePoints, array camera.Array, world points.WorldPoints, opts Options) (Result, error) {
	opts = opts.WithDefaults()

	pi := buildParamIndex(array, world, ip)
	if pi.nCams() == 0 || pi.nPoints() == 0 {
		return Result{Array: array, World: world, Status: StatusImproperInput}, nil
	}

	x, err := packParams(array, world, pi)
	if err != nil {
		return Result{}, err
	}
	obs := buildObservations(ip, array, pi)
	if len(obs) == 0 {
		return Result{Array: array, World: world, Status: StatusImproperInput}, nil
	}

	nParams := pi.nParams()
	lambda := opts.InitialDamping
	curCost := cost(x, obs)
	evaluations := 1
	status := StatusMaxEvaluations

loop:
	for evaluations < opts.MaxEvaluations {
		JTJ, JTr := accumulateNormalEquations(x, obs, nParams)

		gradNorm := infNorm(JTr)
		if gradNorm < opts.Gtol {
			status = StatusConvergedGtol
			break
		}

		accepted := false
		for try := 0; try < opts.MaxDampingTries; try++ {
			damped := JTJ.Clone()
			for i := 0; i < nParams; i++ {
				damped.Set(i, i, damped.Get(i, i)*(1+lambda))
			}
			negJTr := make([]float64, nParams)
			for i, v := range JTr {
				negJTr[i] = -v
			}

			delta, err := linalg.CholeskySolve(damped, negJTr)
			evaluations++
			if err != nil {
				lambda *= 10
				continue
			}

			xNew := make([]float64, nParams)
			for i := range x {
				xNew[i] = x[i] + delta[i]
			}
			newCost := cost(xNew, obs)
			evaluations++

			if newCost < curCost {
				stepNorm := vectorNorm(delta)
				relImprovement := 0.0
				if curCost > 0 {
					relImprovement = (curCost - newCost) / curCost
				}
				xNorm := vectorNorm(x)

				x = xNew
				curCost = newCost
				lambda = math.Max(lambda/10, 1e-12)
				accepted = true

				if relImprovement < opts.Ftol {
					status = StatusConvergedFtol
					break loop
				}
				if stepNorm < opts.Xtol*(xNorm+opts.Xtol) {
					status = StatusConvergedXtol
					break loop
				}
				break
			}
			lambda *= 10
		}

		if !accepted {
			status = StatusConvergedSmallStep
			break
		}
	}

	outArray, outWorld, err := unpackParams(x, array, world, pi)
	if err != nil {
		return Result{}, err
	}
	return Result{Array: outArray, World: outWorld, Status: status, FinalCost: curCost, Evaluations: evaluations}, nil
}

func infNorm(v []float64) float64 {
	var m float64
	for _, x := range v {
		if a := math.Abs(x); a > m {
			m = a
		}
	}
	return m
}

func vectorNorm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}
