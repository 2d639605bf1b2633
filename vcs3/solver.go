package vcs3

import (
	"math"

	"github.com/cwbudde/algo-vcf/internal/solve5"
)

const (
	// maxNewtonIterations caps the accurate solver's per-sample work.
	maxNewtonIterations = 10
	// newtonTolerance is the correction infinity norm treated as converged.
	newtonTolerance = 1e-8
	// lineSearchFloor is the smallest backtracking scale. Below it the step
	// is accepted even without residual improvement.
	lineSearchFloor = 1e-3
	// realtimeIterations is the fixed correction count of the realtime
	// solver. It bounds the per-sample cost instead of checking convergence.
	realtimeIterations = 2
)

// Solver selects the implicit step strategy.
type Solver int

const (
	// SolverAccurate runs a damped Newton-Raphson iteration with a
	// backtracking line search and an early convergence exit. Intended for
	// offline rendering where per-sample cost may vary.
	SolverAccurate Solver = iota
	// SolverRealtime runs a fixed two-iteration predictor-corrector Newton
	// scheme with no line search. Per-sample cost is constant, which makes
	// it suitable for realtime use at a small accuracy cost.
	SolverRealtime
)

func (s Solver) String() string {
	switch s {
	case SolverAccurate:
		return "accurate"
	case SolverRealtime:
		return "realtime"
	default:
		return "unknown"
	}
}

func validSolver(s Solver) bool {
	return s == SolverAccurate || s == SolverRealtime
}

// Diagnostics reports numerical health counters accumulated while
// processing. Imperfect per-sample convergence never raises an error;
// these counters are the queryable record of it.
type Diagnostics struct {
	// Steps is the number of implicit steps taken at the oversampled rate.
	Steps uint64
	// NonConverged counts accurate-solver steps that exhausted the
	// iteration cap without meeting tolerance.
	NonConverged uint64
	// SingularSteps counts Newton corrections skipped because the local
	// linear system was reported singular.
	SingularSteps uint64
	// LastResidualNorm is the residual infinity norm of the most recent
	// accurate-solver step.
	LastResidualNorm float64
}

// stepper advances the ladder state by one sample period. Implementations
// hold only their own prediction history; the committed (state, aux) pair is
// owned by the Filter.
type stepper interface {
	advance(x, aux State, vTilde, halfT float64, c Coefficients, d *Diagnostics) (State, State)
	reset()
}

// residual evaluates the trapezoidal residual F(x) = aux + (T/2)*f(x) - x.
// A root of F is the state at the end of the sample period.
func residual(x, aux State, vTilde, halfT float64, c Coefficients) State {
	d := derivative(x, vTilde, c)

	var r State
	for i := range r {
		r[i] = aux[i] + halfT*d[i] - x[i]
	}

	return r
}

// newtonDelta solves ((T/2)*J - I) * delta = -F for one Newton correction.
// ok is false when the linear system is singular; the caller then treats the
// iteration as non-convergent and keeps the current iterate.
func newtonDelta(x, res State, vTilde, halfT float64, c Coefficients) (delta State, ok bool) {
	a := jacobian(x, vTilde, c)
	for i := range a {
		for k := range a[i] {
			a[i][k] *= halfT
		}

		a[i][i]--
	}

	var rhs solve5.Vector
	for i := range rhs {
		rhs[i] = -res[i]
	}

	sol, err := solve5.Solve(a, rhs)
	if err != nil {
		return State{}, false
	}

	return State(sol), true
}

func infNorm(v State) float64 {
	norm := 0.0
	for _, c := range v {
		if a := math.Abs(c); a > norm {
			norm = a
		}
	}

	return norm
}

// nextAux advances the trapezoidal auxiliary vector. The identity
// aux' = 2*x' - aux keeps aux equal to x' + (T/2)*f(x') without a second
// derivative evaluation.
func nextAux(x, aux State) State {
	var out State
	for i := range out {
		out[i] = 2*x[i] - aux[i]
	}

	return out
}

// accurateStepper is the variable-cost offline strategy: damped Newton with
// backtracking, converging to tolerance or stopping at the iteration cap.
type accurateStepper struct{}

func (accurateStepper) reset() {}

func (accurateStepper) advance(x, aux State, vTilde, halfT float64, c Coefficients, d *Diagnostics) (State, State) {
	xn := x
	res := residual(xn, aux, vTilde, halfT, c)
	norm := infNorm(res)

	converged := false
	for iter := 0; iter < maxNewtonIterations; iter++ {
		if norm == 0 {
			converged = true
			break
		}

		delta, ok := newtonDelta(xn, res, vTilde, halfT, c)
		if !ok {
			// Degraded step: keep the iterate, count it, move on.
			d.SingularSteps++
			break
		}

		scale := 1.0
		trial, trialRes, trialNorm := trialStep(xn, delta, scale, aux, vTilde, halfT, c)

		for trialNorm >= norm && scale >= lineSearchFloor {
			scale *= 0.5
			trial, trialRes, trialNorm = trialStep(xn, delta, scale, aux, vTilde, halfT, c)
		}

		xn, res, norm = trial, trialRes, trialNorm

		if infNorm(delta) < newtonTolerance {
			converged = true
			break
		}
	}

	if !converged {
		d.NonConverged++
	}

	d.LastResidualNorm = norm

	return xn, nextAux(xn, aux)
}

func trialStep(x, delta State, scale float64, aux State, vTilde, halfT float64, c Coefficients) (State, State, float64) {
	var trial State
	for i := range trial {
		trial[i] = x[i] + scale*delta[i]
	}

	res := residual(trial, aux, vTilde, halfT, c)

	return trial, res, infNorm(res)
}

// realtimeStepper is the bounded-cost strategy: a linear predictor from the
// two most recent committed states followed by exactly two undamped Newton
// corrections.
type realtimeStepper struct {
	prev State
}

func (r *realtimeStepper) reset() {
	r.prev = State{}
}

func (r *realtimeStepper) advance(x, aux State, vTilde, halfT float64, c Coefficients, d *Diagnostics) (State, State) {
	var xn State
	for i := range xn {
		xn[i] = 2*x[i] - r.prev[i]
	}

	for iter := 0; iter < realtimeIterations; iter++ {
		res := residual(xn, aux, vTilde, halfT, c)

		delta, ok := newtonDelta(xn, res, vTilde, halfT, c)
		if !ok {
			d.SingularSteps++
			break
		}

		for i := range xn {
			xn[i] += delta[i]
		}
	}

	r.prev = x

	return xn, nextAux(xn, aux)
}
