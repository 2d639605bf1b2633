package vcs3

import (
	"math"

	"github.com/cwbudde/algo-vcf/internal/solve5"
)

// Physical constants of the modeled circuit.
const (
	// thermalVoltage is the transistor thermal voltage VT in volts.
	thermalVoltage = 0.026
	// diodeIdeality is the diode ideality factor eta.
	diodeIdeality = 1.836
	// ladderCap is the per-stage ladder capacitance in farads (0.1 uF).
	ladderCap = 100e-9
	// gammaV is eta*VT, the diode junction voltage scale in volts.
	gammaV = diodeIdeality * thermalVoltage
)

// State holds the five tanh-transformed ladder states. Components 1-3 are
// saturated inter-stage voltage differences, component 4 is the saturated
// feedback into the input pair and component 5 the saturated output-node
// voltage across the three series diodes. All components live in (-1, 1)
// for a healthy solve. They are not clamped; excursions outside that range
// indicate a diverging solve rather than loud audio.
type State [5]float64

// Coefficients is an immutable per-sample snapshot of the ladder rate
// coefficients derived from one cutoff frequency.
type Coefficients struct {
	I0 float64 // bias current in amperes

	C1 float64 // stage 1 rate, I0/(4*C*gamma)
	C2 float64 // stage 2 rate, equals C1
	C3 float64 // stage 3 rate, equals C1
	C4 float64 // feedback saturator rate, I0*(K+0.5)/(4*C*VT)
	C5 float64 // output diode chain rate, I0/(12*C*gamma)
}

// CoefficientsFor derives the ladder coefficients for a cutoff frequency in
// Hz and a feedback gain K. It is a pure function: identical inputs always
// produce identical coefficients.
func CoefficientsFor(cutoffHz, feedback float64) Coefficients {
	i0 := 4 * math.Pi * ladderCap * cutoffHz
	stage := i0 / (4 * ladderCap * gammaV)

	return Coefficients{
		I0: i0,
		C1: stage,
		C2: stage,
		C3: stage,
		C4: i0 * (feedback + 0.5) / (4 * ladderCap * thermalVoltage),
		C5: i0 / (12 * ladderCap * gammaV),
	}
}

// inputDrive returns the saturated input voltage tanh(vIn/(2*VT)). The input
// nonlinearity is folded into the dynamics through the tanh addition formula,
// so only this value (not vIn itself) enters the per-sample solve.
func inputDrive(vIn float64) float64 {
	return math.Tanh(vIn / (2 * thermalVoltage))
}

// derivative computes the state derivative of the ladder. vTilde is the
// saturated input from inputDrive; it depends only on the known input sample
// and is constant within one implicit solve. Every component has the leaky
// integrator form rate * (neighbor sum) * (1 - x^2), the (1-x^2) factor
// being the soft bound imposed by the diode saturation.
func derivative(x State, vTilde float64, c Coefficients) State {
	nl := (vTilde + x[3]) / (1 + vTilde*x[3])
	sum := x[2] + x[4]

	var d State
	d[0] = c.C1 * (1 - x[0]*x[0]) * (x[1] - 2*x[0] - nl)
	d[1] = c.C2 * (1 - x[1]*x[1]) * (x[0] - 2*x[1] + x[2])
	d[2] = c.C3 * (1 - x[2]*x[2]) * (x[1] - 2*x[2] - x[4])
	d[3] = c.C4 * (1 - x[3]*x[3]) * sum
	d[4] = -c.C5 * (1 - x[4]*x[4]) * sum

	return d
}

// jacobian computes the analytic derivative of derivative() with respect to
// x, holding vTilde fixed. It must match derivative() term by term; a
// mismatch does not break the maths outright but degrades Newton convergence
// badly, which is why dynamics_test.go checks it against finite differences.
func jacobian(x State, vTilde float64, c Coefficients) solve5.Matrix {
	den := 1 + vTilde*x[3]
	nl := (vTilde + x[3]) / den
	dnl := (1 - vTilde*vTilde) / (den * den)

	sq0 := 1 - x[0]*x[0]
	sq1 := 1 - x[1]*x[1]
	sq2 := 1 - x[2]*x[2]
	sq3 := 1 - x[3]*x[3]
	sq4 := 1 - x[4]*x[4]
	sum := x[2] + x[4]

	var j solve5.Matrix

	j[0][0] = c.C1 * (-2*sq0 - 2*x[0]*(x[1]-2*x[0]-nl))
	j[0][1] = c.C1 * sq0
	j[0][3] = -c.C1 * sq0 * dnl

	j[1][0] = c.C2 * sq1
	j[1][1] = c.C2 * (-2*sq1 - 2*x[1]*(x[0]-2*x[1]+x[2]))
	j[1][2] = c.C2 * sq1

	j[2][1] = c.C3 * sq2
	j[2][2] = c.C3 * (-2*sq2 - 2*x[2]*(x[1]-2*x[2]-x[4]))
	j[2][4] = -c.C3 * sq2

	j[3][2] = c.C4 * sq3
	j[3][3] = -2 * c.C4 * x[3] * sum
	j[3][4] = c.C4 * sq3

	j[4][2] = -c.C5 * sq4
	j[4][4] = -c.C5 * (sq4 - 2*x[4]*sum)

	return j
}

// outputSlope is the derivative of the output capacitor voltage vC4 for a
// given bias current and ladder state.
func outputSlope(i0 float64, x State) float64 {
	return -(i0 / (2 * ladderCap)) * (x[2] + x[4])
}

// outputCoupledStates returns the two state components that are direct
// functions of the output capacitor voltage. They are rewritten after every
// output integration so the inner solve and the outer trapezoid stay
// coupled.
func outputCoupledStates(vC4, feedback float64) (x4, x5 float64) {
	x4 = math.Tanh(-(feedback + 0.5) * vC4 / (2 * thermalVoltage))
	x5 = math.Tanh(vC4 / (6 * gammaV))

	return x4, x5
}
