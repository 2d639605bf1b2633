// Package reference integrates the continuous-time VCS3 ladder circuit with
// a classic fixed-step RK4 scheme. It is an independent formulation of the
// same circuit as package vcs3: it works directly on the four capacitor
// voltages rather than on the tanh-transformed states, and it is explicit
// rather than implicit. Tests use it as an oracle for the production filter;
// it has no place on the production path.
package reference

import "math"

const (
	thermalVoltage = 0.026
	diodeIdeality  = 1.836
	ladderCap      = 100e-9
	gammaV         = diodeIdeality * thermalVoltage
)

// Simulator integrates the VCS3 circuit at a fixed cutoff.
type Simulator struct {
	CutoffHz   float64
	Feedback   float64 // K
	SampleRate float64
	Substeps   int // RK4 steps per sample, minimum 1

	vC [4]float64
}

// Reset clears the capacitor voltages.
func (s *Simulator) Reset() {
	s.vC = [4]float64{}
}

// Render integrates the circuit across the input and returns one output
// sample per input sample. The input is linearly interpolated between
// samples for the RK4 midpoint evaluations.
func (s *Simulator) Render(input []float64) []float64 {
	substeps := s.Substeps
	if substeps < 1 {
		substeps = 1
	}

	h := 1 / (s.SampleRate * float64(substeps))
	out := make([]float64, len(input))

	prev := 0.0
	for n, next := range input {
		for k := 0; k < substeps; k++ {
			frac0 := float64(k) / float64(substeps)
			frac1 := (float64(k) + 0.5) / float64(substeps)
			frac2 := float64(k+1) / float64(substeps)

			v0 := prev + frac0*(next-prev)
			v1 := prev + frac1*(next-prev)
			v2 := prev + frac2*(next-prev)

			s.rk4Step(h, v0, v1, v2)
		}

		prev = next
		out[n] = (s.Feedback + 0.5) * s.vC[3]
	}

	return out
}

// rk4Step advances the capacitor voltages by h. vIn0, vInMid, vIn1 are the
// input voltages at the start, midpoint and end of the step.
func (s *Simulator) rk4Step(h, vIn0, vInMid, vIn1 float64) {
	k1 := s.derivative(s.vC, vIn0)
	k2 := s.derivative(axpy(s.vC, k1, h/2), vInMid)
	k3 := s.derivative(axpy(s.vC, k2, h/2), vInMid)
	k4 := s.derivative(axpy(s.vC, k3, h), vIn1)

	for i := range s.vC {
		s.vC[i] += h / 6 * (k1[i] + 2*k2[i] + 2*k3[i] + k4[i])
	}
}

// derivative evaluates the circuit ODE in terms of the raw capacitor
// voltages: each diode junction carries I0/2 times the tanh of its voltage
// over the junction scale, the input pair saturates over 2*VT, and the
// output node discharges through three series diodes.
func (s *Simulator) derivative(vC [4]float64, vIn float64) [4]float64 {
	i0 := 4 * math.Pi * ladderCap * s.CutoffHz
	scale := i0 / (2 * ladderCap)

	w0 := math.Tanh((vIn - (s.Feedback+0.5)*vC[3]) / (2 * thermalVoltage))
	w1 := math.Tanh((vC[1] - vC[0]) / (2 * gammaV))
	w2 := math.Tanh((vC[2] - vC[1]) / (2 * gammaV))
	w3 := math.Tanh((vC[3] - vC[2]) / (2 * gammaV))
	w4 := math.Tanh(vC[3] / (6 * gammaV))

	return [4]float64{
		scale * (w0 + w1),
		scale * (w2 - w1),
		scale * (w3 - w2),
		scale * (-w3 - w4),
	}
}

func axpy(v, d [4]float64, h float64) [4]float64 {
	for i := range v {
		v[i] += h * d[i]
	}

	return v
}
