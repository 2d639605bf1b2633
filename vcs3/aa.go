package vcs3

import "math"

// aaSection is a single RBJ lowpass biquad in Direct Form II Transposed,
// used as the anti-alias filter around the oversampled nonlinear core.
type aaSection struct {
	b0, b1, b2 float64
	a1, a2     float64

	d0, d1 float64
}

func newLowpassSection(freq, q, sampleRate float64) *aaSection {
	w0 := 2 * math.Pi * freq / sampleRate
	cw := math.Cos(w0)
	sw := math.Sin(w0)
	alpha := sw / (2 * q)

	b1 := 1 - cw
	b0 := b1 / 2
	b2 := b0
	a0 := 1 + alpha
	a1 := -2 * cw
	a2 := 1 - alpha

	inv := 1 / a0

	return &aaSection{
		b0: b0 * inv,
		b1: b1 * inv,
		b2: b2 * inv,
		a1: a1 * inv,
		a2: a2 * inv,
	}
}

func (s *aaSection) process(x float64) float64 {
	y := s.b0*x + s.d0
	s.d0 = s.b1*x - s.a1*y + s.d1
	s.d1 = s.b2*x - s.a2*y

	return y
}

func (s *aaSection) reset() {
	s.d0 = 0
	s.d1 = 0
}
