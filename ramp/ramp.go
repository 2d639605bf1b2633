// Package ramp generates per-sample cutoff-frequency schedules for
// time-varying filter control.
package ramp

import (
	"errors"
	"math"

	"github.com/cwbudde/algo-vcf/vcs3"
)

// Errors returned by schedule generation.
var (
	ErrInvalidFrequency = errors.New("ramp: frequency must be positive and finite")
	ErrInvalidLength    = errors.New("ramp: sample count must be positive")
)

// Schedule describes a cutoff trajectory from StartHz to EndHz over Samples
// samples. Downward sweeps (EndHz < StartHz) are allowed.
type Schedule struct {
	StartHz float64
	EndHz   float64
	Samples int
}

// Validate checks that the schedule parameters are usable.
func (s Schedule) Validate() error {
	if !finitePositive(s.StartHz) || !finitePositive(s.EndHz) {
		return ErrInvalidFrequency
	}

	if s.Samples <= 0 {
		return ErrInvalidLength
	}

	return nil
}

// Log returns a logarithmically spaced cutoff curve, one frequency per
// sample. Each octave of the sweep takes the same number of samples, which
// matches how cutoff is perceived and how analog sweep generators behave.
func (s Schedule) Log() ([]float64, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	out := make([]float64, s.Samples)
	if s.Samples == 1 {
		out[0] = s.StartHz
		return out, nil
	}

	instRatio := s.EndHz / s.StartHz
	inv := 1 / float64(s.Samples-1)
	for i := range out {
		out[i] = s.StartHz * math.Pow(instRatio, float64(i)*inv)
	}

	return out, nil
}

// Linear returns a linearly spaced cutoff curve, one frequency per sample.
func (s Schedule) Linear() ([]float64, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	out := make([]float64, s.Samples)
	if s.Samples == 1 {
		out[0] = s.StartHz
		return out, nil
	}

	step := (s.EndHz - s.StartHz) / float64(s.Samples-1)
	for i := range out {
		out[i] = s.StartHz + float64(i)*step
	}

	return out, nil
}

// Coefficients maps a cutoff curve to a per-sample coefficient stream for
// vcs3.Filter.Process. feedback is the filter's K parameter.
func Coefficients(freqs []float64, feedback float64) ([]vcs3.Coefficients, error) {
	out := make([]vcs3.Coefficients, len(freqs))
	for i, fc := range freqs {
		if !finitePositive(fc) {
			return nil, ErrInvalidFrequency
		}

		out[i] = vcs3.CoefficientsFor(fc, feedback)
	}

	return out, nil
}

func finitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
