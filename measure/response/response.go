package response

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

// Errors returned by response measurement.
var (
	ErrInvalidLength     = errors.New("response: length must be positive")
	ErrInvalidSampleRate = errors.New("response: sample rate must be positive")
	ErrInvalidFrequency  = errors.New("response: frequency must be positive and below Nyquist")
	ErrEmptySignal       = errors.New("response: signal is empty")
)

// Processor renders one sample at a time. vcs3.Filter satisfies it; any
// per-sample processor with the same error contract can be measured.
type Processor interface {
	ProcessSample(input float64) (float64, error)
}

// Impulse renders a unit impulse (1 at index 0) of length n through p and
// returns the response.
func Impulse(p Processor, n int) ([]float64, error) {
	if n <= 0 {
		return nil, ErrInvalidLength
	}

	out := make([]float64, n)
	for i := range out {
		x := 0.0
		if i == 0 {
			x = 1
		}

		y, err := p.ProcessSample(x)
		if err != nil {
			return nil, fmt.Errorf("response: sample %d: %w", i, err)
		}

		out[i] = y
	}

	return out, nil
}

// Magnitude returns the single-sided magnitude spectrum of signal, zero
// padded to the next power of two. The result has fftSize/2+1 bins.
func Magnitude(signal []float64) ([]float64, error) {
	if len(signal) == 0 {
		return nil, ErrEmptySignal
	}

	fftSize := nextPowerOf2(len(signal))

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("response: failed to create FFT plan: %w", err)
	}

	padded := make([]complex128, fftSize)
	for i, v := range signal {
		padded[i] = complex(v, 0)
	}

	spectrum := make([]complex128, fftSize)
	if err := plan.Forward(spectrum, padded); err != nil {
		return nil, fmt.Errorf("response: forward FFT failed: %w", err)
	}

	bins := fftSize/2 + 1
	re := make([]float64, bins)
	im := make([]float64, bins)
	for i := 0; i < bins; i++ {
		re[i] = real(spectrum[i])
		im[i] = imag(spectrum[i])
	}

	out := make([]float64, bins)
	vecmath.Magnitude(out, re, im)

	return out, nil
}

// Response is a measured single-sided magnitude response.
type Response struct {
	SampleRate float64
	Bins       []float64

	fftSize int
}

// Analyze measures the magnitude response of p from an n-sample impulse
// response. n should cover the processor's decay; energy beyond n is
// truncated and smears the low-frequency bins.
func Analyze(p Processor, n int, sampleRate float64) (Response, error) {
	if sampleRate <= 0 {
		return Response{}, ErrInvalidSampleRate
	}

	ir, err := Impulse(p, n)
	if err != nil {
		return Response{}, err
	}

	bins, err := Magnitude(ir)
	if err != nil {
		return Response{}, err
	}

	return Response{
		SampleRate: sampleRate,
		Bins:       bins,
		fftSize:    2 * (len(bins) - 1),
	}, nil
}

// BinWidth returns the frequency spacing between adjacent bins in Hz.
func (r Response) BinWidth() float64 {
	if r.fftSize == 0 {
		return 0
	}

	return r.SampleRate / float64(r.fftSize)
}

// At returns the magnitude at freqHz, linearly interpolated between bins.
func (r Response) At(freqHz float64) (float64, error) {
	bw := r.BinWidth()
	if bw <= 0 || freqHz < 0 || freqHz > r.SampleRate/2 {
		return 0, ErrInvalidFrequency
	}

	pos := freqHz / bw
	lo := int(pos)
	if lo >= len(r.Bins)-1 {
		return r.Bins[len(r.Bins)-1], nil
	}

	frac := pos - float64(lo)

	return r.Bins[lo] + frac*(r.Bins[lo+1]-r.Bins[lo]), nil
}

// AtDB returns the magnitude at freqHz in dB (20*log10 convention).
func (r Response) AtDB(freqHz float64) (float64, error) {
	m, err := r.At(freqHz)
	if err != nil {
		return 0, err
	}

	return 20 * math.Log10(m), nil
}

// ToneGain measures the steady-state amplitude gain of p at freqHz by
// rendering an n-sample sine and comparing output to input RMS over the
// second half, after the transient has settled.
func ToneGain(p Processor, freqHz, sampleRate, amplitude float64, n int) (float64, error) {
	if sampleRate <= 0 {
		return 0, ErrInvalidSampleRate
	}

	if freqHz <= 0 || freqHz >= sampleRate/2 {
		return 0, ErrInvalidFrequency
	}

	if n <= 0 || amplitude == 0 {
		return 0, ErrInvalidLength
	}

	step := 2 * math.Pi * freqHz / sampleRate

	var inSum, outSum float64
	half := n / 2

	for i := 0; i < n; i++ {
		x := amplitude * math.Sin(step*float64(i))

		y, err := p.ProcessSample(x)
		if err != nil {
			return 0, fmt.Errorf("response: sample %d: %w", i, err)
		}

		if i >= half {
			inSum += x * x
			outSum += y * y
		}
	}

	if inSum == 0 {
		return 0, ErrInvalidLength
	}

	return math.Sqrt(outSum / inSum), nil
}

func nextPowerOf2(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}

	return size
}
