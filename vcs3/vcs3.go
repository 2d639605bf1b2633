package vcs3

import (
	"errors"
	"fmt"
	"math"
)

const (
	defaultCutoffHz   = 1000.0
	defaultFeedback   = 0.0
	defaultInputGain  = 1.0
	defaultOutputGain = 1.0

	minCutoffHz = 1.0
	maxFeedback = 10.0
	minGain     = 0.0
	maxGain     = 24.0
)

// Errors reported by stream processing.
var (
	// ErrNonFiniteInput indicates a NaN or Inf input sample. The implicit
	// solve cannot recover state poisoned by a non-finite value, so
	// processing stops instead of absorbing it.
	ErrNonFiniteInput = errors.New("vcs3: non-finite input sample")
	// ErrScheduleLength indicates a per-sample coefficient schedule whose
	// length does not match the input.
	ErrScheduleLength = errors.New("vcs3: schedule length does not match input length")
)

// Option mutates constructor configuration.
type Option func(*config) error

type config struct {
	solver       Solver
	cutoffHz     float64
	feedback     float64
	inputGain    float64
	outputGain   float64
	overSampling int
}

func defaultConfig() config {
	return config{
		solver:       SolverAccurate,
		cutoffHz:     defaultCutoffHz,
		feedback:     defaultFeedback,
		inputGain:    defaultInputGain,
		outputGain:   defaultOutputGain,
		overSampling: 1,
	}
}

// WithSolver selects the implicit step strategy.
func WithSolver(solver Solver) Option {
	return func(cfg *config) error {
		if !validSolver(solver) {
			return fmt.Errorf("vcs3: invalid solver: %d", solver)
		}

		cfg.solver = solver

		return nil
	}
}

// WithCutoffHz sets the cutoff frequency in Hz. Must be finite and >= 1.
func WithCutoffHz(cutoffHz float64) Option {
	return func(cfg *config) error {
		if err := validateFiniteRange(cutoffHz, minCutoffHz, math.Inf(1), "cutoff"); err != nil {
			return err
		}

		cfg.cutoffHz = cutoffHz

		return nil
	}
}

// WithFeedback sets the feedback gain K in [0, 10].
func WithFeedback(feedback float64) Option {
	return func(cfg *config) error {
		if err := validateFiniteRange(feedback, 0, maxFeedback, "feedback"); err != nil {
			return err
		}

		cfg.feedback = feedback

		return nil
	}
}

// WithInputGain sets the linear gain applied before the input saturator.
func WithInputGain(gain float64) Option {
	return func(cfg *config) error {
		if err := validateFiniteRange(gain, minGain, maxGain, "input gain"); err != nil {
			return err
		}

		cfg.inputGain = gain

		return nil
	}
}

// WithOutputGain sets the linear gain applied to the emitted output.
func WithOutputGain(gain float64) Option {
	return func(cfg *config) error {
		if err := validateFiniteRange(gain, minGain, maxGain, "output gain"); err != nil {
			return err
		}

		cfg.outputGain = gain

		return nil
	}
}

// WithOversampling sets the internal oversampling factor used around the
// nonlinear solve. Allowed values: 1, 2, 4, 8.
func WithOversampling(factor int) Option {
	return func(cfg *config) error {
		if !validOversampling(factor) {
			return fmt.Errorf("vcs3: oversampling factor must be one of {1,2,4,8}: %d", factor)
		}

		cfg.overSampling = factor

		return nil
	}
}

// Snapshot contains the complete runtime state of one filter instance for
// save/restore workflows.
type Snapshot struct {
	Ladder        State   // committed ladder state
	Aux           State   // trapezoidal auxiliary vector
	Predictor     State   // realtime solver prediction history
	OutputVoltage float64 // output capacitor voltage vC4
	PrevBias      float64 // bias current active when Ladder was committed
	PrevInput     float64 // previous input sample (oversampling ramp)
}

// Filter is a nonlinear state-space model of the EMS VCS3 voltage-controlled
// filter. It advances a five-state diode ladder one sample at a time through
// an implicit trapezoidal discretization, resolved per sample by a Newton
// iteration, and integrates the output capacitor voltage separately.
//
// A Filter owns all of its state; independent streams need independent
// instances. Processing is strictly sequential, each sample's solve depends
// on the previous sample's committed state.
type Filter struct {
	sampleRate float64

	solver       Solver
	cutoffHz     float64
	feedback     float64
	inputGain    float64
	outputGain   float64
	overSampling int

	coeffs Coefficients
	period float64

	x        State
	aux      State
	vC4      float64
	prevBias float64
	step     stepper
	diag     Diagnostics

	prevInput     float64
	antiAliasUp   *aaSection
	antiAliasDown *aaSection
}

// New constructs a VCS3 filter for the given sample rate.
func New(sampleRate float64, opts ...Option) (*Filter, error) {
	if !isFinite(sampleRate) || sampleRate <= 0 {
		return nil, fmt.Errorf("vcs3: sample rate must be > 0 and finite: %f", sampleRate)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	f := &Filter{
		sampleRate:   sampleRate,
		solver:       cfg.solver,
		cutoffHz:     cfg.cutoffHz,
		feedback:     cfg.feedback,
		inputGain:    cfg.inputGain,
		outputGain:   cfg.outputGain,
		overSampling: cfg.overSampling,
	}

	f.step = newStepper(cfg.solver)

	if err := f.rebuild(); err != nil {
		return nil, err
	}

	f.prevBias = f.coeffs.I0

	return f, nil
}

func newStepper(s Solver) stepper {
	if s == SolverRealtime {
		return &realtimeStepper{}
	}

	return accurateStepper{}
}

// SampleRate returns the sample rate in Hz.
func (f *Filter) SampleRate() float64 { return f.sampleRate }

// Solver returns the selected implicit step strategy.
func (f *Filter) Solver() Solver { return f.solver }

// CutoffHz returns the cutoff frequency in Hz.
func (f *Filter) CutoffHz() float64 { return f.cutoffHz }

// Feedback returns the feedback gain K.
func (f *Filter) Feedback() float64 { return f.feedback }

// InputGain returns the pre-saturator input gain.
func (f *Filter) InputGain() float64 { return f.inputGain }

// OutputGain returns the output gain.
func (f *Filter) OutputGain() float64 { return f.outputGain }

// Oversampling returns the internal oversampling factor.
func (f *Filter) Oversampling() int { return f.overSampling }

// Coefficients returns the coefficient snapshot for the current cutoff.
func (f *Filter) Coefficients() Coefficients { return f.coeffs }

// Diagnostics returns the numerical health counters accumulated since the
// last Reset.
func (f *Filter) Diagnostics() Diagnostics { return f.diag }

// SetSampleRate updates the sample rate and rebuilds derived parameters.
func (f *Filter) SetSampleRate(sampleRate float64) error {
	if !isFinite(sampleRate) || sampleRate <= 0 {
		return fmt.Errorf("vcs3: sample rate must be > 0 and finite: %f", sampleRate)
	}

	f.sampleRate = sampleRate

	return f.rebuild()
}

// SetSolver switches the implicit step strategy. The prediction history of
// the previous strategy is discarded.
func (f *Filter) SetSolver(solver Solver) error {
	if !validSolver(solver) {
		return fmt.Errorf("vcs3: invalid solver: %d", solver)
	}

	if solver != f.solver {
		f.solver = solver
		f.step = newStepper(solver)
	}

	return nil
}

// SetCutoffHz updates the cutoff frequency and rebuilds coefficients.
func (f *Filter) SetCutoffHz(cutoffHz float64) error {
	if err := validateFiniteRange(cutoffHz, minCutoffHz, math.Inf(1), "cutoff"); err != nil {
		return err
	}

	f.cutoffHz = cutoffHz

	return f.rebuild()
}

// SetFeedback updates the feedback gain K and rebuilds coefficients.
func (f *Filter) SetFeedback(feedback float64) error {
	if err := validateFiniteRange(feedback, 0, maxFeedback, "feedback"); err != nil {
		return err
	}

	f.feedback = feedback

	return f.rebuild()
}

// SetInputGain updates the pre-saturator input gain.
func (f *Filter) SetInputGain(gain float64) error {
	if err := validateFiniteRange(gain, minGain, maxGain, "input gain"); err != nil {
		return err
	}

	f.inputGain = gain

	return nil
}

// SetOutputGain updates the output gain.
func (f *Filter) SetOutputGain(gain float64) error {
	if err := validateFiniteRange(gain, minGain, maxGain, "output gain"); err != nil {
		return err
	}

	f.outputGain = gain

	return nil
}

// SetOversampling updates the oversampling factor and rebuilds the
// anti-alias sections.
func (f *Filter) SetOversampling(factor int) error {
	if !validOversampling(factor) {
		return fmt.Errorf("vcs3: oversampling factor must be one of {1,2,4,8}: %d", factor)
	}

	f.overSampling = factor

	return f.rebuild()
}

// Reset clears all runtime state and diagnostics.
func (f *Filter) Reset() {
	f.x = State{}
	f.aux = State{}
	f.vC4 = 0
	f.prevBias = f.coeffs.I0
	f.prevInput = 0
	f.diag = Diagnostics{}
	f.step.reset()

	if f.antiAliasUp != nil {
		f.antiAliasUp.reset()
	}

	if f.antiAliasDown != nil {
		f.antiAliasDown.reset()
	}
}

// Snapshot returns a copy of the current runtime state.
func (f *Filter) Snapshot() Snapshot {
	snap := Snapshot{
		Ladder:        f.x,
		Aux:           f.aux,
		OutputVoltage: f.vC4,
		PrevBias:      f.prevBias,
		PrevInput:     f.prevInput,
	}

	if rt, ok := f.step.(*realtimeStepper); ok {
		snap.Predictor = rt.prev
	}

	return snap
}

// Restore replaces the runtime state with an externally saved snapshot.
func (f *Filter) Restore(snap Snapshot) error {
	if !snapshotIsFinite(snap) {
		return fmt.Errorf("vcs3: snapshot contains NaN or Inf")
	}

	f.x = snap.Ladder
	f.aux = snap.Aux
	f.vC4 = snap.OutputVoltage
	f.prevBias = snap.PrevBias
	f.prevInput = snap.PrevInput

	if rt, ok := f.step.(*realtimeStepper); ok {
		rt.prev = snap.Predictor
	}

	return nil
}

// ProcessSample advances the filter by one sample at the configured cutoff
// and returns the output sample. A non-finite input returns
// ErrNonFiniteInput and leaves the state untouched.
func (f *Filter) ProcessSample(input float64) (float64, error) {
	return f.processSample(input, f.coeffs)
}

// Process renders input through the filter and returns an equal-length
// output slice. schedule optionally supplies one coefficient snapshot per
// input sample, typically derived from a time-varying cutoff ramp; a nil
// schedule uses the configured cutoff throughout.
func (f *Filter) Process(input []float64, schedule []Coefficients) ([]float64, error) {
	if schedule != nil && len(schedule) != len(input) {
		return nil, ErrScheduleLength
	}

	out := make([]float64, len(input))
	for i, x := range input {
		c := f.coeffs
		if schedule != nil {
			c = schedule[i]
		}

		y, err := f.processSample(x, c)
		if err != nil {
			return nil, fmt.Errorf("vcs3: sample %d: %w", i, err)
		}

		out[i] = y
	}

	return out, nil
}

// ProcessInPlace processes a mono buffer in place at the configured cutoff.
func (f *Filter) ProcessInPlace(buf []float64) error {
	for i, x := range buf {
		y, err := f.ProcessSample(x)
		if err != nil {
			return fmt.Errorf("vcs3: sample %d: %w", i, err)
		}

		buf[i] = y
	}

	return nil
}

// ProcessTo processes src into dst. Both slices must have the same length.
func (f *Filter) ProcessTo(dst, src []float64) error {
	n := len(src)
	if n == 0 {
		return nil
	}

	_ = dst[n-1]
	for i, x := range src {
		y, err := f.ProcessSample(x)
		if err != nil {
			return fmt.Errorf("vcs3: sample %d: %w", i, err)
		}

		dst[i] = y
	}

	return nil
}

func (f *Filter) processSample(input float64, c Coefficients) (float64, error) {
	if !isFinite(input) {
		return 0, ErrNonFiniteInput
	}

	if f.overSampling <= 1 {
		out := f.processCore(input, c)
		f.prevInput = input

		return out, nil
	}

	prev := f.prevInput
	delta := (input - prev) / float64(f.overSampling)

	var out float64
	for i := range f.overSampling {
		subInput := prev + delta*float64(i+1)

		if f.antiAliasUp != nil {
			subInput = f.antiAliasUp.process(subInput)
		}

		subOutput := f.processCore(subInput, c)
		if f.antiAliasDown != nil {
			subOutput = f.antiAliasDown.process(subOutput)
		}

		out = subOutput
	}

	f.prevInput = input

	return out, nil
}

// processCore advances the ladder by one period at the oversampled rate and
// integrates the output node. The previous slope estimate is recomputed here
// from the committed state with the bias current that was active when that
// state was committed; reusing a stored slope would pair it with the wrong
// coefficient once the cutoff moves.
func (f *Filter) processCore(input float64, c Coefficients) float64 {
	slopePrev := outputSlope(f.prevBias, f.x)

	vTilde := inputDrive(f.inputGain * input)
	halfT := 0.5 * f.period

	f.x, f.aux = f.step.advance(f.x, f.aux, vTilde, halfT, c, &f.diag)
	f.diag.Steps++

	slopeNow := outputSlope(c.I0, f.x)
	f.vC4 += halfT * (slopePrev + slopeNow)

	f.x[3], f.x[4] = outputCoupledStates(f.vC4, f.feedback)
	f.prevBias = c.I0

	return f.outputGain * (f.feedback + 0.5) * f.vC4
}

func (f *Filter) rebuild() error {
	if err := validateFiniteRange(f.cutoffHz, minCutoffHz, math.Inf(1), "cutoff"); err != nil {
		return err
	}

	baseNyquist := f.sampleRate * 0.5
	if f.cutoffHz >= baseNyquist {
		return fmt.Errorf("vcs3: cutoff must be < Nyquist (%f Hz): %f", baseNyquist, f.cutoffHz)
	}

	f.coeffs = CoefficientsFor(f.cutoffHz, f.feedback)
	f.period = 1 / (f.sampleRate * float64(f.overSampling))
	f.buildAntiAliasSections()

	return nil
}

func (f *Filter) buildAntiAliasSections() {
	if f.overSampling <= 1 {
		f.antiAliasUp = nil
		f.antiAliasDown = nil

		return
	}

	osRate := f.sampleRate * float64(f.overSampling)
	antiAliasHz := f.sampleRate * 0.225

	f.antiAliasUp = newLowpassSection(antiAliasHz, 0.7071067811865476, osRate)
	f.antiAliasDown = newLowpassSection(antiAliasHz, 0.7071067811865476, osRate)
}

func validOversampling(factor int) bool {
	return factor == 1 || factor == 2 || factor == 4 || factor == 8
}

func validateFiniteRange(value, min, max float64, name string) error {
	if !isFinite(value) {
		return fmt.Errorf("vcs3: %s must be finite: %v", name, value)
	}

	if value < min || value > max {
		return fmt.Errorf("vcs3: %s must be in [%g, %g]: %f", name, min, max, value)
	}

	return nil
}

func snapshotIsFinite(snap Snapshot) bool {
	for _, v := range snap.Ladder {
		if !isFinite(v) {
			return false
		}
	}

	for _, v := range snap.Aux {
		if !isFinite(v) {
			return false
		}
	}

	for _, v := range snap.Predictor {
		if !isFinite(v) {
			return false
		}
	}

	return isFinite(snap.OutputVoltage) && isFinite(snap.PrevBias) && isFinite(snap.PrevInput)
}

func isFinite(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}
