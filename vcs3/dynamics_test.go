package vcs3

import (
	"math"
	"math/rand"
	"testing"
)

func TestCoefficientsForIsPure(t *testing.T) {
	a := CoefficientsFor(440, 1.5)
	b := CoefficientsFor(440, 1.5)

	if a != b {
		t.Fatalf("identical inputs produced different coefficients: %+v vs %+v", a, b)
	}
}

func TestCoefficientsForValues(t *testing.T) {
	c := CoefficientsFor(1000, 0)

	wantI0 := 4 * math.Pi * ladderCap * 1000
	if math.Abs(c.I0-wantI0) > 1e-18 {
		t.Fatalf("I0: got=%g want=%g", c.I0, wantI0)
	}

	wantStage := wantI0 / (4 * ladderCap * gammaV)
	if c.C1 != wantStage || c.C2 != wantStage || c.C3 != wantStage {
		t.Fatalf("stage rates: got=(%g, %g, %g) want=%g", c.C1, c.C2, c.C3, wantStage)
	}

	wantC4 := wantI0 * 0.5 / (4 * ladderCap * thermalVoltage)
	if math.Abs(c.C4-wantC4) > 1e-9 {
		t.Fatalf("C4: got=%g want=%g", c.C4, wantC4)
	}

	wantC5 := wantI0 / (12 * ladderCap * gammaV)
	if math.Abs(c.C5-wantC5) > 1e-9 {
		t.Fatalf("C5: got=%g want=%g", c.C5, wantC5)
	}
}

func TestDerivativeZeroAtRest(t *testing.T) {
	d := derivative(State{}, 0, CoefficientsFor(500, 0))

	if d != (State{}) {
		t.Fatalf("resting state with silent input must not move: %v", d)
	}
}

func TestDerivativeSaturationBound(t *testing.T) {
	// At |x_i| = 1 the (1-x^2) factor pins that component's derivative to
	// zero regardless of input drive.
	c := CoefficientsFor(2000, 1)
	x := State{1, -1, 1, -1, 1}

	d := derivative(x, 0.9, c)
	for i, v := range d {
		if v != 0 {
			t.Fatalf("component %d: derivative at saturation = %g, want 0", i, v)
		}
	}
}

func TestJacobianMatchesFiniteDifference(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	const h = 1e-6

	for trial := 0; trial < 100; trial++ {
		var x State
		for i := range x {
			x[i] = 1.8*rng.Float64() - 0.9
		}

		vTilde := 1.9*rng.Float64() - 0.95
		cutoff := 50 + 4950*rng.Float64()
		feedback := 2 * rng.Float64()
		c := CoefficientsFor(cutoff, feedback)

		jac := jacobian(x, vTilde, c)

		for col := 0; col < 5; col++ {
			plus := x
			minus := x
			plus[col] += h
			minus[col] -= h

			dPlus := derivative(plus, vTilde, c)
			dMinus := derivative(minus, vTilde, c)

			for row := 0; row < 5; row++ {
				fd := (dPlus[row] - dMinus[row]) / (2 * h)
				diff := math.Abs(fd - jac[row][col])
				scale := math.Max(1, math.Abs(jac[row][col]))

				if diff/scale > 1e-5 {
					t.Fatalf("trial %d entry (%d,%d): analytic=%g fd=%g", trial, row, col, jac[row][col], fd)
				}
			}
		}
	}
}

func TestJacobianSparsityPattern(t *testing.T) {
	// Entries outside the near-tridiagonal band plus the (1,4) input
	// coupling and the (3,5)/(4,3)/(4,5)/(5,3) output-sum couplings must
	// stay exactly zero.
	rng := rand.New(rand.NewSource(4))

	var x State
	for i := range x {
		x[i] = 1.6*rng.Float64() - 0.8
	}

	jac := jacobian(x, 0.3, CoefficientsFor(800, 0.7))

	nonzero := map[[2]int]bool{
		{0, 0}: true, {0, 1}: true, {0, 3}: true,
		{1, 0}: true, {1, 1}: true, {1, 2}: true,
		{2, 1}: true, {2, 2}: true, {2, 4}: true,
		{3, 2}: true, {3, 3}: true, {3, 4}: true,
		{4, 2}: true, {4, 4}: true,
	}

	for row := 0; row < 5; row++ {
		for col := 0; col < 5; col++ {
			if !nonzero[[2]int{row, col}] && jac[row][col] != 0 {
				t.Fatalf("entry (%d,%d) = %g, want structurally zero", row, col, jac[row][col])
			}
		}
	}
}

func TestInputDriveRange(t *testing.T) {
	for _, v := range []float64{-10, -1, -0.01, 0, 0.01, 1, 10} {
		d := inputDrive(v)
		if d < -1 || d > 1 {
			t.Fatalf("inputDrive(%g) = %g, outside [-1, 1]", v, d)
		}
	}

	if inputDrive(0) != 0 {
		t.Fatal("inputDrive(0) must be 0")
	}
}
