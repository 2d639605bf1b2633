package solve5

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestSolveIdentity(t *testing.T) {
	var a Matrix
	for i := 0; i < 5; i++ {
		a[i][i] = 1
	}

	b := Vector{1, -2, 3, -4, 5}

	x, err := Solve(a, b)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}

	for i := range x {
		if x[i] != b[i] {
			t.Fatalf("component %d: got=%g want=%g", i, x[i], b[i])
		}
	}
}

func TestSolveRequiresPivoting(t *testing.T) {
	// Zero on the first diagonal entry forces a row swap.
	a := Matrix{
		{0, 1, 0, 0, 0},
		{1, 0, 0, 0, 0},
		{0, 0, 2, 0, 0},
		{0, 0, 0, 3, 0},
		{0, 0, 0, 0, 4},
	}
	b := Vector{2, 1, 4, 9, 16}

	x, err := Solve(a, b)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}

	want := Vector{1, 2, 2, 3, 4}
	for i := range x {
		if math.Abs(x[i]-want[i]) > 1e-14 {
			t.Fatalf("component %d: got=%g want=%g", i, x[i], want[i])
		}
	}
}

func TestSolveRoundTripRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 200; trial++ {
		var a Matrix
		for i := range a {
			for j := range a[i] {
				a[i][j] = rng.NormFloat64()
			}

			// Diagonal dominance keeps the trial systems well conditioned.
			a[i][i] += 6
		}

		var want Vector
		for i := range want {
			want[i] = rng.NormFloat64()
		}

		x, err := Solve(a, MulVec(a, want))
		if err != nil {
			t.Fatalf("trial %d: Solve() error = %v", trial, err)
		}

		for i := range x {
			if math.Abs(x[i]-want[i]) > 1e-10 {
				t.Fatalf("trial %d component %d: got=%g want=%g", trial, i, x[i], want[i])
			}
		}
	}
}

func TestSolveMatchesGonum(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	for trial := 0; trial < 50; trial++ {
		var a Matrix
		data := make([]float64, 25)
		for i := range a {
			for j := range a[i] {
				v := rng.NormFloat64()
				if i == j {
					v += 4
				}

				a[i][j] = v
				data[i*5+j] = v
			}
		}

		var b Vector
		bData := make([]float64, 5)
		for i := range b {
			b[i] = rng.NormFloat64()
			bData[i] = b[i]
		}

		got, err := Solve(a, b)
		if err != nil {
			t.Fatalf("trial %d: Solve() error = %v", trial, err)
		}

		var ref mat.VecDense
		if err := ref.SolveVec(mat.NewDense(5, 5, data), mat.NewVecDense(5, bData)); err != nil {
			t.Fatalf("trial %d: gonum SolveVec error = %v", trial, err)
		}

		for i := range got {
			if math.Abs(got[i]-ref.AtVec(i)) > 1e-10 {
				t.Fatalf("trial %d component %d: got=%g want=%g", trial, i, got[i], ref.AtVec(i))
			}
		}
	}
}

func TestSolveSingular(t *testing.T) {
	var zero Matrix

	if _, err := Solve(zero, Vector{1, 1, 1, 1, 1}); !errors.Is(err, ErrSingular) {
		t.Fatalf("zero matrix: error = %v, want ErrSingular", err)
	}

	// Two identical rows make the matrix rank deficient.
	dup := Matrix{
		{1, 2, 3, 4, 5},
		{1, 2, 3, 4, 5},
		{0, 0, 1, 0, 0},
		{0, 0, 0, 1, 0},
		{0, 0, 0, 0, 1},
	}

	x, err := Solve(dup, Vector{1, 2, 0, 0, 0})
	if !errors.Is(err, ErrSingular) {
		t.Fatalf("rank deficient matrix: error = %v, want ErrSingular", err)
	}

	for i := range x {
		if math.IsNaN(x[i]) {
			t.Fatalf("component %d is NaN, want zero value on failure", i)
		}
	}
}

func TestSolveDoesNotMutateArguments(t *testing.T) {
	a := Matrix{
		{0, 2, 0, 0, 0},
		{3, 0, 0, 0, 0},
		{0, 0, 1, 0, 0},
		{0, 0, 0, 1, 0},
		{0, 0, 0, 0, 1},
	}
	b := Vector{4, 9, 1, 1, 1}

	aCopy := a
	bCopy := b

	if _, err := Solve(a, b); err != nil {
		t.Fatalf("Solve() error = %v", err)
	}

	if a != aCopy || b != bCopy {
		t.Fatal("Solve mutated its arguments")
	}
}
