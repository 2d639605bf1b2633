// Package solve5 provides a fixed-size 5x5 dense linear solver shared by the
// implicit filter steppers.
package solve5

import (
	"errors"
	"math"
)

// ErrSingular is returned when the best available pivot is too small to use
// reliably. Callers are expected to degrade locally (for example by skipping
// one Newton correction) rather than propagate the error.
var ErrSingular = errors.New("solve5: singular or near-singular system")

// pivotEpsilon is the smallest pivot magnitude accepted after the column
// pivot search. The systems solved here are Newton matrices of the form
// (T/2)*J - I, so entries are O(1) and an absolute threshold is adequate.
const pivotEpsilon = 1e-13

// Matrix is a dense 5x5 coefficient matrix in row-major order.
type Matrix [5][5]float64

// Vector is a length-5 column vector.
type Vector [5]float64

// Solve solves a*x = b by Gaussian elimination with partial pivoting.
// The arguments are taken by value; neither is modified.
func Solve(a Matrix, b Vector) (Vector, error) {
	for col := 0; col < 5; col++ {
		pivot := col
		best := math.Abs(a[col][col])

		for row := col + 1; row < 5; row++ {
			if mag := math.Abs(a[row][col]); mag > best {
				best = mag
				pivot = row
			}
		}

		if best <= pivotEpsilon {
			return Vector{}, ErrSingular
		}

		if pivot != col {
			a[col], a[pivot] = a[pivot], a[col]
			b[col], b[pivot] = b[pivot], b[col]
		}

		inv := 1 / a[col][col]
		for row := col + 1; row < 5; row++ {
			factor := a[row][col] * inv
			if factor == 0 {
				continue
			}

			a[row][col] = 0
			for k := col + 1; k < 5; k++ {
				a[row][k] -= factor * a[col][k]
			}

			b[row] -= factor * b[col]
		}
	}

	var x Vector
	for row := 4; row >= 0; row-- {
		sum := b[row]
		for k := row + 1; k < 5; k++ {
			sum -= a[row][k] * x[k]
		}

		x[row] = sum / a[row][row]
	}

	return x, nil
}

// MulVec returns a*x. It is used by tests and callers that verify residuals.
func MulVec(a Matrix, x Vector) Vector {
	var y Vector
	for row := 0; row < 5; row++ {
		sum := 0.0
		for col := 0; col < 5; col++ {
			sum += a[row][col] * x[col]
		}

		y[row] = sum
	}

	return y
}
