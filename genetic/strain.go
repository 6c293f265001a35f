package genetic

import (
	"math"
	"math/rand"

	"github.com/xtalopt/xtalopt-go/cell"
)

// randomSignedPermutation draws a random member of the hyperoctahedral group: a 3x3
// matrix with exactly one +-1 entry per row and per column, used by crossover to
// reorient a parent cell before ribbon-cutting (spec.md section 4.7).
func randomSignedPermutation(rng *rand.Rand) cell.Matrix3 {
	perm := rng.Perm(3)
	var m cell.Matrix3
	for row, col := range perm {
		sign := 1.0
		if rng.Intn(2) == 0 {
			sign = -1.0
		}
		m[row][col] = sign
	}
	return m
}

func matMul(a, b cell.Matrix3) cell.Matrix3 {
	var out cell.Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			sum := 0.0
			for k := 0; k < 3; k++ {
				sum += a[i][k] * b[k][j]
			}
			out[i][j] = sum
		}
	}
	return out
}

func matAdd(a, b cell.Matrix3) cell.Matrix3 {
	var out cell.Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = a[i][j] + b[i][j]
		}
	}
	return out
}

func matScale(a cell.Matrix3, s float64) cell.Matrix3 {
	var out cell.Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = a[i][j] * s
		}
	}
	return out
}

func identityMatrix() cell.Matrix3 {
	return cell.Matrix3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// voigtStrain builds a symmetric strain matrix I+eps whose off-diagonal terms are
// halved symmetric Gaussian perturbations with stddev sigma, per spec.md section 4.7's
// stripple/permustrain strain step.
func voigtStrain(sigma float64, rng *rand.Rand) cell.Matrix3 {
	if sigma == 0 {
		return identityMatrix()
	}
	var eps cell.Matrix3
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			v := rng.NormFloat64() * sigma
			eps[i][j] += v / 2
			eps[j][i] += v / 2
		}
	}
	return matAdd(identityMatrix(), eps)
}

// applyStrain returns the cell M.(I+eps), rescaled back to the original volume. It does
// not move atoms: callers cache each atom's fractional coordinate before the strain and
// re-embed it in the returned cell.
func applyStrain(m cell.Matrix3, eps cell.Matrix3, origVolume float64) cell.Cell {
	strained := cell.Cell{M: matMul(m, eps)}
	return strained.SetVolume(math.Abs(origVolume))
}
