package cell

import "math"

// ReduceStatus reports whether a Niggli reduction converged.
type ReduceStatus int

const (
	Reduced ReduceStatus = iota
	Unreduced
)

// characteristicForm is the six Niggli scalars A,B,C,xi,eta,zeta used by the
// Krivy-Gruber algorithm, where A=a.a, B=b.b, C=c.c, xi=2 b.c, eta=2 a.c, zeta=2 a.b.
type characteristicForm struct {
	A, B, C, xi, eta, zeta float64
}

func toCharacteristicForm(m Matrix3) characteristicForm {
	return characteristicForm{
		A:    dot(m[0], m[0]),
		B:    dot(m[1], m[1]),
		C:    dot(m[2], m[2]),
		xi:   2 * dot(m[1], m[2]),
		eta:  2 * dot(m[0], m[2]),
		zeta: 2 * dot(m[0], m[1]),
	}
}

// NiggliReduce applies the Krivy-Gruber characteristic-form reduction, up to maxIters
// conditioned steps. It returns the reduced cell, the accumulated change-of-basis
// matrix C (with det(C) = +-1) such that the returned cell equals C * original, and
// a status. Callers must not trust the returned cell when status is Unreduced; the
// original cell is returned unchanged in that case.
func NiggliReduce(c Cell, maxIters int) (reduced Cell, basis Matrix3, status ReduceStatus) {
	v0 := math.Abs(c.Volume())
	tol := 1e-5 * math.Cbrt(v0)
	if tol <= 0 {
		tol = 1e-5
	}

	basis = identity3()
	f := toCharacteristicForm(c.M)

	eq := func(x, y float64) bool { return math.Abs(x-y) < tol }
	lt := func(x, y float64) bool { return x < y-tol }

	for iter := 0; iter < maxIters; iter++ {
		changed := false

		// Step 1: order A <= B <= C.
		if lt(f.B, f.A) || (eq(f.A, f.B) && lt(math.Abs(f.xi), math.Abs(f.eta))) {
			f.A, f.B = f.B, f.A
			f.xi, f.eta = f.eta, f.xi
			swapRows(&basis, 0, 1)
			changed = true
		}
		if lt(f.C, f.B) || (eq(f.B, f.C) && lt(math.Abs(f.eta), math.Abs(f.zeta))) {
			f.B, f.C = f.C, f.B
			f.eta, f.zeta = f.zeta, f.eta
			swapRows(&basis, 1, 2)
			changed = true
			continue
		}

		// Step 3/4: make xi, eta, zeta consistently signed (all > 0 or all <= 0).
		signCount := 0
		if f.xi > tol {
			signCount++
		}
		if f.eta > tol {
			signCount++
		}
		if f.zeta > tol {
			signCount++
		}
		allPositiveAttempt := signCount >= 2
		if !nearZeroTriple(f, tol) {
			if allPositiveAttempt {
				if f.xi <= tol {
					f.xi = -f.xi
					negateRow(&basis, 1)
					changed = true
				}
				if f.eta <= tol {
					f.eta = -f.eta
					negateRow(&basis, 0)
					changed = true
				}
				if f.zeta <= tol {
					f.zeta = -f.zeta
					negateRow(&basis, 0)
					negateRow(&basis, 1)
					changed = true
				}
			} else {
				if f.xi > tol {
					f.xi = -f.xi
					negateRow(&basis, 1)
					changed = true
				}
				if f.eta > tol {
					f.eta = -f.eta
					negateRow(&basis, 0)
					changed = true
				}
				if f.zeta > tol {
					f.zeta = -f.zeta
					negateRow(&basis, 0)
					negateRow(&basis, 1)
					changed = true
				}
			}
		}

		// Step 5: |xi| > B -> reduce via c -= round(xi/2B) b.
		if math.Abs(f.xi) > f.B+tol {
			n := math.Round(f.xi / (2 * f.B))
			f.C += n*n*f.B - n*f.xi
			f.xi -= 2 * n * f.B
			f.eta -= n * f.zeta
			addScaledRow(&basis, 2, 1, -n)
			changed = true
			continue
		}
		// Step 6: |eta| > A.
		if math.Abs(f.eta) > f.A+tol {
			n := math.Round(f.eta / (2 * f.A))
			f.C += n*n*f.A - n*f.eta
			f.eta -= 2 * n * f.A
			f.xi -= n * f.zeta
			addScaledRow(&basis, 2, 0, -n)
			changed = true
			continue
		}
		// Step 7: |zeta| > A.
		if math.Abs(f.zeta) > f.A+tol {
			n := math.Round(f.zeta / (2 * f.A))
			f.B += n*n*f.A - n*f.zeta
			f.zeta -= 2 * n * f.A
			f.xi -= n * f.eta
			addScaledRow(&basis, 1, 0, -n)
			changed = true
			continue
		}
		// Step 8: special boundary case, sum of off-diagonals negative and large.
		sum := f.xi + f.eta + f.zeta + f.A + f.B
		if sum < -tol || (math.Abs(sum) < tol && 2*(f.A+f.eta) >= f.zeta-tol) {
			f.C += f.A + f.B + f.xi + f.eta + f.zeta
			f.xi += 2*f.B + f.zeta
			f.eta += 2*f.A + f.zeta
			addScaledRow(&basis, 2, 0, 1)
			addScaledRow(&basis, 2, 1, 1)
			changed = true
			continue
		}

		if !changed {
			return applyBasis(c, basis), basis, Reduced
		}
	}
	return c, identity3(), Unreduced
}

func nearZeroTriple(f characteristicForm, tol float64) bool {
	return math.Abs(f.xi) < tol && math.Abs(f.eta) < tol && math.Abs(f.zeta) < tol
}

func identity3() Matrix3 {
	return Matrix3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

func swapRows(m *Matrix3, i, j int) {
	m[i], m[j] = m[j], m[i]
}

func negateRow(m *Matrix3, i int) {
	for k := range m[i] {
		m[i][k] = -m[i][k]
	}
}

func addScaledRow(m *Matrix3, dst, src int, scale float64) {
	for k := range m[dst] {
		m[dst][k] += scale * m[src][k]
	}
}

// applyBasis transforms cell by C . M, where C is the accumulated change-of-basis
// matrix (rows are the new lattice vectors expressed in the old basis).
func applyBasis(c Cell, basis Matrix3) Cell {
	var out Matrix3
	for i := 0; i < 3; i++ {
		for k := 0; k < 3; k++ {
			out[i][k] = basis[i][0]*c.M[0][k] + basis[i][1]*c.M[1][k] + basis[i][2]*c.M[2][k]
		}
	}
	return Cell{M: out}
}

// IsNiggliReduced validates Gruber's type-I/type-II consistency criterion on explicit
// lattice parameters. It does not re-run the reduction; it only checks the necessary
// ordering and angle-sign conditions a properly reduced cell must satisfy.
func IsNiggliReduced(a, b, c, alphaDeg, betaDeg, gammaDeg float64) bool {
	const tol = 1e-6
	if a > b+tol || b > c+tol {
		return false
	}
	alpha := alphaDeg * math.Pi / 180
	beta := betaDeg * math.Pi / 180
	gamma := gammaDeg * math.Pi / 180

	cosA, cosB, cosG := math.Cos(alpha), math.Cos(beta), math.Cos(gamma)

	acute := cosA > tol && cosB > tol && cosG > tol
	obtuseOrRight := cosA <= tol && cosB <= tol && cosG <= tol

	return acute || obtuseOrRight
}
