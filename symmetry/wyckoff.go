/*
Package symmetry implements the Symmetry/Wyckoff DB of spec.md section 4.4: a static
table of spacegroups and their Wyckoff orbits, plus the integer-partition solver
random generation needs to fill a requested composition into one spacegroup's orbits.

The literal 230-row table lives in original_source/src/spgGen/include/wyckoffDatabase.h
and src/xtalopt/spgInit/wyckoffDatabase.h; this package ships a representative subset
(see DESIGN.md's Open Questions) with the same (letter, multiplicity, generator-string)
shape, keyed by spacegroup number so the remaining rows are a pure data addition later.
*/
package symmetry

import (
	"strconv"
	"strings"
	"sync"

	"github.com/spaolacci/murmur3"
)

// WyckoffOrbit is one symmetry-equivalent position set: a letter, its multiplicity,
// and its generator expression, a comma-separated triple of affine expressions in
// x, y, z (spec.md section 3).
type WyckoffOrbit struct {
	Letter       string
	Multiplicity int
	Generator    string
}

// Reusable reports whether this orbit has any free coordinate (contains x, y, or z in
// its generator) and so may be reused with distinct random seeds; fixed-position
// orbits (no free coordinate) may appear at most once, per spec.md section 4.4.
func (o WyckoffOrbit) Reusable() bool {
	g := o.Generator
	return strings.ContainsAny(g, "xyz")
}

// SpaceGroup is one of the 230 crystallographic spacegroups and its Wyckoff orbits,
// ordered from highest to lowest multiplicity (the conventional listing order).
type SpaceGroup struct {
	Number int
	Symbol string
	Orbits []WyckoffOrbit
}

// AffineTransform is a parsed Wyckoff generator: cartesian-free-parameter matrix A
// and constant offset B, such that a point (x,y,z) maps to A*(x,y,z) + B.
type AffineTransform struct {
	A [3][3]float64
	B [3]float64
}

// Table is the static database, keyed by spacegroup number. It ships a representative
// subset spanning triclinic through cubic, fixed-only and mixed fixed/free orbit
// lists, and a high-multiplicity general position, per DESIGN.md.
var Table = map[int]SpaceGroup{
	1: { // P1 - triclinic, single general position, fully free
		Number: 1, Symbol: "P1",
		Orbits: []WyckoffOrbit{
			{Letter: "a", Multiplicity: 1, Generator: "x,y,z"},
		},
	},
	2: { // P-1 - triclinic, inversion center gives fixed positions plus general
		Number: 2, Symbol: "P-1",
		Orbits: []WyckoffOrbit{
			{Letter: "i", Multiplicity: 2, Generator: "x,y,z"},
			{Letter: "h", Multiplicity: 1, Generator: "1/2,1/2,1/2"},
			{Letter: "g", Multiplicity: 1, Generator: "1/2,1/2,0"},
			{Letter: "f", Multiplicity: 1, Generator: "1/2,0,1/2"},
			{Letter: "e", Multiplicity: 1, Generator: "0,1/2,1/2"},
			{Letter: "d", Multiplicity: 1, Generator: "1/2,0,0"},
			{Letter: "c", Multiplicity: 1, Generator: "0,1/2,0"},
			{Letter: "b", Multiplicity: 1, Generator: "0,0,1/2"},
			{Letter: "a", Multiplicity: 1, Generator: "0,0,0"},
		},
	},
	14: { // P2_1/c - monoclinic, one general + one fixed
		Number: 14, Symbol: "P2_1/c",
		Orbits: []WyckoffOrbit{
			{Letter: "e", Multiplicity: 4, Generator: "x,y,z"},
			{Letter: "d", Multiplicity: 2, Generator: "1/2,0,1/2"},
			{Letter: "c", Multiplicity: 2, Generator: "0,0,1/2"},
			{Letter: "b", Multiplicity: 2, Generator: "1/2,0,0"},
			{Letter: "a", Multiplicity: 2, Generator: "0,0,0"},
		},
	},
	15: { // C2/c - monoclinic, C-centered
		Number: 15, Symbol: "C2/c",
		Orbits: []WyckoffOrbit{
			{Letter: "f", Multiplicity: 8, Generator: "x,y,z"},
			{Letter: "e", Multiplicity: 4, Generator: "0,y,1/4"},
			{Letter: "d", Multiplicity: 4, Generator: "1/4,1/4,1/2"},
			{Letter: "c", Multiplicity: 4, Generator: "1/4,1/4,0"},
			{Letter: "b", Multiplicity: 4, Generator: "0,1/2,0"},
			{Letter: "a", Multiplicity: 4, Generator: "0,0,0"},
		},
	},
	62: { // Pnma - orthorhombic, mixed free/mirror-constrained orbits
		Number: 62, Symbol: "Pnma",
		Orbits: []WyckoffOrbit{
			{Letter: "d", Multiplicity: 8, Generator: "x,y,z"},
			{Letter: "c", Multiplicity: 4, Generator: "x,1/4,z"},
			{Letter: "b", Multiplicity: 4, Generator: "0,0,1/2"},
			{Letter: "a", Multiplicity: 4, Generator: "0,0,0"},
		},
	},
	205: { // Pa-3 - cubic, fixed + free orbits
		Number: 205, Symbol: "Pa-3",
		Orbits: []WyckoffOrbit{
			{Letter: "d", Multiplicity: 24, Generator: "x,y,z"},
			{Letter: "c", Multiplicity: 8, Generator: "x,x,x"},
			{Letter: "b", Multiplicity: 4, Generator: "1/2,1/2,1/2"},
			{Letter: "a", Multiplicity: 4, Generator: "0,0,0"},
		},
	},
	225: { // Fm-3m - cubic, face-centered, high multiplicity
		Number: 225, Symbol: "Fm-3m",
		Orbits: []WyckoffOrbit{
			{Letter: "l", Multiplicity: 192, Generator: "x,y,z"},
			{Letter: "e", Multiplicity: 24, Generator: "x,0,0"},
			{Letter: "c", Multiplicity: 8, Generator: "1/4,1/4,1/4"},
			{Letter: "b", Multiplicity: 4, Generator: "1/2,1/2,1/2"},
			{Letter: "a", Multiplicity: 4, Generator: "0,0,0"},
		},
	},
	227: { // Fd-3m - cubic, diamond-type, two distinct fixed origin choices collapsed
		Number: 227, Symbol: "Fd-3m",
		Orbits: []WyckoffOrbit{
			{Letter: "f", Multiplicity: 96, Generator: "x,x,z"},
			{Letter: "e", Multiplicity: 48, Generator: "x,0,0"},
			{Letter: "c", Multiplicity: 8, Generator: "1/8,1/8,1/8"},
			{Letter: "a", Multiplicity: 8, Generator: "0,0,0"},
		},
	},
}

var (
	transformCache   = make(map[uint64]AffineTransform)
	transformCacheMu sync.Mutex
)

// ParseGenerator parses one Wyckoff generator-expression string (a comma-separated
// triple of affine expressions in x, y, z, e.g. "x,1/4,1/2-z") into its affine
// transform, memoizing the result keyed by a murmur3 hash of the raw string rather
// than the string itself (grounded on the teacher's mash package, which uses the same
// library for k-mer hashing) to keep the ~230-spacegroup memo table's bucket cost low.
func ParseGenerator(expr string) AffineTransform {
	key := murmur3.Sum64([]byte(expr))

	transformCacheMu.Lock()
	if t, ok := transformCache[key]; ok {
		transformCacheMu.Unlock()
		return t
	}
	transformCacheMu.Unlock()

	t := parseAffine(expr)

	transformCacheMu.Lock()
	transformCache[key] = t
	transformCacheMu.Unlock()
	return t
}

func parseAffine(expr string) AffineTransform {
	parts := strings.Split(expr, ",")
	var out AffineTransform
	for row, part := range parts {
		if row >= 3 {
			break
		}
		a, b := parseComponent(strings.TrimSpace(part))
		out.A[row] = a
		out.B[row] = b
	}
	return out
}

// parseComponent parses one affine component such as "x", "-y", "1/2+z", "1/4-x",
// "1/2" into its (coefficient-vector, constant) pair.
func parseComponent(term string) ([3]float64, float64) {
	var coeffs [3]float64
	var constant float64

	term = strings.ReplaceAll(term, " ", "")
	// Normalize leading sign and split into signed tokens.
	if term == "" {
		return coeffs, 0
	}
	if term[0] != '+' && term[0] != '-' {
		term = "+" + term
	}

	var tokens []string
	start := 0
	for i := 1; i < len(term); i++ {
		if term[i] == '+' || term[i] == '-' {
			tokens = append(tokens, term[start:i])
			start = i
		}
	}
	tokens = append(tokens, term[start:])

	for _, tok := range tokens {
		sign := 1.0
		body := tok
		switch {
		case strings.HasPrefix(tok, "+"):
			body = tok[1:]
		case strings.HasPrefix(tok, "-"):
			sign = -1
			body = tok[1:]
		}
		switch {
		case body == "x":
			coeffs[0] += sign
		case body == "y":
			coeffs[1] += sign
		case body == "z":
			coeffs[2] += sign
		case body == "":
			// bare sign with nothing following; ignore.
		default:
			constant += sign * parseFraction(body)
		}
	}
	return coeffs, constant
}

func parseFraction(s string) float64 {
	if i := strings.IndexByte(s, '/'); i >= 0 {
		num, errN := strconv.ParseFloat(s[:i], 64)
		den, errD := strconv.ParseFloat(s[i+1:], 64)
		if errN != nil || errD != nil || den == 0 {
			return 0
		}
		return num / den
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// Apply evaluates the transform at free parameters (x,y,z).
func (t AffineTransform) Apply(x, y, z float64) [3]float64 {
	var out [3]float64
	free := [3]float64{x, y, z}
	for i := 0; i < 3; i++ {
		v := t.B[i]
		for j := 0; j < 3; j++ {
			v += t.A[i][j] * free[j]
		}
		out[i] = v
	}
	return out
}
