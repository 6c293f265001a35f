/*
Package generate implements the Random Generator of spec.md section 4.5: producing a
new candidate Crystal either uniformly in a cell-parameter box with per-pair
minimum-distance constraints, or by choosing a spacegroup and filling Wyckoff orbits.

Grounded on the teacher's random package (random/random.go), whose
rand.Seed/rand.Intn/rejection-sampling idiom is generalized here from drawing 1-D
sequence characters to drawing 3-D fractional coordinates and cell parameters.
*/
package generate

import "github.com/xtalopt/xtalopt-go/crystal"

// Range is an inclusive [Min, Max] bound; Min == Max means a fixed value.
type Range struct {
	Min, Max float64
}

// Fixed reports whether the range pins a single value.
func (r Range) Fixed() bool {
	return r.Min == r.Max
}

// Params bundles every knob the Random Generator needs, per spec.md section 4.5.
type Params struct {
	LengthA, LengthB, LengthC Range
	AngleAlpha, AngleBeta, AngleGamma Range
	Volume                    Range

	Composition crystal.CompositionEntry
	Radii       crystal.ElementRadii

	// MaxAddAttempts bounds AddAtomRandomly's rejection sampling per atom.
	MaxAddAttempts int
	// MaxCellAttempts bounds the number of candidate cells tried before giving up
	// on a positive-volume, in-range cell (box mode).
	MaxCellAttempts int
	// MaxPlacementRetries bounds spacegroup-mode's overall retry count after a
	// radii-constraint violation, per spec.md section 4.5's closing paragraph.
	MaxPlacementRetries int
}
