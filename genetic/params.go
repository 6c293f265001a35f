/*
Package genetic implements the genetic operators of spec.md section 4.7: crossover
(multi-cut ribbon exchange), stripple (strain + ripple), permustrain (strain + atom-type
swaps), permutomic (composition nudge), and permucomp (new random composition).

Grounded on the teacher's transform package structure (one file per transformation,
operating on a cloned copy of the input record) and its random package's rand.Float64/
rand.Intn rejection-sampling idiom, generalized from 1-D sequences to 3-D periodic
structures.
*/
package genetic

import "github.com/xtalopt/xtalopt-go/crystal"

// CompositionLimits bounds the total atom count a genetic operator may produce when
// adjusting composition, per spec.md section 4.7.
type CompositionLimits struct {
	MinAtoms int
	MaxAtoms int
}

// Params bundles the knobs shared by every operator: radii constraints, atom-placement
// retry budgets, and the composition limits used by the target-composition rules.
type Params struct {
	Radii               crystal.ElementRadii
	MaxAddAttempts      int
	CompositionLimits   CompositionLimits
	// AllowedCompositions lists the valid target compositions in fixed/multi-
	// composition mode; empty means variable-composition mode.
	AllowedCompositions []crystal.CompositionEntry
}
