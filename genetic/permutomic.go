package genetic

import (
	"math/rand"

	"github.com/xtalopt/xtalopt-go/crystal"
)

// Permutomic applies a small strain, then nudges the composition by at most one atom
// per species: raise every zero observed count to 1; if that changed nothing, pick one
// species at random and increment (if total <= min_atoms), decrement (if total >=
// max_atoms), or randomly otherwise, per spec.md section 4.7.
func Permutomic(parent *crystal.Crystal, p Params, rng *rand.Rand) *crystal.Crystal {
	tok := crystal.NewToken()
	parent.Lock().RLock(tok)
	defer parent.Lock().RUnlock(tok)

	out := parent.Clone()
	out.Generation = parent.Generation + 1
	out.State = crystal.WaitingForOptimization
	out.ParentTag = parent.Tag()
	out.History = nil

	sigma := 0.25 * rng.Float64()
	origVolume := out.Cell.Volume()
	eps := voigtStrain(sigma, rng)
	fracs := out.FractionalPositions()
	out.Cell = applyStrain(out.Cell.M, eps, origVolume)
	for i, f := range fracs {
		out.Atoms[i].Cart = out.Cell.FracToCart(f)
	}
	out.WrapAtoms()

	observed := out.ObservedComposition()
	counts := observed.Map()
	order := make([]int, 0, len(counts))
	for _, ec := range observed.Counts {
		order = append(order, ec.AtomicNumber)
	}

	changed := false
	for z, c := range counts {
		if c == 0 {
			counts[z] = 1
			changed = true
		}
	}

	if !changed && len(order) > 0 {
		z := order[rng.Intn(len(order))]
		total := observed.Total()
		switch {
		case total <= p.CompositionLimits.MinAtoms:
			counts[z]++
		case total >= p.CompositionLimits.MaxAtoms:
			if counts[z] > 1 {
				counts[z]--
			}
		default:
			if rng.Intn(2) == 0 {
				counts[z]++
			} else if counts[z] > 1 {
				counts[z]--
			}
		}
	}

	target := normalizeVariable(crystal.NewComposition(counts), p.CompositionLimits, rng)
	applyComposition(out, target, p, rng)
	out.HasValidComposition = true
	out.WrapAtoms()
	return out
}
