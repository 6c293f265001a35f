package genetic

import (
	"math/rand"

	"github.com/xtalopt/xtalopt-go/crystal"
)

// Permucomp applies a small strain, then replaces the composition entirely: each
// species gets a uniform random count in [1, max_atoms], trimmed/expanded to a uniformly
// drawn total in [max(num_types, min_atoms), max_atoms], per spec.md section 4.7.
func Permucomp(parent *crystal.Crystal, p Params, rng *rand.Rand) *crystal.Crystal {
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

	species := make([]int, 0)
	seen := make(map[int]bool)
	for _, a := range parent.Atoms {
		if !seen[a.AtomicNumber] {
			seen[a.AtomicNumber] = true
			species = append(species, a.AtomicNumber)
		}
	}
	if len(species) == 0 {
		return out
	}

	maxAtoms := p.CompositionLimits.MaxAtoms
	if maxAtoms < len(species) {
		maxAtoms = len(species)
	}
	counts := make(map[int]int, len(species))
	for _, z := range species {
		counts[z] = 1 + rng.Intn(maxAtoms)
	}

	minTotal := p.CompositionLimits.MinAtoms
	if minTotal < len(species) {
		minTotal = len(species)
	}
	wantedTotal := minTotal
	if maxAtoms > minTotal {
		wantedTotal = minTotal + rng.Intn(maxAtoms-minTotal+1)
	}
	target := normalizeVariable(crystal.NewComposition(counts), CompositionLimits{MinAtoms: wantedTotal, MaxAtoms: wantedTotal}, rng)

	applyComposition(out, target, p, rng)
	out.HasValidComposition = true
	out.WrapAtoms()
	return out
}
