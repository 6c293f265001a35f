package genetic

import (
	"math/rand"
	"sort"

	"github.com/xtalopt/xtalopt-go/cell"
	"github.com/xtalopt/xtalopt-go/crystal"
)

// CrossoverParams adds crossover-specific knobs to the shared Params.
type CrossoverParams struct {
	Params
	// MaxCuts bounds n_cuts (>=1); a value is drawn uniformly in [1, MaxCuts].
	MaxCuts int
	// MinContributionPercent is m in spec.md section 4.7's n_cuts=1 rule: the single
	// cut is placed uniformly in [m, 100-m]%.
	MinContributionPercent float64
}

// Crossover implements the multi-cut ribbon exchange of spec.md section 4.7: each
// parent is reoriented by a random hyperoctahedral transform and shifted, ribbons are
// cut along the fractional a-direction, atoms from parent A fill odd ribbons and from
// parent B fill even ribbons (counting from 1, i.e. A at even 0-based ribbon index), and
// the remainder feed a composition-fix stage.
func Crossover(parentA, parentB *crystal.Crystal, cp CrossoverParams, rng *rand.Rand) *crystal.Crystal {
	tokA, tokB := crystal.NewToken(), crystal.NewToken()
	parentA.Lock().RLock(tokA)
	defer parentA.Lock().RUnlock(tokA)
	parentB.Lock().RLock(tokB)
	defer parentB.Lock().RUnlock(tokB)

	fracA := reorientedFractions(parentA, rng)
	fracB := reorientedFractions(parentB, rng)

	nCuts := cp.MaxCuts
	if nCuts > 1 {
		nCuts = 1 + rng.Intn(nCuts)
	}
	if nCuts < 1 {
		nCuts = 1
	}
	cuts := cutPoints(nCuts, cp.MinContributionPercent, rng)

	w := rng.Float64()
	newCell := cell.Cell{M: matAdd(matScale(parentA.Cell.M, w), matScale(parentB.Cell.M, 1-w))}

	out := crystal.New(parentA.Generation+1, 0)
	out.Cell = newCell
	out.State = crystal.WaitingForOptimization
	out.ParentTag = parentA.Tag() + "+" + parentB.Tag()

	extraA := make(map[int][]cell.Vec3)
	extraB := make(map[int][]cell.Vec3)

	for i, f := range fracA {
		z := parentA.Atoms[i].AtomicNumber
		ribbon := ribbonIndex(f[0], cuts)
		if ribbon%2 == 0 {
			out.AddAtom(z, newCell.FracToCart(f))
		} else {
			extraA[z] = append(extraA[z], f)
		}
	}
	for i, f := range fracB {
		z := parentB.Atoms[i].AtomicNumber
		ribbon := ribbonIndex(f[0], cuts)
		if ribbon%2 == 1 {
			out.AddAtom(z, newCell.FracToCart(f))
		} else {
			extraB[z] = append(extraB[z], f)
		}
	}

	observed := out.ObservedComposition()
	target := targetComposition(cp.Params, observed, parentA.HasValidComposition, parentB.HasValidComposition,
		crystal.NewComposition(parentA.SpeciesCounts()), crystal.NewComposition(parentB.SpeciesCounts()), rng)

	fillFromExtras(out, target, extraA, extraB, cp.Params, rng)
	out.HasValidComposition = true
	out.WrapAtoms()
	return out
}

// reorientedFractions applies a random signed hyperoctahedral permutation to the
// parent's lattice basis (conceptually; atoms' own fractional coordinates are
// permuted/signed the same way so atom-cell consistency is preserved) and a random
// uniform fractional translation, then wraps, per spec.md section 4.7.
func reorientedFractions(parent *crystal.Crystal, rng *rand.Rand) []cell.Vec3 {
	perm := randomSignedPermutation(rng)
	shift := cell.Vec3{rng.Float64(), rng.Float64(), rng.Float64()}

	out := make([]cell.Vec3, len(parent.Atoms))
	for i, a := range parent.Atoms {
		frac := parent.Cell.CartToFrac(a.Cart)
		reoriented := cell.Vec3{
			perm[0][0]*frac[0] + perm[0][1]*frac[1] + perm[0][2]*frac[2],
			perm[1][0]*frac[0] + perm[1][1]*frac[1] + perm[1][2]*frac[2],
			perm[2][0]*frac[0] + perm[2][1]*frac[1] + perm[2][2]*frac[2],
		}
		shifted := cell.Vec3{reoriented[0] + shift[0], reoriented[1] + shift[1], reoriented[2] + shift[2]}
		out[i] = cell.WrapFrac(shifted)
	}
	return out
}

// cutPoints returns nCuts ascending fractional positions in (0,1) along a.
func cutPoints(nCuts int, minContributionPercent float64, rng *rand.Rand) []float64 {
	if nCuts == 1 {
		m := minContributionPercent / 100
		if m < 0 {
			m = 0
		}
		if m > 0.5 {
			m = 0.5
		}
		return []float64{m + rng.Float64()*(1-2*m)}
	}
	rlen := 1.0 / float64(nCuts+1)
	points := make([]float64, nCuts)
	for i := 0; i < nCuts; i++ {
		uniform := float64(i+1) / float64(nCuts+1)
		jitter := (rng.Float64()*2 - 1) * rlen / 4
		p := uniform + jitter
		if p < 0 {
			p = 0
		}
		if p > 1 {
			p = 1
		}
		points[i] = p
	}
	sort.Float64s(points)
	return points
}

// ribbonIndex returns which ribbon (0-indexed) fractional coordinate a falls into given
// ascending cut points.
func ribbonIndex(a float64, cuts []float64) int {
	for i, c := range cuts {
		if a < c {
			return i
		}
	}
	return len(cuts)
}

// maxContributionRetries bounds the over-representation trim loop below: this is the
// "too many failed atom placements" condition original_source/src/xtalopt/genetic.cpp
// tracks separately from placement failures in fillFromExtras's second loop.
const maxContributionRetries = 10000

// maxPlacementRetries bounds AddAtomRandomly's own internal per-atom retry budget
// (passed through as p.MaxAddAttempts); this constant instead bounds how many times
// fillFromExtras itself will re-attempt a single species' under-representation fix
// before giving up on that species.
const maxPlacementRetries = 1000

// fillFromExtras fixes the offspring's composition to match target: removing random
// atoms of over-represented species (odds 0.5 per candidate, per spec.md section 4.7),
// then adding atoms from the per-parent extra pools of under-represented species,
// falling back to AddAtomRandomly once a pool is exhausted. genetic.cpp tracks the
// over-representation trim and the under-representation fill as two distinct bounded
// retry budgets since they bound different failure modes.
func fillFromExtras(out *crystal.Crystal, target crystal.CompositionEntry, extraA, extraB map[int][]cell.Vec3, p Params, rng *rand.Rand) {
	observed := out.SpeciesCounts()
	for z, have := range observed {
		wanted := 0
		for _, ec := range target.Counts {
			if ec.AtomicNumber == z {
				wanted = ec.Count
			}
		}
		attempts := 0
		for have > wanted && attempts < maxContributionRetries {
			attempts++
			idx := atomIndicesOf(out, z)
			if len(idx) == 0 {
				break
			}
			victim := idx[rng.Intn(len(idx))]
			if rng.Float64() < 0.5 {
				out.Atoms = append(out.Atoms[:victim], out.Atoms[victim+1:]...)
				have--
			}
		}
	}

	for _, ec := range target.Counts {
		have := len(atomIndicesOf(out, ec.AtomicNumber))
		placementAttempts := 0
		for have < ec.Count && placementAttempts < maxPlacementRetries {
			placementAttempts++
			if pool := extraA[ec.AtomicNumber]; len(pool) > 0 {
				f := pool[len(pool)-1]
				extraA[ec.AtomicNumber] = pool[:len(pool)-1]
				out.AddAtom(ec.AtomicNumber, out.Cell.FracToCart(f))
				have++
				continue
			}
			if pool := extraB[ec.AtomicNumber]; len(pool) > 0 {
				f := pool[len(pool)-1]
				extraB[ec.AtomicNumber] = pool[:len(pool)-1]
				out.AddAtom(ec.AtomicNumber, out.Cell.FracToCart(f))
				have++
				continue
			}
			if err := out.AddAtomRandomly(ec.AtomicNumber, p.Radii, p.MaxAddAttempts, rng); err != nil {
				break
			}
			have++
		}
	}
}
