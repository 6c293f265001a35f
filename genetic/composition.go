package genetic

import (
	"math/rand"

	"github.com/xtalopt/xtalopt-go/crystal"
)

// targetComposition implements spec.md section 4.7's target-composition selection rule
// for the offspring produced by an operator that may have observed a composition
// departing from any allowed one (crossover). In variable-composition mode (no allowed
// compositions configured) the target is the offspring's own observed counts, raised so
// every zero count becomes 1, then normalized into [minAtoms,maxAtoms] by round-robin.
// In fixed/multi-composition mode, the parents' validity decides the target, falling
// back to the closest allowed composition by mean absolute deviation.
func targetComposition(p Params, observed crystal.CompositionEntry, parentAValid, parentBValid bool, parentA, parentB crystal.CompositionEntry, rng *rand.Rand) crystal.CompositionEntry {
	if len(p.AllowedCompositions) == 0 {
		return normalizeVariable(observed, p.CompositionLimits, rng)
	}

	switch {
	case parentAValid && parentBValid:
		if parentA.Total() > parentB.Total() {
			return parentA
		}
		if parentB.Total() > parentA.Total() {
			return parentB
		}
		if rng.Intn(2) == 0 {
			return parentA
		}
		return parentB
	case parentAValid:
		return parentA
	case parentBValid:
		return parentB
	default:
		return closestAllowed(p.AllowedCompositions, observed)
	}
}

func closestAllowed(allowed []crystal.CompositionEntry, observed crystal.CompositionEntry) crystal.CompositionEntry {
	best := allowed[0]
	bestDev := best.MeanAbsoluteDeviation(observed)
	for _, candidate := range allowed[1:] {
		dev := candidate.MeanAbsoluteDeviation(observed)
		if dev < bestDev {
			best = candidate
			bestDev = dev
		}
	}
	return best
}

// normalizeVariable raises every zero count in observed to 1, then brings the total
// into [minAtoms, maxAtoms] by round-robin decrement/increment, preserving the >= 1 per
// species floor, per spec.md section 4.7.
func normalizeVariable(observed crystal.CompositionEntry, limits CompositionLimits, rng *rand.Rand) crystal.CompositionEntry {
	counts := make(map[int]int, len(observed.Counts))
	order := make([]int, 0, len(observed.Counts))
	for _, ec := range observed.Counts {
		if ec.Count == 0 {
			counts[ec.AtomicNumber] = 1
		} else {
			counts[ec.AtomicNumber] = ec.Count
		}
		order = append(order, ec.AtomicNumber)
	}
	if len(order) == 0 {
		return observed
	}

	total := func() int {
		sum := 0
		for _, z := range order {
			sum += counts[z]
		}
		return sum
	}

	idx := 0
	for limits.MaxAtoms > 0 && total() > limits.MaxAtoms {
		z := order[idx%len(order)]
		if counts[z] > 1 {
			counts[z]--
		}
		idx++
		if idx > 10000*len(order) {
			break
		}
	}
	idx = 0
	for total() < limits.MinAtoms {
		z := order[idx%len(order)]
		counts[z]++
		idx++
		if idx > 10000*len(order) {
			break
		}
	}

	return crystal.NewComposition(counts)
}

// applyComposition mutates c's atom list to match target: removing random atoms of
// over-represented species and adding atoms of under-represented species via
// AddAtomRandomly, per spec.md section 4.7. Shortfalls after MaxAddAttempts are silent
// (logged by the caller), matching the spec's "not fatal" rule.
func applyComposition(c *crystal.Crystal, target crystal.CompositionEntry, p Params, rng *rand.Rand) {
	observed := c.SpeciesCounts()
	for _, ec := range target.Counts {
		have := observed[ec.AtomicNumber]
		if have > ec.Count {
			removeAtoms(c, ec.AtomicNumber, have-ec.Count, rng)
		}
	}
	for _, ec := range target.Counts {
		have := len(atomIndicesOf(c, ec.AtomicNumber))
		for have < ec.Count {
			if err := c.AddAtomRandomly(ec.AtomicNumber, p.Radii, p.MaxAddAttempts, rng); err != nil {
				break
			}
			have++
		}
	}
	targetSet := make(map[int]bool, len(target.Counts))
	for _, ec := range target.Counts {
		targetSet[ec.AtomicNumber] = true
	}
	for z := range observed {
		if !targetSet[z] {
			removeAtoms(c, z, observed[z], rng)
		}
	}
}

func atomIndicesOf(c *crystal.Crystal, z int) []int {
	var idx []int
	for i, a := range c.Atoms {
		if a.AtomicNumber == z {
			idx = append(idx, i)
		}
	}
	return idx
}

func removeAtoms(c *crystal.Crystal, z int, count int, rng *rand.Rand) {
	for i := 0; i < count; i++ {
		idx := atomIndicesOf(c, z)
		if len(idx) == 0 {
			return
		}
		victim := idx[rng.Intn(len(idx))]
		c.Atoms = append(c.Atoms[:victim], c.Atoms[victim+1:]...)
	}
}
