package crystal

import "sort"

// CompositionEntry is an ordered list of (element, count) pairs plus the total atom
// count, used both as a target composition for fixed/multi-composition searches and
// as an observed composition read off a Crystal (spec.md section 3).
type CompositionEntry struct {
	Counts []ElementCount
}

type ElementCount struct {
	AtomicNumber int
	Count        int
}

// NewComposition builds a CompositionEntry from an element->count map, in ascending
// atomic-number order for determinism.
func NewComposition(counts map[int]int) CompositionEntry {
	var ce CompositionEntry
	// insertion order from a map is nondeterministic; sort for stable output.
	zs := make([]int, 0, len(counts))
	for z := range counts {
		zs = append(zs, z)
	}
	sort.Ints(zs)
	for _, z := range zs {
		ce.Counts = append(ce.Counts, ElementCount{AtomicNumber: z, Count: counts[z]})
	}
	return ce
}

// Total returns the sum of every species' count.
func (ce CompositionEntry) Total() int {
	total := 0
	for _, ec := range ce.Counts {
		total += ec.Count
	}
	return total
}

// Map returns the composition as an element->count map.
func (ce CompositionEntry) Map() map[int]int {
	out := make(map[int]int, len(ce.Counts))
	for _, ec := range ce.Counts {
		out[ec.AtomicNumber] = ec.Count
	}
	return out
}

// MeanAbsoluteDeviation returns the mean, over the union of both compositions'
// species, of the absolute difference in count (a missing species counts as 0). Used
// by the fixed/multi-composition target-selection rule in spec.md section 4.7 to pick
// the allowed composition closest to an observed one.
func (ce CompositionEntry) MeanAbsoluteDeviation(other CompositionEntry) float64 {
	a := ce.Map()
	b := other.Map()
	species := make(map[int]bool)
	for z := range a {
		species[z] = true
	}
	for z := range b {
		species[z] = true
	}
	if len(species) == 0 {
		return 0
	}
	var sum float64
	for z := range species {
		diff := a[z] - b[z]
		if diff < 0 {
			diff = -diff
		}
		sum += float64(diff)
	}
	return sum / float64(len(species))
}

// ObservedComposition reads the crystal's current atom counts as a CompositionEntry.
func (c *Crystal) ObservedComposition() CompositionEntry {
	return NewComposition(c.SpeciesCounts())
}
