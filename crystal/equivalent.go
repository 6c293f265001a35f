package crystal

import (
	"math"

	"github.com/google/go-cmp/cmp"
)

var floatTolerance = cmp.Comparer(func(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
})

// Equivalent is a cheap pre-check used before the expensive RDF comparison: two
// crystals that don't even share an atom count or a roughly equal cell volume cannot
// possibly be RDF-similar, so callers can skip straight to "not similar" without
// building either fingerprint. Grounded on bio/genbank/multimap.go's use of
// cmp.Diff/cmp.Equal for structural record comparison.
func (c *Crystal) Equivalent(other *Crystal) bool {
	if len(c.Atoms) != len(other.Atoms) {
		return false
	}
	countsA := c.SpeciesCounts()
	countsB := other.SpeciesCounts()
	if !cmp.Equal(countsA, countsB) {
		return false
	}
	return cmp.Equal(math.Abs(c.Cell.Volume()), math.Abs(other.Cell.Volume()), floatTolerance)
}

// CompareRDF computes this crystal's normalized RDF fingerprint and the other's with
// matching parameters, and returns their dot-product similarity.
func (c *Crystal) CompareRDF(other *Crystal, nbins int, cutoff, sigma float64) float64 {
	a := c.CalculateNormalizedRDF(nbins, cutoff, sigma)
	b := other.CalculateNormalizedRDF(nbins, cutoff, sigma)
	return a.Compare(b)
}
