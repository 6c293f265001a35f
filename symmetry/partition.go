package symmetry

import "sort"

// Placement is one chosen orbit instance contributing to a partition: which orbit
// (by index into the spacegroup's Orbits slice) and, for reusable orbits, which reuse
// copy this is (0 for the first use, 1 for the second, ...), since each reuse gets its
// own random (x,y,z) seed at expansion time.
type Placement struct {
	OrbitIndex int
	ReuseIndex int
}

// SolvePartition finds a multiset of orbits from sg whose multiplicities sum exactly
// to count, respecting that a fixed-position (non-reusable) orbit may appear at most
// once while a free orbit may be reused arbitrarily, per spec.md section 4.4. It
// returns false if no partition exists within the given bound on total orbit
// instances (maxOrbits guards against runaway search when many small free orbits
// could otherwise be combined in unbounded ways).
func SolvePartition(sg SpaceGroup, count int, maxOrbits int) ([]Placement, bool) {
	if count <= 0 {
		return nil, count == 0
	}

	// Search orbits from largest to smallest multiplicity first: this tends to find
	// short solutions quickly and keeps the recursion shallow for the common case of
	// a handful of high-symmetry general positions.
	orbits := append([]WyckoffOrbit(nil), sg.Orbits...)
	order := make([]int, len(orbits))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		return orbits[order[i]].Multiplicity > orbits[order[j]].Multiplicity
	})

	used := make([]int, len(orbits)) // reuse count per orbit index
	var best []Placement

	var search func(remaining, depth int) bool
	search = func(remaining, depth int) bool {
		if remaining == 0 {
			return true
		}
		if depth >= maxOrbits {
			return false
		}
		for _, oi := range order {
			o := orbits[oi]
			if o.Multiplicity > remaining {
				continue
			}
			if !o.Reusable() && used[oi] >= 1 {
				continue
			}
			used[oi]++
			best = append(best, Placement{OrbitIndex: oi, ReuseIndex: used[oi] - 1})
			if search(remaining-o.Multiplicity, depth+1) {
				return true
			}
			best = best[:len(best)-1]
			used[oi]--
		}
		return false
	}

	if search(count, 0) {
		return best, true
	}
	return nil, false
}
