package queue

import (
	"github.com/xtalopt/xtalopt-go/config"
	"github.com/xtalopt/xtalopt-go/crystal"
)

// checkSimilarity implements spec.md section 4.2/4.8: every newly Optimized structure
// is compared by RDF fingerprint against every other Optimized structure; a match above
// threshold transitions the newer one (by generation, then id) to Similar.
//
// Fingerprints are first bucketed by RDF.FastHash, quantized at a scale derived from
// epsilon, so the expensive dot-product compare only runs between structures whose
// fingerprints already land in the same bucket.
func (m *Manager) checkSimilarity(settings *config.Settings) {
	all := m.Tracker.All()
	optimized := make([]*crystal.Crystal, 0, len(all))
	for _, c := range all {
		if c.State == crystal.Optimized {
			optimized = append(optimized, c)
		}
	}

	epsilon := settings.LengthTol
	if settings.AngleTol > epsilon {
		epsilon = settings.AngleTol
	}
	if epsilon <= 0 {
		epsilon = 1e-3
	}
	scale := 1 / epsilon

	type bucketed struct {
		c   *crystal.Crystal
		rdf crystal.RDF
	}
	buckets := make(map[[32]byte][]bucketed)
	for _, c := range optimized {
		rdf := c.CalculateNormalizedRDF(settings.RDFNBins, settings.RDFCutoff, settings.RDFSigma)
		hash := rdf.FastHash(scale)
		buckets[hash] = append(buckets[hash], bucketed{c: c, rdf: rdf})
	}

	for _, bucket := range buckets {
		for i := 0; i < len(bucket); i++ {
			a := bucket[i]
			if a.c.State != crystal.Optimized {
				continue
			}
			for j := i + 1; j < len(bucket); j++ {
				b := bucket[j]
				if b.c.State != crystal.Optimized {
					continue
				}
				if !a.c.Equivalent(b.c) {
					continue
				}
				if !crystal.Similar(a.rdf, b.rdf, epsilon) {
					continue
				}
				newer := a.c
				if isNewer(b.c, a.c) {
					newer = b.c
				}
				newer.State = crystal.Similar
				m.Tracker.NotifyUpdated(newer)
			}
		}
	}
}

// isNewer reports whether b was produced after a, by (generation, id) ordering.
func isNewer(b, a *crystal.Crystal) bool {
	if b.Generation != a.Generation {
		return b.Generation > a.Generation
	}
	return b.ID > a.ID
}
