package persist

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xtalopt/xtalopt-go/crystal"
)

// ResultsRow is one row of the global results table: rank, tag, formula, index,
// enthalpy, objective values, status (spec.md section 6), grounded on
// original_source/src/globalsearch/structure.cpp's getResultsEntry() row builder.
type ResultsRow struct {
	Rank              int
	Tag               string
	Formula           string
	Index             int
	Enthalpy          float64
	DistanceAboveHull float64
	Objectives        []float64
	Status            string
}

// Formula renders a CompositionEntry as "Z<atomic number><count>" per species in the
// entry's order, ascending atomic number (e.g. "Z12Z81" for H2O); it writes no element
// symbols and applies no Hill ordering. Used both for display and for the results table's Formula column.
func Formula(ce crystal.CompositionEntry) string {
	var b strings.Builder
	for _, ec := range ce.Counts {
		fmt.Fprintf(&b, "Z%d%d", ec.AtomicNumber, ec.Count)
	}
	return b.String()
}

// BuildResultsTable builds the sorted results table for a set of tracked crystals,
// ordered by distance-above-hull ascending (spec.md section 6: "results table sorted by
// distance-above-hull").
func BuildResultsTable(crystals []*crystal.Crystal) []ResultsRow {
	rows := make([]ResultsRow, len(crystals))
	for i, c := range crystals {
		objectives := make([]float64, len(c.Objectives))
		for j, o := range c.Objectives {
			objectives[j] = o.Value
		}
		rows[i] = ResultsRow{
			Rank:              c.Rank,
			Tag:               c.Tag(),
			Formula:           Formula(c.ObservedComposition()),
			Index:             i,
			Enthalpy:          c.Enthalpy,
			DistanceAboveHull: c.DistanceAboveHull,
			Objectives:        objectives,
			Status:            c.State.String(),
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].DistanceAboveHull < rows[j].DistanceAboveHull
	})
	return rows
}
