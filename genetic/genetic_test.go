package genetic

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtalopt/xtalopt-go/cell"
	"github.com/xtalopt/xtalopt-go/crystal"
	"github.com/xtalopt/xtalopt-go/persist"
)

// formulaDiff renders a human-readable diff between two formula strings, following
// the teacher's seqhash_test.go pattern of using diffmatchpatch to make a mismatch
// readable instead of printing two raw strings side by side.
func formulaDiff(want, got crystal.CompositionEntry) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(persist.Formula(want), persist.Formula(got), false)
	return dmp.DiffPrettyText(diffs)
}

func testRadii() crystal.ElementRadii {
	return crystal.NewElementRadii(map[int]float64{1: 0.31, 8: 0.66}, 0.3, 0.5)
}

func waterLikeCrystal(gen int) *crystal.Crystal {
	c := crystal.New(gen, 1)
	c.Cell = cell.FromParams(5, 5, 5, 90, 90, 90)
	c.HasValidComposition = true
	c.AddAtom(8, cell.Vec3{0, 0, 0})
	c.AddAtom(1, cell.Vec3{1, 0, 0})
	c.AddAtom(1, cell.Vec3{0, 1, 0})
	return c
}

func basicParams() Params {
	return Params{
		Radii:          testRadii(),
		MaxAddAttempts: 200,
		CompositionLimits: CompositionLimits{
			MinAtoms: 2,
			MaxAtoms: 8,
		},
	}
}

func TestCrossoverPreservesCompositionScenarioS4(t *testing.T) {
	parentA := waterLikeCrystal(1)
	parentB := waterLikeCrystal(1)

	cp := CrossoverParams{
		Params:                  basicParams(),
		MaxCuts:                 1,
		MinContributionPercent:  10,
	}

	want := crystal.NewComposition(map[int]int{8: 1, 1: 2})
	// Fixed-composition mode: H2O is the only allowed composition.
	cp.AllowedCompositions = []crystal.CompositionEntry{want}
	matches := 0
	const trials = 200
	var lastMismatchDiff string
	for i := 0; i < trials; i++ {
		rng := rand.New(rand.NewSource(int64(i)))
		offspring := Crossover(parentA, parentB, cp, rng)
		counts := offspring.SpeciesCounts()
		if counts[8] == 1 && counts[1] == 2 {
			matches++
			continue
		}
		got := crystal.NewComposition(counts)
		lastMismatchDiff = formulaDiff(want, got)
	}
	assert.GreaterOrEqual(t, matches, trials*99/100, fmt.Sprintf("last mismatching composition diff: %s", lastMismatchDiff))
}

func TestStrippleZeroParamsIsIdentityScenarioS5(t *testing.T) {
	parent := waterLikeCrystal(1)
	parent.WrapAtoms()

	sp := StrippleParams{
		Params:   basicParams(),
		SigmaMin: 0, SigmaMax: 0,
		RhoMin: 0, RhoMax: 0,
	}
	rng := rand.New(rand.NewSource(42))
	offspring := Stripple(parent, sp, rng)

	require.Equal(t, len(parent.Atoms), len(offspring.Atoms))
	for i := range parent.Atoms {
		assert.InDelta(t, parent.Atoms[i].Cart[0], offspring.Atoms[i].Cart[0], 1e-9)
		assert.InDelta(t, parent.Atoms[i].Cart[1], offspring.Atoms[i].Cart[1], 1e-9)
		assert.InDelta(t, parent.Atoms[i].Cart[2], offspring.Atoms[i].Cart[2], 1e-9)
	}
	assert.Empty(t, offspring.History)
}

// zeroSource is a rand.Source whose Float64() always yields exactly 0, so
// drawStrippleValue's draw lands exactly on min — the one deterministic way to exercise
// "neither draw exceeds its minimum" against a non-degenerate range.
type zeroSource struct{}

func (zeroSource) Int63() int64 { return 0 }
func (zeroSource) Seed(int64)   {}

func TestDrawSigmaRhoFixesToMaxWhenNeitherDrawExceedsMinimum(t *testing.T) {
	sp := StrippleParams{
		SigmaMin: 1, SigmaMax: 3,
		RhoMin: 2, RhoMax: 5,
	}
	rng := rand.New(zeroSource{})
	sigma, rho := drawSigmaRho(sp, rng)
	assert.Equal(t, sp.SigmaMax, sigma)
	assert.Equal(t, sp.RhoMax, rho)
}

// maxSource is a rand.Source whose Float64() always yields 1-2^-43, just under 1, so
// drawStrippleValue's draw lands just under max — the deterministic way to exercise "one
// draw exceeds its minimum" without guessing at a seed. (math.MaxInt64 itself would
// round to exactly 1.0, which math/rand rejects and redraws forever.)
type maxSource struct{}

func (maxSource) Int63() int64 { return math.MaxInt64 - (1<<20 - 1) }
func (maxSource) Seed(int64)   {}

func TestDrawSigmaRhoKeepsDrawWhenOneExceedsMinimum(t *testing.T) {
	sp := StrippleParams{
		SigmaMin: 1, SigmaMax: 1, // degenerate, never exceeds its own minimum
		RhoMin: 2, RhoMax: 5,
	}
	rng := rand.New(maxSource{})
	sigma, rho := drawSigmaRho(sp, rng)
	assert.Equal(t, sp.SigmaMin, sigma)
	assert.Greater(t, rho, sp.RhoMin)
	assert.Less(t, rho, sp.RhoMax)
}

func TestPermustrainSkipsSingleSpeciesSwap(t *testing.T) {
	c := crystal.New(1, 1)
	c.Cell = cell.FromParams(4, 4, 4, 90, 90, 90)
	c.AddAtom(6, cell.Vec3{0, 0, 0})
	c.AddAtom(6, cell.Vec3{1, 1, 1})

	pp := PermustrainParams{
		Params:     basicParams(),
		SigmaMax:   0,
		NExchanges: 5,
	}
	rng := rand.New(rand.NewSource(3))
	offspring := Permustrain(c, pp, rng)
	assert.Len(t, offspring.Atoms, 2)
}

func TestPermutomicProducesValidCompositionWithinLimits(t *testing.T) {
	parent := waterLikeCrystal(1)
	rng := rand.New(rand.NewSource(9))
	offspring := Permutomic(parent, basicParams(), rng)
	total := 0
	for _, c := range offspring.SpeciesCounts() {
		total += c
	}
	assert.GreaterOrEqual(t, total, basicParams().CompositionLimits.MinAtoms)
	assert.LessOrEqual(t, total, basicParams().CompositionLimits.MaxAtoms)
}

func TestPermucompGeneratesCompositionWithinLimits(t *testing.T) {
	parent := waterLikeCrystal(1)
	rng := rand.New(rand.NewSource(21))
	offspring := Permucomp(parent, basicParams(), rng)
	total := 0
	for _, c := range offspring.SpeciesCounts() {
		total += c
	}
	assert.GreaterOrEqual(t, total, basicParams().CompositionLimits.MinAtoms)
	assert.LessOrEqual(t, total, basicParams().CompositionLimits.MaxAtoms)
	assert.True(t, offspring.HasValidComposition)
}
