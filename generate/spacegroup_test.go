package generate

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtalopt/xtalopt-go/crystal"
)

func spacegroupParams(sgs []int) SpacegroupParams {
	return SpacegroupParams{
		Params: Params{
			LengthA:             Range{Min: 4, Max: 6},
			LengthB:             Range{Min: 4, Max: 6},
			LengthC:             Range{Min: 4, Max: 6},
			AngleAlpha:          Range{Min: 90, Max: 90},
			AngleBeta:           Range{Min: 90, Max: 90},
			AngleGamma:          Range{Min: 90, Max: 90},
			Volume:              Range{Min: 1, Max: 1000},
			Composition:         crystal.NewComposition(map[int]int{11: 4}),
			Radii:               testRadii(),
			MaxAddAttempts:       100,
			MaxCellAttempts:      100,
			MaxPlacementRetries:  200,
		},
		AllowedSpaceGroups: sgs,
		MaxOrbitsPerSolve:  20,
	}
}

func TestSpacegroupProducesRequestedComposition(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	p := spacegroupParams([]int{225})
	c, err := Spacegroup(p, rng)
	require.NoError(t, err)

	assert.Equal(t, 1, c.Generation)
	assert.Equal(t, crystal.WaitingForOptimization, c.State)
	counts := c.SpeciesCounts()
	assert.Equal(t, 4, counts[11])
}

func TestSpacegroupFailsWithNoAllowedGroups(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	p := spacegroupParams(nil)
	_, err := Spacegroup(p, rng)
	assert.ErrorIs(t, err, ErrGenerationFailure)
}

func TestSpacegroupFailsWhenPartitionImpossible(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	p := spacegroupParams([]int{1})
	p.Composition = crystal.NewComposition(map[int]int{11: 3})
	p.MaxOrbitsPerSolve = 2
	_, err := Spacegroup(p, rng)
	assert.ErrorIs(t, err, ErrGenerationFailure)
}
