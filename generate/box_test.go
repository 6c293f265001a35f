package generate

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtalopt/xtalopt-go/crystal"
)

func testRadii() crystal.ElementRadii {
	return crystal.NewElementRadii(map[int]float64{6: 0.77, 8: 0.66}, 0.5, 0.6)
}

func boxParams() Params {
	return Params{
		LengthA:             Range{Min: 3, Max: 6},
		LengthB:             Range{Min: 3, Max: 6},
		LengthC:             Range{Min: 3, Max: 6},
		AngleAlpha:          Range{Min: 80, Max: 100},
		AngleBeta:           Range{Min: 80, Max: 100},
		AngleGamma:          Range{Min: 80, Max: 100},
		Volume:              Range{Min: 50, Max: 400},
		Composition:         crystal.NewComposition(map[int]int{6: 2, 8: 4}),
		Radii:               testRadii(),
		MaxAddAttempts:       200,
		MaxCellAttempts:      200,
		MaxPlacementRetries:  50,
	}
}

func TestBoxProducesRequestedComposition(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	c, err := Box(boxParams(), rng)
	require.NoError(t, err)

	assert.Equal(t, 1, c.Generation)
	assert.Equal(t, crystal.WaitingForOptimization, c.State)
	assert.True(t, c.Cell.Volume() > 0)

	counts := c.SpeciesCounts()
	assert.Equal(t, 2, counts[6])
	assert.Equal(t, 4, counts[8])
}

func TestBoxRespectsVolumeRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	p := boxParams()
	c, err := Box(p, rng)
	require.NoError(t, err)
	v := c.Cell.Volume()
	assert.GreaterOrEqual(t, v, p.Volume.Min-1e-6)
	assert.LessOrEqual(t, v, p.Volume.Max+1e-6)
}

func TestBoxFixedVolumeRescales(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	p := boxParams()
	p.Volume = Range{Min: 120, Max: 120}
	c, err := Box(p, rng)
	require.NoError(t, err)
	assert.InDelta(t, 120, c.Cell.Volume(), 1e-6)
}

func TestBoxFailsWhenCompositionCannotFit(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	p := boxParams()
	p.LengthA = Range{Min: 0.5, Max: 0.5}
	p.LengthB = Range{Min: 0.5, Max: 0.5}
	p.LengthC = Range{Min: 0.5, Max: 0.5}
	p.Volume = Range{Min: 0.01, Max: 1}
	p.MaxAddAttempts = 5
	p.MaxCellAttempts = 5
	_, err := Box(p, rng)
	assert.Error(t, err)
}
