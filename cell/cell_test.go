package cell

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFracCartRoundtrip(t *testing.T) {
	c := FromParams(5.43, 6.1, 7.2, 88, 91, 119)
	v := Vec3{0.37, 0.81, 0.12}
	got := c.CartToFrac(c.FracToCart(v))
	for i := 0; i < 3; i++ {
		assert.InDelta(t, v[i], got[i], 1e-9)
	}
}

func TestVolumePreservedBySetVolume(t *testing.T) {
	c := FromParams(4, 4, 4, 90, 90, 90)
	rescaled := c.SetVolume(500)
	assert.InDelta(t, 500, math.Abs(rescaled.Volume()), 1e-6)
}

func TestWrapFracIdempotent(t *testing.T) {
	v := Vec3{1.5, -0.25, 3.999}
	once := WrapFrac(v)
	twice := WrapFrac(once)
	require.Equal(t, once, twice)
	for _, x := range once {
		assert.GreaterOrEqual(t, x, 0.0)
		assert.Less(t, x, 1.0)
	}
}

func TestShortestInteratomicDistanceCubic(t *testing.T) {
	c := FromParams(2, 2, 2, 90, 90, 90)
	d := c.ShortestInteratomicDistance(Vec3{0, 0, 0}, Vec3{0.9, 0, 0})
	// 0.9 wraps to -0.1 image, distance 0.1 * 2 = 0.2
	assert.InDelta(t, 0.2, d, 1e-9)
}

func TestRotateToStandardOrientation(t *testing.T) {
	c := FromParams(5, 6, 7, 80, 95, 105)
	rotated := c.RotateToStandardOrientation()

	assert.InDelta(t, rotated.M[0][1], 0, 1e-9)
	assert.InDelta(t, rotated.M[0][2], 0, 1e-9)
	assert.Greater(t, rotated.M[1][1], 0.0)
	assert.InDelta(t, rotated.M[1][2], 0, 1e-9)
	assert.Greater(t, rotated.M[2][2], 0.0)

	la, lb, lc := c.Lengths()
	ra, rb, rc := rotated.Lengths()
	assert.InDelta(t, la, ra, 1e-9)
	assert.InDelta(t, lb, rb, 1e-9)
	assert.InDelta(t, lc, rc, 1e-9)
}
