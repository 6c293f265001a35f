package crystal

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtalopt/xtalopt-go/cell"
)

func cubicCrystal() *Crystal {
	c := New(1, 1)
	c.Cell = cell.FromParams(5, 5, 5, 90, 90, 90)
	c.AddAtom(1, cell.Vec3{0, 0, 0})
	c.AddAtom(8, cell.Vec3{2.5, 2.5, 2.5})
	return c
}

func TestWrapAtomsIdempotent(t *testing.T) {
	c := cubicCrystal()
	c.AddAtom(1, cell.Vec3{6.1, -1.2, 12.7})

	c.WrapAtoms()
	first := append([]cell.Vec3(nil), fracOf(c)...)
	c.WrapAtoms()
	second := fracOf(c)

	for i := range first {
		for k := 0; k < 3; k++ {
			assert.InDelta(t, first[i][k], second[i][k], 1e-9)
		}
	}
}

func fracOf(c *Crystal) []cell.Vec3 {
	return c.FractionalPositions()
}

func TestAddAtomRandomlyFirstAtomAtOrigin(t *testing.T) {
	c := New(1, 1)
	c.Cell = cell.FromParams(5, 5, 5, 90, 90, 90)
	radii := NewElementRadii(map[int]float64{1: 0.3}, 0.3, 1.0)
	rng := rand.New(rand.NewSource(1))
	require.NoError(t, c.AddAtomRandomly(1, radii, 100, rng))
	assert.Equal(t, cell.Vec3{0, 0, 0}, c.Atoms[0].Cart)
}

func TestAddAtomRandomlyRespectsRadii(t *testing.T) {
	c := New(1, 1)
	c.Cell = cell.FromParams(10, 10, 10, 90, 90, 90)
	radii := NewElementRadii(map[int]float64{1: 2.0}, 2.0, 1.0)
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 5; i++ {
		require.NoError(t, c.AddAtomRandomly(1, radii, 1000, rng))
	}
	assert.True(t, c.CheckInteratomicDistances(radii))
}

func TestRDFSimilaritySymmetric(t *testing.T) {
	a := cubicCrystal()
	b := cubicCrystal()
	rdfA := a.CalculateNormalizedRDF(50, 6, 0.1)
	rdfB := b.CalculateNormalizedRDF(50, 6, 0.1)
	assert.InDelta(t, rdfA.Compare(rdfB), rdfB.Compare(rdfA), 1e-12)
	assert.True(t, Similar(rdfA, rdfB, 1e-3))
}

func TestRDFDifferentCompositionNotSimilar(t *testing.T) {
	a := cubicCrystal()
	b := New(1, 2)
	b.Cell = cell.FromParams(5, 5, 5, 90, 90, 90)
	b.AddAtom(1, cell.Vec3{0, 0, 0})
	b.AddAtom(1, cell.Vec3{1, 1, 1})

	rdfA := a.CalculateNormalizedRDF(50, 6, 0.1)
	rdfB := b.CalculateNormalizedRDF(50, 6, 0.1)
	assert.False(t, Similar(rdfA, rdfB, 1e-3))
}

func TestFastHashMatchesForIdenticalFingerprintsAndDiffersOtherwise(t *testing.T) {
	a := cubicCrystal()
	b := cubicCrystal()
	c := New(1, 2)
	c.Cell = cell.FromParams(5, 5, 5, 90, 90, 90)
	c.AddAtom(1, cell.Vec3{0, 0, 0})
	c.AddAtom(1, cell.Vec3{1, 1, 1})

	rdfA := a.CalculateNormalizedRDF(50, 6, 0.1)
	rdfB := b.CalculateNormalizedRDF(50, 6, 0.1)
	rdfC := c.CalculateNormalizedRDF(50, 6, 0.1)

	const scale = 1e3
	assert.Equal(t, rdfA.FastHash(scale), rdfB.FastHash(scale))
	assert.NotEqual(t, rdfA.FastHash(scale), rdfC.FastHash(scale))
}

func TestHistoryAppendOnlyExceptDelete(t *testing.T) {
	c := New(1, 1)
	c.AppendHistory(HistoryStep{Energy: -1})
	c.AppendHistory(HistoryStep{Energy: -2})
	require.Len(t, c.History, 2)
	c.DeleteHistory(0)
	require.Len(t, c.History, 1)
	assert.Equal(t, -2.0, c.History[0].Energy)
}

func TestReentrantRWLock(t *testing.T) {
	l := NewRWLock()
	tok := NewToken()
	l.RLock(tok)
	l.RLock(tok) // reentrant read
	l.RUnlock(tok)
	l.RUnlock(tok)

	l.Lock(tok)
	l.Lock(tok) // reentrant write
	l.Unlock(tok)
	l.Unlock(tok)
}
