package generate

import (
	"errors"
	"math/rand"
	"sort"

	"github.com/xtalopt/xtalopt-go/cell"
	"github.com/xtalopt/xtalopt-go/crystal"
)

// ErrCellNotFound is returned when box-mode generation could not find a positive-
// volume, in-range cell within MaxCellAttempts tries.
var ErrCellNotFound = errors.New("generate: no valid cell found within max_cell_attempts")

// Box draws a,b,c uniformly from their ranges (reordered so a<=b<=c), draws angles
// uniformly, accepts only cells with positive volume lying within [Vmin,Vmax]
// (rescaling uniformly to a fixed volume if the range is degenerate), then fills atoms
// one by one via AddAtomRandomly. The returned Crystal has State =
// WaitingForOptimization and Generation = 1, per spec.md section 4.5's closing
// paragraph.
func Box(p Params, rng *rand.Rand) (*crystal.Crystal, error) {
	c, err := drawCell(p, rng)
	if err != nil {
		return nil, err
	}

	out := crystal.New(1, 0)
	out.Cell = c
	out.State = crystal.WaitingForOptimization
	out.HasValidComposition = true

	for _, ec := range p.Composition.Counts {
		for i := 0; i < ec.Count; i++ {
			if addErr := out.AddAtomRandomly(ec.AtomicNumber, p.Radii, p.MaxAddAttempts, rng); addErr != nil {
				return nil, addErr
			}
		}
	}
	out.WrapAtoms()
	return out, nil
}

func drawCell(p Params, rng *rand.Rand) (cell.Cell, error) {
	for attempt := 0; attempt < p.MaxCellAttempts; attempt++ {
		lengths := []float64{
			drawRange(p.LengthA, rng),
			drawRange(p.LengthB, rng),
			drawRange(p.LengthC, rng),
		}
		sort.Float64s(lengths)

		alpha := drawRange(p.AngleAlpha, rng)
		beta := drawRange(p.AngleBeta, rng)
		gamma := drawRange(p.AngleGamma, rng)

		c := cell.FromParams(lengths[0], lengths[1], lengths[2], alpha, beta, gamma)
		v := c.Volume()
		if v <= 0 {
			continue
		}

		if p.Volume.Fixed() {
			return c.SetVolume(p.Volume.Min), nil
		}
		if v >= p.Volume.Min && v <= p.Volume.Max {
			return c, nil
		}
	}
	return cell.Cell{}, ErrCellNotFound
}

func drawRange(r Range, rng *rand.Rand) float64 {
	if r.Fixed() {
		return r.Min
	}
	return r.Min + rng.Float64()*(r.Max-r.Min)
}
