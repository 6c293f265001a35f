package generate

import (
	"errors"
	"math/rand"

	"github.com/xtalopt/xtalopt-go/cell"
	"github.com/xtalopt/xtalopt-go/crystal"
	"github.com/xtalopt/xtalopt-go/symmetry"
)

// ErrGenerationFailure is returned when no Wyckoff partition exists for a
// (spacegroup, element) pair, matching spec.md section 7's GenerationFailure kind;
// the caller is expected to retry with another spacegroup or fall back to Box.
var ErrGenerationFailure = errors.New("generate: spacegroup mode could not fit composition")

// SpacegroupParams adds the spacegroup-mode-specific knobs to Params.
type SpacegroupParams struct {
	Params
	AllowedSpaceGroups []int
	MaxOrbitsPerSolve  int
}

// Spacegroup picks a spacegroup from the allowed set, solves a Wyckoff partition per
// element, draws free coordinates, fills each orbit's atom count (see expandPlacements), and checks
// radii constraints, retrying up to MaxPlacementRetries times on violation (spec.md
// section 4.5).
func Spacegroup(p SpacegroupParams, rng *rand.Rand) (*crystal.Crystal, error) {
	if len(p.AllowedSpaceGroups) == 0 {
		return nil, ErrGenerationFailure
	}

	for attempt := 0; attempt < p.MaxPlacementRetries; attempt++ {
		sgNumber := p.AllowedSpaceGroups[rng.Intn(len(p.AllowedSpaceGroups))]
		sg, ok := symmetry.Table[sgNumber]
		if !ok {
			continue
		}

		c, err := tryFillSpacegroup(sg, p, rng)
		if err != nil {
			continue
		}
		if c.CheckInteratomicDistances(p.Radii) {
			return c, nil
		}
	}
	return nil, ErrGenerationFailure
}

func tryFillSpacegroup(sg symmetry.SpaceGroup, p SpacegroupParams, rng *rand.Rand) (*crystal.Crystal, error) {
	lengths := []float64{drawRange(p.LengthA, rng), drawRange(p.LengthB, rng), drawRange(p.LengthC, rng)}
	alpha := drawRange(p.AngleAlpha, rng)
	beta := drawRange(p.AngleBeta, rng)
	gamma := drawRange(p.AngleGamma, rng)
	c := cell.FromParams(lengths[0], lengths[1], lengths[2], alpha, beta, gamma)
	if c.Volume() <= 0 {
		return nil, ErrGenerationFailure
	}
	if p.Volume.Fixed() {
		c = c.SetVolume(p.Volume.Min)
	}

	out := crystal.New(1, 0)
	out.Cell = c
	out.State = crystal.WaitingForOptimization
	out.HasValidComposition = true

	for _, ec := range p.Composition.Counts {
		placements, ok := symmetry.SolvePartition(sg, ec.Count, p.MaxOrbitsPerSolve)
		if !ok {
			return nil, ErrGenerationFailure
		}
		if err := expandPlacements(out, sg, placements, ec.AtomicNumber, rng); err != nil {
			return nil, err
		}
	}
	out.WrapAtoms()
	return out, nil
}

// expandPlacements fills the atom list for one element's chosen orbit multiset,
// drawing a fresh random free-coordinate seed for each orbit instance (distinct
// seeds for reused free orbits, per spec.md section 4.4). Only the first atom of each
// orbit is placed through the orbit's parsed generator; its other multiplicity-1 atoms
// are placed at independent uniformly random fractional positions and are not
// symmetry-equivalent copies of it.
func expandPlacements(out *crystal.Crystal, sg symmetry.SpaceGroup, placements []symmetry.Placement, z int, rng *rand.Rand) error {
	for _, pl := range placements {
		orbit := sg.Orbits[pl.OrbitIndex]
		transform := symmetry.ParseGenerator(orbit.Generator)

		x, y, zz := rng.Float64(), rng.Float64(), rng.Float64()
		frac := transform.Apply(x, y, zz)
		out.AddAtom(z, out.Cell.FracToCart(cell.Vec3{frac[0], frac[1], frac[2]}))

		// A single orbit contributes `multiplicity` atoms. The table stores one
		// generator per orbit and not the spacegroup's other operators (see
		// DESIGN.md), so the remaining multiplicity-1 atoms are drawn at independent
		// uniformly random fractional positions: the atom count matches the orbit,
		// the positions do not carry its symmetry.
		for extra := 1; extra < orbit.Multiplicity; extra++ {
			fx, fy, fz := rng.Float64(), rng.Float64(), rng.Float64()
			out.AddAtom(z, out.Cell.FracToCart(cell.Vec3{fx, fy, fz}))
		}
	}
	return nil
}
