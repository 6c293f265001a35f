package crystal

import (
	"errors"
	"math/rand"

	"github.com/xtalopt/xtalopt-go/cell"
)

// ErrNoFit is returned by AddAtomRandomly when no acceptable position was found within
// the attempt budget (spec.md section 4.2).
var ErrNoFit = errors.New("crystal: no fit found for new atom within max_attempts")

// AddAtom appends one atom at an explicit cartesian position.
func (c *Crystal) AddAtom(z int, cart cell.Vec3) {
	c.Atoms = append(c.Atoms, Atom{AtomicNumber: z, Cart: cart})
}

// AddAtomRandomly draws a random fractional position for a new atom of species z and
// accepts it iff no neighbor image of any existing atom is within radii.MinDistance of
// it. The very first atom placed in an empty crystal always goes to the origin, per
// spec.md section 4.2. Returns ErrNoFit after maxAttempts rejected draws.
func (c *Crystal) AddAtomRandomly(z int, radii ElementRadii, maxAttempts int, rng *rand.Rand) error {
	if len(c.Atoms) == 0 {
		c.AddAtom(z, cell.Vec3{0, 0, 0})
		return nil
	}

	existingFrac := c.FractionalPositions()
	for attempt := 0; attempt < maxAttempts; attempt++ {
		candidate := cell.Vec3{rng.Float64(), rng.Float64(), rng.Float64()}
		ok := true
		for i, frac := range existingFrac {
			minDist := radii.MinDistance(z, c.Atoms[i].AtomicNumber)
			if c.Cell.ShortestInteratomicDistance(candidate, frac) < minDist {
				ok = false
				break
			}
		}
		if ok {
			c.AddAtom(z, c.Cell.FracToCart(candidate))
			return nil
		}
	}
	return ErrNoFit
}

// CheckInteratomicDistances verifies every pair of atoms respects radii's minimum
// distance, using twice the largest species radius as a single early-exit cutoff
// (spec.md section 4.2): pairs farther apart than that cutoff can never violate any
// pairwise minimum, since no single-species minimum distance can exceed 2*maxRadius.
func (c *Crystal) CheckInteratomicDistances(radii ElementRadii) bool {
	if len(c.Atoms) < 2 {
		return true
	}
	species := make([]int, len(c.Atoms))
	for i, a := range c.Atoms {
		species[i] = a.AtomicNumber
	}
	cutoff := 2 * radii.MaxRadius(species)

	frac := c.FractionalPositions()
	for i := 0; i < len(frac); i++ {
		for j := i + 1; j < len(frac); j++ {
			minDist := radii.MinDistance(species[i], species[j])
			if minDist > cutoff {
				cutoff = minDist
			}
			d := c.Cell.ShortestInteratomicDistance(frac[i], frac[j])
			if d > cutoff {
				continue
			}
			if d < minDist {
				return false
			}
		}
	}
	return true
}

// GenerateBonds infers a bond list from covalent radii plus a tolerance: atoms closer
// than (radius(a)+radius(b))*(1+tolerance) are considered bonded.
func (c *Crystal) GenerateBonds(radii ElementRadii, tolerance float64) {
	c.Bonds = c.Bonds[:0]
	frac := c.FractionalPositions()
	for i := 0; i < len(c.Atoms); i++ {
		for j := i + 1; j < len(c.Atoms); j++ {
			threshold := radii.MinDistance(c.Atoms[i].AtomicNumber, c.Atoms[j].AtomicNumber) * (1 + tolerance)
			if c.Cell.ShortestInteratomicDistance(frac[i], frac[j]) <= threshold {
				c.Bonds = append(c.Bonds, Bond{I: i, J: j})
			}
		}
	}
}
