package genetic

import (
	"math/rand"

	"github.com/xtalopt/xtalopt-go/cell"
	"github.com/xtalopt/xtalopt-go/crystal"
)

// PermustrainParams adds permustrain-specific knobs to Params.
type PermustrainParams struct {
	Params
	SigmaMax    float64
	NExchanges  int
}

// Permustrain applies a lattice strain with sigma in [0, SigmaMax], then performs
// NExchanges pair-swaps of positions between atoms of different species (a no-op if the
// system has a single species), per spec.md section 4.7.
func Permustrain(parent *crystal.Crystal, pp PermustrainParams, rng *rand.Rand) *crystal.Crystal {
	tok := crystal.NewToken()
	parent.Lock().RLock(tok)
	defer parent.Lock().RUnlock(tok)

	out := parent.Clone()
	out.Generation = parent.Generation + 1
	out.State = crystal.WaitingForOptimization
	out.ParentTag = parent.Tag()
	out.History = nil

	sigma := rng.Float64() * pp.SigmaMax
	origVolume := out.Cell.Volume()
	eps := voigtStrain(sigma, rng)
	if sigma != 0 {
		fracs := make([]cell.Vec3, len(out.Atoms))
		for i, a := range out.Atoms {
			fracs[i] = parent.Cell.CartToFrac(a.Cart)
		}
		out.Cell = applyStrain(out.Cell.M, eps, origVolume)
		for i, f := range fracs {
			out.Atoms[i].Cart = out.Cell.FracToCart(f)
		}
	}

	species := make(map[int]bool)
	for _, a := range out.Atoms {
		species[a.AtomicNumber] = true
	}
	if len(species) > 1 && len(out.Atoms) > 1 {
		for i := 0; i < pp.NExchanges; i++ {
			a := rng.Intn(len(out.Atoms))
			b := rng.Intn(len(out.Atoms))
			if out.Atoms[a].AtomicNumber == out.Atoms[b].AtomicNumber {
				continue
			}
			out.Atoms[a].Cart, out.Atoms[b].Cart = out.Atoms[b].Cart, out.Atoms[a].Cart
		}
	}

	out.WrapAtoms()
	return out
}
