package genetic

import (
	"math"
	"math/rand"

	"github.com/xtalopt/xtalopt-go/cell"
	"github.com/xtalopt/xtalopt-go/crystal"
)

// StrippleParams adds stripple-specific knobs to Params.
type StrippleParams struct {
	Params
	SigmaMin, SigmaMax float64
	RhoMin, RhoMax     float64
}

// Stripple applies a Voigt lattice strain plus a sinusoidal atomic displacement
// ("ripple") along a randomly chosen axis, per spec.md section 4.7. sigma and rho are
// drawn by drawSigmaRho.
func Stripple(parent *crystal.Crystal, sp StrippleParams, rng *rand.Rand) *crystal.Crystal {
	tok := crystal.NewToken()
	parent.Lock().RLock(tok)
	defer parent.Lock().RUnlock(tok)

	out := parent.Clone()
	out.Generation = parent.Generation + 1
	out.State = crystal.WaitingForOptimization
	out.ParentTag = parent.Tag()
	out.History = nil

	sigma, rho := drawSigmaRho(sp, rng)

	fracs := make([]cell.Vec3, len(out.Atoms))
	for i, a := range out.Atoms {
		fracs[i] = parent.Cell.CartToFrac(a.Cart)
	}

	origVolume := out.Cell.Volume()
	eps := voigtStrain(sigma, rng)
	if sigma != 0 {
		out.Cell = applyStrain(out.Cell.M, eps, origVolume)
	}

	if rho != 0 {
		axis := rng.Intn(3)
		u, v := (axis+1)%3, (axis+2)%3
		eta := 1 + rng.Float64()
		mu := 1 + rng.Float64()
		phi1 := rng.Float64() * 2 * math.Pi
		phi2 := rng.Float64() * 2 * math.Pi
		for i := range fracs {
			delta := rho * math.Cos(2*math.Pi*eta*fracs[i][u]+phi1) * math.Cos(2*math.Pi*mu*fracs[i][v]+phi2)
			fracs[i][axis] += delta
		}
	}

	for i, f := range fracs {
		out.Atoms[i].Cart = out.Cell.FracToCart(f)
	}
	out.WrapAtoms()
	return out
}

// drawSigmaRho draws sigma and rho independently and uniformly from their ranges, per
// spec.md section 4.7: the draw is rejected unless at least one of them exceeds its
// configured minimum, in which case both are instead fixed to their maximum. A
// degenerate range (min==max) always draws that fixed value, so scenario S5's
// sigma_min==sigma_max==0, rho_min==rho_max==0 case leaves the offspring identical to the
// parent after wrap: neither draw exceeds its minimum, so both are fixed to their
// maximum, which equals the same degenerate value.
func drawSigmaRho(sp StrippleParams, rng *rand.Rand) (sigma, rho float64) {
	sigma = drawStrippleValue(sp.SigmaMin, sp.SigmaMax, rng)
	rho = drawStrippleValue(sp.RhoMin, sp.RhoMax, rng)
	if sigma > sp.SigmaMin || rho > sp.RhoMin {
		return sigma, rho
	}
	return sp.SigmaMax, sp.RhoMax
}

// drawStrippleValue draws uniformly in [min,max]; a degenerate range (min==max) always
// returns that fixed value rather than risk a zero-width rng.Float64() multiply.
func drawStrippleValue(min, max float64, rng *rand.Rand) float64 {
	if min == max {
		return min
	}
	return min + rng.Float64()*(max-min)
}
