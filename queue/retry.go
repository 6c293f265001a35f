package queue

import (
	"math/rand"

	"github.com/xtalopt/xtalopt-go/config"
	"github.com/xtalopt/xtalopt-go/crystal"
)

// applyFailPolicy implements spec.md section 4.8's per-step failure policy: increment
// fail_count on a step failure; if below fail_limit, restart the same step; if at/above,
// apply fail_action.
func (m *Manager) applyFailPolicy(c *crystal.Crystal, settings *config.Settings, rng *rand.Rand) {
	c.FailCount++
	if c.FailCount < settings.FailLimit {
		c.State = crystal.WaitingForOptimization
		return
	}

	switch settings.FailAction {
	case config.Kill:
		c.State = crystal.Killed
	case config.ReplaceWithRandom:
		m.replaceWithRandom(c, rng)
	case config.ReplaceWithNewOffspring:
		m.replaceWithOffspring(c, rng)
	case config.KeepTrying:
		fallthrough
	default:
		c.FailCount = 0
		c.State = crystal.WaitingForOptimization
	}
}

// replaceWithRandom regenerates c's cell/atoms in place (keeping its tag) via the
// Random Generator, per spec.md section 4.8's ReplaceWithRandom action.
func (m *Manager) replaceWithRandom(c *crystal.Crystal, rng *rand.Rand) {
	fresh, err := m.generateCandidate(rng)
	if err != nil {
		c.State = crystal.ErrorState
		return
	}
	c.Cell = fresh.Cell
	c.Atoms = fresh.Atoms
	c.HasValidComposition = fresh.HasValidComposition
	c.CurrentOptStep = 0
	c.FailCount = 0
	c.State = crystal.WaitingForOptimization
}

// replaceWithOffspring runs one breeding round and replaces c's structural fields with
// the offspring's, keeping c's own tag and identity in the tracker.
func (m *Manager) replaceWithOffspring(c *crystal.Crystal, rng *rand.Rand) {
	offspring, err := m.breed(rng)
	if err != nil {
		m.replaceWithRandom(c, rng)
		return
	}
	c.Cell = offspring.Cell
	c.Atoms = offspring.Atoms
	c.HasValidComposition = offspring.HasValidComposition
	c.CurrentOptStep = 0
	c.FailCount = 0
	c.State = crystal.WaitingForOptimization
}
