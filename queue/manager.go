package queue

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/xtalopt/xtalopt-go/config"
	"github.com/xtalopt/xtalopt-go/crystal"
	"github.com/xtalopt/xtalopt-go/fitness"
	"github.com/xtalopt/xtalopt-go/generate"
	"github.com/xtalopt/xtalopt-go/genetic"
	"github.com/xtalopt/xtalopt-go/oracle"
	"github.com/xtalopt/xtalopt-go/persist"
	"github.com/xtalopt/xtalopt-go/tracker"
	"github.com/xtalopt/xtalopt-go/xlog"
)

// StepAdapter pairs an optimizer adapter with the step index it serves (spec.md
// section 6: "The adapter is selected per optimization step by id string").
type StepAdapter struct {
	ID      string
	Adapter oracle.OptimizerAdapter
}

// Manager drives the Queue Manager scheduling loop of spec.md section 4.8.
type Manager struct {
	Tracker *tracker.Tracker
	Loader  *config.Loader

	GenerateParams     generate.Params
	SpacegroupParams   *generate.SpacegroupParams // nil disables spacegroup mode
	GeneticParams      genetic.Params
	CrossoverParams    genetic.CrossoverParams
	StrippleParams     genetic.StrippleParams
	PermustrainParams  genetic.PermustrainParams

	FitnessTerms []fitness.Term

	Steps          []StepAdapter
	HardnessOracle oracle.HardnessOracle
	Objectives     []oracle.ObjectiveOracle

	// WorkDir maps a crystal tag to the working directory an adapter/oracle should
	// use; left to the caller since filesystem layout is outside core scope.
	WorkDir func(tag string) string

	// SaveDir, if non-empty, receives an unconditional persist.SaveAll snapshot every
	// SaveIntervalTicks ticks, independent of any structure's state transitions
	// (original_source's optbase.cpp periodic "save state" behavior).
	SaveDir string

	softExit atomic.Bool
	hardExit atomic.Bool

	mu             sync.Mutex
	rng            *rand.Rand
	ticksSinceSave int

	// schedMu serializes the running_job_limit check-then-submit sequence in
	// trySubmit: Tick fans advance() out to one goroutine per structure, so without
	// this lock two WaitingForOptimization structures could both observe room under
	// the limit and both submit (spec.md section 8's S6 scenario requires the bound
	// to hold exactly, not just on average).
	schedMu sync.Mutex
}

// NewManager builds a Manager with a private rng seeded from seed.
func NewManager(t *tracker.Tracker, loader *config.Loader, seed int64) *Manager {
	return &Manager{Tracker: t, Loader: loader, rng: rand.New(rand.NewSource(seed))}
}

// RequestSoftExit lets in-progress steps finish before Tick stops producing new work
// (spec.md section 4.8's termination model).
func (m *Manager) RequestSoftExit() { m.softExit.Store(true) }

// RequestHardExit drops in-progress work immediately.
func (m *Manager) RequestHardExit() { m.hardExit.Store(true) }

func (m *Manager) nextRand() *rand.Rand {
	m.mu.Lock()
	defer m.mu.Unlock()
	return rand.New(rand.NewSource(m.rng.Int63()))
}

// Tick runs one scheduling pass: refills the in-progress pool, advances every
// structure one step, and checks the cutoff condition.
func (m *Manager) Tick(ctx context.Context) error {
	settings := m.Loader.Current()
	if err := settings.Validate(); err != nil {
		return &QueueError{Kind: ConfigError, Err: err}
	}

	if m.Tracker.Size() >= settings.MaxStructures {
		return nil
	}
	if m.hardExit.Load() {
		return nil
	}

	if !m.softExit.Load() {
		m.refillPool(settings)
	}

	var wg sync.WaitGroup
	for _, c := range m.Tracker.All() {
		c := c
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.advance(ctx, c, settings)
		}()
	}
	wg.Wait()

	m.checkSimilarity(settings)
	m.maybeSave(settings)
	return nil
}

// maybeSave triggers a periodic, unconditional snapshot independent of any structure's
// state transitions, per settings.SaveIntervalTicks.
func (m *Manager) maybeSave(settings *config.Settings) {
	if m.SaveDir == "" || settings.SaveIntervalTicks <= 0 {
		return
	}
	m.ticksSinceSave++
	if m.ticksSinceSave < settings.SaveIntervalTicks {
		return
	}
	m.ticksSinceSave = 0
	if err := persist.SaveAll(m.SaveDir, m.Tracker.All()); err != nil {
		xlog.Default.Printf("periodic save failed: %v", err)
	}
}

// refillPool ensures the number of in-progress structures equals
// continuous_structures, producing new candidates by breeding or random generation
// (spec.md section 4.8).
func (m *Manager) refillPool(settings *config.Settings) {
	running := m.countActivePool()
	for running < settings.ContinuousStructures {
		rng := m.nextRand()
		candidate, err := m.produceCandidate(settings, rng)
		if err != nil {
			xlog.Default.Printf("refillPool: %v", err)
			return
		}
		m.Tracker.Insert(candidate)
		running++
	}
}

// countActivePool counts structures still moving toward Optimized (not terminal), the
// pool refillPool must keep topped up.
func (m *Manager) countActivePool() int {
	count := 0
	for _, c := range m.Tracker.All() {
		switch c.State {
		case crystal.Killed, crystal.Removed, crystal.Similar, crystal.Optimized,
			crystal.ObjectiveFail, crystal.ObjectiveDismiss, crystal.ErrorState:
			continue
		default:
			count++
		}
	}
	return count
}

// produceCandidate picks breeding (stripple/permustrain/crossover, by configured
// probability) or random generation.
func (m *Manager) produceCandidate(settings *config.Settings, rng *rand.Rand) (*crystal.Crystal, error) {
	u := rng.Float64() * 100
	switch {
	case u < settings.PStripple:
		return m.breedStripple(rng)
	case u < settings.PStripple+settings.PPermustrain:
		return m.breedPermustrain(rng)
	case u < settings.PStripple+settings.PPermustrain+settings.PCrossover:
		return m.breedCrossover(rng)
	default:
		return m.generateCandidate(rng)
	}
}

func (m *Manager) generateCandidate(rng *rand.Rand) (*crystal.Crystal, error) {
	if m.SpacegroupParams != nil && rng.Intn(2) == 0 {
		c, err := generate.Spacegroup(*m.SpacegroupParams, rng)
		if err == nil {
			return c, nil
		}
	}
	return generate.Box(m.GenerateParams, rng)
}

func (m *Manager) breed(rng *rand.Rand) (*crystal.Crystal, error) {
	return m.produceCandidate(m.Loader.Current(), rng)
}

func (m *Manager) selectParent(rng *rand.Rand) *crystal.Crystal {
	all := m.Tracker.All()
	if len(all) == 0 {
		return nil
	}

	entries := make([]fitness.Entry, len(all))
	for i, c := range all {
		entries[i] = fitness.Entry{Tag: c.Tag(), Enthalpy: c.Enthalpy, HasEnthalpy: c.HasEnthalpy, Hardness: c.Hardness}
	}
	engine := fitness.Engine{Terms: m.FitnessTerms, PoolSize: len(all)}
	list := engine.Compute(entries)
	if len(list) == 0 {
		return all[rng.Intn(len(all))]
	}
	idx := list.Select(rng.Float64())
	if idx < 0 || idx >= len(all) {
		return all[rng.Intn(len(all))]
	}
	return all[idx]
}

func (m *Manager) breedStripple(rng *rand.Rand) (*crystal.Crystal, error) {
	parent := m.selectParent(rng)
	if parent == nil {
		return generate.Box(m.GenerateParams, rng)
	}
	return genetic.Stripple(parent, m.StrippleParams, rng), nil
}

func (m *Manager) breedPermustrain(rng *rand.Rand) (*crystal.Crystal, error) {
	parent := m.selectParent(rng)
	if parent == nil {
		return generate.Box(m.GenerateParams, rng)
	}
	return genetic.Permustrain(parent, m.PermustrainParams, rng), nil
}

func (m *Manager) breedCrossover(rng *rand.Rand) (*crystal.Crystal, error) {
	a := m.selectParent(rng)
	b := m.selectParent(rng)
	if a == nil || b == nil {
		return generate.Box(m.GenerateParams, rng)
	}
	return genetic.Crossover(a, b, m.CrossoverParams, rng), nil
}
