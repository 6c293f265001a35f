package queue

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/xtalopt/xtalopt-go/cell"
	"github.com/xtalopt/xtalopt-go/config"
	"github.com/xtalopt/xtalopt-go/crystal"
	"github.com/xtalopt/xtalopt-go/oracle"
	"github.com/xtalopt/xtalopt-go/xlog"
)

// jobHandles tracks each in-flight crystal's opaque JobHandle, keyed by tag; kept
// outside Crystal itself since oracle.JobHandle is an external-adapter concern, not
// part of the Structure Model (spec.md section 3).
var jobHandlesMu sync.Mutex
var jobHandles = make(map[string]oracle.JobHandle)

// advance moves one structure through one pipeline step, per spec.md section 4.8.
func (m *Manager) advance(ctx context.Context, c *crystal.Crystal, settings *config.Settings) {
	tok := crystal.NewToken()
	c.Lock().Lock(tok)
	defer c.Lock().Unlock(tok)

	switch c.State {
	case crystal.WaitingForOptimization:
		m.trySubmit(ctx, c, settings)
	case crystal.Submitted, crystal.InProcess:
		m.pollOne(ctx, c, settings)
	}
}

func (m *Manager) trySubmit(ctx context.Context, c *crystal.Crystal, settings *config.Settings) {
	if c.CurrentOptStep >= len(m.Steps) {
		m.finishOptimization(ctx, c)
		return
	}

	m.schedMu.Lock()
	if settings.RunningJobLimit > 0 && m.Tracker.CountInProgress() >= settings.RunningJobLimit {
		m.schedMu.Unlock()
		return
	}
	// Claim a slot before releasing the lock: Submitted counts against
	// CountInProgress, so the next waiting structure's check sees this one already
	// occupying it.
	c.State = crystal.Submitted
	m.schedMu.Unlock()

	step := m.Steps[c.CurrentOptStep]
	workDir := ""
	if m.WorkDir != nil {
		workDir = m.WorkDir(c.Tag())
	}

	handle, err := step.Adapter.Submit(ctx, c.CurrentOptStep, workDir, toStructureData(c))
	if err != nil {
		xlog.Default.Printf("submit failed for %s: %v", c.Tag(), &QueueError{Kind: StepFailure, Tag: c.Tag(), Err: err})
		rng := m.nextRand()
		m.applyFailPolicy(c, settings, rng)
		return
	}

	jobHandlesMu.Lock()
	jobHandles[c.Tag()] = handle
	jobHandlesMu.Unlock()

	c.JobID = step.ID
}

func (m *Manager) pollOne(ctx context.Context, c *crystal.Crystal, settings *config.Settings) {
	jobHandlesMu.Lock()
	handle, ok := jobHandles[c.Tag()]
	jobHandlesMu.Unlock()
	if !ok {
		c.State = crystal.WaitingForOptimization
		return
	}

	step := m.Steps[c.CurrentOptStep]
	status, err := step.Adapter.Poll(ctx, handle)
	if err != nil {
		rng := m.nextRand()
		m.applyFailPolicy(c, settings, rng)
		return
	}

	switch status {
	case oracle.Queued:
		c.State = crystal.Submitted
	case oracle.Running:
		c.State = crystal.InProcess
	case oracle.Failed:
		rng := m.nextRand()
		m.applyFailPolicy(c, settings, rng)
	case oracle.Finished:
		m.completeStep(ctx, c, handle, step, settings)
	}
}

func (m *Manager) completeStep(ctx context.Context, c *crystal.Crystal, handle oracle.JobHandle, step StepAdapter, settings *config.Settings) {
	c.State = crystal.Updating
	result, err := step.Adapter.Fetch(ctx, handle)
	if err != nil {
		rng := m.nextRand()
		m.applyFailPolicy(c, settings, rng)
		return
	}

	prevHistory := c.History
	c.AppendHistory(crystal.HistoryStep{
		AtomicNumbers: atomicNumbersOf(c),
		Positions:     positionsOf(c),
		Energy:        c.Energy,
		Enthalpy:      c.Enthalpy,
		Cell:          c.Cell,
	})

	applyFetchResult(c, result)
	logEnergyRegression(c, prevHistory, result.Energy)
	c.FailCount = 0
	c.CurrentOptStep++
	c.State = crystal.StepOptimized

	if c.CurrentOptStep >= len(m.Steps) {
		m.finishOptimization(ctx, c)
		return
	}
	c.State = crystal.WaitingForOptimization
}

// finishOptimization runs the hardness oracle and the objective oracle(s)
// concurrently, per spec.md section 4.8: "the structure moves to Optimized once both
// return Retain".
func (m *Manager) finishOptimization(ctx context.Context, c *crystal.Crystal) {
	c.State = crystal.ObjectiveCalculation
	workDir := ""
	if m.WorkDir != nil {
		workDir = m.WorkDir(c.Tag())
	}

	var wg sync.WaitGroup
	var hardnessOK = true
	if m.HardnessOracle != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, err := m.HardnessOracle.Submit(ctx, poscarText(c))
			if err != nil {
				hardnessOK = false
				return
			}
			_ = token
		}()
	}

	c.Objectives = make([]crystal.Objective, len(m.Objectives))
	for i, obj := range m.Objectives {
		wg.Add(1)
		go func(i int, obj oracle.ObjectiveOracle) {
			defer wg.Done()
			value, err := obj.Run(ctx, workDir, toStructureData(c))
			if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
				c.Objectives[i] = crystal.Objective{State: crystal.Fail}
				return
			}
			c.Objectives[i] = crystal.Objective{Value: value, State: crystal.Retain}
		}(i, obj)
	}
	wg.Wait()

	allRetain := hardnessOK
	for _, o := range c.Objectives {
		if o.State != crystal.Retain {
			allRetain = false
		}
	}
	if allRetain {
		c.State = crystal.Optimized
	} else {
		c.State = crystal.ObjectiveFail
	}
}

func toStructureData(c *crystal.Crystal) oracle.StructureData {
	sd := oracle.StructureData{
		AtomicNumbers: atomicNumbersOf(c),
	}
	sd.Positions = make([][3]float64, len(c.Atoms))
	for i, a := range c.Atoms {
		sd.Positions[i] = [3]float64{a.Cart[0], a.Cart[1], a.Cart[2]}
	}
	sd.Cell = [3][3]float64{
		{c.Cell.M[0][0], c.Cell.M[0][1], c.Cell.M[0][2]},
		{c.Cell.M[1][0], c.Cell.M[1][1], c.Cell.M[1][2]},
		{c.Cell.M[2][0], c.Cell.M[2][1], c.Cell.M[2][2]},
	}
	return sd
}

func atomicNumbersOf(c *crystal.Crystal) []int {
	out := make([]int, len(c.Atoms))
	for i, a := range c.Atoms {
		out[i] = a.AtomicNumber
	}
	return out
}

func positionsOf(c *crystal.Crystal) []cell.Vec3 {
	out := make([]cell.Vec3, len(c.Atoms))
	for i, a := range c.Atoms {
		out[i] = a.Cart
	}
	return out
}

func applyFetchResult(c *crystal.Crystal, result oracle.FetchResult) {
	c.Energy = result.Energy
	c.Atoms = c.Atoms[:0]
	for i, z := range result.Structure.AtomicNumbers {
		p := result.Structure.Positions[i]
		c.AddAtom(z, cell.Vec3{p[0], p[1], p[2]})
	}
	c.Cell = cell.Cell{M: cell.Matrix3{
		{result.Structure.Cell[0][0], result.Structure.Cell[0][1], result.Structure.Cell[0][2]},
		{result.Structure.Cell[1][0], result.Structure.Cell[1][1], result.Structure.Cell[1][2]},
		{result.Structure.Cell[2][0], result.Structure.Cell[2][1], result.Structure.Cell[2][2]},
	}}
}

// poscarText renders a minimal POSCAR-format block for the hardness oracle's submit
// call, per spec.md section 6: title line, scale 1.0, three cell rows, the per-species
// count line, a "Cartesian" marker, then the coordinate rows grouped by species in the
// same order as the count line.
func poscarText(c *crystal.Crystal) string {
	out := fmt.Sprintf("xtalopt %s\n1.0\n", c.Tag())
	for _, row := range c.Cell.M {
		out += fmt.Sprintf("%.10f %.10f %.10f\n", row[0], row[1], row[2])
	}
	counts, coords := "", ""
	for _, ec := range c.ObservedComposition().Counts {
		counts += fmt.Sprintf("%d ", ec.Count)
		for _, a := range c.Atoms {
			if a.AtomicNumber == ec.AtomicNumber {
				coords += fmt.Sprintf("%.10f %.10f %.10f\n", a.Cart[0], a.Cart[1], a.Cart[2])
			}
		}
	}
	return out + counts + "\nCartesian\n" + coords
}

// logEnergyRegression flags a StepFailure-worthy diagnostic when a freshly fetched
// energy is higher than the structure's prior history entry: history is meant to be a
// monotone record of an improving (or at worst plateauing) optimization, so a regression
// here usually means the adapter returned a structure from the wrong step. The message
// renders a readable diff of the prior history entry's %+v text against an
// "energy:<new> (regressed)" string rather than two raw struct dumps, following the teacher's io_test.go/seqhash_test.go use of the diff libraries.
func logEnergyRegression(c *crystal.Crystal, prevHistory []crystal.HistoryStep, newEnergy float64) {
	if len(prevHistory) == 0 {
		return
	}
	last := prevHistory[len(prevHistory)-1]
	if newEnergy <= last.Energy {
		return
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(fmt.Sprintf("%+v", last), fmt.Sprintf("energy:%v (regressed)", newEnergy), false)
	xlog.Default.Printf("energy regression for %s: %v", c.Tag(), &QueueError{
		Kind: StepFailure,
		Tag:  c.Tag(),
		Err:  fmt.Errorf("history diff: %s", dmp.DiffPrettyText(diffs)),
	})
}
