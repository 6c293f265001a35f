package queue

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtalopt/xtalopt-go/config"
	"github.com/xtalopt/xtalopt-go/crystal"
	"github.com/xtalopt/xtalopt-go/generate"
	"github.com/xtalopt/xtalopt-go/oracle"
	"github.com/xtalopt/xtalopt-go/tracker"
)

// neverFinishingAdapter reports every job as perpetually Running, so structures stay
// in InProcess/Submitted long enough to exercise running_job_limit (scenario S6).
type neverFinishingAdapter struct {
	submitted atomic.Int64
}

type fakeHandle struct{}

func (a *neverFinishingAdapter) Submit(ctx context.Context, step int, workingDir string, s oracle.StructureData) (oracle.JobHandle, error) {
	a.submitted.Add(1)
	return fakeHandle{}, nil
}

func (a *neverFinishingAdapter) Poll(ctx context.Context, handle oracle.JobHandle) (oracle.JobStatus, error) {
	return oracle.Running, nil
}

func (a *neverFinishingAdapter) Fetch(ctx context.Context, handle oracle.JobHandle) (oracle.FetchResult, error) {
	return oracle.FetchResult{}, nil
}

func testSettings() *config.Settings {
	return &config.Settings{
		PStripple: 0, PPermustrain: 0, PCrossover: 0,
		PoolSize:             10,
		ContinuousStructures: 0,
		RunningJobLimit:      2,
		FailLimit:            3,
		FailAction:           config.KeepTrying,
		MaxStructures:        1000,
		RDFNBins:             20,
		RDFCutoff:            8,
		RDFSigma:             0.1,
		LengthTol:            0.01,
		AngleTol:             0.01,
		MinAtoms:             1,
		MaxAtoms:             20,
	}
}

func TestRunningJobLimitCapsConcurrentJobs(t *testing.T) {
	tr := tracker.New()
	waiting := crystal.New(1, 1)
	waiting.State = crystal.WaitingForOptimization
	waiting2 := crystal.New(1, 2)
	waiting2.State = crystal.WaitingForOptimization
	waiting3 := crystal.New(1, 3)
	waiting3.State = crystal.WaitingForOptimization
	tr.Insert(waiting)
	tr.Insert(waiting2)
	tr.Insert(waiting3)

	adapter := &neverFinishingAdapter{}
	m := &Manager{
		Tracker: tr,
		Steps:   []StepAdapter{{ID: "step0", Adapter: adapter}},
	}
	settings := testSettings()

	var wg sync.WaitGroup
	for _, c := range tr.All() {
		c := c
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.advance(context.Background(), c, settings)
		}()
	}
	wg.Wait()

	inProgress, stillWaiting := 0, 0
	for _, c := range tr.All() {
		switch {
		case c.State.InProgress():
			inProgress++
		case c.State == crystal.WaitingForOptimization:
			stillWaiting++
		}
	}
	assert.Equal(t, settings.RunningJobLimit, inProgress)
	assert.Equal(t, 1, stillWaiting)
}

func TestApplyFailPolicyKeepTryingResetsState(t *testing.T) {
	tr := tracker.New()
	m := &Manager{Tracker: tr}
	c := crystal.New(1, 1)
	settings := testSettings()
	settings.FailAction = config.KeepTrying
	settings.FailLimit = 1

	rng := rand.New(rand.NewSource(1))
	m.applyFailPolicy(c, settings, rng)
	assert.Equal(t, crystal.WaitingForOptimization, c.State)
	assert.Equal(t, 0, c.FailCount)
}

func TestApplyFailPolicyKillsAfterLimit(t *testing.T) {
	tr := tracker.New()
	m := &Manager{Tracker: tr}
	c := crystal.New(1, 1)
	settings := testSettings()
	settings.FailAction = config.Kill
	settings.FailLimit = 1

	rng := rand.New(rand.NewSource(1))
	m.applyFailPolicy(c, settings, rng)
	assert.Equal(t, crystal.Killed, c.State)
}

func TestCheckSimilarityMarksNewerDuplicate(t *testing.T) {
	tr := tracker.New()
	radii := crystal.NewElementRadii(map[int]float64{11: 1.0}, 0.5, 0.6)
	gp := generate.Params{
		LengthA: generate.Range{Min: 4, Max: 4}, LengthB: generate.Range{Min: 4, Max: 4}, LengthC: generate.Range{Min: 4, Max: 4},
		AngleAlpha: generate.Range{Min: 90, Max: 90}, AngleBeta: generate.Range{Min: 90, Max: 90}, AngleGamma: generate.Range{Min: 90, Max: 90},
		Volume:          generate.Range{Min: 64, Max: 64},
		Composition:     crystal.NewComposition(map[int]int{11: 2}),
		Radii:           radii,
		MaxAddAttempts:  100,
		MaxCellAttempts: 100,
	}
	rng := rand.New(rand.NewSource(1))
	a, err := generate.Box(gp, rng)
	require.NoError(t, err)
	a.Generation = 1
	a.ID = 1
	a.State = crystal.Optimized

	b := a.Clone()
	b.Generation = 2
	b.ID = 1
	b.State = crystal.Optimized

	tr.Insert(a)
	tr.Insert(b)

	m := &Manager{Tracker: tr}
	settings := testSettings()
	m.checkSimilarity(settings)

	assert.Equal(t, crystal.Optimized, a.State)
	assert.Equal(t, crystal.Similar, b.State)
}

func TestMaybeSaveWritesOnlyOnceIntervalElapses(t *testing.T) {
	dir := t.TempDir()
	tr := tracker.New()
	tr.Insert(crystal.New(1, 1))

	m := &Manager{Tracker: tr, SaveDir: dir}
	settings := testSettings()
	settings.SaveIntervalTicks = 3

	entries := func() []os.DirEntry {
		es, err := os.ReadDir(dir)
		require.NoError(t, err)
		return es
	}

	m.maybeSave(settings)
	m.maybeSave(settings)
	assert.Empty(t, entries(), "must not save before the interval elapses")

	m.maybeSave(settings)
	assert.NotEmpty(t, entries(), "must save once the interval elapses")

	saved := entries()
	require.Len(t, saved, 2) // one .yaml, one .sum
	assert.Contains(t, []string{filepath.Ext(saved[0].Name()), filepath.Ext(saved[1].Name())}, ".yaml")
}
