package fitness

import (
	"math"
	"sort"

	weightedRand "github.com/mroth/weightedrand"
)

// Entry is one candidate's raw fitness inputs: its tag (for deterministic tie-breaking,
// per spec.md section 9's design note), enthalpy, optional hardness (<0 = unknown), and
// the objective values aligned positionally with Engine.Terms.
type Entry struct {
	Tag         string
	Enthalpy    float64
	HasEnthalpy bool
	Hardness    float64
	Objectives  []float64
}

// Engine holds the configured objective terms and hardness weight used to turn a set of
// Entries into a ProbabilityList, per spec.md section 4.6.
type Engine struct {
	Terms []Term
	// HardnessWeight is in [0,1]; a negative value disables the hardness term.
	HardnessWeight float64
	PoolSize       int
}

// rankedEntry pairs a survivor's original index with its computed raw fitness, used to
// sort deterministically before building the cumulative list.
type rankedEntry struct {
	index int
	tag   string
	raw   float64
}

// Compute runs the cumulative-probability-list algorithm of spec.md section 4.6: combine
// weighted term contributions plus an enthalpy contribution, drop to PoolSize survivors,
// and normalize to a cumulative distribution.
func (e Engine) Compute(entries []Entry) ProbabilityList {
	n := len(entries)
	if n == 0 {
		return ProbabilityList{}
	}

	weightSum := 0.0
	for _, t := range e.Terms {
		weightSum += t.Weight
	}
	if e.HardnessWeight > 0 {
		weightSum += e.HardnessWeight
	}

	raw := make([]float64, n)

	enthalpyValues := make([]float64, n)
	for i, en := range entries {
		if en.HasEnthalpy {
			enthalpyValues[i] = en.Enthalpy
		} else {
			enthalpyValues[i] = math.NaN()
		}
	}
	enthalpyWeight := 1 - weightSum
	enthalpyPartials := partials(Minimize, enthalpyValues)
	for i := range raw {
		raw[i] += enthalpyWeight * enthalpyPartials[i]
	}

	for ti, term := range e.Terms {
		values := make([]float64, n)
		for i, en := range entries {
			if ti < len(en.Objectives) {
				values[i] = en.Objectives[ti]
			} else {
				values[i] = math.NaN()
			}
		}
		termPartials := partials(term.Kind, values)
		for i := range raw {
			raw[i] += term.Weight * termPartials[i]
		}
	}

	if e.HardnessWeight > 0 {
		hardnessValues := make([]float64, n)
		for i, en := range entries {
			if en.Hardness < 0 {
				hardnessValues[i] = math.NaN()
			} else {
				hardnessValues[i] = en.Hardness
			}
		}
		hardnessPartials := partials(Maximize, hardnessValues)
		for i := range raw {
			raw[i] += e.HardnessWeight * hardnessPartials[i]
		}
	}

	if allEqualOrNaN(raw) {
		return uniformList(entries, e.PoolSize)
	}

	ranked := make([]rankedEntry, n)
	for i, r := range raw {
		ranked[i] = rankedEntry{index: i, tag: entries[i].Tag, raw: r}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].raw != ranked[j].raw {
			return ranked[i].raw < ranked[j].raw
		}
		return ranked[i].tag < ranked[j].tag
	})

	poolSize := e.PoolSize
	if poolSize <= 0 || poolSize > n {
		poolSize = n
	}
	survivors := ranked[n-poolSize:]

	sum := 0.0
	for _, s := range survivors {
		sum += s.raw
	}
	if sum <= 0 {
		return uniformListFromRanked(survivors)
	}

	list := make(ProbabilityList, len(survivors))
	running := 0.0
	for i, s := range survivors {
		running += s.raw / sum
		list[i] = ListEntry{Tag: s.tag, Index: s.index, Cumulative: running}
	}
	list[len(list)-1].Cumulative = 1.0
	return list
}

func allEqualOrNaN(raw []float64) bool {
	var first float64
	firstSet := false
	for _, v := range raw {
		if math.IsNaN(v) {
			continue
		}
		if !firstSet {
			first = v
			firstSet = true
			continue
		}
		if math.Abs(v-first) > 1e-12 {
			return false
		}
	}
	return true
}

func uniformList(entries []Entry, poolSize int) ProbabilityList {
	n := len(entries)
	if poolSize <= 0 || poolSize > n {
		poolSize = n
	}
	list := make(ProbabilityList, poolSize)
	step := 1.0 / float64(poolSize)
	running := 0.0
	for i := 0; i < poolSize; i++ {
		running += step
		list[i] = ListEntry{Tag: entries[i].Tag, Index: i, Cumulative: running}
	}
	list[len(list)-1].Cumulative = 1.0
	return list
}

func uniformListFromRanked(survivors []rankedEntry) ProbabilityList {
	n := len(survivors)
	list := make(ProbabilityList, n)
	step := 1.0 / float64(n)
	running := 0.0
	for i, s := range survivors {
		running += step
		list[i] = ListEntry{Tag: s.tag, Index: s.index, Cumulative: running}
	}
	list[len(list)-1].Cumulative = 1.0
	return list
}

// ListEntry is one row of a ProbabilityList: the surviving candidate's tag, its original
// index into the Entries slice passed to Compute, and its cumulative probability.
type ListEntry struct {
	Tag        string
	Index      int
	Cumulative float64
}

// ProbabilityList is the cumulative distribution produced by Engine.Compute, per spec.md
// section 4.6: monotone nondecreasing, ending at 1.0.
type ProbabilityList []ListEntry

// Chooser builds a github.com/mroth/weightedrand chooser from the list's per-entry
// cumulative deltas, an alternative weighted-sampling primitive that the Queue Manager
// does not use (its parent selection calls Select); weights are quantized to a fixed-point integer scale since weightedrand.Choice requires
// an integer weight.
func (pl ProbabilityList) Chooser() weightedRand.Chooser {
	const scale = 1 << 20
	choices := make([]weightedRand.Choice, len(pl))
	prev := 0.0
	for i, e := range pl {
		delta := e.Cumulative - prev
		prev = e.Cumulative
		w := uint(delta * scale)
		if w == 0 {
			w = 1
		}
		choices[i] = weightedRand.Choice{Item: e.Index, Weight: w}
	}
	return weightedRand.NewChooser(choices...)
}

// Select returns the index (into the original Entries slice) of the first entry whose
// cumulative probability is >= u, per spec.md section 4.6's selection primitive. u should
// be drawn uniformly from [0,1). This is the primitive the Queue Manager actually calls for
// parent selection, with u drawn from its own seeded *rand.Rand; it does not go through
// Chooser, since weightedrand.Chooser draws from its own internal random source rather than
// an injectable one, which would make selection non-reproducible from the Manager's seed.
func (pl ProbabilityList) Select(u float64) int {
	for _, e := range pl {
		if e.Cumulative >= u {
			return e.Index
		}
	}
	if len(pl) == 0 {
		return -1
	}
	return pl[len(pl)-1].Index
}
