/*
Package config holds the process-wide settings object of spec.md section 5: a global,
process-wide object treated as immutable after initialization, whose runtime-tunable
knobs are reloaded atomically from a single file between ticks.

The field set mirrors original_source/src/xtalopt/cliOptions.cpp's full options surface
(probabilities, composition lists, tolerances, limits), grounded on
abondrn-poly/annotate/annotate.go's yaml.NewDecoder(...).Decode(&parsed) pattern.
*/
package config

import "github.com/xtalopt/xtalopt-go/crystal"

// FailAction selects what happens once a structure's fail_count reaches fail_limit,
// per spec.md section 4.8.
type FailAction string

const (
	KeepTrying             FailAction = "keep_trying"
	Kill                   FailAction = "kill"
	ReplaceWithRandom      FailAction = "replace_with_random"
	ReplaceWithNewOffspring FailAction = "replace_with_new_offspring"
)

// Settings is the full runtime-tunable knob set, deserialized from a single YAML file.
type Settings struct {
	// Breeding dispatch probabilities; must sum to 100 (spec.md section 4.8).
	PStripple     float64 `yaml:"p_strip"`
	PPermustrain  float64 `yaml:"p_perm"`
	PCrossover    float64 `yaml:"p_cross"`

	PoolSize             int     `yaml:"pool_size"`
	HardnessWeight       float64 `yaml:"hardness_weight"`
	ContinuousStructures int     `yaml:"continuous_structures"`
	RunningJobLimit      int     `yaml:"running_job_limit"`
	FailLimit            int     `yaml:"fail_limit"`
	FailAction           FailAction `yaml:"fail_action"`
	MaxStructures        int     `yaml:"max_structures"`

	NiggliMaxIters int `yaml:"niggli_max_iters"`

	RDFNBins  int     `yaml:"rdf_nbins"`
	RDFCutoff float64 `yaml:"rdf_cutoff"`
	RDFSigma  float64 `yaml:"rdf_sigma"`

	LengthTol float64 `yaml:"length_tol"`
	AngleTol  float64 `yaml:"angle_tol"`

	MinAtoms int `yaml:"min_atoms"`
	MaxAtoms int `yaml:"max_atoms"`

	AllowedCompositions []crystal.CompositionEntry `yaml:"allowed_compositions"`

	// SaveIntervalTicks is how many ticks elapse between unconditional persist.SaveAll
	// calls, independent of structure-status transitions (original_source's
	// src/globalsearch/optbase.cpp "periodic save state" behavior).
	SaveIntervalTicks int `yaml:"save_interval_ticks"`
}

// Validate checks the invariants spec.md section 7's ConfigError kind exists to report:
// breeding probabilities must sum to 100, pool_size must be positive, and min_atoms must
// not exceed max_atoms when both are set.
func (s Settings) Validate() error {
	sum := s.PStripple + s.PPermustrain + s.PCrossover
	if sum < 99.999 || sum > 100.001 {
		return &InvalidProbabilitiesError{Sum: sum}
	}
	if s.PoolSize <= 0 {
		return ErrInvalidPoolSize
	}
	if s.MinAtoms > 0 && s.MaxAtoms > 0 && s.MinAtoms > s.MaxAtoms {
		return ErrInvalidAtomRange
	}
	return nil
}
