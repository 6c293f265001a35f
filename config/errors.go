package config

import (
	"errors"
	"fmt"
)

// ErrInvalidPoolSize and ErrInvalidAtomRange are ConfigError sentinels per spec.md
// section 7: invalid config is logged and refuses to start.
var (
	ErrInvalidPoolSize  = errors.New("config: pool_size must be positive")
	ErrInvalidAtomRange = errors.New("config: min_atoms must not exceed max_atoms")
)

// InvalidProbabilitiesError reports breeding probabilities that don't sum to 100, per
// spec.md section 4.8.
type InvalidProbabilitiesError struct {
	Sum float64
}

func (e *InvalidProbabilitiesError) Error() string {
	return fmt.Sprintf("config: p_strip + p_perm + p_cross = %.4f, want 100", e.Sum)
}
