/*
Package oracle declares the external collaborator interfaces of spec.md section 6: the
optimizer adapter, the hardness oracle, and the objective oracle. None of these are
implemented here — the core only consumes them, per spec.md section 1's Non-goals
("the SSH/local queue adapters that actually run shell commands ... the per-optimizer
input-file templating ... the hardness predictor"); src/libssh in original_source/
confirms this submit/poll/fetch shape is exactly the seam the original program used for
remote execution.
*/
package oracle

import "context"

// JobStatus is the state an OptimizerAdapter reports for a submitted job.
type JobStatus int

const (
	Queued JobStatus = iota
	Running
	Finished
	Failed
)

// JobHandle opaquely identifies one submitted optimization step.
type JobHandle interface{}

// StructureData is the minimal structural payload an adapter exchanges: atomic numbers,
// cartesian positions, and the cell matrix, all parallel to crystal.Crystal's own
// fields but kept independent here so oracle has no import-time dependency on crystal
// (the core depends on oracle, not the reverse).
type StructureData struct {
	AtomicNumbers []int
	Positions     [][3]float64
	Cell          [3][3]float64
}

// FetchResult is what fetch(handle) returns once a step Finishes: energies, coordinates,
// and the (possibly relaxed) cell.
type FetchResult struct {
	Energy    float64
	Structure StructureData
}

// OptimizerAdapter is selected per optimization step by an id string (e.g. "vasp",
// "gulp"); the core does not own its template files (spec.md section 6).
type OptimizerAdapter interface {
	Submit(ctx context.Context, step int, workingDir string, s StructureData) (JobHandle, error)
	Poll(ctx context.Context, handle JobHandle) (JobStatus, error)
	Fetch(ctx context.Context, handle JobHandle) (FetchResult, error)
}

// HardnessPayload carries the ML-predicted elastic moduli a hardness oracle reports.
type HardnessPayload struct {
	BulkModulusVRH  float64
	ShearModulusVRH float64
}

// HardnessToken identifies one outstanding hardness submission.
type HardnessToken interface{}

// HardnessOracle submits a POSCAR-format structure and later delivers a payload via
// OnData; Vickers hardness is then computed with the Teter model H = 0.151 * shear
// (spec.md section 6).
type HardnessOracle interface {
	Submit(ctx context.Context, poscarText string) (HardnessToken, error)
	OnData(token HardnessToken, payload HardnessPayload)
}

// TeterHardness applies the Teter empirical model to a shear modulus.
func TeterHardness(shearModulusVRH float64) float64 {
	return 0.151 * shearModulusVRH
}

// ObjectiveOracle runs a user-supplied script against a structure's work directory and
// parses a single scalar from its output file; NaN or Inf mark the objective as failed
// (spec.md section 6).
type ObjectiveOracle interface {
	// Run writes output.POSCAR into workingDir, invokes the configured script, and
	// parses the first whitespace-separated token of the first line of its output as a
	// float64.
	Run(ctx context.Context, workingDir string, s StructureData) (float64, error)
}
