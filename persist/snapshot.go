/*
Package persist implements the Persistence surface of spec.md section 6: a canonical,
version-stamped serialization of each Crystal plus a checksum, and a global results
table sorted by distance-above-hull.

Grounded on the teacher's hash.go (lukechampine.com/blake3's Sum256 used as a content
digest) and abondrn-poly/annotate/annotate.go's gopkg.in/yaml.v3 usage, here for
encoding the snapshot files; this package reads no composition or radii config blocks.
*/
package persist

import (
	"encoding/hex"
	"strings"

	"lukechampine.com/blake3"

	"github.com/xtalopt/xtalopt-go/crystal"
)

// SnapshotVersion is bumped whenever Snapshot's field layout changes incompatibly, per
// spec.md section 9's serializer-versioning note (avoid bit-sharing enum codes across
// versions).
const SnapshotVersion = 1

// Snapshot is the canonical, version-stamped serialization of one Crystal, per spec.md
// section 6's field list.
type Snapshot struct {
	Version int `yaml:"version"`

	Generation     int    `yaml:"generation"`
	ID             int    `yaml:"id"`
	Index          int    `yaml:"index"`
	Rank           int    `yaml:"rank"`
	JobID          string `yaml:"job_id"`
	CurrentOptStep int    `yaml:"current_opt_step"`
	ParentTag      string `yaml:"parents"`
	LocalPath      string `yaml:"locpath"`
	RemotePath     string `yaml:"rempath"`

	Status    string `yaml:"status"`
	FailCount int    `yaml:"fail_count"`

	StartTimestamp int64 `yaml:"start_timestamp"`
	EndTimestamp   int64 `yaml:"end_timestamp"`

	Energy      float64 `yaml:"energy"`
	Enthalpy    float64 `yaml:"enthalpy"`
	HasEnthalpy bool    `yaml:"has_enthalpy"`

	AtomicNumbers []int        `yaml:"atomic_numbers"`
	Positions     [][3]float64 `yaml:"positions"`
	Cell          [3][3]float64 `yaml:"cell"`

	History []HistorySnapshot `yaml:"history"`

	Objectives          []ObjectiveSnapshot `yaml:"objectives"`
	PreoptBonds         [][2]int            `yaml:"preopt_bonds"`
	CopyFiles           []string            `yaml:"copy_files"`
	HasValidComposition bool                `yaml:"has_valid_composition"`
}

// HistorySnapshot mirrors crystal.HistoryStep for serialization.
type HistorySnapshot struct {
	AtomicNumbers []int         `yaml:"atomic_numbers"`
	Positions     [][3]float64  `yaml:"positions"`
	Energy        float64       `yaml:"energy"`
	Enthalpy      float64       `yaml:"enthalpy"`
	Cell          [3][3]float64 `yaml:"cell"`
}

// ObjectiveSnapshot mirrors crystal.Objective for serialization.
type ObjectiveSnapshot struct {
	Value     float64 `yaml:"value"`
	State     string  `yaml:"state"`
	FailCount int     `yaml:"fail_count"`
}

// ToSnapshot builds a canonical Snapshot from an in-memory Crystal. index and the path
// fields are supplied by the caller (the queue manager / results writer), since the
// Crystal itself does not track them.
func ToSnapshot(c *crystal.Crystal, index int, locPath, remPath string) Snapshot {
	s := Snapshot{
		Version:             SnapshotVersion,
		Generation:          c.Generation,
		ID:                  c.ID,
		Index:               index,
		Rank:                c.Rank,
		JobID:               c.JobID,
		CurrentOptStep:      c.CurrentOptStep,
		ParentTag:           c.ParentTag,
		LocalPath:           locPath,
		RemotePath:          remPath,
		Status:              c.State.String(),
		FailCount:           c.FailCount,
		Energy:              c.Energy,
		Enthalpy:            c.Enthalpy,
		HasEnthalpy:         c.HasEnthalpy,
		HasValidComposition: c.HasValidComposition,
	}

	s.AtomicNumbers = make([]int, len(c.Atoms))
	s.Positions = make([][3]float64, len(c.Atoms))
	for i, a := range c.Atoms {
		s.AtomicNumbers[i] = a.AtomicNumber
		s.Positions[i] = [3]float64{a.Cart[0], a.Cart[1], a.Cart[2]}
	}
	s.Cell = [3][3]float64{
		{c.Cell.M[0][0], c.Cell.M[0][1], c.Cell.M[0][2]},
		{c.Cell.M[1][0], c.Cell.M[1][1], c.Cell.M[1][2]},
		{c.Cell.M[2][0], c.Cell.M[2][1], c.Cell.M[2][2]},
	}

	s.History = make([]HistorySnapshot, len(c.History))
	for i, h := range c.History {
		hs := HistorySnapshot{
			AtomicNumbers: append([]int(nil), h.AtomicNumbers...),
			Energy:        h.Energy,
			Enthalpy:      h.Enthalpy,
		}
		hs.Positions = make([][3]float64, len(h.Positions))
		for j, p := range h.Positions {
			hs.Positions[j] = [3]float64{p[0], p[1], p[2]}
		}
		hs.Cell = [3][3]float64{
			{h.Cell.M[0][0], h.Cell.M[0][1], h.Cell.M[0][2]},
			{h.Cell.M[1][0], h.Cell.M[1][1], h.Cell.M[1][2]},
			{h.Cell.M[2][0], h.Cell.M[2][1], h.Cell.M[2][2]},
		}
		s.History[i] = hs
	}

	s.Objectives = make([]ObjectiveSnapshot, len(c.Objectives))
	for i, o := range c.Objectives {
		s.Objectives[i] = ObjectiveSnapshot{Value: o.Value, State: o.State.String(), FailCount: o.FailCount}
	}
	for _, b := range c.Bonds {
		s.PreoptBonds = append(s.PreoptBonds, [2]int{b.I, b.J})
	}

	return s
}

// Checksum content-addresses a Snapshot's canonical YAML encoding with BLAKE3, so
// callers can cheaply detect a corrupted/truncated save file before attempting to
// decode it.
func Checksum(canonicalYAML []byte) string {
	sum := blake3.Sum256(canonicalYAML)
	return hex.EncodeToString(sum[:])
}

// VerifyChecksum reports whether canonicalYAML matches the given hex-encoded checksum.
func VerifyChecksum(canonicalYAML []byte, want string) bool {
	return strings.EqualFold(Checksum(canonicalYAML), want)
}
