package persist

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/xtalopt/xtalopt-go/crystal"
)

// SaveAll writes one canonical snapshot file per crystal into dir, named by tag, plus
// a parallel ".sum" file holding the BLAKE3 checksum of the snapshot's YAML encoding.
// Grounded on the teacher's WriteJSON/WriteGff idiom (io.go): marshal, then a single
// os.WriteFile, no atomic-rename dance.
func SaveAll(dir string, crystals []*crystal.Crystal) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("persist: creating %s: %w", dir, err)
	}
	for i, c := range crystals {
		path := filepath.Join(dir, sanitizeTag(c.Tag())+".yaml")
		snap := ToSnapshot(c, i, path, "")
		out, err := yaml.Marshal(snap)
		if err != nil {
			return fmt.Errorf("persist: marshaling %s: %w", c.Tag(), err)
		}
		if err := os.WriteFile(path, out, 0644); err != nil {
			return fmt.Errorf("persist: writing %s: %w", path, err)
		}
		sumPath := path + ".sum"
		if err := os.WriteFile(sumPath, []byte(Checksum(out)), 0644); err != nil {
			return fmt.Errorf("persist: writing %s: %w", sumPath, err)
		}
	}
	return nil
}

// LoadAll reads every "*.yaml" snapshot in dir, verifying its paired ".sum" checksum
// file when present.
func LoadAll(dir string) ([]Snapshot, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("persist: reading %s: %w", dir, err)
	}

	var out []Snapshot
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("persist: reading %s: %w", path, err)
		}
		if sum, err := os.ReadFile(path + ".sum"); err == nil {
			if !VerifyChecksum(data, string(sum)) {
				return nil, fmt.Errorf("persist: checksum mismatch for %s", path)
			}
		}
		var snap Snapshot
		if err := yaml.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("persist: decoding %s: %w", path, err)
		}
		out = append(out, snap)
	}
	return out, nil
}

// sanitizeTag replaces the "×" multiplication sign in a Tag with a plain "x" so the
// filename stays portable across filesystems that reject non-ASCII names.
func sanitizeTag(tag string) string {
	out := make([]rune, 0, len(tag))
	for _, r := range tag {
		if r == '×' {
			out = append(out, 'x')
			continue
		}
		out = append(out, r)
	}
	return string(out)
}
