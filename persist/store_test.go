package persist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtalopt/xtalopt-go/crystal"
)

func TestSaveAllThenLoadAllRoundTrips(t *testing.T) {
	dir := t.TempDir()
	a := sampleCrystal()
	b := sampleCrystal()
	b.ID = 9

	require.NoError(t, SaveAll(dir, []*crystal.Crystal{a, b}))

	loaded, err := LoadAll(dir)
	require.NoError(t, err)
	assert.Len(t, loaded, 2)
}

func TestLoadAllDetectsChecksumMismatch(t *testing.T) {
	dir := t.TempDir()
	a := sampleCrystal()
	require.NoError(t, SaveAll(dir, []*crystal.Crystal{a}))

	path := filepath.Join(dir, sanitizeTag(a.Tag())+".yaml")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data = append(data, '\n', '#', 'x')
	require.NoError(t, os.WriteFile(path, data, 0644))

	_, err = LoadAll(dir)
	assert.Error(t, err)
}
