package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
p_strip: 30
p_perm: 30
p_cross: 40
pool_size: 20
hardness_weight: 0.1
continuous_structures: 4
running_job_limit: 2
fail_limit: 3
fail_action: kill
max_structures: 100
niggli_max_iters: 1000
rdf_nbins: 100
rdf_cutoff: 8
rdf_sigma: 0.08
length_tol: 0.1
angle_tol: 1.0
min_atoms: 2
max_atoms: 20
save_interval_ticks: 10
`

func writeTempSettings(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoaderLoadsValidSettings(t *testing.T) {
	path := writeTempSettings(t, validYAML)
	loader, err := NewLoader(path)
	require.NoError(t, err)
	s := loader.Current()
	assert.Equal(t, 20, s.PoolSize)
	assert.Equal(t, FailAction("kill"), s.FailAction)
}

func TestSettingsValidateRejectsBadProbabilitySum(t *testing.T) {
	s := Settings{PStripple: 10, PPermustrain: 10, PCrossover: 10, PoolSize: 5}
	err := s.Validate()
	require.Error(t, err)
	var probErr *InvalidProbabilitiesError
	assert.ErrorAs(t, err, &probErr)
}

func TestLoaderPollDetectsChange(t *testing.T) {
	path := writeTempSettings(t, validYAML)
	loader, err := NewLoader(path)
	require.NoError(t, err)

	changed, err := loader.Poll()
	require.NoError(t, err)
	assert.False(t, changed)

	updated := validYAML + "# touch\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	changed, err = loader.Poll()
	require.NoError(t, err)
	assert.True(t, changed)
}
