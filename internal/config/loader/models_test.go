package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadModels_ParsesRoster(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	doc := `
models:
  - id: ma_slow
    kind: moving_average_crossover
    weight: 2.5
    params:
      short_window: 10
      long_window: 50
  - id: rsi_muted
    kind: rsi
    active: false
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	specs, err := LoadModels(path)
	require.NoError(t, err)
	require.Len(t, specs, 2)

	assert.Equal(t, "ma_slow", specs[0].ID)
	assert.Equal(t, 2.5, specs[0].VoteWeight())
	assert.True(t, specs[0].IsActive())
	assert.Equal(t, 10, specs[0].Params["short_window"])

	assert.False(t, specs[1].IsActive())
	assert.Equal(t, 1.0, specs[1].VoteWeight()) // omitted weight defaults
}

func TestLoadModels_MissingFileFallsBackToDefaults(t *testing.T) {
	specs, err := LoadModels(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultModels(), specs)

	specs, err = LoadModels("")
	require.NoError(t, err)
	assert.Len(t, specs, 4)
}

func TestLoadModels_RejectsIncompleteEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	require.NoError(t, os.WriteFile(path, []byte("models:\n  - kind: rsi\n"), 0o644))

	_, err := LoadModels(path)
	assert.ErrorContains(t, err, "id and kind are required")
}
