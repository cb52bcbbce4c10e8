package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akoiralaa/options-pricer/models"
)

var envKeys = []string{
	"PRICER_NUM_PATHS", "PRICER_NUM_STEPS", "PRICER_SEED", "PRICER_WORKERS", "PRICER_CHUNK_SIZE",
	"PRICER_CONFIDENCE_LEVEL", "PRICER_IV_LOWER", "PRICER_IV_UPPER", "PRICER_IV_TOLERANCE",
	"PRICER_IV_MAX_ITERATIONS", "PRICER_IV_INITIAL_GUESS", "SLACK_APP_TOKEN", "SLACK_BOT_TOKEN",
}

func clearEnv(t *testing.T) {
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 10000, cfg.Simulation.NumPaths)
	assert.Equal(t, 252, cfg.Simulation.NumSteps)
	assert.Equal(t, 2048, cfg.Simulation.ChunkSize)
	assert.Equal(t, 0.95, cfg.Simulation.ConfidenceLevel)
	assert.Nil(t, cfg.Simulation.Seed)
	assert.Greater(t, cfg.Simulation.Workers, 0)

	assert.Equal(t, 1e-6, cfg.ImpliedVol.Lower)
	assert.Equal(t, 5.0, cfg.ImpliedVol.Upper)
	assert.Equal(t, 1e-6, cfg.ImpliedVol.Tolerance)
	assert.Equal(t, 0.2, cfg.ImpliedVol.InitialGuess)
	assert.Empty(t, cfg.Slack.AppToken)
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "pricer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
simulation:
  num_paths: 50000
  num_steps: 100
  seed: 42
  confidence_level: 0.99
implied_vol:
  upper: 3.5
  max_iterations: 250
slack:
  bot_token: xoxb-from-file
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 50000, cfg.Simulation.NumPaths)
	assert.Equal(t, 100, cfg.Simulation.NumSteps)
	require.NotNil(t, cfg.Simulation.Seed)
	assert.Equal(t, uint64(42), *cfg.Simulation.Seed)
	assert.Equal(t, 0.99, cfg.Simulation.ConfidenceLevel)
	// Keys absent from the file keep their defaults.
	assert.Equal(t, 2048, cfg.Simulation.ChunkSize)

	assert.Equal(t, 3.5, cfg.ImpliedVol.Upper)
	assert.Equal(t, 250, cfg.ImpliedVol.MaxIterations)
	assert.Equal(t, 1e-6, cfg.ImpliedVol.Lower)
	assert.Equal(t, "xoxb-from-file", cfg.Slack.BotToken)
}

func TestLoadEnvOverridesYAML(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "pricer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("simulation:\n  num_paths: 50000\n"), 0o644))

	t.Setenv("PRICER_NUM_PATHS", "1234")
	t.Setenv("PRICER_SEED", "7")
	t.Setenv("PRICER_IV_TOLERANCE", "1e-8")
	t.Setenv("SLACK_APP_TOKEN", "xapp-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1234, cfg.Simulation.NumPaths)
	require.NotNil(t, cfg.Simulation.Seed)
	assert.Equal(t, uint64(7), *cfg.Simulation.Seed)
	assert.Equal(t, 1e-8, cfg.ImpliedVol.Tolerance)
	assert.Equal(t, "xapp-env", cfg.Slack.AppToken)

	mc := cfg.Simulation.MonteCarlo()
	assert.Equal(t, 1234, mc.NumPaths)
	assert.Equal(t, cfg.Simulation.Seed, mc.Seed)
}

func TestLoadIgnoresMalformedEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PRICER_NUM_STEPS", "many")
	t.Setenv("PRICER_SEED", "-3")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 252, cfg.Simulation.NumSteps)
	assert.Nil(t, cfg.Simulation.Seed)
}

func TestLoadRejectsInvalid(t *testing.T) {
	clearEnv(t)

	t.Setenv("PRICER_NUM_PATHS", "-10")
	_, err := Load("")
	assert.ErrorIs(t, err, models.ErrSimulationConfig)

	clearEnv(t)
	t.Setenv("PRICER_IV_LOWER", "6")
	_, err = Load("")
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	clearEnv(t)
	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("simulation: [oops"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}
