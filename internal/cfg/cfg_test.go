package cfg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"CONFIG_FILE", "FEATURES_PATH", "TARGET_PATH", "FAMILIES",
	"SEARCH_STRATEGY", "SEARCH_TRIALS", "CV_SPLITS", "CV_TEST_SIZE",
	"SEED", "WORKERS", "MODEL_DIR", "PICTURES_DIR", "TRIAL_DB_PATH",
	"RENDER_VARIANCE", "METRICS_PORT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const sampleConfig = `
data:
  featuresPath: resources/train/data.gob
  targetPath: resources/train/target.gob
search:
  families: [kernel, forest, boost]
  strategy: bayes
  trials: 40
  splits: 4
  testSize: 0.25
  seed: 7
  workers: 2
output:
  modelDir: out/models
  picturesDir: out/pictures
  trialDBPath: out/trials.db
  renderVariance: true
system:
  metricsPort: 9100
`

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "resources/train/data.gob", s.FeaturesPath)
	assert.Equal(t, "resources/train/target.gob", s.TargetPath)
	assert.Equal(t, []string{"kernel"}, s.Families)
	assert.Equal(t, "random", s.Strategy)
	assert.Equal(t, 81, s.Trials)
	assert.Equal(t, 5, s.Splits)
	assert.Equal(t, 0.2, s.TestSize)
	assert.Equal(t, int64(1), s.Seed)
	assert.Equal(t, 0, s.Workers)
	assert.Empty(t, s.TrialDBPath)
	assert.False(t, s.RenderVariance)
	assert.Equal(t, 0, s.MetricsPort)
}

func TestLoadFromYAML(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", writeConfig(t, sampleConfig))

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"kernel", "forest", "boost"}, s.Families)
	assert.Equal(t, "bayes", s.Strategy)
	assert.Equal(t, 40, s.Trials)
	assert.Equal(t, 4, s.Splits)
	assert.Equal(t, 0.25, s.TestSize)
	assert.Equal(t, int64(7), s.Seed)
	assert.Equal(t, 2, s.Workers)
	assert.Equal(t, "out/models", s.ModelDir)
	assert.Equal(t, "out/trials.db", s.TrialDBPath)
	assert.True(t, s.RenderVariance)
	assert.Equal(t, 9100, s.MetricsPort)
}

func TestEnvOverridesYAML(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", writeConfig(t, sampleConfig))
	t.Setenv("SEARCH_STRATEGY", "random")
	t.Setenv("SEARCH_TRIALS", "12")
	t.Setenv("FAMILIES", "forest")
	t.Setenv("RENDER_VARIANCE", "false")

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "random", s.Strategy)
	assert.Equal(t, 12, s.Trials)
	assert.Equal(t, []string{"forest"}, s.Families)
	assert.False(t, s.RenderVariance)
}

func TestYAMLZeroFallsBackToDefault(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", writeConfig(t, `
data:
  featuresPath: data.gob
  targetPath: target.gob
search:
  seed: 0
`))

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.Seed) // yaml zero reads as unset

	// An explicit zero seed goes through the environment instead.
	t.Setenv("SEED", "0")
	s, err = Load()
	require.NoError(t, err)
	assert.Equal(t, int64(0), s.Seed)
}

func TestLoadMissingConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidationFailures(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown strategy":    {"SEARCH_STRATEGY": "grid"},
		"zero trials":         {"SEARCH_TRIALS": "0"},
		"single split":        {"CV_SPLITS": "1"},
		"test size too large": {"CV_TEST_SIZE": "1.5"},
		"privileged port":     {"METRICS_PORT": "80"},
		"negative workers":    {"WORKERS": "-1"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
