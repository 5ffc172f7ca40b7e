// Package cfg loads tuner configuration from a YAML file with environment
// variable overrides, then validates it. The file path comes from the
// CONFIG_FILE environment variable; without it, every field falls back to
// its environment variable or default.
package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Settings is the fully resolved tuner configuration.
type Settings struct {
	FeaturesPath string   // gob blob with the feature matrix
	TargetPath   string   // gob blob with the target vector
	Families     []string // ordered list of model families to search
	Strategy     string   // "random" or "bayes"
	Trials       int      // evaluation budget per family
	Splits       int      // cross-validation split count
	TestSize     float64  // held-out fraction per split
	Seed         int64
	Workers      int // 0 means all processors

	ModelDir       string
	PicturesDir    string
	TrialDBPath    string // empty disables trial history
	RenderVariance bool
	MetricsPort    int // 0 disables the metrics endpoint
}

// ConfigFile mirrors the YAML layout. Numeric fields left at zero are
// indistinguishable from absent keys and resolve to their defaults; an
// explicit zero (e.g. seed 0) must be set through the field's environment
// variable, which always wins over the file.
type ConfigFile struct {
	Data struct {
		FeaturesPath string `yaml:"featuresPath"`
		TargetPath   string `yaml:"targetPath"`
	} `yaml:"data"`

	Search struct {
		Families []string `yaml:"families"`
		Strategy string   `yaml:"strategy"`
		Trials   int      `yaml:"trials"`
		Splits   int      `yaml:"splits"`
		TestSize float64  `yaml:"testSize"`
		Seed     int64    `yaml:"seed"`
		Workers  int      `yaml:"workers"`
	} `yaml:"search"`

	Output struct {
		ModelDir       string `yaml:"modelDir"`
		PicturesDir    string `yaml:"picturesDir"`
		TrialDBPath    string `yaml:"trialDBPath"`
		RenderVariance bool   `yaml:"renderVariance"`
	} `yaml:"output"`

	System struct {
		MetricsPort int `yaml:"metricsPort"`
	} `yaml:"system"`
}

// Load resolves the configuration from CONFIG_FILE or the environment.
func Load() (Settings, error) {
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromYAML(configPath)
	}
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	settings := Settings{
		FeaturesPath:   getEnvOrDefault("FEATURES_PATH", config.Data.FeaturesPath),
		TargetPath:     getEnvOrDefault("TARGET_PATH", config.Data.TargetPath),
		Families:       getFamiliesFromEnvOrConfig(config.Search.Families),
		Strategy:       getEnvOrDefault("SEARCH_STRATEGY", defaultString(config.Search.Strategy, "random")),
		Trials:         getIntFromEnvOrConfig("SEARCH_TRIALS", config.Search.Trials, 81),
		Splits:         getIntFromEnvOrConfig("CV_SPLITS", config.Search.Splits, 5),
		TestSize:       getFloatFromEnvOrConfig("CV_TEST_SIZE", config.Search.TestSize, 0.2),
		Seed:           int64(getIntFromEnvOrConfig("SEED", int(config.Search.Seed), 1)),
		Workers:        getIntFromEnvOrConfig("WORKERS", config.Search.Workers, 0),
		ModelDir:       getEnvOrDefault("MODEL_DIR", defaultString(config.Output.ModelDir, "resources/estimators")),
		PicturesDir:    getEnvOrDefault("PICTURES_DIR", defaultString(config.Output.PicturesDir, "documents/pictures")),
		TrialDBPath:    getEnvOrDefault("TRIAL_DB_PATH", config.Output.TrialDBPath),
		RenderVariance: getBoolFromEnvOrConfig("RENDER_VARIANCE", config.Output.RenderVariance),
		MetricsPort:    getIntFromEnvOrConfig("METRICS_PORT", config.System.MetricsPort, 0),
	}

	if err := validate(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		FeaturesPath:   getEnvOrDefault("FEATURES_PATH", "resources/train/data.gob"),
		TargetPath:     getEnvOrDefault("TARGET_PATH", "resources/train/target.gob"),
		Families:       splitOrDefault(os.Getenv("FAMILIES"), []string{"kernel"}),
		Strategy:       getEnvOrDefault("SEARCH_STRATEGY", "random"),
		Trials:         getIntOrDefault("SEARCH_TRIALS", 81),
		Splits:         getIntOrDefault("CV_SPLITS", 5),
		TestSize:       getFloatOrDefault("CV_TEST_SIZE", 0.2),
		Seed:           int64(getIntOrDefault("SEED", 1)),
		Workers:        getIntOrDefault("WORKERS", 0),
		ModelDir:       getEnvOrDefault("MODEL_DIR", "resources/estimators"),
		PicturesDir:    getEnvOrDefault("PICTURES_DIR", "documents/pictures"),
		TrialDBPath:    os.Getenv("TRIAL_DB_PATH"), // optional
		RenderVariance: getBoolOrDefault("RENDER_VARIANCE", false),
		MetricsPort:    getIntOrDefault("METRICS_PORT", 0),
	}

	if err := validate(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}
	return settings, nil
}

func validate(s *Settings) error {
	if s.FeaturesPath == "" || s.TargetPath == "" {
		return fmt.Errorf("dataset paths are required")
	}
	if len(s.Families) == 0 {
		return fmt.Errorf("at least one model family must be specified")
	}
	if s.Strategy != "random" && s.Strategy != "bayes" {
		return fmt.Errorf("strategy must be random or bayes, got %q", s.Strategy)
	}
	if s.Trials < 1 || s.Trials > 100000 {
		return fmt.Errorf("trial budget must be between 1 and 100000, got %d", s.Trials)
	}
	if s.Splits < 2 || s.Splits > 100 {
		return fmt.Errorf("split count must be between 2 and 100, got %d", s.Splits)
	}
	if s.TestSize <= 0 || s.TestSize >= 1 {
		return fmt.Errorf("held-out fraction must be in (0, 1), got %f", s.TestSize)
	}
	if s.Workers < 0 {
		return fmt.Errorf("worker count must be non-negative, got %d", s.Workers)
	}
	if s.MetricsPort != 0 && (s.MetricsPort < 1024 || s.MetricsPort > 65535) {
		return fmt.Errorf("metrics port must be between 1024 and 65535, got %d", s.MetricsPort)
	}
	return nil
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func splitOrDefault(v string, def []string) []string {
	if v == "" {
		return def
	}
	return strings.Split(v, ",")
}

func getFamiliesFromEnvOrConfig(configFamilies []string) []string {
	if env := os.Getenv("FAMILIES"); env != "" {
		return strings.Split(env, ",")
	}
	if len(configFamilies) > 0 {
		return configFamilies
	}
	return []string{"kernel"}
}

// getIntFromEnvOrConfig resolves the environment first, then the file value,
// then the default. A zero file value counts as unset.
func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func getFloatFromEnvOrConfig(key string, configValue, defaultValue float64) float64 {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseFloat(env, 64); err == nil {
			return val
		}
	}
	if configValue != 0 {
		return configValue
	}
	return defaultValue
}

func getBoolFromEnvOrConfig(key string, configValue bool) bool {
	if env := os.Getenv(key); env != "" {
		if val, err := strconv.ParseBool(env); err == nil {
			return val
		}
	}
	return configValue
}
