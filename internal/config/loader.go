package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string) Loader {
	return &loader{
		rootDir: rootDir,
	}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (DRYJIN_*)
// 2. Config file (.dryjin/config.yml or .dryjin/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(l.rootDir, ".dryjin"))

	// DRYJIN_INPUT_JSON_FILE overrides input.json_file
	v.SetEnvPrefix("DRYJIN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, key := range []string{
		"input.json_file",
		"input.source_sink_file",
		"native.dummy_class",
		"native.activity_class",
		"native.dummy_main_method",
		"strategy.name",
		"output.database",
		"log.level",
		"log.development",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - we'll use defaults + env vars
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("input.json_file", defaults.Input.JSONFile)
	v.SetDefault("input.source_sink_file", defaults.Input.SourceSinkFile)

	v.SetDefault("native.dummy_class", defaults.Native.DummyClass)
	v.SetDefault("native.activity_class", defaults.Native.ActivityClass)
	v.SetDefault("native.dummy_main_method", defaults.Native.DummyMainMethod)
	v.SetDefault("native.lifecycle_hooks", defaults.Native.LifecycleHooks)
	v.SetDefault("native.callback_hooks", defaults.Native.CallbackHooks)

	v.SetDefault("strategy.name", defaults.Strategy.Name)
	v.SetDefault("sourcesink.sink_ignore", defaults.SourceSink.SinkIgnore)
	v.SetDefault("output.database", defaults.Output.Database)

	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.development", defaults.Log.Development)
}

// LoadConfig loads configuration rooted at the current working directory.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration from a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
