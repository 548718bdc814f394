package config

import (
	"github.com/mvp-joe/dryjin/internal/nativecg"
)

// Config represents the complete dryjin configuration.
// It can be loaded from .dryjin/config.yml with environment variable overrides.
type Config struct {
	Input      InputConfig      `yaml:"input" mapstructure:"input"`
	Native     NativeConfig     `yaml:"native" mapstructure:"native"`
	Strategy   StrategyConfig   `yaml:"strategy" mapstructure:"strategy"`
	SourceSink SourceSinkConfig `yaml:"sourcesink" mapstructure:"sourcesink"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// InputConfig locates the oracle document and the source/sink file.
type InputConfig struct {
	JSONFile       string `yaml:"json_file" mapstructure:"json_file"`               // oracle call graph document
	SourceSinkFile string `yaml:"source_sink_file" mapstructure:"source_sink_file"` // taint specification to append to
}

// NativeConfig names the classes and methods the importer treats specially.
type NativeConfig struct {
	DummyClass      string   `yaml:"dummy_class" mapstructure:"dummy_class"`
	ActivityClass   string   `yaml:"activity_class" mapstructure:"activity_class"`
	DummyMainMethod string   `yaml:"dummy_main_method" mapstructure:"dummy_main_method"`
	LifecycleHooks  []string `yaml:"lifecycle_hooks" mapstructure:"lifecycle_hooks"`
	CallbackHooks   []string `yaml:"callback_hooks" mapstructure:"callback_hooks"`
}

// StrategyConfig selects the importer strategy preset.
type StrategyConfig struct {
	Name string `yaml:"name" mapstructure:"name"` // "canonical" or "legacy"
}

// SourceSinkConfig tunes source/sink propagation.
type SourceSinkConfig struct {
	SinkIgnore []string `yaml:"sink_ignore" mapstructure:"sink_ignore"` // glob patterns over signatures
}

// OutputConfig configures the export database.
type OutputConfig struct {
	Database string `yaml:"database" mapstructure:"database"` // empty disables the export
}

// LogConfig configures logging.
type LogConfig struct {
	Level       string `yaml:"level" mapstructure:"level"`
	Development bool   `yaml:"development" mapstructure:"development"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	names := nativecg.DefaultNames()
	return &Config{
		Input: InputConfig{
			JSONFile:       "callgraph.json",
			SourceSinkFile: "SourcesAndSinks.txt",
		},
		Native: NativeConfig{
			DummyClass:      names.DummyNativeClass,
			ActivityClass:   names.NativeActivityClass,
			DummyMainMethod: names.DummyMainMethod,
			LifecycleHooks:  names.LifecycleHooks,
			CallbackHooks:   names.CallbackHooks,
		},
		Strategy: StrategyConfig{
			Name: nativecg.StrategyCanonical,
		},
		SourceSink: SourceSinkConfig{
			SinkIgnore: []string{},
		},
		Output: OutputConfig{
			Database: "",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Names converts the native section into importer names.
func (c *Config) Names() nativecg.Names {
	return nativecg.Names{
		DummyNativeClass:    c.Native.DummyClass,
		NativeActivityClass: c.Native.ActivityClass,
		DummyMainMethod:     c.Native.DummyMainMethod,
		LifecycleHooks:      c.Native.LifecycleHooks,
		CallbackHooks:       c.Native.CallbackHooks,
	}
}
