package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mvp-joe/dryjin/internal/logging"
	"github.com/mvp-joe/dryjin/internal/nativecg"
	"github.com/mvp-joe/dryjin/internal/program"
	"github.com/mvp-joe/dryjin/internal/sourcesink"
)

var (
	// ErrEmptyClassName indicates a missing well-known class name
	ErrEmptyClassName = errors.New("empty class name")

	// ErrInvalidSignature indicates a malformed method signature
	ErrInvalidSignature = errors.New("invalid method signature")

	// ErrInvalidStrategy indicates an unknown strategy preset
	ErrInvalidStrategy = errors.New("invalid strategy")

	// ErrInvalidPattern indicates a sink ignore pattern that does not compile
	ErrInvalidPattern = errors.New("invalid sink ignore pattern")

	// ErrInvalidLogLevel indicates an unknown log level
	ErrInvalidLogLevel = errors.New("invalid log level")

	// ErrEmptyInput indicates a missing oracle document path
	ErrEmptyInput = errors.New("empty input file")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if strings.TrimSpace(cfg.Input.JSONFile) == "" {
		errs = append(errs, fmt.Errorf("%w: input.json_file is required", ErrEmptyInput))
	}

	if err := validateNative(&cfg.Native); err != nil {
		errs = append(errs, err)
	}

	if _, err := nativecg.StrategyByName(cfg.Strategy.Name); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalidStrategy, err))
	}

	if _, err := sourcesink.CompileIgnore(cfg.SourceSink.SinkIgnore); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalidPattern, err))
	}

	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalidLogLevel, err))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateNative(cfg *NativeConfig) error {
	var errs []error

	if strings.TrimSpace(cfg.DummyClass) == "" {
		errs = append(errs, fmt.Errorf("%w: native.dummy_class is required", ErrEmptyClassName))
	}
	if strings.TrimSpace(cfg.ActivityClass) == "" {
		errs = append(errs, fmt.Errorf("%w: native.activity_class is required", ErrEmptyClassName))
	}

	// The dummy main method may be left empty to disable the bootstrap
	if cfg.DummyMainMethod != "" {
		if _, err := program.ParseSignature(cfg.DummyMainMethod); err != nil {
			errs = append(errs, fmt.Errorf("%w: native.dummy_main_method: %w", ErrInvalidSignature, err))
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
// Sentinels stay reachable through errors.Is.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return &validationError{
		msg:  fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - ")),
		errs: errs,
	}
}

type validationError struct {
	msg  string
	errs []error
}

func (e *validationError) Error() string   { return e.msg }
func (e *validationError) Unwrap() []error { return e.errs }
