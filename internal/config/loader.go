package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path, applied on top of
// [Default], and returns a validated [Config]. It is a convenience wrapper
// around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r on top of the defaults and
// validates the result. Useful in tests where configs are constructed from
// string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}

	if cfg.Oracle.Provider != "" && !slices.Contains(validProviders, cfg.Oracle.Provider) {
		errs = append(errs, fmt.Errorf("oracle.provider %q is unknown; valid values: %v", cfg.Oracle.Provider, validProviders))
	}
	if cfg.Oracle.Model == "" {
		errs = append(errs, errors.New("oracle.model is required"))
	}
	if cfg.Oracle.Timeout < 0 {
		errs = append(errs, errors.New("oracle.timeout must not be negative"))
	}

	if cfg.Pipeline.ChunkSize < 1 {
		errs = append(errs, fmt.Errorf("pipeline.chunk_size %d is invalid; must be >= 1", cfg.Pipeline.ChunkSize))
	}
	if cfg.Pipeline.ContextWindow < 0 {
		errs = append(errs, fmt.Errorf("pipeline.context_window %d is invalid; must be >= 0", cfg.Pipeline.ContextWindow))
	}
	if cfg.Pipeline.Passes < 1 || cfg.Pipeline.Passes > 2 {
		errs = append(errs, fmt.Errorf("pipeline.passes %d is invalid; valid values: 1, 2", cfg.Pipeline.Passes))
	}
	if cfg.Pipeline.ChunkDelay < 0 {
		errs = append(errs, errors.New("pipeline.chunk_delay must not be negative"))
	}

	return errors.Join(errs...)
}
