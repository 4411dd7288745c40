// Package config provides the configuration schema and loader for the
// vtt-improve-srt pipeline.
package config

import (
	"fmt"
	"time"
)

// geminiOpenAIEndpoint is Gemini's OpenAI-compatible chat completions base
// URL, the default transport for the correction oracle.
const geminiOpenAIEndpoint = "https://generativelanguage.googleapis.com/v1beta/openai/"

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Duration wraps time.Duration with YAML decoding from strings like "1s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the root configuration structure, typically loaded from a YAML
// file using [Load] or [LoadFromReader].
type Config struct {
	// LogLevel controls verbosity. Default: info.
	LogLevel LogLevel `yaml:"log_level"`

	// PatternsPath locates the correction pattern artifact. A missing
	// artifact is non-fatal and degrades to an empty pattern store.
	PatternsPath string `yaml:"patterns_path"`

	Oracle   OracleConfig   `yaml:"oracle"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Output   OutputConfig   `yaml:"output"`
}

// OracleConfig selects and parameterises the correction oracle backend.
type OracleConfig struct {
	// Provider selects the backend: "openai-compat" (the openai-go client
	// against BaseURL) or one of the any-llm-go backends ("gemini",
	// "openai", "anthropic", "ollama", "deepseek", "mistral", "groq").
	Provider string `yaml:"provider"`

	// Model is the model identifier sent with every request.
	Model string `yaml:"model"`

	// BaseURL overrides the backend's API endpoint. The default points at
	// Gemini's OpenAI-compatible endpoint.
	BaseURL string `yaml:"base_url"`

	// APIKeyEnv names the environment variable holding the API key.
	// Credentials never appear in the config file itself.
	APIKeyEnv string `yaml:"api_key_env"`

	// Timeout bounds one oracle call. A timed-out call is an ordinary
	// chunk failure to the scheduler.
	Timeout Duration `yaml:"timeout"`
}

// PipelineConfig carries the batch-scheduling parameters.
type PipelineConfig struct {
	// ChunkSize is the maximum number of segments per oracle batch.
	ChunkSize int `yaml:"chunk_size"`

	// ContextWindow is the number of surrounding segments included as
	// read-only prompt context on each side of a chunk.
	ContextWindow int `yaml:"context_window"`

	// Passes is the number of oracle sweeps (1 or 2).
	Passes int `yaml:"passes"`

	// ChunkDelay is the pause between chunk dispatches within a pass.
	ChunkDelay Duration `yaml:"chunk_delay"`
}

// OutputConfig controls emission and the work area.
type OutputConfig struct {
	// RemoveSpeakerNames strips leading "Name:" labels before writing.
	RemoveSpeakerNames bool `yaml:"remove_speaker_names"`

	// WorkDirRoot is where the timestamped work folder is created.
	// Empty means the current working directory.
	WorkDirRoot string `yaml:"work_dir_root"`
}

// validProviders lists the recognised oracle provider names.
var validProviders = []string{
	"openai-compat", "openai", "anthropic", "gemini", "ollama", "deepseek", "mistral", "groq",
}

// Default returns the configuration used when no config file is supplied:
// Gemini 2.5 Pro through the OpenAI-compatible endpoint, chunks of 100 with
// a 3-segment context window, two passes, one second between chunks.
func Default() *Config {
	return &Config{
		LogLevel:     LogInfo,
		PatternsPath: "correction_patterns.json",
		Oracle: OracleConfig{
			Provider:  "openai-compat",
			Model:     "gemini-2.5-pro",
			BaseURL:   geminiOpenAIEndpoint,
			APIKeyEnv: "GEMINI_API_KEY",
			Timeout:   Duration(2 * time.Minute),
		},
		Pipeline: PipelineConfig{
			ChunkSize:     100,
			ContextWindow: 3,
			Passes:        2,
			ChunkDelay:    Duration(time.Second),
		},
	}
}
