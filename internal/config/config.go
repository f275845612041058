// Package config loads the run configuration for hoabench.
//
// A configuration file is YAML and every field is optional:
//
//	agent:
//	  provider: anthropic
//	  model: claude-3-5-haiku-latest
//	  api_key_env: ANTHROPIC_API_KEY
//	judge:
//	  provider: openai
//	  model: gpt-4o
//	concurrency: 8
//	sample_timeout: 2m
//	simulation:
//	  max_turns: 5
//	  refusal_turns: 2
//	store: ./hoabench.db
//
// Unknown keys are rejected so typos surface immediately. API keys are
// never stored in the file; each model names the environment variable that
// holds its key.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/hoabench/internal/model"
	"github.com/roach88/hoabench/internal/sim"
)

// Defaults used when the file omits a value.
const (
	DefaultProvider      = model.ProviderOpenAI
	DefaultModel         = "gpt-4o-mini"
	DefaultConcurrency   = 4
	DefaultSampleTimeout = 3 * time.Minute
	DefaultStore         = "hoabench.db"
)

// ModelConfig describes one model endpoint.
type ModelConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`

	// APIKeyEnv names the environment variable holding the API key.
	// Empty selects the provider's conventional variable.
	APIKeyEnv string `yaml:"api_key_env"`

	BaseURL     string  `yaml:"base_url"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
}

// KeyEnv returns the environment variable consulted for the API key.
func (m ModelConfig) KeyEnv() string {
	if m.APIKeyEnv != "" {
		return m.APIKeyEnv
	}
	switch strings.ToLower(m.Provider) {
	case model.ProviderAnthropic, "claude":
		return "ANTHROPIC_API_KEY"
	default:
		return "OPENAI_API_KEY"
	}
}

// Resolve turns m into a provider config, reading the key with getenv.
// A missing key is not an error: local OpenAI-compatible servers often
// need none.
func (m ModelConfig) Resolve(getenv func(string) string) model.Config {
	if getenv == nil {
		getenv = os.Getenv
	}
	return model.Config{
		Provider:    m.Provider,
		Model:       m.Model,
		APIKey:      getenv(m.KeyEnv()),
		BaseURL:     m.BaseURL,
		MaxTokens:   m.MaxTokens,
		Temperature: m.Temperature,
	}
}

// Config is the full run configuration.
type Config struct {
	// Agent is the model under evaluation (the HOA manager).
	Agent ModelConfig `yaml:"agent"`

	// Judge grades static answers. Nil reuses Agent.
	Judge *ModelConfig `yaml:"judge"`

	// Persona plays the homeowner in simulations. Nil reuses Agent.
	Persona *ModelConfig `yaml:"persona"`

	// Scorer overrides the static task's scorer by name.
	Scorer string `yaml:"scorer"`

	// Rules, Scenarios and Template point at resources on disk. Empty
	// values select the embedded resources and the default template.
	Rules     string `yaml:"rules"`
	Scenarios string `yaml:"scenarios"`
	Template  string `yaml:"template"`

	Concurrency   int           `yaml:"concurrency"`
	SampleTimeout time.Duration `yaml:"sample_timeout"`
	Simulation    sim.Config    `yaml:"simulation"`

	// Store is the SQLite database recording runs. Empty disables
	// recording.
	Store string `yaml:"store"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Agent: ModelConfig{
			Provider: DefaultProvider,
			Model:    DefaultModel,
		},
		Concurrency:   DefaultConcurrency,
		SampleTimeout: DefaultSampleTimeout,
		Simulation: sim.Config{
			MaxTurns:     sim.DefaultMaxTurns,
			RefusalTurns: sim.DefaultRefusalTurns,
		},
		Store: DefaultStore,
	}
}

// JudgeModel returns the judge endpoint, falling back to the agent.
func (c Config) JudgeModel() ModelConfig {
	if c.Judge != nil {
		return *c.Judge
	}
	return c.Agent
}

// PersonaModel returns the persona endpoint, falling back to the agent.
func (c Config) PersonaModel() ModelConfig {
	if c.Persona != nil {
		return *c.Persona
	}
	return c.Agent
}

// Error reports an unreadable or invalid configuration.
type Error struct {
	Path   string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	msg := "config"
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err is (or wraps) a config Error.
func IsConfigError(err error) bool {
	var ce *Error
	return errors.As(err, &ce)
}

// Load reads the file at path over Default. An empty path returns the
// defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &Error{Path: path, Reason: "cannot read file", Err: err}
	}
	cfg, err := Parse(data)
	if err != nil {
		var ce *Error
		if errors.As(err, &ce) {
			ce.Path = path
		}
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML over Default and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, &Error{Reason: "malformed YAML", Err: err}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges and provider names.
func (c Config) Validate() error {
	if c.Concurrency < 1 {
		return &Error{Reason: fmt.Sprintf("concurrency must be at least 1, got %d", c.Concurrency)}
	}
	if c.SampleTimeout < 0 {
		return &Error{Reason: fmt.Sprintf("sample_timeout must not be negative, got %s", c.SampleTimeout)}
	}
	if c.Simulation.MaxTurns < 0 || c.Simulation.RefusalTurns < 0 {
		return &Error{Reason: "simulation limits must not be negative"}
	}
	maxTurns, refusalTurns := c.Simulation.MaxTurns, c.Simulation.RefusalTurns
	if maxTurns == 0 {
		maxTurns = sim.DefaultMaxTurns
	}
	if refusalTurns == 0 {
		refusalTurns = sim.DefaultRefusalTurns
	}
	if refusalTurns > maxTurns {
		return &Error{Reason: fmt.Sprintf("simulation refusal_turns (%d) must not exceed max_turns (%d)", refusalTurns, maxTurns)}
	}

	models := []struct {
		key string
		m   ModelConfig
	}{
		{"agent", c.Agent},
		{"judge", c.JudgeModel()},
		{"persona", c.PersonaModel()},
	}
	for _, entry := range models {
		if err := validateModel(entry.m); err != nil {
			return &Error{Reason: entry.key + ": " + err.Error()}
		}
	}
	return nil
}

func validateModel(m ModelConfig) error {
	if m.Model == "" {
		return fmt.Errorf("model is required")
	}
	switch strings.ToLower(m.Provider) {
	case model.ProviderOpenAI, "openai-compatible", "", model.ProviderAnthropic, "claude":
	default:
		return fmt.Errorf("unknown provider %q", m.Provider)
	}
	if m.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must not be negative")
	}
	return nil
}
