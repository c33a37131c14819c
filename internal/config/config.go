// Package config loads and validates Artisan's runtime configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all Artisan configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	Validation   ValidationConfig   `yaml:"validation"`
	Generation   GenerationConfig   `yaml:"generation"`
	Context      ContextConfig      `yaml:"context"`
	FineTuning   FineTuningConfig   `yaml:"fine_tuning"`
	Providers    ProvidersConfig    `yaml:"providers"`
	Logging      LoggingConfig      `yaml:"logging"`
	CoreLimits   CoreLimits         `yaml:"core_limits"`
	Persistence  PersistenceConfig  `yaml:"persistence"`
}

// ValidationConfig controls C4's gating thresholds.
type ValidationConfig struct {
	GenerationThreshold int `yaml:"generation_threshold"` // default 80
	PoolMinScore        int `yaml:"pool_min_score"`        // default 85
}

// GenerationConfig controls C5's pipeline defaults.
type GenerationConfig struct {
	Temperature         float64       `yaml:"temperature"`            // default 0.2
	MaxRetriesPerModel  int           `yaml:"max_retries_per_model"`  // default 2
	LocalCallTimeout    time.Duration `yaml:"local_call_timeout"`     // default 60s
	CloudCallTimeout    time.Duration `yaml:"cloud_call_timeout"`     // default 120s
	CloudMaxTokens      int           `yaml:"cloud_max_tokens"`       // default 4096
	LocalContextWindow  int           `yaml:"local_context_window"`   // default 8192
	PersistentModels    []string      `yaml:"persistent_models"`
	CloudBackoffBase    time.Duration `yaml:"cloud_backoff_base"`     // default 1s
	CloudBackoffCap     time.Duration `yaml:"cloud_backoff_cap"`      // default 300s
	CloudMaxAttempts    int           `yaml:"cloud_max_attempts"`     // default 3
	// DefaultCloudFallbacks is the configured cloud candidate list (fully
	// qualified model ids) the orchestrator falls back to when a routing's
	// own cloud fallbacks are empty.
	DefaultCloudFallbacks []string `yaml:"default_cloud_fallbacks"`
}

// ContextConfig bounds C2's assembled context.
type ContextConfig struct {
	MaxMeetingNotesChars int `yaml:"max_meeting_notes_chars"` // default 8000
	MaxRAGChars          int `yaml:"max_rag_chars"`           // default 12000
	MinAssembledChars    int `yaml:"min_assembled_chars"`     // default 100
}

// FineTuningConfig controls C6/C7.
type FineTuningConfig struct {
	IncrementalBatchThreshold int           `yaml:"incremental_batch_threshold"` // default 50
	MajorBatchThreshold       int           `yaml:"major_batch_threshold"`       // default 2000
	CheckInterval             time.Duration `yaml:"check_interval"`              // default 60s
	TrainingLockTTL           time.Duration `yaml:"training_lock_ttl"`           // default 2h
	LastTrainingSuppress      time.Duration `yaml:"last_training_suppress"`      // default 1h
	HuggingFace               HFTrainingConfig `yaml:"hf_training"`
}

// HFTrainingConfig configures the HuggingFace LoRA/QLoRA path.
type HFTrainingConfig struct {
	Enabled              bool `yaml:"enabled"`
	LoRARank             int  `yaml:"lora_rank"`             // default 16
	GradientAccumulation int  `yaml:"gradient_accumulation"` // default 8
}

// ProvidersConfig lists which cloud providers are enabled and where local
// backends live. API keys are not part of it; see internal/secrets.
type ProvidersConfig struct {
	CloudProvidersEnabled []string `yaml:"cloud_providers_enabled"` // subset of openai,anthropic,gemini,groq
	OllamaBaseURL         string   `yaml:"ollama_base_url"`
	HuggingFaceCacheDir   string   `yaml:"huggingface_cache_dir"`
}

// PersistenceConfig points at the on-disk state directory.
type PersistenceConfig struct {
	StateDir string `yaml:"state_dir"` // default ./artisan-state
}

// CoreLimits enforces system-wide resource constraints.
type CoreLimits struct {
	MaxConcurrentProbes int `yaml:"max_concurrent_probes"` // default 8, bounds C3 probes
	ProbeTimeout         time.Duration `yaml:"probe_timeout"`         // default 5s
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "artisan",
		Version: "0.1.0",

		Validation: ValidationConfig{
			GenerationThreshold: 80,
			PoolMinScore:        85,
		},

		Generation: GenerationConfig{
			Temperature:        0.2,
			MaxRetriesPerModel: 2,
			LocalCallTimeout:   60 * time.Second,
			CloudCallTimeout:   120 * time.Second,
			CloudMaxTokens:     4096,
			LocalContextWindow: 8192,
			CloudBackoffBase:   time.Second,
			CloudBackoffCap:    300 * time.Second,
			CloudMaxAttempts:   3,
		},

		Context: ContextConfig{
			MaxMeetingNotesChars: 8000,
			MaxRAGChars:          12000,
			MinAssembledChars:    100,
		},

		FineTuning: FineTuningConfig{
			IncrementalBatchThreshold: 50,
			MajorBatchThreshold:       2000,
			CheckInterval:             60 * time.Second,
			TrainingLockTTL:           2 * time.Hour,
			LastTrainingSuppress:      time.Hour,
			HuggingFace: HFTrainingConfig{
				Enabled:              false,
				LoRARank:             16,
				GradientAccumulation: 8,
			},
		},

		Providers: ProvidersConfig{
			CloudProvidersEnabled: []string{"openai", "anthropic", "gemini", "groq"},
			OllamaBaseURL:         "http://localhost:11434",
			HuggingFaceCacheDir:   filepath.Join(os.Getenv("HOME"), ".cache", "huggingface"),
		},

		Logging: LoggingConfig{
			Level:     "info",
			Format:    "json",
			DebugMode: false,
		},

		CoreLimits: CoreLimits{
			MaxConcurrentProbes: 8,
			ProbeTimeout:        5 * time.Second,
		},

		Persistence: PersistenceConfig{
			StateDir: "./artisan-state",
		},
	}
}

// Load loads configuration from a YAML file, falling back to defaults if the
// file does not exist. Environment variables always override file values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			if err := cfg.Validate(); err != nil {
				return nil, fmt.Errorf("invalid config: %w", err)
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// applyEnvOverrides layers environment variables over file-loaded config.
// API keys themselves are never stored on Config; see internal/secrets.
func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv("ARTISAN_STATE_DIR"); dir != "" {
		c.Persistence.StateDir = dir
	}
	if url := os.Getenv("OLLAMA_BASE_URL"); url != "" {
		c.Providers.OllamaBaseURL = url
	}
	if dir := os.Getenv("HF_HOME"); dir != "" {
		c.Providers.HuggingFaceCacheDir = dir
	}
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Validation.GenerationThreshold < 0 || c.Validation.GenerationThreshold > 100 {
		return fmt.Errorf("validation.generation_threshold must be in [0,100]")
	}
	if c.Validation.PoolMinScore < 0 || c.Validation.PoolMinScore > 100 {
		return fmt.Errorf("validation.pool_min_score must be in [0,100]")
	}
	if c.Generation.MaxRetriesPerModel < 0 {
		return fmt.Errorf("generation.max_retries_per_model must be >= 0")
	}
	if c.Context.MinAssembledChars < 0 {
		return fmt.Errorf("context.min_assembled_chars must be >= 0")
	}
	if c.CoreLimits.MaxConcurrentProbes < 1 {
		return fmt.Errorf("core_limits.max_concurrent_probes must be >= 1")
	}
	return nil
}

// IsPersistentModel reports whether a model id should stay loaded across calls.
func (c *Config) IsPersistentModel(modelID string) bool {
	for _, id := range c.Generation.PersistentModels {
		if id == modelID {
			return true
		}
	}
	return false
}

// IsCloudProviderEnabled reports whether a provider name is in the enabled set.
func (c *ProvidersConfig) IsCloudProviderEnabled(provider string) bool {
	for _, p := range c.CloudProvidersEnabled {
		if p == provider {
			return true
		}
	}
	return false
}
