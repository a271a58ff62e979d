package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type LLMConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
}

// PipelineConfig carries the consolidation tunables. The batch sizes and
// retry counts are empirical values with no documented derivation; they are
// configuration, not constants.
type PipelineConfig struct {
	RecoveryBatchSize   int     `toml:"recovery_batch_size"`
	CorrectionBatchSize int     `toml:"correction_batch_size"`
	BatchAttempts       int     `toml:"batch_attempts"`
	MathTolerance       float64 `toml:"math_tolerance"`
	DiscoveryTextCap    int     `toml:"discovery_text_cap"`
	BoundaryLeadIn      int     `toml:"boundary_lead_in"`

	DetectionMaxTokens  int `toml:"detection_max_tokens"`
	AnalysisMaxTokens   int `toml:"analysis_max_tokens"`
	ExtractionMaxTokens int `toml:"extraction_max_tokens"`
}

type ServerConfig struct {
	Port        string `toml:"port"`
	OutputDir   string `toml:"output_dir"`
	MaxUploadMB int64  `toml:"max_upload_mb"`
}

type BatchConfig struct {
	Workers   int    `toml:"workers"`
	InputDir  string `toml:"input_dir"`
	OutputDir string `toml:"output_dir"`
}

type Config struct {
	LLM      LLMConfig      `toml:"llm"`
	Pipeline PipelineConfig `toml:"pipeline"`
	Server   ServerConfig   `toml:"server"`
	Batch    BatchConfig    `toml:"batch"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4o",
		},
		Pipeline: PipelineConfig{
			RecoveryBatchSize:   5,
			CorrectionBatchSize: 3,
			BatchAttempts:       2,
			MathTolerance:       1.0,
			DiscoveryTextCap:    100_000,
			BoundaryLeadIn:      10,
			DetectionMaxTokens:  4000,
			AnalysisMaxTokens:   1500,
			ExtractionMaxTokens: 8000,
		},
		Server: ServerConfig{
			Port:        "8080",
			OutputDir:   "outputs",
			MaxUploadMB: 50,
		},
		Batch: BatchConfig{
			Workers:   4,
			InputDir:  "sources",
			OutputDir: "outputs",
		},
	}
}

// Load reads a TOML config file on top of the defaults, then applies
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// ApplyEnv overrides LLM settings from the environment. This lets deployments
// keep API keys out of the config file.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && c.LLM.APIKey == "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
}
