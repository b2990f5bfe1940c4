package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	WorkDir         string        `yaml:"work_dir"`          // dataset download directory
	ResultsDir      string        `yaml:"results_dir"`       // <results_dir>/<Dataset>/<Model>/
	TestSize        float64       `yaml:"test_size"`         // held-out fraction for random splits
	Seed            int64         `yaml:"seed"`              // 0 keeps splits unseeded
	MaxTrainingTime time.Duration `yaml:"max_training_time"` // per dataset/model pair, e.g. 180s
	HTTPTimeout     time.Duration `yaml:"http_timeout"`
	WeightsModel    string        `yaml:"weights_model"`
	LogLevel        string        `yaml:"log_level"`
	LogFormat       string        `yaml:"log_format"`
	Datasets        []string      `yaml:"datasets"` // empty means all
	Models          []string      `yaml:"models"`   // empty means all
}

// Default returns the configuration used when no file sets a key.
func Default() *Config {
	return &Config{
		WorkDir:         "data",
		ResultsDir:      "results",
		TestSize:        0.25,
		MaxTrainingTime: 180 * time.Second,
		HTTPTimeout:     5 * time.Minute,
		WeightsModel:    "DecisionTreeModel",
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

// Load reads the YAML file at configPath over the defaults. An empty path
// searches configs/tabbench.yaml then tabbench.yaml and falls back to the
// defaults when neither exists.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath == "" {
		for _, p := range []string{"configs/tabbench.yaml", "tabbench.yaml"} {
			data, err := os.ReadFile(p)
			if err == nil {
				return cfg, decode(cfg, data, p)
			}
		}
		applyDefaults(cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, err
	}
	return cfg, decode(cfg, data, configPath)
}

func decode(cfg *Config, data []byte, path string) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	d := Default()
	if cfg.WorkDir == "" {
		cfg.WorkDir = d.WorkDir
	}
	if cfg.ResultsDir == "" {
		cfg.ResultsDir = d.ResultsDir
	}
	if cfg.TestSize == 0 {
		cfg.TestSize = d.TestSize
	}
	if cfg.MaxTrainingTime == 0 {
		cfg.MaxTrainingTime = d.MaxTrainingTime
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = d.HTTPTimeout
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = d.LogLevel
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = d.LogFormat
	}
}

// Validate rejects values that cannot be repaired by a default.
func (c *Config) Validate() error {
	if c.TestSize <= 0 || c.TestSize >= 1 {
		return fmt.Errorf("test_size must be in (0, 1), got %g", c.TestSize)
	}
	if c.MaxTrainingTime < 0 {
		return fmt.Errorf("max_training_time must not be negative, got %s", c.MaxTrainingTime)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn or error, got %q", c.LogLevel)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}
