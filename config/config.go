// Package config loads engine configuration from JSON or YAML files with
// environment-variable overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/opsgrid/dispatchsim/core/optimize"
	"github.com/opsgrid/dispatchsim/core/scoring"
)

// Config is the full engine configuration.
type Config struct {
	Scoring   ScoringConfig   `json:"scoring"`
	Optimizer OptimizerConfig `json:"optimizer"`
	Logging   LoggingConfig   `json:"logging"`
}

// ScoringConfig tunes the penalty weights.
type ScoringConfig struct {
	MissedPenalty     float64 `json:"missed_penalty"`
	StackingPenalty   float64 `json:"stacking_penalty"`
	NeglectPenalty    float64 `json:"neglect_penalty"`
	StackingThreshold int     `json:"stacking_threshold"`
}

// SetDefaults applies the standard weights where unset.
func (c *ScoringConfig) SetDefaults() {
	def := scoring.DefaultWeights()
	if c.MissedPenalty == 0 {
		c.MissedPenalty = def.MissedPenalty
	}
	if c.StackingPenalty == 0 {
		c.StackingPenalty = def.StackingPenalty
	}
	if c.NeglectPenalty == 0 {
		c.NeglectPenalty = def.NeglectPenalty
	}
	if c.StackingThreshold == 0 {
		c.StackingThreshold = def.StackingThreshold
	}
}

// Weights converts the configuration into scoring weights.
func (c ScoringConfig) Weights() scoring.Weights {
	return scoring.Weights{
		MissedPenalty:     c.MissedPenalty,
		StackingPenalty:   c.StackingPenalty,
		NeglectPenalty:    c.NeglectPenalty,
		StackingThreshold: c.StackingThreshold,
	}
}

// Validate checks the weights are usable.
func (c ScoringConfig) Validate() error {
	if c.MissedPenalty < 0 || c.StackingPenalty < 0 || c.NeglectPenalty < 0 {
		return fmt.Errorf("penalty weights must not be negative")
	}
	if c.StackingThreshold < 0 {
		return fmt.Errorf("stacking_threshold must not be negative")
	}
	return nil
}

// OptimizerConfig tunes the placement optimizer search.
type OptimizerConfig struct {
	Candidates  int     `json:"candidates"`
	Iterations  int     `json:"iterations"`
	InitialTemp float64 `json:"initial_temp"`
	Cooling     float64 `json:"cooling"`
}

// SetDefaults applies the standard search budget where unset.
func (c *OptimizerConfig) SetDefaults() {
	if c.Candidates == 0 {
		c.Candidates = 200
	}
	if c.Iterations == 0 {
		c.Iterations = 1000
	}
	if c.InitialTemp == 0 {
		c.InitialTemp = 100.0
	}
	if c.Cooling == 0 {
		c.Cooling = 0.95
	}
}

// Tuning converts the configuration into an optimizer config.
func (c OptimizerConfig) Tuning() optimize.Config {
	return optimize.Config{
		Candidates:  c.Candidates,
		Iterations:  c.Iterations,
		InitialTemp: c.InitialTemp,
		Cooling:     c.Cooling,
	}
}

// Validate checks the search budget is usable.
func (c OptimizerConfig) Validate() error {
	if c.Candidates < 0 || c.Iterations < 0 {
		return fmt.Errorf("search budgets must not be negative")
	}
	if c.Cooling < 0 || c.Cooling >= 1 {
		return fmt.Errorf("cooling must be in (0,1)")
	}
	return nil
}

// LoggingConfig selects the log verbosity.
type LoggingConfig struct {
	Level string `json:"level"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

// Validate checks the level name.
func (c LoggingConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("unknown log level %s", c.Level)
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	var cfg Config
	cfg.Scoring.SetDefaults()
	cfg.Optimizer.SetDefaults()
	cfg.Logging.SetDefaults()
	return &cfg
}

// Load reads the configuration file at path. The format follows the file
// extension. DS_-prefixed environment variables override file values, with
// "__" separating nesting levels (e.g. DS_SCORING__MISSED_PENALTY).
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider("DS_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "ds_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Scoring.SetDefaults()
	cfg.Optimizer.SetDefaults()
	cfg.Logging.SetDefaults()
	if err := cfg.Scoring.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Optimizer.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Logging.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
