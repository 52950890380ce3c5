package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"callcenter-stats/domain/metrics"
	"callcenter-stats/domain/period"

	"gopkg.in/yaml.v3"
)

// DefaultPath is used when CONFIG_PATH is not set.
const DefaultPath = "./config.yml"

// Config represents the structure of config.yml used by the tool.
type Config struct {
	Sheets struct {
		SpreadsheetID string `yaml:"spreadsheet_id"`
		CallsRange    string `yaml:"calls_range"`
		TicketsRange  string `yaml:"tickets_range"`
	} `yaml:"sheets"`
	Operators struct {
		// Deny extends the built-in sentinel names excluded from operator metrics.
		Deny []string `yaml:"deny"`
	} `yaml:"operators"`
	Scoring *metrics.Weights `yaml:"scoring"`
	Dashboard struct {
		DataDir       string `yaml:"data_dir"`
		DefaultPeriod string `yaml:"default_period"`
	} `yaml:"dashboard"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	c := &Config{}
	c.Sheets.CallsRange = "Chamadas!A:AC"
	c.Sheets.TicketsRange = "Tickets!A:O"
	c.Dashboard.DataDir = "data"
	c.Dashboard.DefaultPeriod = string(period.Last7Days)
	return c
}

// Weights returns the configured score weights, or the defaults.
func (c *Config) Weights() metrics.Weights {
	if c.Scoring == nil {
		return metrics.DefaultWeights
	}
	return *c.Scoring
}

// Validate checks the values that would otherwise fail late.
func (c *Config) Validate() error {
	if c.Scoring != nil {
		if err := c.Scoring.Validate(); err != nil {
			return fmt.Errorf("scoring: %w", err)
		}
	}
	if _, err := period.Parse(c.Dashboard.DefaultPeriod, "", ""); err != nil {
		return fmt.Errorf("dashboard.default_period: %w", err)
	}
	return nil
}

// Load parses the YAML configuration file at path on top of Default.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	slog.Info(fmt.Sprintf("Loaded config: %s", path))
	return c, nil
}

// Resolve loads the file named by CONFIG_PATH (default ./config.yml). A
// missing file yields Default; any other failure is returned.
func Resolve() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = DefaultPath
	}
	c, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Info("config.default", "reason", "file not found", "path", path)
		return Default(), nil
	}
	return c, err
}
