package cliutil

import (
	"fmt"

	"github.com/Paintersrp/sma/internal/config"
)

// ConfigDocument bundles a validated config with the file it came from.
type ConfigDocument struct {
	Config *config.Validated
	Source string
}

// LoadConfigFromFile loads and validates a config file.
func LoadConfigFromFile(path string) (*ConfigDocument, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	validated, err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.SourcePath(), err)
	}
	return &ConfigDocument{Config: validated, Source: cfg.SourcePath()}, nil
}
