package main

import (
	"fmt"

	"github.com/danmuck/lsofctl/internal/config"
	"github.com/danmuck/lsofctl/internal/lsof"
)

// overrides holds the command-line values layered over the loaded config.
// Empty strings and a false Strict leave the config untouched.
type overrides struct {
	File      string
	Boundary  string
	Separator string
	Strict    bool
}

func applyOverrides(cfg config.AgentConfig, o overrides) (config.AgentConfig, error) {
	if o.File != "" {
		cfg.File = o.File
	}
	if o.Boundary != "" {
		b, err := lsof.ParseBoundary(o.Boundary)
		if err != nil {
			return config.AgentConfig{}, fmt.Errorf("invalid -boundary: %w", err)
		}
		cfg.Boundary = b
	}
	if o.Separator != "" {
		sep, err := config.ParseSeparator(o.Separator)
		if err != nil {
			return config.AgentConfig{}, fmt.Errorf("invalid -separator: %w", err)
		}
		cfg.Separator = sep
	}
	if o.Strict {
		cfg.Strict = true
	}
	return cfg, nil
}
