package main

import (
	"testing"

	"github.com/danmuck/lsofctl/internal/config"
	"github.com/danmuck/lsofctl/internal/lsof"
)

func TestApplyOverrides(t *testing.T) {
	cfg, err := applyOverrides(config.DefaultAgentConfig(), overrides{
		File:      "dump.zst",
		Boundary:  "repeat",
		Separator: "space",
		Strict:    true,
	})
	if err != nil {
		t.Fatalf("apply overrides: %v", err)
	}
	if cfg.File != "dump.zst" || cfg.Boundary != lsof.BoundaryRepeat || !cfg.Strict {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Separator != ' ' {
		t.Fatalf("unexpected separator: %q", cfg.Separator)
	}
}

func TestApplyOverridesKeepsConfig(t *testing.T) {
	base := config.DefaultAgentConfig()
	base.Separator = '\t'
	base.Strict = true

	cfg, err := applyOverrides(base, overrides{})
	if err != nil {
		t.Fatalf("apply overrides: %v", err)
	}
	if cfg.Separator != '\t' || !cfg.Strict || cfg.Boundary != lsof.BoundaryLine {
		t.Fatalf("empty flags must not change config: %+v", cfg)
	}
}

func TestApplyOverridesRejectsBadValues(t *testing.T) {
	for name, o := range map[string]overrides{
		"boundary":  {Boundary: "fields"},
		"separator": {Separator: "ab"},
		"newline":   {Separator: "\n"},
	} {
		if _, err := applyOverrides(config.DefaultAgentConfig(), o); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
