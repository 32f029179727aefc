package config

import (
	"fmt"
	"os"

	"github.com/danmuck/lsofctl/internal/lsof"
	"github.com/pelletier/go-toml/v2"
)

// Template renders cfg in the file format read by LoadAgentConfig.
func Template(cfg AgentConfig) (string, error) {
	raw := fileConfig{
		ID:          cfg.ID,
		Addr:        cfg.Addr,
		CorsOrigins: cfg.CorsOrigins,
		AuthToken:   cfg.AuthToken,
		Boundary:    cfg.Boundary.String(),
		Strict:      cfg.Strict,
		Separator:   separatorName(cfg.Separator),
		File:        cfg.File,
		Command: fileCommandConfig{
			Path:    cfg.Command.Path,
			Args:    cfg.Command.Args,
			Timeout: cfg.Command.Timeout.String(),
		},
		SSH: fileSSHConfig{
			Host:                        cfg.SSH.Host,
			Port:                        cfg.SSH.Port,
			User:                        cfg.SSH.User,
			KeyPath:                     cfg.SSH.KeyPath,
			PassphraseEnv:               cfg.SSH.PassphraseEnv,
			KnownHostsPath:              cfg.SSH.KnownHostsPath,
			InsecureSkipHostKeyChecking: cfg.SSH.InsecureSkipHostKeyChecking,
			Timeout:                     cfg.SSH.Timeout.String(),
		},
	}
	data, err := toml.Marshal(raw)
	if err != nil {
		return "", fmt.Errorf("render config: %w", err)
	}
	return string(data), nil
}

func WriteTemplate(path string, overwrite bool) error {
	template, err := Template(DefaultAgentConfig())
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

func separatorName(sep byte) string {
	switch sep {
	case lsof.DefaultSeparator:
		return "nul"
	case ' ':
		return "space"
	case '\t':
		return "tab"
	default:
		return string(sep)
	}
}
