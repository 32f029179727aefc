package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/lsofctl/internal/lsof"
)

// AgentConfig is the runtime configuration of lsofctl.
//
// File, when set, replaces the live command as the record source.
// AuthToken, when set, is required as a bearer token on /snapshot and /decode.
type AgentConfig struct {
	ID          string
	Addr        string
	CorsOrigins []string
	AuthToken   string
	Boundary    lsof.Boundary
	Strict      bool
	Separator   byte
	File        string
	Command     CommandConfig
	SSH         SSHConfig
}

type CommandConfig struct {
	Path    string
	Args    []string
	Timeout time.Duration
}

// SSHConfig enables remote collection when Host is set.
//
// PassphraseEnv names the environment variable holding the passphrase of an
// encrypted key; the passphrase itself is never read from the file.
type SSHConfig struct {
	Host                        string
	Port                        string
	User                        string
	KeyPath                     string
	PassphraseEnv               string
	KnownHostsPath              string
	InsecureSkipHostKeyChecking bool
	Timeout                     time.Duration
}

func (c SSHConfig) Enabled() bool {
	return strings.TrimSpace(c.Host) != ""
}

// Passphrase returns the key passphrase from PassphraseEnv, or nil.
func (c SSHConfig) Passphrase() []byte {
	if c.PassphraseEnv == "" {
		return nil
	}
	v, ok := os.LookupEnv(c.PassphraseEnv)
	if !ok || v == "" {
		return nil
	}
	return []byte(v)
}

func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		ID:          "lsofctl",
		Addr:        ":9300",
		CorsOrigins: []string{},
		Boundary:    lsof.BoundaryLine,
		Separator:   lsof.DefaultSeparator,
		Command: CommandConfig{
			Path:    "lsof",
			Args:    []string{"-n", "-P", "-F0"},
			Timeout: 30 * time.Second,
		},
		SSH: SSHConfig{
			Timeout: 10 * time.Second,
		},
	}
}

type fileConfig struct {
	ID          string            `toml:"id"`
	Addr        string            `toml:"addr"`
	CorsOrigins []string          `toml:"cors_origins"`
	AuthToken   string            `toml:"auth_token"`
	Boundary    string            `toml:"boundary"`
	Strict      bool              `toml:"strict"`
	Separator   string            `toml:"separator"`
	File        string            `toml:"file"`
	Command     fileCommandConfig `toml:"command"`
	SSH         fileSSHConfig     `toml:"ssh"`
}

type fileCommandConfig struct {
	Path    string   `toml:"path"`
	Args    []string `toml:"args"`
	Timeout string   `toml:"timeout"`
}

type fileSSHConfig struct {
	Host                        string `toml:"host"`
	Port                        string `toml:"port"`
	User                        string `toml:"user"`
	KeyPath                     string `toml:"key_path"`
	PassphraseEnv               string `toml:"passphrase_env"`
	KnownHostsPath              string `toml:"known_hosts_path"`
	InsecureSkipHostKeyChecking bool   `toml:"insecure_skip_host_key_checking"`
	Timeout                     string `toml:"timeout"`
}

// LoadAgentConfig overlays the keys defined in the TOML file at path onto
// DefaultAgentConfig and validates the result.
func LoadAgentConfig(path string) (AgentConfig, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return AgentConfig{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	cfg, err := applyFileConfig(DefaultAgentConfig(), raw, meta)
	if err != nil {
		return AgentConfig{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if err := ValidateAgentConfig(cfg); err != nil {
		return AgentConfig{}, err
	}
	return cfg, nil
}

func applyFileConfig(cfg AgentConfig, raw fileConfig, meta toml.MetaData) (AgentConfig, error) {
	if meta.IsDefined("id") {
		cfg.ID = strings.TrimSpace(raw.ID)
	}
	if meta.IsDefined("addr") {
		cfg.Addr = strings.TrimSpace(raw.Addr)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = normalizeList(raw.CorsOrigins)
	}
	if meta.IsDefined("auth_token") {
		cfg.AuthToken = strings.TrimSpace(raw.AuthToken)
	}
	if meta.IsDefined("boundary") {
		b, err := lsof.ParseBoundary(raw.Boundary)
		if err != nil {
			return AgentConfig{}, err
		}
		cfg.Boundary = b
	}
	if meta.IsDefined("strict") {
		cfg.Strict = raw.Strict
	}
	if meta.IsDefined("separator") {
		sep, err := ParseSeparator(raw.Separator)
		if err != nil {
			return AgentConfig{}, err
		}
		cfg.Separator = sep
	}
	if meta.IsDefined("file") {
		cfg.File = strings.TrimSpace(raw.File)
	}

	if meta.IsDefined("command", "path") {
		cfg.Command.Path = strings.TrimSpace(raw.Command.Path)
	}
	if meta.IsDefined("command", "args") {
		cfg.Command.Args = normalizeList(raw.Command.Args)
	}
	if meta.IsDefined("command", "timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Command.Timeout))
		if err != nil {
			return AgentConfig{}, fmt.Errorf("parse command.timeout: %w", err)
		}
		cfg.Command.Timeout = d
	}

	if meta.IsDefined("ssh", "host") {
		cfg.SSH.Host = strings.TrimSpace(raw.SSH.Host)
	}
	if meta.IsDefined("ssh", "port") {
		cfg.SSH.Port = strings.TrimSpace(raw.SSH.Port)
	}
	if meta.IsDefined("ssh", "user") {
		cfg.SSH.User = strings.TrimSpace(raw.SSH.User)
	}
	if meta.IsDefined("ssh", "key_path") {
		cfg.SSH.KeyPath = strings.TrimSpace(raw.SSH.KeyPath)
	}
	if meta.IsDefined("ssh", "passphrase_env") {
		cfg.SSH.PassphraseEnv = strings.TrimSpace(raw.SSH.PassphraseEnv)
	}
	if meta.IsDefined("ssh", "known_hosts_path") {
		cfg.SSH.KnownHostsPath = strings.TrimSpace(raw.SSH.KnownHostsPath)
	}
	if meta.IsDefined("ssh", "insecure_skip_host_key_checking") {
		cfg.SSH.InsecureSkipHostKeyChecking = raw.SSH.InsecureSkipHostKeyChecking
	}
	if meta.IsDefined("ssh", "timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.SSH.Timeout))
		if err != nil {
			return AgentConfig{}, fmt.Errorf("parse ssh.timeout: %w", err)
		}
		cfg.SSH.Timeout = d
	}
	return cfg, nil
}

// ParseSeparator accepts "nul", "space", "tab", or a single character.
func ParseSeparator(raw string) (byte, error) {
	switch strings.ToLower(raw) {
	case "", "nul", "null", "\x00":
		return 0, nil
	case "space":
		return ' ', nil
	case "tab":
		return '\t', nil
	}
	if len(raw) == 1 && raw[0] != '\n' {
		return raw[0], nil
	}
	return 0, fmt.Errorf("invalid separator %q", raw)
}

func ValidateAgentConfig(cfg AgentConfig) error {
	if strings.TrimSpace(cfg.ID) == "" {
		return fmt.Errorf("agent config missing id")
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("agent config missing addr")
	}
	if cfg.File == "" && strings.TrimSpace(cfg.Command.Path) == "" {
		return fmt.Errorf("agent config needs a file or command.path")
	}
	if cfg.Command.Timeout < 0 || cfg.SSH.Timeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	if cfg.SSH.Enabled() {
		if strings.TrimSpace(cfg.SSH.User) == "" {
			return fmt.Errorf("ssh.user is required when ssh.host is set")
		}
		if strings.TrimSpace(cfg.SSH.KeyPath) == "" {
			return fmt.Errorf("ssh.key_path is required when ssh.host is set")
		}
	}
	return nil
}

func normalizeList(in []string) []string {
	if len(in) == 0 {
		return []string{}
	}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
