package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/Zuo-Peng/chatlog/internal/scan"
)

// EnvPath overrides the config file location.
const EnvPath = "CHATLOG_CONFIG"

type Config struct {
	ClaudeRoot  string   `toml:"claude_root"`
	CodexRoot   string   `toml:"codex_root"`
	ExcludeDirs []string `toml:"exclude_dirs"`
	Exclude     []string `toml:"exclude"`
	SearchLimit int      `toml:"search_limit"`

	// Path is the file the config was read from, empty when defaults are used.
	Path string `toml:"-"`
}

func Default(home string) *Config {
	return &Config{
		ClaudeRoot:  filepath.Join(home, ".claude", "projects"),
		CodexRoot:   filepath.Join(home, ".codex", "sessions"),
		SearchLimit: 50,
	}
}

// DefaultPath is where Load looks when CHATLOG_CONFIG is unset.
func DefaultPath(home string) string {
	return filepath.Join(home, ".config", "chatlog", "config.toml")
}

func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	cfgPath := os.Getenv(EnvPath)
	explicit := cfgPath != ""
	if !explicit {
		cfgPath = DefaultPath(home)
	}
	return LoadFile(cfgPath, home, explicit)
}

// LoadFile reads cfgPath over the defaults. A missing file is an error only
// when required is set.
func LoadFile(cfgPath, home string, required bool) (*Config, error) {
	cfg := Default(home)

	cfgPath = expandHome(cfgPath, home)
	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
		cfg.Path = cfgPath
	} else if required {
		return nil, fmt.Errorf("config %s: %w", cfgPath, err)
	}

	// expand ~ in paths
	cfg.ClaudeRoot = expandHome(cfg.ClaudeRoot, home)
	cfg.CodexRoot = expandHome(cfg.CodexRoot, home)

	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = 50
	}
	return cfg, nil
}

func (c *Config) Roots() scan.Roots {
	return scan.Roots{Claude: c.ClaudeRoot, Codex: c.CodexRoot}
}

func (c *Config) DiscoverOptions() scan.DiscoverOptions {
	return scan.DiscoverOptions{ExcludedDirs: c.ExcludeDirs, Exclude: c.Exclude}
}

func expandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
