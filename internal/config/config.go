package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPrompt is printed before each line. {user} and {cwd} are
// substituted.
const DefaultPrompt = "{user} in {cwd}\n>mysh "

// DefaultBanner is printed once when an interactive session starts.
const DefaultBanner = "mysh: type help for builtins, exit or ^D to leave"

// Config holds the mysh configuration.
type Config struct {
	Prompt     string           `yaml:"prompt"`
	Banner     string           `yaml:"banner"`
	JobControl JobControlConfig `yaml:"job_control"`
	History    HistoryConfig    `yaml:"history"`
	Log        LogConfig        `yaml:"log"`
}

// JobControlConfig controls terminal hand-off.
type JobControlConfig struct {
	// Enabled: nil = auto (on when stdin is a terminal),
	// false = never touch the terminal. With job control off every
	// pipeline runs in the shell's own process group.
	Enabled *bool `yaml:"enabled"`
}

// Want reports whether job control should be used given whether stdin is a
// terminal.
func (j JobControlConfig) Want(isTerminal bool) bool {
	if j.Enabled != nil && !*j.Enabled {
		return false
	}
	return isTerminal
}

// HistoryConfig controls the hash-chained command history.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LogConfig controls the diagnostic log.
type LogConfig struct {
	// Path of the log file. Empty logs warnings and errors to stderr.
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Prompt: DefaultPrompt,
		Banner: DefaultBanner,
		History: HistoryConfig{
			Enabled: true,
			Path:    filepath.Join(home, ".local", "share", "mysh", "history.jsonl"),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the config from the standard location (~/.config/mysh/config.yaml).
// If the file doesn't exist, returns the default config.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads the config from the given path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.History.Path = expandHome(cfg.History.Path)
	cfg.Log.Path = expandHome(cfg.Log.Path)
	return cfg, nil
}

// Path returns the standard config file path.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "mysh", "config.yaml"), nil
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, p[1:])
}
