package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds global application settings
type Config struct {
	ProfilesRoot   string `yaml:"profiles_root,omitempty"` // ME3 profiles root; empty means the platform default
	DefaultGame    string `yaml:"default_game,omitempty"`
	Keybindings    string `yaml:"keybindings"`
	ProfileVersion string `yaml:"profile_version"` // Schema for newly created profile files
	LogLevel       string `yaml:"log_level"`
}

// Load reads configuration from the given directory
func Load(configDir string) (*Config, error) {
	cfg := &Config{
		Keybindings:    "vim",
		ProfileVersion: "v1",
		LogLevel:       "warn",
	}

	data, err := os.ReadFile(filepath.Join(configDir, "config.yaml"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes configuration to the given directory
func (c *Config) Save(configDir string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return writeFile(configDir, "config.yaml", data)
}

// ResolvedProfilesRoot returns ProfilesRoot or the platform default
func (c *Config) ResolvedProfilesRoot() (string, error) {
	if c.ProfilesRoot != "" {
		return ExpandHome(c.ProfilesRoot)
	}
	return DefaultProfilesRoot()
}

func writeFile(configDir, name string, data []byte) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, name), data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}
