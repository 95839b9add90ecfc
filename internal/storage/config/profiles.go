package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProfileConfig is the YAML representation of a custom profile
type ProfileConfig struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	ProfilePath string `yaml:"profile_path"`
	ModsPath    string `yaml:"mods_path"`
}

// GameProfilesConfig holds one game's custom profiles and which profile is active
type GameProfilesConfig struct {
	Active   string          `yaml:"active,omitempty"`
	Profiles []ProfileConfig `yaml:"profiles,omitempty"`
}

// ProfilesFile is the top-level profiles.yaml structure
type ProfilesFile struct {
	Games map[string]GameProfilesConfig `yaml:"games"`
}

// LoadProfiles reads profiles.yaml; a missing file means no custom profiles
func LoadProfiles(configDir string) (map[string]GameProfilesConfig, error) {
	data, err := os.ReadFile(filepath.Join(configDir, "profiles.yaml"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]GameProfilesConfig), nil
		}
		return nil, fmt.Errorf("reading profiles.yaml: %w", err)
	}

	var file ProfilesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing profiles.yaml: %w", err)
	}
	if file.Games == nil {
		file.Games = make(map[string]GameProfilesConfig)
	}
	return file.Games, nil
}

// SaveProfiles writes profiles.yaml
func SaveProfiles(configDir string, games map[string]GameProfilesConfig) error {
	data, err := yaml.Marshal(&ProfilesFile{Games: games})
	if err != nil {
		return fmt.Errorf("marshaling profiles: %w", err)
	}
	return writeFile(configDir, "profiles.yaml", data)
}
