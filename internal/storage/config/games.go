package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/DonovanMods/me3-mod-manager/internal/domain"

	"gopkg.in/yaml.v3"
)

// GameConfig is the YAML representation of a game
type GameConfig struct {
	Name        string `yaml:"name"`
	ModsDir     string `yaml:"mods_dir"`
	Profile     string `yaml:"profile"`
	Executable  string `yaml:"executable,omitempty"`
	NexusDomain string `yaml:"nexus_domain,omitempty"`
}

// GamesFile is the top-level games.yaml structure
type GamesFile struct {
	Games map[string]GameConfig `yaml:"games"`
}

// LoadGames reads the game registry. Without a games.yaml the built-in table is returned.
func LoadGames(configDir string) (map[string]*domain.Game, error) {
	data, err := os.ReadFile(filepath.Join(configDir, "games.yaml"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.DefaultGames(), nil
		}
		return nil, fmt.Errorf("reading games.yaml: %w", err)
	}

	var gamesFile GamesFile
	if err := yaml.Unmarshal(data, &gamesFile); err != nil {
		return nil, fmt.Errorf("parsing games.yaml: %w", err)
	}

	games := make(map[string]*domain.Game, len(gamesFile.Games))
	for id, cfg := range gamesFile.Games {
		if cfg.ModsDir == "" || cfg.Profile == "" {
			return nil, fmt.Errorf("%w: game %q needs mods_dir and profile", domain.ErrInvalidConfig, id)
		}
		games[id] = &domain.Game{
			ID:          id,
			Name:        cfg.Name,
			ModsDir:     cfg.ModsDir,
			ProfileFile: cfg.Profile,
			Executable:  cfg.Executable,
			NexusDomain: cfg.NexusDomain,
		}
	}

	return games, nil
}

// SaveGame adds or updates a game in games.yaml
func SaveGame(configDir string, game *domain.Game) error {
	games, err := LoadGames(configDir)
	if err != nil {
		return err
	}

	games[game.ID] = game
	return SaveGames(configDir, games)
}

// SaveGames writes the whole registry
func SaveGames(configDir string, games map[string]*domain.Game) error {
	gamesFile := GamesFile{Games: make(map[string]GameConfig, len(games))}
	for id, game := range games {
		gamesFile.Games[id] = GameConfig{
			Name:        game.Name,
			ModsDir:     game.ModsDir,
			Profile:     game.ProfileFile,
			Executable:  game.Executable,
			NexusDomain: game.NexusDomain,
		}
	}

	data, err := yaml.Marshal(&gamesFile)
	if err != nil {
		return fmt.Errorf("marshaling games: %w", err)
	}
	return writeFile(configDir, "games.yaml", data)
}

// DeleteGame removes a game from games.yaml
func DeleteGame(configDir string, gameID string) error {
	games, err := LoadGames(configDir)
	if err != nil {
		return err
	}

	if _, exists := games[gameID]; !exists {
		return domain.ErrGameNotFound
	}

	delete(games, gameID)
	return SaveGames(configDir, games)
}
