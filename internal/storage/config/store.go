package config

import (
	"fmt"
	"sync"

	"github.com/DonovanMods/me3-mod-manager/internal/domain"
)

// Store is every settings file loaded once at startup. It is passed to the
// components that need it and saved back explicitly.
type Store struct {
	Dir    string
	Config *Config
	Games  map[string]*domain.Game

	mu       sync.RWMutex
	profiles map[string]GameProfilesConfig
}

// Open loads config.yaml, games.yaml and profiles.yaml from dir
func Open(dir string) (*Store, error) {
	cfg, err := Load(dir)
	if err != nil {
		return nil, err
	}
	games, err := LoadGames(dir)
	if err != nil {
		return nil, err
	}
	profiles, err := LoadProfiles(dir)
	if err != nil {
		return nil, err
	}
	return &Store{Dir: dir, Config: cfg, Games: games, profiles: profiles}, nil
}

// Game returns a registered game
func (s *Store) Game(id string) (*domain.Game, error) {
	game, ok := s.Games[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrGameNotFound, id)
	}
	return game, nil
}

// GameProfiles returns a copy of one game's profile settings
func (s *Store) GameProfiles(gameID string) GameProfilesConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	gp := s.profiles[gameID]
	gp.Profiles = append([]ProfileConfig(nil), gp.Profiles...)
	return gp
}

// UpdateGameProfiles applies fn to one game's profile settings and writes profiles.yaml
func (s *Store) UpdateGameProfiles(gameID string, fn func(*GameProfilesConfig) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	gp := s.profiles[gameID]
	gp.Profiles = append([]ProfileConfig(nil), gp.Profiles...)
	if err := fn(&gp); err != nil {
		return err
	}

	next := make(map[string]GameProfilesConfig, len(s.profiles)+1)
	for k, v := range s.profiles {
		next[k] = v
	}
	if gp.Active == "" && len(gp.Profiles) == 0 {
		delete(next, gameID)
	} else {
		next[gameID] = gp
	}

	if err := SaveProfiles(s.Dir, next); err != nil {
		return err
	}
	s.profiles = next
	return nil
}

// SaveConfig writes config.yaml
func (s *Store) SaveConfig() error {
	return s.Config.Save(s.Dir)
}

// ReservedPackageIDs returns every game's main mods folder name. These never appear as package entries.
func (s *Store) ReservedPackageIDs() []string {
	ids := make([]string, 0, len(s.Games))
	for _, g := range s.Games {
		ids = append(ids, g.ModsDir)
	}
	return ids
}
