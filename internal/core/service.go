package core

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/go-hclog"

	"github.com/DonovanMods/me3-mod-manager/internal/domain"
	"github.com/DonovanMods/me3-mod-manager/internal/pathkey"
	"github.com/DonovanMods/me3-mod-manager/internal/profiledoc"
	"github.com/DonovanMods/me3-mod-manager/internal/storage/config"
	"github.com/DonovanMods/me3-mod-manager/internal/storage/db"
)

// NexusService is the token key for Nexus Mods credentials
const NexusService = "nexusmods"

// ServiceConfig holds configuration for the core service
type ServiceConfig struct {
	ConfigDir string       // Directory for configuration files
	DataDir   string       // Directory for the database
	Logger    hclog.Logger // nil discards
}

// Service wires the settings store, the database and the engine together
type Service struct {
	store        *config.Store
	db           *db.DB
	logger       hclog.Logger
	profilesRoot string

	mods      *ModManager
	profiles  *ProfileManager
	installer *Installer
}

// NewService creates a new core service instance
func NewService(cfg ServiceConfig) (*Service, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	store, err := config.Open(cfg.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	root, err := store.Config.ResolvedProfilesRoot()
	if err != nil {
		return nil, fmt.Errorf("resolving profiles root: %w", err)
	}

	database, err := db.New(filepath.Join(cfg.DataDir, "me3m.db"))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	svc := &Service{
		store:        store,
		db:           database,
		logger:       logger,
		profilesRoot: root,
	}
	svc.profiles = NewProfileManager(store, database, root)
	svc.mods = NewModManager(svc, database, logger.Named("modmanager"))
	svc.installer = NewInstaller(svc, svc.mods, database, logger.Named("installer"))
	return svc, nil
}

// Close releases resources held by the service
func (s *Service) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Config returns the loaded config.yaml
func (s *Service) Config() *config.Config { return s.store.Config }

// Store returns the settings store
func (s *Service) Store() *config.Store { return s.store }

// Mods returns the reconciliation engine
func (s *Service) Mods() *ModManager { return s.mods }

// Profiles returns the profile manager
func (s *Service) Profiles() *ProfileManager { return s.profiles }

// Installer returns the mod installer
func (s *Service) Installer() *Installer { return s.installer }

// DB returns the metadata store
func (s *Service) DB() *db.DB { return s.db }

// Logger returns the service logger
func (s *Service) Logger() hclog.Logger { return s.logger }

// ProfilesRoot is ME3's profiles directory
func (s *Service) ProfilesRoot() string { return s.profilesRoot }

// GetGame retrieves a registered game
func (s *Service) GetGame(gameID string) (*domain.Game, error) {
	return s.store.Game(gameID)
}

// ListGames returns all registered games ordered by id
func (s *Service) ListGames() []*domain.Game {
	games := make([]*domain.Game, 0, len(s.store.Games))
	for _, g := range s.store.Games {
		games = append(games, g)
	}
	sort.Slice(games, func(i, j int) bool { return games[i].ID < games[j].ID })
	return games
}

// AddGame registers a game and writes games.yaml
func (s *Service) AddGame(game *domain.Game) error {
	if game.ID == "" || game.ModsDir == "" || game.ProfileFile == "" {
		return domain.NewValidationError("a game needs an id, a mods folder and a profile file")
	}
	if err := config.SaveGames(s.store.Dir, withGame(s.store.Games, game)); err != nil {
		return err
	}
	s.store.Games[game.ID] = game
	return nil
}

// RemoveGame unregisters a game
func (s *Service) RemoveGame(gameID string) error {
	if _, err := s.store.Game(gameID); err != nil {
		return err
	}
	next := withGame(s.store.Games, nil)
	delete(next, gameID)
	if err := config.SaveGames(s.store.Dir, next); err != nil {
		return err
	}
	delete(s.store.Games, gameID)
	return nil
}

func withGame(games map[string]*domain.Game, game *domain.Game) map[string]*domain.Game {
	out := make(map[string]*domain.Game, len(games)+1)
	for id, g := range games {
		out[id] = g
	}
	if game != nil {
		out[game.ID] = game
	}
	return out
}

// Context resolves a game and its active profile for the engine
func (s *Service) Context(gameID string) (*GameContext, error) {
	game, err := s.store.Game(gameID)
	if err != nil {
		return nil, err
	}
	profile, err := s.profiles.Active(gameID)
	if err != nil {
		return nil, err
	}
	return &GameContext{
		Game:    game,
		Profile: profile,
		Layout: pathkey.Layout{
			ProfilesRoot: s.profilesRoot,
			ModsDir:      profile.ModsPath,
			ModsDirName:  game.ModsDir,
		},
	}, nil
}

// ReservedPackageIDs are the main mods folder names of every game
func (s *Service) ReservedPackageIDs() []string {
	return s.store.ReservedPackageIDs()
}

// ProfileVersion is the schema used for profile files that do not exist yet
func (s *Service) ProfileVersion() profiledoc.Version {
	v, err := profiledoc.ParseVersion(s.store.Config.ProfileVersion)
	if err != nil {
		s.logger.Warn("unknown profile_version in config, using v1", "value", s.store.Config.ProfileVersion)
		return profiledoc.V1
	}
	return v
}

// SaveToken stores an API key for a service
func (s *Service) SaveToken(service, apiKey string) error {
	return s.db.SaveToken(service, apiKey)
}

// GetToken returns the stored key for a service, or nil
func (s *Service) GetToken(service string) (*db.StoredToken, error) {
	return s.db.GetToken(service)
}

// DeleteToken removes the stored key for a service
func (s *Service) DeleteToken(service string) error {
	return s.db.DeleteToken(service)
}

// APIKey returns envVar when set, otherwise the stored token
func (s *Service) APIKey(service, envVar string) string {
	if key := os.Getenv(envVar); key != "" {
		return key
	}
	token, err := s.db.GetToken(service)
	if err != nil || token == nil {
		return ""
	}
	return token.APIKey
}

// SaveNexusLink records Nexus metadata for a local mod
func (s *Service) SaveNexusLink(link *db.NexusLink) error {
	return s.db.SaveNexusLink(link)
}

// NexusLink returns the stored Nexus metadata for a local path, or nil
func (s *Service) NexusLink(localPath string) (*db.NexusLink, error) {
	return s.db.GetNexusLink(localPath)
}
