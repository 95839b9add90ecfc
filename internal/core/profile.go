package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/DonovanMods/me3-mod-manager/internal/domain"
	"github.com/DonovanMods/me3-mod-manager/internal/profiledoc"
	"github.com/DonovanMods/me3-mod-manager/internal/storage/config"
	"github.com/DonovanMods/me3-mod-manager/internal/storage/db"
)

// ProfileManager handles profile CRUD operations and switching
type ProfileManager struct {
	store        *config.Store
	db           *db.DB
	profilesRoot string
}

// NewProfileManager creates a new profile manager
func NewProfileManager(store *config.Store, database *db.DB, profilesRoot string) *ProfileManager {
	return &ProfileManager{
		store:        store,
		db:           database,
		profilesRoot: profilesRoot,
	}
}

// Default returns the game's implicit profile under the profiles root
func (pm *ProfileManager) Default(game *domain.Game) *domain.Profile {
	return &domain.Profile{
		ID:          domain.DefaultProfileID,
		Name:        "Default",
		GameID:      game.ID,
		ProfilePath: filepath.Join(pm.profilesRoot, game.ProfileFile),
		ModsPath:    filepath.Join(pm.profilesRoot, game.ModsDir),
	}
}

func toProfile(gameID string, pc config.ProfileConfig) *domain.Profile {
	return &domain.Profile{
		ID:          pc.ID,
		Name:        pc.Name,
		GameID:      gameID,
		ProfilePath: pc.ProfilePath,
		ModsPath:    pc.ModsPath,
	}
}

// List returns the default profile followed by the custom ones
func (pm *ProfileManager) List(gameID string) ([]*domain.Profile, error) {
	game, err := pm.store.Game(gameID)
	if err != nil {
		return nil, err
	}

	gp := pm.store.GameProfiles(gameID)
	profiles := make([]*domain.Profile, 0, len(gp.Profiles)+1)
	profiles = append(profiles, pm.Default(game))
	for _, pc := range gp.Profiles {
		profiles = append(profiles, toProfile(gameID, pc))
	}
	return profiles, nil
}

// Get finds a profile by id or, ignoring case, by name
func (pm *ProfileManager) Get(gameID, ref string) (*domain.Profile, error) {
	profiles, err := pm.List(gameID)
	if err != nil {
		return nil, err
	}
	for _, p := range profiles {
		if p.ID == ref {
			return p, nil
		}
	}
	for _, p := range profiles {
		if strings.EqualFold(p.Name, ref) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrProfileNotFound, ref)
}

// Active returns the profile the engine works on. An unknown active id falls back to default.
func (pm *ProfileManager) Active(gameID string) (*domain.Profile, error) {
	game, err := pm.store.Game(gameID)
	if err != nil {
		return nil, err
	}

	gp := pm.store.GameProfiles(gameID)
	for _, pc := range gp.Profiles {
		if pc.ID == gp.Active {
			return toProfile(gameID, pc), nil
		}
	}
	return pm.Default(game), nil
}

// Create adds a custom profile. Its .me3 file lives in the mods dir and is
// seeded with an empty document when it does not exist yet.
func (pm *ProfileManager) Create(gameID, name, modsPath string, version profiledoc.Version) (*domain.Profile, error) {
	game, err := pm.store.Game(gameID)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewValidationError("profile name cannot be empty")
	}
	if _, err := pm.Get(gameID, name); err == nil {
		return nil, domain.NewValidationError("profile %q already exists", name)
	}
	safe := safeName(name)
	if safe == "" {
		return nil, domain.NewValidationError("profile name %q has no usable characters", name)
	}

	if modsPath == "" {
		modsPath = filepath.Join(pm.profilesRoot, safe+"-mods")
	} else if modsPath, err = config.ExpandHome(modsPath); err != nil {
		return nil, err
	}
	if modsPath, err = filepath.Abs(modsPath); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPathResolution, err)
	}
	if filepath.Clean(modsPath) == filepath.Clean(pm.Default(game).ModsPath) {
		return nil, domain.NewValidationError("%s belongs to the default profile", modsPath)
	}

	if err := os.MkdirAll(modsPath, 0755); err != nil {
		return nil, &domain.IOError{Op: "create mods dir", Path: modsPath, Err: err}
	}
	profilePath := filepath.Join(modsPath, safe+".me3")
	if err := seedProfile(game, profilePath, version); err != nil {
		return nil, err
	}

	pc := config.ProfileConfig{ID: uuid.NewString(), Name: name, ProfilePath: profilePath, ModsPath: modsPath}
	err = pm.store.UpdateGameProfiles(gameID, func(gp *config.GameProfilesConfig) error {
		gp.Profiles = append(gp.Profiles, pc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toProfile(gameID, pc), nil
}

func seedProfile(game *domain.Game, path string, version profiledoc.Version) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return &domain.IOError{Op: "stat profile", Path: path, Err: err}
	}

	doc := profiledoc.New(version)
	doc.Supports = []profiledoc.Support{{Game: game.LaunchSlug()}}
	if doc.Version == profiledoc.V2 {
		doc.Launch = game.LaunchSlug()
	}
	data, err := profiledoc.Serialize(doc, "")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &domain.IOError{Op: "write profile", Path: path, Err: err}
	}
	return nil
}

// Switch makes a profile the active one
func (pm *ProfileManager) Switch(gameID, ref string) (*domain.Profile, error) {
	profile, err := pm.Get(gameID, ref)
	if err != nil {
		return nil, err
	}

	err = pm.store.UpdateGameProfiles(gameID, func(gp *config.GameProfilesConfig) error {
		gp.Active = profile.ID
		if profile.IsDefault() {
			gp.Active = ""
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// Rename changes a custom profile's display name. Files keep their names.
func (pm *ProfileManager) Rename(gameID, ref, newName string) error {
	profile, err := pm.Get(gameID, ref)
	if err != nil {
		return err
	}
	if profile.IsDefault() {
		return domain.NewValidationError("the default profile cannot be renamed")
	}
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return domain.NewValidationError("profile name cannot be empty")
	}
	if other, err := pm.Get(gameID, newName); err == nil && other.ID != profile.ID {
		return domain.NewValidationError("profile %q already exists", newName)
	}

	return pm.store.UpdateGameProfiles(gameID, func(gp *config.GameProfilesConfig) error {
		for i := range gp.Profiles {
			if gp.Profiles[i].ID == profile.ID {
				gp.Profiles[i].Name = newName
			}
		}
		return nil
	})
}

// Delete forgets a custom profile and its tracked external mods. Files on disk are kept.
// Deleting the active profile makes default active again.
func (pm *ProfileManager) Delete(gameID, ref string) error {
	profile, err := pm.Get(gameID, ref)
	if err != nil {
		return err
	}
	if profile.IsDefault() {
		return domain.NewValidationError("the default profile cannot be deleted")
	}

	err = pm.store.UpdateGameProfiles(gameID, func(gp *config.GameProfilesConfig) error {
		kept := gp.Profiles[:0]
		for _, pc := range gp.Profiles {
			if pc.ID != profile.ID {
				kept = append(kept, pc)
			}
		}
		gp.Profiles = kept
		if gp.Active == profile.ID {
			gp.Active = ""
		}
		return nil
	})
	if err != nil {
		return err
	}
	return pm.db.DeleteProfileExternalMods(gameID, profile.ID)
}

// safeName turns a display name into a file name: lowercase letters, digits and dashes
func safeName(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
