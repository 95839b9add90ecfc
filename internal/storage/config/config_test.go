package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/DonovanMods/me3-mod-manager/internal/domain"
	"github.com/DonovanMods/me3-mod-manager/internal/storage/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "vim", cfg.Keybindings)
	assert.Equal(t, "v1", cfg.ProfileVersion)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Empty(t, cfg.DefaultGame)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
profiles_root: /srv/me3/profiles
default_game: nightreign
keybindings: standard
profile_version: v2
log_level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644))

	cfg, err := config.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "/srv/me3/profiles", cfg.ProfilesRoot)
	assert.Equal(t, "nightreign", cfg.DefaultGame)
	assert.Equal(t, "standard", cfg.Keybindings)
	assert.Equal(t, "v2", cfg.ProfileVersion)
	assert.Equal(t, "debug", cfg.LogLevel)

	root, err := cfg.ResolvedProfilesRoot()
	require.NoError(t, err)
	assert.Equal(t, "/srv/me3/profiles", root)
}

func TestLoad_Malformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("keybindings: [unclosed"), 0644))

	_, err := config.Load(dir)
	assert.ErrorContains(t, err, "parsing config")
}

func TestSave_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")

	cfg := &config.Config{DefaultGame: "sekiro", Keybindings: "vim", ProfileVersion: "v1", LogLevel: "info"}
	require.NoError(t, cfg.Save(dir))

	loaded, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadGames_DefaultsWhenMissing(t *testing.T) {
	games, err := config.LoadGames(t.TempDir())
	require.NoError(t, err)

	require.Contains(t, games, "elden-ring")
	assert.Equal(t, "eldenring-mods", games["elden-ring"].ModsDir)
	assert.Equal(t, "eldenring-default.me3", games["elden-ring"].ProfileFile)
	assert.Len(t, games, len(domain.DefaultGames()))
}

func TestLoadGames_FromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
games:
  elden-ring:
    name: ELDEN RING
    mods_dir: eldenring-mods
    profile: eldenring-default.me3
    nexus_domain: eldenring
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "games.yaml"), []byte(content), 0644))

	games, err := config.LoadGames(dir)
	require.NoError(t, err)
	require.Len(t, games, 1)

	game := games["elden-ring"]
	assert.Equal(t, "elden-ring", game.ID)
	assert.Equal(t, "ELDEN RING", game.Name)
	assert.Equal(t, "eldenring", game.NexusDomain)
}

func TestLoadGames_RequiresModsDirAndProfile(t *testing.T) {
	dir := t.TempDir()
	content := `
games:
  broken:
    name: Broken
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "games.yaml"), []byte(content), 0644))

	_, err := config.LoadGames(dir)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestSaveGame_AndDelete(t *testing.T) {
	dir := t.TempDir()

	game := &domain.Game{
		ID:          "test-game",
		Name:        "Test Game",
		ModsDir:     "test-mods",
		ProfileFile: "test-default.me3",
	}
	require.NoError(t, config.SaveGame(dir, game))

	games, err := config.LoadGames(dir)
	require.NoError(t, err)
	require.Contains(t, games, "test-game")
	// Saving over the built-in table keeps the built-in games.
	assert.Contains(t, games, "elden-ring")

	require.NoError(t, config.DeleteGame(dir, "test-game"))
	games, err = config.LoadGames(dir)
	require.NoError(t, err)
	assert.NotContains(t, games, "test-game")

	assert.ErrorIs(t, config.DeleteGame(dir, "test-game"), domain.ErrGameNotFound)
}

func TestProfiles_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	empty, err := config.LoadProfiles(dir)
	require.NoError(t, err)
	assert.Empty(t, empty)

	want := map[string]config.GameProfilesConfig{
		"elden-ring": {
			Active: "3f6c",
			Profiles: []config.ProfileConfig{
				{ID: "3f6c", Name: "Seamless", ProfilePath: "/p/seamless.me3", ModsPath: "/p/seamless-mods"},
			},
		},
	}
	require.NoError(t, config.SaveProfiles(dir, want))

	got, err := config.LoadProfiles(dir)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStore_OpenAndUpdateProfiles(t *testing.T) {
	dir := t.TempDir()

	store, err := config.Open(dir)
	require.NoError(t, err)

	game, err := store.Game("sekiro")
	require.NoError(t, err)
	assert.Equal(t, "sekiro-mods", game.ModsDir)

	_, err = store.Game("bloodborne")
	assert.ErrorIs(t, err, domain.ErrGameNotFound)

	err = store.UpdateGameProfiles("sekiro", func(gp *config.GameProfilesConfig) error {
		gp.Profiles = append(gp.Profiles, config.ProfileConfig{ID: "a1", Name: "Randomizer", ProfilePath: "/r.me3", ModsPath: "/r"})
		gp.Active = "a1"
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, "a1", store.GameProfiles("sekiro").Active)

	reopened, err := config.Open(dir)
	require.NoError(t, err)
	require.Len(t, reopened.GameProfiles("sekiro").Profiles, 1)
	assert.Equal(t, "Randomizer", reopened.GameProfiles("sekiro").Profiles[0].Name)
}

func TestStore_UpdateGameProfilesErrorLeavesStateUntouched(t *testing.T) {
	store, err := config.Open(t.TempDir())
	require.NoError(t, err)

	err = store.UpdateGameProfiles("sekiro", func(gp *config.GameProfilesConfig) error {
		gp.Active = "nope"
		return domain.NewValidationError("rejected")
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, store.GameProfiles("sekiro").Active)
}

func TestStore_ReservedPackageIDs(t *testing.T) {
	store, err := config.Open(t.TempDir())
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		"eldenring-mods", "nightreign-mods", "sekiro-mods", "darksouls3-mods", "armoredcore6-mods",
	}, store.ReservedPackageIDs())
}
