package db_test

import (
	"path/filepath"
	"testing"

	"github.com/DonovanMods/me3-mod-manager/internal/storage/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, database.Close())
	})
	return database
}

func TestNew_CreatesTables(t *testing.T) {
	database := newTestDB(t)

	for _, table := range []string{"auth_tokens", "external_mods", "nexus_links"} {
		var count int
		err := database.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, table)
	}

	var version int
	require.NoError(t, database.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 2, version)
}

func TestNew_ReopenSkipsMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "me3m.db")

	first, err := db.New(path)
	require.NoError(t, err)
	require.NoError(t, first.TrackExternalMod("elden-ring", "default", "/mods/a.dll"))
	require.NoError(t, first.Close())

	second, err := db.New(path)
	require.NoError(t, err)
	defer second.Close()

	paths, err := second.ExternalMods("elden-ring", "default")
	require.NoError(t, err)
	assert.Equal(t, []string{"/mods/a.dll"}, paths)
}

func TestTokens(t *testing.T) {
	database := newTestDB(t)

	token, err := database.GetToken("nexusmods")
	require.NoError(t, err)
	assert.Nil(t, token)

	require.NoError(t, database.SaveToken("nexusmods", "first-key"))
	require.NoError(t, database.SaveToken("nexusmods", "second-key"))

	token, err = database.GetToken("nexusmods")
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, "second-key", token.APIKey)
	assert.Equal(t, "****-key", token.Masked())

	require.NoError(t, database.DeleteToken("nexusmods"))
	token, err = database.GetToken("nexusmods")
	require.NoError(t, err)
	assert.Nil(t, token)
}

func TestExternalMods(t *testing.T) {
	database := newTestDB(t)

	require.NoError(t, database.TrackExternalMod("elden-ring", "default", "/ext/b.dll"))
	require.NoError(t, database.TrackExternalMod("elden-ring", "default", "/ext/a"))
	require.NoError(t, database.TrackExternalMod("elden-ring", "default", "/ext/b.dll"))
	require.NoError(t, database.TrackExternalMod("elden-ring", "other", "/ext/c.dll"))
	require.NoError(t, database.TrackExternalMod("sekiro", "default", "/ext/d.dll"))

	paths, err := database.ExternalMods("elden-ring", "default")
	require.NoError(t, err)
	assert.Equal(t, []string{"/ext/b.dll", "/ext/a"}, paths)

	removed, err := database.UntrackExternalMod("elden-ring", "default", "/ext/b.dll")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = database.UntrackExternalMod("elden-ring", "default", "/ext/b.dll")
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, database.DeleteProfileExternalMods("elden-ring", "other"))
	paths, err = database.ExternalMods("elden-ring", "other")
	require.NoError(t, err)
	assert.Empty(t, paths)

	paths, err = database.ExternalMods("sekiro", "default")
	require.NoError(t, err)
	assert.Equal(t, []string{"/ext/d.dll"}, paths)
}

func TestNexusLinks(t *testing.T) {
	database := newTestDB(t)

	link, err := database.GetNexusLink("/mods/er/seamless")
	require.NoError(t, err)
	assert.Nil(t, link)

	require.NoError(t, database.SaveNexusLink(&db.NexusLink{
		LocalPath:  "eldenring-mods/seamless",
		GameDomain: "eldenring",
		ModID:      510,
		Name:       "Seamless Co-op",
		Version:    "1.8.0",
	}))
	require.NoError(t, database.SaveNexusLink(&db.NexusLink{
		LocalPath:  "eldenring-mods/seamless",
		GameDomain: "eldenring",
		ModID:      510,
		Name:       "Seamless Co-op",
		Version:    "1.9.0",
		Author:     "LukeYui",
	}))

	link, err = database.GetNexusLink("eldenring-mods/seamless")
	require.NoError(t, err)
	require.NotNil(t, link)
	assert.Equal(t, "1.9.0", link.Version)
	assert.Equal(t, "LukeYui", link.Author)
	assert.Equal(t, "https://www.nexusmods.com/eldenring/mods/510", link.URL())

	byMod, err := database.GetNexusLinkByMod("eldenring", 510)
	require.NoError(t, err)
	require.NotNil(t, byMod)
	assert.Equal(t, "eldenring-mods/seamless", byMod.LocalPath)

	missing, err := database.GetNexusLinkByMod("eldenring", 1)
	require.NoError(t, err)
	assert.Nil(t, missing)

	links, err := database.ListNexusLinks("eldenring")
	require.NoError(t, err)
	assert.Len(t, links, 1)

	require.NoError(t, database.DeleteNexusLink("eldenring-mods/seamless"))
	links, err = database.ListNexusLinks("eldenring")
	require.NoError(t, err)
	assert.Empty(t, links)
}
