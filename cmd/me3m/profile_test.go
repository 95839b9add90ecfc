package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/DonovanMods/me3-mod-manager/internal/domain"
	"github.com/DonovanMods/me3-mod-manager/internal/profiledoc"
)

func TestProfileCmd_Structure(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range profileCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"list", "create", "switch", "rename", "delete", "convert", "show", "check", "export"} {
		assert.True(t, names[want], want)
	}
	assert.NotNil(t, profileExportCmd.Flags().ShorthandLookup("f"))
	assert.NotNil(t, profileExportCmd.Flags().ShorthandLookup("o"))
}

func TestProfileList_NoGame(t *testing.T) {
	testEnv(t)

	_, err := run(t, "profile", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no game specified")
}

func TestProfileRename_RequiresTwoArgs(t *testing.T) {
	testEnv(t)

	_, err := run(t, "profile", "rename", "only-one", "--game", "elden-ring")
	assert.Error(t, err)
}

func TestProfileLifecycle(t *testing.T) {
	testEnv(t)

	out, err := run(t, "profile", "create", "Coop", "--switch", "--game", "elden-ring")
	require.NoError(t, err)
	assert.Contains(t, out, "Created profile Coop")
	assert.Contains(t, out, "Switched to Coop")

	out, err = run(t, "profile", "list", "--json", "--game", "elden-ring")
	require.NoError(t, err)
	var profiles []struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Active bool   `json:"active"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &profiles))
	require.Len(t, profiles, 2)
	assert.Equal(t, domain.DefaultProfileID, profiles[0].ID)
	assert.False(t, profiles[0].Active)
	assert.Equal(t, "Coop", profiles[1].Name)
	assert.True(t, profiles[1].Active)

	_, err = run(t, "profile", "rename", "Coop", "Seamless", "--game", "elden-ring")
	require.NoError(t, err)

	_, err = run(t, "profile", "switch", "default", "--game", "elden-ring")
	require.NoError(t, err)

	out, err = run(t, "profile", "delete", "Seamless", "--game", "elden-ring")
	require.NoError(t, err)
	assert.Contains(t, out, "were kept")

	_, err = run(t, "profile", "switch", "Seamless", "--game", "elden-ring")
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestProfileShow_RendersRequestedVersion(t *testing.T) {
	testEnv(t)
	_, err := run(t, "mods", "enable", "ersc", "--game", "elden-ring")
	require.NoError(t, err)

	out, err := run(t, "profile", "show", "--version", "v2", "--game", "elden-ring")
	require.NoError(t, err)
	assert.Contains(t, out, "[mods")
	assert.Contains(t, out, "ersc.dll")

	_, err = run(t, "profile", "show", "--version", "v9", "--game", "elden-ring")
	assert.Error(t, err)
}

func TestProfileConvert_RewritesFile(t *testing.T) {
	root := testEnv(t)
	_, err := run(t, "mods", "enable", "Better Armor", "--game", "elden-ring")
	require.NoError(t, err)

	_, err = run(t, "profile", "convert", "v2", "--game", "elden-ring")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "eldenring-default.me3"))
	require.NoError(t, err)
	doc, err := profiledoc.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, profiledoc.V2, doc.Version)
	require.Len(t, doc.Packages, 1)
}

func TestProfileCheck_NoProblems(t *testing.T) {
	testEnv(t)
	_, err := run(t, "mods", "enable", "ersc", "--game", "elden-ring")
	require.NoError(t, err)

	out, err := run(t, "profile", "check", "--game", "elden-ring")
	require.NoError(t, err)
	assert.Contains(t, out, "Load order:")
	assert.Contains(t, out, "No problems found")
}

func TestProfileExport_YAMLToFile(t *testing.T) {
	testEnv(t)
	_, err := run(t, "mods", "enable", "ersc", "--game", "elden-ring")
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "profile.yaml")
	_, err = run(t, "profile", "export", "-o", dest, "--game", "elden-ring")
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	var exp exportProfile
	require.NoError(t, yaml.Unmarshal(data, &exp))
	assert.Equal(t, "elden-ring", exp.Game)
	assert.Equal(t, "Default", exp.Profile)
	require.Len(t, exp.Natives, 1)
	assert.Contains(t, exp.Natives[0].Path, "ersc.dll")
}

func TestProfileExport_RejectsUnknownFormat(t *testing.T) {
	testEnv(t)

	_, err := run(t, "profile", "export", "-f", "xml", "--game", "elden-ring")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestToExport(t *testing.T) {
	doc := profiledoc.New(profiledoc.V1)
	doc.Supports = []profiledoc.Support{{Game: "eldenring"}}
	doc.Natives = []profiledoc.NativeEntry{{
		Path:        "eldenring-mods/ersc.dll",
		LoadEarly:   true,
		Initializer: &domain.Initializer{Delay: &domain.Delay{MS: 500}},
		LoadAfter:   []domain.Dependency{{ID: "armor", Optional: true}},
	}}
	doc.Packages = []profiledoc.PackageEntry{{ID: "armor", Path: "eldenring-mods/armor"}}

	exp := toExport("elden-ring", "Default", doc)

	assert.Equal(t, "v1", exp.Version)
	assert.Equal(t, []string{"eldenring"}, exp.Supports)
	require.Len(t, exp.Natives, 1)
	assert.Equal(t, int64(500), exp.Natives[0].DelayMS)
	assert.Empty(t, exp.Natives[0].Initializer)
	assert.Equal(t, []exportDependency{{ID: "armor", Optional: true}}, exp.Natives[0].LoadAfter)
	require.Len(t, exp.Packages, 1)
	assert.Equal(t, "armor", exp.Packages[0].ID)
	assert.Empty(t, exp.Packages[0].LoadBefore)
}
