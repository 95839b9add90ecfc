package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DonovanMods/me3-mod-manager/internal/domain"
)

func TestModsCmd_Structure(t *testing.T) {
	assert.Equal(t, "mods", modsCmd.Use)
	assert.Contains(t, modsCmd.Aliases, "mod")

	names := make(map[string]bool)
	for _, c := range modsCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"list", "enable", "disable", "add-external", "remove", "options", "config"} {
		assert.True(t, names[want], want)
	}

	assert.NotNil(t, modsListCmd.Flags().Lookup("enabled"))
	assert.NotNil(t, modsListCmd.Flags().Lookup("disabled"))
	assert.NotNil(t, modsOptionsCmd.Flags().Lookup("load-before"))
	assert.NotNil(t, modsConfigCmd.Flags().Lookup("set"))
}

func TestModsList_NoGame(t *testing.T) {
	testEnv(t)

	_, err := run(t, "mods", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no game specified")
}

func TestModsEnable_RequiresArg(t *testing.T) {
	testEnv(t)

	_, err := run(t, "mods", "enable", "--game", "elden-ring")
	assert.Error(t, err)
}

func TestModsList_ShowsScannedMods(t *testing.T) {
	testEnv(t)

	out, err := run(t, "mods", "list", "--game", "elden-ring")
	require.NoError(t, err)
	assert.Contains(t, out, "ersc")
	assert.Contains(t, out, "Better Armor")
	assert.Contains(t, out, "disabled")
}

func TestModsList_UnknownGame(t *testing.T) {
	testEnv(t)

	_, err := run(t, "mods", "list", "--game", "bogus")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGameNotFound)
}

func TestModsEnableDisable_WritesProfile(t *testing.T) {
	root := testEnv(t)
	profile := filepath.Join(root, "eldenring-default.me3")

	out, err := run(t, "mods", "enable", "ersc", "--game", "elden-ring")
	require.NoError(t, err)
	assert.Contains(t, out, "✓")

	data, err := os.ReadFile(profile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "ersc.dll")

	out, err = run(t, "mods", "list", "--enabled", "--game", "elden-ring")
	require.NoError(t, err)
	assert.Contains(t, out, "ersc")
	assert.NotContains(t, out, "Better Armor")

	_, err = run(t, "mods", "disable", "ersc", "--game", "elden-ring")
	require.NoError(t, err)

	data, err = os.ReadFile(profile)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "ersc.dll")
}

func TestModsList_JSON(t *testing.T) {
	testEnv(t)

	out, err := run(t, "mods", "list", "--json", "--game", "elden-ring")
	require.NoError(t, err)

	var mods []modJSON
	require.NoError(t, json.Unmarshal([]byte(out), &mods))
	require.Len(t, mods, 2)

	byName := make(map[string]modJSON)
	for _, m := range mods {
		byName[m.Name] = m
	}
	assert.Equal(t, "dll", byName["ersc"].Kind)
	assert.Equal(t, "package", byName["Better Armor"].Kind)
	assert.True(t, byName["Better Armor"].HasRegulation)
	assert.Equal(t, "disabled", byName["ersc"].Status)
}

func TestModsList_EnabledAndDisabledConflict(t *testing.T) {
	testEnv(t)

	_, err := run(t, "mods", "list", "--enabled", "--disabled", "--game", "elden-ring")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be combined")
}

func TestModsOptions_RejectsDLLFlagsOnPackage(t *testing.T) {
	testEnv(t)

	_, err := run(t, "mods", "enable", "Better Armor", "--game", "elden-ring")
	require.NoError(t, err)

	_, err = run(t, "mods", "options", "Better Armor", "--load-early", "--game", "elden-ring")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only apply to DLLs")
}

func TestModsOptions_SetsLoadOrder(t *testing.T) {
	root := testEnv(t)

	_, err := run(t, "mods", "options", "ersc", "--enable", "--load-early", "--load-before", "Better Armor?", "--game", "elden-ring")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, "eldenring-default.me3"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "load_early = true")
	assert.Contains(t, string(data), "Better Armor")
}

func TestParseDeps(t *testing.T) {
	deps := parseDeps([]string{"ersc", " Better Armor? ", "", "?"})

	assert.Equal(t, []domain.Dependency{
		{ID: "ersc"},
		{ID: "Better Armor", Optional: true},
	}, deps)
	assert.Nil(t, parseDeps(nil))
}

func TestOptionsFromFlags(t *testing.T) {
	t.Cleanup(func() {
		optOptional, optLoadEarly = false, false
		optInitializer, optFinalizer, optDelayMS = "", "", 0
		optLoadBefore, optLoadAfter = nil, nil
	})

	optOptional = true
	optDelayMS = 250
	optLoadAfter = []string{"ersc?"}

	opts := optionsFromFlags()
	assert.True(t, opts.Optional)
	require.NotNil(t, opts.Initializer)
	require.NotNil(t, opts.Initializer.Delay)
	assert.Equal(t, int64(250), opts.Initializer.Delay.MS)
	assert.Nil(t, opts.LoadBefore)
	assert.Equal(t, []domain.Dependency{{ID: "ersc", Optional: true}}, opts.LoadAfter)

	optDelayMS = 0
	optInitializer = "init"
	opts = optionsFromFlags()
	require.NotNil(t, opts.Initializer)
	assert.Equal(t, "init", opts.Initializer.Function)
}

func TestStatusLabel(t *testing.T) {
	noColor = true
	assert.Equal(t, "enabled", statusLabel(domain.StatusEnabled))
	assert.Equal(t, "missing", statusLabel(domain.StatusMissing))
	assert.Equal(t, "disabled", statusLabel(domain.StatusDisabled))
}
