package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DonovanMods/me3-mod-manager/internal/domain"
)

func TestGameCmd_Structure(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range gameCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"list", "add", "remove", "set-default"} {
		assert.True(t, names[want], want)
	}
	assert.NotNil(t, gameAddCmd.Flags().Lookup("nexus"))
}

func TestGameList_BuiltInGames(t *testing.T) {
	testEnv(t)

	out, err := run(t, "game", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "elden-ring")
	assert.Contains(t, out, "nightreign")
}

func TestGameAdd_RequiresFlags(t *testing.T) {
	testEnv(t)

	_, err := run(t, "game", "add", "er-coop")
	assert.Error(t, err)
}

func TestGameAddRemove(t *testing.T) {
	testEnv(t)

	out, err := run(t, "game", "add", "er-coop",
		"--name", "Elden Ring Coop",
		"--mods-dir", "coop-mods",
		"--profile", "coop.me3",
		"--nexus", "eldenring")
	require.NoError(t, err)
	assert.Contains(t, out, "Added Elden Ring Coop")

	_, err = run(t, "game", "set-default", "er-coop")
	require.NoError(t, err)

	out, err = run(t, "game", "list", "--json")
	require.NoError(t, err)
	var games []struct {
		ID      string `json:"id"`
		Default bool   `json:"default"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &games))
	found := false
	for _, g := range games {
		if g.ID == "er-coop" {
			found = true
			assert.True(t, g.Default)
		}
	}
	assert.True(t, found)

	jsonOutput = false
	_, err = run(t, "game", "remove", "er-coop")
	require.NoError(t, err)

	_, err = run(t, "game", "set-default", "er-coop")
	assert.ErrorIs(t, err, domain.ErrGameNotFound)

	gameID = ""
	err = requireGame(rootCmd)
	assert.Error(t, err, "removing the default game clears it")
}
