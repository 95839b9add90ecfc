package views_test

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DonovanMods/me3-mod-manager/internal/domain"
	"github.com/DonovanMods/me3-mod-manager/internal/tui"
	"github.com/DonovanMods/me3-mod-manager/internal/tui/views"
)

func testProfiles() (*domain.Game, []*domain.Profile) {
	game := &domain.Game{ID: "elden-ring", Name: "Elden Ring"}
	return game, []*domain.Profile{
		{ID: domain.DefaultProfileID, Name: "Default", GameID: "elden-ring", ProfilePath: "/p/eldenring-default.me3", ModsPath: "/p/eldenring-mods"},
		{ID: "b7c4", Name: "Co-op Run", GameID: "elden-ring", ProfilePath: "/p/co-op-run.me3", ModsPath: "/p/co-op-run-mods"},
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestProfiles_InitialState(t *testing.T) {
	game, profiles := testProfiles()

	model := views.NewProfiles(tui.NewKeyMap("vim"), game, profiles, domain.DefaultProfileID)

	assert.Equal(t, 0, model.Selected())
	assert.Equal(t, 2, model.ProfileCount())
	view := model.View()
	assert.Contains(t, view, "[active]")
	assert.Contains(t, view, "[default]")
}

func TestProfiles_CursorStartsOnActive(t *testing.T) {
	game, profiles := testProfiles()

	model := views.NewProfiles(tui.NewKeyMap("vim"), game, profiles, "b7c4")

	assert.Equal(t, 1, model.Selected())
}

func TestProfiles_SwitchProfile(t *testing.T) {
	game, profiles := testProfiles()
	model := views.NewProfiles(tui.NewKeyMap("vim"), game, profiles, domain.DefaultProfileID)

	newModel, _ := model.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd := newModel.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	switchMsg, ok := cmd().(views.SwitchProfileMsg)
	require.True(t, ok)
	assert.Equal(t, "b7c4", switchMsg.Profile.ID)
}

func TestProfiles_SwitchToActiveIsNoop(t *testing.T) {
	game, profiles := testProfiles()
	model := views.NewProfiles(tui.NewKeyMap("vim"), game, profiles, domain.DefaultProfileID)

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestProfiles_CreateMode(t *testing.T) {
	game, profiles := testProfiles()
	model := views.NewProfiles(tui.NewKeyMap("vim"), game, profiles, domain.DefaultProfileID)

	newModel, _ := model.Update(runes("n"))
	updated := newModel.(views.Profiles)
	require.True(t, updated.IsCreating())
	assert.Contains(t, updated.View(), "New profile name")

	newModel, _ = updated.Update(runes("Boss Rush"))
	newModel, cmd := newModel.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.False(t, newModel.(views.Profiles).IsCreating())

	createMsg, ok := cmd().(views.CreateProfileMsg)
	require.True(t, ok)
	assert.Equal(t, "Boss Rush", createMsg.Name)
}

func TestProfiles_CreateModeCancel(t *testing.T) {
	game, profiles := testProfiles()
	model := views.NewProfiles(tui.NewKeyMap("vim"), game, profiles, domain.DefaultProfileID)

	newModel, _ := model.Update(runes("n"))
	newModel, cmd := newModel.Update(tea.KeyMsg{Type: tea.KeyEsc})

	assert.Nil(t, cmd)
	assert.False(t, newModel.(views.Profiles).IsCreating())
}

func TestProfiles_EmptyNameIgnored(t *testing.T) {
	game, profiles := testProfiles()
	model := views.NewProfiles(tui.NewKeyMap("vim"), game, profiles, domain.DefaultProfileID)

	newModel, _ := model.Update(runes("n"))
	newModel, cmd := newModel.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.True(t, newModel.(views.Profiles).IsCreating())
}

func TestProfiles_Delete(t *testing.T) {
	game, profiles := testProfiles()

	t.Run("custom profile", func(t *testing.T) {
		model := views.NewProfiles(tui.NewKeyMap("vim"), game, profiles, domain.DefaultProfileID)
		newModel, _ := model.Update(tea.KeyMsg{Type: tea.KeyDown})
		_, cmd := newModel.Update(runes("d"))
		require.NotNil(t, cmd)

		deleteMsg, ok := cmd().(views.DeleteProfileMsg)
		require.True(t, ok)
		assert.Equal(t, "b7c4", deleteMsg.Profile.ID)
	})

	t.Run("default profile", func(t *testing.T) {
		model := views.NewProfiles(tui.NewKeyMap("vim"), game, profiles, "b7c4")
		newModel, _ := model.Update(tea.KeyMsg{Type: tea.KeyHome})
		_, cmd := newModel.Update(runes("d"))
		assert.Nil(t, cmd)
	})

	t.Run("active profile", func(t *testing.T) {
		model := views.NewProfiles(tui.NewKeyMap("vim"), game, profiles, "b7c4")
		_, cmd := model.Update(runes("d"))
		assert.Nil(t, cmd)
	})
}

func TestProfiles_EmptyState(t *testing.T) {
	model := views.NewProfiles(tui.NewKeyMap("vim"), nil, nil, "")

	view := model.View()
	assert.Contains(t, view, "No game selected")
	assert.Contains(t, view, "No profiles configured")
}
