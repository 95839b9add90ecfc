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

func testMods() map[string]domain.ModInfo {
	mods := []domain.ModInfo{
		{
			ModArtifact: domain.ModArtifact{Path: "/mods/ersc.dll", Kind: domain.KindDLL, Name: "ersc"},
			Key:         "eldenring-mods/ersc.dll",
			Status:      domain.StatusEnabled,
		},
		{
			ModArtifact: domain.ModArtifact{Path: "/mods/Better Armor", Kind: domain.KindPackage, Name: "Better Armor", HasRegulation: true},
			Key:         "eldenring-mods/Better Armor",
			Status:      domain.StatusDisabled,
		},
		{
			ModArtifact: domain.ModArtifact{Path: "/elsewhere/gone.dll", Kind: domain.KindDLL, Name: "gone", IsExternal: true},
			Key:         "/elsewhere/gone.dll",
			Status:      domain.StatusMissing,
		},
	}
	out := make(map[string]domain.ModInfo, len(mods))
	for _, m := range mods {
		out[m.Path] = m
	}
	return out
}

func newModList() views.ModList {
	game := &domain.Game{ID: "elden-ring", Name: "Elden Ring"}
	profile := &domain.Profile{ID: domain.DefaultProfileID, Name: "Default"}
	return views.NewModList(tui.NewKeyMap("vim"), game, profile, testMods())
}

func TestModList_SortedByKindThenName(t *testing.T) {
	model := newModList()

	require.Equal(t, 3, model.VisibleCount())
	assert.Equal(t, "ersc", model.SelectedMod().Name)

	newModel, _ := model.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, "gone", newModel.(views.ModList).SelectedMod().Name)

	newModel, _ = newModel.Update(tea.KeyMsg{Type: tea.KeyEnd})
	assert.Equal(t, "Better Armor", newModel.(views.ModList).SelectedMod().Name)
}

func TestModList_View(t *testing.T) {
	view := newModList().View()

	assert.Contains(t, view, "Game: Elden Ring")
	assert.Contains(t, view, "1 of 3 enabled")
	assert.Contains(t, view, "[✓]")
	assert.Contains(t, view, "[!]")
	assert.Contains(t, view, "eldenring-mods/ersc.dll")
}

func TestModList_Toggle(t *testing.T) {
	_, cmd := newModList().Update(tea.KeyMsg{Type: tea.KeySpace})
	require.NotNil(t, cmd)

	msg, ok := cmd().(views.ToggleModMsg)
	require.True(t, ok)
	assert.Equal(t, "/mods/ersc.dll", msg.Mod.Path)
}

func TestModList_Regulation(t *testing.T) {
	model := newModList()

	_, cmd := model.Update(runes("r"))
	assert.Nil(t, cmd, "a dll has no regulation")

	newModel, _ := model.Update(tea.KeyMsg{Type: tea.KeyEnd})
	_, cmd = newModel.Update(runes("r"))
	require.NotNil(t, cmd)

	msg, ok := cmd().(views.ActivateRegulationMsg)
	require.True(t, ok)
	assert.Equal(t, "Better Armor", msg.Mod.Name)
}

func TestModList_Reload(t *testing.T) {
	_, cmd := newModList().Update(runes("R"))
	require.NotNil(t, cmd)

	_, ok := cmd().(views.ReloadMsg)
	assert.True(t, ok)
}

func TestModList_Filter(t *testing.T) {
	model := newModList()

	newModel, _ := model.Update(runes("/"))
	require.True(t, newModel.(views.ModList).Filtering())

	newModel, _ = newModel.Update(runes("armor"))
	filtered := newModel.(views.ModList)
	require.Equal(t, 1, filtered.VisibleCount())
	assert.Equal(t, "Better Armor", filtered.SelectedMod().Name)

	t.Run("enter keeps the filter", func(t *testing.T) {
		kept, _ := filtered.Update(tea.KeyMsg{Type: tea.KeyEnter})
		assert.False(t, kept.(views.ModList).Filtering())
		assert.Equal(t, 1, kept.(views.ModList).VisibleCount())
	})

	t.Run("esc clears the filter", func(t *testing.T) {
		cleared, _ := filtered.Update(tea.KeyMsg{Type: tea.KeyEsc})
		assert.False(t, cleared.(views.ModList).Filtering())
		assert.Equal(t, 3, cleared.(views.ModList).VisibleCount())
	})

	t.Run("no match", func(t *testing.T) {
		none, _ := filtered.Update(runes("zzz"))
		assert.Equal(t, 0, none.(views.ModList).VisibleCount())
		assert.Nil(t, none.(views.ModList).SelectedMod())
		assert.Contains(t, none.View(), "No mods match")
	})
}

func TestModList_WithModsKeepsSelection(t *testing.T) {
	model := newModList()
	newModel, _ := model.Update(tea.KeyMsg{Type: tea.KeyEnd})

	mods := testMods()
	armor := mods["/mods/Better Armor"]
	armor.Status = domain.StatusEnabled
	mods[armor.Path] = armor

	reloaded := newModel.(views.ModList).WithMods(&domain.Profile{Name: "Default"}, mods)

	assert.Equal(t, 2, reloaded.Selected())
	assert.True(t, reloaded.SelectedMod().Enabled())
}

func TestModList_Empty(t *testing.T) {
	model := views.NewModList(tui.NewKeyMap("vim"), nil, nil, nil)

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeySpace})
	assert.Nil(t, cmd)
	assert.Contains(t, model.View(), "No mods found")
}
