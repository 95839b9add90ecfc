package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/DonovanMods/me3-mod-manager/internal/domain"
)

// ToggleModMsg asks to flip a mod between enabled and disabled
type ToggleModMsg struct {
	Mod domain.ModInfo
}

// ActivateRegulationMsg asks to make a package's regulation.bin the active one
type ActivateRegulationMsg struct {
	Mod domain.ModInfo
}

// ReloadMsg asks for a fresh scan of the mods dir
type ReloadMsg struct{}

// ModList shows every mod of the active profile with its status
type ModList struct {
	keys      Keys
	game      *domain.Game
	profile   *domain.Profile
	mods      []domain.ModInfo
	visible   []int // indexes into mods that pass the filter
	selected  int   // index into visible
	filter    textinput.Model
	filtering bool
	width     int
	height    int
}

// NewModList creates the mod list view
func NewModList(keys Keys, game *domain.Game, profile *domain.Profile, mods map[string]domain.ModInfo) ModList {
	ti := textinput.New()
	ti.Placeholder = "filter by name..."
	ti.CharLimit = 64
	ti.Width = 30

	m := ModList{
		keys:    keys,
		game:    game,
		profile: profile,
		filter:  ti,
		width:   80,
		height:  24,
	}
	return m.WithMods(profile, mods)
}

// WithMods replaces the listed mods, keeping the filter and, when it is
// still there, the selected mod
func (m ModList) WithMods(profile *domain.Profile, mods map[string]domain.ModInfo) ModList {
	var keep string
	if cur := m.SelectedMod(); cur != nil {
		keep = cur.Path
	}

	m.profile = profile
	m.mods = domain.SortedMods(mods)
	m.applyFilter()
	m.selected = 0
	for i, idx := range m.visible {
		if m.mods[idx].Path == keep {
			m.selected = i
		}
	}
	return m
}

func (m *ModList) applyFilter() {
	q := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	m.visible = nil
	for i, mod := range m.mods {
		if q == "" || strings.Contains(strings.ToLower(mod.Name), q) || strings.Contains(strings.ToLower(mod.Key), q) {
			m.visible = append(m.visible, i)
		}
	}
	if m.selected >= len(m.visible) {
		m.selected = max(len(m.visible)-1, 0)
	}
}

// Selected returns the cursor position among visible mods
func (m ModList) Selected() int {
	return m.selected
}

// VisibleCount returns how many mods pass the filter
func (m ModList) VisibleCount() int {
	return len(m.visible)
}

// Filtering reports whether the filter input has focus
func (m ModList) Filtering() bool {
	return m.filtering
}

// SelectedMod returns the mod under the cursor
func (m ModList) SelectedMod() *domain.ModInfo {
	if m.selected >= len(m.visible) {
		return nil
	}
	mod := m.mods[m.visible[m.selected]]
	return &mod
}

// Init implements tea.Model
func (m ModList) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m ModList) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.filtering {
			return m.handleFilter(msg)
		}
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}

	return m, nil
}

func (m ModList) handleFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case m.keys.IsCancel(msg):
		m.filtering = false
		m.filter.Reset()
		m.filter.Blur()
		m.applyFilter()
		return m, nil

	case m.keys.IsConfirm(msg):
		m.filtering = false
		m.filter.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m ModList) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if cur, ok := move(m.keys, msg, m.selected, len(m.visible)); ok {
		m.selected = cur
		return m, nil
	}

	switch {
	case m.keys.IsSearch(msg):
		m.filtering = true
		m.filter.Focus()
		return m, textinput.Blink

	case m.keys.IsReload(msg):
		return m, func() tea.Msg { return ReloadMsg{} }

	case m.keys.IsToggle(msg):
		if mod := m.SelectedMod(); mod != nil {
			return m, func() tea.Msg { return ToggleModMsg{Mod: *mod} }
		}

	case m.keys.IsRegulation(msg):
		if mod := m.SelectedMod(); mod != nil && mod.HasRegulation {
			return m, func() tea.Msg { return ActivateRegulationMsg{Mod: *mod} }
		}
	}

	return m, nil
}

// View implements tea.Model
func (m ModList) View() string {
	output := titleStyle.Render("Mods") + "\n"

	gameName := "No game"
	profileName := "No profile"
	if m.game != nil {
		gameName = m.game.Name
	}
	if m.profile != nil {
		profileName = m.profile.Name
	}
	output += infoStyle.Render(fmt.Sprintf("Game: %s  Profile: %s", gameName, profileName)) + "\n"

	if m.filtering || m.filter.Value() != "" {
		output += "Filter: " + m.filter.View() + "\n"
	}
	output += "\n"

	if len(m.mods) == 0 {
		output += itemStyle.Render("No mods found in the mods folder.") + "\n\n"
		output += infoStyle.Render("Install one with 'me3m install <file>'") + "\n"
		return output
	}
	if len(m.visible) == 0 {
		output += itemStyle.Render("No mods match the filter.") + "\n"
		return output
	}

	enabled := 0
	for _, mod := range m.mods {
		if mod.Enabled() {
			enabled++
		}
	}
	output += infoStyle.Render(fmt.Sprintf("%d of %d enabled:", enabled, len(m.mods))) + "\n\n"

	for i, idx := range m.visible {
		mod := m.mods[idx]
		cursor := "  "
		style := itemStyle

		switch {
		case i == m.selected:
			cursor = "▸ "
			style = selectedStyle
		case mod.Status == domain.StatusMissing:
			style = missingStyle
		case !mod.Enabled():
			style = disabledStyle
		}

		line := fmt.Sprintf("%s%s %s (%s)", cursor, statusMark(mod.Status), mod.Name, mod.Kind)
		if mod.RegulationActive {
			line += " " + activeStyle.Render("[regulation]")
		}
		output += style.Render(line) + "\n"

		if i == m.selected {
			output += detailStyle.Render(mod.Key) + "\n"
			if mod.IsExternal {
				output += detailStyle.Render("External: "+mod.Path) + "\n"
			}
			if mod.HasRegulation && !mod.RegulationActive {
				output += detailStyle.Render("regulation.bin is disabled (r to activate)") + "\n"
			}
			output += "\n"
		}
	}

	output += helpStyle.Render(m.keys.NavigationHelp() + "  space: toggle  r: regulation  /: filter  R: reload")
	return output
}

func statusMark(s domain.Status) string {
	switch s {
	case domain.StatusEnabled:
		return "[✓]"
	case domain.StatusMissing:
		return "[!]"
	default:
		return "[ ]"
	}
}
