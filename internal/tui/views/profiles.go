package views

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/DonovanMods/me3-mod-manager/internal/domain"
)

// SwitchProfileMsg is sent to switch to a profile
type SwitchProfileMsg struct {
	Profile *domain.Profile
}

// DeleteProfileMsg is sent to delete a profile
type DeleteProfileMsg struct {
	Profile *domain.Profile
}

// CreateProfileMsg is sent when a new profile is created
type CreateProfileMsg struct {
	Name string
}

var defaultStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("214"))

// Profiles is the profile management view
type Profiles struct {
	keys      Keys
	game      *domain.Game
	profiles  []*domain.Profile
	activeID  string
	selected  int
	creating  bool
	nameInput textinput.Model
	width     int
	height    int
}

// NewProfiles creates a new profiles view
func NewProfiles(keys Keys, game *domain.Game, profiles []*domain.Profile, activeID string) Profiles {
	ti := textinput.New()
	ti.Placeholder = "Profile name..."
	ti.CharLimit = 50
	ti.Width = 30

	p := Profiles{
		keys:      keys,
		game:      game,
		profiles:  profiles,
		activeID:  activeID,
		nameInput: ti,
		width:     80,
		height:    24,
	}
	for i, profile := range profiles {
		if profile.ID == activeID {
			p.selected = i
		}
	}
	return p
}

// Selected returns the currently selected index
func (p Profiles) Selected() int {
	return p.selected
}

// ProfileCount returns the number of profiles
func (p Profiles) ProfileCount() int {
	return len(p.profiles)
}

// IsCreating returns whether we're in create mode
func (p Profiles) IsCreating() bool {
	return p.creating
}

// SelectedProfile returns the currently selected profile
func (p Profiles) SelectedProfile() *domain.Profile {
	if len(p.profiles) == 0 || p.selected >= len(p.profiles) {
		return nil
	}
	return p.profiles[p.selected]
}

// Init implements tea.Model
func (p Profiles) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (p Profiles) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if p.creating {
			return p.handleCreateMode(msg)
		}
		return p.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.height = msg.Height
		return p, nil
	}

	return p, nil
}

func (p Profiles) handleCreateMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case p.keys.IsCancel(msg):
		p.creating = false
		p.nameInput.Reset()
		p.nameInput.Blur()
		return p, nil

	case p.keys.IsConfirm(msg):
		name := p.nameInput.Value()
		if name == "" {
			return p, nil
		}
		p.creating = false
		p.nameInput.Reset()
		p.nameInput.Blur()
		return p, func() tea.Msg {
			return CreateProfileMsg{Name: name}
		}
	}

	var cmd tea.Cmd
	p.nameInput, cmd = p.nameInput.Update(msg)
	return p, cmd
}

func (p Profiles) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if cur, ok := move(p.keys, msg, p.selected, len(p.profiles)); ok {
		p.selected = cur
		return p, nil
	}

	switch {
	case p.keys.IsConfirm(msg):
		if profile := p.SelectedProfile(); profile != nil && profile.ID != p.activeID {
			return p, func() tea.Msg {
				return SwitchProfileMsg{Profile: profile}
			}
		}

	case p.keys.IsNew(msg):
		p.creating = true
		p.nameInput.Focus()
		return p, textinput.Blink

	case p.keys.IsDelete(msg):
		profile := p.SelectedProfile()
		if profile != nil && !profile.IsDefault() && profile.ID != p.activeID {
			return p, func() tea.Msg {
				return DeleteProfileMsg{Profile: profile}
			}
		}
	}

	return p, nil
}

// View implements tea.Model
func (p Profiles) View() string {
	output := titleStyle.Render("Profiles") + "\n"

	gameName := "No game selected"
	if p.game != nil {
		gameName = p.game.Name
	}
	output += infoStyle.Render(fmt.Sprintf("Game: %s", gameName)) + "\n\n"

	if p.creating {
		output += "New profile name: " + p.nameInput.View() + "\n\n"
		output += infoStyle.Render("enter: create  esc: cancel")
		return output
	}

	if len(p.profiles) == 0 {
		output += itemStyle.Render("No profiles configured.") + "\n\n"
		output += infoStyle.Render("Press 'n' to create a new profile.") + "\n"
		return output
	}

	for i, profile := range p.profiles {
		cursor := "  "
		style := itemStyle

		if i == p.selected {
			cursor = "▸ "
			style = selectedStyle
		}

		status := ""
		if profile.ID == p.activeID {
			status += activeStyle.Render(" [active]")
		}
		if profile.IsDefault() {
			status += defaultStyle.Render(" [default]")
		}

		output += style.Render(cursor+profile.Name+status) + "\n"

		if i == p.selected {
			output += detailStyle.Render(fmt.Sprintf("File: %s", profile.ProfilePath)) + "\n"
			output += detailStyle.Render(fmt.Sprintf("Mods: %s", profile.ModsPath)) + "\n"
			output += "\n"
		}
	}

	output += helpStyle.Render("enter: switch  n: new  d: delete")
	return output
}
