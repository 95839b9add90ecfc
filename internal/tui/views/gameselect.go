package views

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/DonovanMods/me3-mod-manager/internal/domain"
)

// GameSelectedMsg is sent when a game is selected
type GameSelectedMsg struct {
	Game *domain.Game
}

// GameSelect is the game selection view model
type GameSelect struct {
	keys     Keys
	games    []*domain.Game
	selected int
	width    int
	height   int
}

// NewGameSelect creates a new game selection view
func NewGameSelect(keys Keys, games []*domain.Game) GameSelect {
	return GameSelect{
		keys:   keys,
		games:  games,
		width:  80,
		height: 24,
	}
}

// Selected returns the currently selected index
func (g GameSelect) Selected() int {
	return g.selected
}

// SelectedGame returns the currently selected game
func (g GameSelect) SelectedGame() *domain.Game {
	if len(g.games) == 0 || g.selected >= len(g.games) {
		return nil
	}
	return g.games[g.selected]
}

// Init implements tea.Model
func (g GameSelect) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (g GameSelect) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return g.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		g.width = msg.Width
		g.height = msg.Height
		return g, nil
	}

	return g, nil
}

func (g GameSelect) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if cur, ok := move(g.keys, msg, g.selected, len(g.games)); ok {
		g.selected = cur
		return g, nil
	}

	if g.keys.IsConfirm(msg) || g.keys.IsToggle(msg) {
		if game := g.SelectedGame(); game != nil {
			return g, func() tea.Msg {
				return GameSelectedMsg{Game: game}
			}
		}
	}
	return g, nil
}

// View implements tea.Model
func (g GameSelect) View() string {
	if len(g.games) == 0 {
		return g.renderEmpty()
	}

	output := titleStyle.Render("Select a Game") + "\n\n"

	for i, game := range g.games {
		cursor := "  "
		style := itemStyle

		if i == g.selected {
			cursor = "▸ "
			style = selectedStyle
		}

		output += style.Render(cursor+game.Name) + "\n"

		if i == g.selected {
			output += detailStyle.Render(fmt.Sprintf("ID: %s", game.ID)) + "\n"
			output += detailStyle.Render(fmt.Sprintf("Mods: %s", game.ModsDir)) + "\n"
			output += detailStyle.Render(fmt.Sprintf("Profile: %s", game.ProfileFile)) + "\n"
			if game.NexusDomain != "" {
				output += detailStyle.Render(fmt.Sprintf("Nexus: %s", game.NexusDomain)) + "\n"
			}
			output += "\n"
		}
	}

	output += helpStyle.Render(g.keys.NavigationHelp() + "  enter: select")
	return output
}

func (g GameSelect) renderEmpty() string {
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	return style.Render(`No games configured.

Add a game with:
  me3m game add <id> --name "Game Name" --mods-dir <folder> --profile <file.me3>

Example:
  me3m game add elden-ring \
    --name "Elden Ring" \
    --mods-dir eldenring-mods \
    --profile eldenring-default.me3
`)
}
