package views

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Keys decides what a key press means. tui.KeyMap implements it.
type Keys interface {
	IsUp(tea.KeyMsg) bool
	IsDown(tea.KeyMsg) bool
	IsHome(tea.KeyMsg) bool
	IsEnd(tea.KeyMsg) bool
	IsConfirm(tea.KeyMsg) bool
	IsCancel(tea.KeyMsg) bool
	IsToggle(tea.KeyMsg) bool
	IsRegulation(tea.KeyMsg) bool
	IsReload(tea.KeyMsg) bool
	IsSearch(tea.KeyMsg) bool
	IsNew(tea.KeyMsg) bool
	IsDelete(tea.KeyMsg) bool
	NavigationHelp() string
}

// move applies a navigation key to a cursor over n items. Up and down wrap.
func move(keys Keys, msg tea.KeyMsg, cur, n int) (int, bool) {
	if n == 0 {
		return 0, false
	}
	switch {
	case keys.IsUp(msg):
		cur--
		if cur < 0 {
			cur = n - 1
		}
	case keys.IsDown(msg):
		cur++
		if cur >= n {
			cur = 0
		}
	case keys.IsHome(msg):
		cur = 0
	case keys.IsEnd(msg):
		cur = n - 1
	default:
		return cur, false
	}
	return cur, true
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("69")).
			MarginBottom(1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	itemStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	selectedStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			Foreground(lipgloss.Color("205")).
			Bold(true)

	disabledStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			Foreground(lipgloss.Color("241"))

	missingStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			Foreground(lipgloss.Color("196"))

	detailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			PaddingLeft(4)

	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)
)
