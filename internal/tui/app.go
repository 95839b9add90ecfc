package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/DonovanMods/me3-mod-manager/internal/core"
	"github.com/DonovanMods/me3-mod-manager/internal/domain"
	"github.com/DonovanMods/me3-mod-manager/internal/tui/views"
)

// ViewType represents different screens in the TUI
type ViewType int

const (
	ViewGameSelect ViewType = iota
	ViewMods
	ViewProfiles
)

// NavigateMsg is sent to change views
type NavigateMsg struct {
	View ViewType
}

// ErrorMsg is sent when an error occurs
type ErrorMsg struct {
	Err error
}

// StatusMsg reports a completed change
type StatusMsg struct {
	Text string
}

// gameLoadedMsg carries a fresh reconciliation of one game
type gameLoadedMsg struct {
	game     *domain.Game
	profile  *domain.Profile
	profiles []*domain.Profile
	mods     map[string]domain.ModInfo
	err      error
}

// App is the main TUI application model
type App struct {
	service     *core.Service
	keys        *KeyMap
	gameID      string
	game        *domain.Game
	profile     *domain.Profile
	loaded      bool
	currentView ViewType
	showHelp    bool
	width       int
	height      int
	err         error
	status      string

	gameSelect views.GameSelect
	modList    views.ModList
	profiles   views.Profiles
}

// NewApp creates a new TUI application. With a gameID it opens on that
// game's mod list, otherwise on the game picker.
func NewApp(service *core.Service, gameID string) App {
	mode := ""
	var games []*domain.Game
	if service != nil {
		mode = service.Config().Keybindings
		games = service.ListGames()
	}
	keys := NewKeyMap(mode)

	app := App{
		service:     service,
		keys:        keys,
		gameID:      gameID,
		currentView: ViewGameSelect,
		width:       80,
		height:      24,
		gameSelect:  views.NewGameSelect(keys, games),
		modList:     views.NewModList(keys, nil, nil, nil),
		profiles:    views.NewProfiles(keys, nil, nil, ""),
	}
	if gameID != "" {
		app.currentView = ViewMods
	}
	return app
}

// CurrentView returns the current view type
func (a App) CurrentView() ViewType {
	return a.currentView
}

// GameID returns the game being managed, or ""
func (a App) GameID() string {
	return a.gameID
}

// Err returns the last error shown to the user
func (a App) Err() error {
	return a.err
}

// Status returns the last status line
func (a App) Status() string {
	return a.status
}

// ModList returns the mod list view
func (a App) ModList() views.ModList {
	return a.modList
}

// Profiles returns the profiles view
func (a App) Profiles() views.Profiles {
	return a.profiles
}

// Init implements tea.Model
func (a App) Init() tea.Cmd {
	if a.gameID == "" {
		return nil
	}
	return a.load()
}

// load reconciles the current game against its active profile
func (a App) load() tea.Cmd {
	service, gameID := a.service, a.gameID
	return func() tea.Msg {
		if service == nil {
			return gameLoadedMsg{err: fmt.Errorf("%w: %s", domain.ErrGameNotFound, gameID)}
		}
		gc, err := service.Context(gameID)
		if err != nil {
			return gameLoadedMsg{err: err}
		}
		mods, err := service.Mods().GetAllMods(gameID)
		if err != nil {
			return gameLoadedMsg{err: err}
		}
		profiles, err := service.Profiles().List(gameID)
		if err != nil {
			return gameLoadedMsg{err: err}
		}
		return gameLoadedMsg{game: gc.Game, profile: gc.Profile, profiles: profiles, mods: mods}
	}
}

// run performs a change off the update loop and reports it as a message
func (a App) run(fn func() (string, error)) tea.Cmd {
	return func() tea.Msg {
		text, err := fn()
		if err != nil {
			return ErrorMsg{Err: err}
		}
		return StatusMsg{Text: text}
	}
}

// Update implements tea.Model
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a.broadcast(msg), nil

	case NavigateMsg:
		a.currentView = msg.View
		return a, nil

	case ErrorMsg:
		a.err = msg.Err
		a.status = ""
		return a, nil

	case StatusMsg:
		a.err = nil
		a.status = msg.Text
		return a, a.load()

	case gameLoadedMsg:
		return a.applyLoaded(msg), nil

	case views.GameSelectedMsg:
		a.gameID = msg.Game.ID
		a.game = msg.Game
		a.loaded = false
		a.currentView = ViewMods
		return a, a.load()

	case views.ReloadMsg:
		a.status = ""
		return a, a.load()

	case views.ToggleModMsg:
		return a, a.toggle(msg.Mod)

	case views.ActivateRegulationMsg:
		gameID, name := a.gameID, msg.Mod.Name
		return a, a.run(func() (string, error) {
			out, err := a.service.Mods().SetRegulationActive(gameID, name)
			return out.Message, err
		})

	case views.SwitchProfileMsg:
		gameID, ref := a.gameID, msg.Profile.ID
		return a, a.run(func() (string, error) {
			p, err := a.service.Profiles().Switch(gameID, ref)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Switched to profile %s", p.Name), nil
		})

	case views.CreateProfileMsg:
		gameID, name := a.gameID, msg.Name
		return a, a.run(func() (string, error) {
			p, err := a.service.Profiles().Create(gameID, name, "", a.service.ProfileVersion())
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Created profile %s in %s", p.Name, p.ModsPath), nil
		})

	case views.DeleteProfileMsg:
		gameID, p := a.gameID, msg.Profile
		return a, a.run(func() (string, error) {
			if err := a.service.Profiles().Delete(gameID, p.ID); err != nil {
				return "", err
			}
			return fmt.Sprintf("Deleted profile %s", p.Name), nil
		})
	}

	return a.updateCurrentView(msg)
}

func (a App) toggle(mod domain.ModInfo) tea.Cmd {
	gameID := a.gameID
	return a.run(func() (string, error) {
		out, err := a.service.Mods().SetModEnabled(gameID, mod.Path, !mod.Enabled())
		return out.Message, err
	})
}

func (a App) applyLoaded(msg gameLoadedMsg) App {
	if msg.err != nil {
		a.err = msg.err
		return a
	}

	sameGame := a.loaded && a.game != nil && a.game.ID == msg.game.ID
	a.game = msg.game
	a.profile = msg.profile
	a.loaded = true

	if sameGame {
		a.modList = a.modList.WithMods(msg.profile, msg.mods)
	} else {
		a.modList = views.NewModList(a.keys, msg.game, msg.profile, msg.mods)
	}
	a.profiles = views.NewProfiles(a.keys, msg.game, msg.profiles, msg.profile.ID)
	return a.broadcast(tea.WindowSizeMsg{Width: a.width, Height: a.height})
}

func (a App) broadcast(msg tea.WindowSizeMsg) App {
	m, _ := a.gameSelect.Update(msg)
	a.gameSelect = m.(views.GameSelect)
	m, _ = a.modList.Update(msg)
	a.modList = m.(views.ModList)
	m, _ = a.profiles.Update(msg)
	a.profiles = m.(views.Profiles)
	return a
}

// typing reports whether a text input has focus
func (a App) typing() bool {
	switch a.currentView {
	case ViewMods:
		return a.modList.Filtering()
	case ViewProfiles:
		return a.profiles.IsCreating()
	}
	return false
}

func (a App) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return a, tea.Quit
	}
	if a.typing() {
		return a.updateCurrentView(msg)
	}

	if a.showHelp {
		if a.keys.IsQuit(msg) {
			return a, tea.Quit
		}
		a.showHelp = false
		return a, nil
	}

	switch {
	case a.keys.IsQuit(msg):
		return a, tea.Quit
	case a.keys.IsHelp(msg):
		a.showHelp = true
		return a, nil
	}

	switch msg.String() {
	case "1":
		a.currentView = ViewGameSelect
		return a, nil
	case "2":
		if a.gameID != "" {
			a.currentView = ViewMods
		}
		return a, nil
	case "3":
		if a.gameID != "" {
			a.currentView = ViewProfiles
		}
		return a, nil
	}

	return a.updateCurrentView(msg)
}

func (a App) updateCurrentView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		m   tea.Model
		cmd tea.Cmd
	)

	switch a.currentView {
	case ViewGameSelect:
		m, cmd = a.gameSelect.Update(msg)
		a.gameSelect = m.(views.GameSelect)
	case ViewMods:
		m, cmd = a.modList.Update(msg)
		a.modList = m.(views.ModList)
	case ViewProfiles:
		m, cmd = a.profiles.Update(msg)
		a.profiles = m.(views.Profiles)
	}

	return a, cmd
}

// View implements tea.Model
func (a App) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("205")).
		MarginBottom(1)

	tabStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	activeTabStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("205")).
		Bold(true)

	header := titleStyle.Render("me3m - ME3 Mod Manager")

	tabs := []string{"[1]Games", "[2]Mods", "[3]Profiles"}
	tabBar := ""
	for i, tab := range tabs {
		if ViewType(i) == a.currentView {
			tabBar += activeTabStyle.Render(tab) + "  "
		} else {
			tabBar += tabStyle.Render(tab) + "  "
		}
	}

	content := a.renderCurrentView()
	if a.showHelp {
		content = a.keys.FullHelp()
	}

	statusLine := ""
	if a.err != nil {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
		statusLine = errStyle.Render(fmt.Sprintf("Error: %v", a.err))
	} else if a.status != "" {
		okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
		statusLine = okStyle.Render(a.status)
	}

	footerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		MarginTop(1)
	footer := footerStyle.Render("q: quit  ?: help")

	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s\n%s", header, tabBar, content, statusLine, footer)
}

func (a App) renderCurrentView() string {
	switch a.currentView {
	case ViewGameSelect:
		return a.gameSelect.View()
	case ViewMods:
		if !a.loaded {
			return "Loading mods..."
		}
		return a.modList.View()
	case ViewProfiles:
		if !a.loaded {
			return "Loading profiles..."
		}
		return a.profiles.View()
	default:
		return "Unknown view"
	}
}

// Run starts the TUI application
func Run(service *core.Service, gameID string) error {
	app := NewApp(service, gameID)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
