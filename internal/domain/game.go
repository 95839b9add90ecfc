package domain

import "strings"

// Game is a title supported by the ME3 loader
type Game struct {
	ID          string // CLI slug passed to me3, e.g. "elden-ring"
	Name        string // Display name
	ModsDir     string // Folder name of the default mods dir under the profiles root
	ProfileFile string // File name of the default .me3 profile
	Executable  string // Game executable, informational
	NexusDomain string // Nexus Mods game domain, e.g. "eldenring"
}

// LaunchSlug returns the value written to [game].launch in v2 profiles:
// the display name lowercased with everything but letters and digits removed.
func (g *Game) LaunchSlug() string {
	var b strings.Builder
	for _, r := range strings.ToLower(g.Name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DefaultGames returns the built-in game table used when games.yaml is absent
func DefaultGames() map[string]*Game {
	games := []*Game{
		{ID: "elden-ring", Name: "Elden Ring", ModsDir: "eldenring-mods", ProfileFile: "eldenring-default.me3", Executable: "eldenring.exe", NexusDomain: "eldenring"},
		{ID: "nightreign", Name: "Nightreign", ModsDir: "nightreign-mods", ProfileFile: "nightreign-default.me3", Executable: "nightreign.exe", NexusDomain: "eldenringnightreign"},
		{ID: "sekiro", Name: "Sekiro", ModsDir: "sekiro-mods", ProfileFile: "sekiro-default.me3", Executable: "sekiro.exe", NexusDomain: "sekiro"},
		{ID: "ds3", Name: "Dark Souls 3", ModsDir: "darksouls3-mods", ProfileFile: "darksouls3-default.me3", Executable: "DarkSoulsIII.exe", NexusDomain: "darksouls3"},
		{ID: "armoredcore6", Name: "Armoredcore6", ModsDir: "armoredcore6-mods", ProfileFile: "armoredcore6-default.me3", Executable: "armoredcore6.exe", NexusDomain: "armoredcore6firesofrubicon"},
	}

	out := make(map[string]*Game, len(games))
	for _, g := range games {
		out[g.ID] = g
	}
	return out
}
