package domain

// DefaultProfileID identifies the implicit profile that lives under the profiles root
const DefaultProfileID = "default"

// Profile points at one .me3 file and the mods directory it draws from
type Profile struct {
	ID          string // "default" or a uuid for custom profiles
	Name        string // Display name
	GameID      string // Which game this profile is for
	ProfilePath string // Absolute path of the .me3 file
	ModsPath    string // Absolute path of the mods directory
}

// IsDefault reports whether this is the game's implicit default profile
func (p *Profile) IsDefault() bool {
	return p.ID == DefaultProfileID
}
