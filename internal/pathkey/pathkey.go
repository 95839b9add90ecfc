// Package pathkey derives the strings used to match mod artifacts to profile entries.
//
// A default profile (mods dir directly under the profiles root, named after the
// game's mods folder) stores keys as "<mods_dir_name>/<relative path>". Custom
// profiles and external artifacts store the fully resolved absolute path.
// Both forms always use forward slashes.
package pathkey

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/DonovanMods/me3-mod-manager/internal/domain"
)

// Normalize converts a path to the slash-separated form stored in profiles
func Normalize(p string) string {
	if p == "" {
		return ""
	}
	return path.Clean(strings.ReplaceAll(p, `\`, "/"))
}

// Resolve returns an absolute path with symlinks evaluated as far as the path exists
func Resolve(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		abs = filepath.Clean(p)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	parent := filepath.Dir(abs)
	if parent == abs {
		return abs
	}
	return filepath.Join(Resolve(parent), filepath.Base(abs))
}

// Layout captures everything key derivation depends on for one game and profile
type Layout struct {
	ProfilesRoot string // ME3 profiles root, e.g. ~/.config/me3/profiles
	ModsDir      string // Mods directory of the active profile
	ModsDirName  string // The game's default mods folder name, e.g. "eldenring-mods"
}

// IsDefault reports whether ModsDir is the game's default folder under the profiles root
func (l Layout) IsDefault() bool {
	if l.ProfilesRoot == "" || l.ModsDirName == "" {
		return false
	}
	return Resolve(l.ModsDir) == Resolve(filepath.Join(l.ProfilesRoot, l.ModsDirName))
}

// Relative returns p relative to the mods dir in slash form.
// It fails with domain.ErrPathResolution when p lies outside the mods dir.
func (l Layout) Relative(p string) (string, error) {
	root := Resolve(l.ModsDir)
	target := Resolve(p)

	rel, err := filepath.Rel(root, target)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrPathResolution, p, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", domain.ErrPathResolution, p)
	}
	return filepath.ToSlash(rel), nil
}

// Contains reports whether p is strictly inside the mods dir
func (l Layout) Contains(p string) bool {
	rel, err := l.Relative(p)
	return err == nil && rel != "."
}

// Key derives the profile key for an artifact path.
// Scanning and enabling must both go through this function.
func (l Layout) Key(p string) string {
	if l.IsDefault() {
		if rel, err := l.Relative(p); err == nil && rel != "." {
			return l.ModsDirName + "/" + rel
		}
	}
	return Normalize(Resolve(p))
}

// Path maps a stored key (or any path written by hand into a profile) back to a filesystem path
func (l Layout) Path(key string) string {
	key = Normalize(key)
	if key == "" {
		return ""
	}
	if prefix := l.ModsDirName + "/"; l.ModsDirName != "" && strings.HasPrefix(key, prefix) {
		return filepath.Join(l.ModsDir, filepath.FromSlash(strings.TrimPrefix(key, prefix)))
	}
	native := filepath.FromSlash(key)
	if filepath.IsAbs(native) || strings.HasPrefix(key, "/") {
		return native
	}
	return filepath.Join(l.ModsDir, native)
}
