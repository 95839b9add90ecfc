// Package config reads and writes the YAML settings of me3m and locates ME3's own directories.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// DefaultProfilesRoot returns where ME3 keeps its profiles and default mods folders:
// %LOCALAPPDATA%\garyttierney\me3\config\profiles on Windows,
// $XDG_CONFIG_HOME/me3/profiles or ~/.config/me3/profiles elsewhere.
func DefaultProfilesRoot() (string, error) {
	if runtime.GOOS == "windows" {
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			return filepath.Join(local, "garyttierney", "me3", "config", "profiles"), nil
		}
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "me3", "profiles"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home directory: %w", err)
	}
	return filepath.Join(home, ".config", "me3", "profiles"), nil
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// ParseProfilePath validates a user supplied .me3 file path and returns it cleaned.
// It returns an error if:
//   - The path is empty
//   - The path contains parent directory traversal (..)
//   - The file does not exist
//   - The path points to a directory instead of a file
//   - The file does not have a .me3 or .toml extension
func ParseProfilePath(path string) (string, error) {
	if path == "" {
		return "", errors.New("profile path cannot be empty")
	}

	if strings.Contains(filepath.ToSlash(path), "../") {
		return "", errors.New("profile path contains invalid traversal")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving profile path: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.New("profile file does not exist")
		}
		return "", err
	}

	if info.IsDir() {
		return "", errors.New("profile path is a directory, not a file")
	}

	ext := strings.ToLower(filepath.Ext(abs))
	if ext != ".me3" && ext != ".toml" {
		return "", errors.New("profile file must have .me3 or .toml extension")
	}

	return abs, nil
}
