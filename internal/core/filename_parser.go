package core

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// ParsedFilename is what a Nexus download name says about its mod
type ParsedFilename struct {
	ModID     int    // Nexus mod id
	Version   string // Dotted version, e.g. "1.8.0"
	BaseName  string // Mod name portion before the id
	Timestamp string // Upload timestamp, if present
}

// nexusPattern matches "<name>-<modid>-<version parts>[-<unix timestamp>]" after the
// extension is stripped, e.g. "Seamless Co-op-510-1-8-0-1712345678".
// The mod id has at least two digits so it is not mistaken for a version part.
var nexusPattern = regexp.MustCompile(`^(.+?)-(\d{2,})-([0-9A-Za-z]+(?:-[0-9A-Za-z]+)*?)(?:-(\d{10,}))?$`)

// ParseNexusModsFilename reads a Nexus download file name.
// It returns nil when the name does not follow the Nexus pattern.
func ParseNexusModsFilename(filename string) *ParsedFilename {
	matches := nexusPattern.FindStringSubmatch(stripExtension(filename))
	if matches == nil {
		return nil
	}

	id, err := strconv.Atoi(matches[2])
	if err != nil {
		return nil
	}

	return &ParsedFilename{
		ModID:     id,
		Version:   strings.ReplaceAll(matches[3], "-", "."),
		BaseName:  strings.TrimSpace(matches[1]),
		Timestamp: matches[4],
	}
}

// stripExtension removes the path and the extension from a file name
func stripExtension(filename string) string {
	filename = filepath.Base(filename)
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}
