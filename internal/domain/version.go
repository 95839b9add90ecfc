package domain

import (
	"strconv"
	"strings"
)

// IsNewerVersion returns true if newVersion is newer than currentVersion
func IsNewerVersion(currentVersion, newVersion string) bool {
	return CompareVersions(currentVersion, newVersion) < 0
}

// CompareVersions compares two dotted version strings.
// Returns -1 if v1 < v2, 0 if equal, 1 if v1 > v2. Missing parts count as zero
// and anything after the leading digits of a part is ignored.
func CompareVersions(v1, v2 string) int {
	parts1 := parseVersion(v1)
	parts2 := parseVersion(v2)

	n := max(len(parts1), len(parts2))
	for i := 0; i < n; i++ {
		var p1, p2 int
		if i < len(parts1) {
			p1 = parts1[i]
		}
		if i < len(parts2) {
			p2 = parts2[i]
		}
		switch {
		case p1 < p2:
			return -1
		case p1 > p2:
			return 1
		}
	}
	return 0
}

func parseVersion(v string) []int {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	v = strings.TrimPrefix(v, "V")
	if v == "" {
		return nil
	}

	parts := strings.Split(v, ".")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		end := 0
		for end < len(part) && part[end] >= '0' && part[end] <= '9' {
			end++
		}
		n, _ := strconv.Atoi(part[:end])
		out = append(out, n)
	}
	return out
}
