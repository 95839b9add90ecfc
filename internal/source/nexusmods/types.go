package nexusmods

import (
	"fmt"
	"regexp"
	"strconv"
)

// Mod is what me3m keeps of a Nexus mod page
type Mod struct {
	ModID        int
	GameDomain   string
	Name         string
	Summary      string
	Version      string
	Author       string
	Endorsements int
	Downloads    int
	UpdatedAt    string
}

// URL returns the mod page
func (m Mod) URL() string {
	return ModURL(m.GameDomain, m.ModID)
}

// modNode mirrors the GraphQL Mod type
type modNode struct {
	ModID        int    `graphql:"modId"`
	Name         string `graphql:"name"`
	Summary      string `graphql:"summary"`
	Version      string `graphql:"version"`
	Author       string `graphql:"author"`
	Endorsements int    `graphql:"endorsements"`
	Downloads    int    `graphql:"downloads"`
	UpdatedAt    string `graphql:"updatedAt"`
}

func (n modNode) toMod(gameDomain string) Mod {
	return Mod{
		ModID:        n.ModID,
		GameDomain:   gameDomain,
		Name:         n.Name,
		Summary:      n.Summary,
		Version:      n.Version,
		Author:       n.Author,
		Endorsements: n.Endorsements,
		Downloads:    n.Downloads,
		UpdatedAt:    n.UpdatedAt,
	}
}

var modURLPattern = regexp.MustCompile(`/mods/(\d+)`)

// ModURL builds a nexusmods.com mod page link
func ModURL(gameDomain string, modID int) string {
	return fmt.Sprintf("https://www.nexusmods.com/%s/mods/%d", gameDomain, modID)
}

// ModIDFromURL extracts the mod id from a mod page link
func ModIDFromURL(link string) (int, bool) {
	m := modURLPattern.FindStringSubmatch(link)
	if m == nil {
		return 0, false
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return id, true
}
