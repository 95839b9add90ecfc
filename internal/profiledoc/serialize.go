package profiledoc

import (
	"fmt"
	"strconv"

	"github.com/DonovanMods/me3-mod-manager/internal/domain"
	"github.com/DonovanMods/me3-mod-manager/internal/pathkey"
)

// Serialize renders the document in the requested schema. An empty version
// keeps the document's own.
func Serialize(doc *Document, version Version) ([]byte, error) {
	if version == "" {
		version = doc.Version
	}
	if err := checkUnique(doc); err != nil {
		return nil, err
	}

	switch version {
	case V1, "":
		return serializeV1(doc), nil
	case V2:
		return serializeV2(doc), nil
	default:
		return nil, fmt.Errorf("%w: unknown profile version %q", domain.ErrInvalidConfig, version)
	}
}

func serializeV1(doc *Document) []byte {
	w := &tomlWriter{}
	w.pair(field{"profileVersion", tomlString(string(V1))})
	w.pairs(globalFields(doc, false))
	if len(doc.Natives) == 0 {
		w.pair(field{"natives", "[]"})
	}
	if len(doc.Packages) == 0 {
		w.pair(field{"packages", "[]"})
	}

	for _, s := range doc.Supports {
		w.header("supports", true)
		w.pair(field{"game", tomlString(s.Game)})
	}
	for _, n := range doc.Natives {
		w.header("natives", true)
		w.pairs(nativeFields(n))
	}
	for _, p := range doc.Packages {
		w.header("packages", true)
		w.pairs(packageFields(p, true))
	}
	return w.Bytes()
}

func serializeV2(doc *Document) []byte {
	w := &tomlWriter{}
	w.pair(field{"profileVersion", tomlString(string(V2))})

	if globals := globalFields(doc, true); len(globals) > 0 {
		w.header("game", false)
		w.pairs(globals)
	}

	w.header("mods", false)
	idents := modIdentifiers(doc)
	for i, n := range doc.Natives {
		w.pair(field{idents[i], inlineTable(nativeFields(n))})
	}
	for _, p := range doc.Packages {
		w.pair(field{p.ID, inlineTable(packageFields(p, false))})
	}
	return w.Bytes()
}

// modIdentifiers picks a unique [mods] key for every native. Package ids are
// reserved first since they carry meaning; colliding native stems get a -2, -3 suffix.
func modIdentifiers(doc *Document) []string {
	taken := make(map[string]bool, len(doc.Natives)+len(doc.Packages))
	for _, p := range doc.Packages {
		taken[p.ID] = true
	}

	idents := make([]string, len(doc.Natives))
	for i, n := range doc.Natives {
		base := n.Identifier()
		ident := base
		for suffix := 2; taken[ident]; suffix++ {
			ident = base + "-" + strconv.Itoa(suffix)
		}
		taken[ident] = true
		idents[i] = ident
	}
	return idents
}

func checkUnique(doc *Document) error {
	paths := make(map[string]bool, len(doc.Natives))
	for _, n := range doc.Natives {
		if n.Path == "" {
			continue
		}
		key := pathkey.Normalize(n.Path)
		if paths[key] {
			return fmt.Errorf("%w: duplicate native path %q", domain.ErrInvalidConfig, n.Path)
		}
		paths[key] = true
	}

	ids := make(map[string]bool, len(doc.Packages))
	for _, p := range doc.Packages {
		if p.ID == "" {
			return fmt.Errorf("%w: package with empty id", domain.ErrInvalidConfig)
		}
		if ids[p.ID] {
			return fmt.Errorf("%w: duplicate package id %q", domain.ErrInvalidConfig, p.ID)
		}
		ids[p.ID] = true
	}
	return nil
}
