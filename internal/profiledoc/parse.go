package profiledoc

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/DonovanMods/me3-mod-manager/internal/domain"
	"github.com/DonovanMods/me3-mod-manager/internal/pathkey"
)

// ParseError reports a profile that could not be decoded or has fields of the wrong type
type ParseError struct {
	Msg string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parsing profile: %s: %v", e.Msg, e.Err)
	}
	return "parsing profile: " + e.Msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, domain.ErrParse) match
func (e *ParseError) Is(target error) bool {
	return target == domain.ErrParse
}

func parseErrorf(format string, args ...any) *ParseError {
	return &ParseError{Msg: fmt.Sprintf(format, args...)}
}

// Parse decodes a profile. A "mods" table selects the v2 layout whatever
// profileVersion says; otherwise natives and packages are read as v1.
// Duplicate natives (by normalized path) and packages (by id) keep the first occurrence.
// Entries marked enabled = false are dropped, since absence means disabled.
func Parse(data []byte) (*Document, error) {
	doc, _, err := ParseWithDisabled(data)
	return doc, err
}

// ParseWithDisabled is Parse that also returns the path (or package id) of
// every entry dropped for enabled = false
func ParseWithDisabled(data []byte) (*Document, []string, error) {
	raw := make(map[string]any)
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, nil, &ParseError{Msg: "invalid TOML", Err: err}
	}

	declared := V1
	if v, ok := raw["profileVersion"]; ok {
		s, ok := v.(string)
		if !ok {
			return nil, nil, parseErrorf("profileVersion must be a string")
		}
		if strings.EqualFold(strings.TrimSpace(s), string(V2)) {
			declared = V2
		}
	}

	doc := New(declared)
	if err := parseGlobals(doc, raw); err != nil {
		return nil, nil, err
	}

	var disabled []string
	if mods, ok := raw["mods"].(map[string]any); ok {
		doc.Version = V2
		if err := parseMods(doc, mods, modOrder(md, mods), &disabled); err != nil {
			return nil, nil, err
		}
	} else {
		if err := parseNatives(doc, raw["natives"], &disabled); err != nil {
			return nil, nil, err
		}
		if err := parsePackages(doc, raw["packages"], &disabled); err != nil {
			return nil, nil, err
		}
	}

	dedupe(doc)
	return doc, disabled, nil
}

// entryEnabled reads the optional enabled flag. Anything but an explicit false is enabled.
func entryEnabled(t map[string]any, where string) (bool, error) {
	v, ok := t["enabled"]
	if !ok {
		return true, nil
	}
	return asBool(v, where+".enabled")
}

// describeEntry names a dropped entry by path, falling back to its nexus link or id
func describeEntry(t map[string]any, fallback string) string {
	for _, key := range []string{"path", "source", "nexus_link", "id"} {
		if s, ok := t[key].(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

// parseGlobals reads root scalars, then lets a [game] table override them
func parseGlobals(doc *Document, raw map[string]any) error {
	if err := readGlobals(doc, raw); err != nil {
		return err
	}
	if g, ok := raw["game"]; ok {
		table, ok := g.(map[string]any)
		if !ok {
			return parseErrorf("game must be a table")
		}
		if err := readGlobals(doc, table); err != nil {
			return err
		}
		if v, ok := table["launch"]; ok {
			s, err := asString(v, "game.launch")
			if err != nil {
				return err
			}
			doc.Launch = s
		}
	}

	if v, ok := raw["supports"]; ok {
		items, err := asList(v, "supports")
		if err != nil {
			return err
		}
		for i, item := range items {
			switch s := item.(type) {
			case string:
				doc.Supports = append(doc.Supports, Support{Game: s})
			case map[string]any:
				game, err := optString(s, "game", fmt.Sprintf("supports[%d]", i))
				if err != nil {
					return err
				}
				doc.Supports = append(doc.Supports, Support{Game: game})
			default:
				return parseErrorf("supports[%d] must be a table or string", i)
			}
		}
	}
	return nil
}

func readGlobals(doc *Document, m map[string]any) error {
	var err error
	if _, ok := m["savefile"]; ok {
		if doc.Savefile, err = optString(m, "savefile", ""); err != nil {
			return err
		}
	}
	if _, ok := m["start_online"]; ok {
		if doc.StartOnline, err = optBool(m, "start_online"); err != nil {
			return err
		}
	}
	if _, ok := m["disable_arxan"]; ok {
		if doc.DisableArxan, err = optBool(m, "disable_arxan"); err != nil {
			return err
		}
	}
	return nil
}

func parseNatives(doc *Document, v any, disabled *[]string) error {
	if v == nil {
		return nil
	}
	items, err := asList(v, "natives")
	if err != nil {
		return err
	}
	for i, item := range items {
		where := fmt.Sprintf("natives[%d]", i)
		switch t := item.(type) {
		case string:
			if t != "" {
				doc.Natives = append(doc.Natives, NativeEntry{Path: t})
			}
		case map[string]any:
			n, err := nativeFromTable(t, where)
			if err != nil {
				return err
			}
			if on, err := entryEnabled(t, where); err != nil {
				return err
			} else if !on {
				*disabled = append(*disabled, describeEntry(t, where))
				continue
			}
			if n.Path != "" || n.NexusLink != "" {
				doc.Natives = append(doc.Natives, n)
			}
		default:
			return parseErrorf("%s must be a table or string", where)
		}
	}
	return nil
}

func parsePackages(doc *Document, v any, disabled *[]string) error {
	if v == nil {
		return nil
	}
	items, err := asList(v, "packages")
	if err != nil {
		return err
	}
	for i, item := range items {
		where := fmt.Sprintf("packages[%d]", i)
		switch t := item.(type) {
		case string:
			if id := packageIDFromPath(t); id != "" {
				doc.Packages = append(doc.Packages, PackageEntry{ID: id, Path: t})
			}
		case map[string]any:
			p, err := packageFromTable(t, "", where)
			if err != nil {
				return err
			}
			if on, err := entryEnabled(t, where); err != nil {
				return err
			} else if !on {
				*disabled = append(*disabled, describeEntry(t, where))
				continue
			}
			if p.ID != "" {
				doc.Packages = append(doc.Packages, p)
			}
		default:
			return parseErrorf("%s must be a table or string", where)
		}
	}
	return nil
}

// parseMods interprets the v2 [mods] table. Entries whose path ends in .dll are natives.
func parseMods(doc *Document, mods map[string]any, order []string, disabled *[]string) error {
	entries := make(map[string]map[string]any, len(order))
	for key, value := range mods {
		if table, ok := value.(map[string]any); ok {
			entry := entryFor(entries, key)
			for k, v := range table {
				entry[k] = v
			}
			continue
		}
		// A quoted "ident.field" key; split it the way a dotted key would have been
		ident, field, found := strings.Cut(key, ".")
		if !found {
			return parseErrorf("mods.%s must be a table", key)
		}
		assignDotted(entryFor(entries, ident), strings.Split(field, "."), value)
	}

	for _, ident := range order {
		entry, ok := entries[ident]
		if !ok {
			continue
		}
		where := "mods." + ident
		p, err := optString(entry, "path", where)
		if err != nil {
			return err
		}
		if on, err := entryEnabled(entry, where); err != nil {
			return err
		} else if !on {
			*disabled = append(*disabled, describeEntry(entry, ident))
			continue
		}

		if strings.HasSuffix(strings.ToLower(p), ".dll") || (p == "" && entry["nexus_link"] != nil) {
			n, err := nativeFromTable(entry, where)
			if err != nil {
				return err
			}
			doc.Natives = append(doc.Natives, n)
			continue
		}
		if p == "" {
			continue
		}
		pkg, err := packageFromTable(entry, ident, where)
		if err != nil {
			return err
		}
		doc.Packages = append(doc.Packages, pkg)
	}
	return nil
}

func entryFor(entries map[string]map[string]any, ident string) map[string]any {
	entry, ok := entries[ident]
	if !ok {
		entry = make(map[string]any)
		entries[ident] = entry
	}
	return entry
}

// assignDotted sets m[a][b][c] = value for parts a.b.c, creating tables on the way
func assignDotted(m map[string]any, parts []string, value any) {
	for _, part := range parts[:len(parts)-1] {
		next, ok := m[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[part] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = value
}

// modOrder lists [mods] identifiers in the order they first appear in the file
func modOrder(md toml.MetaData, mods map[string]any) []string {
	var order []string
	seen := make(map[string]bool)
	add := func(ident string) {
		if !seen[ident] {
			seen[ident] = true
			order = append(order, ident)
		}
	}

	for _, key := range md.Keys() {
		if len(key) < 2 || key[0] != "mods" {
			continue
		}
		ident := key[1]
		if _, isTable := mods[ident].(map[string]any); !isTable {
			ident, _, _ = strings.Cut(ident, ".")
		}
		add(ident)
	}

	// Anything the metadata missed goes last in a stable order
	var rest []string
	for key, value := range mods {
		ident := key
		if _, isTable := value.(map[string]any); !isTable {
			ident, _, _ = strings.Cut(key, ".")
		}
		if !seen[ident] {
			rest = append(rest, ident)
		}
	}
	sort.Strings(rest)
	for _, ident := range rest {
		add(ident)
	}
	return order
}

func nativeFromTable(t map[string]any, where string) (NativeEntry, error) {
	var n NativeEntry
	var err error

	if n.Path, err = optString(t, "path", where); err != nil {
		return n, err
	}
	if n.NexusLink, err = optString(t, "nexus_link", where); err != nil {
		return n, err
	}
	if v, ok := t["optional"]; ok {
		if n.Optional, err = asBool(v, where+".optional"); err != nil {
			return n, err
		}
	}
	if v, ok := t["load_early"]; ok {
		if n.LoadEarly, err = asBool(v, where+".load_early"); err != nil {
			return n, err
		}
	}
	if v, ok := t["initializer"]; ok {
		if n.Initializer, err = parseInitializer(v, where+".initializer"); err != nil {
			return n, err
		}
	}
	if n.Finalizer, err = optString(t, "finalizer", where); err != nil {
		return n, err
	}
	if v, ok := t["config"]; ok {
		if n.Config, err = parseConfig(v, where+".config"); err != nil {
			return n, err
		}
	}
	if n.LoadBefore, err = parseDeps(t["load_before"], where+".load_before"); err != nil {
		return n, err
	}
	if n.LoadAfter, err = parseDeps(t["load_after"], where+".load_after"); err != nil {
		return n, err
	}
	return n, nil
}

func packageFromTable(t map[string]any, ident, where string) (PackageEntry, error) {
	var p PackageEntry
	var err error

	if p.Path, err = optString(t, "path", where); err != nil {
		return p, err
	}
	if p.Path == "" {
		if p.Path, err = optString(t, "source", where); err != nil {
			return p, err
		}
	}

	p.ID = ident
	if p.ID == "" {
		if p.ID, err = optString(t, "id", where); err != nil {
			return p, err
		}
	}
	if p.ID == "" {
		p.ID = packageIDFromPath(p.Path)
	}

	if p.LoadBefore, err = parseDeps(t["load_before"], where+".load_before"); err != nil {
		return p, err
	}
	if p.LoadAfter, err = parseDeps(t["load_after"], where+".load_after"); err != nil {
		return p, err
	}
	return p, nil
}

func parseInitializer(v any, where string) (*domain.Initializer, error) {
	switch t := v.(type) {
	case string:
		if t == "" {
			return nil, nil
		}
		return &domain.Initializer{Function: t}, nil
	case map[string]any:
		init := &domain.Initializer{}
		fn, err := optString(t, "function", where)
		if err != nil {
			return nil, err
		}
		init.Function = fn
		// function wins when both are given
		if d, ok := t["delay"]; ok && fn == "" {
			delay, ok := d.(map[string]any)
			if !ok {
				return nil, parseErrorf("%s.delay must be a table", where)
			}
			ms, ok := delay["ms"].(int64)
			if !ok {
				return nil, parseErrorf("%s.delay.ms must be an integer", where)
			}
			init.Delay = &domain.Delay{MS: ms}
		}
		if init.Function == "" && init.Delay == nil {
			return nil, nil
		}
		return init, nil
	default:
		return nil, parseErrorf("%s must be a table", where)
	}
}

func parseConfig(v any, where string) ([]string, error) {
	switch t := v.(type) {
	case string:
		if t == "" {
			return nil, nil
		}
		return []string{t}, nil
	default:
		items, err := asList(v, where)
		if err != nil {
			return nil, err
		}
		var out []string
		for i, item := range items {
			s, ok := item.(string)
			if !ok {
				return nil, parseErrorf("%s[%d] must be a string", where, i)
			}
			out = append(out, s)
		}
		return out, nil
	}
}

func parseDeps(v any, where string) ([]domain.Dependency, error) {
	if v == nil {
		return nil, nil
	}
	items, err := asList(v, where)
	if err != nil {
		return nil, err
	}
	var deps []domain.Dependency
	for i, item := range items {
		switch t := item.(type) {
		case string:
			deps = append(deps, domain.Dependency{ID: t})
		case map[string]any:
			id, err := optString(t, "id", fmt.Sprintf("%s[%d]", where, i))
			if err != nil {
				return nil, err
			}
			dep := domain.Dependency{ID: id}
			if o, ok := t["optional"]; ok {
				if dep.Optional, err = asBool(o, fmt.Sprintf("%s[%d].optional", where, i)); err != nil {
					return nil, err
				}
			}
			if dep.ID != "" {
				deps = append(deps, dep)
			}
		default:
			return nil, parseErrorf("%s[%d] must be a table or string", where, i)
		}
	}
	return deps, nil
}

// dedupe enforces unique native paths and package ids, first occurrence wins
func dedupe(doc *Document) {
	seenPaths := make(map[string]bool)
	natives := doc.Natives[:0]
	for _, n := range doc.Natives {
		if n.Path != "" {
			key := pathkey.Normalize(n.Path)
			if seenPaths[key] {
				continue
			}
			seenPaths[key] = true
		}
		natives = append(natives, n)
	}
	doc.Natives = natives

	seenIDs := make(map[string]bool)
	packages := doc.Packages[:0]
	for _, p := range doc.Packages {
		if seenIDs[p.ID] {
			continue
		}
		seenIDs[p.ID] = true
		packages = append(packages, p)
	}
	doc.Packages = packages
}

func asList(v any, where string) ([]any, error) {
	switch t := v.(type) {
	case []any:
		return t, nil
	case []map[string]any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = t[i]
		}
		return out, nil
	default:
		return nil, parseErrorf("%s must be an array", where)
	}
}

func asString(v any, where string) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", parseErrorf("%s must be a string", where)
	}
	return s, nil
}

func asBool(v any, where string) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, parseErrorf("%s must be a boolean", where)
	}
	return b, nil
}

func optString(m map[string]any, key, where string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", nil
	}
	if where != "" {
		key = where + "." + key
	}
	return asString(v, key)
}

func optBool(m map[string]any, key string) (*bool, error) {
	v, ok := m[key]
	if !ok {
		return nil, nil
	}
	b, err := asBool(v, key)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
