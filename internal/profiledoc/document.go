// Package profiledoc models ME3 profile documents and converts them to and from TOML.
package profiledoc

import (
	"fmt"
	"path"
	"strings"

	"github.com/DonovanMods/me3-mod-manager/internal/domain"
	"github.com/DonovanMods/me3-mod-manager/internal/pathkey"
)

// Version is the on-disk schema of a profile
type Version string

const (
	V1 Version = "v1" // [[natives]] / [[packages]] arrays
	V2 Version = "v2" // [game] + [mods] tables
)

// ParseVersion accepts "v1" or "v2" in any case
func ParseVersion(s string) (Version, error) {
	switch Version(strings.ToLower(strings.TrimSpace(s))) {
	case V1:
		return V1, nil
	case V2:
		return V2, nil
	default:
		return "", fmt.Errorf("%w: unknown profile version %q", domain.ErrInvalidConfig, s)
	}
}

// Support is one [[supports]] entry
type Support struct {
	Game string
}

// NativeEntry is an enabled DLL mod. Absence from the document means disabled.
type NativeEntry struct {
	Path        string
	Optional    bool
	LoadEarly   bool
	Initializer *domain.Initializer
	Finalizer   string
	Config      []string
	LoadBefore  []domain.Dependency
	LoadAfter   []domain.Dependency
	NexusLink   string // set on entries still waiting for a download
}

// Pending reports whether the entry only references a Nexus page so far
func (n NativeEntry) Pending() bool {
	return n.Path == "" && n.NexusLink != ""
}

// Identifier is the name other entries use in load_before/load_after
func (n NativeEntry) Identifier() string {
	return Identifier(n.Path)
}

// Options returns the advanced options carried by the entry
func (n NativeEntry) Options() domain.AdvancedOptions {
	return domain.AdvancedOptions{
		Optional:    n.Optional,
		LoadEarly:   n.LoadEarly,
		Initializer: n.Initializer,
		Finalizer:   n.Finalizer,
		LoadBefore:  n.LoadBefore,
		LoadAfter:   n.LoadAfter,
	}
}

// SetOptions replaces every advanced option; unset values disappear from the entry
func (n *NativeEntry) SetOptions(o domain.AdvancedOptions) {
	o = o.Normalized()
	n.Optional = o.Optional
	n.LoadEarly = o.LoadEarly
	n.Initializer = o.Initializer
	n.Finalizer = o.Finalizer
	n.LoadBefore = o.LoadBefore
	n.LoadAfter = o.LoadAfter
}

// PackageEntry is an enabled asset folder
type PackageEntry struct {
	ID         string
	Path       string
	LoadBefore []domain.Dependency
	LoadAfter  []domain.Dependency
}

// Options returns the load-order options of the package
func (p PackageEntry) Options() domain.AdvancedOptions {
	return domain.AdvancedOptions{LoadBefore: p.LoadBefore, LoadAfter: p.LoadAfter}
}

// SetOptions replaces the load-order options. Other fields do not apply to packages.
func (p *PackageEntry) SetOptions(o domain.AdvancedOptions) {
	o = o.Normalized()
	p.LoadBefore = o.LoadBefore
	p.LoadAfter = o.LoadAfter
}

// Document is the canonical in-memory profile
type Document struct {
	Version      Version
	Savefile     string
	StartOnline  *bool
	DisableArxan *bool
	Launch       string // [game].launch, only written by v2
	Supports     []Support
	Natives      []NativeEntry
	Packages     []PackageEntry
}

// New returns an empty document
func New(v Version) *Document {
	if v == "" {
		v = V1
	}
	return &Document{Version: v}
}

// NativeIndex returns the index of the native whose normalized path equals key, or -1
func (d *Document) NativeIndex(key string) int {
	key = pathkey.Normalize(key)
	if key == "" {
		return -1
	}
	for i, n := range d.Natives {
		if pathkey.Normalize(n.Path) == key {
			return i
		}
	}
	return -1
}

// PackageIndex returns the index of the package matching id or, failing that, key. -1 if none.
func (d *Document) PackageIndex(id, key string) int {
	for i, p := range d.Packages {
		if id != "" && p.ID == id {
			return i
		}
	}
	key = pathkey.Normalize(key)
	if key == "" {
		return -1
	}
	for i, p := range d.Packages {
		if pathkey.Normalize(p.Path) == key {
			return i
		}
	}
	return -1
}

// RemoveNative drops the native at index i
func (d *Document) RemoveNative(i int) {
	d.Natives = append(d.Natives[:i], d.Natives[i+1:]...)
}

// RemovePackage drops the package at index i
func (d *Document) RemovePackage(i int) {
	d.Packages = append(d.Packages[:i], d.Packages[i+1:]...)
}

// WithoutPackages returns a shallow copy with the given package ids filtered out
func (d *Document) WithoutPackages(ids ...string) *Document {
	skip := make(map[string]bool, len(ids))
	for _, id := range ids {
		skip[id] = true
	}
	out := *d
	out.Packages = nil
	for _, p := range d.Packages {
		if !skip[p.ID] {
			out.Packages = append(out.Packages, p)
		}
	}
	return &out
}

// Identifier derives the name of a native from its path: the file stem
// with everything but letters, digits, '_' and '-' removed.
func Identifier(p string) string {
	base := path.Base(pathkey.Normalize(p))
	stem := strings.TrimSuffix(base, path.Ext(base))

	var b strings.Builder
	for _, r := range stem {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "native"
	}
	return b.String()
}

// packageIDFromPath is the id given to legacy package entries that only carry a path
func packageIDFromPath(p string) string {
	p = strings.TrimSuffix(pathkey.Normalize(p), "/")
	if p == "" || p == "." {
		return ""
	}
	return path.Base(p)
}
