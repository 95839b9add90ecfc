package domain

import "sort"

// ModKind classifies a discovered artifact
type ModKind int

const (
	KindDLL       ModKind = iota // DLL directly inside the mods root
	KindPackage                  // Folder of game assets
	KindNestedDLL                // DLL somewhere inside a package
)

func (k ModKind) String() string {
	switch k {
	case KindDLL:
		return "dll"
	case KindPackage:
		return "package"
	case KindNestedDLL:
		return "nested_dll"
	default:
		return "unknown"
	}
}

// IsNative reports whether the artifact is loaded as a [[natives]] entry
func (k ModKind) IsNative() bool {
	return k == KindDLL || k == KindNestedDLL
}

// Status is the reconciled state of an artifact against the active profile
type Status int

const (
	StatusDisabled Status = iota
	StatusEnabled
	StatusMissing // Tracked external mod whose path no longer exists
)

func (s Status) String() string {
	switch s {
	case StatusEnabled:
		return "enabled"
	case StatusDisabled:
		return "disabled"
	case StatusMissing:
		return "missing"
	default:
		return "unknown"
	}
}

// ModArtifact is a single discoverable unit on disk. It is rebuilt on every scan.
type ModArtifact struct {
	Path             string  // Absolute filesystem path
	Kind             ModKind // dll, package or nested_dll
	Name             string  // Stem, folder name, or "<parent>/<stem>"
	IsExternal       bool    // Tracked outside the mods dir
	HasRegulation    bool    // Package holds regulation.bin or regulation.bin.disabled
	RegulationActive bool    // Package holds the active regulation.bin
	ParentPackage    string  // Owning package name for nested DLLs
}

// ModInfo is an artifact joined with its profile state
type ModInfo struct {
	ModArtifact
	Key     string          // Path Key used in the profile
	Status  Status          // Derived once during reconciliation
	Options AdvancedOptions // Copied from the matching profile entry
	Config  []string        // Raw config values from the native entry
}

// Enabled is shorthand for Status == StatusEnabled
func (m ModInfo) Enabled() bool {
	return m.Status == StatusEnabled
}

// SortedMods returns the map values ordered by kind, then name
func SortedMods(mods map[string]ModInfo) []ModInfo {
	out := make([]ModInfo, 0, len(mods))
	for _, m := range mods {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// Dependency is a load-order relation to another entry's id or file stem
type Dependency struct {
	ID       string
	Optional bool
}

// Delay is the {delay = {ms = N}} initializer form
type Delay struct {
	MS int64
}

// Initializer runs after a native is loaded: either a named export or a delay
type Initializer struct {
	Function string
	Delay    *Delay
}

// AdvancedOptions are the per-entry knobs that update_advanced_options manages.
// Zero values mean "absent" and are never serialized.
type AdvancedOptions struct {
	Optional    bool
	LoadEarly   bool
	Initializer *Initializer
	Finalizer   string
	LoadBefore  []Dependency
	LoadAfter   []Dependency
}

// IsZero reports whether no option is set
func (o AdvancedOptions) IsZero() bool {
	return !o.Optional && !o.LoadEarly && o.Initializer == nil && o.Finalizer == "" &&
		len(o.LoadBefore) == 0 && len(o.LoadAfter) == 0
}

// Normalized drops values that are equivalent to absence
func (o AdvancedOptions) Normalized() AdvancedOptions {
	if o.Initializer != nil && o.Initializer.Function == "" && o.Initializer.Delay == nil {
		o.Initializer = nil
	}
	if len(o.LoadBefore) == 0 {
		o.LoadBefore = nil
	}
	if len(o.LoadAfter) == 0 {
		o.LoadAfter = nil
	}
	return o
}
