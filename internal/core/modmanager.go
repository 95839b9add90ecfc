package core

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/DonovanMods/me3-mod-manager/internal/domain"
	"github.com/DonovanMods/me3-mod-manager/internal/pathkey"
	"github.com/DonovanMods/me3-mod-manager/internal/profiledoc"
	"github.com/DonovanMods/me3-mod-manager/internal/scanner"
	"github.com/DonovanMods/me3-mod-manager/internal/source/nexusmods"
	"github.com/DonovanMods/me3-mod-manager/internal/storage/db"
)

const (
	msgNativeCreated  = "Created new native entry"
	msgNativeExists   = "Native entry already exists"
	msgNativeRemoved  = "Removed native entry"
	msgNativeDisabled = "Mod was already disabled"

	msgPackageCreated  = "Created new package entry"
	msgPackageExists   = "Package entry already exists"
	msgPackageRemoved  = "Removed package entry"
	msgPackageDisabled = "Package was already disabled"
)

// Outcome is the result of a mutation that did not fail
type Outcome struct {
	Changed bool // The profile or the mods dir was modified
	Message string
}

// GameContext is the resolved game and active profile one engine call works on
type GameContext struct {
	Game    *domain.Game
	Profile *domain.Profile
	Layout  pathkey.Layout
}

// Environment resolves games to their active profile
type Environment interface {
	Context(gameID string) (*GameContext, error)
	ReservedPackageIDs() []string
	ProfileVersion() profiledoc.Version
}

// ModManager reconciles mods on disk with the active profile of a game.
// Every mutation rewrites the profile before it returns.
type ModManager struct {
	env     Environment
	db      *db.DB
	scanner *scanner.Scanner
	logger  hclog.Logger
}

// NewModManager creates the engine. database holds external mods and Nexus links.
func NewModManager(env Environment, database *db.DB, logger hclog.Logger) *ModManager {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &ModManager{
		env:     env,
		db:      database,
		scanner: scanner.New(logger.Named("scanner")),
		logger:  logger,
	}
}

// session is one loaded profile
type session struct {
	ctx  *GameContext
	file *profileFile
	doc  *profiledoc.Document
}

func (s *session) save() error {
	return s.file.save(s.doc)
}

func (m *ModManager) begin(gameID string) (*session, error) {
	gc, err := m.env.Context(gameID)
	if err != nil {
		return nil, err
	}
	file := &profileFile{
		path:     gc.Profile.ProfilePath,
		version:  m.env.ProfileVersion(),
		reserved: m.env.ReservedPackageIDs(),
		logger:   m.logger,
	}
	doc, err := file.load()
	if err != nil {
		return nil, err
	}
	return &session{ctx: gc, file: file, doc: doc}, nil
}

// Document returns the active profile of a game as parsed
func (m *ModManager) Document(gameID string) (*profiledoc.Document, error) {
	s, err := m.begin(gameID)
	if err != nil {
		return nil, err
	}
	return s.doc, nil
}

// external is a tracked path outside the mods dir
type external struct {
	artifact domain.ModArtifact
	key      string
	missing  bool
}

func (m *ModManager) externals(gc *GameContext) ([]external, error) {
	paths, err := m.db.ExternalMods(gc.Game.ID, gc.Profile.ID)
	if err != nil {
		return nil, err
	}

	out := make([]external, 0, len(paths))
	for _, p := range paths {
		ext := external{key: gc.Layout.Key(p)}
		art, err := scanner.External(p)
		switch {
		case err == nil:
			ext.artifact = art
		case errors.Is(err, fs.ErrNotExist), errors.Is(err, domain.ErrValidation):
			if !errors.Is(err, fs.ErrNotExist) {
				m.logger.Warn("tracked external mod is no longer a mod", "path", p, "error", err)
			}
			ext.missing = true
			ext.artifact = missingArtifact(p)
		default:
			return nil, &domain.IOError{Op: "stat external mod", Path: p, Err: err}
		}
		out = append(out, ext)
	}
	return out, nil
}

func missingArtifact(p string) domain.ModArtifact {
	base := filepath.Base(p)
	if scanner.IsDLL(base) {
		return domain.ModArtifact{Path: p, Kind: domain.KindDLL, Name: strings.TrimSuffix(base, filepath.Ext(base)), IsExternal: true}
	}
	return domain.ModArtifact{Path: p, Kind: domain.KindPackage, Name: base, IsExternal: true}
}

// GetAllMods scans the mods dir, joins every artifact with the active profile
// and drops profile entries that no longer point at anything. The result is
// keyed by filesystem path.
func (m *ModManager) GetAllMods(gameID string) (map[string]domain.ModInfo, error) {
	s, err := m.begin(gameID)
	if err != nil {
		return nil, err
	}
	layout := s.ctx.Layout

	result, err := m.scanner.Scan(layout.ModsDir, scanner.Options{ExcludeDir: s.ctx.Game.ModsDir})
	if err != nil {
		return nil, err
	}
	externals, err := m.externals(s.ctx)
	if err != nil {
		return nil, err
	}

	keys := make(map[string]string, len(result.Artifacts))
	for _, a := range result.Artifacts {
		keys[a.Path] = layout.Key(a.Path)
	}

	changed := m.resolvePending(s)
	if m.canonicalize(s, keys, externals) {
		changed = true
	}
	if m.removeOrphans(s, result.Artifacts, keys, externals) {
		changed = true
	}
	if changed {
		if err := s.save(); err != nil {
			return nil, err
		}
	}

	mods := make(map[string]domain.ModInfo, len(result.Artifacts)+len(externals))
	for _, a := range result.Artifacts {
		mods[a.Path] = modInfo(s.doc, a, keys[a.Path])
	}
	for _, ext := range externals {
		info := modInfo(s.doc, ext.artifact, ext.key)
		if ext.missing {
			info.Status = domain.StatusMissing
		}
		mods[ext.artifact.Path] = info
	}

	m.logger.Debug("reconciled mods", "game", gameID, "profile", s.ctx.Profile.ID, "mods", len(mods))
	return mods, nil
}

func modInfo(doc *profiledoc.Document, a domain.ModArtifact, key string) domain.ModInfo {
	info := domain.ModInfo{ModArtifact: a, Key: key, Status: domain.StatusDisabled}
	if a.Kind.IsNative() {
		if i := doc.NativeIndex(key); i >= 0 {
			info.Status = domain.StatusEnabled
			info.Options = doc.Natives[i].Options()
			info.Config = doc.Natives[i].Config
		}
		return info
	}
	if i := doc.PackageIndex(a.Name, key); i >= 0 {
		info.Status = domain.StatusEnabled
		info.Options = doc.Packages[i].Options()
	}
	return info
}

// resolvePending fills in the path of natives that were added from a Nexus
// link once the metadata store knows where that mod was installed
func (m *ModManager) resolvePending(s *session) bool {
	if s.ctx.Game.NexusDomain == "" {
		return false
	}

	changed := false
	for i := 0; i < len(s.doc.Natives); i++ {
		n := s.doc.Natives[i]
		if !n.Pending() {
			continue
		}
		id, ok := nexusmods.ModIDFromURL(n.NexusLink)
		if !ok {
			continue
		}
		link, err := m.db.GetNexusLinkByMod(s.ctx.Game.NexusDomain, id)
		if err != nil {
			m.logger.Warn("looking up nexus link", "mod_id", id, "error", err)
			continue
		}
		if link == nil || !scanner.IsDLL(link.LocalPath) {
			continue
		}
		if info, err := os.Stat(link.LocalPath); err != nil || info.IsDir() {
			continue
		}

		key := s.ctx.Layout.Key(link.LocalPath)
		if s.doc.NativeIndex(key) >= 0 {
			s.doc.RemoveNative(i)
			i--
		} else {
			s.doc.Natives[i].Path = key
		}
		m.logger.Info("resolved pending native", "link", n.NexusLink, "key", key)
		changed = true
	}
	return changed
}

// canonicalize rewrites entries whose stored path is another spelling of a
// known artifact's key, so scanning and enabling agree on the key again
func (m *ModManager) canonicalize(s *session, keys map[string]string, externals []external) bool {
	layout := s.ctx.Layout
	known := make(map[string]bool, len(keys)+len(externals))
	for _, k := range keys {
		known[k] = true
	}
	for _, ext := range externals {
		known[ext.key] = true
	}

	changed := false
	for i, n := range s.doc.Natives {
		if n.Pending() || known[pathkey.Normalize(n.Path)] {
			continue
		}
		canon := layout.Key(layout.Path(n.Path))
		if known[canon] && s.doc.NativeIndex(canon) < 0 {
			m.logger.Info("normalized native path", "from", n.Path, "to", canon)
			s.doc.Natives[i].Path = canon
			changed = true
		}
	}
	for i, p := range s.doc.Packages {
		if p.Path == "" || known[pathkey.Normalize(p.Path)] {
			continue
		}
		canon := layout.Key(layout.Path(p.Path))
		if known[canon] && s.doc.PackageIndex("", canon) < 0 {
			m.logger.Info("normalized package path", "from", p.Path, "to", canon)
			s.doc.Packages[i].Path = canon
			changed = true
		}
	}
	return changed
}

// removeOrphans drops entries whose artifact is gone. Tracked externals and
// pending natives are kept even when nothing exists on disk.
func (m *ModManager) removeOrphans(s *session, artifacts []domain.ModArtifact, keys map[string]string, externals []external) bool {
	nativeKeys := make(map[string]bool)
	packageKeys := make(map[string]bool)
	packageNames := make(map[string]bool)

	for _, a := range artifacts {
		if a.Kind.IsNative() {
			nativeKeys[keys[a.Path]] = true
		} else {
			packageKeys[keys[a.Path]] = true
			packageNames[a.Name] = true
		}
	}
	for _, ext := range externals {
		nativeKeys[ext.key] = true
		packageKeys[ext.key] = true
		if !ext.missing && ext.artifact.Kind == domain.KindPackage {
			packageNames[ext.artifact.Name] = true
		}
	}

	changed := false
	natives := s.doc.Natives[:0]
	for _, n := range s.doc.Natives {
		if n.Pending() || nativeKeys[pathkey.Normalize(n.Path)] {
			natives = append(natives, n)
			continue
		}
		m.logger.Warn("removing orphaned native", "path", n.Path)
		changed = true
	}
	s.doc.Natives = natives

	packages := s.doc.Packages[:0]
	for _, p := range s.doc.Packages {
		if packageNames[p.ID] || (p.Path != "" && packageKeys[pathkey.Normalize(p.Path)]) {
			packages = append(packages, p)
			continue
		}
		m.logger.Warn("removing orphaned package", "id", p.ID, "path", p.Path)
		changed = true
	}
	s.doc.Packages = packages

	return changed
}

// target is an artifact addressed by a mutation
type target struct {
	path string
	key  string
	kind domain.ModKind
	name string
}

// classify works out what kind of mod lives at p. With mustExist a missing
// path is ErrModNotFound; otherwise it is classified by name alone.
func (m *ModManager) classify(gc *GameContext, p string, mustExist bool) (target, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return target{}, fmt.Errorf("%w: %s: %v", domain.ErrPathResolution, p, err)
	}

	info, statErr := os.Stat(abs)
	if statErr != nil {
		if !errors.Is(statErr, fs.ErrNotExist) {
			return target{}, &domain.IOError{Op: "stat", Path: abs, Err: statErr}
		}
		if mustExist {
			return target{}, fmt.Errorf("%w: %s", domain.ErrModNotFound, p)
		}
	}

	base := filepath.Base(abs)
	t := target{path: abs, key: gc.Layout.Key(abs)}
	switch {
	case statErr == nil && info.IsDir():
		if gc.Layout.Contains(abs) && !scanner.IsPackageDir(abs) {
			return target{}, domain.NewValidationError("%s is not a mod folder (no asset folders or regulation file)", base)
		}
		t.kind = domain.KindPackage
		t.name = base
	case scanner.IsDLL(base):
		t.kind = domain.KindDLL
		t.name = strings.TrimSuffix(base, filepath.Ext(base))
		if rel, err := gc.Layout.Relative(abs); err == nil && strings.Contains(rel, "/") {
			t.kind = domain.KindNestedDLL
			t.name = strings.SplitN(rel, "/", 2)[0] + "/" + t.name
		}
	case statErr != nil:
		t.kind = domain.KindPackage
		t.name = base
	default:
		return target{}, domain.NewValidationError("%s is neither a DLL nor a mod folder", base)
	}
	return t, nil
}

func (m *ModManager) isReserved(id string) bool {
	for _, r := range m.env.ReservedPackageIDs() {
		if r == id {
			return true
		}
	}
	return false
}

// setEnabled applies the enable/disable state machine to the loaded document only
func (m *ModManager) setEnabled(s *session, t target, enabled bool) (Outcome, error) {
	doc := s.doc

	if t.kind.IsNative() {
		idx := doc.NativeIndex(t.key)
		switch {
		case enabled && idx >= 0:
			return Outcome{Message: msgNativeExists}, nil
		case enabled:
			doc.Natives = append(doc.Natives, profiledoc.NativeEntry{Path: t.key})
			return Outcome{Changed: true, Message: msgNativeCreated}, nil
		case idx < 0:
			return Outcome{Message: msgNativeDisabled}, nil
		default:
			doc.RemoveNative(idx)
			return Outcome{Changed: true, Message: msgNativeRemoved}, nil
		}
	}

	if m.isReserved(t.name) {
		return Outcome{}, domain.NewValidationError("%s is the game's main mods folder and is always loaded", t.name)
	}
	idx := doc.PackageIndex(t.name, t.key)
	switch {
	case enabled && idx >= 0:
		return Outcome{Message: msgPackageExists}, nil
	case enabled:
		doc.Packages = append(doc.Packages, profiledoc.PackageEntry{ID: t.name, Path: t.key})
		return Outcome{Changed: true, Message: msgPackageCreated}, nil
	case idx < 0:
		return Outcome{Message: msgPackageDisabled}, nil
	default:
		doc.RemovePackage(idx)
		return Outcome{Changed: true, Message: msgPackageRemoved}, nil
	}
}

// SetModEnabled adds or removes the profile entry for the mod at path.
// Repeating a call is a no-op that reports Changed=false.
func (m *ModManager) SetModEnabled(gameID, path string, enabled bool) (Outcome, error) {
	s, err := m.begin(gameID)
	if err != nil {
		return Outcome{}, err
	}
	t, err := m.classify(s.ctx, path, enabled)
	if err != nil {
		return Outcome{}, err
	}

	out, err := m.setEnabled(s, t, enabled)
	if err != nil || !out.Changed {
		return out, err
	}
	if err := s.save(); err != nil {
		return Outcome{}, err
	}
	m.logger.Info(out.Message, "game", gameID, "path", t.path, "key", t.key)
	return out, nil
}

// packageDirs lists every folder the regulation operations may touch. ME3
// loads regulation.bin from any top-level folder, so .me3ignore is not consulted.
func (m *ModManager) packageDirs(gc *GameContext) ([]domain.ModArtifact, error) {
	entries, err := os.ReadDir(gc.Layout.ModsDir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, &domain.IOError{Op: "scan", Path: gc.Layout.ModsDir, Err: err}
	}
	externals, err := m.externals(gc)
	if err != nil {
		return nil, err
	}

	var dirs []domain.ModArtifact
	for _, e := range entries {
		// symlinked folders are never followed, matching the scanner
		if !e.IsDir() || e.Name() == gc.Game.ModsDir {
			continue
		}
		dirs = append(dirs, domain.ModArtifact{
			Path: filepath.Join(gc.Layout.ModsDir, e.Name()),
			Kind: domain.KindPackage,
			Name: e.Name(),
		})
	}
	for _, ext := range externals {
		if !ext.missing && ext.artifact.Kind == domain.KindPackage {
			dirs = append(dirs, ext.artifact)
		}
	}
	return dirs, nil
}

func renameRegulation(dir string, activate bool) error {
	from, to := filepath.Join(dir, scanner.RegulationFile), filepath.Join(dir, scanner.RegulationDisabled)
	if activate {
		from, to = to, from
	}
	if err := os.Rename(from, to); err != nil {
		return &domain.IOError{Op: "rename regulation", Path: from, Err: err}
	}
	return nil
}

// SetRegulationActive makes name's regulation.bin the only active one.
// Other packages are switched off first; the state is re-read from disk on every call.
func (m *ModManager) SetRegulationActive(gameID, name string) (Outcome, error) {
	gc, err := m.env.Context(gameID)
	if err != nil {
		return Outcome{}, err
	}
	dirs, err := m.packageDirs(gc)
	if err != nil {
		return Outcome{}, err
	}

	var tgt *domain.ModArtifact
	var others []domain.ModArtifact
	for i := range dirs {
		if dirs[i].Name == name && tgt == nil {
			tgt = &dirs[i]
			continue
		}
		if active, _ := scanner.Regulation(dirs[i].Path); active {
			others = append(others, dirs[i])
		}
	}
	if tgt == nil {
		return Outcome{}, domain.NewValidationError("mod folder not found: %s", name)
	}
	active, present := scanner.Regulation(tgt.Path)
	if !present {
		return Outcome{}, domain.NewValidationError("no regulation file found for %s", name)
	}
	if active && len(others) == 0 {
		return Outcome{Message: fmt.Sprintf("Regulation from %s is already active", name)}, nil
	}

	for _, o := range others {
		if err := renameRegulation(o.Path, false); err != nil {
			return Outcome{}, err
		}
		m.logger.Info("disabled regulation", "package", o.Name)
	}
	if !active {
		if err := renameRegulation(tgt.Path, true); err != nil {
			return Outcome{}, err
		}
	}
	m.logger.Info("activated regulation", "game", gameID, "package", name)
	return Outcome{Changed: true, Message: fmt.Sprintf("Activated regulation from %s", name)}, nil
}

// DisableAllRegulations switches every package's regulation.bin off
func (m *ModManager) DisableAllRegulations(gameID string) (Outcome, error) {
	gc, err := m.env.Context(gameID)
	if err != nil {
		return Outcome{}, err
	}
	dirs, err := m.packageDirs(gc)
	if err != nil {
		return Outcome{}, err
	}

	n := 0
	for _, d := range dirs {
		if active, _ := scanner.Regulation(d.Path); !active {
			continue
		}
		if err := renameRegulation(d.Path, false); err != nil {
			return Outcome{}, err
		}
		n++
	}
	if n == 0 {
		return Outcome{Message: "No active regulation files"}, nil
	}
	m.logger.Info("disabled regulations", "game", gameID, "count", n)
	return Outcome{Changed: true, Message: fmt.Sprintf("Disabled %d regulation file(s)", n)}, nil
}

func (m *ModManager) isTracked(gc *GameContext, p string) (string, bool, error) {
	paths, err := m.db.ExternalMods(gc.Game.ID, gc.Profile.ID)
	if err != nil {
		return "", false, err
	}
	want := pathkey.Normalize(pathkey.Resolve(p))
	for _, tracked := range paths {
		if pathkey.Normalize(pathkey.Resolve(tracked)) == want {
			return tracked, true, nil
		}
	}
	return "", false, nil
}

// AddExternalMod tracks a DLL or mod folder outside the mods dir for the
// active profile and enables it
func (m *ModManager) AddExternalMod(gameID, path string) (Outcome, error) {
	s, err := m.begin(gameID)
	if err != nil {
		return Outcome{}, err
	}

	abs := pathkey.Resolve(path)
	art, err := scanner.External(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Outcome{}, domain.NewValidationError("%s does not exist", path)
		}
		return Outcome{}, err
	}
	if s.ctx.Layout.Contains(abs) {
		return Outcome{}, domain.NewValidationError("%s is inside the mods folder and is already managed", path)
	}
	if _, tracked, err := m.isTracked(s.ctx, abs); err != nil {
		return Outcome{}, err
	} else if tracked {
		return Outcome{}, domain.NewValidationError("%s is already tracked", path)
	}

	if err := m.db.TrackExternalMod(s.ctx.Game.ID, s.ctx.Profile.ID, abs); err != nil {
		return Outcome{}, err
	}

	t := target{path: abs, key: s.ctx.Layout.Key(abs), kind: art.Kind, name: art.Name}
	out, err := m.setEnabled(s, t, true)
	if err == nil && out.Changed {
		err = s.save()
	}
	if err != nil {
		if _, uerr := m.db.UntrackExternalMod(s.ctx.Game.ID, s.ctx.Profile.ID, abs); uerr != nil {
			m.logger.Error("untracking external mod after failed enable", "path", abs, "error", uerr)
		}
		return Outcome{}, err
	}

	m.logger.Info("added external mod", "game", gameID, "path", abs, "key", t.key)
	return Outcome{Changed: true, Message: fmt.Sprintf("Added external mod %s", art.Name)}, nil
}

// RemoveMod disables a mod and then gets rid of it: internal files are
// deleted, external mods are untracked, nested DLLs stay on disk.
func (m *ModManager) RemoveMod(gameID, path string) (Outcome, error) {
	s, err := m.begin(gameID)
	if err != nil {
		return Outcome{}, err
	}

	t, err := m.classify(s.ctx, path, false)
	if err != nil {
		return Outcome{}, err
	}
	tracked, isExternal, err := m.isTracked(s.ctx, t.path)
	if err != nil {
		return Outcome{}, err
	}
	if !isExternal && !s.ctx.Layout.Contains(t.path) {
		return Outcome{}, domain.NewValidationError("%s is not managed by this profile", path)
	}

	out, err := m.setEnabled(s, t, false)
	if err != nil {
		return Outcome{}, err
	}
	if out.Changed {
		if err := s.save(); err != nil {
			return Outcome{}, err
		}
	}

	var msg string
	switch {
	case isExternal:
		if _, err := m.db.UntrackExternalMod(s.ctx.Game.ID, s.ctx.Profile.ID, tracked); err != nil {
			return Outcome{}, err
		}
		msg = fmt.Sprintf("Stopped tracking %s; files kept", t.name)
	case t.kind == domain.KindNestedDLL:
		msg = fmt.Sprintf("Disabled %s; nested DLLs stay with their package", t.name)
	case t.kind == domain.KindPackage:
		if err := os.RemoveAll(t.path); err != nil {
			return Outcome{}, &domain.IOError{Op: "delete package", Path: t.path, Err: err}
		}
		msg = fmt.Sprintf("Deleted package %s", t.name)
	default:
		if err := os.Remove(t.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Outcome{}, &domain.IOError{Op: "delete dll", Path: t.path, Err: err}
		}
		cfgDir := filepath.Join(filepath.Dir(t.path), t.name)
		if info, err := os.Stat(cfgDir); err == nil && info.IsDir() {
			if err := os.RemoveAll(cfgDir); err != nil {
				return Outcome{}, &domain.IOError{Op: "delete config folder", Path: cfgDir, Err: err}
			}
		}
		msg = fmt.Sprintf("Deleted %s", t.name)
	}

	if err := m.db.DeleteNexusLink(t.path); err != nil {
		m.logger.Warn("dropping nexus link", "path", t.path, "error", err)
	}
	m.logger.Info("removed mod", "game", gameID, "path", t.path)
	return Outcome{Changed: true, Message: msg}, nil
}

// UpdateAdvancedOptions replaces the advanced options of an enabled entry.
// Options left at their zero value are removed from the entry.
func (m *ModManager) UpdateAdvancedOptions(gameID, path string, opts domain.AdvancedOptions, isPackage bool) (Outcome, error) {
	s, err := m.begin(gameID)
	if err != nil {
		return Outcome{}, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %s: %v", domain.ErrPathResolution, path, err)
	}
	key := s.ctx.Layout.Key(abs)

	var before, after domain.AdvancedOptions
	if isPackage {
		idx := s.doc.PackageIndex(filepath.Base(abs), key)
		if idx < 0 {
			return Outcome{}, domain.NewValidationError("%s is not enabled", filepath.Base(abs))
		}
		before = s.doc.Packages[idx].Options()
		s.doc.Packages[idx].SetOptions(opts)
		after = s.doc.Packages[idx].Options()
	} else {
		idx := s.doc.NativeIndex(key)
		if idx < 0 {
			return Outcome{}, domain.NewValidationError("%s is not enabled", filepath.Base(abs))
		}
		before = s.doc.Natives[idx].Options()
		s.doc.Natives[idx].SetOptions(opts)
		after = s.doc.Natives[idx].Options()
	}

	if optionsEqual(before, after) {
		return Outcome{Message: "Advanced options unchanged"}, nil
	}
	if err := s.save(); err != nil {
		return Outcome{}, err
	}
	m.logger.Info("updated advanced options", "game", gameID, "key", key)
	return Outcome{Changed: true, Message: "Updated advanced options"}, nil
}

// EnableNativeWithOptions enables a DLL and sets its advanced options in one write
func (m *ModManager) EnableNativeWithOptions(gameID, path string, opts domain.AdvancedOptions) (Outcome, error) {
	s, err := m.begin(gameID)
	if err != nil {
		return Outcome{}, err
	}
	t, err := m.classify(s.ctx, path, true)
	if err != nil {
		return Outcome{}, err
	}
	if !t.kind.IsNative() {
		return Outcome{}, domain.NewValidationError("%s is not a DLL", filepath.Base(t.path))
	}

	out, err := m.setEnabled(s, t, true)
	if err != nil {
		return Outcome{}, err
	}
	idx := s.doc.NativeIndex(t.key)
	before := s.doc.Natives[idx].Options()
	s.doc.Natives[idx].SetOptions(opts)
	if !optionsEqual(before, s.doc.Natives[idx].Options()) {
		out.Changed = true
		out.Message += "; options updated"
	}
	if !out.Changed {
		return out, nil
	}
	if err := s.save(); err != nil {
		return Outcome{}, err
	}
	m.logger.Info(out.Message, "game", gameID, "key", t.key)
	return out, nil
}

func optionsEqual(a, b domain.AdvancedOptions) bool {
	a, b = a.Normalized(), b.Normalized()
	if a.Optional != b.Optional || a.LoadEarly != b.LoadEarly || a.Finalizer != b.Finalizer {
		return false
	}
	if !initializerEqual(a.Initializer, b.Initializer) {
		return false
	}
	return depsEqual(a.LoadBefore, b.LoadBefore) && depsEqual(a.LoadAfter, b.LoadAfter)
}

func initializerEqual(a, b *domain.Initializer) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Function != b.Function {
		return false
	}
	if a.Delay == nil || b.Delay == nil {
		return a.Delay == b.Delay
	}
	return a.Delay.MS == b.Delay.MS
}

func depsEqual(a, b []domain.Dependency) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ConfigPaths returns the config files of a native. Without explicit config
// values it is <dir of dll>/<stem>/config.ini.
func (m *ModManager) ConfigPaths(gameID, path string) ([]string, error) {
	s, err := m.begin(gameID)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrPathResolution, path, err)
	}

	if idx := s.doc.NativeIndex(s.ctx.Layout.Key(abs)); idx >= 0 && len(s.doc.Natives[idx].Config) > 0 {
		paths := make([]string, 0, len(s.doc.Natives[idx].Config))
		for _, c := range s.doc.Natives[idx].Config {
			paths = append(paths, s.ctx.Layout.Path(c))
		}
		return paths, nil
	}

	base := filepath.Base(abs)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return []string{filepath.Join(filepath.Dir(abs), stem, "config.ini")}, nil
}

// SetConfigPath points an enabled native at a single config file
func (m *ModManager) SetConfigPath(gameID, path, configPath string) (Outcome, error) {
	s, err := m.begin(gameID)
	if err != nil {
		return Outcome{}, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %s: %v", domain.ErrPathResolution, path, err)
	}
	cfgAbs, err := filepath.Abs(configPath)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %s: %v", domain.ErrPathResolution, configPath, err)
	}

	idx := s.doc.NativeIndex(s.ctx.Layout.Key(abs))
	if idx < 0 {
		return Outcome{}, domain.NewValidationError("%s is not enabled", filepath.Base(abs))
	}

	stored := s.ctx.Layout.Key(cfgAbs)
	if cur := s.doc.Natives[idx].Config; len(cur) == 1 && cur[0] == stored {
		return Outcome{Message: "Config path unchanged"}, nil
	}
	s.doc.Natives[idx].Config = []string{stored}
	if err := s.save(); err != nil {
		return Outcome{}, err
	}
	m.logger.Info("set config path", "game", gameID, "config", stored)
	return Outcome{Changed: true, Message: "Updated config path"}, nil
}

// LoadOrder orders the enabled entries of the active profile and reports broken relations.
// A cycle is returned as an error wrapping domain.ErrDependencyLoop.
func (m *ModManager) LoadOrder(gameID string) ([]profiledoc.LoadNode, []profiledoc.Problem, error) {
	doc, err := m.Document(gameID)
	if err != nil {
		return nil, nil, err
	}
	resolver := profiledoc.NewLoadOrderResolver()
	problems := resolver.Validate(doc)
	order, err := resolver.Resolve(doc)
	return order, problems, err
}

// ConvertProfile rewrites the active profile in another schema version.
// Converting to v2 records the game's launch slug.
func (m *ModManager) ConvertProfile(gameID string, version profiledoc.Version) (Outcome, error) {
	s, err := m.begin(gameID)
	if err != nil {
		return Outcome{}, err
	}

	changed := s.doc.Version != version
	if version == profiledoc.V2 && s.doc.Launch == "" {
		s.doc.Launch = s.ctx.Game.LaunchSlug()
		changed = true
	}
	s.doc.Version = version

	if err := s.save(); err != nil {
		return Outcome{}, err
	}
	if !changed {
		return Outcome{Message: fmt.Sprintf("Profile is already %s", version)}, nil
	}
	m.logger.Info("converted profile", "game", gameID, "version", version)
	return Outcome{Changed: true, Message: fmt.Sprintf("Converted profile to %s", version)}, nil
}

// FindMod looks a mod up by filesystem path, profile key or display name
func (m *ModManager) FindMod(gameID, ref string) (domain.ModInfo, error) {
	mods, err := m.GetAllMods(gameID)
	if err != nil {
		return domain.ModInfo{}, err
	}

	if abs, err := filepath.Abs(ref); err == nil {
		if info, ok := mods[abs]; ok {
			return info, nil
		}
	}

	var matches []domain.ModInfo
	for _, info := range domain.SortedMods(mods) {
		if info.Key == pathkey.Normalize(ref) || strings.EqualFold(info.Name, ref) {
			matches = append(matches, info)
		}
	}
	switch len(matches) {
	case 0:
		return domain.ModInfo{}, fmt.Errorf("%w: %s", domain.ErrModNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return domain.ModInfo{}, domain.NewValidationError("%q matches %d mods; use the full path", ref, len(matches))
	}
}
