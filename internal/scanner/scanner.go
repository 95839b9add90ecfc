// Package scanner discovers mod artifacts in an ME3 mods directory.
package scanner

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-hclog"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/DonovanMods/me3-mod-manager/internal/domain"
)

const (
	RegulationFile     = "regulation.bin"
	RegulationDisabled = "regulation.bin.disabled"

	// IgnoreFile lists paths, gitignore style, that the scanner should not report
	IgnoreFile = ".me3ignore"
)

// AcceptableFolders are the game asset folder names that mark a directory as a package
var AcceptableFolders = []string{
	"_backup", "_unknown", "action", "asset", "chr", "cutscene", "event",
	"font", "map", "material", "menu", "movie", "msg", "other", "param",
	"parts", "script", "sd", "sfx", "shader", "sound",
}

var acceptable = func() map[string]bool {
	m := make(map[string]bool, len(AcceptableFolders))
	for _, f := range AcceptableFolders {
		m[f] = true
	}
	return m
}()

// Options tune a single scan
type Options struct {
	ExcludeDir string // The game's own mods folder name; never reported as a package
}

// Result is what a scan found
type Result struct {
	Artifacts        []domain.ModArtifact
	ActiveRegulation string // Name of the package holding regulation.bin, if any
}

// Scanner walks mods directories. It only reads.
type Scanner struct {
	logger hclog.Logger
}

// New creates a scanner. A nil logger discards output.
func New(logger hclog.Logger) *Scanner {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Scanner{logger: logger}
}

// Scan classifies everything under modsDir. A missing directory yields an empty result.
func (s *Scanner) Scan(modsDir string, opts Options) (*Result, error) {
	entries, err := os.ReadDir(modsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Result{}, nil
		}
		return nil, &domain.IOError{Op: "scan", Path: modsDir, Err: err}
	}

	filter := s.loadIgnore(modsDir)
	result := &Result{}
	var dlls, packages, nested []domain.ModArtifact
	var regulationHolders []string

	for _, entry := range entries {
		name := entry.Name()
		full := filepath.Join(modsDir, name)
		if filter.ignored(name) {
			s.logger.Debug("ignored by .me3ignore", "path", name)
			continue
		}

		isDir := entry.IsDir()
		if entry.Type()&fs.ModeSymlink != 0 {
			info, err := os.Stat(full)
			if err != nil || info.IsDir() {
				s.logger.Debug("skipping symlink", "path", full)
				continue
			}
		}

		if !isDir {
			if isDLL(name) {
				dlls = append(dlls, domain.ModArtifact{Path: full, Kind: domain.KindDLL, Name: stem(name)})
			}
			continue
		}

		if name == opts.ExcludeDir || !IsPackageDir(full) {
			continue
		}

		pkg := domain.ModArtifact{Path: full, Kind: domain.KindPackage, Name: name}
		active, present := Regulation(full)
		pkg.HasRegulation = present
		if active {
			regulationHolders = append(regulationHolders, name)
		}
		packages = append(packages, pkg)
		nested = append(nested, s.scanNested(full, name, filter)...)
	}

	if len(regulationHolders) > 0 {
		result.ActiveRegulation = regulationHolders[0]
		if len(regulationHolders) > 1 {
			s.logger.Warn("more than one active regulation.bin", "packages", regulationHolders, "using", result.ActiveRegulation)
		}
		for i := range packages {
			packages[i].RegulationActive = packages[i].Name == result.ActiveRegulation
		}
	}

	result.Artifacts = append(result.Artifacts, dlls...)
	result.Artifacts = append(result.Artifacts, packages...)
	result.Artifacts = append(result.Artifacts, nested...)

	s.logger.Debug("scanned mods dir", "path", modsDir, "dlls", len(dlls), "packages", len(packages), "nested", len(nested))
	return result, nil
}

// scanNested finds DLLs at any depth below a package. Symlinks and unreadable
// directories are skipped.
func (s *Scanner) scanNested(pkgDir, pkgName string, filter *ignoreFilter) []domain.ModArtifact {
	var found []domain.ModArtifact

	_ = filepath.WalkDir(pkgDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			s.logger.Warn("skipping unreadable path", "path", p, "error", err)
			if d != nil && d.IsDir() && p != pkgDir {
				return fs.SkipDir
			}
			return nil
		}
		if p == pkgDir {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		rel, relErr := filepath.Rel(filepath.Dir(pkgDir), p)
		if relErr == nil && filter.ignored(filepath.ToSlash(rel)) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if !d.IsDir() && isDLL(d.Name()) {
			found = append(found, domain.ModArtifact{
				Path:          p,
				Kind:          domain.KindNestedDLL,
				Name:          pkgName + "/" + stem(d.Name()),
				ParentPackage: pkgName,
			})
		}
		return nil
	})

	sort.Slice(found, func(i, j int) bool { return found[i].Path < found[j].Path })
	return found
}

// External describes a tracked path outside the mods dir. It returns
// fs.ErrNotExist when the path is gone, and ErrValidation when the path is
// neither a DLL nor a package directory.
func External(path string) (domain.ModArtifact, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.ModArtifact{}, err
	}

	name := filepath.Base(path)
	if !info.IsDir() {
		if !isDLL(name) {
			return domain.ModArtifact{}, domain.NewValidationError("%s is not a DLL", name)
		}
		return domain.ModArtifact{Path: path, Kind: domain.KindDLL, Name: stem(name), IsExternal: true}, nil
	}

	if !IsPackageDir(path) {
		return domain.ModArtifact{}, domain.NewValidationError("%s is not a valid mod folder", name)
	}
	active, present := Regulation(path)
	return domain.ModArtifact{
		Path:             path,
		Kind:             domain.KindPackage,
		Name:             name,
		IsExternal:       true,
		HasRegulation:    present,
		RegulationActive: active,
	}, nil
}

// IsPackageDir reports whether dir is named after an asset folder, contains
// one directly, or holds a regulation file
func IsPackageDir(dir string) bool {
	if acceptable[strings.ToLower(filepath.Base(dir))] {
		return true
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() && acceptable[strings.ToLower(name)] {
			return true
		}
		if !e.IsDir() && (name == RegulationFile || name == RegulationDisabled) {
			return true
		}
	}
	return false
}

// Regulation reports whether dir holds an active regulation.bin, and whether it holds either form
func Regulation(dir string) (active, present bool) {
	if info, err := os.Lstat(filepath.Join(dir, RegulationFile)); err == nil && info.Mode().IsRegular() {
		active = true
	}
	if info, err := os.Lstat(filepath.Join(dir, RegulationDisabled)); err == nil && info.Mode().IsRegular() {
		present = true
	}
	return active, active || present
}

// IsDLL reports whether a file name has a .dll extension, ignoring case
func IsDLL(name string) bool {
	return isDLL(name)
}

func isDLL(name string) bool {
	ok, err := doublestar.Match("*.dll", strings.ToLower(name))
	return err == nil && ok
}

func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

type ignoreFilter struct {
	rules *ignore.GitIgnore
}

func (f *ignoreFilter) ignored(rel string) bool {
	return f != nil && f.rules != nil && f.rules.MatchesPath(rel)
}

func (s *Scanner) loadIgnore(modsDir string) *ignoreFilter {
	path := filepath.Join(modsDir, IgnoreFile)
	if _, err := os.Stat(path); err != nil {
		return &ignoreFilter{}
	}
	rules, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		s.logger.Warn("invalid ignore file", "path", path, "error", err)
		return &ignoreFilter{}
	}
	return &ignoreFilter{rules: rules}
}
