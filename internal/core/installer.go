package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/DonovanMods/me3-mod-manager/internal/domain"
	"github.com/DonovanMods/me3-mod-manager/internal/linker"
	"github.com/DonovanMods/me3-mod-manager/internal/scanner"
	"github.com/DonovanMods/me3-mod-manager/internal/storage/db"
)

// InstallOptions tune a single install
type InstallOptions struct {
	Force    bool          // Replace existing files in the mods dir
	NoEnable bool          // Only place files, leave the profile alone
	Method   linker.Method // Copy or hardlink
	Progress ProgressFunc  // Download progress for URL sources
}

// InstallResult describes what an install placed
type InstallResult struct {
	Installed []string  // Absolute paths of the new artifacts in the mods dir
	Outcomes  []Outcome // Enable outcome per artifact
	Link      *db.NexusLink
}

// unit is one thing copied into the mods dir
type unit struct {
	src    string
	name   string
	enable bool // DLLs and packages get profile entries, config folders don't
}

// Installer places DLLs, mod folders and archives into a game's mods dir
type Installer struct {
	env        Environment
	mods       *ModManager
	db         *db.DB
	extractor  *Extractor
	downloader *Downloader
	logger     hclog.Logger
}

// NewInstaller creates an installer that enables what it installs through mods
func NewInstaller(env Environment, mods *ModManager, database *db.DB, logger hclog.Logger) *Installer {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Installer{
		env:        env,
		mods:       mods,
		db:         database,
		extractor:  NewExtractor(),
		downloader: NewDownloader(http.DefaultClient),
		logger:     logger,
	}
}

// SetHTTPClient replaces the client used for URL sources
func (i *Installer) SetHTTPClient(c *http.Client) {
	i.downloader = NewDownloader(c)
}

// Install places src into the mods dir of the game's active profile and
// enables it. src is a .dll, a mod folder, an archive or an http(s) URL.
func (i *Installer) Install(ctx context.Context, gameID, src string, opts InstallOptions) (*InstallResult, error) {
	gc, err := i.env.Context(gameID)
	if err != nil {
		return nil, err
	}

	tmp, err := os.MkdirTemp("", "me3m-install-*")
	if err != nil {
		return nil, &domain.IOError{Op: "create temp dir", Path: os.TempDir(), Err: err}
	}
	defer os.RemoveAll(tmp)

	if isURL(src) {
		res, err := i.downloader.Download(ctx, src, filepath.Join(tmp, "download"), opts.Progress)
		if err != nil {
			return nil, fmt.Errorf("downloading %s: %w", src, err)
		}
		i.logger.Debug("downloaded", "url", src, "path", res.Path, "bytes", res.Size, "sha256", res.SHA256)
		src = res.Path
	}

	units, err := i.collect(ctx, src, filepath.Join(tmp, "extract"))
	if err != nil {
		return nil, err
	}
	if err := i.checkTargets(gc, units, opts.Force); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(gc.Layout.ModsDir, 0755); err != nil {
		return nil, &domain.IOError{Op: "create mods dir", Path: gc.Layout.ModsDir, Err: err}
	}

	l := linker.New(opts.Method)
	result := &InstallResult{}
	for _, u := range units {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		dst := filepath.Join(gc.Layout.ModsDir, u.name)
		if err := place(l, u.src, dst, opts.Force); err != nil {
			return result, err
		}
		i.logger.Info("installed", "game", gameID, "path", dst, "method", l.Method())
		if u.enable {
			result.Installed = append(result.Installed, dst)
		}
	}

	if !opts.NoEnable {
		for _, p := range result.Installed {
			out, err := i.mods.SetModEnabled(gameID, p, true)
			if err != nil {
				return result, fmt.Errorf("enabling %s: %w", filepath.Base(p), err)
			}
			result.Outcomes = append(result.Outcomes, out)
		}
	}

	result.Link = i.link(gc, src, result.Installed)
	return result, nil
}

// collect works out which files of src end up in the mods dir
func (i *Installer) collect(ctx context.Context, src, extractDir string) ([]unit, error) {
	info, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.NewValidationError("%s does not exist", src)
		}
		return nil, &domain.IOError{Op: "stat", Path: src, Err: err}
	}

	name := filepath.Base(src)
	root := src
	switch {
	case info.IsDir():
	case scanner.IsDLL(name):
		return withConfigDir(filepath.Dir(src), name), nil
	case i.extractor.CanExtract(name):
		if err := i.extractor.Extract(ctx, src, extractDir); err != nil {
			return nil, fmt.Errorf("extracting %s: %w", name, err)
		}
		root = ContentRoot(extractDir)
		if root == extractDir {
			name = archiveModName(name)
		} else {
			name = filepath.Base(root)
		}
	default:
		return nil, domain.NewValidationError("%s is not a DLL, mod folder or supported archive", name)
	}

	if scanner.IsPackageDir(root) {
		return []unit{{src: root, name: name, enable: true}}, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, &domain.IOError{Op: "read dir", Path: root, Err: err}
	}
	var units []unit
	for _, e := range entries {
		if !e.IsDir() && scanner.IsDLL(e.Name()) {
			units = append(units, withConfigDir(root, e.Name())...)
		}
	}
	if len(units) == 0 {
		return nil, domain.NewValidationError("no DLLs or mod folders found in %s", filepath.Base(src))
	}
	return units, nil
}

// withConfigDir returns the DLL plus its <stem>/ config folder when one sits next to it
func withConfigDir(dir, dll string) []unit {
	units := []unit{{src: filepath.Join(dir, dll), name: dll, enable: true}}
	stem := strings.TrimSuffix(dll, filepath.Ext(dll))
	cfg := filepath.Join(dir, stem)
	if info, err := os.Stat(cfg); err == nil && info.IsDir() {
		units = append(units, unit{src: cfg, name: stem})
	}
	return units
}

func (i *Installer) checkTargets(gc *GameContext, units []unit, force bool) error {
	for _, u := range units {
		if strings.EqualFold(u.name, gc.Game.ModsDir) {
			return domain.NewValidationError("%s is the game's main mods folder and cannot be installed over", u.name)
		}
		if force {
			continue
		}
		if _, err := os.Lstat(filepath.Join(gc.Layout.ModsDir, u.name)); err == nil {
			return domain.NewValidationError("%s already exists in the mods folder; use --force to replace it", u.name)
		}
	}
	return nil
}

func place(l linker.Linker, src, dst string, force bool) error {
	if force {
		if err := os.RemoveAll(dst); err != nil {
			return &domain.IOError{Op: "replace", Path: dst, Err: err}
		}
	}
	info, err := os.Stat(src)
	if err != nil {
		return &domain.IOError{Op: "stat", Path: src, Err: err}
	}
	if info.IsDir() {
		err = linker.DeployTree(l, src, dst)
	} else {
		err = l.Deploy(src, dst)
	}
	if err != nil {
		return &domain.IOError{Op: "install", Path: dst, Err: err}
	}
	return nil
}

// link records Nexus metadata when the source file name follows the Nexus pattern
func (i *Installer) link(gc *GameContext, src string, installed []string) *db.NexusLink {
	parsed := ParseNexusModsFilename(src)
	if parsed == nil || gc.Game.NexusDomain == "" || len(installed) == 0 {
		return nil
	}

	var saved *db.NexusLink
	for _, p := range installed {
		link := &db.NexusLink{
			LocalPath:  p,
			GameDomain: gc.Game.NexusDomain,
			ModID:      parsed.ModID,
			Name:       parsed.BaseName,
			Version:    parsed.Version,
			FileName:   filepath.Base(src),
		}
		if err := i.db.SaveNexusLink(link); err != nil {
			i.logger.Warn("saving nexus link", "path", p, "error", err)
			continue
		}
		if saved == nil {
			saved = link
		}
	}
	return saved
}

// archiveModName names the package made from an archive with no wrapping folder
func archiveModName(archive string) string {
	if parsed := ParseNexusModsFilename(archive); parsed != nil {
		return parsed.BaseName
	}
	return stripExtension(archive)
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
