package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/DonovanMods/me3-mod-manager/internal/core"
	"github.com/DonovanMods/me3-mod-manager/internal/domain"
)

const watchDebounce = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Reconcile the active profile whenever the mods folder changes",
	Long: `Watch the mods folder and the profile file of the active profile.

Every folder below the mods folder is watched, so changes to DLLs nested
inside a package are picked up too. After each burst of changes the profile is reconciled again: entries for
deleted mods are dropped and a summary is printed. Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := requireGame(cmd); err != nil {
		return err
	}

	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(service)

	gc, err := service.Context(gameID)
	if err != nil {
		return describeError(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := &modWatcher{
		service: service,
		gameID:  gameID,
		logger:  service.Logger().Named("watch"),
		report: func(s string) {
			cmd.Println(s)
		},
	}
	cmd.Printf("Watching %s (profile %s). Press Ctrl+C to stop.\n", gc.Profile.ModsPath, gc.Profile.Name)
	return w.Run(ctx, gc.Profile.ModsPath, filepath.Dir(gc.Profile.ProfilePath))
}

// modWatcher reconciles one game after filesystem changes settle
type modWatcher struct {
	service *core.Service
	gameID  string
	logger  hclog.Logger
	report  func(string)
}

// Run blocks until ctx is done. modsDir is watched with all of its
// subfolders; others are watched flat. Directories that do not exist are skipped.
func (w *modWatcher) Run(ctx context.Context, modsDir string, others ...string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	added := w.addTree(watcher, modsDir)
	for _, dir := range others {
		if err := watcher.Add(dir); err != nil {
			w.logger.Warn("not watching", "dir", dir, "error", err)
			continue
		}
		w.logger.Debug("watching", "dir", dir)
		added++
	}
	if added == 0 {
		return domain.NewValidationError("none of the watched folders exist")
	}

	w.reconcile()

	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
				continue
			}
			w.logger.Trace("event", "op", ev.Op.String(), "path", ev.Name)
			// new folders below the mods dir need their own watch
			if ev.Has(fsnotify.Create) && isSubdir(modsDir, ev.Name) {
				w.addTree(watcher, ev.Name)
			}
			timer.Reset(watchDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "error", err)
		case <-timer.C:
			w.reconcile()
		}
	}
}

// addTree watches root and every folder below it. Symlinks are not followed.
// It returns how many folders are now watched.
func (w *modWatcher) addTree(watcher *fsnotify.Watcher, root string) int {
	n := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			w.logger.Debug("skipping unreadable folder", "path", path, "error", err)
			return fs.SkipDir
		}
		if !d.IsDir() {
			return nil
		}
		if err := watcher.Add(path); err != nil {
			w.logger.Warn("not watching", "dir", path, "error", err)
			return nil
		}
		n++
		return nil
	})
	if err != nil {
		w.logger.Warn("not watching", "dir", root, "error", err)
	}
	w.logger.Debug("watching", "dir", root, "folders", n)
	return n
}

// isSubdir reports whether path is an existing directory strictly below root
func isSubdir(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	info, err := os.Lstat(path)
	return err == nil && info.IsDir()
}

func (w *modWatcher) reconcile() {
	mods, err := w.service.Mods().GetAllMods(w.gameID)
	if err != nil {
		if errors.Is(err, domain.ErrGameNotFound) {
			w.report(colorRed(err.Error()))
			return
		}
		w.logger.Error("reconcile failed", "error", err)
		w.report(colorRed("reconcile failed: " + err.Error()))
		return
	}
	w.report(summarize(mods, time.Now()))
}

// summarize renders the one-line status printed after a reconcile
func summarize(mods map[string]domain.ModInfo, at time.Time) string {
	var enabled, missing int
	for _, m := range mods {
		switch m.Status {
		case domain.StatusEnabled:
			enabled++
		case domain.StatusMissing:
			missing++
		}
	}
	line := fmt.Sprintf("[%s] %d mod(s), %d enabled", at.Format("15:04:05"), len(mods), enabled)
	if missing > 0 {
		line += fmt.Sprintf(", %d missing", missing)
	}
	return line
}
