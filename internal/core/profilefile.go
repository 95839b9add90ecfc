package core

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/DonovanMods/me3-mod-manager/internal/domain"
	"github.com/DonovanMods/me3-mod-manager/internal/profiledoc"
)

// profileFile reads and writes one .me3 file
type profileFile struct {
	path     string
	version  profiledoc.Version // schema for a file that does not exist yet
	reserved []string           // package ids never written
	logger   hclog.Logger
}

// load returns the document on disk. A missing file is an empty document and
// a malformed one falls back to an empty v1 document.
func (f *profileFile) load() (*profiledoc.Document, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return profiledoc.New(f.version), nil
		}
		return nil, &domain.IOError{Op: "read profile", Path: f.path, Err: err}
	}

	doc, disabled, err := profiledoc.ParseWithDisabled(data)
	if err != nil {
		f.logger.Warn("profile is malformed, using an empty profile", "path", f.path, "error", err)
		return profiledoc.New(profiledoc.V1), nil
	}
	for _, entry := range disabled {
		f.logger.Info("dropping entry marked enabled = false", "path", f.path, "entry", entry)
	}
	return doc, nil
}

// save replaces the file in one rename. The previous file is kept as .bak
// when it could not be parsed.
func (f *profileFile) save(doc *profiledoc.Document) error {
	data, err := profiledoc.Serialize(doc.WithoutPackages(f.reserved...), "")
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &domain.IOError{Op: "create profile dir", Path: dir, Err: err}
	}
	if err := f.backupMalformed(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return &domain.IOError{Op: "write profile", Path: f.path, Err: err}
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return &domain.IOError{Op: "write profile", Path: f.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &domain.IOError{Op: "write profile", Path: f.path, Err: err}
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return &domain.IOError{Op: "write profile", Path: f.path, Err: err}
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		f.logger.Error("writing profile failed", "path", f.path, "error", err)
		return &domain.IOError{Op: "replace profile", Path: f.path, Err: err}
	}
	return nil
}

func (f *profileFile) backupMalformed() error {
	data, err := os.ReadFile(f.path)
	if err != nil || len(data) == 0 {
		return nil
	}
	if _, err := profiledoc.Parse(data); err == nil {
		return nil
	}

	bak := f.path + ".bak"
	if err := os.WriteFile(bak, data, 0644); err != nil {
		return &domain.IOError{Op: "backup profile", Path: bak, Err: err}
	}
	f.logger.Warn("kept malformed profile", "backup", bak)
	return nil
}
