// Package linker places mod files into a mods directory.
package linker

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Method is how files end up in the mods directory
type Method int

const (
	MethodCopy     Method = iota // Independent copy; works across filesystems
	MethodHardlink               // Shares data with the source; same filesystem only
)

func (m Method) String() string {
	switch m {
	case MethodHardlink:
		return "hardlink"
	default:
		return "copy"
	}
}

// ParseMethod accepts "copy" or "hardlink"
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(s) {
	case "", "copy":
		return MethodCopy, nil
	case "hardlink":
		return MethodHardlink, nil
	default:
		return MethodCopy, fmt.Errorf("unknown link method %q (want copy or hardlink)", s)
	}
}

// Linker places single files
type Linker interface {
	Deploy(src, dst string) error
	Method() Method
}

// New creates a linker for the given method
func New(method Method) Linker {
	if method == MethodHardlink {
		return NewHardlink()
	}
	return NewCopy()
}

// DeployTree places every regular file below src at the same relative path below dst.
// Symlinks inside src are not followed.
func DeployTree(l Linker, src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			return os.MkdirAll(target, 0755)
		case d.Type()&fs.ModeSymlink != 0:
			return nil
		default:
			if err := l.Deploy(path, target); err != nil {
				return fmt.Errorf("deploying %s: %w", rel, err)
			}
			return nil
		}
	})
}
