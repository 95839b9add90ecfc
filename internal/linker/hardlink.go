package linker

import (
	"fmt"
	"os"
	"path/filepath"
)

// HardlinkLinker deploys files as hard links to the source
type HardlinkLinker struct{}

// NewHardlink creates a new hardlink linker
func NewHardlink() *HardlinkLinker {
	return &HardlinkLinker{}
}

// Deploy links dst to src, replacing dst
func (l *HardlinkLinker) Deploy(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("creating destination dir: %w", err)
	}
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing existing file: %w", err)
	}
	if err := os.Link(src, dst); err != nil {
		return fmt.Errorf("creating hardlink: %w", err)
	}
	return nil
}

// Method returns MethodHardlink
func (l *HardlinkLinker) Method() Method {
	return MethodHardlink
}
