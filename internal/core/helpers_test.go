package core_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/DonovanMods/me3-mod-manager/internal/core"
	"github.com/DonovanMods/me3-mod-manager/internal/profiledoc"

	"github.com/stretchr/testify/require"
)

const gameID = "elden-ring"

// fixture is a service over a temp profiles root with the default game table
type fixture struct {
	svc     *core.Service
	root    string // ME3 profiles root
	mods    string // elden-ring default mods dir
	profile string // elden-ring default profile file
}

func newFixture(t *testing.T, configYAML ...string) *fixture {
	t.Helper()
	root := t.TempDir()
	configDir := t.TempDir()

	cfg := fmt.Sprintf("profiles_root: %q\n", root)
	for _, line := range configYAML {
		cfg += line + "\n"
	}
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(cfg), 0644))

	svc, err := core.NewService(core.ServiceConfig{ConfigDir: configDir, DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, svc.Close())
	})

	mods := filepath.Join(root, "eldenring-mods")
	require.NoError(t, os.MkdirAll(mods, 0755))
	return &fixture{
		svc:     svc,
		root:    root,
		mods:    mods,
		profile: filepath.Join(root, "eldenring-default.me3"),
	}
}

// file writes content below dir and returns its path
func writeFile(t *testing.T, dir, rel, content string) string {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

// pkg creates a package folder (one with a chr/ subfolder) in dir
func pkg(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Join(p, "chr"), 0755))
	return p
}

func (f *fixture) doc(t *testing.T) *profiledoc.Document {
	t.Helper()
	doc, err := f.svc.Mods().Document(gameID)
	require.NoError(t, err)
	return doc
}

func (f *fixture) readProfile(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(f.profile)
	require.NoError(t, err)
	return string(data)
}

func readDoc(t *testing.T, path string) *profiledoc.Document {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	doc, err := profiledoc.Parse(data)
	require.NoError(t, err)
	return doc
}

func nativePaths(doc *profiledoc.Document) []string {
	var out []string
	for _, n := range doc.Natives {
		out = append(out, n.Path)
	}
	return out
}

func packageIDs(doc *profiledoc.Document) []string {
	var out []string
	for _, p := range doc.Packages {
		out = append(out, p.ID)
	}
	return out
}
