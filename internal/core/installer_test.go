package core_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/DonovanMods/me3-mod-manager/internal/core"
	"github.com/DonovanMods/me3-mod-manager/internal/domain"
	"github.com/DonovanMods/me3-mod-manager/internal/linker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstaller_InstallDLL(t *testing.T) {
	f := newFixture(t)
	src := t.TempDir()
	dll := writeFile(t, src, "fps.dll", "binary")
	writeFile(t, src, "fps/config.ini", "[fps]")

	result, err := f.svc.Installer().Install(context.Background(), gameID, dll, core.InstallOptions{})
	require.NoError(t, err)

	installed := filepath.Join(f.mods, "fps.dll")
	assert.Equal(t, []string{installed}, result.Installed)
	assert.FileExists(t, installed)
	assert.FileExists(t, filepath.Join(f.mods, "fps", "config.ini"))
	assert.Nil(t, result.Link)

	require.Len(t, result.Outcomes, 1)
	assert.True(t, result.Outcomes[0].Changed)
	assert.Equal(t, []string{"eldenring-mods/fps.dll"}, nativePaths(f.doc(t)))
}

func TestInstaller_InstallPackageFolder(t *testing.T) {
	f := newFixture(t)
	src := pkg(t, t.TempDir(), "Armor")
	writeFile(t, src, "chr/c1000.chrbnd.dcx", "data")

	result, err := f.svc.Installer().Install(context.Background(), gameID, src, core.InstallOptions{Method: linker.MethodHardlink})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(f.mods, "Armor")}, result.Installed)
	assert.FileExists(t, filepath.Join(f.mods, "Armor", "chr", "c1000.chrbnd.dcx"))
	assert.Equal(t, []string{"Armor"}, packageIDs(f.doc(t)))
}

func TestInstaller_InstallNexusArchive(t *testing.T) {
	f := newFixture(t)
	archive := createTestZip(t, t.TempDir(), "Seamless Co-op-510-1-8-0-1712345678.zip", map[string]string{
		"SeamlessCoop/ersc.dll":                 "binary",
		"SeamlessCoop/ersc/ersc_settings.ini":   "[settings]",
		"SeamlessCoop/readme.txt":               "read me",
		"SeamlessCoop/ersc/locale/english.json": "{}",
	})

	result, err := f.svc.Installer().Install(context.Background(), gameID, archive, core.InstallOptions{})
	require.NoError(t, err)

	dll := filepath.Join(f.mods, "ersc.dll")
	assert.Equal(t, []string{dll}, result.Installed)
	assert.FileExists(t, filepath.Join(f.mods, "ersc", "ersc_settings.ini"))
	assert.NoFileExists(t, filepath.Join(f.mods, "readme.txt"))

	require.NotNil(t, result.Link)
	assert.Equal(t, 510, result.Link.ModID)
	assert.Equal(t, "1.8.0", result.Link.Version)
	assert.Equal(t, "eldenring", result.Link.GameDomain)

	link, err := f.svc.NexusLink(dll)
	require.NoError(t, err)
	require.NotNil(t, link)
	assert.Equal(t, "Seamless Co-op", link.Name)
}

func TestInstaller_ArchiveWithoutWrapperIsNamedAfterArchive(t *testing.T) {
	f := newFixture(t)
	archive := createTestZip(t, t.TempDir(), "Better Armor-777-2-1.zip", map[string]string{
		"chr/c1000.chrbnd.dcx": "data",
		"regulation.bin":       "reg",
	})

	result, err := f.svc.Installer().Install(context.Background(), gameID, archive, core.InstallOptions{NoEnable: true})
	require.NoError(t, err)

	target := filepath.Join(f.mods, "Better Armor")
	assert.Equal(t, []string{target}, result.Installed)
	assert.Empty(t, result.Outcomes)
	assert.FileExists(t, filepath.Join(target, "regulation.bin"))
	assert.Empty(t, f.doc(t).Packages)
}

func TestInstaller_ExistingTarget(t *testing.T) {
	f := newFixture(t)
	writeFile(t, f.mods, "fps.dll", "old")
	dll := writeFile(t, t.TempDir(), "fps.dll", "new")

	_, err := f.svc.Installer().Install(context.Background(), gameID, dll, core.InstallOptions{})
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "already exists")

	_, err = f.svc.Installer().Install(context.Background(), gameID, dll, core.InstallOptions{Force: true})
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(f.mods, "fps.dll"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestInstaller_Rejections(t *testing.T) {
	f := newFixture(t)
	inst := f.svc.Installer()
	ctx := context.Background()

	_, err := inst.Install(ctx, gameID, filepath.Join(t.TempDir(), "missing.dll"), core.InstallOptions{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	txt := writeFile(t, t.TempDir(), "notes.txt", "hi")
	_, err = inst.Install(ctx, gameID, txt, core.InstallOptions{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	empty := filepath.Join(t.TempDir(), "Empty")
	require.NoError(t, os.MkdirAll(empty, 0755))
	_, err = inst.Install(ctx, gameID, empty, core.InstallOptions{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	reserved := pkg(t, t.TempDir(), "eldenring-mods")
	_, err = inst.Install(ctx, gameID, reserved, core.InstallOptions{Force: true})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestInstaller_InstallFromURL(t *testing.T) {
	f := newFixture(t)
	archive := createTestZip(t, t.TempDir(), "payload.zip", map[string]string{"tool.dll": "binary"})
	data, err := os.ReadFile(archive)
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="Tool-4242-1-0.zip"`)
		w.Write(data)
	}))
	defer server.Close()

	inst := f.svc.Installer()
	inst.SetHTTPClient(server.Client())
	result, err := inst.Install(context.Background(), gameID, server.URL+"/download", core.InstallOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(f.mods, "tool.dll")}, result.Installed)
	require.NotNil(t, result.Link)
	assert.Equal(t, 4242, result.Link.ModID)
}
