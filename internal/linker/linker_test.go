package linker_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/DonovanMods/me3-mod-manager/internal/linker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    linker.Method
		wantErr bool
	}{
		{"", linker.MethodCopy, false},
		{"copy", linker.MethodCopy, false},
		{"HardLink", linker.MethodHardlink, false},
		{"symlink", linker.MethodCopy, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := linker.ParseMethod(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, linker.New(got).Method())
		})
	}
}

func TestCopyLinker_Deploy(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.dll")
	dst := filepath.Join(dir, "mods", "src.dll")
	require.NoError(t, os.WriteFile(src, []byte("v1"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0755))
	require.NoError(t, os.WriteFile(dst, []byte("old contents"), 0644))

	require.NoError(t, linker.NewCopy().Deploy(src, dst))

	content, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "v1", string(content))

	// Changing the source leaves the copy alone.
	require.NoError(t, os.WriteFile(src, []byte("v2"), 0644))
	content, err = os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "v1", string(content))
}

func TestHardlinkLinker_Deploy(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.dll")
	dst := filepath.Join(dir, "mods", "src.dll")
	require.NoError(t, os.WriteFile(src, []byte("content"), 0644))

	require.NoError(t, linker.NewHardlink().Deploy(src, dst))

	srcInfo, err := os.Stat(src)
	require.NoError(t, err)
	dstInfo, err := os.Stat(dst)
	require.NoError(t, err)
	assert.True(t, os.SameFile(srcInfo, dstInfo))
}

func TestDeployTree(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "MyMod")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "chr", "c0000"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "chr", "c0000", "body.bnd"), []byte("bnd"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "regulation.bin"), []byte("reg"), 0644))
	if runtime.GOOS != "windows" {
		require.NoError(t, os.Symlink("/etc/passwd", filepath.Join(src, "link")))
	}

	dst := filepath.Join(dir, "mods", "MyMod")
	require.NoError(t, linker.DeployTree(linker.NewCopy(), src, dst))

	content, err := os.ReadFile(filepath.Join(dst, "chr", "c0000", "body.bnd"))
	require.NoError(t, err)
	assert.Equal(t, "bnd", string(content))
	assert.FileExists(t, filepath.Join(dst, "regulation.bin"))
	assert.NoFileExists(t, filepath.Join(dst, "link"))
}
