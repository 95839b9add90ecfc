package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// testEnv points the CLI at temp config, data and profiles dirs. The profiles
// root holds one DLL and one package with a disabled regulation.bin.
func testEnv(t *testing.T) (root string) {
	t.Helper()
	root = t.TempDir()
	configDir = t.TempDir()
	dataDir = t.TempDir()
	gameID = ""
	verbose = false
	logLevel = ""
	jsonOutput = false
	noColor = true

	cfg := fmt.Sprintf("profiles_root: %q\nlog_level: error\n", root)
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(cfg), 0644))

	mods := filepath.Join(root, "eldenring-mods")
	require.NoError(t, os.MkdirAll(filepath.Join(mods, "Better Armor", "chr"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(mods, "Better Armor", "regulation.bin.disabled"), []byte("r"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(mods, "ersc.dll"), []byte("dll"), 0644))
	return root
}

// run executes the root command with args and returns everything it printed
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	modsListEnabled, modsListDisabled = false, false
	optOptional, optLoadEarly, optEnable = false, false, false
	optInitializer, optFinalizer, optDelayMS = "", "", 0
	optLoadBefore, optLoadAfter = nil, nil
	modConfigSet = ""
	profileCreateModsDir, profileCreateVersion, profileCreateSwitch = "", "", false
	profileShowVersion, profileExportFormat, profileExportOutput = "", "yaml", ""
	statusAll = false
	installForce, installNoEnable, installLink = false, false, "copy"
	gameAddName, gameAddModsDir, gameAddProfile, gameAddExecutable, gameAddNexus = "", "", "", "", ""

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}
