package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/DonovanMods/me3-mod-manager/internal/core"
	"github.com/DonovanMods/me3-mod-manager/internal/linker"
)

var (
	installForce    bool
	installNoEnable bool
	installLink     string
)

var installCmd = &cobra.Command{
	Use:   "install <file|folder|url>",
	Short: "Install a DLL, mod folder or archive into the mods folder",
	Long: `Install a mod into the active profile's mods folder and enable it.

The source can be a .dll, a mod folder, a .zip/.7z/.rar archive or an http(s)
URL to one. Archives that hold a single wrapping folder are unwrapped. Folders
that look like packages are installed as one; otherwise the top-level DLLs and
their config folders are installed.

Nexus Mods archive names (Name-<mod id>-<version>-<timestamp>) are remembered
so 'me3m nexus updates' can check them later. .7z and .rar need the 7z tool.

Examples:
  me3m install ~/Downloads/Seamless\ Co-op-510-1-9-1-1719000000.zip
  me3m install ./my-tweaks.dll --no-enable
  me3m install ./BetterArmor --link hardlink --force`,
	Args: cobra.ExactArgs(1),
	RunE: runInstall,
}

func init() {
	installCmd.Flags().BoolVarP(&installForce, "force", "f", false, "replace files that already exist in the mods folder")
	installCmd.Flags().BoolVar(&installNoEnable, "no-enable", false, "only place the files; leave the profile unchanged")
	installCmd.Flags().StringVar(&installLink, "link", "copy", "how files are placed: copy or hardlink")
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	if err := requireGame(cmd); err != nil {
		return err
	}
	method, err := linker.ParseMethod(installLink)
	if err != nil {
		return err
	}

	src := args[0]
	if _, statErr := os.Stat(src); statErr == nil {
		if src, err = filepath.Abs(src); err != nil {
			return err
		}
	}

	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(service)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	downloading := false
	opts := core.InstallOptions{
		Force:    installForce,
		NoEnable: installNoEnable,
		Method:   method,
		Progress: func(p core.DownloadProgress) {
			if p.TotalBytes > 0 && !jsonOutput {
				downloading = true
				fmt.Fprintf(cmd.ErrOrStderr(), "\r  Downloading: %.1f%%", p.Percentage)
			}
		},
	}

	result, err := service.Installer().Install(ctx, gameID, src, opts)
	if downloading {
		fmt.Fprintln(cmd.ErrOrStderr())
	}
	if err != nil {
		return describeError(err)
	}

	if jsonOutput {
		type installJSON struct {
			Installed []string `json:"installed"`
			NexusID   int      `json:"nexus_mod_id,omitempty"`
			Version   string   `json:"version,omitempty"`
		}
		out := installJSON{Installed: result.Installed}
		if result.Link != nil {
			out.NexusID = result.Link.ModID
			out.Version = result.Link.Version
		}
		return printJSON(cmd, out)
	}

	for _, p := range result.Installed {
		cmd.Printf("Installed %s\n", filepath.Base(p))
	}
	for _, out := range result.Outcomes {
		printOutcome(cmd, out)
	}
	if result.Link != nil {
		cmd.Printf("Linked to Nexus mod %d (version %s): %s\n", result.Link.ModID, result.Link.Version, result.Link.URL())
	}
	return nil
}
