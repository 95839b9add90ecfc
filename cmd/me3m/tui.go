package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DonovanMods/me3-mod-manager/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal UI.

Without --game (and no default game), the TUI opens on the game picker.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(service)

	id := gameID
	if id == "" {
		id = service.Config().DefaultGame
	}
	return tui.Run(service, id)
}
