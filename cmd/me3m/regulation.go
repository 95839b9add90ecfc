package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var regulationCmd = &cobra.Command{
	Use:   "regulation",
	Short: "Choose which package's regulation.bin is active",
	Long: `Only one package may ship an active regulation.bin. Inactive ones are kept
as regulation.bin.disabled next to it.`,
}

var regulationActivateCmd = &cobra.Command{
	Use:   "activate <package>",
	Short: "Activate a package's regulation.bin and disable all others",
	Long: `Activate a package's regulation.bin and disable all others.

Example:
  me3m regulation activate "Better Armor"`,
	Args: cobra.ExactArgs(1),
	RunE: runRegulationActivate,
}

var regulationDisableAllCmd = &cobra.Command{
	Use:   "disable-all",
	Short: "Disable every package's regulation.bin",
	Args:  cobra.NoArgs,
	RunE:  runRegulationDisableAll,
}

func init() {
	regulationCmd.AddCommand(regulationActivateCmd)
	regulationCmd.AddCommand(regulationDisableAllCmd)
	rootCmd.AddCommand(regulationCmd)
}

func runRegulationActivate(cmd *cobra.Command, args []string) error {
	if err := requireGame(cmd); err != nil {
		return err
	}

	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(service)

	out, err := service.Mods().SetRegulationActive(gameID, args[0])
	if err != nil {
		return describeError(err)
	}
	printOutcome(cmd, out)
	return nil
}

func runRegulationDisableAll(cmd *cobra.Command, args []string) error {
	if err := requireGame(cmd); err != nil {
		return err
	}

	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(service)

	out, err := service.Mods().DisableAllRegulations(gameID)
	if err != nil {
		return describeError(err)
	}
	printOutcome(cmd, out)
	return nil
}
