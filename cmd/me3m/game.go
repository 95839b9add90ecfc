package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/DonovanMods/me3-mod-manager/internal/domain"
)

var (
	gameAddName       string
	gameAddModsDir    string
	gameAddProfile    string
	gameAddExecutable string
	gameAddNexus      string
)

var gameCmd = &cobra.Command{
	Use:   "game",
	Short: "Game management commands",
	Long: `Commands for managing the games me3m knows about.

The built-in table covers Elden Ring, Nightreign, Sekiro, Dark Souls 3 and
Armored Core 6. It is written to games.yaml the first time it is changed.`,
}

var gameListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered games",
	Args:  cobra.NoArgs,
	RunE:  runGameList,
}

var gameAddCmd = &cobra.Command{
	Use:   "add <game-id>",
	Short: "Register a game",
	Long: `Register a game. <game-id> is the slug me3 uses for the game.

Example:
  me3m game add elden-ring \
    --name "Elden Ring" \
    --mods-dir eldenring-mods \
    --profile eldenring-default.me3 \
    --nexus eldenring`,
	Args: cobra.ExactArgs(1),
	RunE: runGameAdd,
}

var gameRemoveCmd = &cobra.Command{
	Use:   "remove <game-id>",
	Short: "Unregister a game; its profiles and mods are kept on disk",
	Args:  cobra.ExactArgs(1),
	RunE:  runGameRemove,
}

var gameSetDefaultCmd = &cobra.Command{
	Use:   "set-default <game-id>",
	Short: "Set the default game",
	Long: `Set the default game so you don't have to specify --game for every command.

Example:
  me3m game set-default elden-ring`,
	Args: cobra.ExactArgs(1),
	RunE: runGameSetDefault,
}

func init() {
	gameAddCmd.Flags().StringVar(&gameAddName, "name", "", "display name (required)")
	gameAddCmd.Flags().StringVar(&gameAddModsDir, "mods-dir", "", "mods folder name under the profiles root (required)")
	gameAddCmd.Flags().StringVar(&gameAddProfile, "profile", "", "default profile file name, e.g. game-default.me3 (required)")
	gameAddCmd.Flags().StringVar(&gameAddExecutable, "exe", "", "game executable")
	gameAddCmd.Flags().StringVar(&gameAddNexus, "nexus", "", "Nexus Mods game domain")
	_ = gameAddCmd.MarkFlagRequired("name")
	_ = gameAddCmd.MarkFlagRequired("mods-dir")
	_ = gameAddCmd.MarkFlagRequired("profile")

	gameCmd.AddCommand(gameListCmd)
	gameCmd.AddCommand(gameAddCmd)
	gameCmd.AddCommand(gameRemoveCmd)
	gameCmd.AddCommand(gameSetDefaultCmd)
	rootCmd.AddCommand(gameCmd)
}

func runGameList(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(service)

	games := service.ListGames()
	if jsonOutput {
		type gameJSON struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			ModsDir     string `json:"mods_dir"`
			ProfileFile string `json:"profile"`
			NexusDomain string `json:"nexus_domain,omitempty"`
			Default     bool   `json:"default,omitempty"`
		}
		out := make([]gameJSON, 0, len(games))
		for _, g := range games {
			out = append(out, gameJSON{g.ID, g.Name, g.ModsDir, g.ProfileFile, g.NexusDomain, g.ID == service.Config().DefaultGame})
		}
		return printJSON(cmd, out)
	}

	if len(games) == 0 {
		cmd.Println("No games configured.")
		cmd.Println("\nUse 'me3m game add' to add a game.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tMODS DIR\tPROFILE\t")
	fmt.Fprintln(w, "--\t----\t--------\t-------\t")
	for _, g := range games {
		mark := ""
		if g.ID == service.Config().DefaultGame {
			mark = "[default]"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", g.ID, g.Name, g.ModsDir, g.ProfileFile, mark)
	}
	return w.Flush()
}

func runGameAdd(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(service)

	game := &domain.Game{
		ID:          args[0],
		Name:        gameAddName,
		ModsDir:     gameAddModsDir,
		ProfileFile: gameAddProfile,
		Executable:  gameAddExecutable,
		NexusDomain: gameAddNexus,
	}
	if err := service.AddGame(game); err != nil {
		return err
	}

	cmd.Printf("Added %s (%s)\n", game.Name, game.ID)
	return nil
}

func runGameRemove(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(service)

	if err := service.RemoveGame(args[0]); err != nil {
		return describeError(err)
	}
	if service.Config().DefaultGame == args[0] {
		service.Config().DefaultGame = ""
		if err := service.Store().SaveConfig(); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
	}

	cmd.Printf("Removed %s\n", args[0])
	return nil
}

func runGameSetDefault(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(service)

	game, err := service.GetGame(args[0])
	if err != nil {
		return describeError(err)
	}

	service.Config().DefaultGame = game.ID
	if err := service.Store().SaveConfig(); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	cmd.Printf("Default game set to: %s (%s)\n", game.Name, game.ID)
	return nil
}
