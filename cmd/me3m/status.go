package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/DonovanMods/me3-mod-manager/internal/core"
	"github.com/DonovanMods/me3-mod-manager/internal/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current status",
	Long: `Show registered games with their active profile and mod counts.

With --game, show details for one game instead. --all lists every game
even when --game is given.

Examples:
  me3m status
  me3m status --game elden-ring
  me3m status --all --json`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

var statusAll bool

func init() {
	statusCmd.Flags().BoolVar(&statusAll, "all", false, "reconcile and list every registered game")
	rootCmd.AddCommand(statusCmd)
}

// gameStatus is the reconciled summary of one game
type gameStatus struct {
	Game      string `json:"game"`
	Name      string `json:"name"`
	Profile   string `json:"profile,omitempty"`
	File      string `json:"profile_file,omitempty"`
	ModsDir   string `json:"mods_dir,omitempty"`
	Total     int    `json:"total"`
	Enabled   int    `json:"enabled"`
	Missing   int    `json:"missing"`
	Profiles  int    `json:"profiles"`
	Error     string `json:"error,omitempty"`
	IsDefault bool   `json:"default,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(service)

	if gameID != "" && !statusAll {
		st, err := collectStatus(service, gameID)
		if err != nil {
			return describeError(err)
		}
		if jsonOutput {
			return printJSON(cmd, st)
		}
		printGameStatus(cmd, st)
		return nil
	}

	games := service.ListGames()
	if len(games) == 0 {
		if jsonOutput {
			return printJSON(cmd, []gameStatus{})
		}
		cmd.Println("No games configured.")
		cmd.Println("\nUse 'me3m game add' to add a game.")
		return nil
	}

	statuses, err := collectAll(cmd.Context(), service, games)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd, statuses)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GAME\tPROFILE\tENABLED\tMODS\tPROFILES")
	fmt.Fprintln(w, "----\t-------\t-------\t----\t--------")
	for _, st := range statuses {
		id := st.Game
		if st.IsDefault {
			id += " *"
		}
		if st.Error != "" {
			fmt.Fprintf(w, "%s\t%s\t-\t-\t-\n", id, colorRed(truncate(st.Error, 50)))
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\n", id, st.Profile, st.Enabled, st.Total, st.Profiles)
	}
	w.Flush()

	cmd.Printf("\nTotal: %d game(s) configured\n", len(statuses))
	return nil
}

// collectAll reconciles every game concurrently. A failing game is
// reported in its row rather than aborting the others.
func collectAll(ctx context.Context, service *core.Service, games []*domain.Game) ([]gameStatus, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	defaultGame := service.Config().DefaultGame
	statuses := make([]gameStatus, len(games))

	g, gctx := errgroup.WithContext(ctx)
	for i, game := range games {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			st, err := collectStatus(service, game.ID)
			if err != nil {
				st = &gameStatus{Game: game.ID, Name: game.Name, Error: err.Error()}
			}
			st.IsDefault = game.ID == defaultGame
			statuses[i] = *st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return statuses, nil
}

func collectStatus(service *core.Service, id string) (*gameStatus, error) {
	gc, err := service.Context(id)
	if err != nil {
		return nil, err
	}
	mods, err := service.Mods().GetAllMods(id)
	if err != nil {
		return nil, err
	}
	profiles, err := service.Profiles().List(id)
	if err != nil {
		return nil, err
	}

	st := &gameStatus{
		Game:     gc.Game.ID,
		Name:     gc.Game.Name,
		Profile:  gc.Profile.Name,
		File:     gc.Profile.ProfilePath,
		ModsDir:  gc.Profile.ModsPath,
		Total:    len(mods),
		Profiles: len(profiles),
	}
	for _, m := range mods {
		switch m.Status {
		case domain.StatusEnabled:
			st.Enabled++
		case domain.StatusMissing:
			st.Missing++
		}
	}
	return st, nil
}

func printGameStatus(cmd *cobra.Command, st *gameStatus) {
	cmd.Printf("Game: %s\n", st.Name)
	cmd.Printf("  ID: %s\n", st.Game)
	cmd.Printf("  Profile: %s\n", st.Profile)
	cmd.Printf("  Profile file: %s\n", st.File)
	cmd.Printf("  Mods folder: %s\n", st.ModsDir)
	cmd.Println()
	cmd.Printf("Mods: %d, Enabled: %d, Disabled: %d\n", st.Total, st.Enabled, st.Total-st.Enabled-st.Missing)
	if st.Missing > 0 {
		cmd.Println(colorYellow(fmt.Sprintf("Missing external mods: %d", st.Missing)))
	}
	cmd.Printf("Profiles: %d\n", st.Profiles)
}
