package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/DonovanMods/me3-mod-manager/internal/core"
	"github.com/DonovanMods/me3-mod-manager/internal/domain"
	"github.com/DonovanMods/me3-mod-manager/internal/source/nexusmods"
	"github.com/DonovanMods/me3-mod-manager/internal/storage/db"
)

// nexusEnvKey overrides the stored Nexus API key
const nexusEnvKey = "NEXUSMODS_API_KEY"

// nexusTimeout bounds a single nexus command
const nexusTimeout = 30 * time.Second

var (
	nexusSearchLimit int
	nexusLinkVersion string
)

var nexusCmd = &cobra.Command{
	Use:   "nexus",
	Short: "Look up mods on Nexus Mods",
	Long: `Search Nexus Mods, link local mods to their Nexus pages and check linked
mods for new versions. Uses the game's Nexus domain from games.yaml.`,
}

var nexusSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search mods by name",
	Long: `Search mods by name.

Examples:
  me3m nexus search "seamless co-op"
  me3m nexus search armor --limit 20 --game nightreign`,
	Args: cobra.MinimumNArgs(1),
	RunE: runNexusSearch,
}

var nexusInfoCmd = &cobra.Command{
	Use:   "info <mod-id>",
	Short: "Show a mod's Nexus page details",
	Args:  cobra.ExactArgs(1),
	RunE:  runNexusInfo,
}

var nexusLinkCmd = &cobra.Command{
	Use:   "link <mod> <mod-id>",
	Short: "Remember which Nexus mod a local mod came from",
	Long: `Remember which Nexus mod a local mod came from so update checks can find it.
Name, author and version are filled in from Nexus; --version records the
version you actually have.

Example:
  me3m nexus link ersc 510 --version 1.9.0`,
	Args: cobra.ExactArgs(2),
	RunE: runNexusLink,
}

var nexusUpdatesCmd = &cobra.Command{
	Use:   "updates",
	Short: "Check linked mods for newer versions",
	Args:  cobra.NoArgs,
	RunE:  runNexusUpdates,
}

func init() {
	nexusSearchCmd.Flags().IntVarP(&nexusSearchLimit, "limit", "l", 10, "maximum number of results")
	nexusLinkCmd.Flags().StringVar(&nexusLinkVersion, "version", "", "installed version (default: latest on Nexus)")

	nexusCmd.AddCommand(nexusSearchCmd)
	nexusCmd.AddCommand(nexusInfoCmd)
	nexusCmd.AddCommand(nexusLinkCmd)
	nexusCmd.AddCommand(nexusUpdatesCmd)
	rootCmd.AddCommand(nexusCmd)
}

// nexusGame returns the game's Nexus domain and a client using the stored or env API key
func nexusGame(service *core.Service) (*domain.Game, *nexusmods.Client, error) {
	game, err := service.GetGame(gameID)
	if err != nil {
		return nil, nil, describeError(err)
	}
	if game.NexusDomain == "" {
		return nil, nil, fmt.Errorf("%s has no Nexus domain; set one with 'me3m game add %s --nexus <domain> ...'", game.Name, game.ID)
	}
	key := service.APIKey(core.NexusService, nexusEnvKey)
	return game, nexusmods.NewClient(nil, key), nil
}

func parseModID(s string) (int, error) {
	if id, ok := nexusmods.ModIDFromURL(s); ok {
		return id, nil
	}
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid Nexus mod id: %s", s)
	}
	return id, nil
}

func runNexusSearch(cmd *cobra.Command, args []string) error {
	if err := requireGame(cmd); err != nil {
		return err
	}

	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(service)

	game, client, err := nexusGame(service)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), nexusTimeout)
	defer cancel()

	query := strings.Join(args, " ")
	mods, err := client.SearchMods(ctx, game.NexusDomain, query, nexusSearchLimit)
	if err != nil {
		return describeError(fmt.Errorf("search failed: %w", err))
	}

	if jsonOutput {
		return printJSON(cmd, mods)
	}
	if len(mods) == 0 {
		cmd.Println("No mods found.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tAUTHOR\tVERSION")
	fmt.Fprintln(w, "--\t----\t------\t-------")
	for _, m := range mods {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", m.ModID, truncate(m.Name, 40), truncate(m.Author, 20), m.Version)
	}
	return w.Flush()
}

func runNexusInfo(cmd *cobra.Command, args []string) error {
	if err := requireGame(cmd); err != nil {
		return err
	}
	id, err := parseModID(args[0])
	if err != nil {
		return err
	}

	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(service)

	game, client, err := nexusGame(service)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), nexusTimeout)
	defer cancel()

	mod, err := client.GetMod(ctx, game.NexusDomain, id)
	if err != nil {
		return describeError(err)
	}
	if jsonOutput {
		return printJSON(cmd, mod)
	}

	cmd.Printf("%s (%d)\n", mod.Name, mod.ModID)
	cmd.Printf("  Author:       %s\n", mod.Author)
	cmd.Printf("  Version:      %s\n", mod.Version)
	cmd.Printf("  Endorsements: %d\n", mod.Endorsements)
	cmd.Printf("  Downloads:    %d\n", mod.Downloads)
	if mod.UpdatedAt != "" {
		cmd.Printf("  Updated:      %s\n", mod.UpdatedAt)
	}
	cmd.Printf("  Page:         %s\n", mod.URL())
	if mod.Summary != "" {
		cmd.Printf("\n%s\n", mod.Summary)
	}
	return nil
}

func runNexusLink(cmd *cobra.Command, args []string) error {
	if err := requireGame(cmd); err != nil {
		return err
	}
	id, err := parseModID(args[1])
	if err != nil {
		return err
	}

	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(service)

	mod, err := resolveMod(service, args[0])
	if err != nil {
		return describeError(err)
	}
	game, client, err := nexusGame(service)
	if err != nil {
		return err
	}

	link := &db.NexusLink{
		LocalPath:  mod.Path,
		GameDomain: game.NexusDomain,
		ModID:      id,
		Name:       mod.Name,
		Version:    nexusLinkVersion,
	}

	ctx, cancel := context.WithTimeout(context.Background(), nexusTimeout)
	defer cancel()
	if remote, err := client.GetMod(ctx, game.NexusDomain, id); err == nil {
		link.Name = remote.Name
		link.Author = remote.Author
		if link.Version == "" {
			link.Version = remote.Version
		}
	} else if errors.Is(err, domain.ErrModNotFound) {
		return err
	} else {
		service.Logger().Warn("nexus lookup failed, linking without details", "mod_id", id, "error", err)
	}

	if err := service.SaveNexusLink(link); err != nil {
		return err
	}
	cmd.Printf("Linked %s to %s\n", mod.Name, link.URL())
	return nil
}

func runNexusUpdates(cmd *cobra.Command, args []string) error {
	if err := requireGame(cmd); err != nil {
		return err
	}

	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(service)

	game, client, err := nexusGame(service)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*nexusTimeout)
	defer cancel()

	updater := core.NewUpdater(service.DB(), client, service.Logger().Named("nexus"))
	updates, checkErr := updater.CheckUpdates(ctx, game.NexusDomain)

	if jsonOutput {
		type updateJSON struct {
			Path    string `json:"path"`
			ModID   int    `json:"mod_id"`
			Name    string `json:"name"`
			Current string `json:"current"`
			Latest  string `json:"latest"`
		}
		out := make([]updateJSON, 0, len(updates))
		for _, u := range updates {
			out = append(out, updateJSON{u.Link.LocalPath, u.Link.ModID, u.Link.Name, u.Link.Version, u.LatestVersion})
		}
		if err := printJSON(cmd, out); err != nil {
			return err
		}
		return checkErr
	}

	if len(updates) == 0 {
		cmd.Println("All linked mods are up to date.")
	} else {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "MOD\tCURRENT\tLATEST\tPAGE")
		fmt.Fprintln(w, "---\t-------\t------\t----")
		for _, u := range updates {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", truncate(u.Link.Name, 40), u.Link.Version, colorGreen(u.LatestVersion), u.Link.URL())
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	return checkErr
}
