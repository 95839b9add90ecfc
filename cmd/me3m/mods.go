package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/DonovanMods/me3-mod-manager/internal/core"
	"github.com/DonovanMods/me3-mod-manager/internal/domain"
)

var (
	modsListEnabled  bool
	modsListDisabled bool

	optOptional    bool
	optLoadEarly   bool
	optInitializer string
	optDelayMS     int64
	optFinalizer   string
	optLoadBefore  []string
	optLoadAfter   []string
	optEnable      bool

	modConfigSet string
)

var modsCmd = &cobra.Command{
	Use:     "mods",
	Aliases: []string{"mod"},
	Short:   "List and manage mods of the active profile",
	Long: `List and manage the DLLs and packages in a game's mods folder.

Every command reconciles the active profile with the mods folder first, so
entries pointing at files that no longer exist are dropped.`,
}

var modsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List mods and whether the active profile enables them",
	Long: `List every DLL, nested DLL and package in the mods folder, plus tracked
external mods, with their status in the active profile.

Examples:
  me3m mods list
  me3m mods list --enabled --game nightreign
  me3m mods list --json`,
	Args: cobra.NoArgs,
	RunE: runModsList,
}

var modsEnableCmd = &cobra.Command{
	Use:   "enable <mod>",
	Short: "Enable a mod in the active profile",
	Long: `Enable a mod. <mod> is a filesystem path, the profile key shown by
'me3m mods list', or a mod name.

Examples:
  me3m mods enable ersc
  me3m mods enable "Better Armor"
  me3m mods enable ~/.config/me3/profiles/eldenring-mods/ersc.dll`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetEnabled(cmd, args[0], true)
	},
}

var modsDisableCmd = &cobra.Command{
	Use:   "disable <mod>",
	Short: "Disable a mod in the active profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetEnabled(cmd, args[0], false)
	},
}

var modsAddExternalCmd = &cobra.Command{
	Use:   "add-external <path>",
	Short: "Track and enable a DLL or mod folder outside the mods folder",
	Long: `Track a .dll or a mod folder that lives outside the game's mods folder and
enable it in the active profile. Tracking is per profile.

Example:
  me3m mods add-external ~/modding/my-tweaks.dll`,
	Args: cobra.ExactArgs(1),
	RunE: runModsAddExternal,
}

var modsRemoveCmd = &cobra.Command{
	Use:   "remove <mod>",
	Short: "Disable a mod and delete it",
	Long: `Disable a mod, then delete it from the mods folder.

DLLs are deleted together with their <name>/ config folder and packages are
deleted recursively. External mods are only untracked and nested DLLs are only
disabled; their files are kept.`,
	Args: cobra.ExactArgs(1),
	RunE: runModsRemove,
}

var modsOptionsCmd = &cobra.Command{
	Use:   "options <mod>",
	Short: "Set load-order and loader options of an enabled mod",
	Long: `Replace the advanced options of an enabled mod. Options not given are removed.

Dependencies are package ids or DLL names; append '?' to make one optional.

Examples:
  me3m mods options ersc --load-early --load-before "Better Armor"
  me3m mods options my-tweaks --initializer init --load-after ersc?
  me3m mods options my-tweaks --delay-ms 500 --enable
  me3m mods options ersc            # clear all options`,
	Args: cobra.ExactArgs(1),
	RunE: runModsOptions,
}

var modsConfigCmd = &cobra.Command{
	Use:   "config <mod>",
	Short: "Show or set the config file of a DLL",
	Long: `Show the config files of a DLL. Without an explicit config entry this is
<dll dir>/<dll name>/config.ini.

Examples:
  me3m mods config ersc
  me3m mods config ersc --set ~/.config/me3/profiles/eldenring-mods/ersc/ersc_settings.ini`,
	Args: cobra.ExactArgs(1),
	RunE: runModsConfig,
}

func init() {
	modsListCmd.Flags().BoolVar(&modsListEnabled, "enabled", false, "only show enabled mods")
	modsListCmd.Flags().BoolVar(&modsListDisabled, "disabled", false, "only show disabled mods")

	modsOptionsCmd.Flags().BoolVar(&optOptional, "optional", false, "do not fail when the mod cannot be loaded")
	modsOptionsCmd.Flags().BoolVar(&optLoadEarly, "load-early", false, "load the DLL before the game starts (DLLs only)")
	modsOptionsCmd.Flags().StringVar(&optInitializer, "initializer", "", "exported function to call after loading (DLLs only)")
	modsOptionsCmd.Flags().Int64Var(&optDelayMS, "delay-ms", 0, "wait this long after loading instead of calling an initializer (DLLs only)")
	modsOptionsCmd.Flags().StringVar(&optFinalizer, "finalizer", "", "exported function to call on unload (DLLs only)")
	modsOptionsCmd.Flags().StringSliceVar(&optLoadBefore, "load-before", nil, "mods that must load after this one")
	modsOptionsCmd.Flags().StringSliceVar(&optLoadAfter, "load-after", nil, "mods that must load before this one")
	modsOptionsCmd.Flags().BoolVar(&optEnable, "enable", false, "enable the DLL first if it is disabled")
	modsOptionsCmd.MarkFlagsMutuallyExclusive("initializer", "delay-ms")

	modsConfigCmd.Flags().StringVar(&modConfigSet, "set", "", "store this file as the DLL's only config path")

	modsCmd.AddCommand(modsListCmd)
	modsCmd.AddCommand(modsEnableCmd)
	modsCmd.AddCommand(modsDisableCmd)
	modsCmd.AddCommand(modsAddExternalCmd)
	modsCmd.AddCommand(modsRemoveCmd)
	modsCmd.AddCommand(modsOptionsCmd)
	modsCmd.AddCommand(modsConfigCmd)
	rootCmd.AddCommand(modsCmd)
}

// modJSON is the --json shape of one mod
type modJSON struct {
	Name             string `json:"name"`
	Kind             string `json:"kind"`
	Status           string `json:"status"`
	Path             string `json:"path"`
	Key              string `json:"key"`
	External         bool   `json:"external,omitempty"`
	Package          string `json:"package,omitempty"`
	HasRegulation    bool   `json:"has_regulation,omitempty"`
	RegulationActive bool   `json:"regulation_active,omitempty"`
}

func toModJSON(m domain.ModInfo) modJSON {
	return modJSON{
		Name:             m.Name,
		Kind:             m.Kind.String(),
		Status:           m.Status.String(),
		Path:             m.Path,
		Key:              m.Key,
		External:         m.IsExternal,
		Package:          m.ParentPackage,
		HasRegulation:    m.HasRegulation,
		RegulationActive: m.RegulationActive,
	}
}

func runModsList(cmd *cobra.Command, args []string) error {
	if err := requireGame(cmd); err != nil {
		return err
	}
	if modsListEnabled && modsListDisabled {
		return fmt.Errorf("--enabled and --disabled cannot be combined")
	}

	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(service)

	mods, err := service.Mods().GetAllMods(gameID)
	if err != nil {
		return describeError(err)
	}

	var shown []domain.ModInfo
	for _, m := range domain.SortedMods(mods) {
		if modsListEnabled && !m.Enabled() || modsListDisabled && m.Enabled() {
			continue
		}
		shown = append(shown, m)
	}

	if jsonOutput {
		out := make([]modJSON, 0, len(shown))
		for _, m := range shown {
			out = append(out, toModJSON(m))
		}
		return printJSON(cmd, out)
	}

	if len(shown) == 0 {
		cmd.Println("No mods found.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STATUS\tNAME\tKIND\tKEY")
	fmt.Fprintln(w, "------\t----\t----\t---")
	for _, m := range shown {
		name := m.Name
		if m.RegulationActive {
			name += " [regulation]"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", statusLabel(m.Status), truncate(name, 40), m.Kind, m.Key)
	}
	return w.Flush()
}

func statusLabel(s domain.Status) string {
	switch s {
	case domain.StatusEnabled:
		return colorGreen("enabled")
	case domain.StatusMissing:
		return colorRed("missing")
	default:
		return colorDim("disabled")
	}
}

// resolveMod turns a path, profile key or name into a mod. Paths that exist
// but were not scanned are returned as-is so the engine can reject them.
func resolveMod(service *core.Service, ref string) (domain.ModInfo, error) {
	expanded := ref
	if strings.HasPrefix(ref, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			expanded = filepath.Join(home, strings.TrimPrefix(ref, "~"))
		}
	}

	mod, err := service.Mods().FindMod(gameID, expanded)
	if err == nil {
		return mod, nil
	}
	if _, statErr := os.Stat(expanded); statErr == nil {
		abs, absErr := filepath.Abs(expanded)
		if absErr != nil {
			return domain.ModInfo{}, absErr
		}
		return domain.ModInfo{ModArtifact: domain.ModArtifact{Path: abs, Name: filepath.Base(abs)}}, nil
	}
	return domain.ModInfo{}, err
}

func runSetEnabled(cmd *cobra.Command, ref string, enabled bool) error {
	if err := requireGame(cmd); err != nil {
		return err
	}

	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(service)

	mod, err := resolveMod(service, ref)
	if err != nil {
		return describeError(err)
	}
	out, err := service.Mods().SetModEnabled(gameID, mod.Path, enabled)
	if err != nil {
		return describeError(err)
	}
	printOutcome(cmd, out)
	return nil
}

func runModsAddExternal(cmd *cobra.Command, args []string) error {
	if err := requireGame(cmd); err != nil {
		return err
	}

	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(service)

	out, err := service.Mods().AddExternalMod(gameID, args[0])
	if err != nil {
		return describeError(err)
	}
	printOutcome(cmd, out)
	return nil
}

func runModsRemove(cmd *cobra.Command, args []string) error {
	if err := requireGame(cmd); err != nil {
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
	out, err := service.Mods().RemoveMod(gameID, mod.Path)
	if err != nil {
		return describeError(err)
	}
	printOutcome(cmd, out)
	return nil
}

// parseDeps reads dependency flags; a trailing '?' marks one optional
func parseDeps(values []string) []domain.Dependency {
	var deps []domain.Dependency
	for _, v := range values {
		v = strings.TrimSpace(v)
		optional := strings.HasSuffix(v, "?")
		v = strings.TrimSuffix(v, "?")
		if v == "" {
			continue
		}
		deps = append(deps, domain.Dependency{ID: v, Optional: optional})
	}
	return deps
}

// optionsFromFlags builds advanced options from the options command's flags
func optionsFromFlags() domain.AdvancedOptions {
	opts := domain.AdvancedOptions{
		Optional:   optOptional,
		LoadEarly:  optLoadEarly,
		Finalizer:  optFinalizer,
		LoadBefore: parseDeps(optLoadBefore),
		LoadAfter:  parseDeps(optLoadAfter),
	}
	switch {
	case optInitializer != "":
		opts.Initializer = &domain.Initializer{Function: optInitializer}
	case optDelayMS > 0:
		opts.Initializer = &domain.Initializer{Delay: &domain.Delay{MS: optDelayMS}}
	}
	return opts.Normalized()
}

func runModsOptions(cmd *cobra.Command, args []string) error {
	if err := requireGame(cmd); err != nil {
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
	opts := optionsFromFlags()
	isPackage := mod.Kind == domain.KindPackage

	if isPackage && (opts.LoadEarly || opts.Initializer != nil || opts.Finalizer != "") {
		return fmt.Errorf("--load-early, --initializer, --delay-ms and --finalizer only apply to DLLs")
	}

	var out core.Outcome
	if optEnable && !isPackage {
		out, err = service.Mods().EnableNativeWithOptions(gameID, mod.Path, opts)
	} else {
		out, err = service.Mods().UpdateAdvancedOptions(gameID, mod.Path, opts, isPackage)
	}
	if err != nil {
		return describeError(err)
	}
	printOutcome(cmd, out)
	return nil
}

func runModsConfig(cmd *cobra.Command, args []string) error {
	if err := requireGame(cmd); err != nil {
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
	if mod.Key != "" && !mod.Kind.IsNative() {
		return fmt.Errorf("%s is a package; only DLLs have config files", mod.Name)
	}

	if modConfigSet != "" {
		out, err := service.Mods().SetConfigPath(gameID, mod.Path, modConfigSet)
		if err != nil {
			return describeError(err)
		}
		printOutcome(cmd, out)
		return nil
	}

	paths, err := service.Mods().ConfigPaths(gameID, mod.Path)
	if err != nil {
		return describeError(err)
	}
	if jsonOutput {
		return printJSON(cmd, paths)
	}
	for _, p := range paths {
		mark := colorGreen("exists")
		if _, err := os.Stat(p); err != nil {
			mark = colorYellow("not found")
		}
		cmd.Printf("%s  (%s)\n", p, mark)
	}
	return nil
}
