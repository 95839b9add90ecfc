package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/DonovanMods/me3-mod-manager/internal/domain"
	"github.com/DonovanMods/me3-mod-manager/internal/profiledoc"
)

var (
	profileCreateModsDir string
	profileCreateVersion string
	profileCreateSwitch  bool
	profileShowVersion   string
	profileExportFormat  string
	profileExportOutput  string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage ME3 profiles",
	Long: `Manage the .me3 profiles of a game.

Every game has an implicit "Default" profile that lives in the ME3 profiles
root. Custom profiles get their own mods folder with the .me3 file inside it.`,
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles",
	Args:  cobra.NoArgs,
	RunE:  runProfileList,
}

var profileCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new profile",
	Long: `Create a custom profile with its own mods folder.

Examples:
  me3m profile create "Co-op Run"
  me3m profile create "Boss Rush" --mods-dir ~/games/boss-rush-mods --version v2 --switch`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileCreate,
}

var profileSwitchCmd = &cobra.Command{
	Use:   "switch <profile>",
	Short: "Make a profile the active one",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileSwitch,
}

var profileRenameCmd = &cobra.Command{
	Use:   "rename <profile> <new-name>",
	Short: "Rename a custom profile; files keep their names",
	Args:  cobra.ExactArgs(2),
	RunE:  runProfileRename,
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <profile>",
	Short: "Forget a custom profile; its files are kept",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileDelete,
}

var profileConvertCmd = &cobra.Command{
	Use:   "convert <v1|v2>",
	Short: "Rewrite the active profile in another schema version",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileConvert,
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the active profile as TOML",
	Args:  cobra.NoArgs,
	RunE:  runProfileShow,
}

var profileCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check load_before/load_after relations and print the load order",
	Args:  cobra.NoArgs,
	RunE:  runProfileCheck,
}

var profileExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the active profile",
	Long: `Export the active profile as YAML or TOML.

Examples:
  me3m profile export > profile.yaml
  me3m profile export --format toml -o backup.me3`,
	Args: cobra.NoArgs,
	RunE: runProfileExport,
}

func init() {
	profileCreateCmd.Flags().StringVar(&profileCreateModsDir, "mods-dir", "", "mods folder for the profile (default: <profiles root>/<name>-mods)")
	profileCreateCmd.Flags().StringVar(&profileCreateVersion, "version", "", "profile schema, v1 or v2 (default from config.yaml)")
	profileCreateCmd.Flags().BoolVar(&profileCreateSwitch, "switch", false, "make the new profile active")

	profileShowCmd.Flags().StringVar(&profileShowVersion, "version", "", "render in this schema instead of the file's own")

	profileExportCmd.Flags().StringVarP(&profileExportFormat, "format", "f", "yaml", "export format: yaml or toml")
	profileExportCmd.Flags().StringVarP(&profileExportOutput, "output", "o", "", "write to a file instead of stdout")

	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileCreateCmd)
	profileCmd.AddCommand(profileSwitchCmd)
	profileCmd.AddCommand(profileRenameCmd)
	profileCmd.AddCommand(profileDeleteCmd)
	profileCmd.AddCommand(profileConvertCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileCheckCmd)
	profileCmd.AddCommand(profileExportCmd)
	rootCmd.AddCommand(profileCmd)
}

func runProfileList(cmd *cobra.Command, args []string) error {
	if err := requireGame(cmd); err != nil {
		return err
	}

	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(service)

	profiles, err := service.Profiles().List(gameID)
	if err != nil {
		return describeError(err)
	}
	active, err := service.Profiles().Active(gameID)
	if err != nil {
		return describeError(err)
	}

	if jsonOutput {
		type profileJSON struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			ProfilePath string `json:"profile_path"`
			ModsPath    string `json:"mods_path"`
			Active      bool   `json:"active"`
		}
		out := make([]profileJSON, 0, len(profiles))
		for _, p := range profiles {
			out = append(out, profileJSON{p.ID, p.Name, p.ProfilePath, p.ModsPath, p.ID == active.ID})
		}
		return printJSON(cmd, out)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPROFILE\tMODS DIR\t")
	fmt.Fprintln(w, "----\t-------\t--------\t")
	for _, p := range profiles {
		mark := ""
		if p.ID == active.ID {
			mark = colorGreen("[active]")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.Name, p.ProfilePath, p.ModsPath, mark)
	}
	return w.Flush()
}

func runProfileCreate(cmd *cobra.Command, args []string) error {
	if err := requireGame(cmd); err != nil {
		return err
	}

	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(service)

	version := service.ProfileVersion()
	if profileCreateVersion != "" {
		if version, err = profiledoc.ParseVersion(profileCreateVersion); err != nil {
			return err
		}
	}

	profile, err := service.Profiles().Create(gameID, args[0], profileCreateModsDir, version)
	if err != nil {
		return describeError(err)
	}
	cmd.Printf("Created profile %s\n", profile.Name)
	cmd.Printf("  Profile: %s\n", profile.ProfilePath)
	cmd.Printf("  Mods:    %s\n", profile.ModsPath)

	if profileCreateSwitch {
		if _, err := service.Profiles().Switch(gameID, profile.ID); err != nil {
			return err
		}
		cmd.Printf("Switched to %s\n", profile.Name)
	}
	return nil
}

func runProfileSwitch(cmd *cobra.Command, args []string) error {
	if err := requireGame(cmd); err != nil {
		return err
	}

	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(service)

	profile, err := service.Profiles().Switch(gameID, args[0])
	if err != nil {
		return describeError(err)
	}
	cmd.Printf("Switched to %s\n", profile.Name)
	return nil
}

func runProfileRename(cmd *cobra.Command, args []string) error {
	if err := requireGame(cmd); err != nil {
		return err
	}

	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(service)

	if err := service.Profiles().Rename(gameID, args[0], args[1]); err != nil {
		return describeError(err)
	}
	cmd.Printf("Renamed %s to %s\n", args[0], args[1])
	return nil
}

func runProfileDelete(cmd *cobra.Command, args []string) error {
	if err := requireGame(cmd); err != nil {
		return err
	}

	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(service)

	profile, err := service.Profiles().Get(gameID, args[0])
	if err != nil {
		return describeError(err)
	}
	if err := service.Profiles().Delete(gameID, profile.ID); err != nil {
		return describeError(err)
	}
	cmd.Printf("Deleted profile %s; files in %s were kept\n", profile.Name, profile.ModsPath)
	return nil
}

func runProfileConvert(cmd *cobra.Command, args []string) error {
	if err := requireGame(cmd); err != nil {
		return err
	}
	version, err := profiledoc.ParseVersion(args[0])
	if err != nil {
		return err
	}

	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(service)

	out, err := service.Mods().ConvertProfile(gameID, version)
	if err != nil {
		return describeError(err)
	}
	printOutcome(cmd, out)
	return nil
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	if err := requireGame(cmd); err != nil {
		return err
	}

	var version profiledoc.Version
	if profileShowVersion != "" {
		v, err := profiledoc.ParseVersion(profileShowVersion)
		if err != nil {
			return err
		}
		version = v
	}

	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(service)

	doc, err := service.Mods().Document(gameID)
	if err != nil {
		return describeError(err)
	}
	data, err := profiledoc.Serialize(doc, version)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func runProfileCheck(cmd *cobra.Command, args []string) error {
	if err := requireGame(cmd); err != nil {
		return err
	}

	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(service)

	order, problems, err := service.Mods().LoadOrder(gameID)
	for _, p := range problems {
		cmd.Printf("%s %s: %s\n", colorYellow("!"), p.From, p.Message)
	}
	if err != nil {
		return describeError(err)
	}

	cmd.Println("Load order:")
	for i, n := range order {
		kind := "dll"
		if n.Package {
			kind = "package"
		}
		cmd.Printf("  %2d. %s %s\n", i+1, n.ID, colorDim("("+kind+")"))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%d load-order problem(s)", len(problems))
	}
	cmd.Println(colorGreen("✓") + " No problems found")
	return nil
}

// exportDependency is the YAML shape of a load-order relation
type exportDependency struct {
	ID       string `yaml:"id"`
	Optional bool   `yaml:"optional,omitempty"`
}

type exportNative struct {
	Path        string             `yaml:"path,omitempty"`
	NexusLink   string             `yaml:"nexus_link,omitempty"`
	Optional    bool               `yaml:"optional,omitempty"`
	LoadEarly   bool               `yaml:"load_early,omitempty"`
	Initializer string             `yaml:"initializer,omitempty"`
	DelayMS     int64              `yaml:"delay_ms,omitempty"`
	Finalizer   string             `yaml:"finalizer,omitempty"`
	Config      []string           `yaml:"config,omitempty"`
	LoadBefore  []exportDependency `yaml:"load_before,omitempty"`
	LoadAfter   []exportDependency `yaml:"load_after,omitempty"`
}

type exportPackage struct {
	ID         string             `yaml:"id"`
	Path       string             `yaml:"path"`
	LoadBefore []exportDependency `yaml:"load_before,omitempty"`
	LoadAfter  []exportDependency `yaml:"load_after,omitempty"`
}

type exportProfile struct {
	Game     string          `yaml:"game"`
	Profile  string          `yaml:"profile"`
	Version  string          `yaml:"version"`
	Launch   string          `yaml:"launch,omitempty"`
	Savefile string          `yaml:"savefile,omitempty"`
	Supports []string        `yaml:"supports,omitempty"`
	Natives  []exportNative  `yaml:"natives,omitempty"`
	Packages []exportPackage `yaml:"packages,omitempty"`
}

func exportDeps(deps []domain.Dependency) []exportDependency {
	out := make([]exportDependency, 0, len(deps))
	for _, d := range deps {
		out = append(out, exportDependency{ID: d.ID, Optional: d.Optional})
	}
	return out
}

func toExport(gameID, profileName string, doc *profiledoc.Document) exportProfile {
	out := exportProfile{
		Game:     gameID,
		Profile:  profileName,
		Version:  string(doc.Version),
		Launch:   doc.Launch,
		Savefile: doc.Savefile,
	}
	for _, s := range doc.Supports {
		out.Supports = append(out.Supports, s.Game)
	}
	for _, n := range doc.Natives {
		en := exportNative{
			Path:       n.Path,
			NexusLink:  n.NexusLink,
			Optional:   n.Optional,
			LoadEarly:  n.LoadEarly,
			Finalizer:  n.Finalizer,
			Config:     n.Config,
			LoadBefore: exportDeps(n.LoadBefore),
			LoadAfter:  exportDeps(n.LoadAfter),
		}
		if n.Initializer != nil {
			en.Initializer = n.Initializer.Function
			if n.Initializer.Delay != nil {
				en.DelayMS = n.Initializer.Delay.MS
			}
		}
		out.Natives = append(out.Natives, en)
	}
	for _, p := range doc.Packages {
		out.Packages = append(out.Packages, exportPackage{
			ID:         p.ID,
			Path:       p.Path,
			LoadBefore: exportDeps(p.LoadBefore),
			LoadAfter:  exportDeps(p.LoadAfter),
		})
	}
	return out
}

func runProfileExport(cmd *cobra.Command, args []string) error {
	if err := requireGame(cmd); err != nil {
		return err
	}
	if profileExportFormat != "yaml" && profileExportFormat != "toml" {
		return fmt.Errorf("unsupported format %q (use yaml or toml)", profileExportFormat)
	}

	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(service)

	gc, err := service.Context(gameID)
	if err != nil {
		return describeError(err)
	}
	doc, err := service.Mods().Document(gameID)
	if err != nil {
		return describeError(err)
	}

	var data []byte
	if profileExportFormat == "toml" {
		data, err = profiledoc.Serialize(doc, "")
	} else {
		data, err = yaml.Marshal(toExport(gameID, gc.Profile.Name, doc))
	}
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}

	if profileExportOutput == "" {
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(profileExportOutput, data, 0644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	cmd.Printf("Exported %s to %s\n", gc.Profile.Name, profileExportOutput)
	return nil
}
