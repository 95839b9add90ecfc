package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/DonovanMods/me3-mod-manager/internal/core"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the Nexus Mods API key",
	Long: `Manage the Nexus Mods API key used by 'me3m nexus' and URL installs.

Use 'me3m auth login' to store a key.
Use 'me3m auth logout' to remove it.
Use 'me3m auth status' to check which key is used.

The NEXUSMODS_API_KEY environment variable takes precedence over a stored key.`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store a Nexus Mods API key",
	Long: `Store a Nexus Mods API key.

  1. Visit https://www.nexusmods.com/users/myaccount?tab=api
  2. Click "Request an API Key" if you don't have one
  3. Copy your Personal API Key and paste it at the prompt`,
	Args: cobra.NoArgs,
	RunE: runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored Nexus Mods API key",
	Args:  cobra.NoArgs,
	RunE:  runAuthLogout,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which Nexus Mods API key is used",
	Args:  cobra.NoArgs,
	RunE:  runAuthStatus,
}

func init() {
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	apiKey, err := readAPIKey(cmd)
	if err != nil {
		return fmt.Errorf("reading API key: %w", err)
	}
	if apiKey == "" {
		return fmt.Errorf("API key cannot be empty")
	}

	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(service)

	if err := service.SaveToken(core.NexusService, apiKey); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}

	cmd.Println("Saved Nexus Mods API key.")
	if os.Getenv(nexusEnvKey) != "" {
		cmd.Printf("Note: %s is set and will be used instead.\n", nexusEnvKey)
	}
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(service)

	if err := service.DeleteToken(core.NexusService); err != nil {
		return fmt.Errorf("removing token: %w", err)
	}

	cmd.Println("Removed Nexus Mods credentials.")
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	if apiKey := os.Getenv(nexusEnvKey); apiKey != "" {
		cmd.Printf("Nexus Mods: authenticated via %s (key: %s)\n", nexusEnvKey, maskAPIKey(apiKey))
		return nil
	}

	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer closeService(service)

	token, err := service.GetToken(core.NexusService)
	if err != nil {
		return fmt.Errorf("checking credentials: %w", err)
	}
	if token == nil {
		cmd.Println("Nexus Mods: " + colorYellow("not authenticated"))
		return nil
	}
	cmd.Printf("Nexus Mods: authenticated (key: %s, saved %s)\n", token.Masked(), token.UpdatedAt.Format("2006-01-02"))
	return nil
}

// readAPIKey prompts for an API key, hiding input on a terminal
func readAPIKey(cmd *cobra.Command) (string, error) {
	cmd.Print("Enter API key: ")

	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(f.Fd()) {
		keyBytes, err := term.ReadPassword(f.Fd())
		cmd.Println()
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return strings.TrimSpace(string(keyBytes)), nil
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	key, err := reader.ReadString('\n')
	if err != nil && key == "" {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(key), nil
}

// maskAPIKey shows the first and last 3 characters of a key
func maskAPIKey(key string) string {
	if len(key) <= 6 {
		return "***"
	}
	return key[:3] + "..." + key[len(key)-3:]
}
