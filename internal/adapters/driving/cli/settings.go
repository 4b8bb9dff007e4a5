package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change the backend connection and chat defaults.

Settings are stored in ~/.ragchat/config.toml. The backend URL can also be
given with --api-url or the RAGCHAT_API_URL environment variable.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change one setting",
	Long: `Change one setting by key, for example:

  ragchat settings set api.url http://rag.internal:8000
  ragchat settings set chat.top_k 8
  ragchat settings set chat.developer_mode true`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[API]")
	cmd.Printf("  URL: %s\n", settings.API.URL)
	cmd.Printf("  Timeout: %ds\n", settings.API.TimeoutSeconds)
	cmd.Printf("  Max retries: %d\n", settings.API.MaxRetries)
	if settings.API.RateLimit > 0 {
		cmd.Printf("  Rate limit: %g req/s\n", settings.API.RateLimit)
	} else {
		cmd.Println("  Rate limit: off")
	}
	cmd.Println()

	cmd.Println("[Chat]")
	cmd.Printf("  Top K: %d\n", settings.Chat.TopK)
	cmd.Printf("  Developer mode: %s\n", onOff(settings.Chat.DeveloperMode))
	cmd.Println()

	cmd.Println("[Archive]")
	cmd.Printf("  Enabled: %s\n", onOff(settings.Archive.Enabled))
	cmd.Println()

	cmd.Printf("File: %s\n", settingsService.Path())

	if err := settingsService.Validate(settings); err != nil {
		cmd.Println(warnColor.Sprintf("Warning: %v", err))
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w (keys: %s)", key, err, strings.Join(settingsService.Keys(), ", "))
	}

	cmd.Printf("Set %s = %s\n", key, value)
	return nil
}
