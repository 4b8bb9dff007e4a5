package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the backend is reachable",
	Args:  cobra.NoArgs,
	RunE:  runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, _ []string) error {
	if corpusService == nil {
		return errors.New("corpus service not configured")
	}

	health, err := corpusService.Health(cmd.Context())
	if err != nil {
		cmd.Println(errorColor.Sprint("Backend unreachable"))
		return fmt.Errorf("health check failed: %w", err)
	}

	if !health.IsHealthy() {
		cmd.Println(warnColor.Sprintf("%s reports status %q", health.Service, health.Status))
		return fmt.Errorf("backend unhealthy: %s", health.Status)
	}

	cmd.Println(successColor.Sprintf("%s is %s", health.Service, health.Status))
	return nil
}
