package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/tui"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for ragchat.

The TUI shows your documents next to the conversation. Drop a file onto the
terminal or press Ctrl+U to upload it.

Controls:
  Enter          - Send question
  Alt+Enter      - New line
  Tab            - Switch between chat and documents
  Ctrl+K/Ctrl+J  - Select previous/next answer
  Ctrl+S         - Show or hide sources
  Ctrl+P         - Show or hide the prompt (developer mode)
  Ctrl+T         - Toggle developer mode
  Ctrl+O         - Show index information
  Ctrl+L         - Clear conversation
  Ctrl+C         - Quit

Logs are written to ~/.ragchat/logs/ragchat.log unless --log-file is given.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	if corpusService == nil || documentOrchestrator == nil || chatSession == nil {
		return errors.New("services not configured")
	}

	// Console logs would draw over the alternate screen
	logger.SetOutput(io.Discard)
	if logFileFlag == "" {
		if path, err := defaultLogFile(); err == nil {
			if err := logger.SetLogFile(path); err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
		}
	}

	ports := tui.NewPorts(corpusService, documentOrchestrator, chatSession)

	app, err := tui.NewApp(ports)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context())

	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// defaultLogFile returns ~/.ragchat/logs/ragchat.log.
func defaultLogFile() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".ragchat", "logs", "ragchat.log"), nil
}
