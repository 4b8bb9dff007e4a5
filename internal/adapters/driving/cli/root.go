// Package cli provides the cobra command tree for ragchat.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services configured by SetServices or the factory passed to Execute.
var (
	corpusService        driving.CorpusService
	documentOrchestrator driving.DocumentOrchestrator
	chatSession          driving.ChatSession
	settingsService      driving.SettingsService
	historyService       driving.HistoryService
)

// Global flags.
var (
	verboseFlag bool
	apiURLFlag  string
	logFileFlag string
)

// Services bundles the driving ports the commands use.
type Services struct {
	Corpus       driving.CorpusService
	Orchestrator driving.DocumentOrchestrator
	Chat         driving.ChatSession
	Settings     driving.SettingsService
	History      driving.HistoryService
}

// Options carries global flag values to the service factory.
type Options struct {
	APIURL string
}

// ServiceFactory builds services once flags are parsed. The returned
// cleanup func is called after the command finishes.
type ServiceFactory func(opts Options) (*Services, func(), error)

var (
	serviceFactory ServiceFactory
	cleanup        func()
)

var rootCmd = &cobra.Command{
	Use:   "ragchat",
	Short: "Chat with your documents",
	Long: `ragchat is a terminal client for a retrieval-augmented chat backend.

Upload PDF, DOCX or TXT files, then ask questions answered from their content
with cited sources.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "print debug logs to stderr")
	rootCmd.PersistentFlags().StringVar(&apiURLFlag, "api-url", "", "backend base URL (overrides env and settings)")
	rootCmd.PersistentFlags().StringVar(&logFileFlag, "log-file", "", "write JSON logs to this file")
}

// SetServices sets the services used by the commands.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	corpusService = s.Corpus
	documentOrchestrator = s.Orchestrator
	chatSession = s.Chat
	settingsService = s.Settings
	historyService = s.History
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command. factory may be nil when services were
// configured with SetServices. Cancelling ctx aborts in-flight requests.
func Execute(ctx context.Context, factory ServiceFactory) error {
	serviceFactory = factory
	defer func() {
		if cleanup != nil {
			cleanup()
			cleanup = nil
		}
		serviceFactory = nil
	}()
	return rootCmd.ExecuteContext(ctx)
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verboseFlag)
	if logFileFlag != "" {
		if err := logger.SetLogFile(logFileFlag); err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
	}
	logger.Debug("Running %s", cmd.CommandPath())

	if serviceFactory == nil || skipsServices(cmd) {
		return nil
	}

	svc, done, err := serviceFactory(Options{APIURL: apiURLFlag})
	if err != nil {
		return fmt.Errorf("initialise: %w", err)
	}
	SetServices(svc)
	cleanup = done
	return nil
}

// skipsServices reports whether cmd runs without backend services.
func skipsServices(cmd *cobra.Command) bool {
	return cmd == versionCmd || cmd.Name() == "help" || cmd.Name() == "completion"
}
