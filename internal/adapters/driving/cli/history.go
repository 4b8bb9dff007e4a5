package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

const timeLayout = "2006-01-02 15:04:05"

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse archived chat sessions",
	Long: `Completed questions and answers are archived locally in
~/.ragchat/data/history.db unless archive.enabled is false.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived sessions",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [session-id]",
	Short: "Print the exchanges of a session",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

// historySources includes citations in history show.
var historySources bool

func init() {
	historyShowCmd.Flags().BoolVarP(&historySources, "sources", "s", false, "print source passages")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}

	sessions, err := historyService.ListSessions(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(sessions) == 0 {
		cmd.Println("No archived sessions.")
		return nil
	}

	cmd.Println("Sessions:")
	cmd.Println()
	for i := range sessions {
		cmd.Printf("  %s\n", boldColor.Sprint(sessions[i].ID))
		cmd.Printf("    Exchanges: %d\n", sessions[i].Exchanges)
		cmd.Printf("    Started:   %s\n", sessions[i].StartedAt.Local().Format(timeLayout))
		cmd.Printf("    Last:      %s\n", sessions[i].LastAt.Local().Format(timeLayout))
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}

	sessionID := args[0]
	exchanges, err := historyService.Exchanges(cmd.Context(), sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("no archived session %s", sessionID)
	}
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}

	generation := exchanges[0].Generation
	for i := range exchanges {
		ex := exchanges[i]
		if ex.Generation != generation {
			cmd.Println(dimColor.Sprint("--- cleared ---"))
			cmd.Println()
			generation = ex.Generation
		}

		cmd.Printf("%s %s\n",
			dimColor.Sprint(ex.Question.CreatedAt.Local().Format(timeLayout)),
			boldColor.Sprint("You: "+ex.Question.Content))
		printAnswer(cmd, ex.Answer, historySources, false)
		cmd.Println()
	}
	return nil
}
