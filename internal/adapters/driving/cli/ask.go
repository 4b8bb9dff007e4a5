package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

var (
	askTopK    int
	askDev     bool
	askJSON    bool
	askSources bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about your documents",
	Long: `Sends one question to the backend and prints the grounded answer.

The answer is followed by its confidence and the number of supporting
sources. Use --sources to print the retrieved passages and --dev to
also print the prompt the backend used.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "passages to retrieve (default from settings)")
	askCmd.Flags().BoolVar(&askDev, "dev", false, "developer mode: include the generation prompt")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer turn as JSON")
	askCmd.Flags().BoolVarP(&askSources, "sources", "s", false, "print source passages")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if chatSession == nil {
		return errors.New("chat service not configured")
	}
	if corpusService == nil {
		return errors.New("corpus service not configured")
	}

	ctx := cmd.Context()
	question := strings.Join(args, " ")

	corpusService.Load(ctx)

	if askDev {
		chatSession.SetDeveloperMode(true)
	}

	turn, err := chatSession.SendWith(ctx, question, domain.AskOptions{TopK: askTopK})
	if turn == nil {
		if errors.Is(err, domain.ErrCorpusEmpty) {
			return fmt.Errorf("%w: upload one with 'ragchat document upload <file>'", err)
		}
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		data, jsonErr := json.MarshalIndent(turn, "", "  ")
		if jsonErr != nil {
			return fmt.Errorf("failed to marshal answer: %w", jsonErr)
		}
		cmd.Println(string(data))
	} else {
		printAnswer(cmd, *turn, askSources || askDev, askDev)
	}

	if err != nil {
		return fmt.Errorf("ask failed: %s", domain.UserMessage(err))
	}
	return nil
}
