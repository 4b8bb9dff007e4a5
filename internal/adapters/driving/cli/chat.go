package cli

import (
	"bufio"
	"errors"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Starts a line-oriented chat over your documents. Earlier turns are sent
as history with every question.

Commands:
  /sources   Show or hide the sources of the last answer
  /prompt    Show or hide the prompt of the last answer (developer mode)
  /dev       Toggle developer mode
  /topk N    Set passages retrieved per question
  /refresh   Re-fetch the document list
  /clear     Clear the conversation
  /quit      Exit`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if chatSession == nil {
		return errors.New("chat service not configured")
	}
	if corpusService == nil {
		return errors.New("corpus service not configured")
	}

	ctx := cmd.Context()
	corpusService.Load(ctx)

	if corpusService.IsEmpty() {
		cmd.Println(warnColor.Sprint("No documents uploaded yet. Upload one with 'ragchat document upload <file>'."))
	} else {
		cmd.Printf("%d documents indexed. Type /quit to exit.\n", corpusService.Len())
	}

	repl := &chatREPL{cmd: cmd}
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		cmd.Print(boldColor.Sprint("> "))
		if !scanner.Scan() {
			cmd.Println()
			return scanner.Err()
		}
		if quit := repl.handle(scanner.Text()); quit {
			return nil
		}
	}
}

// chatREPL tracks which answer the disclosure commands apply to.
type chatREPL struct {
	cmd    *cobra.Command
	lastID int64
}

// handle processes one input line and reports whether to exit.
func (r *chatREPL) handle(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	if strings.HasPrefix(trimmed, "/") {
		return r.command(trimmed)
	}
	r.ask(line)
	return false
}

func (r *chatREPL) ask(question string) {
	cmd := r.cmd
	// Another shell may have uploaded since the last listing
	if corpusService.IsEmpty() {
		if err := corpusService.Refresh(cmd.Context()); err != nil {
			cmd.Println(errorColor.Sprint(domain.UserMessage(err)))
			return
		}
	}
	if !chatSession.CanSend(question) {
		if corpusService.IsEmpty() {
			cmd.Println(warnColor.Sprint("Upload a document before asking questions."))
		}
		return
	}

	cmd.Println(dimColor.Sprint("Thinking..."))
	turn, err := chatSession.Send(cmd.Context(), question)
	if turn == nil {
		if err != nil && !errors.Is(err, domain.ErrStaleExchange) {
			cmd.Println(errorColor.Sprint(domain.ChatErrorContent(err)))
		}
		return
	}

	r.lastID = turn.ID
	printAnswer(cmd, *turn, false, false)
	if turn.HasSources() {
		cmd.Println(dimColor.Sprint("Type /sources to show them."))
	}
	cmd.Println()
}

func (r *chatREPL) command(line string) bool {
	cmd := r.cmd
	fields := strings.Fields(line)

	switch fields[0] {
	case "/quit", "/exit":
		return true

	case "/clear":
		chatSession.Clear()
		r.lastID = 0
		cmd.Println("Conversation cleared.")

	case "/sources":
		if !chatSession.ToggleSources(r.lastID) {
			cmd.Println("The last answer has no sources.")
			return false
		}
		if chatSession.SourcesVisible(r.lastID) {
			if turn, ok := r.lastTurn(); ok {
				printSources(cmd, turn.Sources)
				cmd.Println()
			}
		} else {
			cmd.Println("Sources hidden.")
		}

	case "/prompt":
		if !chatSession.TogglePrompt(r.lastID) {
			cmd.Println("The last answer has no prompt. Enable /dev first.")
			return false
		}
		if chatSession.PromptVisible(r.lastID) {
			if turn, ok := r.lastTurn(); ok {
				cmd.Println(indent(turn.PromptUsed, "  "))
			}
		} else {
			cmd.Println("Prompt hidden.")
		}

	case "/refresh":
		if err := corpusService.Refresh(cmd.Context()); err != nil {
			cmd.Println(errorColor.Sprint(domain.UserMessage(err)))
			return false
		}
		cmd.Printf("%d documents indexed.\n", corpusService.Len())

	case "/dev":
		enabled := !chatSession.Config().DeveloperMode
		chatSession.SetDeveloperMode(enabled)
		cmd.Printf("Developer mode %s.\n", onOff(enabled))

	case "/topk":
		if len(fields) != 2 {
			cmd.Printf("Usage: /topk N (current %d)\n", chatSession.Config().TopK)
			return false
		}
		n, err := strconv.Atoi(fields[1])
		if err == nil {
			err = chatSession.SetTopK(n)
		}
		if err != nil {
			cmd.Println(errorColor.Sprintf("Invalid top-k: %s", fields[1]))
			return false
		}
		cmd.Printf("Retrieving %d passages per question.\n", n)

	default:
		cmd.Printf("Unknown command %s. Try /sources, /prompt, /dev, /topk, /refresh, /clear or /quit.\n", fields[0])
	}
	return false
}

func (r *chatREPL) lastTurn() (domain.ChatTurn, bool) {
	transcript := chatSession.Transcript()
	for i := len(transcript) - 1; i >= 0; i-- {
		if transcript[i].ID == r.lastID {
			return transcript[i], true
		}
	}
	return domain.ChatTurn{}, false
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}
