package cli

import (
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

var (
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	accentColor  = color.New(color.FgCyan)
	dimColor     = color.New(color.Faint)
	boldColor    = color.New(color.Bold)
)

// confidenceColor grades a [0,1] confidence score.
func confidenceColor(confidence float64) *color.Color {
	switch {
	case confidence >= 0.7:
		return successColor
	case confidence >= 0.4:
		return warnColor
	default:
		return errorColor
	}
}

// printAnswer renders an assistant turn with its confidence, sources and prompt.
func printAnswer(cmd *cobra.Command, turn domain.ChatTurn, withSources, withPrompt bool) {
	if turn.Failed {
		cmd.Println(errorColor.Sprint(turn.Content))
		return
	}

	cmd.Println(turn.Content)
	cmd.Println()
	cmd.Printf("%s %s\n", dimColor.Sprint("Confidence:"),
		confidenceColor(turn.Confidence).Sprint(domain.FormatPercent(turn.Confidence)))

	if turn.HasSources() {
		cmd.Println(accentColor.Sprint(domain.SourceCountLabel(len(turn.Sources))))
		if withSources {
			printSources(cmd, turn.Sources)
		}
	}

	if turn.HasPrompt() && withPrompt {
		cmd.Println()
		cmd.Println(dimColor.Sprint("Prompt used:"))
		cmd.Println(indent(turn.PromptUsed, "  "))
	}
}

func printSources(cmd *cobra.Command, sources []domain.SourceCitation) {
	for i := range sources {
		src := sources[i]
		cmd.Println()
		cmd.Printf("  %s  %s\n",
			boldColor.Sprintf("Source %d", i+1),
			accentColor.Sprintf("%s match", domain.FormatPercent(src.SimilarityScore)))
		cmd.Printf("  %s\n", dimColor.Sprint(src.Location()))
		cmd.Println(indent(src.Text, "    "))
	}
}

func indent(text, prefix string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i := range lines {
		lines[i] = prefix + lines[i]
	}
	return strings.Join(lines, "\n")
}
