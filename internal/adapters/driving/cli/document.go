package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

var documentCmd = &cobra.Command{
	Use:     "document",
	Aliases: []string{"doc", "docs"},
	Short:   "Manage indexed documents",
	Long:    `List, upload, or delete the documents the backend answers from.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentUploadCmd = &cobra.Command{
	Use:   "upload [path...]",
	Short: "Upload documents for indexing",
	Long: `Uploads one or more files. Accepted types are PDF, DOCX and TXT.
Files are uploaded one at a time; the document list is refreshed after each.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDocumentUpload,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [filename]",
	Short: "Delete a document and its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

var documentInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show index statistics",
	Args:  cobra.NoArgs,
	RunE:  runDocumentInfo,
}

// deleteYes skips the confirmation prompt.
var deleteYes bool

func init() {
	documentDeleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "delete without asking for confirmation")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentUploadCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	documentCmd.AddCommand(documentInfoCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if corpusService == nil {
		return errors.New("corpus service not configured")
	}

	if err := corpusService.Refresh(cmd.Context()); err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	docs := corpusService.Documents()
	if len(docs) == 0 {
		cmd.Println("No documents uploaded yet.")
		return nil
	}

	cmd.Println("Documents:")
	cmd.Println()
	for i := range docs {
		cmd.Printf("  %s\n", boldColor.Sprint(docs[i].Filename))
		cmd.Printf("    Chunks: %d\n", docs[i].NumChunks)
		cmd.Printf("    ID:     %s\n", dimColor.Sprint(docs[i].DocumentID))
	}
	cmd.Println()
	cmd.Printf("Total: %d documents, %d chunks\n", len(docs), domain.TotalChunks(docs))
	return nil
}

func runDocumentUpload(cmd *cobra.Command, args []string) error {
	if documentOrchestrator == nil {
		return errors.New("document service not configured")
	}

	ctx := cmd.Context()
	failed := 0
	for _, path := range args {
		if !domain.IsAcceptedFile(path) {
			cmd.Println(warnColor.Sprintf("Warning: %s is not a PDF, DOCX or TXT file", path))
		}

		cmd.Printf("Uploading %s...\n", path)
		result, err := documentOrchestrator.Upload(ctx, path)
		if result == nil {
			failed++
			cmd.Println(errorColor.Sprintf("Upload failed: %s", domain.UserMessage(err)))
			continue
		}

		cmd.Println(successColor.Sprintf("Uploaded %s (%d chunks)", result.Filename, result.NumChunks))
		if err != nil {
			cmd.Println(warnColor.Sprintf("Warning: %v", err))
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(args))
	}
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentOrchestrator == nil {
		return errors.New("document service not configured")
	}

	filename := args[0]
	confirm := driving.AlwaysConfirm
	if !deleteYes {
		in := cmd.InOrStdin()
		if f, ok := in.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
			return errors.New("stdin is not a terminal; pass --yes to delete without confirmation")
		}
		confirm = promptConfirm(cmd, in)
	}

	deleted, err := documentOrchestrator.Delete(cmd.Context(), filename, confirm)
	if !deleted && err == nil {
		cmd.Println("Cancelled.")
		return nil
	}
	if !deleted {
		return fmt.Errorf("delete failed: %s", domain.UserMessage(err))
	}

	cmd.Println(successColor.Sprintf("Deleted %s", filename))
	if err != nil {
		cmd.Println(warnColor.Sprintf("Warning: %v", err))
	}
	return nil
}

// promptConfirm asks a yes/no question on the command's streams.
func promptConfirm(cmd *cobra.Command, in io.Reader) driving.ConfirmFunc {
	reader := bufio.NewReader(in)
	return func(filename string) bool {
		cmd.Printf("Delete %q? [y/N]: ", filename)
		answer, _ := reader.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true
		default:
			return false
		}
	}
}

func runDocumentInfo(cmd *cobra.Command, _ []string) error {
	if corpusService == nil {
		return errors.New("corpus service not configured")
	}

	info, err := corpusService.Info(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get index info: %w", err)
	}

	cmd.Println("Index")
	cmd.Println("=====")
	cmd.Printf("  Chunks:     %d\n", info.TotalChunks)
	cmd.Printf("  Collection: %s\n", info.CollectionName)
	cmd.Printf("  Provider:   %s\n", info.Provider)
	cmd.Printf("  Model:      %s\n", info.Model)
	cmd.Printf("  Dimension:  %d\n", info.Dimension)
	cmd.Printf("  Metric:     %s\n", info.SimilarityMetric)
	return nil
}
