package cli

import (
	"errors"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/watch"
	"github.com/custodia-labs/ragchat/internal/core/domain"
)

var (
	watchSettle       time.Duration
	watchSkipExisting bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Upload documents added to a directory",
	Long: `Watches a directory and uploads new or changed PDF, DOCX and TXT files
once they stop changing. Uploads run one at a time. Press Ctrl+C to stop.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchSettle, "settle", watch.DefaultSettle, "quiet period before a file is uploaded")
	watchCmd.Flags().BoolVar(&watchSkipExisting, "skip-existing", true, "skip files whose name is already indexed")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if documentOrchestrator == nil {
		return errors.New("document service not configured")
	}
	if watchSkipExisting && corpusService == nil {
		return errors.New("corpus service not configured")
	}

	ctx := cmd.Context()
	if watchSkipExisting {
		corpusService.Load(ctx)
	}

	dir, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	w, err := watch.New(documentOrchestrator, corpusService, watch.Options{
		Dir:          dir,
		Settle:       watchSettle,
		SkipExisting: watchSkipExisting,
	})
	if err != nil {
		return err
	}

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", dir)
	return w.Run(ctx, func(ev watch.Event) {
		name := filepath.Base(ev.Path)
		switch {
		case ev.Skipped:
			cmd.Println(dimColor.Sprintf("Skipped %s (already indexed)", name))
		case ev.Result == nil:
			cmd.Println(errorColor.Sprintf("Upload failed: %s: %s", name, domain.UserMessage(ev.Err)))
		default:
			cmd.Println(successColor.Sprintf("Uploaded %s (%d chunks)", ev.Result.Filename, ev.Result.NumChunks))
			if ev.Err != nil {
				cmd.Println(warnColor.Sprintf("Warning: %v", ev.Err))
			}
		}
	})
}
