package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/partsbin/partsbin/internal/pipeline"
	"github.com/partsbin/partsbin/internal/ui"
	"github.com/partsbin/partsbin/internal/watcher"
)

var (
	watchNoInitial bool
	watchService   string
)

// watchCmd represents the watch command.
var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Watch a folder and add new scans automatically",
	Long: `Watch a directory for new or changed scans and add them without review.

This command first processes documents already in the directory (unless
--no-initial is given), then handles new files as they appear. Deleting a
scan never deletes its component.

Examples:
  # Watch the current directory
  partsbin watch

  # Watch a scanner's output folder
  partsbin watch ~/scans --service openai`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatchCmd,
}

func init() {
	watchCmd.Flags().BoolVar(&watchNoInitial, "no-initial", false, "skip processing existing documents")
	watchCmd.Flags().StringVarP(&watchService, "service", "s", "", "recognition service (openai, pdf, text)")
}

func runWatchCmd(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	service := cfg.OCR.Service
	if watchService != "" {
		service = watchService
	}

	ctx, cancel := signalContext(func(os.Signal) {
		fmt.Println("\nShutting down...")
	})
	defer cancel()

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	p, err := newPipeline(st, service, cfg.Pipeline, pipeline.AutoApprove{})
	if err != nil {
		return err
	}

	if !watchNoInitial {
		fmt.Println(ui.Header.Render("Initial Scan"))
		fmt.Printf("Path: %s\n", absPath)
		fmt.Printf("Service: %s\n", service)

		res, err := p.ProcessDir(ctx, absPath)
		if err != nil {
			if ctx.Err() != nil {
				return nil // User cancelled
			}
			return fmt.Errorf("initial scan failed: %w", err)
		}
		printResult(res)
		fmt.Println()
	}

	w, err := watcher.New(
		absPath,
		p,
		cfg.Pipeline,
		watcher.WithDebounceTime(time.Duration(cfg.Watch.DebounceMS)*time.Millisecond),
		watcher.WithEventCallback(func(relPath string, res pipeline.Result, err error) {
			switch {
			case err != nil:
				fmt.Printf("%s %s\n", ui.FormatOutcome("error"), relPath)
			case res.Added > 0:
				fmt.Printf("%s %s\n", ui.FormatOutcome("added"), ui.FilePath.Render(relPath))
			default:
				log.Debug("No new component", "path", relPath, "result", res)
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	fmt.Println(ui.Header.Render("Watching for New Scans"))
	fmt.Printf("Directory: %s\n", w.Root())
	fmt.Println("Press Ctrl+C to stop.")
	fmt.Println()

	if err := w.Start(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
