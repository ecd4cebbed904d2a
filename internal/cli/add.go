package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/partsbin/partsbin/internal/config"
	"github.com/partsbin/partsbin/internal/fs"
	"github.com/partsbin/partsbin/internal/ocr"
	"github.com/partsbin/partsbin/internal/pipeline"
	"github.com/partsbin/partsbin/internal/store"
	"github.com/partsbin/partsbin/internal/ui"
)

var (
	addService    string
	addYes        bool
	addExtensions []string
	addIgnore     []string
)

// addCmd runs scans through recognition and review into the store.
var addCmd = &cobra.Command{
	Use:   "add <path>...",
	Short: "Add components from scanned labels",
	Long: `Recognize text in scanned labels and add one component per document.

Directories are walked for images and PDFs; files are processed directly.
Documents already in the store (same file, or same recognized text) are
skipped. Each new record is shown for review unless --yes is given or
pipeline.auto_approve is set.

Examples:
  # Review each scan in a folder
  partsbin add ~/scans

  # Accept everything, reading plain text transcriptions
  partsbin add --service text --ext .txt -y notes/`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVarP(&addService, "service", "s", "", "recognition service (openai, pdf, text)")
	addCmd.Flags().BoolVarP(&addYes, "yes", "y", false, "accept every record without review")
	addCmd.Flags().StringSliceVarP(&addExtensions, "ext", "e", nil, "document extensions to include (e.g., .png, .pdf)")
	addCmd.Flags().StringSliceVarP(&addIgnore, "ignore", "i", nil, "additional patterns to ignore")
}

func runAdd(cmd *cobra.Command, args []string) error {
	pcfg := cfg.Pipeline
	if len(addExtensions) > 0 {
		pcfg.Extensions = addExtensions
	}
	pcfg.Ignore = append(append([]string{}, pcfg.Ignore...), addIgnore...)

	service := cfg.OCR.Service
	if addService != "" {
		service = addService
	}

	var reviewer pipeline.Reviewer = pipeline.AutoApprove{}
	if !addYes && !pcfg.AutoApprove {
		reviewer = newPromptReviewer(os.Stdin, os.Stdout)
	}

	ctx, cancel := signalContext(func(os.Signal) {
		fmt.Println("\nInterrupted, stopping...")
	})
	defer cancel()

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	p, err := newPipeline(st, service, pcfg, reviewer)
	if err != nil {
		return err
	}
	p.OnProgress = func(doc fs.DocumentInfo, outcome pipeline.Outcome) {
		fmt.Printf("%s %s\n", ui.FormatOutcome(fmt.Sprintf("%-14s", outcome)), ui.FilePath.Render(doc.RelPath))
	}

	fmt.Println(ui.Header.Render("Adding components"))
	fmt.Printf("Store: %s (%s)\n", st.Path(), store.BackendOf(st))
	fmt.Printf("Service: %s\n\n", service)

	res, err := p.Process(ctx, args)
	printResult(res)

	if errors.Is(err, errReviewQuit) {
		fmt.Println(ui.Warning.Render("Review stopped"))
		return nil
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}

// newPipeline wires a recognizer for service into a pipeline over st.
func newPipeline(st store.Store, service string, pcfg config.PipelineConfig, reviewer pipeline.Reviewer) (*pipeline.Pipeline, error) {
	rec, err := ocr.New(service, cfg.OCR)
	if err != nil {
		return nil, fmt.Errorf("failed to create recognizer: %w", err)
	}
	log.Debug("Created recognizer", "service", rec.Service())

	return pipeline.New(st, rec, pcfg, reviewer)
}

func printResult(res pipeline.Result) {
	fmt.Println()
	fmt.Printf("%s %d found, %s, %d duplicate file(s), %d duplicate text(s), %d rejected, %s\n",
		ui.Bold.Render("Done:"),
		res.Found,
		ui.Success.Render(fmt.Sprintf("%d added", res.Added)),
		res.DuplicateFile,
		res.DuplicateHash,
		res.Rejected,
		errorCount(res.Errors),
	)
}

func errorCount(n int) string {
	s := fmt.Sprintf("%d error(s)", n)
	if n > 0 {
		return ui.Error.Render(s)
	}
	return s
}
