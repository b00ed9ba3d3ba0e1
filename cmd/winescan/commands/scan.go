package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"winescan-app/cmd/winescan/ui"
	"winescan-app/internal/modules/scan/domain"
	"winescan-app/internal/modules/scan/usecase"
)

func newScanCmd(opts *rootOptions) *cobra.Command {
	var (
		language string
		asJSON   bool
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "scan <image>",
		Short: "Scan a wine label photo",
		Long:  "Run the full scan pipeline on a label photo and print the analysis. Ctrl-C cancels the scan.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			if len(data) == 0 {
				return fmt.Errorf("image %s is empty", args[0])
			}

			container, err := opts.newContainer()
			if err != nil {
				return err
			}
			defer func() { _ = container.Close() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runScan(ctx, cmd, container.Pipeline(), domain.ScanImage{
				Data:     data,
				MimeType: mimetype.Detect(data).String(),
			}, usecase.ScanOptions{
				Language:  language,
				SkipCache: noCache,
			}, asJSON)
		},
	}

	cmd.Flags().StringVarP(&language, "lang", "l", "", "OCR language or locale (e.g. sv, fr-FR)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "ignore cached analyses")

	return cmd
}

func runScan(ctx context.Context, cmd *cobra.Command, pipeline *usecase.ScanPipeline, img domain.ScanImage, scanOpts usecase.ScanOptions, asJSON bool) error {
	errOut := cmd.ErrOrStderr()
	out := cmd.OutOrStdout()

	bar := ui.NewProgressBar(errOut, "Förbereder")
	scanOpts.Progress = bar.Update

	outcome, err := pipeline.Run(ctx, img, scanOpts)
	bar.Finish()
	if err != nil {
		if scanErr, ok := domain.AsScanError(err); ok {
			ui.Error(errOut, "%s", scanErr.UserMessage())
		}
		return err
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(outcome)
	}

	ui.Analysis(out, outcome)
	return nil
}
