package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"winescan-app/cmd/winescan/ui"
	"winescan-app/internal/modules/scan/domain/service"
)

func newHashCmd(opts *rootOptions) *cobra.Command {
	var (
		text  string
		check bool
	)

	cmd := &cobra.Command{
		Use:   "hash [image]",
		Short: "Print the label hash used as the analysis cache key",
		Long:  "Compute the label hash from OCR text (--text) or from image bytes, and optionally check whether an analysis is cached.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			if len(args) == 1 {
				var err error
				if data, err = os.ReadFile(args[0]); err != nil {
					return fmt.Errorf("read image: %w", err)
				}
			}
			if text == "" && len(data) == 0 {
				return errors.New("either --text or an image path is required")
			}

			hash := service.LabelHash(service.NormalizeOCRText(text), data)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, hash)

			if !check {
				return nil
			}

			container, err := opts.newContainer()
			if err != nil {
				return err
			}
			defer func() { _ = container.Close() }()

			if cached, ok := container.LabelCache().GetAnalysis(cmd.Context(), hash); ok {
				ui.Success(out, "cached: %s", cached.Result.Metadata.DisplayName())
			} else {
				ui.Warning(out, "not cached")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&text, "text", "t", "", "OCR text of the label")
	cmd.Flags().BoolVar(&check, "check", false, "look up the hash in the analysis cache")

	return cmd
}
