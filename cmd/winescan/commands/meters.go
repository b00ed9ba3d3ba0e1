package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"winescan-app/cmd/winescan/ui"
	"winescan-app/internal/modules/scan/domain/service"
)

func newMetersCmd() *cobra.Command {
	var (
		file   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "meters [text...]",
		Short: "Estimate taste meters from a wine description",
		Long:  "Derive the four core taste meters from free text. Reads the arguments, --file, or standard input.",
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readMetersText(cmd, args, file)
			if err != nil {
				return err
			}

			taste := service.DeriveMeters(text)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(taste)
			}

			ui.Meters(cmd.OutOrStdout(), taste)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "read the description from a file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the meters as JSON")

	return cmd
}

func readMetersText(cmd *cobra.Command, args []string, file string) (string, error) {
	var text string
	switch {
	case len(args) > 0:
		text = strings.Join(args, " ")
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read description: %w", err)
		}
		text = string(data)
	default:
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}

	if strings.TrimSpace(text) == "" {
		return "", errors.New("description is empty")
	}
	return text, nil
}
