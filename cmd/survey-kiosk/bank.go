package main

import (
	"encoding/json"
	"fmt"
	"io"

	"rumble-survey/internal/models"
	"rumble-survey/internal/survey/bank"

	"github.com/spf13/cobra"
)

// NewBankCommand creates the bank command.
func NewBankCommand(rootOpts *RootOptions) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "bank",
		Short: "Print the question bank",
		Long: `Print the comparison sets in their fixed order. With --file, the given
YAML bank is validated and printed instead of the built-in one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b := bank.Default()
			if path != "" {
				var err error
				if b, err = bank.LoadFile(path); err != nil {
					return err
				}
			}
			return printBank(cmd.OutOrStdout(), rootOpts.Format, b.All())
		},
	}

	cmd.Flags().StringVarP(&path, "file", "f", "", "question bank YAML to validate and print")
	return cmd
}

func printBank(w io.Writer, format string, sets []models.QuestionSet) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(sets)
	}

	for _, set := range sets {
		fmt.Fprintf(w, "Question %d\n", set.ID)
		for _, opt := range []struct {
			name   string
			bundle models.AttributeBundle
		}{{"A", set.OptionA}, {"B", set.OptionB}} {
			fmt.Fprintf(w, "  Option %s\n", opt.name)
			for _, attr := range opt.bundle.Attributes() {
				fmt.Fprintf(w, "    %-15s %s\n", attr.Name+":", attr.Value)
			}
		}
	}
	return nil
}
