package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dineshpithiya/cdk-workshop/internal/differ"
)

func newDiffCmd(opts *globalOptions) *cobra.Command {
	var (
		outputFormat string
		ignoreOrder  bool
		fail         bool
	)

	cmd := &cobra.Command{
		Use:   "diff [previous-template]",
		Short: "Compare the stack with a previous template",
		Long: `Diff synthesizes the stack and compares it with a previously synthesized
template. Without an argument, the template in the output directory is used.

Examples:
    cdk-workshop diff
    cdk-workshop diff old/CdkWorkshopStack.template.json
    cdk-workshop diff --format json --fail`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}

			previous := a.templatePath(a.cfg.Format)
			if len(args) == 1 {
				previous = args[0]
			}
			if _, err := os.Stat(previous); errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("no previous template at %s (run synth first or pass a path)", previous)
			}

			syn, err := a.synthesize()
			if err != nil {
				return reportBuildFailure(err, cmd.ErrOrStderr())
			}

			result, err := differ.CompareFile(previous, syn.template, differ.Options{IgnoreOrder: ignoreOrder})
			if err != nil {
				return err
			}

			switch outputFormat {
			case "json":
				data, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			case "text":
				if err := differ.Render(cmd.OutOrStdout(), result); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown format: %s", outputFormat)
			}

			if fail && !result.Empty() {
				return fmt.Errorf("templates differ")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&ignoreOrder, "ignore-order", false, "Ignore list element order")
	cmd.Flags().BoolVar(&fail, "fail", false, "Exit non-zero when the templates differ")

	return cmd
}
