package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	workshop "github.com/dineshpithiya/cdk-workshop"
	"github.com/dineshpithiya/cdk-workshop/internal/validation"
)

// newValidateCmd creates the "validate" subcommand for checking the template.
func newValidateCmd(opts *globalOptions) *cobra.Command {
	var (
		outputFormat string
		strict       bool
		skipLint     bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the synthesized template",
		Long: `Validate synthesizes the stack and checks the template.

Checks performed:
  - References: every Ref, GetAtt and Sub target is a stack resource
  - Dependency graph: the resources contain no cycle
  - Schema: required properties and property types, offline
  - cfn-lint: CloudFormation lint rules

Examples:
    cdk-workshop validate
    cdk-workshop validate --strict --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}
			syn, err := a.synthesize()
			if err != nil {
				return reportBuildFailure(err, cmd.ErrOrStderr())
			}

			result, err := validation.Validate(syn.template, validation.Options{
				Strict:   strict,
				SkipLint: skipLint,
			})
			if err != nil {
				return err
			}
			return outputValidateResult(*result, outputFormat, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&strict, "strict", false, "Report unknown properties")
	cmd.Flags().BoolVar(&skipLint, "skip-lint", false, "Skip cfn-lint rules")

	return cmd
}

func outputValidateResult(result workshop.ValidateResult, format string, w io.Writer) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if result.Success {
			fmt.Fprintf(w, "Validation passed: %d resources OK\n", result.Resources)
		} else {
			fmt.Fprintln(w, "Validation FAILED:")
		}
		for _, errMsg := range result.Errors {
			fmt.Fprintf(w, "  ERROR: %s\n", errMsg)
		}
		for _, warnMsg := range result.Warnings {
			fmt.Fprintf(w, "  WARNING: %s\n", warnMsg)
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if !result.Success {
		return fmt.Errorf("validation failed")
	}
	return nil
}
