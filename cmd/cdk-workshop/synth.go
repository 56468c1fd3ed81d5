package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	workshop "github.com/dineshpithiya/cdk-workshop"
)

func newSynthCmd(opts *globalOptions) *cobra.Command {
	var (
		outputFormat string
		quiet        bool
	)

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Synthesize the CloudFormation template",
		Long: `Synth stages the Lambda, layer and site assets and generates the template.

The template is written to <out_dir>/<stack>.template.<format> and printed
to stdout unless --quiet is given.

Examples:
    cdk-workshop synth
    cdk-workshop synth --format yaml
    cdk-workshop synth -q`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if outputFormat == "" {
				outputFormat = a.cfg.Format
			}
			return runSynth(a, outputFormat, quiet, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "", "Output format: json or yaml (default from config)")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print the template")

	return cmd
}

func runSynth(a *app, format string, quiet bool, stdout, stderr io.Writer) error {
	syn, err := a.synthesize()
	if err != nil {
		return reportBuildFailure(err, stderr)
	}

	path, data, err := a.writeTemplate(syn.template, format)
	if err != nil {
		return err
	}

	a.log.Info().
		Str("stack", a.cfg.StackName).
		Int("resources", len(syn.template.Resources)).
		Str("path", path).
		Msg("synthesized template")

	if !quiet {
		_, err = stdout.Write(data)
	}
	return err
}

// reportBuildFailure prints every joined error of a failed build on its own
// line and returns a summary error.
func reportBuildFailure(err error, stderr io.Writer) error {
	result := workshop.BuildResult{Success: false}
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, e := range joined.Unwrap() {
			result.Errors = append(result.Errors, e.Error())
		}
	} else {
		result.Errors = []string{err.Error()}
	}

	for _, e := range result.Errors {
		fmt.Fprintln(stderr, e)
	}
	return fmt.Errorf("synth failed")
}
