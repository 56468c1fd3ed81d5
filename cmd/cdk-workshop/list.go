package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	workshop "github.com/dineshpithiya/cdk-workshop"
)

func newListCmd(opts *globalOptions) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the stack's resources",
		Long: `List displays every resource of the stack in deployment order.

Examples:
    cdk-workshop list
    cdk-workshop list --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}
			return runList(a, outputFormat, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")

	return cmd
}

func runList(a *app, format string, stdout, stderr io.Writer) error {
	syn, err := a.synthesize()
	if err != nil {
		return reportBuildFailure(err, stderr)
	}

	graph, err := syn.stack.Graph()
	if err != nil {
		return err
	}

	result := workshop.ListResult{
		Resources: make([]workshop.ListResource, 0, len(syn.template.ResourceOrder)),
	}
	for _, name := range syn.template.ResourceOrder {
		deps := append([]string(nil), graph[name].Dependencies...)
		sort.Strings(deps)
		result.Resources = append(result.Resources, workshop.ListResource{
			Name:      name,
			Type:      syn.template.Resources[name].Type,
			DependsOn: deps,
		})
	}

	return outputListResult(result, format, stdout)
}

func outputListResult(result workshop.ListResult, format string, w io.Writer) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		if len(result.Resources) == 0 {
			fmt.Fprintln(w, "No resources found.")
			return nil
		}

		fmt.Fprintf(w, "Stack resources (%d):\n\n", len(result.Resources))
		for _, res := range result.Resources {
			fmt.Fprintf(w, "  %s: %s\n", res.Name, res.Type)
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}
