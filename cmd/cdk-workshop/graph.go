package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dineshpithiya/cdk-workshop/internal/graph"
)

func newGraphCmd(opts *globalOptions) *cobra.Command {
	var (
		outputFormat  string
		clusterByType bool
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Generate DOT graph of resource dependencies",
		Long: `Generate a DOT or Mermaid format graph showing resource dependencies.

The output can be rendered with Graphviz:
    cdk-workshop graph | dot -Tpng -o deps.png

Or used in GitHub markdown (Mermaid format):
    cdk-workshop graph -f mermaid

Examples:
    cdk-workshop graph
    cdk-workshop graph -c              # cluster by service
    cdk-workshop graph -f mermaid      # mermaid format`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			graphFormat, ok := graph.ParseFormat(outputFormat)
			if !ok {
				return fmt.Errorf("unknown format: %s (use 'dot' or 'mermaid')", outputFormat)
			}

			a, err := opts.load(cmd)
			if err != nil {
				return err
			}
			syn, err := a.synthesize()
			if err != nil {
				return reportBuildFailure(err, cmd.ErrOrStderr())
			}
			resources, err := syn.stack.Graph()
			if err != nil {
				return err
			}

			gen := &graph.Generator{
				Format:        graphFormat,
				ClusterByType: clusterByType,
			}
			return gen.Generate(resources, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "dot", "Output format: dot or mermaid")
	cmd.Flags().BoolVarP(&clusterByType, "cluster", "c", false, "Cluster resources by AWS service")

	return cmd
}
