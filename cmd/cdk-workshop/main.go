// Command cdk-workshop synthesizes, serves and deploys the workshop stack:
// a validated REST API, a static website behind CloudFront and a Lambda
// layers demo.
//
// Usage:
//
//	cdk-workshop synth                 Synthesize the CloudFormation template
//	cdk-workshop serve                 Run the API locally
//	cdk-workshop deploy                Deploy the stack
//	cdk-workshop version               Show version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dineshpithiya/cdk-workshop/internal/config"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "cdk-workshop",
		Short: "Synthesize, serve and deploy the workshop stack",
		Long: `cdk-workshop builds the workshop CloudFormation stack from Go declarations.

The stack contains:

    - a REST API (GET /getUser, POST /user) whose POST body is validated
    - a static website in S3 served through CloudFront
    - Node.js and Python functions using Lambda layers

Synthesize the template:

    cdk-workshop synth

Configuration is read from workshop.yaml, a .env file next to it and
CDKW_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultPath, "Config file")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: trace, debug, info, warn or error (overrides config)")

	rootCmd.AddCommand(
		newSynthCmd(opts),
		newListCmd(opts),
		newGraphCmd(opts),
		newDiffCmd(opts),
		newValidateCmd(opts),
		newOptimizeCmd(opts),
		newServeCmd(opts),
		newWatchCmd(opts),
		newDeployCmd(opts),
		newDestroyCmd(opts),
		newVersionCmd(),
	)

	return rootCmd
}
