package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dineshpithiya/cdk-workshop/internal/deploy"
)

func newDeployCmd(opts *globalOptions) *cobra.Command {
	var skipSite bool

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the stack",
		Long: `Deploy synthesizes the stack, publishes the assets to the asset bucket,
creates or updates the stack and waits for it to finish. The site contents
are then uploaded to the site bucket and the distribution is invalidated.

Deploy needs asset_bucket and region (CDKW_ASSET_BUCKET, CDKW_REGION or
AWS_REGION) and AWS credentials from the default chain.

Examples:
    cdk-workshop deploy
    CDKW_ASSET_BUCKET=my-assets cdk-workshop deploy --skip-site`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if err := a.cfg.RequireDeploy(); err != nil {
				return err
			}

			syn, err := a.synthesize()
			if err != nil {
				return reportBuildFailure(err, cmd.ErrOrStderr())
			}
			if _, _, err := a.writeTemplate(syn.template, a.cfg.Format); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			clients, err := deploy.NewClients(ctx, a.cfg.Region)
			if err != nil {
				return err
			}

			req := deploy.Request{
				StackName:   a.cfg.StackName,
				Region:      a.cfg.Region,
				AssetBucket: a.cfg.AssetBucket,
				Template:    syn.template,
				Assets:      syn.assets,
			}
			if !skipSite {
				req.SiteDir = a.cfg.Site.ContentsDir
			}

			start := time.Now()
			result, err := deploy.New(clients, a.log).Deploy(ctx, req)
			if err != nil {
				return err
			}
			a.log.Info().Str("stack", result.StackName).Dur("elapsed", time.Since(start)).Msg("deployed")

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\nOutputs:\n")
			names := make([]string, 0, len(result.Outputs))
			for name := range result.Outputs {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(out, "%s.%s = %s\n", result.StackName, name, result.Outputs[name])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipSite, "skip-site", false, "Do not upload the site contents")

	return cmd
}

func newDestroyCmd(opts *globalOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Empty the site bucket and delete the stack",
		Long: `Destroy empties the site bucket and deletes the stack.

Examples:
    cdk-workshop destroy --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return fmt.Errorf("refusing to destroy without --force")
			}

			a, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if a.cfg.Region == "" {
				return fmt.Errorf("region is required to destroy")
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			clients, err := deploy.NewClients(ctx, a.cfg.Region)
			if err != nil {
				return err
			}
			if err := deploy.New(clients, a.log).Destroy(ctx, a.cfg.StackName); err != nil {
				return err
			}
			a.log.Info().Str("stack", a.cfg.StackName).Msg("destroyed")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Do not ask for confirmation")

	return cmd
}
