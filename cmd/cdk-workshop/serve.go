package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dineshpithiya/cdk-workshop/internal/handler"
	"github.com/dineshpithiya/cdk-workshop/internal/localapi"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API locally",
		Long: `Serve runs the REST API on a local port the way API Gateway fronts it.

Request bodies of validated routes are checked before the handler runs,
every path answers CORS preflight, and unknown routes get a 403. Metrics
are exposed on /metrics.

Examples:
    cdk-workshop serve
    cdk-workshop serve --addr :8080
    curl -X POST localhost:3000/user -d '{"username":"ann","phone":"1","email":"a@b"}'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := localapi.New(a.api, handler.New(a.api, a.log), a.log)
			return srv.ListenAndServe(ctx, addr, a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")

	return cmd
}
