package cli

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/shed/internal/server"
	"github.com/matzehuels/shed/pkg/errors"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		flags   runFlags
		addr    string
		appName string
	)

	cmd := &cobra.Command{
		Use:   "serve [repo]",
		Short: "Serve inventory results over HTTP",
		Long: `Serve the results in <repo>/.shed/ over HTTP and accept run requests.

Routes:
  GET  /healthz
  GET  /dependencies[?ecosystem=&status=]
  GET  /dependencies/{ecosystem}/{name}
  GET  /diagnostics
  POST /runs
  GET  /runs[?limit=]
  GET  /runs/{id}`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo := repoArg(args)
			if err := errors.ValidateRepoPath(repo); err != nil {
				return err
			}
			abs, err := filepath.Abs(repo)
			if err != nil {
				return err
			}

			cfg, err := flags.loadConfig(abs)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}
			if appName == "" {
				appName = cfg.AppName
			}

			s, err := c.newStack(ctx, cfg)
			if err != nil {
				return err
			}
			defer s.Close(context.WithoutCancel(ctx))

			srv := server.New(abs, appName, s.Runner, s.Archive, loggerFromContext(ctx))
			printInfo("Serving %s on %s", abs, StyleLink.Render("http://"+addr))
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr or 127.0.0.1:8080)")
	cmd.Flags().StringVarP(&appName, "app-name", "n", "", "application name for triggered runs")
	addRunFlags(cmd, &flags)
	return cmd
}
