package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/illuscio-dev/spanmarshal-go/logging"
	"github.com/illuscio-dev/spanmarshal-go/spanhttp"
	"github.com/spf13/cobra"
)

func newServeCommand(app *app) *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the conversion service",
		Long: `Run the HTTP conversion service until interrupted.

Routes:
  POST /convert          re-encode the body, by Content-Type and Accept
  GET  /codecs           list registered codecs
  GET  /types            list described types
  GET  /types/{name}     describe one type`,
		Example: `  # Serve on the configured address
  spanmarshal serve

  # Serve on another port with debug logging
  spanmarshal serve --port 9090 --log-level debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.cfg
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			restore := logging.Install(app.logger)
			defer restore()

			engine, err := NewEngine(cfg.Negotiation, app.logger)
			if err != nil {
				return err
			}
			registry, err := NewRegistry(app.logger)
			if err != nil {
				return err
			}

			server := spanhttp.NewServer(
				engine,
				registry,
				spanhttp.WithLogger(app.logger),
				spanhttp.WithDefaultPageLimit(cfg.Server.PageLimit),
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			color.New(color.FgCyan, color.Bold).Fprint(cmd.OutOrStdout(), "spanmarshal ")
			color.New(color.FgWhite).Fprintf(
				cmd.OutOrStdout(), "serving on %s\n", cfg.Server.Address(),
			)

			return server.ListenAndServe(ctx, cfg.Server.Address(), spanhttp.Timeouts{
				Read:     cfg.Server.ReadTimeout,
				Write:    cfg.Server.WriteTimeout,
				Idle:     cfg.Server.IdleTimeout,
				Shutdown: cfg.Server.ShutdownTimeout,
			})
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Override server.host")
	cmd.Flags().IntVar(&port, "port", 0, "Override server.port")
	return cmd
}
