// Package cli holds the commands of the spanmarshal binary.
package cli

import (
	"github.com/fatih/color"
	"github.com/illuscio-dev/spanmarshal-go/config"
	"github.com/illuscio-dev/spanmarshal-go/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// State shared by the commands of one invocation.
type app struct {
	configPath string
	logLevel   string
	noColor    bool

	cfg    *config.Config
	logger *zap.Logger
}

// Loads the configuration and builds the logger before any subcommand runs.
func (app *app) load(cmd *cobra.Command, args []string) error {
	if app.noColor {
		color.NoColor = true
	}

	cfg, err := config.Load(app.configPath)
	if err != nil {
		return err
	}
	if app.logLevel != "" {
		cfg.Log.Level = app.logLevel
	}
	app.cfg = cfg

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	app.logger = logger
	return nil
}

func (app *app) sync(cmd *cobra.Command, args []string) {
	if app.logger != nil {
		_ = app.logger.Sync()
	}
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	app := &app{}

	rootCmd := &cobra.Command{
		Use:   "spanmarshal",
		Short: "Content negotiation and conversion service",
		Long: color.CyanString(`spanmarshal - content negotiation for Go services

Negotiates encoders from Accept headers and decoders from Content-Type headers,
converts payloads between JSON, BSON, YAML, CBOR, protobuf and plain text, and
describes the types registered with its metadata registry.`),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: app.load,
		PersistentPostRun: app.sync,
	}

	rootCmd.PersistentFlags().StringVar(
		&app.configPath, "config", "", "Config file (default ./spanmarshal.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&app.logLevel, "log-level", "", "Override log.level: debug, info, warn, error",
	)
	rootCmd.PersistentFlags().BoolVar(&app.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(newVersionCommand())
	rootCmd.AddCommand(newServeCommand(app))
	rootCmd.AddCommand(newNegotiateCommand(app))
	rootCmd.AddCommand(newDescribeCommand(app))

	return rootCmd
}
