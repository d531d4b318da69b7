package cli

import (
	"fmt"

	"github.com/illuscio-dev/spanmarshal-go/beans"
	"github.com/illuscio-dev/spanmarshal-go/mimetype"
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"
)

func newDescribeCommand(app *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "describe [type]",
		Short: "Describe the payload types of the service",
		Long: `Describe a payload type: its bean name, properties, ancestors and the naming
metadata applied to it. Without a type, list the names of all types.`,
		Example: `  spanmarshal describe
  spanmarshal describe codecInfo --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mediaType := mimetype.FromString(format)
			if mediaType.IsZero() {
				return xerrors.Errorf("unknown format %q", format)
			}

			engine, err := NewEngine(app.cfg.Negotiation, app.logger)
			if err != nil {
				return err
			}
			registry, err := NewRegistry(app.logger)
			if err != nil {
				return err
			}

			if len(args) == 0 {
				for _, descriptor := range registry.Types() {
					fmt.Fprintln(cmd.OutOrStdout(), beans.TypeName(registry, descriptor))
				}
				return nil
			}

			descriptor, ok := beans.Lookup(registry, args[0])
			if !ok {
				return xerrors.Errorf("no type named %q", args[0])
			}
			return engine.Encode(mediaType, beans.Describe(registry, descriptor), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&format, "format", "yaml", "Output media type, e.g. yaml or json")
	return cmd
}
