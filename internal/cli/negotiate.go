package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/illuscio-dev/spanmarshal-go/mimetype"
	"github.com/illuscio-dev/spanmarshal-go/negotiation"
	"github.com/spf13/cobra"
)

func newNegotiateCommand(app *app) *cobra.Command {
	request := negotiation.Request{}

	cmd := &cobra.Command{
		Use:   "negotiate",
		Short: "Show which codecs a request would be served with",
		Long: `Resolve the encoder an Accept header selects and the decoder a Content-Type
header selects, the way the service does for each request.`,
		Example: `  spanmarshal negotiate --accept "text/*;q=0.5, application/yaml"
  spanmarshal negotiate --content-type "application/x-yaml; charset=utf-8"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := NewEngine(app.cfg.Negotiation, app.logger)
			if err != nil {
				return err
			}

			session := engine.Negotiate(request)
			writer := cmd.OutOrStdout()

			printSide(writer, "accept", mimetype.FormatRanges(session.AcceptRanges()))
			producer, ok := session.Producer()
			printMatch(writer, "producer", ok, producer.Descriptor, producer.MediaType(), producer.Fallback)

			printSide(writer, "content-type", session.ContentType().String())
			consumer, ok := session.Consumer()
			printMatch(writer, "consumer", ok, consumer.Descriptor, consumer.MediaType(), consumer.Fallback)
			return nil
		},
	}

	cmd.Flags().StringVar(&request.Accept, "accept", "", "Accept header value")
	cmd.Flags().StringVar(&request.ContentType, "content-type", "", "Content-Type header value")
	return cmd
}

func printSide(writer io.Writer, label string, value string) {
	color.New(color.FgCyan, color.Bold).Fprintf(writer, "%-14s", label+":")
	if value == "" {
		value = "<none>"
	}
	fmt.Fprintln(writer, value)
}

// Descriptors of both sides are printed through fmt.Stringer.
func printMatch(
	writer io.Writer,
	label string,
	ok bool,
	descriptor fmt.Stringer,
	mediaType mimetype.MediaType,
	fallback bool,
) {
	color.New(color.FgCyan, color.Bold).Fprintf(writer, "%-14s", label+":")
	if !ok {
		color.New(color.FgRed).Fprintln(writer, "<none>")
		return
	}

	fmt.Fprintf(writer, "%v as %v", descriptor, mediaType)
	if fallback {
		color.New(color.FgYellow).Fprint(writer, " (default)")
	}
	fmt.Fprintln(writer)
}
