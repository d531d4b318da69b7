package cli

import (
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the spanmarshal version, Git commit, build date, and Go version",
		// Version needs no configuration.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			goVersion := GoVersion
			if goVersion == "unknown" {
				goVersion = runtime.Version()
			}

			writer := cmd.OutOrStdout()
			titleColor := color.New(color.FgCyan, color.Bold)

			titleColor.Fprint(writer, "spanmarshal version: ")
			fmt.Fprintln(writer, Version)
			titleColor.Fprint(writer, "Git commit: ")
			fmt.Fprintln(writer, GitCommit)
			titleColor.Fprint(writer, "Build date: ")
			fmt.Fprintln(writer, BuildDate)
			titleColor.Fprint(writer, "Go version: ")
			fmt.Fprintln(writer, goVersion)
		},
	}
}
