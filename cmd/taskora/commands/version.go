package commands

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/taskora-ai/taskora/pkg/version"
)

// NewVersionCommand builds the `taskora version` command.
func NewVersionCommand() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			if short {
				fmt.Fprintln(os.Stdout, version.Version)
				return
			}

			info := version.Get()
			bold := color.New(color.Bold)
			bold.Fprintf(os.Stdout, "Taskora %s\n", info.Version)
			fmt.Fprintf(os.Stdout, "  commit:     %s\n", info.Commit)
			fmt.Fprintf(os.Stdout, "  build date: %s\n", info.BuildDate)
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "Print only the version number")

	return cmd
}
