package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stanza/pkg/buildinfo"
)

// versionCommand prints build information. The root command's --version
// flag sets the project version, so the tool's own version lives here.
func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print stanza's version and build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", appName, buildinfo.String())
		},
	}
}
