package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

const modulePath = "github.com/mesh-intelligence/notechain"

// Version is the notechain release. Builds override it with
// -ldflags "-X github.com/mesh-intelligence/notechain/internal/cli.Version=...".
var Version = "0.1.0"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the notechain version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), map[string]string{"version": Version, "module": modulePath})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "notechain v%s\nmodule: %s\n", Version, modulePath)
			return nil
		},
	}
}
