package cli

import (
	"github.com/spf13/cobra"

	"github.com/rshade/clothgen/pkg/version"
)

// NewVersionCmd prints build metadata.
func NewVersionCmd(ver string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("clothgen %s (commit %s, built %s)\n", ver, version.GetGitCommit(), version.GetBuildDate())
		},
	}
}
