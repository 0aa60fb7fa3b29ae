package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rshade/clothgen/internal/engine/batch"
)

// NewSingleCmd creates the single command. It runs the same engine as
// generate over exactly one texture.
func NewSingleCmd() *cobra.Command {
	var f generateFlags

	cmd := &cobra.Command{
		Use:   "single <texture>",
		Short: "Generate the bundle for one texture",
		Example: `  # One hat bundle
  clothgen single ./textures/red_cap.png --type hat --out ./Assets`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFromContext(cmd.Context())
			f = resolveFlags(cfg, f, cmd.Flags().Changed)

			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			info, err := os.Stat(path)
			if err != nil {
				return &ExitError{Code: ExitFailure, Reason: fmt.Sprintf("texture %s: %v", args[0], err)}
			}
			if info.IsDir() {
				return &ExitError{Code: ExitFailure, Reason: fmt.Sprintf("%s is a folder, use generate", args[0])}
			}

			p, err := newPipeline(cmd.Context(), cfg, f, batch.StaticSource{Paths: []string{path}})
			if err != nil {
				return err
			}
			return exitErrorFor(p.execute(cmd, filepath.Dir(path), f))
		},
	}

	addGenerateFlags(cmd, &f)
	return cmd
}
