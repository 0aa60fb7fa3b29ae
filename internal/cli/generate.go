package cli

import (
	"github.com/spf13/cobra"

	"github.com/rshade/clothgen/internal/engine/batch"
)

// addGenerateFlags registers the flags shared by the generating commands.
func addGenerateFlags(cmd *cobra.Command, f *generateFlags) {
	cmd.Flags().StringVarP(&f.clothingType, "type", "t", "shirt",
		"clothing type: shirt, pants, vest, hat, glasses, mask or backpack")
	cmd.Flags().StringVarP(&f.outDir, "out", "o", "Assets", "output folder for generated bundles")
	cmd.Flags().IntVar(&f.maxConcurrency, "max-concurrency", 0,
		"cap concurrent textures below the worker capacity (0 = no extra cap)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "cancel the run after this long (0 = no limit)")
	cmd.Flags().BoolVar(&f.plain, "plain", false, "print plain progress lines instead of the interactive view")
	cmd.Flags().BoolVar(&f.jsonOutput, "json", false, "write the run result as JSON to stdout")
	cmd.Flags().StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus metrics in textfile format to this path")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "do not read or write the texture inspection cache")
}

// NewGenerateCmd creates the generate command, which builds one bundle per
// texture found under a folder.
func NewGenerateCmd() *cobra.Command {
	var f generateFlags

	cmd := &cobra.Command{
		Use:   "generate <folder>",
		Short: "Generate bundles for every texture in a folder",
		Long: `Walks the folder, inspects every matching texture in parallel and generates
one clothing bundle per texture. Asset writes happen one at a time on the
owner goroutine. The run can be cancelled with c or esc in the interactive
view, or with Ctrl+C in plain mode. Textures already being written finish.

Exit codes: 0 on success, 1 if any texture or the final save failed,
2 if the run was cancelled.`,
		Example: `  # Shirts from ./textures into ./Assets
  clothgen generate ./textures

  # Masks, at most two textures at a time, with a five minute limit
  clothgen generate ./textures --type mask --max-concurrency 2 --timeout 5m

  # Only JPEG sources, JSON result for scripting
  clothgen generate ./textures --pattern '*.jpg' --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFromContext(cmd.Context())
			f = resolveFlags(cfg, f, cmd.Flags().Changed)

			source := batch.NewFileSource(excludeDirs(cfg, f.outDir)...)
			p, err := newPipeline(cmd.Context(), cfg, f, source)
			if err != nil {
				return err
			}
			return exitErrorFor(p.execute(cmd, args[0], f))
		},
	}

	addGenerateFlags(cmd, &f)
	cmd.Flags().StringVar(&f.pattern, "pattern", batch.DefaultPattern, "case-insensitive glob for texture file names")

	return cmd
}
