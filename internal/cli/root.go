package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rshade/clothgen/internal/config"
	"github.com/rshade/clothgen/internal/logging"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

type configKey struct{}

// contextWithConfig stores the effective configuration on ctx.
func contextWithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// configFromContext returns the configuration loaded by the root command, or
// the defaults when a command runs without it (for example in tests that call
// a subcommand directly).
func configFromContext(ctx context.Context) *config.Config {
	if ctx != nil {
		if cfg, ok := ctx.Value(configKey{}).(*config.Config); ok && cfg != nil {
			return cfg
		}
	}
	return config.Default()
}

// NewRootCmd creates the root Cobra command for the clothgen CLI.
// It loads configuration, wires up logging and tracing, and registers the
// generate, single, watch, config and version subcommands.
func NewRootCmd(ver string) *cobra.Command {
	var logResult *logging.LogPathResult

	cmd := &cobra.Command{
		Use:           "clothgen",
		Short:         "Generate clothing asset bundles from textures",
		Long:          "clothgen: Turn folders of clothing textures into asset bundles with a bounded, cancellable batch engine",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, args)
			if err != nil {
				return err
			}
			cmd.SetContext(contextWithConfig(cmd.Context(), cfg))

			result := setupLogging(cmd, cfg)
			logResult = &result
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return cleanupLogging(cmd, logResult)
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().String("config", "", "path to a config file (default ~/.clothgen/config.yaml)")
	cmd.PersistentFlags().String("project-dir", "", "project directory holding a .clothgen overlay")
	cmd.PersistentFlags().String("log-format", "", "log format: console or json")
	cmd.AddCommand(
		NewGenerateCmd(), NewSingleCmd(), NewWatchCmd(),
		newConfigCmd(), NewVersionCmd(ver),
	)

	return cmd
}

// loadConfig resolves the effective configuration. An explicit --config file
// must load and validate. Otherwise the global file is overlaid with the
// project overlay found from --project-dir or the input folder.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("loading config %s: %w", path, err)
		}
		return cfg, nil
	}

	flagDir, _ := cmd.Flags().GetString("project-dir")
	startDir := ""
	if len(args) > 0 {
		startDir = args[0]
		if info, err := os.Stat(startDir); err == nil && !info.IsDir() {
			startDir = "."
		}
	}
	cfg := config.NewWithProjectDir(ctx, config.ResolveProjectDir(ctx, flagDir, startDir))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

const rootCmdExample = `  # Generate shirt bundles for every texture under ./textures
  clothgen generate ./textures --type shirt --out ./Assets

  # Generate a single hat bundle
  clothgen single ./textures/red_cap.png --type hat

  # Rebuild bundles whenever textures change
  clothgen watch ./textures --type vest

  # Machine-readable summary and metrics
  clothgen generate ./textures --json --metrics-file ./clothgen.prom

  # Initialize configuration
  clothgen config init`

// newConfigCmd creates the config command group with configuration subcommands.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(NewConfigInitCmd(), NewConfigShowCmd())
	return cmd
}
