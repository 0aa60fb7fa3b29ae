package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rshade/clothgen/internal/config"
)

// NewConfigInitCmd creates the config init command for initializing configuration.
// With --project it creates <dir>/.clothgen/config.yaml next to the textures.
// Otherwise it creates the global ~/.clothgen/config.yaml.
func NewConfigInitCmd() *cobra.Command {
	var (
		force   bool
		project string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file with default values",
		Long: `Creates a new configuration file with default values.

Use --project to create a project overlay at <dir>/.clothgen/config.yaml.
Sections in an overlay replace the same sections of the global file.`,
		Example: `  # Create global configuration
  clothgen config init

  # Create a project overlay next to the textures
  clothgen config init --project ./textures

  # Create configuration, overwriting existing
  clothgen config init --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := initTarget(project)
			if err != nil {
				return err
			}
			return writeDefaultConfig(cmd, path, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing configuration file")
	cmd.Flags().StringVar(&project, "project", "", "create a project overlay in this directory instead of the global file")

	return cmd
}

func initTarget(project string) (string, error) {
	if project == "" {
		return config.GlobalConfigPath()
	}
	abs, err := filepath.Abs(project)
	if err != nil {
		return "", err
	}
	return filepath.Join(abs, config.ProjectDirName, "config.yaml"), nil
}

// writeDefaultConfig saves the defaults to path unless a file already exists.
func writeDefaultConfig(cmd *cobra.Command, path string, force bool) error {
	if !force {
		_, err := os.Stat(path)
		if err == nil {
			return errors.New("configuration file already exists, use --force to overwrite")
		}
		if !os.IsNotExist(err) {
			return fmt.Errorf("cannot access config path %s: %w", path, err)
		}
	}

	if err := config.Default().Save(path); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	cmd.Printf("Configuration initialized at %s\n", path)
	return nil
}

// NewConfigShowCmd prints the effective configuration after overlays and
// environment overrides.
func NewConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFromContext(cmd.Context())
			if path := cfg.Path(); path != "" {
				cmd.Printf("# loaded from %s\n", path)
			}
			cmd.Print(cfg.String())
			return nil
		},
	}
}
