package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mkdlint/mkdlint/internal/configloader"
)

// newConfigCommand creates the config subcommand, which prints the effective
// configuration after the full overlay resolution: defaults, preset, config
// file (with its extends chain), environment, and CLI flags.
func newConfigCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long:  configLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfig(cmd, output)
		},
	}

	cmd.Flags().StringVar(&output, "output", "yaml", "output format: yaml, json")

	return cmd
}

const configLongDescription = `Print the effective configuration.

Resolves configuration exactly the way "mkdlint lint" does - built-in
defaults, preset, discovered or --config-specified file (following its
extends chain), environment variables - and renders the merged result.
Useful for checking which file a setting actually comes from before
filing it as a bug.

Examples:
  mkdlint config                       # Effective config as YAML
  mkdlint config --output json         # Same, as JSON
  mkdlint config --config custom.yml   # Resolve an explicit file`

func runConfig(cmd *cobra.Command, output string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("get config flag: %w", err)
	}

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	loadResult, err := configloader.Load(ctx, configloader.LoadOptions{
		WorkingDir:   workDir,
		ExplicitPath: configPath,
	})
	if err != nil {
		return errors.Join(errors.New("failed to load configuration"), err)
	}

	out := cmd.OutOrStdout()

	switch output {
	case "json":
		data, err := json.MarshalIndent(loadResult.Config, "", "  ")
		if err != nil {
			return fmt.Errorf("encode configuration: %w", err)
		}
		fmt.Fprintln(out, string(data))

	case "yaml":
		header := "Effective configuration"
		if len(loadResult.LoadedFrom) > 0 {
			header += "\nLoaded from: " + strings.Join(loadResult.LoadedFrom, ", ")
		} else {
			header += "\nNo configuration file found; showing defaults"
		}
		data, err := loadResult.Config.ToYAMLWithHeader(header)
		if err != nil {
			return fmt.Errorf("encode configuration: %w", err)
		}
		fmt.Fprint(out, string(data))

	default:
		return fmt.Errorf("unknown output format %q (expected yaml or json)", output)
	}

	return nil
}
