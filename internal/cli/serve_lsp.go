package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/mkdlint/mkdlint/internal/configloader"
	"github.com/mkdlint/mkdlint/internal/logging"
	"github.com/mkdlint/mkdlint/internal/lsp"
	"github.com/mkdlint/mkdlint/pkg/config"
)

func newServeLSPCommand() *cobra.Command {
	var cfg config.Config

	cmd := &cobra.Command{
		Use:   "serve-lsp",
		Short: "Start the Language Server Protocol server",
		Long: `Start mkdlint as a Language Server Protocol server over stdio.

Intended to be launched by an editor, not run directly from a terminal.
It lints open buffers in-memory and reports diagnostics and quick-fix
code actions as the buffer changes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServeLSP(cmd, &cfg)
		},
	}

	return cmd
}

func runServeLSP(cmd *cobra.Command, cfg *config.Config) error {
	logger := logging.Default()

	ctx := cmd.Context()
	if ctx == nil {
		return errors.New("serve-lsp: missing command context")
	}

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}

	workDir, err := os.Getwd()
	if err != nil {
		return err
	}

	loadResult, err := configloader.Load(ctx, configloader.LoadOptions{
		WorkingDir:   workDir,
		ExplicitPath: configPath,
		CLIConfig:    cfg,
	})
	if err != nil {
		return errors.Join(errors.New("failed to load configuration"), err)
	}

	for _, warning := range loadResult.Warnings {
		logger.Warn(warning)
	}

	logger.Info("mkdlint LSP server starting", "transport", "stdio")
	server := lsp.New(loadResult.Config)
	return server.RunStdio(ctx)
}
