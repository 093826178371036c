package cli

import (
	"github.com/spf13/cobra"

	"github.com/mkdlint/mkdlint/pkg/config"
)

// newFixCommand creates the fix subcommand: lint with auto-fix always on.
func newFixCommand() *cobra.Command {
	var cfg config.Config
	flags := &lintFlags{}

	cmd := &cobra.Command{
		Use:   "fix [paths...]",
		Short: "Fix Markdown files in place",
		Long:  fixLongDescription,
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Fix = true
			return runLint(cmd, args, &cfg, flags)
		},
	}

	cmd.Flags().BoolVar(&cfg.DryRun, "dry-run", false,
		"show fixes without applying them; exits non-zero when fixes are pending")
	cmd.Flags().StringVar(&flags.format, "format", "text", "output format: text, table, json, sarif, diff, summary")
	cmd.Flags().IntVar(&cfg.Jobs, "jobs", 0, "number of parallel workers (0 = auto)")
	cmd.Flags().StringSliceVar(&flags.ignore, "ignore", nil, "glob patterns to ignore")
	cmd.Flags().StringSliceVar(&flags.enable, "enable", nil, "rule IDs to enable")
	cmd.Flags().StringSliceVar(&flags.disable, "disable", nil, "rule IDs to disable")
	cmd.Flags().StringSliceVar(&flags.fixRules, "fix-rules", nil, "limit auto-fix to specific rule IDs")
	cmd.Flags().BoolVar(&cfg.NoBackups, "no-backups", false, "disable backup creation")
	cmd.Flags().StringVar(&flags.flavor, "flavor", "commonmark", "Markdown flavor: commonmark, gfm")
	cmd.Flags().BoolVar(&flags.strict, "strict", false, "treat warnings as errors for exit code")
	cmd.Flags().StringVar(&flags.ruleFormat, "rule-format", "name",
		"rule identifier format in output: name, id, or combined")
	cmd.Flags().StringVar(&flags.summaryOrder, "summary-order", "rules",
		"order of tables in summary output: rules, files")
	cmd.Flags().StringVar(&flags.patchFile, "patch", "",
		"write pending fixes as a unified patch to this file (use with --dry-run)")

	return cmd
}

const fixLongDescription = `Fix Markdown style issues in place.

Runs the same rules as "mkdlint lint" and applies every available fix,
re-linting until the documents are stable. Files are written atomically,
with a backup unless --no-backups is set.

Examples:
  mkdlint fix                    # Fix all Markdown files under the current directory
  mkdlint fix docs/ README.md    # Fix specific paths
  mkdlint fix --dry-run          # CI gate: exit non-zero if fixes are pending
  mkdlint fix --fix-rules MD009  # Only apply fixes for one rule`
