// Package config defines core configuration types for mkdlint.
// These types are pure data structures with no external dependencies on Viper or other config loaders.
package config

// Severity represents the severity level of a lint diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// RuleConfig holds per-rule configuration options.
type RuleConfig struct {
	Enabled  *bool          `mapstructure:"enabled" yaml:"enabled" json:"enabled,omitempty" toml:"enabled,omitempty"`
	Severity *string        `mapstructure:"severity" yaml:"severity" json:"severity,omitempty" toml:"severity,omitempty"`
	AutoFix  *bool          `mapstructure:"auto_fix" yaml:"auto_fix" json:"auto_fix,omitempty" toml:"auto_fix,omitempty"`
	Options  map[string]any `mapstructure:"options" yaml:"options" json:"options,omitempty" toml:"options,omitempty"`
}

// BackupsConfig controls backup behavior when fixing files.
type BackupsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled,omitempty" toml:"enabled,omitempty"`
	Mode    string `mapstructure:"mode" yaml:"mode" json:"mode,omitempty" toml:"mode,omitempty"` // "sidecar" or "none"
}

// OutputFormat specifies the output format for diagnostics.
type OutputFormat string

const (
	FormatText    OutputFormat = "text"
	FormatTable   OutputFormat = "table"
	FormatJSON    OutputFormat = "json"
	FormatSARIF   OutputFormat = "sarif"
	FormatDiff    OutputFormat = "diff"
	FormatSummary OutputFormat = "summary"
)

// RuleFormat controls how rule identifiers appear in output.
type RuleFormat string

const (
	RuleFormatName     RuleFormat = "name"     // "no-trailing-spaces"
	RuleFormatID       RuleFormat = "id"       // "MD009"
	RuleFormatCombined RuleFormat = "combined" // "MD009/no-trailing-spaces"
)

// SummaryOrder controls the order of tables in summary output.
type SummaryOrder string

const (
	// SummaryOrderRules shows rules table first (default).
	SummaryOrderRules SummaryOrder = "rules"
	// SummaryOrderFiles shows files table first.
	SummaryOrderFiles SummaryOrder = "files"
)

// IsValid returns true if the summary order is valid.
func (s SummaryOrder) IsValid() bool {
	switch s {
	case SummaryOrderRules, SummaryOrderFiles:
		return true
	default:
		return false
	}
}

// Flavor specifies the Markdown flavor to use for parsing.
type Flavor string

const (
	FlavorCommonMark Flavor = "commonmark"
	FlavorGFM        Flavor = "gfm"
)

// Config is the root configuration structure for mdlint.
type Config struct {
	// Extends names a parent configuration file (resolved relative to this
	// file's directory) that this configuration overlays. Cycles are a
	// hard load-time error.
	Extends string `mapstructure:"extends" yaml:"extends" json:"extends,omitempty" toml:"extends,omitempty"`

	// Preset names a built-in configuration preset (e.g. "kramdown") to
	// apply before this file's own settings. An unknown preset name is a
	// hard configuration error.
	Preset string `mapstructure:"preset" yaml:"preset" json:"preset,omitempty" toml:"preset,omitempty"`

	// NoInlineConfig disables the inline-directive scanner entirely; every
	// rule runs at its base enabled state regardless of in-document
	// markdownlint-* comments.
	NoInlineConfig bool `mapstructure:"no_inline_config" yaml:"no_inline_config" json:"no_inline_config,omitempty" toml:"no_inline_config,omitempty"`

	// HandleRuleFailuresOpt controls whether a rule-internal failure is
	// converted into a diagnostic on line 1 (true, the default) or aborts
	// the lint pass (false). Use HandleRuleFailures() to read it.
	HandleRuleFailuresOpt *bool `mapstructure:"handle_rule_failures" yaml:"handle_rule_failures" json:"handle_rule_failures,omitempty" toml:"handle_rule_failures,omitempty"`

	// Flavor specifies the Markdown flavor ("commonmark" or "gfm").
	Flavor Flavor `mapstructure:"flavor" yaml:"flavor" json:"flavor,omitempty" toml:"flavor,omitempty"`

	// SeverityDefault is the default severity for rules that don't specify one.
	SeverityDefault string `mapstructure:"severity_default" yaml:"severity_default" json:"severity_default,omitempty" toml:"severity_default,omitempty"`

	// Rules contains per-rule configuration keyed by rule ID.
	Rules map[string]RuleConfig `mapstructure:"rules" yaml:"rules" json:"rules,omitempty" toml:"rules,omitempty"`

	// Ignore contains glob patterns (doublestar syntax, so `**` matches
	// across directory boundaries) for files to ignore.
	Ignore []string `mapstructure:"ignore" yaml:"ignore" json:"ignore,omitempty" toml:"ignore,omitempty"`

	// Backups configures backup behavior when fixing.
	Backups BackupsConfig `mapstructure:"backups" yaml:"backups" json:"backups,omitempty" toml:"backups,omitempty"`

	// CLI-level options (not persisted to config files).

	// Fix enables auto-fixing of issues.
	Fix bool `mapstructure:"-" yaml:"-"`

	// DryRun shows what would be fixed without making changes.
	DryRun bool `mapstructure:"-" yaml:"-"`

	// Format specifies the output format.
	Format OutputFormat `mapstructure:"-" yaml:"-"`

	// RuleFormat controls how rule identifiers appear in output.
	RuleFormat RuleFormat `mapstructure:"-" yaml:"-"`

	// Jobs specifies the number of parallel workers.
	Jobs int `mapstructure:"-" yaml:"-"`

	// EnableRules contains rule IDs to explicitly enable.
	EnableRules []string `mapstructure:"-" yaml:"-"`

	// DisableRules contains rule IDs to explicitly disable.
	DisableRules []string `mapstructure:"-" yaml:"-"`

	// FixRules limits auto-fixing to specific rule IDs.
	FixRules []string `mapstructure:"-" yaml:"-"`

	// NoBackups disables backup creation when fixing.
	NoBackups bool `mapstructure:"-" yaml:"-"`
}

// HandleRuleFailures reports whether rule-internal failures should be
// recovered per rule instead of failing the pass. Defaults to true.
func (c *Config) HandleRuleFailures() bool {
	if c == nil || c.HandleRuleFailuresOpt == nil {
		return true
	}
	return *c.HandleRuleFailuresOpt
}

// NewConfig returns a Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Flavor:          FlavorCommonMark,
		SeverityDefault: string(SeverityWarning),
		Rules:           make(map[string]RuleConfig),
		Ignore:          nil,
		Backups: BackupsConfig{
			Enabled: true,
			Mode:    "sidecar",
		},
		Format:     FormatText,
		RuleFormat: RuleFormatName,
		Jobs:       0, // 0 means use GOMAXPROCS
	}
}
