package lint

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkdlint/mkdlint/pkg/config"
	"github.com/mkdlint/mkdlint/pkg/fix"
	"github.com/mkdlint/mkdlint/pkg/mdtoken"
)

// mockParser builds a minimal snapshot without pulling in the real parser:
// a document root over zero tokens, plus the line index the engine needs.
type mockParser struct {
	parseFunc func(ctx context.Context, path string, content []byte) (*mdtoken.Snapshot, error)
}

func (p *mockParser) Parse(ctx context.Context, path string, content []byte) (*mdtoken.Snapshot, error) {
	if p.parseFunc != nil {
		return p.parseFunc(ctx, path, content)
	}
	b := mdtoken.NewBuilder()
	root := b.Push(mdtoken.Token{Kind: mdtoken.KindDocument}, mdtoken.None)
	return b.Build(path, content, root), nil
}

// stubRule is a scriptable rule for engine tests.
type stubRule struct {
	BaseRule
	apply func(ctx *RuleContext) ([]Diagnostic, error)
}

func (r *stubRule) Apply(ctx *RuleContext) ([]Diagnostic, error) {
	if r.apply == nil {
		return nil, nil
	}
	return r.apply(ctx)
}

func newStubRule(id, name string, apply func(ctx *RuleContext) ([]Diagnostic, error)) *stubRule {
	return &stubRule{
		BaseRule: NewLineRule(id, name, "stub rule "+id, []string{"test"}, true),
		apply:    apply,
	}
}

func diagOnLine(ruleID string, line int) Diagnostic {
	return Diagnostic{
		RuleID:      ruleID,
		StartLine:   line,
		StartColumn: 1,
		EndLine:     line,
		EndColumn:   1,
		Message:     "stub finding",
	}
}

func TestNewEngine(t *testing.T) {
	parser := &mockParser{}
	registry := NewRegistry()

	engine := NewEngine(parser, registry)

	require.NotNil(t, engine)
	assert.Equal(t, parser, engine.Parser)
	assert.Equal(t, registry, engine.Registry)
}

func TestEngine_LintFile_Basic(t *testing.T) {
	registry := NewRegistry()
	registry.Register(newStubRule("MD901", "stub-one", func(_ *RuleContext) ([]Diagnostic, error) {
		return []Diagnostic{diagOnLine("MD901", 2)}, nil
	}))

	engine := NewEngine(&mockParser{}, registry)
	result, err := engine.LintFile(context.Background(), "doc.md", []byte("a\nb\n"), config.NewConfig())

	require.NoError(t, err)
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, "MD901", result.Diagnostics[0].RuleID)
	assert.Equal(t, "stub-one", result.Diagnostics[0].RuleName)
	assert.Equal(t, "doc.md", result.Diagnostics[0].FilePath)
	assert.True(t, result.HasIssues())
}

func TestEngine_LintFile_ParseError(t *testing.T) {
	parser := &mockParser{
		parseFunc: func(_ context.Context, _ string, _ []byte) (*mdtoken.Snapshot, error) {
			return nil, errors.New("boom")
		},
	}
	engine := NewEngine(parser, NewRegistry())

	_, err := engine.LintFile(context.Background(), "doc.md", []byte("x"), config.NewConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse error")
}

func TestEngine_LintFile_SeverityOverride(t *testing.T) {
	registry := NewRegistry()
	registry.Register(newStubRule("MD901", "stub-one", func(_ *RuleContext) ([]Diagnostic, error) {
		return []Diagnostic{diagOnLine("MD901", 1)}, nil
	}))

	cfg := config.NewConfig()
	sev := "error"
	cfg.Rules["MD901"] = config.RuleConfig{Severity: &sev}

	engine := NewEngine(&mockParser{}, registry)
	result, err := engine.LintFile(context.Background(), "doc.md", []byte("x\n"), cfg)

	require.NoError(t, err)
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, config.SeverityError, result.Diagnostics[0].Severity)
	assert.Equal(t, 1, result.ErrorCount())
	assert.Equal(t, 0, result.WarningCount())
}

func TestEngine_LintFile_RuleErrorRecovered(t *testing.T) {
	registry := NewRegistry()
	registry.Register(newStubRule("MD901", "broken", func(_ *RuleContext) ([]Diagnostic, error) {
		return nil, errors.New("internal failure")
	}))
	registry.Register(newStubRule("MD902", "healthy", func(_ *RuleContext) ([]Diagnostic, error) {
		return []Diagnostic{diagOnLine("MD902", 3)}, nil
	}))

	engine := NewEngine(&mockParser{}, registry)
	result, err := engine.LintFile(context.Background(), "doc.md", []byte("a\nb\nc\n"), config.NewConfig())

	// The failing rule is converted into a line-1 error diagnostic and the
	// healthy rule still runs.
	require.NoError(t, err)
	require.Len(t, result.Diagnostics, 2)
	assert.Equal(t, CustomRuleErrorID, result.Diagnostics[0].RuleID)
	assert.Equal(t, 1, result.Diagnostics[0].StartLine)
	assert.Equal(t, config.SeverityError, result.Diagnostics[0].Severity)
	assert.Equal(t, "MD902", result.Diagnostics[1].RuleID)
	require.Contains(t, result.RuleErrors, "MD901")
}

func TestEngine_LintFile_RulePanicRecovered(t *testing.T) {
	registry := NewRegistry()
	registry.Register(newStubRule("MD901", "panicky", func(_ *RuleContext) ([]Diagnostic, error) {
		panic("kaboom")
	}))

	engine := NewEngine(&mockParser{}, registry)
	result, err := engine.LintFile(context.Background(), "doc.md", []byte("x\n"), config.NewConfig())

	require.NoError(t, err)
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, CustomRuleErrorID, result.Diagnostics[0].RuleID)
	assert.Contains(t, result.Diagnostics[0].Detail, "kaboom")
}

func TestEngine_LintFile_RuleFailureAbortsWhenNotHandled(t *testing.T) {
	registry := NewRegistry()
	registry.Register(newStubRule("MD901", "broken", func(_ *RuleContext) ([]Diagnostic, error) {
		return nil, errors.New("internal failure")
	}))

	cfg := config.NewConfig()
	handle := false
	cfg.HandleRuleFailuresOpt = &handle

	engine := NewEngine(&mockParser{}, registry)
	_, err := engine.LintFile(context.Background(), "doc.md", []byte("x\n"), cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "MD901")
}

func TestEngine_LintFile_InlineDirectiveFiltering(t *testing.T) {
	registry := NewRegistry()
	registry.Register(newStubRule("MD901", "stub-one", func(ctx *RuleContext) ([]Diagnostic, error) {
		var out []Diagnostic
		for line := 1; line <= ctx.LineCount(); line++ {
			out = append(out, diagOnLine("MD901", line))
		}
		return out, nil
	}))

	content := []byte("<!-- markdownlint-disable MD901 -->\nb\n<!-- markdownlint-enable MD901 -->\nd\n")
	engine := NewEngine(&mockParser{}, registry)
	result, err := engine.LintFile(context.Background(), "doc.md", content, config.NewConfig())

	require.NoError(t, err)
	// The disable takes effect on its own line; the enable re-activates the
	// rule from line 3 onward, so lines 3 and 4 survive.
	require.Len(t, result.Diagnostics, 2)
	assert.Equal(t, 3, result.Diagnostics[0].StartLine)
	assert.Equal(t, 4, result.Diagnostics[1].StartLine)
}

func TestEngine_LintFile_NoInlineConfigBypassesDirectives(t *testing.T) {
	registry := NewRegistry()
	registry.Register(newStubRule("MD901", "stub-one", func(_ *RuleContext) ([]Diagnostic, error) {
		return []Diagnostic{diagOnLine("MD901", 2)}, nil
	}))

	content := []byte("<!-- markdownlint-disable-file MD901 -->\nb\n")
	cfg := config.NewConfig()
	cfg.NoInlineConfig = true

	engine := NewEngine(&mockParser{}, registry)
	result, err := engine.LintFile(context.Background(), "doc.md", content, cfg)

	require.NoError(t, err)
	assert.Len(t, result.Diagnostics, 1)
}

func TestEngine_LintFile_AliasDisable(t *testing.T) {
	registry := NewRegistry()
	registry.Register(newStubRule("MD901", "stub-one", func(_ *RuleContext) ([]Diagnostic, error) {
		return []Diagnostic{diagOnLine("MD901", 2)}, nil
	}))

	// Disabling by alias must filter diagnostics reported under the ID.
	content := []byte("<!-- markdownlint-disable-file stub-one -->\nb\n")
	engine := NewEngine(&mockParser{}, registry)
	result, err := engine.LintFile(context.Background(), "doc.md", content, config.NewConfig())

	require.NoError(t, err)
	assert.Empty(t, result.Diagnostics)
}

func TestEngine_LintFile_SortedByLineStable(t *testing.T) {
	registry := NewRegistry()
	// Rule order: MD901 sorts before MD902. Both hit line 2; the stable
	// sort must keep that rule order for the tie.
	registry.Register(newStubRule("MD901", "stub-one", func(_ *RuleContext) ([]Diagnostic, error) {
		return []Diagnostic{diagOnLine("MD901", 5), diagOnLine("MD901", 2)}, nil
	}))
	registry.Register(newStubRule("MD902", "stub-two", func(_ *RuleContext) ([]Diagnostic, error) {
		return []Diagnostic{diagOnLine("MD902", 2)}, nil
	}))

	engine := NewEngine(&mockParser{}, registry)
	result, err := engine.LintFile(context.Background(), "doc.md", []byte("a\nb\nc\nd\ne\n"), config.NewConfig())

	require.NoError(t, err)
	require.Len(t, result.Diagnostics, 3)
	assert.Equal(t, 2, result.Diagnostics[0].StartLine)
	assert.Equal(t, "MD901", result.Diagnostics[0].RuleID)
	assert.Equal(t, 2, result.Diagnostics[1].StartLine)
	assert.Equal(t, "MD902", result.Diagnostics[1].RuleID)
	assert.Equal(t, 5, result.Diagnostics[2].StartLine)
}

func TestEngine_LintFile_CollectsFixViolations(t *testing.T) {
	registry := NewRegistry()
	registry.Register(newStubRule("MD901", "stub-one", func(_ *RuleContext) ([]Diagnostic, error) {
		d := diagOnLine("MD901", 1)
		d.Fixes = []fix.FixInfo{{LineNumber: 1, EditColumn: 1, DeleteCount: 1}}
		return []Diagnostic{d}, nil
	}))

	cfg := config.NewConfig()
	cfg.Fix = true

	engine := NewEngine(&mockParser{}, registry)
	result, err := engine.LintFile(context.Background(), "doc.md", []byte("x\n"), cfg)

	require.NoError(t, err)
	assert.True(t, result.HasFixes())
	assert.Equal(t, 1, result.FixableCount())
	require.Len(t, result.FixViolations, 1)
	assert.Equal(t, 1, result.FixViolations[0].Line)
}

func TestEngine_LintFile_NoFixCollectionWithoutFixMode(t *testing.T) {
	registry := NewRegistry()
	registry.Register(newStubRule("MD901", "stub-one", func(_ *RuleContext) ([]Diagnostic, error) {
		d := diagOnLine("MD901", 1)
		d.Fixes = []fix.FixInfo{{LineNumber: 1, DeleteCount: 1}}
		return []Diagnostic{d}, nil
	}))

	engine := NewEngine(&mockParser{}, registry)
	result, err := engine.LintFile(context.Background(), "doc.md", []byte("x\n"), config.NewConfig())

	require.NoError(t, err)
	assert.False(t, result.HasFixes())
	// The diagnostic itself still reports as fixable.
	assert.Equal(t, 1, result.FixableCount())
}

func TestEngine_LintFile_FixOnlyHiddenFromUserOutput(t *testing.T) {
	registry := NewRegistry()
	registry.Register(newStubRule("MD901", "stub-one", func(_ *RuleContext) ([]Diagnostic, error) {
		primary := diagOnLine("MD901", 1)
		helper := diagOnLine("MD901", 2)
		helper.FixOnly = true
		helper.Fixes = []fix.FixInfo{{LineNumber: 2, DeleteCount: fix.DeleteWholeLine}}
		return []Diagnostic{primary, helper}, nil
	}))

	engine := NewEngine(&mockParser{}, registry)
	result, err := engine.LintFile(context.Background(), "doc.md", []byte("a\nb\n"), config.NewConfig())

	require.NoError(t, err)
	assert.Len(t, result.Diagnostics, 2)
	assert.Len(t, result.UserDiagnostics(), 1)
	assert.Equal(t, 1, result.IssueCount())
}

func TestEngine_LintFile_ContextCancellation(t *testing.T) {
	registry := NewRegistry()
	registry.Register(newStubRule("MD901", "stub-one", nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := NewEngine(&mockParser{}, registry)
	_, err := engine.LintFile(ctx, "doc.md", []byte("x\n"), config.NewConfig())

	require.Error(t, err)
}

func TestEngine_LintFile_Determinism(t *testing.T) {
	registry := NewRegistry()
	registry.Register(newStubRule("MD901", "stub-one", func(ctx *RuleContext) ([]Diagnostic, error) {
		var out []Diagnostic
		for line := 1; line <= ctx.LineCount(); line++ {
			out = append(out, diagOnLine("MD901", line))
		}
		return out, nil
	}))

	engine := NewEngine(&mockParser{}, registry)
	content := []byte("a\nb\nc\n")

	first, err := engine.LintFile(context.Background(), "doc.md", content, config.NewConfig())
	require.NoError(t, err)
	second, err := engine.LintFile(context.Background(), "doc.md", content, config.NewConfig())
	require.NoError(t, err)

	assert.Equal(t, first.Diagnostics, second.Diagnostics)
}

func TestFileResult_Methods(t *testing.T) {
	fr := &FileResult{
		Diagnostics: []Diagnostic{
			{RuleID: "MD901", Severity: config.SeverityError},
			{RuleID: "MD902", Severity: config.SeverityWarning, Fixes: []fix.FixInfo{{DeleteCount: 1}}},
			{RuleID: "MD903", Severity: config.SeverityError, FixOnly: true},
		},
	}

	assert.True(t, fr.HasIssues())
	assert.Equal(t, 2, fr.IssueCount())
	assert.Equal(t, 1, fr.FixableCount())
	assert.Equal(t, 1, fr.ErrorCount())
	assert.Equal(t, 1, fr.WarningCount())
	assert.False(t, fr.HasFixes())
}
