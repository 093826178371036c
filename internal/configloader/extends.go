package configloader

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mkdlint/mkdlint/pkg/config"
	"github.com/mkdlint/mkdlint/pkg/lint/rules"
)

// loadConfigFile loads and fully resolves a configuration file: it parses
// the file in whatever format its extension (or content, for extensionless
// paths) indicates, follows its extends chain to completion, and applies
// its preset before returning the result. The returned config's own Rules
// still take precedence over anything contributed by extends/preset, since
// resolveExtends and resolvePreset both merge with the file's settings as
// the override.
func loadConfigFile(path string) (*config.Config, error) {
	cfg, err := resolveExtends(path, nil)
	if err != nil {
		return nil, err
	}

	if cfg.Rules == nil {
		cfg.Rules = make(map[string]config.RuleConfig)
	}

	return cfg, nil
}

// resolveExtends loads path, and if it names a parent via Extends,
// recursively resolves and merges the parent beneath it. visited tracks
// the chain of absolute paths already loaded, to reject cycles.
func resolveExtends(path string, visited map[string]bool) (*config.Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path %s: %w", path, err)
	}

	if visited == nil {
		visited = make(map[string]bool)
	}
	if visited[absPath] {
		return nil, fmt.Errorf("extends cycle detected at %s", path)
	}
	visited[absPath] = true

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	cfg, err := decodeConfig(path, content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	cfg, err = resolvePreset(cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if cfg.Extends == "" {
		return cfg, nil
	}

	parentPath := cfg.Extends
	if !filepath.IsAbs(parentPath) {
		parentPath = filepath.Join(filepath.Dir(absPath), parentPath)
	}

	parentCfg, err := resolveExtends(parentPath, visited)
	if err != nil {
		return nil, fmt.Errorf("resolve extends %q: %w", cfg.Extends, err)
	}

	merged := merge(parentCfg, cfg)
	// The chain has now been fully folded into merged; clear Extends so
	// a caller re-merging this result doesn't try to re-resolve it.
	merged.Extends = ""
	return merged, nil
}

// resolvePreset applies cfg's named preset (if any) beneath cfg's own
// settings, so the file's explicit rule configuration always wins over
// the preset's defaults.
func resolvePreset(cfg *config.Config) (*config.Config, error) {
	if cfg.Preset == "" {
		return cfg, nil
	}

	pack := rules.PackByName(cfg.Preset)
	if pack == nil {
		return nil, fmt.Errorf("unknown preset %q (available: %v)", cfg.Preset, rules.PackNames())
	}

	presetCfg := &config.Config{Rules: pack.Rules}
	merged := merge(presetCfg, cfg)
	merged.Preset = ""
	return merged, nil
}
