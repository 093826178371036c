package configloader

import (
	"encoding/json"
	"fmt"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/mkdlint/mkdlint/pkg/config"
)

// decodeConfig parses raw configuration content into a Config, dispatching
// on path's extension. Paths with an unrecognized or missing extension
// (e.g. an explicit --config file with no suffix) fall back to probing
// JSON, then YAML, then TOML in turn, since YAML is a superset of JSON and
// would otherwise mask a genuine JSON parse failure.
func decodeConfig(path string, content []byte) (*config.Config, error) {
	switch {
	case IsJSONConfig(path):
		return decodeJSON(content)
	case IsTOMLConfig(path):
		return decodeTOML(content)
	case IsYAMLConfig(path):
		return decodeYAML(content)
	default:
		return decodeProbing(content)
	}
}

func decodeProbing(content []byte) (*config.Config, error) {
	if cfg, err := decodeJSON(content); err == nil {
		return cfg, nil
	}
	if cfg, err := decodeYAML(content); err == nil {
		return cfg, nil
	}
	cfg, err := decodeTOML(content)
	if err != nil {
		return nil, fmt.Errorf("content is neither valid JSON, YAML, nor TOML: %w", err)
	}
	return cfg, nil
}

func decodeJSON(content []byte) (*config.Config, error) {
	cfg := &config.Config{}
	if err := json.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}
	return cfg, nil
}

func decodeYAML(content []byte) (*config.Config, error) {
	cfg := &config.Config{}
	if err := yaml.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	return cfg, nil
}

func decodeTOML(content []byte) (*config.Config, error) {
	cfg := &config.Config{}
	if err := toml.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("parse TOML: %w", err)
	}
	return cfg, nil
}
