package config

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

const starterHeader = `# ctxbundle configuration.
# Every setting can be overridden with a CTXBUNDLE_ environment variable,
# e.g. CTXBUNDLE_OUTPUT_FORMAT=toon or CTXBUNDLE_LIMITS_MAX_FILES=50.
`

// Starter returns a configuration for root with every default spelled out.
func Starter(root string) *Config {
	name := ProjectName(root)
	return &Config{
		Project:  ProjectConfig{Name: name},
		Sections: []SectionConfig{DefaultSection(name)},
		Ignore:   IgnoreConfig{Mode: IgnoreSimple},
		Output:   OutputConfig{Format: FormatMarkdown, Path: name + "_context.md"},
		Limits:   LimitsConfig{MaxFileSize: DefaultMaxFileSize},
		Logging:  LoggingConfig{Level: "warn", Format: "text"},
	}
}

// Marshal encodes cfg as commented YAML.
func Marshal(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(starterHeader)

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return buf.Bytes(), nil
}
