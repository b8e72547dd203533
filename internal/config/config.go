// Package config loads ctxbundle settings from .ctxbundle.yaml and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// FileName is the configuration file looked up in the project root.
const FileName = ".ctxbundle.yaml"

// EnvPrefix prefixes environment overrides: CTXBUNDLE_OUTPUT_FORMAT=toon.
const EnvPrefix = "CTXBUNDLE"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Output formats.
const (
	FormatMarkdown = "markdown"
	FormatTOON     = "toon"
)

// Ignore modes.
const (
	IgnoreSimple = "simple" // first matching rule wins, no negation
	IgnoreStrict = "strict" // full gitignore semantics
	IgnoreNone   = "none"
)

// Config is the complete ctxbundle configuration. Boolean switches are
// phrased negatively so that their zero value is the default.
type Config struct {
	Project  ProjectConfig   `mapstructure:"project" yaml:"project"`
	Sections []SectionConfig `mapstructure:"sections" yaml:"sections"`
	Ignore   IgnoreConfig    `mapstructure:"ignore" yaml:"ignore"`
	Output   OutputConfig    `mapstructure:"output" yaml:"output"`
	Limits   LimitsConfig    `mapstructure:"limits" yaml:"limits"`
	Logging  LoggingConfig   `mapstructure:"logging" yaml:"logging"`
}

// ProjectConfig describes the project as a whole.
type ProjectConfig struct {
	Name        string   `mapstructure:"name" yaml:"name,omitempty"`
	Summary     string   `mapstructure:"summary" yaml:"summary,omitempty"`
	CoreFiles   []string `mapstructure:"core_files" yaml:"core_files,omitempty"`
	NoGuide     bool     `mapstructure:"no_guide" yaml:"no_guide,omitempty"`
	NoRootFiles bool     `mapstructure:"no_root_files" yaml:"no_root_files,omitempty"`
}

// SectionConfig is one titled group of files: either a directory walk (Dir)
// or an explicit list (Files).
type SectionConfig struct {
	Title        string   `mapstructure:"title" yaml:"title"`
	Dir          string   `mapstructure:"dir" yaml:"dir,omitempty"`
	Files        []string `mapstructure:"files" yaml:"files,omitempty"`
	Suffixes     []string `mapstructure:"suffixes" yaml:"suffixes,omitempty"`
	ExcludeDirs  []string `mapstructure:"exclude_dirs" yaml:"exclude_dirs,omitempty"`
	ExcludeFiles []string `mapstructure:"exclude_files" yaml:"exclude_files,omitempty"`
	SkipMetadata bool     `mapstructure:"skip_metadata" yaml:"skip_metadata,omitempty"`
	SkipText     bool     `mapstructure:"skip_text" yaml:"skip_text,omitempty"`
}

// IgnoreConfig controls ignore-file handling.
type IgnoreConfig struct {
	Mode  string   `mapstructure:"mode" yaml:"mode"`
	File  string   `mapstructure:"file" yaml:"file,omitempty"` // overrides .gitignore discovery
	Rules []string `mapstructure:"rules" yaml:"rules,omitempty"`
}

// OutputConfig controls where and how the bundle is written.
type OutputConfig struct {
	Path   string `mapstructure:"path" yaml:"path,omitempty"` // empty writes to stdout
	Format string `mapstructure:"format" yaml:"format"`
	Cache  string `mapstructure:"cache" yaml:"cache,omitempty"`
}

// LimitsConfig bounds the work done per run.
type LimitsConfig struct {
	MaxFiles    int    `mapstructure:"max_files" yaml:"max_files,omitempty"`
	MaxFileSize int64  `mapstructure:"max_file_size" yaml:"max_file_size"`
	Workers     int    `mapstructure:"workers" yaml:"workers,omitempty"` // 0 means GOMAXPROCS
	Focus       string `mapstructure:"focus" yaml:"focus,omitempty"`
}

// LoggingConfig selects the log level and handler format.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file,omitempty"` // empty logs to stderr
}

// DefaultSuffixes are collected by the default section.
var DefaultSuffixes = []string{".py", ".md"}

// DefaultMaxFileSize skips files larger than 1 MB.
const DefaultMaxFileSize = 1_000_000

func setDefaults(v *viper.Viper) {
	v.SetDefault("project.name", "")
	v.SetDefault("project.summary", "")
	v.SetDefault("project.no_guide", false)
	v.SetDefault("project.no_root_files", false)
	v.SetDefault("ignore.mode", IgnoreSimple)
	v.SetDefault("ignore.file", "")
	v.SetDefault("output.path", "")
	v.SetDefault("output.format", FormatMarkdown)
	v.SetDefault("output.cache", "")
	v.SetDefault("limits.max_files", 0)
	v.SetDefault("limits.max_file_size", DefaultMaxFileSize)
	v.SetDefault("limits.workers", 0)
	v.SetDefault("limits.focus", "")
	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", "")
}

// Load reads configuration for the project at root. An explicit path must
// exist; otherwise root/.ctxbundle.yaml is used when present. Environment
// variables override both.
func Load(root, path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigFile(filepath.Join(root, FileName))
	}

	if err := v.ReadInConfig(); err != nil {
		if path != "" || !isNotFound(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.ApplyDefaults(root)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func isNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return true
	}
	return errors.Is(err, fs.ErrNotExist)
}

// ApplyDefaults fills fields that have no static default: the project name
// and, when no section is configured, one section covering the whole root.
func (c *Config) ApplyDefaults(root string) {
	if c.Project.Name == "" {
		c.Project.Name = ProjectName(root)
	}
	if len(c.Sections) == 0 {
		c.Sections = []SectionConfig{DefaultSection(c.Project.Name)}
	}
	for i := range c.Sections {
		if c.Sections[i].Title == "" {
			c.Sections[i].Title = c.Project.Name + " " + sectionName(c.Sections[i])
		}
	}
}

// DefaultSection walks the whole project for Python and Markdown files.
func DefaultSection(project string) SectionConfig {
	return SectionConfig{
		Title:    project + " codes",
		Dir:      ".",
		Suffixes: append([]string(nil), DefaultSuffixes...),
	}
}

func sectionName(s SectionConfig) string {
	if s.Dir != "" && s.Dir != "." {
		return filepath.ToSlash(s.Dir)
	}
	if len(s.Files) > 0 {
		return "files"
	}
	return "codes"
}

// Validate reports the first invalid setting, wrapped in ErrInvalid.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case FormatMarkdown, FormatTOON:
	default:
		return fmt.Errorf("%w: output.format %q (want %s or %s)", ErrInvalid, c.Output.Format, FormatMarkdown, FormatTOON)
	}
	switch c.Ignore.Mode {
	case IgnoreSimple, IgnoreStrict, IgnoreNone:
	default:
		return fmt.Errorf("%w: ignore.mode %q (want %s, %s or %s)", ErrInvalid, c.Ignore.Mode, IgnoreSimple, IgnoreStrict, IgnoreNone)
	}
	if c.Limits.MaxFiles < 0 {
		return fmt.Errorf("%w: limits.max_files must not be negative", ErrInvalid)
	}
	if c.Limits.MaxFileSize < 0 {
		return fmt.Errorf("%w: limits.max_file_size must not be negative", ErrInvalid)
	}
	if c.Limits.Workers < 0 {
		return fmt.Errorf("%w: limits.workers must not be negative", ErrInvalid)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: logging.format %q (want text or json)", ErrInvalid, c.Logging.Format)
	}
	for i, s := range c.Sections {
		if (s.Dir == "") == (len(s.Files) == 0) {
			return fmt.Errorf("%w: sections[%d] %q needs exactly one of dir or files", ErrInvalid, i, s.Title)
		}
		if s.SkipMetadata && s.SkipText {
			return fmt.Errorf("%w: sections[%d] %q skips both metadata and text", ErrInvalid, i, s.Title)
		}
	}
	return nil
}
