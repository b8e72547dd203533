// ctxbundle assembles a Python project's files, structural summaries and
// import graph into a single context document for AI models.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/phobologic/ctxbundle/internal/bundle"
	"github.com/phobologic/ctxbundle/internal/config"
	"github.com/phobologic/ctxbundle/internal/logging"
	"github.com/phobologic/ctxbundle/internal/model"
	"github.com/phobologic/ctxbundle/internal/render"
	"github.com/phobologic/ctxbundle/internal/toon"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

type options struct {
	configPath   string
	output       string
	format       string
	dirs         []string
	files        []string
	suffixes     []string
	excludeDirs  []string
	excludeFiles []string
	ignoreMode   string
	noMetadata   bool
	noText       bool
	noGuide      bool
	noRootFiles  bool
	dryRun       bool
	maxFiles     int
	maxFileSize  int64
	focus        string
	cachePath    string
	workers      int
	watch        bool
	verbose      int
	quiet        bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var o options

	cmd := &cobra.Command{
		Use:   "ctxbundle [root]",
		Short: "Bundle a Python project into one AI-readable context document",
		Long: `ctxbundle collects a project's files, extracts the structure of every
Python module (classes, functions, signatures, docstrings, imports), resolves
the import graph and writes everything as one Markdown or TOON document.

Settings are read from .ctxbundle.yaml in the project root (see
"ctxbundle init") and CTXBUNDLE_* environment variables; flags override both.`,
		Args:          cobra.MaximumNArgs(1),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, args, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetVersionTemplate("ctxbundle {{.Version}}\n")

	f := cmd.Flags()
	f.StringVar(&o.configPath, "config", "", "config file (default <root>/"+config.FileName+")")
	f.StringVarP(&o.output, "output", "o", "", "write the bundle to this file instead of stdout")
	f.StringVarP(&o.format, "format", "f", config.FormatMarkdown, "output format: markdown or toon")
	f.StringSliceVarP(&o.dirs, "dir", "d", nil, "add a section collecting this directory (repeatable)")
	f.StringSliceVar(&o.files, "file", nil, "add a section with exactly these files (repeatable)")
	f.StringSliceVarP(&o.suffixes, "suffix", "s", nil, "file suffixes collected by directory sections")
	f.StringSliceVar(&o.excludeDirs, "exclude-dir", nil, "directory to skip, relative to root (repeatable)")
	f.StringSliceVar(&o.excludeFiles, "exclude-file", nil, "file to skip, relative to root (repeatable)")
	f.StringVar(&o.ignoreMode, "ignore-mode", config.IgnoreSimple, "ignore file semantics: simple, strict or none")
	f.BoolVar(&o.noMetadata, "no-metadata", false, "omit Python structural metadata")
	f.BoolVar(&o.noText, "metadata-only", false, "omit file contents, keep metadata")
	f.BoolVar(&o.noGuide, "no-guide", false, "omit the AI reading guide")
	f.BoolVar(&o.noRootFiles, "no-root-files", false, "do not merge README.md, setup.py and pyproject.toml")
	f.BoolVar(&o.dryRun, "dry-run", false, "list the files that would be included and exit")
	f.IntVarP(&o.maxFiles, "max-files", "n", 0, "keep only the N most central Python files")
	f.Int64Var(&o.maxFileSize, "max-file-size", config.DefaultMaxFileSize, "skip files larger than this many bytes")
	f.StringVar(&o.focus, "focus", "", "keep Python files whose path contains this text, plus their direct imports and importers")
	f.StringVar(&o.cachePath, "cache", "", "cache file path")
	f.IntVarP(&o.workers, "workers", "j", 0, "parallel extraction workers (default GOMAXPROCS)")
	f.BoolVarP(&o.watch, "watch", "w", false, "rebuild whenever a file under root changes")
	f.CountVarP(&o.verbose, "verbose", "v", "log more (-v info, -vv debug)")
	f.BoolVarP(&o.quiet, "quiet", "q", false, "log nothing")
	cmd.Flags().BoolP("version", "V", false, "show version and exit")

	cmd.AddCommand(newInitCmd(stdout, stderr))
	return cmd
}

func (o *options) run(cmd *cobra.Command, args []string, stdout, stderr io.Writer) error {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolving root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("root path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: not a directory", root)
	}

	cfg, err := config.Load(root, o.configPath)
	if err != nil {
		return err
	}
	o.apply(cmd.Flags(), cfg, root)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closeLog, err := o.logger(cmd.Flags(), cfg, stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	a, err := bundle.New(root, cfg, logger)
	if err != nil {
		return err
	}

	if o.dryRun {
		plan, err := a.Plan()
		if err != nil {
			return err
		}
		bundle.WritePlan(stdout, plan)
		return nil
	}

	ctx := cmd.Context()
	gen := func(ctx context.Context) error {
		return generate(ctx, a, cfg, stdout, stderr, logger)
	}
	if o.watch {
		return watch(ctx, root, []string{cfg.Output.Path, cfg.Output.Cache}, logger, gen)
	}
	return gen(ctx)
}

// apply overrides cfg with the flags set on the command line.
func (o *options) apply(flags *pflag.FlagSet, cfg *config.Config, root string) {
	set := flags.Changed

	if set("output") {
		cfg.Output.Path = o.output
	}
	if set("format") {
		cfg.Output.Format = o.format
	}
	if set("cache") {
		cfg.Output.Cache = o.cachePath
	}
	if set("ignore-mode") {
		cfg.Ignore.Mode = o.ignoreMode
	}
	if set("max-files") {
		cfg.Limits.MaxFiles = o.maxFiles
	}
	if set("max-file-size") {
		cfg.Limits.MaxFileSize = o.maxFileSize
	}
	if set("focus") {
		cfg.Limits.Focus = o.focus
	}
	if set("workers") {
		cfg.Limits.Workers = o.workers
	}
	if set("no-guide") {
		cfg.Project.NoGuide = o.noGuide
	}
	if set("no-root-files") {
		cfg.Project.NoRootFiles = o.noRootFiles
	}

	if len(o.dirs) > 0 || len(o.files) > 0 {
		var sections []config.SectionConfig
		for _, d := range o.dirs {
			sections = append(sections, config.SectionConfig{Dir: d})
		}
		if len(o.files) > 0 {
			sections = append(sections, config.SectionConfig{Files: o.files})
		}
		cfg.Sections = sections
		cfg.ApplyDefaults(root)
		for i := range cfg.Sections {
			if cfg.Sections[i].Dir != "" && !set("suffix") {
				cfg.Sections[i].Suffixes = append([]string(nil), config.DefaultSuffixes...)
			}
		}
	}

	for i := range cfg.Sections {
		s := &cfg.Sections[i]
		if s.Dir != "" {
			if set("suffix") {
				s.Suffixes = o.suffixes
			}
			if set("exclude-dir") {
				s.ExcludeDirs = append(s.ExcludeDirs, o.excludeDirs...)
			}
			if set("exclude-file") {
				s.ExcludeFiles = append(s.ExcludeFiles, o.excludeFiles...)
			}
		}
		if set("no-metadata") {
			s.SkipMetadata = o.noMetadata
		}
		if set("metadata-only") {
			s.SkipText = o.noText
		}
	}
}

// logger honours -v/-q when given and the configured level otherwise.
func (o *options) logger(flags *pflag.FlagSet, cfg *config.Config, stderr io.Writer) (*slog.Logger, func(), error) {
	level := logging.LevelFromString(cfg.Logging.Level)
	if flags.Changed("verbose") || flags.Changed("quiet") {
		level = logging.LevelFromVerbosity(o.verbose, o.quiet)
	}
	format := logging.Format(cfg.Logging.Format)

	if cfg.Logging.File == "" {
		return logging.New(stderr, format, level), func() {}, nil
	}
	logger, f, err := logging.NewFile(cfg.Logging.File, format, level)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return logger, func() { _ = f.Close() }, nil
}

// generate builds (or reuses from cache) the bundle and writes it out.
func generate(ctx context.Context, a *bundle.Assembler, cfg *config.Config, stdout, stderr io.Writer, logger *slog.Logger) error {
	plan, err := a.Plan()
	if err != nil {
		return err
	}
	entries := plan.Entries()
	if len(entries) == 0 {
		return fmt.Errorf("no files found under %s", a.Root())
	}

	var key string
	if cfg.Output.Cache != "" {
		key = cacheKey(cfg, entries)
		if out, ok := readCache(cfg.Output.Cache, key, entries); ok {
			logger.Info("using cached output", "cache", cfg.Output.Cache)
			return emit(cfg, out, stdout, stderr)
		}
	}

	b, err := a.Build(ctx, plan)
	if err != nil {
		return err
	}
	out := encode(b, cfg.Output.Format)

	if cfg.Output.Cache != "" {
		if err := writeCache(cfg.Output.Cache, key, out); err != nil {
			logger.Warn("could not write cache", "cache", cfg.Output.Cache, "error", err)
		}
	}
	return emit(cfg, out, stdout, stderr)
}

func encode(b *model.Bundle, format string) string {
	if format == config.FormatTOON {
		return toon.Encode(b) + "\n"
	}
	return render.Markdown(b)
}

func emit(cfg *config.Config, out string, stdout, stderr io.Writer) error {
	if cfg.Output.Path == "" {
		_, _ = io.WriteString(stdout, out)
		return nil
	}
	if err := os.WriteFile(cfg.Output.Path, []byte(out), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", cfg.Output.Path, err)
	}
	_, _ = fmt.Fprintf(stderr, "wrote %s\n", cfg.Output.Path)
	return nil
}
