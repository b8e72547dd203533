package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phobologic/ctxbundle/internal/config"
)

const (
	sentinelStart = "<!-- ctxbundle:start -->"
	sentinelEnd   = "<!-- ctxbundle:end -->"
)

type initOptions struct {
	dryRun     bool
	force      bool
	agentsFile string
}

func newInitCmd(stdout, stderr io.Writer) *cobra.Command {
	var o initOptions

	cmd := &cobra.Command{
		Use:   "init [root]",
		Short: "Write a starter " + config.FileName,
		Long: `Write a starter ` + config.FileName + ` to the project root (default: the
current directory) with every setting at its default.

With --agents-file, also write a ctxbundle usage section to that Markdown file
(e.g. CLAUDE.md or AGENTS.md). The section is wrapped in sentinel comments so
it can be updated in place on later runs without touching surrounding content.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) > 0 {
				root = args[0]
			}
			return runInit(root, o, stdout, stderr)
		},
	}
	cmd.Flags().BoolVar(&o.dryRun, "dry-run", false, "print what would be written without modifying any file")
	cmd.Flags().BoolVar(&o.force, "force", false, "overwrite an existing config file")
	cmd.Flags().StringVar(&o.agentsFile, "agents-file", "", "also write a usage section to this Markdown file")
	return cmd
}

func runInit(root string, o initOptions, stdout, stderr io.Writer) error {
	data, err := config.Marshal(config.Starter(root))
	if err != nil {
		return err
	}
	path := filepath.Join(root, config.FileName)

	var updated string
	if o.agentsFile != "" {
		existing, _ := os.ReadFile(o.agentsFile)
		updated = applySection(string(existing), generateSection())
	}

	if o.dryRun {
		_, _ = stdout.Write(data)
		if o.agentsFile != "" {
			_, _ = fmt.Fprintf(stdout, "\n--- %s ---\n%s", o.agentsFile, updated)
		}
		return nil
	}

	if _, err := os.Stat(path); err == nil && !o.force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	_, _ = fmt.Fprintf(stderr, "wrote %s\n", path)

	if o.agentsFile != "" {
		if err := os.WriteFile(o.agentsFile, []byte(updated), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", o.agentsFile, err)
		}
		_, _ = fmt.Fprintf(stderr, "wrote ctxbundle section to %s\n", o.agentsFile)
	}
	return nil
}

// generateSection returns the sentinel-wrapped usage block for agent
// instruction files.
func generateSection() string {
	body := `## ctxbundle: Project Context

Run ` + "`ctxbundle`" + ` at the start of a task on an unfamiliar Python project. It
writes one document holding the project summary, the import graph and every
module's classes, functions and signatures, followed by the file contents.

**Availability:** Check with ` + "`ctxbundle --version`" + ` first; skip gracefully if
not found.

**Run it:**
` + "```" + `bash
ctxbundle -o context.md                     # whole project, Markdown
ctxbundle --metadata-only -o context.md     # structure only, no file contents
ctxbundle -f toon                           # compact tables on stdout
ctxbundle -n 30                             # 30 most central Python files
ctxbundle --focus auth                      # files matching "auth" and their neighbours
ctxbundle --dry-run                         # list the files that would be included
` + "```" + `

**Caching:** ` + "`--cache .ctxbundle-cache`" + ` reuses the last output while no
file has changed. Add the cache file to ` + "`.gitignore`" + `.

**All flags:** ` + "`ctxbundle --help`" + `

**Reading the output:**

1. Start with **File Dependencies Analysis**: entry points are not imported by
   any project file; core files are the most imported.
2. Use the **Python File Metadata** blocks to find classes and functions before
   searching the sources.
3. Read file contents only for the modules the task touches.`

	return sentinelStart + "\n" + body + "\n" + sentinelEnd
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + "\n" + section + "\n"
}
