// Package ignore evaluates repository-relative paths against ignore-file rules.
//
// The default matcher uses simplified fnmatch-style semantics: "*" may cross
// path separators, there is no "!" negation, and the first matching rule
// wins. Strict gitignore semantics are available through NewStrict.
package ignore

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/gobwas/glob"
)

// Matcher decides whether a root-relative, forward-slash path is ignored.
type Matcher interface {
	Matches(relPath string) bool
}

// Match reports whether relPath matches a single rule.
// Rules that fail to compile match nothing.
func Match(relPath, rule string) bool {
	stripped := strings.TrimSuffix(strings.TrimPrefix(rule, "/"), "/")
	if stripped == "" {
		return false
	}

	var candidates []string
	if !strings.Contains(stripped, "/") {
		// Unanchored: the basename at any depth, including the root level.
		candidates = []string{"**/" + stripped, stripped, rule}
	} else {
		candidates = []string{stripped, rule}
	}

	for _, pattern := range candidates {
		g, ok := compile(pattern)
		if ok && g.Match(relPath) {
			return true
		}
	}
	return false
}

// Rules is an immutable, ordered set of ignore rules.
type Rules struct {
	rules []string
}

// NewRules builds a rule set from raw lines. Blank lines and comments are dropped.
func NewRules(lines ...string) *Rules {
	var rules []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rules = append(rules, line)
	}
	return &Rules{rules: rules}
}

// ParseRules reads one rule per line from r.
func ParseRules(r io.Reader) (*Rules, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading ignore rules: %w", err)
	}
	return NewRules(lines...), nil
}

// LoadFile reads an ignore file from disk.
func LoadFile(path string) (*Rules, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseRules(f)
}

// Len returns the number of active rules.
func (r *Rules) Len() int {
	if r == nil {
		return 0
	}
	return len(r.rules)
}

// Lines returns a copy of the active rules in order.
func (r *Rules) Lines() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.rules...)
}

// Matches reports whether relPath matches any rule. The first match wins.
func (r *Rules) Matches(relPath string) bool {
	_, ok := r.MatchingRule(relPath)
	return ok
}

// MatchingRule returns the first rule that matches relPath.
func (r *Rules) MatchingRule(relPath string) (string, bool) {
	if r == nil {
		return "", false
	}
	for _, rule := range r.rules {
		if Match(relPath, rule) {
			return rule, true
		}
	}
	return "", false
}

var (
	globMu    sync.Mutex
	globCache = map[string]glob.Glob{}
)

// compile turns an fnmatch-style pattern into a separator-free glob.
// Braces are literal in fnmatch, so they are escaped before compiling.
func compile(pattern string) (glob.Glob, bool) {
	globMu.Lock()
	defer globMu.Unlock()

	if g, ok := globCache[pattern]; ok {
		return g, g != nil
	}

	escaped := strings.NewReplacer("{", `\{`, "}", `\}`).Replace(pattern)
	g, err := glob.Compile(escaped)
	if err != nil {
		globCache[pattern] = nil
		return nil, false
	}
	globCache[pattern] = g
	return g, true
}
