package ignore

import (
	gitignore "github.com/sabhiram/go-gitignore"
)

// Strict matches with full gitignore semantics: negation, last match wins,
// and "*" confined to a single path segment.
type Strict struct {
	gi *gitignore.GitIgnore
}

// NewStrict compiles a rule set with gitignore semantics.
func NewStrict(rules *Rules) *Strict {
	return &Strict{gi: gitignore.CompileIgnoreLines(rules.Lines()...)}
}

// Matches reports whether relPath is ignored.
func (s *Strict) Matches(relPath string) bool {
	if s == nil || s.gi == nil {
		return false
	}
	return s.gi.MatchesPath(relPath)
}
