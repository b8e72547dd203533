package ignore

import (
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
)

// FileName is the ignore file looked up by FindIgnoreFile.
const FileName = ".gitignore"

// FindIgnoreFile returns the first ignore file found walking from root
// upward. The search stops at the enclosing git worktree root when root is
// inside a repository, and at the filesystem root otherwise.
func FindIgnoreFile(root string) (string, bool) {
	dir, err := filepath.Abs(root)
	if err != nil {
		return "", false
	}
	stop := worktreeRoot(dir)

	for {
		candidate := filepath.Join(dir, FileName)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, true
		}
		if dir == stop {
			return "", false
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// worktreeRoot returns the root of the git worktree containing dir, or ""
// when dir is not inside one.
func worktreeRoot(dir string) string {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}
	wt, err := repo.Worktree()
	if err != nil {
		return ""
	}
	root, err := filepath.Abs(wt.Filesystem.Root())
	if err != nil {
		return ""
	}
	return root
}
