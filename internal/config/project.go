package config

import (
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// PyProjectFile is consulted for the project name.
const PyProjectFile = "pyproject.toml"

type pyproject struct {
	Project struct {
		Name string `toml:"name"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Name string `toml:"name"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

// ProjectName returns [project].name or [tool.poetry].name from the root's
// pyproject.toml, falling back to the root directory's base name.
func ProjectName(root string) string {
	abs, err := filepath.Abs(root)
	if err != nil {
		abs = root
	}

	data, err := os.ReadFile(filepath.Join(abs, PyProjectFile))
	if err == nil {
		var pp pyproject
		if toml.Unmarshal(data, &pp) == nil {
			if name := strings.TrimSpace(pp.Project.Name); name != "" {
				return name
			}
			if name := strings.TrimSpace(pp.Tool.Poetry.Name); name != "" {
				return name
			}
		}
	}
	return filepath.Base(abs)
}
