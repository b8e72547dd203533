package render

import (
	"sort"
	"strings"
)

type treeNode map[string]treeNode

// Tree draws paths as a box-drawing directory tree, siblings sorted by name.
func Tree(paths []string) []string {
	root := treeNode{}
	for _, p := range paths {
		cur := root
		for _, part := range strings.Split(p, "/") {
			next, ok := cur[part]
			if !ok {
				next = treeNode{}
				cur[part] = next
			}
			cur = next
		}
	}
	return root.lines("")
}

func (n treeNode) lines(prefix string) []string {
	names := make([]string, 0, len(n))
	for name := range n {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []string
	for i, name := range names {
		last := i == len(names)-1
		connector, extension := "├── ", "│   "
		if last {
			connector, extension = "└── ", "    "
		}
		out = append(out, prefix+connector+name)
		if child := n[name]; len(child) > 0 {
			out = append(out, child.lines(prefix+extension)...)
		}
	}
	return out
}
