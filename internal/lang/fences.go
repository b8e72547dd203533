package lang

// Display-only languages: contents are fenced but never parsed.
func init() {
	for name, exts := range map[string][]string{
		"markdown":   {".md"},
		"text":       {".txt"},
		"json":       {".json"},
		"yaml":       {".yaml", ".yml"},
		"toml":       {".toml"},
		"xml":        {".xml"},
		"html":       {".html"},
		"css":        {".css"},
		"javascript": {".js", ".jsx"},
		"typescript": {".ts", ".tsx"},
		"vue":        {".vue"},
		"php":        {".php"},
		"java":       {".java"},
		"go":         {".go"},
		"c":          {".c"},
		"cpp":        {".cpp"},
		"h":          {".h"},
		"hpp":        {".hpp"},
		"csharp":     {".cs"},
		"vb":         {".vb"},
		"sql":        {".sql"},
		"batch":      {".bat"},
		"shell":      {".sh"},
		"powershell": {".ps1", ".psm1", ".psd1", ".pssc", ".psscx"},
		"ini":        {".ini", ".cfg"},
	} {
		Languages[name] = &Language{Name: name, Extensions: exts}
	}
}
