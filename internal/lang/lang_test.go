package lang

import (
	"testing"
)

func TestForExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ext  string
		want string
	}{
		{".py", "python"},
		{".PY", "python"},
		{".md", "markdown"},
		{".yml", "yaml"},
		{".psm1", "powershell"},
		{".unknown", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			t.Parallel()
			var got string
			if l := ForExtension(tt.ext); l != nil {
				got = l.Name
			}
			if got != tt.want {
				t.Errorf("ForExtension(%q) = %q, want %q", tt.ext, got, tt.want)
			}
		})
	}
}

func TestFenceName(t *testing.T) {
	t.Parallel()

	if got := FenceName(".py"); got != "python" {
		t.Errorf("FenceName(.py) = %q", got)
	}
	if got := FenceName(".lock"); got != "text" {
		t.Errorf("FenceName(.lock) = %q, want text", got)
	}
}

func TestOnlyPythonIsParseable(t *testing.T) {
	t.Parallel()

	for name, l := range Languages {
		if got, want := l.Parseable(), name == "python"; got != want {
			t.Errorf("%s: Parseable() = %v, want %v", name, got, want)
		}
	}
}

func TestNewParser(t *testing.T) {
	t.Parallel()

	p := Python.NewParser()
	if p == nil {
		t.Fatal("NewParser returned nil")
	}
	if Python.GetLanguage() == nil {
		t.Error("python language is nil")
	}
}

func TestCollapseWhitespace(t *testing.T) {
	t.Parallel()

	if got := CollapseWhitespace("  (a,\n    b)  "); got != "(a, b)" {
		t.Errorf("got %q", got)
	}
}
