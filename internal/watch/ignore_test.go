package watch

import "testing"

func TestIgnorerDefaults(t *testing.T) {
	ig := NewIgnorer(nil)

	for _, path := range []string{
		"/repo/.git/HEAD",
		"/repo/node_modules/pkg/index.js",
		"/repo/app/__pycache__/mod.pyc",
	} {
		if !ig.Match(path) {
			t.Errorf("expected %s to be ignored", path)
		}
	}
	if ig.Match("/repo/src/main.go") {
		t.Error("regular source file should not be ignored")
	}
}

func TestIgnorerCustomPatterns(t *testing.T) {
	ig := NewIgnorer([]string{"build", " .cache "})

	if !ig.Match("/repo/build/out.bin") {
		t.Error("custom pattern did not match")
	}
	if !ig.Match("/repo/.cache/data") {
		t.Error("pattern should be trimmed before matching")
	}
	if ig.Match("/repo/.git/HEAD") {
		t.Error("custom patterns should replace the defaults")
	}
}

func TestParseKind(t *testing.T) {
	for _, kind := range Kinds() {
		parsed, err := ParseKind(string(kind))
		if err != nil {
			t.Fatalf("parse %s: %v", kind, err)
		}
		if parsed != kind {
			t.Fatalf("expected %s, got %s", kind, parsed)
		}
	}
	if _, err := ParseKind("truncated"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
