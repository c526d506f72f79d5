package checker

import (
	"testing"

	"warden/internal/watch"
)

func TestSeverityOrdering(t *testing.T) {
	if !(SeverityInfo < SeverityWarning && SeverityWarning < SeverityError && SeverityError < SeverityCritical) {
		t.Fatal("severity ordering broken")
	}
	if MaxSeverity(SeverityWarning, SeverityCritical) != SeverityCritical {
		t.Fatal("MaxSeverity should pick the higher severity")
	}
	if MaxSeverity(SeverityError, SeverityInfo) != SeverityError {
		t.Fatal("MaxSeverity should pick the higher severity regardless of order")
	}
}

func TestParseSeverityRoundTrip(t *testing.T) {
	for _, sev := range Severities() {
		parsed, err := ParseSeverity(sev.String())
		if err != nil {
			t.Fatalf("parse %s: %v", sev, err)
		}
		if parsed != sev {
			t.Fatalf("expected %s, got %s", sev, parsed)
		}
	}
	if _, err := ParseSeverity("fatal"); err == nil {
		t.Fatal("expected error for unknown severity")
	}
}

func TestDescriptorAccepts(t *testing.T) {
	d := Descriptor{ID: "test", Extensions: []string{".go", ".py"}}

	if !d.Accepts("/src/main.go", watch.KindModified) {
		t.Error("matching extension should be accepted")
	}
	if !d.Accepts("/src/APP.PY", watch.KindCreated) {
		t.Error("extension matching should be case-insensitive")
	}
	if d.Accepts("/src/main.rs", watch.KindModified) {
		t.Error("non-matching extension should be rejected")
	}
	if d.Accepts("/src/main.go", watch.KindDeleted) {
		t.Error("deletions are rejected when no kinds are declared")
	}

	all := Descriptor{ID: "all"}
	if !all.Accepts("/any/file.xyz", watch.KindModified) {
		t.Error("empty extension list should accept every path")
	}

	del := Descriptor{ID: "del", Kinds: []watch.Kind{watch.KindDeleted}}
	if !del.Accepts("/src/main.go", watch.KindDeleted) {
		t.Error("explicit deleted kind should be accepted")
	}
	if del.Accepts("/src/main.go", watch.KindModified) {
		t.Error("kinds outside the declared set should be rejected")
	}
}

func TestNewRegistryRejectsUnknownID(t *testing.T) {
	_, err := NewRegistry(Builtins(), []InstanceConfig{{ID: "nonexistent", Enabled: true}})
	if err == nil {
		t.Fatal("expected error for unknown checker id")
	}
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	configs := []InstanceConfig{
		{ID: "todos", Enabled: true},
		{ID: "todos", Enabled: true},
	}
	if _, err := NewRegistry(Builtins(), configs); err == nil {
		t.Fatal("expected error for duplicate checker id")
	}
}

func TestRegistryResolveHonorsOrderAndEnabled(t *testing.T) {
	configs := []InstanceConfig{
		{ID: "whitespace", Enabled: true, Options: Options{AutoFix: true}},
		{ID: "secretscan", Enabled: false},
		{ID: "todos", Enabled: true},
	}
	reg, err := NewRegistry(Builtins(), configs)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	selected := reg.Resolve("/src/main.go", watch.KindModified)
	if len(selected) != 2 {
		t.Fatalf("expected 2 selected checkers, got %d", len(selected))
	}
	if selected[0].Checker.Describe().ID != "whitespace" {
		t.Fatalf("expected whitespace first, got %s", selected[0].Checker.Describe().ID)
	}
	if !selected[0].FixCapable {
		t.Error("whitespace with auto_fix should be fix-capable")
	}
	if selected[1].FixCapable {
		t.Error("todos should never be fix-capable")
	}
}

func TestRegistryFixCapableRequiresBothFlags(t *testing.T) {
	// todos does not allow fixing even when configuration asks for it.
	reg, err := NewRegistry(Builtins(), []InstanceConfig{
		{ID: "todos", Enabled: true, Options: Options{AutoFix: true}},
	})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	selected := reg.Resolve("/src/main.go", watch.KindModified)
	if len(selected) != 1 || selected[0].FixCapable {
		t.Fatal("auto_fix on a non-fixing checker must not make it fix-capable")
	}
}
