package language

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultRunnerKinds(t *testing.T) {
	want := map[string]RunnerKind{
		"javascript": InProcessScript,
		"python":     EmbeddedInterpreter,
		"java":       RemoteService,
		"cpp":        RemoteService,
		"c":          RemoteService,
		"starlark":   InProcessScript,
		"go":         InProcessScript,
	}
	got := make(map[string]RunnerKind)
	for _, d := range Default().All() {
		got[d.ID] = d.Runner
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("runner kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestOnlyJavaNeedsEntryPoint(t *testing.T) {
	for _, d := range Default().All() {
		if d.EntryPoint != (d.ID == "java") {
			t.Errorf("%s: EntryPoint = %v", d.ID, d.EntryPoint)
		}
		if d.Runner == RemoteService && d.Remote == nil {
			t.Errorf("%s: remote language without remote target", d.ID)
		}
		if d.DefaultSource == "" {
			t.Errorf("%s: empty default source", d.ID)
		}
	}
}

func TestLookupAliases(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"js", "javascript"},
		{"JavaScript", "javascript"},
		{"py", "python"},
		{"c++", "cpp"},
		{" java ", "java"},
		{"golang", "go"},
	}
	for _, tt := range tests {
		d, ok := Default().Lookup(tt.name)
		if !ok {
			t.Errorf("Lookup(%q) not found", tt.name)
			continue
		}
		if d.ID != tt.want {
			t.Errorf("Lookup(%q) = %q, want %q", tt.name, d.ID, tt.want)
		}
	}

	if _, ok := Default().Lookup("cobol"); ok {
		t.Error("Lookup(cobol) should fail")
	}
}

func TestResolve(t *testing.T) {
	r := Default()

	d, err := r.Resolve("", "Main.java")
	if err != nil || d.ID != "java" {
		t.Errorf("Resolve by file = %q, %v", d.ID, err)
	}
	d, err = r.Resolve("", "prog.cc")
	if err != nil || d.ID != "cpp" {
		t.Errorf("Resolve .cc = %q, %v", d.ID, err)
	}
	d, err = r.Resolve("python", "x.js")
	if err != nil || d.ID != "python" {
		t.Errorf("explicit name should win, got %q, %v", d.ID, err)
	}
	if _, err := r.Resolve("", "notes.txt"); err == nil {
		t.Error("expected error for unknown extension")
	}
	if _, err := r.Resolve("brainfuck", ""); err == nil {
		t.Error("expected error for unknown language")
	}
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(Descriptor{ID: "a"}, Descriptor{ID: "a"})
	if err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestWithRemoteOverrides(t *testing.T) {
	r := Default().WithRemote(map[string]RemoteTarget{
		"java":       {Language: "java", Version: "21.0.0"},
		"javascript": {Language: "javascript", Version: "20.0.0"},
	})

	java, _ := r.Lookup("java")
	if java.Remote.Version != "21.0.0" {
		t.Errorf("java remote version = %q", java.Remote.Version)
	}
	js, _ := r.Lookup("js")
	if js.Remote != nil {
		t.Error("override must not attach a remote target to an in-process language")
	}
	orig, _ := Default().Lookup("java")
	if orig.Remote.Version != "15.0.2" {
		t.Error("override mutated the default registry")
	}
}

func TestRunnerKindString(t *testing.T) {
	if got := RemoteService.String(); got != "remote-service" {
		t.Errorf("String() = %q", got)
	}
	text, _ := EmbeddedInterpreter.MarshalText()
	if string(text) != "embedded-interpreter" {
		t.Errorf("MarshalText() = %q", text)
	}
}
