package registry

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestParseAxregBasic(t *testing.T) {
	path := writeTemp(t, "basic.axreg", `
// comment
fn io::print
  arity 1
  deterministic false
  profile side-effecting
end

fn math::square
  arity 1
  deterministic true
end
`)
	r := New()
	if err := r.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	e, ok := r.Lookup("io::print")
	if !ok {
		t.Fatal("expected io::print to be registered")
	}
	if e.Arity != 1 || e.Deterministic != false || len(e.Profiles) != 1 || e.Profiles[0] != "side-effecting" {
		t.Errorf("entry = %+v", e)
	}
	e2, ok := r.Lookup("math::square")
	if !ok || !e2.Deterministic {
		t.Errorf("math::square = %+v", e2)
	}
}

func TestParseAxregMissingArityIsError(t *testing.T) {
	path := writeTemp(t, "bad.axreg", `
fn f
  deterministic true
end
`)
	r := New()
	if err := r.LoadFile(path); err == nil {
		t.Fatal("expected an error for missing arity")
	}
}

func TestParseAxregDuplicateNameIsError(t *testing.T) {
	path := writeTemp(t, "dup.axreg", `
fn f
  arity 1
  deterministic true
end

fn f
  arity 2
  deterministic true
end
`)
	r := New()
	if err := r.LoadFile(path); err == nil {
		t.Fatal("expected a duplicate-name error")
	}
}

func TestParseYAMLSupplement(t *testing.T) {
	path := writeTemp(t, "reg.axreg.yaml", `
- name: net::fetch
  arity: 1
  deterministic: false
  profiles: [side-effecting, network]
- name: math::cube
  arity: 1
  deterministic: true
`)
	r := New()
	if err := r.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	e, ok := r.Lookup("net::fetch")
	if !ok || e.Arity != 1 || len(e.Profiles) != 2 {
		t.Errorf("net::fetch = %+v", e)
	}
}

func TestLoadFilesMergesAcrossAxregAndYAML(t *testing.T) {
	axregPath := writeTemp(t, "a.axreg", "fn f\n  arity 1\n  deterministic true\nend\n")
	yamlPath := writeTemp(t, "b.axreg.yaml", "- name: g\n  arity: 2\n  deterministic: false\n")
	r := New()
	if err := r.LoadFiles([]string{axregPath, yamlPath}); err != nil {
		t.Fatalf("LoadFiles: %v", err)
	}
	if _, ok := r.Lookup("f"); !ok {
		t.Error("expected f to be registered")
	}
	if _, ok := r.Lookup("g"); !ok {
		t.Error("expected g to be registered")
	}
}

func TestClassify(t *testing.T) {
	path := writeTemp(t, "r.axreg", "fn shim::emit\n  arity 1\n  deterministic true\nend\n")
	r := New()
	if err := r.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if got := r.Classify("__add__", 2); got != KindBuiltin {
		t.Errorf("Classify(__add__) = %v, want Builtin", got)
	}
	if got := r.Classify("shim::emit", 1); got != KindForeign {
		t.Errorf("Classify(shim::emit) = %v, want Foreign", got)
	}
	if got := r.Classify("my_helper", 1); got != KindUser {
		t.Errorf("Classify(my_helper) = %v, want User", got)
	}
}

func TestIsBuiltinCanonicalAllowlist(t *testing.T) {
	for _, name := range []string{"+", "__add__", "tuple_field", "str_char", "str_char_at", "debug_trace", "foo___main"} {
		if !IsBuiltin(name) {
			t.Errorf("IsBuiltin(%q) = false, want true", name)
		}
	}
	if IsBuiltin("not_a_builtin") {
		t.Error("IsBuiltin(not_a_builtin) = true, want false")
	}
}
