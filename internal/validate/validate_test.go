package validate

import (
	"os"
	"testing"

	"github.com/christaylor98/axis-core/internal/ast"
	"github.com/christaylor98/axis-core/internal/core"
	"github.com/christaylor98/axis-core/internal/lower"
	"github.com/christaylor98/axis-core/internal/parser"
	"github.com/christaylor98/axis-core/internal/registry"
)

func writeAxreg(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func lowerSrc(t *testing.T, src string) *core.Program {
	t.Helper()
	p := parser.New(src, "t.ax")
	mod, err := p.Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	prog, err := lower.Lower(mod)
	if err != nil {
		t.Fatalf("lower: %v", err)
	}
	return prog
}

func TestValidateMutualRecursionAcrossTopLevelFunctions(t *testing.T) {
	prog := lowerSrc(t, `
fn is_even(n) { if __eq__(n, 0) { true } else { is_odd(__sub__(n, 1)) } }
fn is_odd(n) { if __eq__(n, 0) { false } else { is_even(__sub__(n, 1)) } }
`)
	if err := Validate(prog, registry.New()); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateUnboundVariableFails(t *testing.T) {
	prog := lowerSrc(t, `fn main() { mystery_name }`)
	err := Validate(prog, registry.New())
	if err == nil {
		t.Fatal("expected E_UNBOUND_VAR")
	}
	verr, ok := err.(*Error)
	if !ok || verr.Code != "E_UNBOUND_VAR" {
		t.Fatalf("err = %v", err)
	}
}

func TestValidateRegistryForeignNameIsKnown(t *testing.T) {
	prog := lowerSrc(t, `fn main() { net_fetch(1) }`)
	dir := t.TempDir()
	path := dir + "/r.axreg"
	if err := writeAxreg(path, "fn net_fetch\n  arity 1\n  deterministic false\nend\n"); err != nil {
		t.Fatalf("writeAxreg: %v", err)
	}
	reg := registry.New()
	if err := reg.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if err := Validate(prog, reg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateApplyingIntLiteralFails(t *testing.T) {
	prog := lowerSrc(t, `fn main() { proj((1, 2), 0) }`)
	// proj lowers to Proj, not App — use a literal applied directly via a
	// hand-built term since the surface grammar cannot itself write
	// "1(2)" (IntLit is never in call position syntactically).
	app := core.MkApp(prog.Root.Span(), core.MkInt(prog.Root.Span(), 1), core.MkInt(prog.Root.Span(), 2))
	wrapped := core.MkLet(prog.Root.Span(), "bad", app, core.MkUnit(prog.Root.Span()))
	err := Validate(&core.Program{Root: wrapped}, registry.New())
	if err == nil {
		t.Fatal("expected E_APPLY_NON_FUNCTION")
	}
	verr, ok := err.(*Error)
	if !ok || verr.Code != "E_APPLY_NON_FUNCTION" {
		t.Fatalf("err = %v", err)
	}
}

func TestValidatePartialApplicationIsLegal(t *testing.T) {
	prog := lowerSrc(t, `
fn add3(a, b, c) { __add__(__add__(a, b), c) }
fn main() { add3(1) }
`)
	if err := Validate(prog, registry.New()); err != nil {
		t.Fatalf("Validate (partial application should be legal): %v", err)
	}
}

func TestValidateMatchArmBindsPatternVariables(t *testing.T) {
	prog := lowerSrc(t, `
fn len(xs) {
  match xs {
    Nil => 0,
    Cons(h, t) => h,
  }
}
`)
	if err := Validate(prog, registry.New()); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateMatchArmUnboundVariableInBodyFails(t *testing.T) {
	prog := lowerSrc(t, `
fn f(xs) {
  match xs {
    Nil => 0,
    Cons(h, t) => some_unbound_thing,
  }
}
`)
	err := Validate(prog, registry.New())
	if err == nil {
		t.Fatal("expected E_UNBOUND_VAR from an arm body")
	}
}

func TestValidateLiteralInFunctionPositionHelper(t *testing.T) {
	bound := map[string]varInfo{}
	zero := ast.Pos{}
	if canBeFunction(core.MkInt(zero, 1), bound, registry.New()) {
		t.Error("an IntLit must never be function-capable")
	}
	if !canBeFunction(core.MkLam(zero, "x", core.MkVar(zero, "x")), bound, registry.New()) {
		t.Error("a Lam must always be function-capable")
	}
}
