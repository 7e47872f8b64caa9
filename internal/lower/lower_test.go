package lower

import (
	"testing"

	"github.com/christaylor98/axis-core/internal/core"
	"github.com/christaylor98/axis-core/internal/parser"
)

func mustLower(t *testing.T, src string) *core.Program {
	t.Helper()
	p := parser.New(src, "t.ax")
	mod, err := p.Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	prog, err := Lower(mod)
	if err != nil {
		t.Fatalf("lower: %v", err)
	}
	return prog
}

func TestLowerZeroParamFunctionWrapsUnitLam(t *testing.T) {
	prog := mustLower(t, `fn main() { 1 }`)
	let, ok := prog.Root.(*core.Let)
	if !ok {
		t.Fatalf("root = %T", prog.Root)
	}
	lam, ok := let.Value.(*core.Lam)
	if !ok || lam.Param != "_unit" {
		t.Fatalf("value = %+v", let.Value)
	}
}

func TestLowerModuleFoldsFunctionsInReverseOrder(t *testing.T) {
	prog := mustLower(t, `
fn f() { 1 }
fn g() { 2 }
`)
	outer, ok := prog.Root.(*core.Let)
	if !ok || outer.Name != "f" {
		t.Fatalf("outer = %+v", prog.Root)
	}
	inner, ok := outer.Body.(*core.Let)
	if !ok || inner.Name != "g" {
		t.Fatalf("inner = %+v", outer.Body)
	}
	if _, ok := inner.Body.(*core.UnitLit); !ok {
		t.Fatalf("innermost body = %T", inner.Body)
	}
	if len(prog.FuncNames) != 2 || prog.FuncNames[0] != "f" || prog.FuncNames[1] != "g" {
		t.Errorf("FuncNames = %v", prog.FuncNames)
	}
}

func TestLowerMultiParamFunctionCurries(t *testing.T) {
	prog := mustLower(t, `fn add(a, b) { a }`)
	let := prog.Root.(*core.Let)
	outer := let.Value.(*core.Lam)
	if outer.Param != "a" {
		t.Fatalf("outer param = %q", outer.Param)
	}
	inner, ok := outer.Body.(*core.Lam)
	if !ok || inner.Param != "b" {
		t.Fatalf("inner = %+v", outer.Body)
	}
}

func TestLowerZeroArgCallAppliesUnit(t *testing.T) {
	prog := mustLower(t, `
fn helper() { 1 }
fn main() { helper() }
`)
	let := prog.Root.(*core.Let)
	inner := let.Body.(*core.Let)
	app, ok := inner.Value.(*core.Lam).Body.(*core.App)
	if !ok {
		t.Fatalf("call body = %T", inner.Value.(*core.Lam).Body)
	}
	if app.Fn.(*core.Var).Name != "helper" {
		t.Errorf("fn = %v", app.Fn)
	}
	if _, ok := app.Arg.(*core.UnitLit); !ok {
		t.Errorf("arg = %T, want UnitLit", app.Arg)
	}
}

func TestLowerZeroArgConstructorReferenceIsBareVar(t *testing.T) {
	prog := mustLower(t, `fn main() { Nil }`)
	let := prog.Root.(*core.Let)
	body := let.Value.(*core.Lam).Body
	v, ok := body.(*core.Var)
	if !ok || v.Name != "Nil" {
		t.Fatalf("body = %+v", body)
	}
}

func TestLowerConstructorCallCurriesAppChain(t *testing.T) {
	prog := mustLower(t, `fn main() { Cons(1, 2) }`)
	let := prog.Root.(*core.Let)
	body := let.Value.(*core.Lam).Body
	outer, ok := body.(*core.App)
	if !ok {
		t.Fatalf("body = %T", body)
	}
	inner, ok := outer.Fn.(*core.App)
	if !ok {
		t.Fatalf("fn = %T", outer.Fn)
	}
	if inner.Fn.(*core.Var).Name != "Cons" {
		t.Errorf("innermost fn = %v", inner.Fn)
	}
	if inner.Arg.(*core.IntLit).Value != 1 {
		t.Errorf("first arg = %v", inner.Arg)
	}
	if outer.Arg.(*core.IntLit).Value != 2 {
		t.Errorf("second arg = %v", outer.Arg)
	}
}

func TestLowerStructLiteralAppliesFieldValuesPositionally(t *testing.T) {
	prog := mustLower(t, `fn main() { Point{x: 1, y: 2} }`)
	let := prog.Root.(*core.Let)
	body := let.Value.(*core.Lam).Body
	outer := body.(*core.App)
	inner := outer.Fn.(*core.App)
	if inner.Fn.(*core.Var).Name != "Point" {
		t.Errorf("ctor = %v", inner.Fn)
	}
	if inner.Arg.(*core.IntLit).Value != 1 || outer.Arg.(*core.IntLit).Value != 2 {
		t.Errorf("fields = %v, %v", inner.Arg, outer.Arg)
	}
}

func TestLowerBlockSequencesExprStatementsViaDiscard(t *testing.T) {
	prog := mustLower(t, `
fn main() {
  helper();
  1
}
`)
	let := prog.Root.(*core.Let)
	body := let.Value.(*core.Lam).Body
	bind, ok := body.(*core.Let)
	if !ok || bind.Name != "_discard" {
		t.Fatalf("body = %+v", body)
	}
	if _, ok := bind.Body.(*core.IntLit); !ok {
		t.Errorf("tail = %T", bind.Body)
	}
}

func TestLowerBlockLetStatementBindsRest(t *testing.T) {
	prog := mustLower(t, `
fn main() {
  let x = 1;
  x
}
`)
	let := prog.Root.(*core.Let)
	body := let.Value.(*core.Lam).Body
	bind, ok := body.(*core.Let)
	if !ok || bind.Name != "x" {
		t.Fatalf("body = %+v", body)
	}
	if v, ok := bind.Body.(*core.Var); !ok || v.Name != "x" {
		t.Errorf("tail = %+v", bind.Body)
	}
}

func TestLowerBlockLastLetStatementBodyIsUnit(t *testing.T) {
	prog := mustLower(t, `
fn main() {
  let x = 1;
}
`)
	let := prog.Root.(*core.Let)
	body := let.Value.(*core.Lam).Body
	bind := body.(*core.Let)
	if _, ok := bind.Body.(*core.UnitLit); !ok {
		t.Errorf("tail body = %T, want UnitLit", bind.Body)
	}
}

func TestLowerPatternLetDesugarsViaCtorFieldExtraction(t *testing.T) {
	prog := mustLower(t, `
fn main() {
  let Cons(h, t) = xs;
  h
}
`)
	let := prog.Root.(*core.Let)
	body := let.Value.(*core.Lam).Body
	tmpLet, ok := body.(*core.Let)
	if !ok {
		t.Fatalf("body = %T", body)
	}
	if tmpLet.Name != "_tmp_Cons_2" {
		t.Errorf("tmp name = %q", tmpLet.Name)
	}
	hLet, ok := tmpLet.Body.(*core.Let)
	if !ok || hLet.Name != "h" {
		t.Fatalf("h let = %+v", tmpLet.Body)
	}
	extract, ok := hLet.Value.(*core.App)
	if !ok {
		t.Fatalf("extract = %T", hLet.Value)
	}
	inner := extract.Fn.(*core.App)
	if inner.Fn.(*core.Var).Name != "__ctor_field__" {
		t.Errorf("extractor = %v", inner.Fn)
	}
	if inner.Arg.(*core.Var).Name != "_tmp_Cons_2" {
		t.Errorf("extractor target = %v", inner.Arg)
	}
	if extract.Arg.(*core.IntLit).Value != 0 {
		t.Errorf("field index = %v", extract.Arg)
	}
}

func TestLowerIfExpr(t *testing.T) {
	prog := mustLower(t, `fn main() { if true { 1 } else { 2 } }`)
	let := prog.Root.(*core.Let)
	body := let.Value.(*core.Lam).Body
	ifE, ok := body.(*core.If)
	if !ok {
		t.Fatalf("body = %T", body)
	}
	if !ifE.Cond.(*core.BoolLit).Value {
		t.Errorf("cond = %v", ifE.Cond)
	}
}

func TestLowerTupleAndProj(t *testing.T) {
	prog := mustLower(t, `fn main() { proj((1, 2), 0) }`)
	let := prog.Root.(*core.Let)
	body := let.Value.(*core.Lam).Body
	p, ok := body.(*core.Proj)
	if !ok {
		t.Fatalf("body = %T", body)
	}
	tup, ok := p.Target.(*core.Tuple)
	if !ok || len(tup.Elems) != 2 {
		t.Fatalf("target = %+v", p.Target)
	}
}

func TestLowerMatchReparsesPatternStrings(t *testing.T) {
	prog := mustLower(t, `
fn main() {
  match xs {
    Nil => 0,
    Cons(h, t) => h,
  }
}
`)
	let := prog.Root.(*core.Let)
	body := let.Value.(*core.Lam).Body
	m, ok := body.(*core.Match)
	if !ok {
		t.Fatalf("body = %T", body)
	}
	if len(m.Arms) != 2 {
		t.Fatalf("arms = %d", len(m.Arms))
	}
	p0, ok := m.Arms[0].Pattern.(core.PEnum)
	if !ok || p0.Tag != "Nil" || len(p0.Fields) != 0 {
		t.Errorf("arm0 pattern = %+v", m.Arms[0].Pattern)
	}
	p1, ok := m.Arms[1].Pattern.(core.PEnum)
	if !ok || p1.Tag != "Cons" || len(p1.Fields) != 2 {
		t.Fatalf("arm1 pattern = %+v", m.Arms[1].Pattern)
	}
	if _, ok := p1.Fields[0].(core.PVar); !ok {
		t.Errorf("field0 = %+v", p1.Fields[0])
	}
}

func TestLowerMatchTuplePattern(t *testing.T) {
	pat, err := parsePattern("(1, x)")
	if err != nil {
		t.Fatalf("parsePattern: %v", err)
	}
	tup, ok := pat.(core.PTuple)
	if !ok || len(tup.Elems) != 2 {
		t.Fatalf("pattern = %+v", pat)
	}
	if n, ok := tup.Elems[0].(core.PInt); !ok || n.Value != 1 {
		t.Errorf("elem0 = %+v", tup.Elems[0])
	}
	if v, ok := tup.Elems[1].(core.PVar); !ok || v.Name != "x" {
		t.Errorf("elem1 = %+v", tup.Elems[1])
	}
}

func TestLowerMatchUnitAndWildcardPatterns(t *testing.T) {
	unitPat, err := parsePattern("()")
	if err != nil {
		t.Fatalf("parsePattern unit: %v", err)
	}
	if _, ok := unitPat.(core.PUnit); !ok {
		t.Errorf("unit pattern = %+v", unitPat)
	}
	wildPat, err := parsePattern("_")
	if err != nil {
		t.Fatalf("parsePattern wildcard: %v", err)
	}
	v, ok := wildPat.(core.PVar)
	if !ok || v.Name != "_" {
		t.Errorf("wildcard pattern = %+v", wildPat)
	}
}

func TestLowerLetInExpression(t *testing.T) {
	prog := mustLower(t, `fn main() { let x = 1 in x }`)
	let := prog.Root.(*core.Let)
	body := let.Value.(*core.Lam).Body
	inner, ok := body.(*core.Let)
	if !ok || inner.Name != "x" {
		t.Fatalf("body = %+v", body)
	}
}

func TestIsConstructorName(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"Nil", true},
		{"list::Cons", true},
		{"point.X", true},
		{"helper", false},
		{"std::helper", false},
		{"_", false},
	}
	for _, c := range cases {
		if got := isConstructorName(c.name); got != c.want {
			t.Errorf("isConstructorName(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}
