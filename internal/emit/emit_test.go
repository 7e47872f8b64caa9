package emit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christaylor98/axis-core/internal/core"
	"github.com/christaylor98/axis-core/internal/lower"
	"github.com/christaylor98/axis-core/internal/parser"
)

func lowerSrc(t *testing.T, src string) *core.Program {
	t.Helper()
	p := parser.New(src, "t.ax")
	mod, err := p.Parse()
	require.NoError(t, err, "parse")
	prog, err := lower.Lower(mod)
	require.NoError(t, err, "lower")
	return prog
}

func TestEmitDeterministic(t *testing.T) {
	prog := lowerSrc(t, `fn main() { __add__(1, 2) }`)
	out1, err := Emit(prog)
	require.NoError(t, err)
	out2, err := Emit(prog)
	require.NoError(t, err)
	assert.Equal(t, out1, out2, "Emit must be deterministic across repeated runs on the same program")
}

func TestEmitMainRenamedToAxisEntry(t *testing.T) {
	prog := lowerSrc(t, `fn main() { 42 }`)
	out, err := Emit(prog)
	require.NoError(t, err)
	assert.Contains(t, out, "pub fn axis_entry(")
	assert.NotContains(t, out, "fn main(", "generated code must not define a host main")
}

func TestEmitUnmappedForeignHardAborts(t *testing.T) {
	prog := lowerSrc(t, `fn main() { totally_unmapped_symbol(1) }`)
	_, err := Emit(prog)
	require.Error(t, err)
	e, ok := err.(*Error)
	require.True(t, ok, "expected *Error, got %T", err)
	assert.Equal(t, "EMT001", e.Code)
}

func TestEmitKnownForeignResolvesToShimPath(t *testing.T) {
	prog := lowerSrc(t, `fn main() { str_len("hi") }`)
	out, err := Emit(prog)
	require.NoError(t, err)
	assert.Contains(t, out, "shim::str_len(")
}

func TestEmitMutualRecursionResolvesBothWaysAsDefinedCalls(t *testing.T) {
	prog := lowerSrc(t, `
fn is_even(n) { if __eq__(n, 0) { true } else { is_odd(__sub__(n, 1)) } }
fn is_odd(n) { if __eq__(n, 0) { false } else { is_even(__sub__(n, 1)) } }
fn main() { is_even(10) }
`)
	out, err := Emit(prog)
	require.NoError(t, err)
	assert.Contains(t, out, "fn is_even(")
	assert.Contains(t, out, "fn is_odd(")
}

func TestEmitTailSelfCallUsesLoopNotRecursion(t *testing.T) {
	prog := lowerSrc(t, `
fn count_down(n) { if __eq__(n, 0) { 0 } else { count_down(__sub__(n, 1)) } }
fn main() { count_down(100000) }
`)
	out, err := Emit(prog)
	require.NoError(t, err)

	idx := indexOf(t, out, "fn count_down(")
	fnText := out[idx:]
	if end := indexOf(t, fnText, "\n\n"); end > 0 {
		fnText = fnText[:end]
	}
	assert.Contains(t, fnText, "loop {")
	assert.Contains(t, fnText, "continue")
	// Skip the signature line, which itself reads "fn count_down(".
	body := fnText[indexOf(t, fnText, "\n")+1:]
	assert.NotContains(t, body, "count_down(", "tail self-call must not remain a real recursive call")
}

func indexOf(t *testing.T, s, substr string) int {
	t.Helper()
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}

func TestEmitMultiArgCallUsesSingleTupleArgument(t *testing.T) {
	prog := lowerSrc(t, `
fn add3(a, b, c) { __add__(__add__(a, b), c) }
fn main() { add3(1, 2, 3) }
`)
	out, err := Emit(prog)
	require.NoError(t, err)
	assert.True(t,
		contains(out, "fn add3(args: Value) -> Value {") || contains(out, "fn add3(mut args: Value) -> Value {"),
		"expected add3 to take a single Value (tuple) argument, got:\n%s", out)
	assert.Contains(t, out, "Value::Tuple(vec![")
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

func TestEmitPatternMatchLiteralGuardAtNestedDepth(t *testing.T) {
	prog := lowerSrc(t, `
fn classify(pair) {
  match pair {
    Pair(0, 0) => 1,
    Pair(_, _) => 0,
  }
}
fn main() { classify(Pair(0, 1)) }
`)
	out, err := Emit(prog)
	require.NoError(t, err)
	assert.Contains(t, out, "== 0", "expected a literal guard for nested 0 sub-patterns")
}

func TestEmitNestedConstructorPatternDeclaresExtractedFields(t *testing.T) {
	prog := lowerSrc(t, `
fn first(pair) {
  match pair {
    Cons(Pair(1, 2), t) => t,
    Cons(_, t) => t,
  }
}
fn main() { first(Cons(Pair(1, 2), Nil)) }
`)
	out, err := Emit(prog)
	require.NoError(t, err)

	require.True(t, indexOf(t, out, "__ctor_fields_") >= 0, "expected a nested constructor extraction temp, got:\n%s", out)
	assert.Contains(t, out, "Value::Ctor { tag, fields } => get_tag_name(tag) ==", "expected a tag guard for the nested constructor shape")
	assert.Contains(t, out, "Value::Ctor { fields, .. } => fields", "nested constructor fields must be extracted via a let binding before use")
}

func TestEmitMatchWithoutWildcardGetsDefaultUnitArm(t *testing.T) {
	prog := lowerSrc(t, `
fn describe(x) {
  match x {
    Some(v) => v,
  }
}
fn main() { describe(Some(1)) }
`)
	out, err := Emit(prog)
	require.NoError(t, err)
	assert.Contains(t, out, "_ => {", "expected a synthesized default arm for a non-exhaustive match")
}

func TestEmitTupleProjectionConvertsOneBasedToZeroBased(t *testing.T) {
	prog := lowerSrc(t, `fn main() { proj((1, 2, 3), 1) }`)
	out, err := Emit(prog)
	require.NoError(t, err)
	assert.Contains(t, out, "Value::Int(0)", "expected 1-based index 1 to convert to 0-based 0")
}

func TestForeignCallsUsedExcludesDefinedFunctions(t *testing.T) {
	prog := lowerSrc(t, `
fn helper(x) { __add__(x, 1) }
fn main() { helper(str_len("hi")) }
`)
	names := ForeignCallsUsed(prog)
	assert.NotContains(t, names, "helper", "helper is a defined function and must not appear in ForeignCallsUsed")
	assert.Contains(t, names, "str_len")
	assert.Contains(t, names, "__add__")
}

func TestMangleReservedWordGetsTrailingUnderscore(t *testing.T) {
	assert.Equal(t, "type_", Mangle("type"))
	assert.Equal(t, "my_module_name", Mangle("my.module-name"))
}

func TestStripNamespaceDropsUpToLastSeparator(t *testing.T) {
	assert.Equal(t, "map", StripNamespace("std::list::map"))
	assert.Equal(t, "plain", StripNamespace("plain"))
}
