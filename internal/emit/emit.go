// Package emit implements the Core→target emitter (C8, spec.md §4.8): a
// tree-walking pass over a validated *core.Program that produces a single
// Rust source file, which cmd/axis-emit's build driver (C10) then links
// against the external runtime shim crate and compiles with `cargo build
// --release` (spec.md §1's "the concrete runtime library the emitted code
// links against" is an out-of-scope collaborator; C9, internal/foreign,
// supplies the shim path for every foreign reference).
//
// Grounded line-by-line on
// original_source/rust-bridge/src/runtime/emit_rust.rs — the actually-
// active 1283-line emitter (the core-compiler's own disabled emitter is
// not the reference) — with two deliberate corrections spec.md §9's Open
// Questions require:
//
//  1. Literal-guard depth fix: lowerPattern threads a *guardAccumulator
//     through every recursive call (tuples and nested enums alike), so a
//     literal sub-pattern at any nesting depth contributes a guard. The
//     original's lower_pattern_recursive only guarded direct (depth-1)
//     fields of an immediate PEnum, leaving nested literal sub-patterns to
//     match too liberally (spec.md §9, third Open Question).
//  2. Consistent function-name canonicalization: definedFunctions is
//     populated and queried using the same (namespace-stripped, then
//     mangled) key on both sides, avoiding the original's latent
//     raw-vs-mangled lookup mismatch (collect_function_names mangles;
//     emit_term_with_module's defined_functions.contains(func_name) does
//     not).
//
// Additionally, fresh counter-suffixed temporaries are used for every
// constructor-field-extraction and nested-pattern binding (the original's
// fixed `__ctor_fields` name risked collisions across sibling arms) — the
// emitter's tempCounter is threaded through one *emitter instance for the
// whole program, not reset per function or per arm.
package emit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/christaylor98/axis-core/internal/ast"
	"github.com/christaylor98/axis-core/internal/core"
	axiserrors "github.com/christaylor98/axis-core/internal/errors"
	"github.com/christaylor98/axis-core/internal/foreign"
)

// Error is an emission failure (spec.md §7's "Emission error" kind):
// currently only the hard-abort case, an unmapped foreign symbol
// (spec.md §4.8.3 step 3 / §9's EMT001). Report/Unwrap expose it through
// the shared internal/errors taxonomy (SPEC_FULL.md §2.1/§7) without
// changing Code/Message/Span, which spec.md fixes by name.
type Error struct {
	Code    string
	Message string
	Span    ast.Pos
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

// Report converts e to the shared axiserrors.Report shape.
func (e *Error) Report() *axiserrors.Report {
	return axiserrors.New(axiserrors.PhaseEmit, e.Code, e.Message, e.Span)
}

// Unwrap exposes e.Report() to errors.As, per SPEC_FULL.md §2.1's
// ReportError/errors.As requirement.
func (e *Error) Unwrap() error {
	return axiserrors.WrapReport(e.Report())
}

const entrypointRustName = "axis_entry"

// reserved is the exact host-reserved-word table of spec.md §4.8.2.
var reserved = map[string]bool{
	"type": true, "match": true, "fn": true, "let": true, "if": true,
	"else": true, "loop": true, "for": true, "while": true, "break": true,
	"continue": true, "return": true, "mod": true, "pub": true, "use": true,
	"struct": true, "enum": true, "impl": true, "trait": true, "where": true,
	"const": true, "static": true, "mut": true, "ref": true, "move": true,
	"box": true, "as": true, "in": true, "unsafe": true, "extern": true,
	"crate": true, "super": true, "self": true, "Self": true, "core": true,
}

// StripNamespace drops any prefix up to and including the last "::"
// (spec.md §4.8.2: "Before mangling, any prefix up to and including the
// last :: is dropped").
func StripNamespace(name string) string {
	if i := strings.LastIndex(name, "::"); i >= 0 {
		return name[i+2:]
	}
	return name
}

// Mangle turns a Core-IR identifier into a host-safe Rust identifier:
// "." and "-" become "_", then reserved words get a trailing underscore
// (spec.md §4.8.2). Callers that also need namespace stripping must call
// StripNamespace first — the two steps are independent and composed at
// every call site per spec.md's described order.
func Mangle(name string) string {
	s := strings.ReplaceAll(name, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	if reserved[s] {
		return s + "_"
	}
	return s
}

// canonicalFn applies StripNamespace then Mangle then the main->axis_entry
// rewrite — the single canonicalization used both when populating and
// when querying definedFunctions (the consistency fix of the package doc).
func canonicalFn(name string) string {
	m := Mangle(StripNamespace(name))
	if m == "main" {
		return entrypointRustName
	}
	return m
}

// emitter carries the state threaded through one whole-program emission:
// the set of top-level function names (pass 1's output, consulted by
// pass 2's call resolution) and a monotonic temp counter so pattern-
// lowering temporaries never collide across sibling match arms.
type emitter struct {
	definedFunctions map[string]bool
	tempCounter      int
}

// Emit lowers prog (assumed already validated by internal/validate) into
// a single Rust source file. Determinism of emission (spec.md §8.1) falls
// out of walking the top-level Let chain in source order and never
// consulting anything but prog and internal/foreign's static table.
func Emit(prog *core.Program) (string, error) {
	e := &emitter{definedFunctions: make(map[string]bool)}
	e.collectFunctionNames(prog.Root)

	var out strings.Builder
	out.WriteString("use axis_rust_bridge::runtime::*;\n\n")
	out.WriteString("// Generated function definitions\n")

	emitted := make(map[string]bool)
	if err := e.emitTopLevelLets(prog.Root, &out, emitted); err != nil {
		return "", err
	}
	return out.String(), nil
}

// collectFunctionNames implements spec.md §4.8 Pass 1: walk the
// top-level Let chain once, recording every canonicalized binder name
// before any body is emitted, so Pass 2's call resolution can always
// tell a Core-defined function from a foreign one regardless of
// declaration order (mutual recursion, per spec.md §4.5/§9).
func (e *emitter) collectFunctionNames(term core.Term) {
	for {
		let, ok := term.(*core.Let)
		if !ok {
			return
		}
		e.definedFunctions[canonicalFn(let.Name)] = true
		term = let.Body
	}
}

// collectParams strips nested Lams off value to recover the parameter
// list and the innermost body (spec.md §4.8 Pass 2).
func collectParams(value core.Term) ([]string, core.Term) {
	var params []string
	cur := value
	for {
		lam, ok := cur.(*core.Lam)
		if !ok {
			return params, cur
		}
		params = append(params, lam.Param)
		cur = lam.Body
	}
}

// emitTopLevelLets walks the top-level Let chain, emitting one Rust
// function per binder (spec.md §4.8 Pass 2, §4.8.1 unary calling
// convention, §4.8.7 tail-call rewriting).
func (e *emitter) emitTopLevelLets(term core.Term, out *strings.Builder, emitted map[string]bool) error {
	for {
		let, ok := term.(*core.Let)
		if !ok {
			return nil
		}

		mangled := canonicalFn(let.Name)
		params, body := collectParams(let.Value)

		if emitted[mangled] {
			term = let.Body
			continue
		}
		emitted[mangled] = true

		isTail := containsTailSelfCall(body, mangled)
		sanitizedParams := make([]string, len(params))
		for i, p := range params {
			sanitizedParams[i] = Mangle(p)
		}

		pubPrefix := ""
		if mangled == entrypointRustName {
			pubPrefix = "pub "
		}

		switch len(params) {
		case 0:
			fmt.Fprintf(out, "%sfn %s() -> Value {\n", pubPrefix, mangled)
		case 1:
			if isTail {
				fmt.Fprintf(out, "%sfn %s(mut %s: Value) -> Value {\n    loop {\n", pubPrefix, mangled, sanitizedParams[0])
			} else {
				fmt.Fprintf(out, "%sfn %s(%s: Value) -> Value {\n", pubPrefix, mangled, sanitizedParams[0])
			}
		default:
			if isTail {
				fmt.Fprintf(out, "%sfn %s(mut args: Value) -> Value {\n    loop {\n", pubPrefix, mangled)
				for i, p := range sanitizedParams {
					fmt.Fprintf(out, "        let mut %s = shim::tuple_field(Value::Tuple(vec![args.clone(), Value::Int(%d)]));\n", p, i)
				}
			} else {
				fmt.Fprintf(out, "%sfn %s(args: Value) -> Value {\n", pubPrefix, mangled)
				for i, p := range sanitizedParams {
					fmt.Fprintf(out, "    let %s = shim::tuple_field(Value::Tuple(vec![args.clone(), Value::Int(%d)]));\n", p, i)
				}
			}
		}

		var tailCtx *tailContext
		baseIndent := 1
		if isTail {
			baseIndent = 2
			tailCtx = &tailContext{fnName: mangled, params: sanitizedParams}
		}

		bodyCode, err := e.emitTerm(body, baseIndent, tailCtx)
		if err != nil {
			return err
		}

		indentStr := strings.Repeat("    ", baseIndent)
		for _, line := range strings.Split(bodyCode, "\n") {
			out.WriteString(indentStr)
			out.WriteString(line)
			out.WriteString("\n")
		}

		if isTail {
			out.WriteString("    }\n")
		}
		out.WriteString("}\n\n")

		term = let.Body
	}
}

// tailContext carries the enclosing function's canonical name and
// mangled parameter list so App emission can recognize a tail self-call
// and rewrite it to reassignment+continue (spec.md §4.8.7).
type tailContext struct {
	fnName string
	params []string
}

// containsTailSelfCall reports whether body contains, in tail position,
// an App whose ultimate function (after uncurrying) is fnName — spec.md
// §4.8.7's structural tail-position definition: If then/else, Let body
// (not value), Match arm bodies.
func containsTailSelfCall(term core.Term, fnName string) bool {
	switch t := term.(type) {
	case *core.App:
		base, _ := collectAppArgs(t)
		v, ok := base.(*core.Var)
		return ok && canonicalFn(v.Name) == fnName
	case *core.If:
		return containsTailSelfCall(t.Then, fnName) || containsTailSelfCall(t.Else, fnName)
	case *core.Let:
		return containsTailSelfCall(t.Body, fnName)
	case *core.Match:
		for _, arm := range t.Arms {
			if containsTailSelfCall(arm.Body, fnName) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// collectAppArgs flattens a left-nested chain of Apps — App(App(App(f,
// a1), a2), a3) — into (f, [a1, a2, a3]) for uncurrying (spec.md §4.8.1).
func collectAppArgs(term core.Term) (core.Term, []core.Term) {
	var args []core.Term
	cur := term
	for {
		app, ok := cur.(*core.App)
		if !ok {
			break
		}
		args = append(args, app.Arg)
		cur = app.Fn
	}
	// args were collected right-to-left; reverse.
	for i, j := 0, len(args)-1; i < j; i, j = i+1, j-1 {
		args[i], args[j] = args[j], args[i]
	}
	return cur, args
}

// needsClone reports whether emitting term's Rust expression requires a
// trailing .clone() under the emitter's "clone everywhere except
// literals" policy (spec.md §4.8.4).
func needsClone(term core.Term) bool {
	switch term.(type) {
	case *core.IntLit, *core.BoolLit, *core.UnitLit, *core.StrLit:
		return false
	default:
		return true
	}
}

func escapeRustString(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString("\\\\")
		case '"':
			b.WriteString("\\\"")
		case '\n':
			b.WriteString("\\n")
		case '\t':
			b.WriteString("\\t")
		case '\r':
			b.WriteString("\\r")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// emitTerm is the core recursive emission function (spec.md §4.8.4–
// §4.8.7). indent tracks the current Rust block-nesting depth purely for
// readability of the generated source; tailCtx is non-nil only while
// emitting the body of a detected tail-recursive function.
func (e *emitter) emitTerm(term core.Term, indent int, tailCtx *tailContext) (string, error) {
	switch t := term.(type) {
	case *core.IntLit:
		return fmt.Sprintf("Value::Int(%d)", t.Value), nil
	case *core.BoolLit:
		return fmt.Sprintf("Value::Bool(%t)", t.Value), nil
	case *core.UnitLit:
		return "Value::Unit", nil
	case *core.StrLit:
		return fmt.Sprintf("Value::Str(intern_str(\"%s\"))", escapeRustString(t.Value)), nil

	case *core.Var:
		return e.emitVar(t)

	case *core.Ctor:
		return e.emitCtor(t, indent)

	case *core.Lam:
		bodyCode, err := e.emitTerm(t.Body, indent+1, nil)
		if err != nil {
			return "", err
		}
		param := Mangle(t.Param)
		return fmt.Sprintf("Box::new(move |%s: Value| -> Value { %s }) as Box<dyn Fn(Value) -> Value>", param, bodyCode), nil

	case *core.App:
		return e.emitApp(t, indent, tailCtx)

	case *core.Let:
		return e.emitLet(t, indent, tailCtx)

	case *core.Tuple:
		elemCodes := make([]string, len(t.Elems))
		for i, elem := range t.Elems {
			code, err := e.emitTerm(elem, indent, nil)
			if err != nil {
				return "", err
			}
			if needsClone(elem) {
				code += ".clone()"
			}
			elemCodes[i] = code
		}
		return fmt.Sprintf("Value::Tuple(vec![%s])", strings.Join(elemCodes, ", ")), nil

	case *core.Proj:
		code, err := e.emitTerm(t.Target, indent, nil)
		if err != nil {
			return "", err
		}
		if needsClone(t.Target) {
			code += ".clone()"
		}
		// Proj is 1-based at the IR level; the emitter converts to
		// 0-based (spec.md §3.1 invariant, §4.8.5).
		zeroBased := t.Index - 1
		return fmt.Sprintf("shim::tuple_field(Value::Tuple(vec![%s, Value::Int(%d)]))", code, zeroBased), nil

	case *core.If:
		return e.emitIf(t, indent, tailCtx)

	case *core.Match:
		return e.emitMatch(t, indent, tailCtx)
	}
	return "", fmt.Errorf("emit: unsupported term type %T", term)
}

// fieldAliasMap drives a Var rewrite in emitVar, separate from the
// `_term`→`_body` alias emitLet adds: a Var ending in "_pattern" or
// "_body" whose base is a single lowercase letter (the Cons(c, rest)-style
// binder a match-arm destructure introduces) is rewritten to a field
// projection on MatchCase-shaped Ctor values (pattern at index 0, body at
// index 1).
var fieldAliasMap = []struct {
	suffix string
	index  int
}{
	{"_pattern", 0},
	{"_body", 1},
}

func (e *emitter) emitVar(t *core.Var) (string, error) {
	stripped := StripNamespace(t.Name)
	if stripped == "true" {
		return "Value::Bool(true)", nil
	}
	if stripped == "false" {
		return "Value::Bool(false)", nil
	}

	for _, fa := range fieldAliasMap {
		if strings.HasSuffix(stripped, fa.suffix) {
			base := stripped[:len(stripped)-len(fa.suffix)]
			if len(base) == 1 && base[0] >= 'a' && base[0] <= 'z' {
				baseMangled := Mangle(base)
				return fmt.Sprintf(
					"match &%s { Value::Ctor { fields, .. } => fields[%d].clone(), _ => panic!(\"Field access on non-ctor\") }",
					baseMangled, fa.index,
				), nil
			}
		}
	}

	mangled := Mangle(stripped)
	if len(mangled) > 0 && mangled[0] >= 'A' && mangled[0] <= 'Z' {
		// Capitalized final segment: a zero-arg constructor reference
		// (spec.md §4.8.4).
		return fmt.Sprintf("%s()", mangled), nil
	}
	if mangled == "_" {
		// Wildcard on the value side collapses to Unit (spec.md §4.8.4).
		return "Value::Unit", nil
	}
	return mangled + ".clone()", nil
}

func (e *emitter) emitCtor(t *core.Ctor, indent int) (string, error) {
	tag := StripNamespace(t.Tag)
	fieldCodes := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		code, err := e.emitTerm(f, indent, nil)
		if err != nil {
			return "", err
		}
		fieldCodes[i] = code
	}
	fields := "vec![]"
	if len(fieldCodes) > 0 {
		fields = fmt.Sprintf("vec![%s]", strings.Join(fieldCodes, ", "))
	}
	return fmt.Sprintf("Value::Ctor { tag: intern_tag(\"%s\"), fields: %s }", tag, fields), nil
}

func (e *emitter) emitApp(t *core.App, indent int, tailCtx *tailContext) (string, error) {
	baseFunc, allArgs := collectAppArgs(t)

	// Tail self-call: parameter reassignment + continue (spec.md §4.8.7).
	if tailCtx != nil {
		if v, ok := baseFunc.(*core.Var); ok && canonicalFn(v.Name) == tailCtx.fnName {
			return e.emitTailSelfCall(allArgs, indent, tailCtx)
		}
	}

	// Constructor application: lowering curries `Ctor(a1, ..., an)` into an
	// App chain headed by a capitalized Var; it is re-collected here into a
	// single Ctor node.
	if v, ok := baseFunc.(*core.Var); ok {
		if m := Mangle(StripNamespace(v.Name)); len(m) > 0 && m[0] >= 'A' && m[0] <= 'Z' {
			return e.emitCtor(core.MkCtor(v.Span(), v.Name, allArgs), indent)
		}
	}

	// __ctor_field__(tmp, i) special case (spec.md §4.8.3): stays as
	// constructor-field access only when the first argument is a
	// lowering temporary (name begins with "_tmp_"); otherwise it's
	// rewritten to tuple-projection.
	if v, ok := baseFunc.(*core.Var); ok && len(allArgs) == 2 {
		if StripNamespace(v.Name) == "__ctor_field__" {
			if idxLit, ok := allArgs[1].(*core.IntLit); ok {
				isTmp := false
				if firstVar, ok := allArgs[0].(*core.Var); ok {
					isTmp = strings.HasPrefix(firstVar.Name, "_tmp_")
				}
				if !isTmp {
					tupleCode, err := e.emitTerm(allArgs[0], indent, nil)
					if err != nil {
						return "", err
					}
					if needsClone(allArgs[0]) {
						tupleCode += ".clone()"
					}
					return fmt.Sprintf("shim::tuple_field(Value::Tuple(vec![%s, Value::Int(%d)]))", tupleCode, idxLit.Value), nil
				}
			}
		}
	}

	if len(allArgs) > 1 {
		return e.emitMultiArgCall(baseFunc, allArgs, indent)
	}
	return e.emitSingleArgCall(t.Fn, t.Arg, indent)
}

func (e *emitter) emitTailSelfCall(allArgs []core.Term, indent int, tailCtx *tailContext) (string, error) {
	indentStr := strings.Repeat("    ", indent)
	var b strings.Builder

	argCodes := make([]string, len(allArgs))
	for i, a := range allArgs {
		code, err := e.emitTerm(a, indent, nil)
		if err != nil {
			return "", err
		}
		if needsClone(a) {
			code += ".clone()"
		}
		argCodes[i] = code
	}

	if len(allArgs) > 1 {
		fmt.Fprintf(&b, "%sargs = Value::Tuple(vec![%s]);\n", indentStr, strings.Join(argCodes, ", "))
		for i, p := range tailCtx.params {
			fmt.Fprintf(&b, "%s%s = shim::tuple_field(Value::Tuple(vec![args.clone(), Value::Int(%d)]));\n", indentStr, p, i)
		}
	} else if len(allArgs) == 1 {
		fmt.Fprintf(&b, "%s%s = %s;\n", indentStr, tailCtx.params[0], argCodes[0])
	}
	fmt.Fprintf(&b, "%scontinue", indentStr)
	return b.String(), nil
}

// resolveCall implements spec.md §4.8.3's strict three-way call
// resolution: a defined function wins over any foreign-map fallback
// (fixing the original's raw-vs-mangled lookup mismatch — both sides of
// this check now go through canonicalFn), else the foreign map, else a
// hard abort — never a synthesized stub.
func (e *emitter) resolveCall(funcName string, span ast.Pos) (rustCallee string, err error) {
	canonical := canonicalFn(funcName)
	if e.definedFunctions[canonical] {
		return canonical, nil
	}
	stripped := StripNamespace(funcName)
	if shim, ok := foreign.Lookup(stripped); ok {
		return shim, nil
	}
	return "", &Error{Code: "EMT001", Message: fmt.Sprintf("Foreign symbol '%s' is not mapped", funcName), Span: span}
}

func (e *emitter) emitMultiArgCall(baseFunc core.Term, allArgs []core.Term, indent int) (string, error) {
	v, ok := baseFunc.(*core.Var)
	if !ok {
		// Non-variable function in head position with >1 uncurried arg:
		// emit curried application directly (rare; App nodes built by
		// lowering always have a Var head for multi-arg surface calls).
		return e.emitCurried(baseFunc, allArgs, indent)
	}
	callee, err := e.resolveCall(v.Name, v.Span())
	if err != nil {
		return "", err
	}
	argCodes := make([]string, len(allArgs))
	for i, a := range allArgs {
		code, cerr := e.emitTerm(a, indent, nil)
		if cerr != nil {
			return "", cerr
		}
		if needsClone(a) {
			code += ".clone()"
		}
		argCodes[i] = code
	}
	return fmt.Sprintf("%s(Value::Tuple(vec![%s]))", callee, strings.Join(argCodes, ", ")), nil
}

func (e *emitter) emitSingleArgCall(funcTerm, argTerm core.Term, indent int) (string, error) {
	if v, ok := funcTerm.(*core.Var); ok {
		callee, err := e.resolveCall(v.Name, v.Span())
		if err != nil {
			return "", err
		}
		argCode, err := e.emitTerm(argTerm, indent, nil)
		if err != nil {
			return "", err
		}
		if needsClone(argTerm) {
			argCode += ".clone()"
		}
		return fmt.Sprintf("%s(%s)", callee, argCode), nil
	}
	return e.emitCurried(funcTerm, []core.Term{argTerm}, indent)
}

// emitCurried emits plain Rust function-value application, `(f)(a)`,
// used only when the function position is not a bare Var (e.g. an
// immediately-applied Lam or another App's result).
func (e *emitter) emitCurried(funcTerm core.Term, args []core.Term, indent int) (string, error) {
	funcCode, err := e.emitTerm(funcTerm, indent, nil)
	if err != nil {
		return "", err
	}
	for _, a := range args {
		argCode, aerr := e.emitTerm(a, indent, nil)
		if aerr != nil {
			return "", aerr
		}
		if needsClone(a) {
			argCode += ".clone()"
		}
		funcCode = fmt.Sprintf("(%s)(%s)", funcCode, argCode)
	}
	return funcCode, nil
}

func (e *emitter) emitLet(t *core.Let, indent int, tailCtx *tailContext) (string, error) {
	varName := Mangle(t.Name)
	valueCode, err := e.emitTerm(t.Value, indent+1, nil)
	if err != nil {
		return "", err
	}
	bodyCode, err := e.emitTerm(t.Body, indent+1, tailCtx)
	if err != nil {
		return "", err
	}

	indentStr := strings.Repeat("    ", indent)
	innerIndent := strings.Repeat("    ", indent+1)

	var block strings.Builder
	block.WriteString("{\n")
	fmt.Fprintf(&block, "%slet %s = %s;\n", innerIndent, varName, valueCode)

	// `_body` alias compensation for a `_term`-suffixed binder (spec.md
	// §4.8.5/§9's second Open Question), implemented narrowly: only the
	// alias itself, none of the original's dead ten-way projection loop.
	if strings.HasSuffix(varName, "_term") {
		base := varName[:len(varName)-len("_term")]
		fmt.Fprintf(&block, "%slet %s_body = %s.clone();\n", innerIndent, base, varName)
	}

	for _, line := range strings.Split(bodyCode, "\n") {
		block.WriteString(innerIndent)
		block.WriteString(line)
		block.WriteString("\n")
	}
	block.WriteString(indentStr)
	block.WriteString("}")
	return block.String(), nil
}

func (e *emitter) emitIf(t *core.If, indent int, tailCtx *tailContext) (string, error) {
	condCode, err := e.emitTerm(t.Cond, indent, nil)
	if err != nil {
		return "", err
	}
	thenCode, err := e.emitTerm(t.Then, indent, tailCtx)
	if err != nil {
		return "", err
	}
	elseCode, err := e.emitTerm(t.Else, indent, tailCtx)
	if err != nil {
		return "", err
	}

	if tailCtx != nil {
		if !strings.Contains(thenCode, "continue") {
			thenCode = "return " + thenCode
		}
		if !strings.Contains(elseCode, "continue") {
			elseCode = "return " + elseCode
		}
	}
	return fmt.Sprintf("if truthy(&(%s)) { %s } else { %s }", condCode, thenCode, elseCode), nil
}

func (e *emitter) emitMatch(t *core.Match, indent int, tailCtx *tailContext) (string, error) {
	scrCode, err := e.emitTerm(t.Scrutinee, indent+1, nil)
	if err != nil {
		return "", err
	}
	scrVar := "scr"

	var armStrs []string
	hasCatchAll := false

	for _, arm := range t.Arms {
		if pv, ok := arm.Pattern.(core.PVar); ok && pv.Name == "_" {
			hasCatchAll = true
		}

		armPat, bindings := e.lowerPattern(arm.Pattern, scrVar, newGuardAccumulator())
		armBody, berr := e.emitTerm(arm.Body, indent+2, tailCtx)
		if berr != nil {
			return "", berr
		}
		if tailCtx != nil && !strings.Contains(armBody, "continue") {
			armBody = "return " + armBody
		}

		var armBlock strings.Builder
		fmt.Fprintf(&armBlock, "%s => {\n", armPat)
		for _, b := range bindings {
			fmt.Fprintf(&armBlock, "    %s\n", b)
		}
		for _, line := range strings.Split(armBody, "\n") {
			fmt.Fprintf(&armBlock, "    %s\n", line)
		}
		armBlock.WriteString("}")
		armStrs = append(armStrs, armBlock.String())
	}

	if !hasCatchAll {
		defaultVal := "Value::Unit"
		if tailCtx != nil {
			defaultVal = "return Value::Unit"
		}
		armStrs = append(armStrs, fmt.Sprintf("_ => { %s }", defaultVal))
	}

	var full strings.Builder
	full.WriteString("{\n")
	fmt.Fprintf(&full, "let %s = %s;\n", scrVar, scrCode)
	fmt.Fprintf(&full, "match %s {\n", scrVar)
	for _, a := range armStrs {
		fmt.Fprintf(&full, "    %s,\n", a)
	}
	full.WriteString("}\n}")
	return full.String(), nil
}

// guardAccumulator collects extra boolean guard expressions threaded
// through recursive pattern lowering, so a literal sub-pattern at ANY
// nesting depth contributes a match-arm guard — the fix to spec.md §9's
// third Open Question (the original only guarded direct PEnum fields).
type guardAccumulator struct {
	guards []string
}

func newGuardAccumulator() *guardAccumulator { return &guardAccumulator{} }

func (g *guardAccumulator) add(expr string) { g.guards = append(g.guards, expr) }

func (g *guardAccumulator) join() string {
	if len(g.guards) == 0 {
		return ""
	}
	return " && " + strings.Join(g.guards, " && ")
}

// lowerPattern recursively lowers pat against the Rust expression
// scrutineeExpr, returning the top-level match-arm pattern string (with
// any accumulated guards appended) and the list of `let` binding
// statements the arm body needs. temp names are drawn from e.tempCounter
// so sibling arms and nested patterns never collide (spec.md §9's fourth
// correction, noted in the package doc).
func (e *emitter) lowerPattern(pat core.Pattern, scrutineeExpr string, acc *guardAccumulator) (string, []string) {
	switch p := pat.(type) {
	case core.PInt:
		return fmt.Sprintf("Value::Int(x) if *x == %d", p.Value), nil
	case core.PBool:
		return fmt.Sprintf("Value::Bool(x) if *x == %t", p.Value), nil
	case core.PUnit:
		return "Value::Unit", nil

	case core.PVar:
		if p.Name == "_" {
			return "_", nil
		}
		bname := Mangle(p.Name)
		if len(bname) > 0 && bname[0] >= 'A' && bname[0] <= 'Z' {
			// Capitalized name: a 0-arity constructor reference used as
			// a pattern guard, not a binding.
			return "_", nil
		}
		return "_", []string{fmt.Sprintf("let %s = %s.clone();", bname, scrutineeExpr)}

	case core.PTuple:
		e.tempCounter++
		vecIdent := fmt.Sprintf("__tuple_fields_%d", e.tempCounter)
		var bindings []string
		for i, sub := range p.Elems {
			fieldExpr := fmt.Sprintf("%s[%d]", vecIdent, i)
			bindings = append(bindings, e.lowerNestedPattern(sub, fieldExpr, acc)...)
		}
		patStr := fmt.Sprintf("Value::Tuple(%s) if %s.len() == %d%s", vecIdent, vecIdent, len(p.Elems), acc.join())
		return patStr, bindings

	case core.PEnum:
		return e.lowerPEnum(p, scrutineeExpr, acc)
	}
	return "_", nil
}

// lowerNestedPattern lowers sub, found at fieldExpr inside an enclosing
// tuple or constructor pattern, into the `let` bindings its variables
// need, threading any guard condition into acc. Unlike lowerPattern's
// top-level contract, a nested position has no match-arm pattern slot of
// its own — fieldExpr is a Vec<Value> indexing expression, not the thing
// the enclosing `match` dispatches on — so a nested PTuple/PEnum
// sub-pattern cannot reuse Rust's own destructuring the way the top-level
// arm pattern does. Instead it is captured via an explicit extraction
// `let` plus a shape guard, ported from original_source/rust-bridge/src/
// runtime/emit_rust.rs's `let __tmp_N = ...; let __fields_M = match
// &__tmp_N {...};` prologue, before recursing into the extracted fields.
func (e *emitter) lowerNestedPattern(sub core.Pattern, fieldExpr string, acc *guardAccumulator) []string {
	e.lowerLiteralGuard(sub, fieldExpr, acc)

	switch sp := sub.(type) {
	case core.PInt, core.PBool, core.PUnit:
		return nil

	case core.PVar:
		if sp.Name == "_" {
			return nil
		}
		bname := Mangle(sp.Name)
		if len(bname) > 0 && bname[0] >= 'A' && bname[0] <= 'Z' {
			return nil
		}
		return []string{fmt.Sprintf("let %s = %s.clone();", bname, fieldExpr)}

	case core.PTuple:
		e.tempCounter++
		vecIdent := fmt.Sprintf("__tuple_fields_%d", e.tempCounter)
		acc.add(fmt.Sprintf("(match %s.clone() { Value::Tuple(v) => v.len() == %d, _ => false })", fieldExpr, len(sp.Elems)))
		bindings := []string{fmt.Sprintf(
			"let %s = match %s.clone() { Value::Tuple(v) => v, _ => Vec::new() };",
			vecIdent, fieldExpr,
		)}
		for i, elem := range sp.Elems {
			bindings = append(bindings, e.lowerNestedPattern(elem, fmt.Sprintf("%s[%d]", vecIdent, i), acc)...)
		}
		return bindings

	case core.PEnum:
		strippedTag := StripNamespace(sp.Tag)
		e.tempCounter++
		fieldsIdent := fmt.Sprintf("__ctor_fields_%d", e.tempCounter)
		acc.add(fmt.Sprintf(
			"(match %s.clone() { Value::Ctor { tag, fields } => get_tag_name(tag) == \"%s\" && fields.len() == %d, _ => false })",
			fieldExpr, strippedTag, len(sp.Fields),
		))
		bindings := []string{fmt.Sprintf(
			"let %s = match %s.clone() { Value::Ctor { fields, .. } => fields, _ => Vec::new() };",
			fieldsIdent, fieldExpr,
		)}
		for i, field := range sp.Fields {
			bindings = append(bindings, e.lowerNestedPattern(field, fmt.Sprintf("%s[%d]", fieldsIdent, i), acc)...)
		}
		return bindings
	}
	return nil
}

// lowerLiteralGuard contributes a guard for sub if it is itself a
// literal pattern (PInt/PBool/PUnit) living at fieldExpr, regardless of
// how deep the enclosing constructor/tuple nesting is — this is the
// guard-threading fix itself: every recursive call site passes the same
// acc down, so a literal three levels deep still registers here.
func (e *emitter) lowerLiteralGuard(sub core.Pattern, fieldExpr string, acc *guardAccumulator) {
	switch s := sub.(type) {
	case core.PInt:
		acc.add(fmt.Sprintf("(match &%s { Value::Int(x) => *x == %d, _ => false })", fieldExpr, s.Value))
	case core.PBool:
		acc.add(fmt.Sprintf("(match &%s { Value::Bool(x) => *x == %t, _ => false })", fieldExpr, s.Value))
	case core.PUnit:
		acc.add(fmt.Sprintf("(match &%s { Value::Unit => true, _ => false })", fieldExpr))
	}
}

func (e *emitter) lowerPEnum(p core.PEnum, scrutineeExpr string, acc *guardAccumulator) (string, []string) {
	strippedTag := StripNamespace(p.Tag)
	e.tempCounter++
	fieldsIdent := fmt.Sprintf("__ctor_fields_%d", e.tempCounter)

	if len(p.Fields) == 0 {
		patStr := fmt.Sprintf(
			"Value::Ctor { tag, fields: %s } if get_tag_name(tag) == \"%s\" && %s.is_empty()%s",
			fieldsIdent, strippedTag, fieldsIdent, acc.join(),
		)
		return patStr, nil
	}

	var bindings []string
	for i, sub := range p.Fields {
		fieldExpr := fmt.Sprintf("%s[%d]", fieldsIdent, i)
		bindings = append(bindings, e.lowerNestedPattern(sub, fieldExpr, acc)...)
	}

	patStr := fmt.Sprintf(
		"Value::Ctor { tag, fields: %s } if get_tag_name(tag) == \"%s\"%s",
		fieldsIdent, strippedTag, acc.join(),
	)
	return patStr, bindings
}

// ForeignCallsUsed walks term collecting the canonical names of every
// foreign (non-defined-function) symbol it would call, for diagnostics.
// No command in this repository calls it. It never errors — any
// unmapped symbol is already reported by Emit itself.
func ForeignCallsUsed(prog *core.Program) []string {
	e := &emitter{definedFunctions: make(map[string]bool)}
	e.collectFunctionNames(prog.Root)
	used := make(map[string]bool)
	collectForeignRefs(prog.Root, e.definedFunctions, used)
	names := make([]string, 0, len(used))
	for n := range used {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func collectForeignRefs(term core.Term, defined, used map[string]bool) {
	switch t := term.(type) {
	case *core.App:
		base, _ := collectAppArgs(t)
		if v, ok := base.(*core.Var); ok {
			canon := canonicalFn(v.Name)
			if !defined[canon] {
				used[StripNamespace(v.Name)] = true
			}
		}
		collectForeignRefs(t.Fn, defined, used)
		collectForeignRefs(t.Arg, defined, used)
	case *core.Lam:
		collectForeignRefs(t.Body, defined, used)
	case *core.Let:
		collectForeignRefs(t.Value, defined, used)
		collectForeignRefs(t.Body, defined, used)
	case *core.If:
		collectForeignRefs(t.Cond, defined, used)
		collectForeignRefs(t.Then, defined, used)
		collectForeignRefs(t.Else, defined, used)
	case *core.Tuple:
		for _, el := range t.Elems {
			collectForeignRefs(el, defined, used)
		}
	case *core.Proj:
		collectForeignRefs(t.Target, defined, used)
	case *core.Ctor:
		for _, f := range t.Fields {
			collectForeignRefs(f, defined, used)
		}
	case *core.Match:
		collectForeignRefs(t.Scrutinee, defined, used)
		for _, arm := range t.Arms {
			collectForeignRefs(arm.Body, defined, used)
		}
	}
}
