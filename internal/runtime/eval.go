package runtime

import (
	"fmt"

	"github.com/christaylor98/axis-core/internal/ast"
	"github.com/christaylor98/axis-core/internal/core"
	axiserrors "github.com/christaylor98/axis-core/internal/errors"
)

// Eval is a tree-walking reference evaluator over Core IR, used only by
// the `--repl` diagnostic mode (not by the emitted-code execution path,
// which runs compiled target source linked against this package's
// primitives instead). Grounded on
// original_source/core-compiler/src/runtime.rs's eval/apply/
// match_pattern, including one of its limitations carried over
// deliberately: Let evaluates its value against the *unextended*
// environment, so a function bound by Let cannot call itself (or a
// sibling bound later in the same chain) by name from within its own
// body — mutual and self recursion at the Core IR level is a static-
// scoping concept the validator checks, not a dynamic-evaluation
// guarantee this reference evaluator provides. The original's own
// comment marks it "experimental... not active in compiler pipeline",
// and spec.md's invariants govern compiled output, not this tool.

// closure is a Lam captured together with its defining environment —
// the Go counterpart of the original's Value::Closure(env, param, body)
// variant. Eval's result below is either a Value or a *closure; Core IR
// has no way to observe a closure except by applying it, so it never
// needs to round-trip through Value itself.
type closure struct {
	env   Env
	param string
	body  core.Term
}

// Env is a persistent (copy-on-extend) variable environment whose
// entries are either a Value or a *closure.
type Env map[string]any

func EmptyEnv() Env { return Env{} }

func (e Env) extend(name string, v any) Env {
	next := make(Env, len(e)+1)
	for k, val := range e {
		next[k] = val
	}
	next[name] = v
	return next
}

// Eval evaluates term under env, returning a Value or a *closure.
func Eval(term core.Term, env Env) (any, error) {
	switch t := term.(type) {
	case *core.IntLit:
		return Int(t.Value), nil
	case *core.BoolLit:
		return Bool(t.Value), nil
	case *core.UnitLit:
		return Unit(), nil
	case *core.StrLit:
		return Str(InternStr(t.Value)), nil

	case *core.Var:
		bound, ok := env[t.Name]
		if !ok {
			return nil, axiserrors.WrapReport(axiserrors.New(axiserrors.PhaseRuntime, axiserrors.RUN001, "unbound variable: "+t.Name, t.Origin()))
		}
		return bound, nil

	case *core.Lam:
		return &closure{env: env, param: t.Param, body: t.Body}, nil

	case *core.App:
		fn, err := Eval(t.Fn, env)
		if err != nil {
			return nil, err
		}
		arg, err := evalValue(t.Arg, env)
		if err != nil {
			return nil, err
		}
		return apply(fn, arg)

	case *core.Let:
		val, err := Eval(t.Value, env)
		if err != nil {
			return nil, err
		}
		return Eval(t.Body, env.extend(t.Name, val))

	case *core.Tuple:
		elems := make([]Value, len(t.Elems))
		for i, e := range t.Elems {
			v, err := evalValue(e, env)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return Tuple(elems), nil

	case *core.Proj:
		v, err := evalValue(t.Target, env)
		if err != nil {
			return nil, err
		}
		if v.Kind != KindTuple {
			return nil, axiserrors.WrapReport(axiserrors.New(axiserrors.PhaseRuntime, axiserrors.RUN004, "projection on non-tuple", t.Origin()))
		}
		idx := int(t.Index) - 1
		if idx < 0 || idx >= len(v.Elems) {
			msg := fmt.Sprintf("tuple index %d out of bounds", t.Index)
			return nil, axiserrors.WrapReport(axiserrors.New(axiserrors.PhaseRuntime, axiserrors.RUN004, msg, t.Origin()))
		}
		return v.Elems[idx], nil

	case *core.If:
		cond, err := evalValue(t.Cond, env)
		if err != nil {
			return nil, err
		}
		if Truthy(cond) {
			return Eval(t.Then, env)
		}
		return Eval(t.Else, env)

	case *core.Ctor:
		fields := make([]Value, len(t.Fields))
		for i, f := range t.Fields {
			v, err := evalValue(f, env)
			if err != nil {
				return nil, err
			}
			fields[i] = v
		}
		return Ctor(InternTag(t.Tag), fields), nil

	case *core.Match:
		scrutinee, err := evalValue(t.Scrutinee, env)
		if err != nil {
			return nil, err
		}
		for _, arm := range t.Arms {
			if bindings, ok := matchPattern(arm.Pattern, scrutinee); ok {
				armEnv := env
				for name, v := range bindings {
					armEnv = armEnv.extend(name, v)
				}
				return Eval(arm.Body, armEnv)
			}
		}
		return nil, axiserrors.WrapReport(axiserrors.New(axiserrors.PhaseRuntime, axiserrors.RUN002, "non-exhaustive match", t.Origin()))

	default:
		msg := fmt.Sprintf("eval: unsupported term %T", term)
		return nil, axiserrors.WrapReport(axiserrors.New(axiserrors.PhaseRuntime, axiserrors.RUN004, msg, ast.Pos{}))
	}
}

// evalValue evaluates term and requires the result to be a plain Value
// — used everywhere a closure would be nonsensical (tuple elements,
// conditions, scrutinees, constructor fields, application arguments).
func evalValue(term core.Term, env Env) (Value, error) {
	r, err := Eval(term, env)
	if err != nil {
		return Value{}, err
	}
	v, ok := r.(Value)
	if !ok {
		return Value{}, axiserrors.WrapReport(axiserrors.New(axiserrors.PhaseRuntime, axiserrors.RUN004, "expected a value, got a function", ast.Pos{}))
	}
	return v, nil
}

func apply(fn any, arg Value) (any, error) {
	c, ok := fn.(*closure)
	if !ok {
		return nil, axiserrors.WrapReport(axiserrors.New(axiserrors.PhaseRuntime, axiserrors.RUN003, "application of non-function", ast.Pos{}))
	}
	return Eval(c.body, c.env.extend(c.param, arg))
}

// matchPattern attempts to match pat against v, returning the variable
// bindings it introduces on success.
func matchPattern(pat core.Pattern, v Value) (map[string]Value, bool) {
	switch p := pat.(type) {
	case core.PInt:
		if v.Kind == KindInt && v.Int == p.Value {
			return map[string]Value{}, true
		}
		return nil, false
	case core.PBool:
		if v.Kind == KindBool && v.Bool == p.Value {
			return map[string]Value{}, true
		}
		return nil, false
	case core.PUnit:
		if v.Kind == KindUnit {
			return map[string]Value{}, true
		}
		return nil, false
	case core.PVar:
		if p.Name == "_" {
			return map[string]Value{}, true
		}
		return map[string]Value{p.Name: v}, true
	case core.PTuple:
		if v.Kind != KindTuple || len(v.Elems) != len(p.Elems) {
			return nil, false
		}
		bindings := map[string]Value{}
		for i, sub := range p.Elems {
			bs, ok := matchPattern(sub, v.Elems[i])
			if !ok {
				return nil, false
			}
			for k, val := range bs {
				bindings[k] = val
			}
		}
		return bindings, true
	case core.PEnum:
		if v.Kind != KindCtor || GetTagName(v.Tag) != p.Tag || len(v.Fields) != len(p.Fields) {
			return nil, false
		}
		bindings := map[string]Value{}
		for i, sub := range p.Fields {
			bs, ok := matchPattern(sub, v.Fields[i])
			if !ok {
				return nil, false
			}
			for k, val := range bs {
				bindings[k] = val
			}
		}
		return bindings, true
	default:
		return nil, false
	}
}

// RunEntry evaluates prog's top-level Let chain to build its bindings,
// then applies the named entry function to arg.
func RunEntry(prog *core.Program, entry string, arg Value) (Value, error) {
	env, err := bindTopLevel(prog.Root, EmptyEnv())
	if err != nil {
		return Value{}, err
	}
	fn, ok := env[entry]
	if !ok {
		msg := fmt.Sprintf("no top-level function named %q", entry)
		return Value{}, axiserrors.WrapReport(axiserrors.New(axiserrors.PhaseRuntime, axiserrors.RUN004, msg, ast.Pos{}))
	}
	result, err := apply(fn, arg)
	if err != nil {
		return Value{}, err
	}
	v, ok := result.(Value)
	if !ok {
		msg := fmt.Sprintf("%s returned a function, not a value", entry)
		return Value{}, axiserrors.WrapReport(axiserrors.New(axiserrors.PhaseRuntime, axiserrors.RUN004, msg, ast.Pos{}))
	}
	return v, nil
}

// bindTopLevel walks the right-nested top-level Let chain, extending
// env with each binding in turn, and returns the final environment
// (the one in scope at the chain's Unit tail).
func bindTopLevel(term core.Term, env Env) (Env, error) {
	let, ok := term.(*core.Let)
	if !ok {
		return env, nil
	}
	val, err := Eval(let.Value, env)
	if err != nil {
		return nil, err
	}
	return bindTopLevel(let.Body, env.extend(let.Name, val))
}
