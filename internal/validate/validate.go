// Package validate implements Core IR validation (C5, spec.md §4.5): the
// two deterministic guarantees a bundle must satisfy before it can be
// serialized — every Var resolves to a binder or a known registry/builtin
// name (C1), and every App's function position can statically denote a
// function (C2).
//
// Grounded on original_source/core-compiler/src/core_validator.rs, with
// one collapse and one extension relative to it: the original's
// validate_term/validate_term_no_arity split is collapsed into a single
// recursive pass, since spec.md §4.5 states arity is never checked at
// application and the two functions are behaviorally identical once that
// check is absent; and Match arm bodies are now visited (with pattern
// variables bound) rather than skipped, per spec.md §4.9's "validator
// visits children left-to-right" ordering guarantee, which the original's
// own comment ("we don't validate match patterns... for simplicity")
// acknowledges as incomplete.
package validate

import (
	"fmt"

	"github.com/christaylor98/axis-core/internal/ast"
	"github.com/christaylor98/axis-core/internal/core"
	axiserrors "github.com/christaylor98/axis-core/internal/errors"
	"github.com/christaylor98/axis-core/internal/registry"
)

// Error is a validation failure: a spec.md §4.5 error code plus an
// optional source span. Code/Message/Span are spec.md's wire contract
// (its exact-string E_UNBOUND_VAR/E_APPLY_NON_FUNCTION testable
// properties); Report/Unwrap additionally expose it through the shared
// internal/errors taxonomy (SPEC_FULL.md §2.1/§7), so a caller can
// recover the phase-tagged *errors.Report via errors.As without the
// local type changing shape.
type Error struct {
	Code    string
	Message string
	Span    ast.Pos
}

func (e *Error) Error() string {
	if e.Span == (ast.Pos{}) {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s\n  at %s:%d:%d", e.Code, e.Message, e.Span.File, e.Span.Line, e.Span.Column)
}

// Report converts e to the shared axiserrors.Report shape.
func (e *Error) Report() *axiserrors.Report {
	return axiserrors.New(axiserrors.PhaseValidate, e.Code, e.Message, e.Span)
}

// Unwrap exposes e.Report() to errors.As, per SPEC_FULL.md §2.1's
// ReportError/errors.As requirement.
func (e *Error) Unwrap() error {
	return axiserrors.WrapReport(e.Report())
}

// varInfo classifies a bound name by the shape of its defining RHS, so
// C2 can decide whether a Var in function position can possibly denote a
// function without re-deriving the whole binding chain at every App.
type varInfo int

const (
	varUnknown varInfo = iota
	varLambda
	varNonLambda
)

// Validate checks term against the C1/C2 invariants, consulting reg for
// builtin/foreign classification.
func Validate(prog *core.Program, reg *registry.Registry) error {
	bound := make(map[string]varInfo)
	collectTopLevelBindings(prog.Root, bound)
	return validateTerm(prog.Root, bound, reg)
}

// collectTopLevelBindings walks the right-nested top-level Let chain,
// pre-seeding every top-level name into bound before any RHS is
// validated — this is what makes mutual recursion between top-level
// functions legal (spec.md §4.5's pre-pass).
func collectTopLevelBindings(term core.Term, bound map[string]varInfo) {
	let, ok := term.(*core.Let)
	if !ok {
		return
	}
	bound[let.Name] = classifyRHS(let.Value)
	collectTopLevelBindings(let.Body, bound)
}

func classifyRHS(val core.Term) varInfo {
	switch val.(type) {
	case *core.Lam:
		return varLambda
	case *core.IntLit, *core.BoolLit, *core.UnitLit, *core.StrLit, *core.Tuple, *core.Ctor:
		return varNonLambda
	default:
		return varUnknown
	}
}

func withBinding(bound map[string]varInfo, name string, info varInfo) map[string]varInfo {
	next := make(map[string]varInfo, len(bound)+1)
	for k, v := range bound {
		next[k] = v
	}
	next[name] = info
	return next
}

func validateTerm(term core.Term, bound map[string]varInfo, reg *registry.Registry) error {
	switch t := term.(type) {
	case *core.IntLit, *core.BoolLit, *core.UnitLit, *core.StrLit:
		return nil

	case *core.Ctor:
		for _, f := range t.Fields {
			if err := validateTerm(f, bound, reg); err != nil {
				return err
			}
		}
		return nil

	case *core.Var:
		if _, ok := bound[t.Name]; ok {
			return nil
		}
		if reg.IsKnown(t.Name) {
			return nil
		}
		return &Error{Code: "E_UNBOUND_VAR", Message: t.Name, Span: t.Origin()}

	case *core.Lam:
		return validateTerm(t.Body, withBinding(bound, t.Param, varLambda), reg)

	case *core.App:
		if err := validateTerm(t.Fn, bound, reg); err != nil {
			return err
		}
		if err := validateTerm(t.Arg, bound, reg); err != nil {
			return err
		}
		if !canBeFunction(t.Fn, bound, reg) {
			return &Error{
				Code:    "E_APPLY_NON_FUNCTION",
				Message: fmt.Sprintf("head=%s", formatTermForError(t.Fn)),
				Span:    t.Origin(),
			}
		}
		return nil

	case *core.Let:
		if err := validateTerm(t.Value, bound, reg); err != nil {
			return err
		}
		return validateTerm(t.Body, withBinding(bound, t.Name, classifyRHS(t.Value)), reg)

	case *core.Tuple:
		for _, e := range t.Elems {
			if err := validateTerm(e, bound, reg); err != nil {
				return err
			}
		}
		return nil

	case *core.Proj:
		return validateTerm(t.Target, bound, reg)

	case *core.If:
		if err := validateTerm(t.Cond, bound, reg); err != nil {
			return err
		}
		if err := validateTerm(t.Then, bound, reg); err != nil {
			return err
		}
		return validateTerm(t.Else, bound, reg)

	case *core.Match:
		if err := validateTerm(t.Scrutinee, bound, reg); err != nil {
			return err
		}
		for _, arm := range t.Arms {
			armBound := make(map[string]varInfo, len(bound))
			for k, v := range bound {
				armBound[k] = v
			}
			bindPattern(arm.Pattern, armBound)
			if err := validateTerm(arm.Body, armBound, reg); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("validate: unsupported term type %T", term)
}

// bindPattern adds every variable a pattern introduces to bound, so the
// arm body validates against them (PVar "_" is a discard, not a binding).
func bindPattern(pat core.Pattern, bound map[string]varInfo) {
	switch p := pat.(type) {
	case core.PVar:
		if p.Name != "_" {
			bound[p.Name] = varUnknown
		}
	case core.PTuple:
		for _, e := range p.Elems {
			bindPattern(e, bound)
		}
	case core.PEnum:
		for _, f := range p.Fields {
			bindPattern(f, bound)
		}
	}
}

// canBeFunction implements C2's conservative classification: a Lam is
// always a function; a Var defers to its binder classification (or, if
// unbound locally, to registry/builtin knowledge); any complex
// expression is treated as possibly-function; literals, tuples, and
// constructors never are.
func canBeFunction(term core.Term, bound map[string]varInfo, reg *registry.Registry) bool {
	switch t := term.(type) {
	case *core.Lam:
		return true

	case *core.Var:
		switch bound[t.Name] {
		case varLambda:
			return true
		case varNonLambda:
			return false
		default:
			if _, ok := bound[t.Name]; ok {
				return true // varUnknown: be conservative
			}
			return reg.IsKnown(t.Name)
		}

	case *core.IntLit, *core.BoolLit, *core.UnitLit, *core.StrLit, *core.Tuple, *core.Ctor:
		return false

	default:
		return true // App, Let, If, Proj, Match: be conservative
	}
}

func formatTermForError(term core.Term) string {
	switch t := term.(type) {
	case *core.IntLit:
		return fmt.Sprintf("IntLit(%d)", t.Value)
	case *core.BoolLit:
		return fmt.Sprintf("BoolLit(%t)", t.Value)
	case *core.UnitLit:
		return "UnitLit"
	case *core.StrLit:
		s := t.Value
		if len(s) > 20 {
			s = s[:20]
		}
		return fmt.Sprintf("StrLit(%q...)", s)
	case *core.Var:
		return fmt.Sprintf("Var(%s)", t.Name)
	case *core.Ctor:
		return fmt.Sprintf("Ctor(%s)", t.Tag)
	case *core.Lam:
		return fmt.Sprintf("Lam(%s, <body>)", t.Param)
	case *core.App:
		return "App(<func>, <arg>)"
	case *core.Let:
		return fmt.Sprintf("Let(%s, <val>, <body>)", t.Name)
	case *core.Tuple:
		return "Tuple(<...>)"
	case *core.Proj:
		return fmt.Sprintf("Proj(<tuple>, %d)", t.Index)
	case *core.If:
		return "If(<cond>, <then>, <else>)"
	case *core.Match:
		return "Match(<scrutinee>, <arms>)"
	default:
		return fmt.Sprintf("%T", term)
	}
}
