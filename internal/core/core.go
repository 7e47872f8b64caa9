// Package core defines the Core intermediate representation (spec.md
// §3.2): a small untyped lambda calculus with tuples, a data-constructor
// term, and pattern matching — the on-disk and in-memory form a bundle
// carries between C4 (lowering), C5 (validation), C6 (the binary codec),
// and C8 (emission).
//
// Unlike the teacher's original ANF Core, this representation has no
// administrative-normal-form requirement: complex subexpressions appear
// directly as operands, matching spec.md's minimal term set exactly.
package core

import (
	"fmt"
	"sync/atomic"

	"github.com/christaylor98/axis-core/internal/ast"
)

// NodeID uniquely identifies a term or pattern node within a single
// lowering pass. The --view-core-ir printer (Inspect, in inspect.go) uses
// identity (not structural equality) to detect and print repeated
// sub-terms once.
type NodeID uint64

var nextID uint64

// NewID returns a fresh, process-wide unique NodeID. Safe for concurrent
// use by parallel lowering of independent top-level declarations.
func NewID() NodeID {
	return NodeID(atomic.AddUint64(&nextID, 1))
}

// Node is the identity/location pair every term and pattern carries.
// CoreSpan is the position assigned during lowering (may be synthetic,
// e.g. for desugared tuple projections); OrigSpan preserves the original
// surface-syntax location for diagnostics when the two diverge.
type Node struct {
	NodeID   NodeID
	CoreSpan ast.Pos
	OrigSpan ast.Pos
}

func (n Node) ID() NodeID     { return n.NodeID }
func (n Node) Span() ast.Pos  { return n.CoreSpan }
func (n Node) Origin() ast.Pos {
	if n.OrigSpan == (ast.Pos{}) {
		return n.CoreSpan
	}
	return n.OrigSpan
}

func mkNode(span ast.Pos) Node {
	return Node{NodeID: NewID(), CoreSpan: span, OrigSpan: span}
}

// Term is the base interface for every Core expression node.
type Term interface {
	ID() NodeID
	Span() ast.Pos
	String() string
	termNode()
}

// IntLit is a 64-bit signed integer literal.
type IntLit struct {
	Node
	Value int64
}

func (t *IntLit) termNode()      {}
func (t *IntLit) String() string { return fmt.Sprintf("%d", t.Value) }

// BoolLit is `true` or `false`.
type BoolLit struct {
	Node
	Value bool
}

func (t *BoolLit) termNode()      {}
func (t *BoolLit) String() string { return fmt.Sprintf("%t", t.Value) }

// UnitLit is the unit value.
type UnitLit struct {
	Node
}

func (t *UnitLit) termNode()      {}
func (t *UnitLit) String() string { return "()" }

// StrLit is a UTF-8 string literal.
type StrLit struct {
	Node
	Value string
}

func (t *StrLit) termNode()      {}
func (t *StrLit) String() string { return fmt.Sprintf("%q", t.Value) }

// Var is a variable reference: resolves to an enclosing Let/Lam binder,
// or names a registry entry (builtin or foreign symbol).
type Var struct {
	Node
	Name string
}

func (t *Var) termNode()      {}
func (t *Var) String() string { return t.Name }

// Lam is a strictly unary lambda abstraction. Multi-parameter surface
// functions lower to nested Lams (spec.md §4.4).
type Lam struct {
	Node
	Param string
	Body  Term
}

func (t *Lam) termNode()      {}
func (t *Lam) String() string { return fmt.Sprintf("\\%s -> %s", t.Param, t.Body) }

// App is a strictly unary application. N-ary surface calls lower to
// left-nested Apps.
type App struct {
	Node
	Fn  Term
	Arg Term
}

func (t *App) termNode()      {}
func (t *App) String() string { return fmt.Sprintf("(%s %s)", t.Fn, t.Arg) }

// Let is a non-recursive binding: name, value term, body term.
type Let struct {
	Node
	Name  string
	Value Term
	Body  Term
}

func (t *Let) termNode() {}
func (t *Let) String() string {
	return fmt.Sprintf("let %s = %s in %s", t.Name, t.Value, t.Body)
}

// If is a three-way conditional.
type If struct {
	Node
	Cond Term
	Then Term
	Else Term
}

func (t *If) termNode() {}
func (t *If) String() string {
	return fmt.Sprintf("if %s then %s else %s", t.Cond, t.Then, t.Else)
}

// Tuple is an ordered, heterogeneous product of terms.
type Tuple struct {
	Node
	Elems []Term
}

func (t *Tuple) termNode()      {}
func (t *Tuple) String() string { return fmt.Sprintf("%v", t.Elems) }

// Proj is a 1-based tuple projection; the emitter converts to 0-based
// indexing at the target boundary.
type Proj struct {
	Node
	Target Term
	Index  int64
}

func (t *Proj) termNode()      {}
func (t *Proj) String() string { return fmt.Sprintf("proj(%s, %d)", t.Target, t.Index) }

// Ctor is a data constructor application: an opaque interned tag name
// plus ordered field terms.
type Ctor struct {
	Node
	Tag    string
	Fields []Term
}

func (t *Ctor) termNode()      {}
func (t *Ctor) String() string { return fmt.Sprintf("%s%v", t.Tag, t.Fields) }

// Arm pairs one match pattern with its body term.
type Arm struct {
	Pattern Pattern
	Body    Term
}

// Match is a pattern match over a scrutinee with ordered arms.
type Match struct {
	Node
	Scrutinee Term
	Arms      []Arm
}

func (t *Match) termNode() {}
func (t *Match) String() string {
	return fmt.Sprintf("match %s { %v }", t.Scrutinee, t.Arms)
}

// Pattern is the base interface for Core match patterns.
type Pattern interface {
	String() string
	patternNode()
}

// PInt matches an integer literal.
type PInt struct{ Value int64 }

func (p PInt) patternNode()     {}
func (p PInt) String() string   { return fmt.Sprintf("%d", p.Value) }

// PBool matches a boolean literal.
type PBool struct{ Value bool }

func (p PBool) patternNode()    {}
func (p PBool) String() string  { return fmt.Sprintf("%t", p.Value) }

// PUnit matches the unit value.
type PUnit struct{}

func (p PUnit) patternNode()    {}
func (p PUnit) String() string  { return "()" }

// PVar binds the scrutinee to Name; Name == "_" is a discard (no binding).
type PVar struct{ Name string }

func (p PVar) patternNode()     {}
func (p PVar) String() string   { return p.Name }

// PTuple matches a tuple of exactly len(Elems) sub-patterns.
type PTuple struct{ Elems []Pattern }

func (p PTuple) patternNode()   {}
func (p PTuple) String() string { return fmt.Sprintf("%v", p.Elems) }

// PEnum matches a constructor by tag name and recurses into its fields.
// Fields is empty for a zero-arity constructor pattern.
type PEnum struct {
	Tag    string
	Fields []Pattern
}

func (p PEnum) patternNode()    {}
func (p PEnum) String() string  { return fmt.Sprintf("%s%v", p.Tag, p.Fields) }

// Program is a lowered, not-yet-validated compilation unit: the
// right-nested top-level Let chain spec.md §4.4 describes, plus the
// ordered function names in declaration order (needed by the validator's
// mutual-recursion pre-pass and by the emitter's pass-1/pass-2 split).
type Program struct {
	Root      Term     // the outermost top-level Let (or UnitLit if empty)
	FuncNames []string // top-level binder names, in declaration order
}

func (p *Program) String() string { return p.Root.String() }

// MkInt, MkBool, … are small constructors used by internal/lower so call
// sites read as "build an IntLit at this span" rather than repeating the
// NodeID/CoreSpan/OrigSpan boilerplate inline.
func MkInt(span ast.Pos, v int64) *IntLit   { return &IntLit{Node: mkNode(span), Value: v} }
func MkBool(span ast.Pos, v bool) *BoolLit  { return &BoolLit{Node: mkNode(span), Value: v} }
func MkUnit(span ast.Pos) *UnitLit          { return &UnitLit{Node: mkNode(span)} }
func MkStr(span ast.Pos, v string) *StrLit  { return &StrLit{Node: mkNode(span), Value: v} }
func MkVar(span ast.Pos, name string) *Var  { return &Var{Node: mkNode(span), Name: name} }

func MkLam(span ast.Pos, param string, body Term) *Lam {
	return &Lam{Node: mkNode(span), Param: param, Body: body}
}

func MkApp(span ast.Pos, fn, arg Term) *App {
	return &App{Node: mkNode(span), Fn: fn, Arg: arg}
}

func MkLet(span ast.Pos, name string, value, body Term) *Let {
	return &Let{Node: mkNode(span), Name: name, Value: value, Body: body}
}

func MkIf(span ast.Pos, cond, then, els Term) *If {
	return &If{Node: mkNode(span), Cond: cond, Then: then, Else: els}
}

func MkTuple(span ast.Pos, elems []Term) *Tuple {
	return &Tuple{Node: mkNode(span), Elems: elems}
}

func MkProj(span ast.Pos, target Term, idx int64) *Proj {
	return &Proj{Node: mkNode(span), Target: target, Index: idx}
}

func MkCtor(span ast.Pos, tag string, fields []Term) *Ctor {
	return &Ctor{Node: mkNode(span), Tag: tag, Fields: fields}
}

func MkMatch(span ast.Pos, scrutinee Term, arms []Arm) *Match {
	return &Match{Node: mkNode(span), Scrutinee: scrutinee, Arms: arms}
}
