// Package ast defines the Surface AST produced by internal/parser: function
// and foreign declarations, expressions, and block statements. Types and
// module declarations are scanned but not semantically retained (spec.md
// §4.3); match patterns are captured as raw source strings and re-parsed by
// internal/lower, not modeled as AST nodes here.
package ast

import "fmt"

// Pos identifies a single point in a source file.
type Pos struct {
	File   string
	Line   int
	Column int
	Offset int
}

func (p Pos) String() string {
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Node is the base interface implemented by every AST node.
type Node interface {
	Position() Pos
	String() string
}

// Module is a parsed source file: user functions and foreign declarations,
// in declaration order. Type/use/module declarations are discarded after
// scanning (spec.md §4.3).
type Module struct {
	Funcs    []*FnDecl
	Foreigns []*ForeignFnDecl
	Pos      Pos
}

func (m *Module) Position() Pos { return m.Pos }
func (m *Module) String() string {
	return fmt.Sprintf("module(%d funcs, %d foreign)", len(m.Funcs), len(m.Foreigns))
}

// FnDecl is `fn <qualified.name> ( p1 [: T]?, … ) [-> T]? { block }`.
// Parameter type annotations and the return type are scanned, never retained.
type FnDecl struct {
	Name   string
	Params []string
	Body   Expr
	Pos    Pos
}

func (f *FnDecl) Position() Pos { return f.Pos }
func (f *FnDecl) String() string {
	return fmt.Sprintf("fn %s(%v) { %s }", f.Name, f.Params, f.Body)
}

// ForeignFnDecl is `foreign fn <qualified.name>(params) [-> T]?` — an opaque
// declaration with no body; only the name and declared arity survive.
type ForeignFnDecl struct {
	Name  string
	Arity int
	Pos   Pos
}

func (f *ForeignFnDecl) Position() Pos { return f.Pos }
func (f *ForeignFnDecl) String() string {
	return fmt.Sprintf("foreign fn %s/%d", f.Name, f.Arity)
}

// Expr is the base interface for Surface expressions.
type Expr interface {
	Node
	exprNode()
}

// IntLit is an integer literal.
type IntLit struct {
	Value int64
	Pos   Pos
}

func (e *IntLit) exprNode()      {}
func (e *IntLit) Position() Pos  { return e.Pos }
func (e *IntLit) String() string { return fmt.Sprintf("%d", e.Value) }

// BoolLit is `true` or `false`.
type BoolLit struct {
	Value bool
	Pos   Pos
}

func (e *BoolLit) exprNode()      {}
func (e *BoolLit) Position() Pos  { return e.Pos }
func (e *BoolLit) String() string { return fmt.Sprintf("%t", e.Value) }

// UnitLit is `()`.
type UnitLit struct {
	Pos Pos
}

func (e *UnitLit) exprNode()      {}
func (e *UnitLit) Position() Pos  { return e.Pos }
func (e *UnitLit) String() string { return "()" }

// StrLit is a double-quoted string literal, already unescaped.
type StrLit struct {
	Value string
	Pos   Pos
}

func (e *StrLit) exprNode()      {}
func (e *StrLit) Position() Pos  { return e.Pos }
func (e *StrLit) String() string { return fmt.Sprintf("%q", e.Value) }

// Ident is a (possibly dotted/double-colon-qualified) variable or
// zero-argument constructor reference.
type Ident struct {
	Name string
	Pos  Pos
}

func (e *Ident) exprNode()      {}
func (e *Ident) Position() Pos  { return e.Pos }
func (e *Ident) String() string { return e.Name }

// Call is `f(a1, a2, …)` — also the desugared form of binary operators
// (`__add__` etc., spec.md §4.3 rule 2) and of surface tuples
// (`__tuple__`). FuncName already carries any dunder rewriting.
type Call struct {
	FuncName string
	Args     []Expr
	Pos      Pos
}

func (e *Call) exprNode()      {}
func (e *Call) Position() Pos  { return e.Pos }
func (e *Call) String() string { return fmt.Sprintf("%s(%v)", e.FuncName, e.Args) }

// FieldInit is one `name: value` pair inside a struct literal.
type FieldInit struct {
	Name  string
	Value Expr
}

// StructLit is `TypeName { f1: v1, f2: v2 }` (spec.md §4.3 primary rule).
type StructLit struct {
	TypeName string
	Fields   []FieldInit
	Pos      Pos
}

func (e *StructLit) exprNode()      {}
func (e *StructLit) Position() Pos  { return e.Pos }
func (e *StructLit) String() string { return fmt.Sprintf("%s{%v}", e.TypeName, e.Fields) }

// TupleExpr is `(e1, e2, …)`.
type TupleExpr struct {
	Elems []Expr
	Pos   Pos
}

func (e *TupleExpr) exprNode()      {}
func (e *TupleExpr) Position() Pos  { return e.Pos }
func (e *TupleExpr) String() string { return fmt.Sprintf("(%v)", e.Elems) }

// ProjExpr is `proj(expr, N)`.
type ProjExpr struct {
	Target Expr
	Index  int64
	Pos    Pos
}

func (e *ProjExpr) exprNode()      {}
func (e *ProjExpr) Position() Pos  { return e.Pos }
func (e *ProjExpr) String() string { return fmt.Sprintf("proj(%s, %d)", e.Target, e.Index) }

// IfExpr is `if c { a } else { b }`, with `else if` chains nested
// right-associatively into Else.
type IfExpr struct {
	Cond Expr
	Then Expr
	Else Expr
	Pos  Pos
}

func (e *IfExpr) exprNode()      {}
func (e *IfExpr) Position() Pos  { return e.Pos }
func (e *IfExpr) String() string { return fmt.Sprintf("if %s { %s } else { %s }", e.Cond, e.Then, e.Else) }

// MatchArm pairs a raw, unparsed pattern source string with its body.
// The pattern string is re-parsed by internal/lower (spec.md §4.4 last
// bullet); splitting at top-level commas respects paren nesting.
type MatchArm struct {
	PatternSrc string
	Body       Expr
}

// MatchExpr is `match <scrut> { pat => expr, … }`.
type MatchExpr struct {
	Scrutinee Expr
	Arms      []MatchArm
	Pos       Pos
}

func (e *MatchExpr) exprNode()      {}
func (e *MatchExpr) Position() Pos  { return e.Pos }
func (e *MatchExpr) String() string { return fmt.Sprintf("match %s { %v }", e.Scrutinee, e.Arms) }

// LetInExpr is `let <name> [: T]? = <expr> in <expr>` — always an
// expression (spec.md §4.3 rule 1), distinct from the block-statement let.
type LetInExpr struct {
	Name  string
	Value Expr
	Body  Expr
	Pos   Pos
}

func (e *LetInExpr) exprNode()     {}
func (e *LetInExpr) Position() Pos { return e.Pos }
func (e *LetInExpr) String() string {
	return fmt.Sprintf("let %s = %s in %s", e.Name, e.Value, e.Body)
}

// Block is `{ stmts }`; the last unterminated expression is its value.
type Block struct {
	Stmts []Stmt
	Pos   Pos
}

func (e *Block) exprNode()      {}
func (e *Block) Position() Pos  { return e.Pos }
func (e *Block) String() string { return fmt.Sprintf("{ %v }", e.Stmts) }

// Stmt is a block-level statement.
type Stmt interface {
	Node
	stmtNode()
}

// LetStmt is `let <name> = <expr>;` with a simple-name pattern.
type LetStmt struct {
	Name  string
	Value Expr
	Pos   Pos
}

func (s *LetStmt) stmtNode()      {}
func (s *LetStmt) Position() Pos  { return s.Pos }
func (s *LetStmt) String() string { return fmt.Sprintf("let %s = %s;", s.Name, s.Value) }

// LetPatternStmt is `let Ctor(v1, v2, …) = <expr>;` — destructuring form.
type LetPatternStmt struct {
	Ctor  string
	Vars  []string
	Value Expr
	Pos   Pos
}

func (s *LetPatternStmt) stmtNode() {}
func (s *LetPatternStmt) Position() Pos { return s.Pos }
func (s *LetPatternStmt) String() string {
	return fmt.Sprintf("let %s(%v) = %s;", s.Ctor, s.Vars, s.Value)
}

// ExprStmt is an expression used as a statement (`e;` or bare `e`).
type ExprStmt struct {
	Value Expr
	Pos   Pos
}

func (s *ExprStmt) stmtNode()      {}
func (s *ExprStmt) Position() Pos  { return s.Value.Position() }
func (s *ExprStmt) String() string { return fmt.Sprintf("%s;", s.Value) }
