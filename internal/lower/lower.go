// Package lower implements surface-to-Core lowering (C4, spec.md §4.4):
// turning a parsed *ast.Module into a *core.Program — a right-nested
// top-level Let chain, one Lam per surface function, match-arm pattern
// strings re-parsed into structured core.Pattern values.
//
// Grounded on original_source/core-compiler/src/surface_lower.rs for the
// exact desugaring of blocks, pattern-let destructuring, struct literals,
// and constructor-reference detection.
package lower

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/christaylor98/axis-core/internal/ast"
	"github.com/christaylor98/axis-core/internal/core"
	axiserrors "github.com/christaylor98/axis-core/internal/errors"
	"github.com/christaylor98/axis-core/internal/lexer"
)

// Lower lowers a whole module into a Program: a right-nested Let chain
// over its functions in declaration order (spec.md §4.4's Module rule),
// so that mutual recursion is enabled by C5's pre-seeded binding pass.
func Lower(mod *ast.Module) (*core.Program, error) {
	funcNames := make([]string, len(mod.Funcs))
	for i, fn := range mod.Funcs {
		funcNames[i] = fn.Name
	}

	root := core.Term(core.MkUnit(mod.Pos))
	for i := len(mod.Funcs) - 1; i >= 0; i-- {
		fn := mod.Funcs[i]
		body, err := lowerExpr(fn.Body)
		if err != nil {
			return nil, err
		}
		lam := buildLambda(fn.Params, body, fn.Pos)
		root = core.MkLet(fn.Pos, fn.Name, lam, root)
	}
	return &core.Program{Root: root, FuncNames: funcNames}, nil
}

// buildLambda lowers `fn f(p1, …, pn) { body }` to nested unary Lams;
// zero-parameter functions get the internal "_unit" parameter convention
// (spec.md §4.4).
func buildLambda(params []string, body core.Term, pos ast.Pos) core.Term {
	if len(params) == 0 {
		return core.MkLam(pos, "_unit", body)
	}
	result := body
	for i := len(params) - 1; i >= 0; i-- {
		result = core.MkLam(pos, params[i], result)
	}
	return result
}

// isConstructorName reports whether the final (namespace-stripped)
// segment of name starts with an uppercase letter.
func isConstructorName(name string) bool {
	last := name
	if i := strings.LastIndex(last, "::"); i >= 0 {
		last = last[i+2:]
	} else if i := strings.LastIndex(last, "."); i >= 0 {
		last = last[i+1:]
	}
	if last == "" {
		return false
	}
	r := last[0]
	return r >= 'A' && r <= 'Z'
}

func lowerExpr(e ast.Expr) (core.Term, error) {
	pos := e.Position()
	switch n := e.(type) {
	case *ast.IntLit:
		return core.MkInt(pos, n.Value), nil

	case *ast.BoolLit:
		return core.MkBool(pos, n.Value), nil

	case *ast.UnitLit:
		return core.MkUnit(pos), nil

	case *ast.StrLit:
		return core.MkStr(pos, n.Value), nil

	case *ast.Ident:
		return core.MkVar(pos, n.Name), nil

	case *ast.Call:
		return lowerCall(n)

	case *ast.StructLit:
		return lowerStructLit(n)

	case *ast.TupleExpr:
		elems := make([]core.Term, len(n.Elems))
		for i, el := range n.Elems {
			v, err := lowerExpr(el)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return core.MkTuple(pos, elems), nil

	case *ast.ProjExpr:
		target, err := lowerExpr(n.Target)
		if err != nil {
			return nil, err
		}
		return core.MkProj(pos, target, n.Index), nil

	case *ast.IfExpr:
		cond, err := lowerExpr(n.Cond)
		if err != nil {
			return nil, err
		}
		then, err := lowerExpr(n.Then)
		if err != nil {
			return nil, err
		}
		els, err := lowerExpr(n.Else)
		if err != nil {
			return nil, err
		}
		return core.MkIf(pos, cond, then, els), nil

	case *ast.MatchExpr:
		return lowerMatch(n)

	case *ast.LetInExpr:
		value, err := lowerExpr(n.Value)
		if err != nil {
			return nil, err
		}
		body, err := lowerExpr(n.Body)
		if err != nil {
			return nil, err
		}
		return core.MkLet(pos, n.Name, value, body), nil

	case *ast.Block:
		return lowerBlock(n.Stmts, n.Pos)
	}
	msg := fmt.Sprintf("lower: unsupported expression type %T", e)
	return nil, axiserrors.WrapReport(axiserrors.New(axiserrors.PhaseLower, axiserrors.LOW001, msg, pos))
}

// lowerCall lowers `f(a1, …, an)`: a zero-arg constructor reference
// becomes a bare Var; a zero-arg ordinary call applies Unit as its
// single argument (symmetric with the zero-parameter Lam convention);
// otherwise N arguments fold into a left-nested App chain.
func lowerCall(n *ast.Call) (core.Term, error) {
	if len(n.Args) == 0 {
		if isConstructorName(n.FuncName) {
			return core.MkVar(n.Pos, n.FuncName), nil
		}
		return core.MkApp(n.Pos, core.MkVar(n.Pos, n.FuncName), core.MkUnit(n.Pos)), nil
	}
	app := core.Term(core.MkVar(n.Pos, n.FuncName))
	for _, arg := range n.Args {
		v, err := lowerExpr(arg)
		if err != nil {
			return nil, err
		}
		app = core.MkApp(arg.Position(), app, v)
	}
	return app, nil
}

// lowerStructLit applies the constructor name to field values in
// declaration order; field names themselves carry no runtime
// representation (positional encoding, matching surface_lower.rs's
// __struct_lit__ handling).
func lowerStructLit(n *ast.StructLit) (core.Term, error) {
	app := core.Term(core.MkVar(n.Pos, n.TypeName))
	for _, f := range n.Fields {
		v, err := lowerExpr(f.Value)
		if err != nil {
			return nil, err
		}
		app = core.MkApp(n.Pos, app, v)
	}
	return app, nil
}

func lowerMatch(n *ast.MatchExpr) (core.Term, error) {
	scrut, err := lowerExpr(n.Scrutinee)
	if err != nil {
		return nil, err
	}
	if len(n.Arms) == 0 {
		return nil, axiserrors.WrapReport(axiserrors.New(axiserrors.PhaseLower, axiserrors.LOW002, "lower: match with no arms", n.Pos))
	}
	arms := make([]core.Arm, len(n.Arms))
	for i, a := range n.Arms {
		pat, err := parsePattern(a.PatternSrc)
		if err != nil {
			msg := fmt.Sprintf("lower: malformed pattern %q: %s", a.PatternSrc, err)
			return nil, axiserrors.WrapReport(axiserrors.New(axiserrors.PhaseLower, axiserrors.LOW003, msg, n.Pos))
		}
		body, err := lowerExpr(a.Body)
		if err != nil {
			return nil, err
		}
		arms[i] = core.Arm{Pattern: pat, Body: body}
	}
	return core.MkMatch(n.Pos, scrut, arms), nil
}

// lowerBlock implements the block-sequencing rule of spec.md §4.4: a
// simple let binds and continues; a pattern-let desugars to a temporary
// plus nested field-extraction lets; an expression statement sequences
// via a "_discard" binding; the final statement becomes the tail (no
// further binding wrapper).
func lowerBlock(stmts []ast.Stmt, pos ast.Pos) (core.Term, error) {
	if len(stmts) == 0 {
		return core.MkUnit(pos), nil
	}
	if len(stmts) == 1 {
		return lowerTailStmt(stmts[0])
	}

	switch s := stmts[0].(type) {
	case *ast.LetStmt:
		value, err := lowerExpr(s.Value)
		if err != nil {
			return nil, err
		}
		rest, err := lowerBlock(stmts[1:], pos)
		if err != nil {
			return nil, err
		}
		return core.MkLet(s.Pos, s.Name, value, rest), nil

	case *ast.LetPatternStmt:
		rhs, err := lowerExpr(s.Value)
		if err != nil {
			return nil, err
		}
		rest, err := lowerBlock(stmts[1:], pos)
		if err != nil {
			return nil, err
		}
		return wrapPatternLet(s, rhs, rest), nil

	case *ast.ExprStmt:
		value, err := lowerExpr(s.Value)
		if err != nil {
			return nil, err
		}
		rest, err := lowerBlock(stmts[1:], pos)
		if err != nil {
			return nil, err
		}
		return core.MkLet(s.Pos, "_discard", value, rest), nil
	}
	return nil, fmt.Errorf("lower: unsupported statement type %T", stmts[0])
}

// lowerTailStmt lowers the final statement of a block: a let-form still
// binds, but its body becomes Unit rather than a recursive rest; a bare
// expression statement lowers directly to its value (the block's tail).
func lowerTailStmt(s ast.Stmt) (core.Term, error) {
	switch n := s.(type) {
	case *ast.LetStmt:
		value, err := lowerExpr(n.Value)
		if err != nil {
			return nil, err
		}
		return core.MkLet(n.Pos, n.Name, value, core.MkUnit(n.Pos)), nil

	case *ast.LetPatternStmt:
		rhs, err := lowerExpr(n.Value)
		if err != nil {
			return nil, err
		}
		return wrapPatternLet(n, rhs, core.MkUnit(n.Pos)), nil

	case *ast.ExprStmt:
		return lowerExpr(n.Value)
	}
	return nil, fmt.Errorf("lower: unsupported statement type %T", s)
}

// wrapPatternLet desugars `let Ctor(x1, x2, …) = rhs` around rest into
// `let tmp = rhs in let x1 = __ctor_field__(tmp, 0) in … in rest`
// (spec.md §4.4's pattern-let rule).
func wrapPatternLet(s *ast.LetPatternStmt, rhs core.Term, rest core.Term) core.Term {
	tmp := fmt.Sprintf("_tmp_%s_%d", s.Ctor, len(s.Vars))
	body := rest
	for i := len(s.Vars) - 1; i >= 0; i-- {
		extract := core.MkApp(s.Pos,
			core.MkApp(s.Pos, core.MkVar(s.Pos, "__ctor_field__"), core.MkVar(s.Pos, tmp)),
			core.MkInt(s.Pos, int64(i)))
		body = core.MkLet(s.Pos, s.Vars[i], extract, body)
	}
	return core.MkLet(s.Pos, tmp, rhs, body)
}

// --- Pattern-source re-parsing (spec.md §4.4 last bullet) ---------------

// parsePattern re-tokenizes a joined pattern-source string and parses it
// into a structured core.Pattern per the mini-grammar: integer literal →
// PInt; true/false → PBool; () → PUnit; a single parenthesized pattern is
// unwrapped as plain grouping; (p1, p2, …) → PTuple; an uppercase-initial
// (optionally qualified) identifier with no call parens → PEnum(name,
// nil); Ctor(p1, p2, …) → PEnum(name, [...]); anything else → PVar(name).
func parsePattern(src string) (core.Pattern, error) {
	toks := lexer.Tokenize(src, "<pattern>")
	pp := &patParser{toks: toks}
	pat, err := pp.parse()
	if err != nil {
		return nil, err
	}
	if pp.cur().Type != lexer.EOF {
		return nil, fmt.Errorf("trailing tokens in pattern %q", src)
	}
	return pat, nil
}

type patParser struct {
	toks []lexer.Token
	pos  int
}

func (p *patParser) cur() lexer.Token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos]
}

func (p *patParser) advance() lexer.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *patParser) parse() (core.Pattern, error) {
	t := p.cur()
	switch {
	case t.Type == lexer.INT:
		p.advance()
		n, err := strconv.ParseInt(t.Text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer pattern %q", t.Text)
		}
		return core.PInt{Value: n}, nil

	case t.Type == lexer.IDENT && t.Text == "true":
		p.advance()
		return core.PBool{Value: true}, nil

	case t.Type == lexer.IDENT && t.Text == "false":
		p.advance()
		return core.PBool{Value: false}, nil

	case t.Type == lexer.LPAREN:
		return p.parseParenPattern()

	case t.Type == lexer.IDENT:
		return p.parseIdentPattern()
	}
	return nil, fmt.Errorf("unexpected token %q in pattern", t.Text)
}

func (p *patParser) parseParenPattern() (core.Pattern, error) {
	p.advance() // '('
	if p.cur().Type == lexer.RPAREN {
		p.advance()
		return core.PUnit{}, nil
	}
	first, err := p.parse()
	if err != nil {
		return nil, err
	}
	if p.cur().Type != lexer.COMMA {
		if p.cur().Type != lexer.RPAREN {
			return nil, fmt.Errorf("expected ')' in pattern, got %q", p.cur().Text)
		}
		p.advance()
		return first, nil
	}
	elems := []core.Pattern{first}
	for p.cur().Type == lexer.COMMA {
		p.advance()
		if p.cur().Type == lexer.RPAREN {
			break
		}
		e, err := p.parse()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	if p.cur().Type != lexer.RPAREN {
		return nil, fmt.Errorf("expected ')' in pattern, got %q", p.cur().Text)
	}
	p.advance()
	return core.PTuple{Elems: elems}, nil
}

func (p *patParser) parseIdentPattern() (core.Pattern, error) {
	name := p.advance().Text
	for p.cur().Type == lexer.DOT || p.cur().Type == lexer.DCOLON {
		sep := p.advance()
		if p.cur().Type != lexer.IDENT {
			return nil, fmt.Errorf("expected identifier after qualifier in pattern")
		}
		next := p.advance().Text
		if sep.Type == lexer.DCOLON {
			name += "::" + next
		} else {
			name += "." + next
		}
	}
	if p.cur().Type == lexer.LPAREN {
		p.advance()
		var fields []core.Pattern
		for p.cur().Type != lexer.RPAREN {
			f, err := p.parse()
			if err != nil {
				return nil, err
			}
			fields = append(fields, f)
			if p.cur().Type == lexer.COMMA {
				p.advance()
				continue
			}
			break
		}
		if p.cur().Type != lexer.RPAREN {
			return nil, fmt.Errorf("expected ')' in pattern, got %q", p.cur().Text)
		}
		p.advance()
		return core.PEnum{Tag: name, Fields: fields}, nil
	}
	if isConstructorName(name) {
		return core.PEnum{Tag: name, Fields: nil}, nil
	}
	return core.PVar{Name: name}, nil
}
