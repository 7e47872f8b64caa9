// Package parser implements the recursive-descent surface parser (spec.md
// §4.3): an index-based walk over the token vector producing a *ast.Module.
// Grounded algorithmically on original_source's surface_parser.rs, in
// particular its exact parse-error message shape and its pattern-string
// join spacing rules for match arms.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/christaylor98/axis-core/internal/ast"
	axiserrors "github.com/christaylor98/axis-core/internal/errors"
	"github.com/christaylor98/axis-core/internal/lexer"
)

// Keywords are recognized by text comparison; the tokenizer itself has no
// keyword token classes (spec.md §4.2).
const (
	kwFn      = "fn"
	kwLet     = "let"
	kwIn      = "in"
	kwIf      = "if"
	kwElse    = "else"
	kwMatch   = "match"
	kwType    = "type"
	kwUse     = "use"
	kwModule  = "module"
	kwForeign = "foreign"
	kwTrue    = "true"
	kwFalse   = "false"
	kwProj    = "proj"
)

// ParseError is the structured parse failure of spec.md §4.3/§7: file,
// 1-based line/column, offending source line, caret, expected/found.
type ParseError struct {
	File       string
	Line       int
	Column     int
	SourceLine string
	Expected   string
	Found      string
}

func (e *ParseError) Error() string {
	caret := strings.Repeat(" ", max0(e.Column-1)) + "^"
	return fmt.Sprintf("Parse error in %s:%d:%d\n    %s\n    %s\nExpected '%s', got '%s'",
		e.File, e.Line, e.Column, e.SourceLine, caret, e.Expected, e.Found)
}

// Report converts e to the shared axiserrors.Report shape (PAR001,
// SPEC_FULL.md §2.1), without altering e.Error()'s spec.md §4.3 wire
// format.
func (e *ParseError) Report() *axiserrors.Report {
	span := ast.Pos{File: e.File, Line: e.Line, Column: e.Column}
	msg := fmt.Sprintf("expected %q, got %q", e.Expected, e.Found)
	return axiserrors.New(axiserrors.PhaseParser, axiserrors.PAR001, msg, span)
}

// Unwrap exposes e.Report() to errors.As, per SPEC_FULL.md §2.1's
// ReportError/errors.As requirement.
func (e *ParseError) Unwrap() error {
	return axiserrors.WrapReport(e.Report())
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// Parser walks a pre-lexed token vector.
type Parser struct {
	toks   []lexer.Token
	pos    int
	file   string
	source string
}

// New tokenizes source (which must already have passed through
// lexer.Normalize) and returns a Parser ready to produce a *ast.Module.
func New(source, file string) *Parser {
	return &Parser{
		toks:   lexer.Tokenize(source, file),
		file:   file,
		source: source,
	}
}

func (p *Parser) cur() lexer.Token { return p.toks[p.pos] }

func (p *Parser) peekN(n int) lexer.Token {
	i := p.pos + n
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF
	}
	return p.toks[i]
}

func (p *Parser) advance() lexer.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) isIdent(text string) bool {
	t := p.cur()
	return t.Type == lexer.IDENT && t.Text == text
}

func (p *Parser) sourceLine(line int) string {
	lines := strings.Split(p.source, "\n")
	if line-1 < 0 || line-1 >= len(lines) {
		return ""
	}
	return lines[line-1]
}

func (p *Parser) errorf(tok lexer.Token, expected string) error {
	found := tok.Text
	if tok.Type == lexer.EOF {
		found = "EOF"
	}
	return &ParseError{
		File:       p.file,
		Line:       tok.Line,
		Column:     tok.Column,
		SourceLine: p.sourceLine(tok.Line),
		Expected:   expected,
		Found:      found,
	}
}

func (p *Parser) expect(typ lexer.TokenType, expected string) (lexer.Token, error) {
	if p.cur().Type != typ {
		return lexer.Token{}, p.errorf(p.cur(), expected)
	}
	return p.advance(), nil
}

func (p *Parser) expectIdent(text string) error {
	if !p.isIdent(text) {
		return p.errorf(p.cur(), text)
	}
	p.advance()
	return nil
}

// Parse consumes the whole token stream into a Module. Type/use/module
// declarations are scanned and discarded per spec.md §4.3.
func (p *Parser) Parse() (*ast.Module, error) {
	mod := &ast.Module{Pos: ast.Pos{File: p.file, Line: 1, Column: 1}}
	for p.cur().Type != lexer.EOF {
		switch {
		case p.isIdent(kwFn):
			fn, err := p.parseFunction()
			if err != nil {
				return nil, err
			}
			mod.Funcs = append(mod.Funcs, fn)

		case p.isIdent(kwForeign):
			ff, err := p.parseForeignDecl()
			if err != nil {
				return nil, err
			}
			mod.Foreigns = append(mod.Foreigns, ff)

		case p.isIdent(kwType):
			if err := p.skipTypeDeclaration(); err != nil {
				return nil, err
			}

		case p.isIdent(kwUse):
			if err := p.skipUse(); err != nil {
				return nil, err
			}

		case p.isIdent(kwModule):
			if err := p.skipModuleBlock(); err != nil {
				return nil, err
			}

		default:
			return nil, p.errorf(p.cur(), "fn, foreign, type, use, or module")
		}
	}
	return mod, nil
}

// parseQualifiedName joins identifier segments separated by '.' or '::',
// preserving the separator actually used: emission-time namespace
// stripping only strips up to the LAST '::', never a '.'.
func (p *Parser) parseQualifiedName() (string, ast.Pos, error) {
	tok, err := p.expect(lexer.IDENT, "identifier")
	if err != nil {
		return "", ast.Pos{}, err
	}
	pos := posOf(tok)
	name := tok.Text
	for p.cur().Type == lexer.DOT || p.cur().Type == lexer.DCOLON {
		sep := p.advance()
		next, err := p.expect(lexer.IDENT, "identifier")
		if err != nil {
			return "", ast.Pos{}, err
		}
		if sep.Type == lexer.DCOLON {
			name += "::" + next.Text
		} else {
			name += "." + next.Text
		}
	}
	return name, pos, nil
}

func (p *Parser) parseFunction() (*ast.FnDecl, error) {
	fnTok := p.advance() // 'fn'
	name, _, err := p.parseQualifiedName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LPAREN, "("); err != nil {
		return nil, err
	}
	params, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	if p.cur().Type == lexer.ARROW {
		p.advance()
		if err := p.skipTypeExpr(tset(lexer.LBRACE)); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.LBRACE, "{"); err != nil {
		return nil, err
	}
	block, err := p.parseBlockBody()
	if err != nil {
		return nil, err
	}
	// A body holding a single expression statement is stored as that
	// expression rather than as a one-statement Block.
	var body ast.Expr = block
	if len(block.Stmts) == 1 {
		if es, ok := block.Stmts[0].(*ast.ExprStmt); ok {
			body = es.Value
		}
	}
	return &ast.FnDecl{Name: name, Params: params, Body: body, Pos: posOf(fnTok)}, nil
}

func (p *Parser) parseForeignDecl() (*ast.ForeignFnDecl, error) {
	tok := p.advance() // 'foreign'
	if err := p.expectIdent(kwFn); err != nil {
		return nil, err
	}
	name, _, err := p.parseQualifiedName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LPAREN, "("); err != nil {
		return nil, err
	}
	params, err := p.parseParamList()
	if err != nil {
		return nil, err
	}
	if p.cur().Type == lexer.ARROW {
		p.advance()
		if err := p.skipTypeExpr(tset(lexer.SEMI, lexer.RBRACE)); err != nil {
			return nil, err
		}
	}
	if p.cur().Type == lexer.SEMI {
		p.advance()
	}
	return &ast.ForeignFnDecl{Name: name, Arity: len(params), Pos: posOf(tok)}, nil
}

// parseParamList parses "p1 [: T]?, p2 [: T]?, …" up to and including the
// closing ')'. Type annotations are scanned but discarded (spec.md §4.3).
func (p *Parser) parseParamList() ([]string, error) {
	var params []string
	for p.cur().Type != lexer.RPAREN {
		tok, err := p.expect(lexer.IDENT, "parameter name")
		if err != nil {
			return nil, err
		}
		params = append(params, tok.Text)
		if p.cur().Type == lexer.COLON {
			p.advance()
			if err := p.skipTypeExpr(tset(lexer.COMMA, lexer.RPAREN)); err != nil {
				return nil, err
			}
		}
		if p.cur().Type == lexer.COMMA {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RPAREN, ")"); err != nil {
		return nil, err
	}
	return params, nil
}

func tset(types ...lexer.TokenType) map[lexer.TokenType]bool {
	m := make(map[lexer.TokenType]bool, len(types))
	for _, t := range types {
		m[t] = true
	}
	return m
}

// skipTypeExpr consumes a type expression — base name, dotted
// qualification, bracketed type-argument list, parenthesized tuple type —
// without interpreting it, stopping once paren/bracket depth returns to 0
// and the current token is one of terminators.
func (p *Parser) skipTypeExpr(terminators map[lexer.TokenType]bool) error {
	depth := 0
	for {
		t := p.cur()
		if t.Type == lexer.EOF {
			return p.errorf(t, "type expression")
		}
		if depth == 0 && terminators[t.Type] {
			return nil
		}
		switch t.Type {
		case lexer.LPAREN, lexer.LBRACKET:
			depth++
		case lexer.RPAREN, lexer.RBRACKET:
			if depth == 0 {
				return nil
			}
			depth--
		}
		p.advance()
	}
}

func (p *Parser) skipBalanced(open, close lexer.TokenType) error {
	depth := 1
	for depth > 0 {
		t := p.advance()
		if t.Type == lexer.EOF {
			return p.errorf(t, fmt.Sprintf("closing %q", close))
		}
		if t.Type == open {
			depth++
		} else if t.Type == close {
			depth--
		}
	}
	return nil
}

func (p *Parser) skipTypeDeclaration() error {
	p.advance() // 'type'
	if _, err := p.expect(lexer.IDENT, "type name"); err != nil {
		return err
	}
	if p.cur().Type == lexer.LBRACKET {
		p.advance()
		if err := p.skipBalanced(lexer.LBRACKET, lexer.RBRACKET); err != nil {
			return err
		}
	}
	if _, err := p.expect(lexer.LBRACE, "{"); err != nil {
		return err
	}
	return p.skipBalanced(lexer.LBRACE, lexer.RBRACE)
}

func (p *Parser) skipUse() error {
	p.advance() // 'use'
	for p.cur().Type != lexer.SEMI && p.cur().Type != lexer.EOF {
		p.advance()
	}
	if p.cur().Type == lexer.SEMI {
		p.advance()
	}
	return nil
}

func (p *Parser) skipModuleBlock() error {
	p.advance() // 'module'
	if _, _, err := p.parseQualifiedName(); err != nil {
		return err
	}
	if _, err := p.expect(lexer.LBRACE, "{"); err != nil {
		return err
	}
	return p.skipBalanced(lexer.LBRACE, lexer.RBRACE)
}

// --- Expressions -------------------------------------------------------

// dunder maps binary operator tokens to the foreign-symbol-style call name
// the single left-to-right precedence level desugars them into (spec.md
// §4.3 rule 2; there is no operator precedence beyond this one level).
var dunder = map[lexer.TokenType]string{
	lexer.APPEND:  "__concat__",
	lexer.PLUS:    "__add__",
	lexer.MINUS:   "__sub__",
	lexer.STAR:    "__mul__",
	lexer.SLASH:   "__div__",
	lexer.PERCENT: "__mod__",
	lexer.EQ:      "__eq__",
	lexer.NEQ:     "__neq__",
	lexer.GTE:     "__gte__",
	lexer.LTE:     "__lte__",
	lexer.GT:      "__gt__",
	lexer.LT:      "__lt__",
	lexer.AND:     "__and__",
	lexer.OR:      "__or__",
}

func (p *Parser) parseExpr() (ast.Expr, error) {
	if p.isIdent(kwLet) {
		return p.parseLetIn()
	}
	return p.parseOpChain(false)
}

// parseExprNoBlock behaves like parseExpr but refuses a bare `{ … }` block
// as a primary — used for if/match scrutinees so the following `{` is
// unambiguously the then/arms block, not a block expression.
func (p *Parser) parseExprNoBlock() (ast.Expr, error) {
	if p.isIdent(kwLet) {
		return p.parseLetIn()
	}
	return p.parseOpChain(true)
}

func (p *Parser) parseOpChain(noBlock bool) (ast.Expr, error) {
	left, err := p.parsePrimary(noBlock)
	if err != nil {
		return nil, err
	}
	for {
		op, ok := dunder[p.cur().Type]
		if !ok {
			return left, nil
		}
		opTok := p.advance()
		right, err := p.parsePrimary(noBlock)
		if err != nil {
			return nil, err
		}
		left = &ast.Call{FuncName: op, Args: []ast.Expr{left, right}, Pos: posOf(opTok)}
	}
}

func (p *Parser) parseLetIn() (ast.Expr, error) {
	tok := p.advance() // 'let'
	name, err := p.expect(lexer.IDENT, "identifier")
	if err != nil {
		return nil, err
	}
	if p.cur().Type == lexer.COLON {
		p.advance()
		if err := p.skipTypeExpr(tset(lexer.ASSIGN)); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.ASSIGN, "="); err != nil {
		return nil, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectIdent(kwIn); err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.LetInExpr{Name: name.Text, Value: value, Body: body, Pos: posOf(tok)}, nil
}

func posOf(t lexer.Token) ast.Pos {
	return ast.Pos{File: t.File, Line: t.Line, Column: t.Column, Offset: t.Offset}
}

func (p *Parser) parsePrimary(noBlock bool) (ast.Expr, error) {
	tok := p.cur()
	switch {
	case tok.Type == lexer.INT:
		p.advance()
		n, err := strconv.ParseInt(tok.Text, 10, 64)
		if err != nil {
			return nil, p.errorf(tok, "integer literal")
		}
		return &ast.IntLit{Value: n, Pos: posOf(tok)}, nil

	case tok.Type == lexer.STRING:
		p.advance()
		return &ast.StrLit{Value: tok.Text, Pos: posOf(tok)}, nil

	case tok.Type == lexer.IDENT && tok.Text == kwTrue:
		p.advance()
		return &ast.BoolLit{Value: true, Pos: posOf(tok)}, nil

	case tok.Type == lexer.IDENT && tok.Text == kwFalse:
		p.advance()
		return &ast.BoolLit{Value: false, Pos: posOf(tok)}, nil

	case tok.Type == lexer.IDENT && tok.Text == kwProj && p.peekN(1).Type == lexer.LPAREN:
		return p.parseProj()

	case tok.Type == lexer.IDENT && tok.Text == kwIf:
		return p.parseIf()

	case tok.Type == lexer.IDENT && tok.Text == kwMatch:
		return p.parseMatch()

	case !noBlock && tok.Type == lexer.LBRACE:
		p.advance()
		return p.parseBlockBody()

	case tok.Type == lexer.LPAREN:
		return p.parseParenOrTuple()

	case tok.Type == lexer.IDENT:
		return p.parseIdentExpr()
	}
	return nil, p.errorf(tok, "expression")
}

func (p *Parser) parseProj() (ast.Expr, error) {
	tok := p.advance() // 'proj'
	p.advance()         // '('
	target, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.COMMA, ","); err != nil {
		return nil, err
	}
	idxTok, err := p.expect(lexer.INT, "non-negative integer")
	if err != nil {
		return nil, err
	}
	idx, err := strconv.ParseInt(idxTok.Text, 10, 64)
	if err != nil || idx < 0 {
		return nil, p.errorf(idxTok, "non-negative integer")
	}
	if _, err := p.expect(lexer.RPAREN, ")"); err != nil {
		return nil, err
	}
	return &ast.ProjExpr{Target: target, Index: idx, Pos: posOf(tok)}, nil
}

func (p *Parser) parseParenOrTuple() (ast.Expr, error) {
	tok := p.advance() // '('
	if p.cur().Type == lexer.RPAREN {
		p.advance()
		return &ast.UnitLit{Pos: posOf(tok)}, nil
	}
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.cur().Type != lexer.COMMA {
		if _, err := p.expect(lexer.RPAREN, ")"); err != nil {
			return nil, err
		}
		return first, nil
	}
	elems := []ast.Expr{first}
	for p.cur().Type == lexer.COMMA {
		p.advance()
		if p.cur().Type == lexer.RPAREN {
			break
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	if _, err := p.expect(lexer.RPAREN, ")"); err != nil {
		return nil, err
	}
	return &ast.TupleExpr{Elems: elems, Pos: posOf(tok)}, nil
}

// isCapitalized reports whether the final segment of a (possibly
// qualified) name starts with an uppercase letter — the surface signal
// that distinguishes a struct literal / enum constructor from a call.
func isCapitalized(name string) bool {
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

func (p *Parser) parseIdentExpr() (ast.Expr, error) {
	name, pos, err := p.parseQualifiedName()
	if err != nil {
		return nil, err
	}
	switch {
	case isCapitalized(name) && p.cur().Type == lexer.LBRACE:
		return p.parseStructLit(name, pos)

	case p.cur().Type == lexer.LPAREN:
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		return &ast.Call{FuncName: name, Args: args, Pos: pos}, nil

	default:
		return &ast.Ident{Name: name, Pos: pos}, nil
	}
}

func (p *Parser) parseArgs() ([]ast.Expr, error) {
	p.advance() // '('
	var args []ast.Expr
	for p.cur().Type != lexer.RPAREN {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, e)
		if p.cur().Type == lexer.COMMA {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RPAREN, ")"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parseStructLit(typeName string, pos ast.Pos) (ast.Expr, error) {
	p.advance() // '{'
	var fields []ast.FieldInit
	for p.cur().Type != lexer.RBRACE {
		nameTok, err := p.expect(lexer.IDENT, "field name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.COLON, ":"); err != nil {
			return nil, err
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		fields = append(fields, ast.FieldInit{Name: nameTok.Text, Value: value})
		if p.cur().Type == lexer.COMMA {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(lexer.RBRACE, "}"); err != nil {
		return nil, err
	}
	return &ast.StructLit{TypeName: typeName, Fields: fields, Pos: pos}, nil
}

func (p *Parser) parseIf() (ast.Expr, error) {
	tok := p.advance() // 'if'
	cond, err := p.parseExprNoBlock()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LBRACE, "{"); err != nil {
		return nil, err
	}
	then, err := p.parseBlockBody()
	if err != nil {
		return nil, err
	}
	if err := p.expectIdent(kwElse); err != nil {
		return nil, err
	}
	var elseExpr ast.Expr
	if p.isIdent(kwIf) {
		elseExpr, err = p.parseIf()
		if err != nil {
			return nil, err
		}
	} else {
		if _, err := p.expect(lexer.LBRACE, "{"); err != nil {
			return nil, err
		}
		elseExpr, err = p.parseBlockBody()
		if err != nil {
			return nil, err
		}
	}
	return &ast.IfExpr{Cond: cond, Then: then, Else: elseExpr, Pos: posOf(tok)}, nil
}

func (p *Parser) parseMatch() (ast.Expr, error) {
	tok := p.advance() // 'match'
	scrut, err := p.parseExprNoBlock()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LBRACE, "{"); err != nil {
		return nil, err
	}
	var arms []ast.MatchArm
	for p.cur().Type != lexer.RBRACE {
		patSrc, err := p.parsePatternSource()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.FARROW, "=>"); err != nil {
			return nil, err
		}
		body, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		arms = append(arms, ast.MatchArm{PatternSrc: patSrc, Body: body})
		if p.cur().Type == lexer.COMMA {
			p.advance()
		}
	}
	if _, err := p.expect(lexer.RBRACE, "}"); err != nil {
		return nil, err
	}
	return &ast.MatchExpr{Scrutinee: scrut, Arms: arms, Pos: posOf(tok)}, nil
}

// noSpaceAround are token types that suppress surrounding whitespace when
// joined into a pattern source string (spec.md §4.3: ". :: ( ) ,").
var noSpaceAround = tset(lexer.DOT, lexer.DCOLON, lexer.LPAREN, lexer.RPAREN, lexer.COMMA)

// parsePatternSource collects tokens up to (not including) the arm's '=>'
// into a single joined string, to be re-parsed structurally by
// internal/lower (spec.md §4.4 last bullet).
func (p *Parser) parsePatternSource() (string, error) {
	var b strings.Builder
	depth := 0
	prevSuppressed := true
	for {
		t := p.cur()
		if t.Type == lexer.EOF {
			return "", p.errorf(t, "=>")
		}
		if depth == 0 && t.Type == lexer.FARROW {
			return b.String(), nil
		}
		switch t.Type {
		case lexer.LPAREN:
			depth++
		case lexer.RPAREN:
			depth--
		}
		suppress := noSpaceAround[t.Type]
		if b.Len() > 0 && !suppress && !prevSuppressed {
			b.WriteByte(' ')
		}
		b.WriteString(t.Text)
		prevSuppressed = suppress
		p.advance()
	}
}

// --- Blocks / statements -------------------------------------------------

// parseBlockBody parses statements up to and including the closing '}'
// (the opening '{' must already be consumed by the caller).
func (p *Parser) parseBlockBody() (*ast.Block, error) {
	startPos := posOf(p.cur())
	var stmts []ast.Stmt
	for p.cur().Type != lexer.RBRACE {
		if p.cur().Type == lexer.EOF {
			return nil, p.errorf(p.cur(), "}")
		}
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	p.advance() // '}'
	return &ast.Block{Stmts: stmts, Pos: startPos}, nil
}

// parseStmt disambiguates a let-in tail expression from a block-level let
// statement by scanning ahead at paren/bracket/brace depth 0 for an 'in'
// vs ';' sentinel (spec.md §4.3's explicit disambiguation rule).
func (p *Parser) parseStmt() (ast.Stmt, error) {
	if p.isIdent(kwLet) && !p.letIsExpressionForm() {
		return p.parseLetStmt()
	}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.cur().Type == lexer.SEMI {
		p.advance()
	}
	return &ast.ExprStmt{Value: e, Pos: e.Position()}, nil
}

func (p *Parser) letIsExpressionForm() bool {
	depth := 0
	for i := p.pos + 1; i < len(p.toks); i++ {
		t := p.toks[i]
		switch t.Type {
		case lexer.LPAREN, lexer.LBRACKET:
			depth++
		case lexer.RPAREN, lexer.RBRACKET:
			if depth == 0 {
				return false
			}
			depth--
		case lexer.LBRACE:
			if depth == 0 {
				return false
			}
		case lexer.SEMI:
			if depth == 0 {
				return false
			}
		case lexer.IDENT:
			if depth == 0 && t.Text == kwIn {
				return true
			}
		case lexer.EOF:
			return false
		}
	}
	return false
}

func (p *Parser) parseLetStmt() (ast.Stmt, error) {
	tok := p.advance() // 'let'
	if p.cur().Type == lexer.IDENT && p.peekN(1).Type == lexer.LPAREN && isCapitalized(p.cur().Text) {
		ctor := p.advance().Text
		p.advance() // '('
		var vars []string
		for p.cur().Type != lexer.RPAREN {
			v, err := p.expect(lexer.IDENT, "identifier")
			if err != nil {
				return nil, err
			}
			vars = append(vars, v.Text)
			if p.cur().Type == lexer.COMMA {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(lexer.RPAREN, ")"); err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.ASSIGN, "="); err != nil {
			return nil, err
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.SEMI, ";"); err != nil {
			return nil, err
		}
		return &ast.LetPatternStmt{Ctor: ctor, Vars: vars, Value: value, Pos: posOf(tok)}, nil
	}

	name, err := p.expect(lexer.IDENT, "identifier")
	if err != nil {
		return nil, err
	}
	if p.cur().Type == lexer.COLON {
		p.advance()
		if err := p.skipTypeExpr(tset(lexer.ASSIGN)); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.ASSIGN, "="); err != nil {
		return nil, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.SEMI, ";"); err != nil {
		return nil, err
	}
	return &ast.LetStmt{Name: name.Text, Value: value, Pos: posOf(tok)}, nil
}
