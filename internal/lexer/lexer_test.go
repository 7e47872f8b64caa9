package lexer

import (
	"fmt"
	"testing"

	"github.com/christaylor98/axis-core/testutil"
)

func renderTokens(toks []Token) []string {
	out := make([]string, len(toks))
	for i, tok := range toks {
		out[i] = fmt.Sprintf("%s %q", tok.Type, tok.Text)
	}
	return out
}

// TestTokenizeBasicFunctionGolden snapshots the token stream for a small
// function declaration against testdata/lexer/basic_fn.golden.json. Only
// Type and Text are captured — Line/Column/Offset are exercised directly
// in TestTokenizeTracksPosition instead, since mixing exact-position
// assertions into a golden snapshot makes every future snippet edit
// touch unrelated numbers.
func TestTokenizeBasicFunctionGolden(t *testing.T) {
	toks := Tokenize("fn add(a, b) { a + b }", "basic_fn.ax")
	testutil.CompareWithGolden(t, "lexer", "basic_fn", renderTokens(toks))
}

func TestTokenizeTracksPosition(t *testing.T) {
	toks := Tokenize("fn\nadd", "t.ax")
	if len(toks) < 2 {
		t.Fatalf("expected at least 2 tokens, got %d", len(toks))
	}
	if toks[0].Line != 1 || toks[0].Column != 1 {
		t.Errorf("expected first token at 1:1, got %d:%d", toks[0].Line, toks[0].Column)
	}
	if toks[1].Line != 2 {
		t.Errorf("expected second token on line 2 after the newline, got line %d", toks[1].Line)
	}
}

func TestTokenizeEndsWithEOF(t *testing.T) {
	toks := Tokenize("", "t.ax")
	if len(toks) != 1 || toks[0].Type != EOF {
		t.Fatalf("expected a single EOF token for empty input, got %v", toks)
	}
}

func TestTokenizeSkipsLineComments(t *testing.T) {
	toks := Tokenize("// comment\nfn", "t.ax")
	if len(toks) != 2 || toks[0].Type != IDENT || toks[0].Text != "fn" {
		t.Fatalf("expected the comment to be skipped entirely, got %v", toks)
	}
}

func TestTokenizeMultiCharOperators(t *testing.T) {
	toks := Tokenize("-> => ++ == != >= <= && || ::", "t.ax")
	want := []TokenType{ARROW, FARROW, APPEND, EQ, NEQ, GTE, LTE, AND, OR, DCOLON, EOF}
	if len(toks) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %v", len(want), len(toks), toks)
	}
	for i, typ := range want {
		if toks[i].Type != typ {
			t.Errorf("token %d: expected %s, got %s", i, typ, toks[i].Type)
		}
	}
}
