package core

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/christaylor98/axis-core/internal/ast"
)

func TestInspectDefinesEachNodeOnceAndBackReferencesRepeats(t *testing.T) {
	span := ast.Pos{File: "t.ax", Line: 1, Column: 1}
	shared := MkInt(span, 7)
	tup := MkTuple(span, []Term{shared, shared})
	prog := &Program{Root: tup, FuncNames: nil}

	out := Inspect(prog)
	if strings.Count(out, "IntLit 7") != 1 {
		t.Fatalf("expected the shared IntLit node to be defined exactly once, got:\n%s", out)
	}
	if !strings.Contains(out, "(ref)") {
		t.Fatalf("expected a back-reference line for the repeated node, got:\n%s", out)
	}
}

func TestInspectIsDeterministicAcrossRepeatedCalls(t *testing.T) {
	span := ast.Pos{File: "t.ax", Line: 1, Column: 1}
	prog := &Program{Root: MkIf(span, MkBool(span, true), MkInt(span, 1), MkInt(span, 2))}
	a := Inspect(prog)
	b := Inspect(prog)
	if a != b {
		t.Fatalf("Inspect is not deterministic across repeated calls on the same program")
	}
}

// Patterns carry no NodeID (unlike Term), so a structural comparison via
// go-cmp is exact here without needing to ignore any identity field —
// useful for asserting that pattern-construction helpers like PTuple/
// PEnum build the same shape a hand-written literal would.
func TestPatternStructuralEquality(t *testing.T) {
	built := PEnum{Tag: "Cons", Fields: []Pattern{PVar{Name: "h"}, PVar{Name: "t"}}}
	want := PEnum{Tag: "Cons", Fields: []Pattern{PVar{Name: "h"}, PVar{Name: "t"}}}
	if diff := cmp.Diff(want, built); diff != "" {
		t.Errorf("pattern mismatch (-want +got):\n%s", diff)
	}

	builtTuple := PTuple{Elems: []Pattern{PInt{Value: 1}, PVar{Name: "y"}}}
	wantTuple := PTuple{Elems: []Pattern{PInt{Value: 1}, PVar{Name: "y"}}}
	if diff := cmp.Diff(wantTuple, builtTuple); diff != "" {
		t.Errorf("tuple pattern mismatch (-want +got):\n%s", diff)
	}
}
