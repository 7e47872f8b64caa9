package core

import (
	"fmt"
	"sort"
	"strings"
)

// Inspect renders prog as a deterministic textual DAG (spec.md §6.1's
// `--view-core-ir`, §8.1's "Iterative DAG inspector stability" property):
// each distinct node (by NodeID, not structural equality) is defined
// once, in first-visit order, and every later occurrence of the same
// node — including genuine sharing introduced by a DAG-producing pass —
// is printed as a `#<id>` back-reference instead of being re-expanded.
// A tree with no shared sub-terms (the common case; nothing upstream of
// C8 currently constructs sharing) simply prints every node once in a
// single pre-order pass, which is already deterministic by construction.
func Inspect(prog *Program) string {
	ins := &inspector{defined: make(map[NodeID]bool)}
	var b strings.Builder
	fmt.Fprintf(&b, "functions: %s\n", strings.Join(prog.FuncNames, ", "))
	ins.term(&b, prog.Root, 0)
	return b.String()
}

type inspector struct {
	defined map[NodeID]bool
}

func indent(n int) string { return strings.Repeat("  ", n) }

func (ins *inspector) term(b *strings.Builder, t Term, depth int) {
	id := t.ID()
	if ins.defined[id] {
		fmt.Fprintf(b, "%s#%d (ref)\n", indent(depth), id)
		return
	}
	ins.defined[id] = true

	switch v := t.(type) {
	case *IntLit:
		fmt.Fprintf(b, "%s#%d IntLit %d\n", indent(depth), id, v.Value)
	case *BoolLit:
		fmt.Fprintf(b, "%s#%d BoolLit %t\n", indent(depth), id, v.Value)
	case *UnitLit:
		fmt.Fprintf(b, "%s#%d UnitLit\n", indent(depth), id)
	case *StrLit:
		fmt.Fprintf(b, "%s#%d StrLit %q\n", indent(depth), id, v.Value)
	case *Var:
		fmt.Fprintf(b, "%s#%d Var %s\n", indent(depth), id, v.Name)
	case *Lam:
		fmt.Fprintf(b, "%s#%d Lam %s\n", indent(depth), id, v.Param)
		ins.term(b, v.Body, depth+1)
	case *App:
		fmt.Fprintf(b, "%s#%d App\n", indent(depth), id)
		ins.term(b, v.Fn, depth+1)
		ins.term(b, v.Arg, depth+1)
	case *Let:
		fmt.Fprintf(b, "%s#%d Let %s\n", indent(depth), id, v.Name)
		ins.term(b, v.Value, depth+1)
		ins.term(b, v.Body, depth+1)
	case *If:
		fmt.Fprintf(b, "%s#%d If\n", indent(depth), id)
		ins.term(b, v.Cond, depth+1)
		ins.term(b, v.Then, depth+1)
		ins.term(b, v.Else, depth+1)
	case *Tuple:
		fmt.Fprintf(b, "%s#%d Tuple(%d)\n", indent(depth), id, len(v.Elems))
		for _, e := range v.Elems {
			ins.term(b, e, depth+1)
		}
	case *Proj:
		fmt.Fprintf(b, "%s#%d Proj %d\n", indent(depth), id, v.Index)
		ins.term(b, v.Target, depth+1)
	case *Ctor:
		fmt.Fprintf(b, "%s#%d Ctor %s(%d)\n", indent(depth), id, v.Tag, len(v.Fields))
		for _, f := range v.Fields {
			ins.term(b, f, depth+1)
		}
	case *Match:
		fmt.Fprintf(b, "%s#%d Match\n", indent(depth), id)
		ins.term(b, v.Scrutinee, depth+1)
		for i, arm := range v.Arms {
			fmt.Fprintf(b, "%s  arm[%d] %s =>\n", indent(depth), i, arm.Pattern)
			ins.term(b, arm.Body, depth+2)
		}
	default:
		fmt.Fprintf(b, "%s#%d <unknown>\n", indent(depth), id)
	}
}

// SortedFuncNames returns a sorted copy of names, used only for
// diagnostics that want a stable order independent of declaration order
// (declaration order itself is preserved in Program.FuncNames).
func SortedFuncNames(names []string) []string {
	out := append([]string(nil), names...)
	sort.Strings(out)
	return out
}
