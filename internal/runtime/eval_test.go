package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/christaylor98/axis-core/internal/ast"
	"github.com/christaylor98/axis-core/internal/core"
)

var noSpan = ast.Pos{}

func TestRunEntryAppliesNamedTopLevelFunction(t *testing.T) {
	double := core.MkLam(noSpan, "x", core.MkIf(noSpan,
		core.MkBool(noSpan, true),
		core.MkVar(noSpan, "x"),
		core.MkVar(noSpan, "x")))
	root := core.MkLet(noSpan, "identity", double, core.MkUnit(noSpan))
	prog := &core.Program{Root: root, FuncNames: []string{"identity"}}

	got, err := RunEntry(prog, "identity", Int(41))
	require.NoError(t, err)
	assert.Equal(t, Int(41), got)
}

func TestRunEntryUnknownEntryPointErrors(t *testing.T) {
	prog := &core.Program{Root: core.MkUnit(noSpan)}
	_, err := RunEntry(prog, "missing", Unit())
	assert.Error(t, err)
}

func TestEvalIfBranchesOnTruthiness(t *testing.T) {
	term := core.MkIf(noSpan, core.MkBool(noSpan, false), core.MkInt(noSpan, 1), core.MkInt(noSpan, 2))
	got, err := Eval(term, EmptyEnv())
	require.NoError(t, err)
	assert.Equal(t, Int(2), got)
}

func TestEvalTupleProjectionIsOneBased(t *testing.T) {
	tup := core.MkTuple(noSpan, []core.Term{core.MkInt(noSpan, 10), core.MkInt(noSpan, 20)})
	term := core.MkProj(noSpan, tup, 2)
	got, err := Eval(term, EmptyEnv())
	require.NoError(t, err)
	assert.Equal(t, Int(20), got)
}

func TestEvalUnboundVariableErrors(t *testing.T) {
	_, err := Eval(core.MkVar(noSpan, "nope"), EmptyEnv())
	assert.Error(t, err)
}

func TestEvalMatchBindsPatternVariables(t *testing.T) {
	scrutinee := core.MkTuple(noSpan, []core.Term{core.MkInt(noSpan, 1), core.MkInt(noSpan, 2)})
	arm := core.Arm{
		Pattern: core.PTuple{Elems: []core.Pattern{core.PVar{Name: "a"}, core.PVar{Name: "b"}}},
		Body:    core.MkVar(noSpan, "b"),
	}
	term := core.MkMatch(noSpan, scrutinee, []core.Arm{arm})
	got, err := Eval(term, EmptyEnv())
	require.NoError(t, err)
	assert.Equal(t, Int(2), got)
}

func TestEvalNonExhaustiveMatchErrors(t *testing.T) {
	scrutinee := core.MkInt(noSpan, 5)
	arm := core.Arm{Pattern: core.PInt{Value: 1}, Body: core.MkInt(noSpan, 0)}
	term := core.MkMatch(noSpan, scrutinee, []core.Arm{arm})
	_, err := Eval(term, EmptyEnv())
	assert.Error(t, err)
}

func TestEvalLambdaApplication(t *testing.T) {
	lam := core.MkLam(noSpan, "x", core.MkVar(noSpan, "x"))
	app := core.MkApp(noSpan, lam, core.MkInt(noSpan, 7))
	got, err := Eval(app, EmptyEnv())
	require.NoError(t, err)
	assert.Equal(t, Int(7), got)
}
