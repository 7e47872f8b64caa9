package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func pair(a, b Value) Value { return Tuple([]Value{a, b}) }

func TestArithmeticPrimitives(t *testing.T) {
	assert.Equal(t, Int(5), Add(pair(Int(2), Int(3))))
	assert.Equal(t, Int(-1), Sub(pair(Int(2), Int(3))))
	assert.Equal(t, Int(6), Mul(pair(Int(2), Int(3))))
	assert.Equal(t, Int(2), Div(pair(Int(7), Int(3))))
	assert.Equal(t, Int(1), Mod(pair(Int(7), Int(3))))
}

func TestDivByZeroFallsBackToZero(t *testing.T) {
	assert.Equal(t, Int(0), Div(pair(Int(7), Int(0))))
	assert.Equal(t, Int(0), Mod(pair(Int(7), Int(0))))
}

func TestIntDivCheckedDistinguishesZeroDivisor(t *testing.T) {
	got := IntDivChecked(pair(Int(6), Int(3)))
	assert.Equal(t, "Some(2)", got.String())

	got = IntDivChecked(pair(Int(6), Int(0)))
	assert.Equal(t, "None", got.String())
}

func TestComparisonPrimitives(t *testing.T) {
	assert.Equal(t, Bool(true), Eq(pair(Int(3), Int(3))))
	assert.Equal(t, Bool(false), Eq(pair(Int(3), Int(4))))
	assert.Equal(t, Bool(true), Neq(pair(Int(3), Int(4))))
	assert.Equal(t, Bool(true), Lt(pair(Int(2), Int(3))))
	assert.Equal(t, Bool(true), Gte(pair(Int(3), Int(3))))
}

func TestEqOnNestedStructuresCompareByValue(t *testing.T) {
	a := Tuple([]Value{Int(1), Str(InternStr("x"))})
	b := Tuple([]Value{Int(1), Str(InternStr("x"))})
	assert.Equal(t, Bool(true), Eq(pair(a, b)))
}

func TestStrLenAndConcat(t *testing.T) {
	s := Str(InternStr("hello"))
	assert.Equal(t, Int(5), StrLen(s))

	joined := StrConcat(pair(Str(InternStr("foo")), Str(InternStr("bar"))))
	assert.Equal(t, "foobar", GetStr(joined.Str))
}

func TestListConsReverseConcat(t *testing.T) {
	nil_ := ListNil()
	one := ListCons(pair(Int(1), nil_))
	two := ListCons(pair(Int(2), one))
	assert.Equal(t, "[2, 1]", two.String())

	rev := ListReverse(two)
	assert.Equal(t, "[1, 2]", rev.String())

	cat := ListConcat(pair(List([]Value{Int(1), Int(2)}), List([]Value{Int(3)})))
	assert.Equal(t, "[1, 2, 3]", cat.String())
}

func TestTupleFieldAndCtorFieldProjections(t *testing.T) {
	tup := Tuple([]Value{Int(10), Int(20), Int(30)})
	got := TupleField(pair(tup, Int(1)))
	assert.Equal(t, Int(20), got)

	c := Ctor(InternTag("Pair"), []Value{Int(1), Int(2)})
	got = CtorField(pair(c, Int(0)))
	assert.Equal(t, Int(1), got)
}
