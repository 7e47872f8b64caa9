package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInternStrIsStableAndDeduplicates(t *testing.T) {
	a := InternStr("hello")
	b := InternStr("hello")
	c := InternStr("world")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, "hello", GetStr(a))
}

func TestInternStrHandleZeroIsEmptyString(t *testing.T) {
	assert.Equal(t, "", GetStr(0))
}

func TestGetStrUnknownHandleReturnsEmpty(t *testing.T) {
	assert.Equal(t, "", GetStr(999999))
}

func TestGetTagNameUnknownHandleReturnsUnknown(t *testing.T) {
	assert.Equal(t, "Unknown", GetTagName(999999))
}

func TestTruthy(t *testing.T) {
	assert.True(t, Truthy(Bool(true)))
	assert.False(t, Truthy(Bool(false)))
	assert.True(t, Truthy(Int(1)))
	assert.False(t, Truthy(Int(0)))
	assert.False(t, Truthy(Unit()))
	assert.False(t, Truthy(Tuple(nil)))
	assert.True(t, Truthy(Tuple([]Value{Int(1)})))
	assert.True(t, Truthy(Ctor(InternTag("Some"), []Value{Int(1)})))
}

func TestValueStringRendersEachKind(t *testing.T) {
	assert.Equal(t, "42", Int(42).String())
	assert.Equal(t, "true", Bool(true).String())
	assert.Equal(t, "()", Unit().String())
	assert.Equal(t, "hi", Str(InternStr("hi")).String())
	assert.Equal(t, "(1, 2)", Tuple([]Value{Int(1), Int(2)}).String())
	assert.Equal(t, "Some(1)", Ctor(InternTag("Some"), []Value{Int(1)}).String())
}
