// Package runtime implements the Value model the emitted code links
// against (C7, spec.md §4.7): a single tagged-union Value type, process-
// global string/tag intern tables, and the unary-contract primitive
// shim (arithmetic, comparison, logical, string, list, tuple, and I/O
// operations) that C8-emitted source calls by name and C9 maps foreign
// names onto.
//
// Grounded on original_source/core-compiler/src/runtime_value.rs (the
// Value enum, StringTable/TagTable, truthy) and
// original_source/rust-bridge/src/runtime/value.rs (the same model plus
// the arithmetic/comparison/logical shim functions, extracted there from
// emit_rust.rs's generate_value_runtime()).
package runtime

import (
	"fmt"
	"strings"
	"sync"
)

// Kind discriminates the Value union.
type Kind int

const (
	KindInt Kind = iota
	KindBool
	KindStr
	KindUnit
	KindTuple
	KindList
	KindCtor
)

// Value is the single tagged-union type every emitted-code primitive
// operates on. The zero Value is Int(0), since KindInt is the zero Kind.
type Value struct {
	Kind   Kind
	Int    int64
	Bool   bool
	Str    uint32  // handle into the string table
	Elems  []Value // Tuple / List
	Tag    uint32  // Ctor
	Fields []Value // Ctor
}

func Int(n int64) Value   { return Value{Kind: KindInt, Int: n} }
func Bool(b bool) Value   { return Value{Kind: KindBool, Bool: b} }
func Unit() Value         { return Value{Kind: KindUnit} }
func Str(handle uint32) Value { return Value{Kind: KindStr, Str: handle} }
func Tuple(elems []Value) Value { return Value{Kind: KindTuple, Elems: elems} }
func List(elems []Value) Value  { return Value{Kind: KindList, Elems: elems} }
func Ctor(tag uint32, fields []Value) Value {
	return Value{Kind: KindCtor, Tag: tag, Fields: fields}
}

func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case KindStr:
		return GetStr(v.Str)
	case KindUnit:
		return "()"
	case KindTuple:
		return joinValues("(", v.Elems, ")")
	case KindList:
		return joinValues("[", v.Elems, "]")
	case KindCtor:
		if len(v.Fields) == 0 {
			return GetTagName(v.Tag)
		}
		return GetTagName(v.Tag) + joinValues("(", v.Fields, ")")
	default:
		return "<invalid-value>"
	}
}

func joinValues(open string, elems []Value, close string) string {
	var b strings.Builder
	b.WriteString(open)
	for i, e := range elems {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.String())
	}
	b.WriteString(close)
	return b.String()
}

// Truthy implements the §4.7 conditional-coercion rule: bools and ints
// by value, strings by handle (0, the reserved empty-string handle, is
// falsy), Unit always false, containers by non-emptiness, constructors
// always true.
func Truthy(v Value) bool {
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int != 0
	case KindStr:
		return v.Str != 0
	case KindUnit:
		return false
	case KindTuple, KindList:
		return len(v.Elems) > 0
	case KindCtor:
		return true
	default:
		return false
	}
}

// stringTable and tagTable are process-wide, monotonically growing, and
// mutex-guarded — spec.md §9's "shared runtime state" design note.
// Handle 0 is reserved for the empty string (initialized by init()).
type internTable struct {
	mu      sync.Mutex
	entries []string
	index   map[string]uint32
}

func newInternTable() *internTable {
	return &internTable{index: make(map[string]uint32)}
}

func (t *internTable) intern(s string) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if h, ok := t.index[s]; ok {
		return h
	}
	h := uint32(len(t.entries))
	t.entries = append(t.entries, s)
	t.index[s] = h
	return h
}

func (t *internTable) get(h uint32) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if int(h) >= len(t.entries) {
		return "", false
	}
	return t.entries[h], true
}

var (
	strings_ = newInternTable()
	tags_    = newInternTable()
)

func init() {
	InitRuntime()
}

// InitRuntime (re-)establishes the runtime's baseline interned state:
// handle 0 reserved for the empty string, plus the constructor tags the
// shim's Option/Result helpers rely on pre-registered so their handles
// are stable across a single process run.
func InitRuntime() {
	if _, ok := strings_.get(0); !ok {
		strings_.intern("")
	}
	for _, tag := range []string{"Unit", "Nil", "Cons", "Ok", "Err", "Some", "None"} {
		tags_.intern(tag)
	}
}

// InternStr interns s, returning its stable handle.
func InternStr(s string) uint32 { return strings_.intern(s) }

// GetStr resolves handle back to its string. An invalid handle is a
// runtime bug (the table only grows), not a user-facing condition, so
// this returns the empty string rather than erroring.
func GetStr(handle uint32) string {
	s, ok := strings_.get(handle)
	if !ok {
		return ""
	}
	return s
}

// InternTag interns a constructor tag name, returning its stable handle.
func InternTag(name string) uint32 { return tags_.intern(name) }

// GetTagName resolves a tag handle to its name. An unknown handle is
// non-fatal and returns "Unknown" (spec.md §4.7).
func GetTagName(tag uint32) string {
	s, ok := tags_.get(tag)
	if !ok {
		return "Unknown"
	}
	return s
}

// Pre-interned tag handles for the Option/Result constructors the safe
// ("_at"/"_checked") primitive variants build.
var (
	tagOk   = InternTag("Ok")
	tagErr  = InternTag("Err")
	tagSome = InternTag("Some")
	tagNone = InternTag("None")
)

func some(v Value) Value { return Ctor(tagSome, []Value{v}) }
func none() Value         { return Ctor(tagNone, nil) }
func ok(v Value) Value    { return Ctor(tagOk, []Value{v}) }
func errV(msg string) Value {
	return Ctor(tagErr, []Value{Str(InternStr(msg))})
}
