package runtime

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
)

// This file is the unary-contract shim (spec.md §4.7): every primitive
// below takes exactly one Value and returns exactly one Value. Multi-
// argument operations destructure their single Tuple argument
// internally; mismatched shapes fall back to a zero/default result for
// arithmetic/comparison primitives (matching the original's
// generate_value_runtime() fallback arms) or an Err-constructor for I/O,
// never a panic, except where a checked/unchecked pair is explicitly
// documented to diverge (spec.md §9 "checked-vs-unchecked collapse is a
// bug").

func pairInts(args Value) (int64, int64, bool) {
	if args.Kind != KindTuple || len(args.Elems) < 2 {
		return 0, 0, false
	}
	a, b := args.Elems[0], args.Elems[1]
	if a.Kind != KindInt || b.Kind != KindInt {
		return 0, 0, false
	}
	return a.Int, b.Int, true
}

// Add implements `+` / `__add__`.
func Add(args Value) Value {
	x, y, ok := pairInts(args)
	if !ok {
		return Int(0)
	}
	return Int(x + y)
}

// Sub implements `-` / `__sub__`.
func Sub(args Value) Value {
	x, y, ok := pairInts(args)
	if !ok {
		return Int(0)
	}
	return Int(x - y)
}

// Mul implements `*` / `__mul__`.
func Mul(args Value) Value {
	x, y, ok := pairInts(args)
	if !ok {
		return Int(0)
	}
	return Int(x * y)
}

// Div implements `/` / `__div__`: division by zero falls back to 0,
// matching the original's unchecked variant. IntDivChecked below is the
// safe counterpart spec.md §9 calls out by name.
func Div(args Value) Value {
	x, y, ok := pairInts(args)
	if !ok || y == 0 {
		return Int(0)
	}
	return Int(x / y)
}

// Mod implements `%` / `__mod__`.
func Mod(args Value) Value {
	x, y, ok := pairInts(args)
	if !ok || y == 0 {
		return Int(0)
	}
	return Int(x % y)
}

// IntDivChecked returns Some(x/y) or None on a zero divisor — the safe
// counterpart to Div that spec.md §9's design notes name explicitly.
func IntDivChecked(args Value) Value {
	x, y, ok := pairInts(args)
	if !ok || y == 0 {
		return none()
	}
	return some(Int(x / y))
}

func valuesEqual(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindInt:
		return a.Int == b.Int
	case KindBool:
		return a.Bool == b.Bool
	case KindStr:
		return a.Str == b.Str
	case KindUnit:
		return true
	case KindTuple, KindList:
		if len(a.Elems) != len(b.Elems) {
			return false
		}
		for i := range a.Elems {
			if !valuesEqual(a.Elems[i], b.Elems[i]) {
				return false
			}
		}
		return true
	case KindCtor:
		if a.Tag != b.Tag || len(a.Fields) != len(b.Fields) {
			return false
		}
		for i := range a.Fields {
			if !valuesEqual(a.Fields[i], b.Fields[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Eq implements `==` / `__eq__`.
func Eq(args Value) Value {
	if args.Kind != KindTuple || len(args.Elems) < 2 {
		return Bool(false)
	}
	return Bool(valuesEqual(args.Elems[0], args.Elems[1]))
}

// Neq implements `!=` / `__neq__`.
func Neq(args Value) Value {
	b := Eq(args)
	return Bool(!b.Bool)
}

// Lt implements `<` / `__lt__`.
func Lt(args Value) Value {
	x, y, ok := pairInts(args)
	if !ok {
		return Bool(false)
	}
	return Bool(x < y)
}

// Lte implements `<=` / `__lte__`.
func Lte(args Value) Value {
	x, y, ok := pairInts(args)
	if !ok {
		return Bool(false)
	}
	return Bool(x <= y)
}

// Gt implements `>` / `__gt__`.
func Gt(args Value) Value {
	x, y, ok := pairInts(args)
	if !ok {
		return Bool(false)
	}
	return Bool(x > y)
}

// Gte implements `>=` / `__gte__`.
func Gte(args Value) Value {
	x, y, ok := pairInts(args)
	if !ok {
		return Bool(false)
	}
	return Bool(x >= y)
}

// And implements `&&` / `__and__`.
func And(args Value) Value {
	if args.Kind != KindTuple || len(args.Elems) < 2 {
		return Bool(false)
	}
	return Bool(Truthy(args.Elems[0]) && Truthy(args.Elems[1]))
}

// Or implements `||` / `__or__`.
func Or(args Value) Value {
	if args.Kind != KindTuple || len(args.Elems) < 2 {
		return Bool(false)
	}
	return Bool(Truthy(args.Elems[0]) || Truthy(args.Elems[1]))
}

// Not implements `!` / `__not__`.
func Not(a Value) Value { return Bool(!Truthy(a)) }

// --- string primitives ---

// StrLen returns a string's byte length (Axis strings are opaque
// interned handles; length is measured in the handle's stored bytes).
func StrLen(s Value) Value {
	if s.Kind != KindStr {
		return Int(0)
	}
	return Int(int64(len(GetStr(s.Str))))
}

// StrChar is the unchecked indexed-character accessor: out-of-range
// input panics. StrCharAt is the checked counterpart, returning
// Some/None — spec.md §9 requires these to diverge rather than collapse
// into one implementation.
func StrChar(args Value) Value {
	if args.Kind != KindTuple || len(args.Elems) < 2 {
		panic("str_char: expected (Str, Int) argument")
	}
	s, idx := args.Elems[0], args.Elems[1]
	if s.Kind != KindStr || idx.Kind != KindInt {
		panic("str_char: expected (Str, Int) argument")
	}
	runes := []rune(GetStr(s.Str))
	if idx.Int < 0 || int(idx.Int) >= len(runes) {
		panic(fmt.Sprintf("str_char: index %d out of range (len %d)", idx.Int, len(runes)))
	}
	return Int(int64(runes[idx.Int]))
}

// StrCharAt is the safe counterpart to StrChar: out-of-range input
// yields None instead of panicking.
func StrCharAt(args Value) Value {
	if args.Kind != KindTuple || len(args.Elems) < 2 {
		return none()
	}
	s, idx := args.Elems[0], args.Elems[1]
	if s.Kind != KindStr || idx.Kind != KindInt {
		return none()
	}
	runes := []rune(GetStr(s.Str))
	if idx.Int < 0 || int(idx.Int) >= len(runes) {
		return none()
	}
	return some(Int(int64(runes[idx.Int])))
}

// StrSlice returns the substring [start, end) of s, clamped to the
// string's rune length.
func StrSlice(args Value) Value {
	if args.Kind != KindTuple || len(args.Elems) < 3 {
		return Str(0)
	}
	s, start, end := args.Elems[0], args.Elems[1], args.Elems[2]
	if s.Kind != KindStr || start.Kind != KindInt || end.Kind != KindInt {
		return Str(0)
	}
	runes := []rune(GetStr(s.Str))
	lo := clampIndex(start.Int, len(runes))
	hi := clampIndex(end.Int, len(runes))
	if hi < lo {
		hi = lo
	}
	return Str(InternStr(string(runes[lo:hi])))
}

func clampIndex(i int64, n int) int {
	if i < 0 {
		return 0
	}
	if int(i) > n {
		return n
	}
	return int(i)
}

// StrToInt parses s as a base-10 integer, defaulting to 0 on failure —
// the original's behavior (unwrap_or(0)).
func StrToInt(s Value) Value {
	if s.Kind != KindStr {
		return Int(0)
	}
	n, err := strconv.ParseInt(GetStr(s.Str), 10, 64)
	if err != nil {
		return Int(0)
	}
	return Int(n)
}

// StrConcat implements `str_concat` and, via Concat, `++` / `__concat__`.
func StrConcat(args Value) Value {
	if args.Kind != KindTuple || len(args.Elems) < 2 {
		return Str(0)
	}
	a, b := args.Elems[0], args.Elems[1]
	if a.Kind != KindStr || b.Kind != KindStr {
		return Str(0)
	}
	return Str(InternStr(GetStr(a.Str) + GetStr(b.Str)))
}

// Concat implements `++` / `__concat__`, an alias over StrConcat.
func Concat(args Value) Value { return StrConcat(args) }

// IntToStr renders n's decimal form as an interned string.
func IntToStr(n Value) Value {
	if n.Kind != KindInt {
		return Str(InternStr("<not-an-int>"))
	}
	return Str(InternStr(strconv.FormatInt(n.Int, 10)))
}

// --- list primitives ---

func ListNil() Value { return List(nil) }

// ListCons implements `Cons(head, tail)` at the primitive level: a
// two-element Tuple argument (head, list).
func ListCons(args Value) Value {
	if args.Kind != KindTuple || len(args.Elems) < 2 {
		return List(nil)
	}
	head, tail := args.Elems[0], args.Elems[1]
	if tail.Kind != KindList {
		return List([]Value{head})
	}
	out := make([]Value, 0, len(tail.Elems)+1)
	out = append(out, head)
	out = append(out, tail.Elems...)
	return List(out)
}

// ListReverse reverses a list, leaving non-lists untouched as an empty
// list (matching the original's fallback).
func ListReverse(list Value) Value {
	if list.Kind != KindList {
		return List(nil)
	}
	out := make([]Value, len(list.Elems))
	for i, v := range list.Elems {
		out[len(list.Elems)-1-i] = v
	}
	return List(out)
}

// ListConcat appends two lists.
func ListConcat(args Value) Value {
	if args.Kind != KindTuple || len(args.Elems) < 2 {
		return List(nil)
	}
	a, b := args.Elems[0], args.Elems[1]
	switch {
	case a.Kind == KindList && b.Kind == KindList:
		out := make([]Value, 0, len(a.Elems)+len(b.Elems))
		out = append(out, a.Elems...)
		out = append(out, b.Elems...)
		return List(out)
	case a.Kind == KindList:
		return List(a.Elems)
	case b.Kind == KindList:
		return List(b.Elems)
	default:
		return List(nil)
	}
}

// ListContainsStr reports whether a list of Str values contains needle.
func ListContainsStr(args Value) Value {
	if args.Kind != KindTuple || len(args.Elems) < 2 {
		return Bool(false)
	}
	list, needle := args.Elems[0], args.Elems[1]
	if needle.Kind != KindStr || list.Kind != KindList {
		return Bool(false)
	}
	target := GetStr(needle.Str)
	for _, e := range list.Elems {
		if e.Kind == KindStr && GetStr(e.Str) == target {
			return Bool(true)
		}
	}
	return Bool(false)
}

// ListIndexOfStr returns the index of needle in a list of Str values,
// or -1 if absent.
func ListIndexOfStr(args Value) Value {
	if args.Kind != KindTuple || len(args.Elems) < 2 {
		return Int(-1)
	}
	list, needle := args.Elems[0], args.Elems[1]
	if needle.Kind != KindStr || list.Kind != KindList {
		return Int(-1)
	}
	target := GetStr(needle.Str)
	for i, e := range list.Elems {
		if e.Kind == KindStr && GetStr(e.Str) == target {
			return Int(int64(i))
		}
	}
	return Int(-1)
}

// ListGet is the unchecked indexed accessor: out-of-range input panics.
// ListGetAt is the checked counterpart.
func ListGet(args Value) Value {
	if args.Kind != KindTuple || len(args.Elems) < 2 {
		panic("list_get: expected (List, Int) argument")
	}
	list, idx := args.Elems[0], args.Elems[1]
	if list.Kind != KindList || idx.Kind != KindInt {
		panic("list_get: expected (List, Int) argument")
	}
	if idx.Int < 0 || int(idx.Int) >= len(list.Elems) {
		panic(fmt.Sprintf("list_get: index %d out of range (len %d)", idx.Int, len(list.Elems)))
	}
	return list.Elems[idx.Int]
}

func ListGetAt(args Value) Value {
	if args.Kind != KindTuple || len(args.Elems) < 2 {
		return none()
	}
	list, idx := args.Elems[0], args.Elems[1]
	if list.Kind != KindList || idx.Kind != KindInt {
		return none()
	}
	if idx.Int < 0 || int(idx.Int) >= len(list.Elems) {
		return none()
	}
	return some(list.Elems[idx.Int])
}

// --- tuple / constructor field access ---

// MkTuple implements the `tuple` primitive: wraps a bare Value in a
// singleton Tuple unless it already is one.
func MkTuple(args Value) Value {
	if args.Kind == KindTuple {
		return args
	}
	return Tuple([]Value{args})
}

// TupleField implements `tuple_field`: a (Tuple, Int) argument pair
// returns the field at that 0-based index, or Unit if out of range —
// the emitter lowers `Proj(e, idx)` to `tuple_field(e, idx-1)` (§4.8).
func TupleField(args Value) Value {
	if args.Kind != KindTuple || len(args.Elems) < 2 {
		return Unit()
	}
	target, idx := args.Elems[0], args.Elems[1]
	if idx.Kind != KindInt || target.Kind != KindTuple {
		return Unit()
	}
	if idx.Int < 0 || int(idx.Int) >= len(target.Elems) {
		return Unit()
	}
	return target.Elems[idx.Int]
}

// CtorField implements `__ctor_field__`'s runtime counterpart: a
// (Ctor, Int) argument pair returns the field at that 0-based index.
func CtorField(args Value) Value {
	if args.Kind != KindTuple || len(args.Elems) < 2 {
		return Unit()
	}
	target, idx := args.Elems[0], args.Elems[1]
	if idx.Kind != KindInt || target.Kind != KindCtor {
		return Unit()
	}
	if idx.Int < 0 || int(idx.Int) >= len(target.Fields) {
		return Unit()
	}
	return target.Fields[idx.Int]
}

// --- I/O primitives ---

func renderForIO(v Value) string {
	switch v.Kind {
	case KindStr:
		return GetStr(v.Str)
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindUnit:
		return "()"
	default:
		return v.String()
	}
}

func IoPrint(v Value) Value {
	fmt.Print(renderForIO(v))
	return Unit()
}

func IoEprint(v Value) Value {
	fmt.Fprint(os.Stderr, renderForIO(v))
	return Unit()
}

// DebugTrace writes v to stderr only when AXIS_TRACE=1 — observational,
// non-semantic (spec.md §6.6).
func DebugTrace(v Value) Value {
	if os.Getenv("AXIS_TRACE") == "1" {
		fmt.Fprintln(os.Stderr, renderForIO(v))
	}
	return Unit()
}

var stdinReader = bufio.NewReader(os.Stdin)

func IoRead(Value) Value {
	line, _ := stdinReader.ReadString('\n')
	return Str(InternStr(line))
}

func FsReadText(path Value) Value {
	if path.Kind != KindStr {
		return errV("Invalid path")
	}
	data, err := os.ReadFile(GetStr(path.Str))
	if err != nil {
		return errV(err.Error())
	}
	return ok(Str(InternStr(string(data))))
}

// FsWriteText implements `fs_write_text`: unary contract, so its two
// logical arguments arrive packed in a Tuple.
func FsWriteText(args Value) Value {
	if args.Kind != KindTuple || len(args.Elems) < 2 {
		return errV("Invalid arguments")
	}
	path, content := args.Elems[0], args.Elems[1]
	if path.Kind != KindStr || content.Kind != KindStr {
		return errV("Invalid arguments")
	}
	if err := os.WriteFile(GetStr(path.Str), []byte(GetStr(content.Str)), 0o644); err != nil {
		return errV(err.Error())
	}
	return ok(Unit())
}
