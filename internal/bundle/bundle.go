// Package bundle implements the Core binary codec (C6, spec.md §4.6/§6.3):
// a schema-versioned envelope (version, entrypoint name/id, string table,
// root term) wrapping a length-prefixed, self-describing record encoding
// of the Core IR.
//
// The original's on-wire format is Cap'n Proto (a schema-compiled binary
// format); reproducing that here would mean fabricating generated schema
// code, which is off the table. Instead this package hand-rolls the
// envelope framing the way Consensys-go-corset/pkg/binfile/binfile.go
// hand-rolls its own Header — fixed-width fields via encoding/binary,
// length-prefixed strings — while preserving the exact variant set, tag
// space, and per-variant field order original_source/core-compiler's
// core_loader.rs defines, so the envelope's *semantics* still match.
//
// Serialization is ordinary tree recursion (spec.md §4.6 sanctions this
// explicitly: "serialization mirrors deserialization, is straight tree
// recursion"). Deserialization of CoreTerm is the one traversal the spec
// requires to tolerate ≥10^6 nesting levels without exhausting the host
// stack, so it runs over an explicit work stack of frames instead of
// recursive descent. Pattern nesting has no equivalent depth requirement
// — match-arm patterns are bounded by surface syntax, never by a Let
// chain — so Pattern decoding stays ordinary recursion.
package bundle

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/christaylor98/axis-core/internal/ast"
	"github.com/christaylor98/axis-core/internal/core"
	axiserrors "github.com/christaylor98/axis-core/internal/errors"
)

// Version is the only schema version this codec accepts, both reading
// and writing.
const Version = "0.1"

// Bundle is the in-memory form of the §6.3 envelope.
type Bundle struct {
	Version        string
	EntrypointName string
	EntrypointID   uint32
	StringTable    []string
	Root           core.Term
}

// term tags, one byte per CoreTerm variant (§3.1).
const (
	tagIntLit byte = iota
	tagBoolLit
	tagUnitLit
	tagStrLit
	tagVar
	tagLam
	tagApp
	tagLet
	tagIf
	tagTuple
	tagProj
	tagCtor
	tagMatch
)

// pattern tags, one byte per Pattern variant (§3.1).
const (
	patInt byte = iota
	patBool
	patUnit
	patVar
	patTuple
	patEnum
)

// Serialize writes bundle to w. Spans are intentionally dropped — round
// trip is lossless modulo source spans (spec.md §4.6).
func Serialize(w io.Writer, b *Bundle) error {
	if b.Version != Version {
		msg := fmt.Sprintf("bundle: refusing to serialize unknown version %q", b.Version)
		return axiserrors.WrapReport(axiserrors.New(axiserrors.PhaseCodec, axiserrors.COD001, msg, ast.Pos{}))
	}
	bw := &byteWriter{w: w}
	bw.writeString(b.Version)
	bw.writeString(b.EntrypointName)
	bw.writeUint32(b.EntrypointID)
	bw.writeUint32(uint32(len(b.StringTable)))
	for _, s := range b.StringTable {
		bw.writeString(s)
	}
	if bw.err == nil {
		bw.err = serializeTerm(bw, b.Root)
	}
	return bw.err
}

// Deserialize reads a Bundle from data. The envelope scalars and string
// table are read linearly; core_term is decoded by the iterative
// work-stack machine in decodeTermIterative.
func Deserialize(data []byte) (*Bundle, error) {
	br := &byteReader{r: bytes.NewReader(data)}
	version := br.readString()
	if br.err != nil {
		return nil, br.err
	}
	if version != Version {
		msg := fmt.Sprintf("bundle: unsupported version %q (want %q)", version, Version)
		return nil, axiserrors.WrapReport(axiserrors.New(axiserrors.PhaseCodec, axiserrors.COD001, msg, ast.Pos{}))
	}
	name := br.readString()
	id := br.readUint32()
	n := br.readUint32()
	table := make([]string, n)
	for i := range table {
		table[i] = br.readString()
	}
	if br.err != nil {
		return nil, br.err
	}
	root, err := decodeTermIterative(br)
	if err != nil {
		return nil, err
	}
	return &Bundle{
		Version:        version,
		EntrypointName: name,
		EntrypointID:   id,
		StringTable:    table,
		Root:           root,
	}, nil
}

// --- low-level scalar framing, grounded on binfile.go's Header.MarshalBinary ---

type byteWriter struct {
	w   io.Writer
	err error
}

func (bw *byteWriter) writeByte(b byte) {
	if bw.err != nil {
		return
	}
	_, bw.err = bw.w.Write([]byte{b})
}

func (bw *byteWriter) writeUint32(v uint32) {
	if bw.err != nil {
		return
	}
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, bw.err = bw.w.Write(buf[:])
}

func (bw *byteWriter) writeInt64(v int64) {
	if bw.err != nil {
		return
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	_, bw.err = bw.w.Write(buf[:])
}

func (bw *byteWriter) writeBool(v bool) {
	if v {
		bw.writeByte(1)
	} else {
		bw.writeByte(0)
	}
}

func (bw *byteWriter) writeString(s string) {
	bw.writeUint32(uint32(len(s)))
	if bw.err != nil {
		return
	}
	_, bw.err = io.WriteString(bw.w, s)
}

type byteReader struct {
	r   *bytes.Reader
	err error
}

func (br *byteReader) readByte() byte {
	if br.err != nil {
		return 0
	}
	b, err := br.r.ReadByte()
	if err != nil {
		br.err = err
		return 0
	}
	return b
}

func (br *byteReader) readUint32() uint32 {
	if br.err != nil {
		return 0
	}
	var buf [4]byte
	if _, err := io.ReadFull(br.r, buf[:]); err != nil {
		br.err = err
		return 0
	}
	return binary.BigEndian.Uint32(buf[:])
}

func (br *byteReader) readInt64() int64 {
	if br.err != nil {
		return 0
	}
	var buf [8]byte
	if _, err := io.ReadFull(br.r, buf[:]); err != nil {
		br.err = err
		return 0
	}
	return int64(binary.BigEndian.Uint64(buf[:]))
}

func (br *byteReader) readBool() bool {
	return br.readByte() != 0
}

func (br *byteReader) readString() string {
	if br.err != nil {
		return ""
	}
	n := br.readUint32()
	if br.err != nil {
		return ""
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(br.r, buf); err != nil {
		br.err = err
		return ""
	}
	return string(buf)
}

// --- serialization: ordinary tree recursion, sanctioned by spec.md §4.6 ---

func serializeTerm(bw *byteWriter, t core.Term) error {
	if bw.err != nil {
		return bw.err
	}
	switch n := t.(type) {
	case *core.IntLit:
		bw.writeByte(tagIntLit)
		bw.writeInt64(n.Value)
	case *core.BoolLit:
		bw.writeByte(tagBoolLit)
		bw.writeBool(n.Value)
	case *core.UnitLit:
		bw.writeByte(tagUnitLit)
	case *core.StrLit:
		bw.writeByte(tagStrLit)
		bw.writeString(n.Value)
	case *core.Var:
		bw.writeByte(tagVar)
		bw.writeString(n.Name)
	case *core.Lam:
		bw.writeByte(tagLam)
		bw.writeString(n.Param)
		serializeTerm(bw, n.Body)
	case *core.App:
		bw.writeByte(tagApp)
		serializeTerm(bw, n.Fn)
		serializeTerm(bw, n.Arg)
	case *core.Let:
		bw.writeByte(tagLet)
		bw.writeString(n.Name)
		serializeTerm(bw, n.Value)
		serializeTerm(bw, n.Body)
	case *core.If:
		bw.writeByte(tagIf)
		serializeTerm(bw, n.Cond)
		serializeTerm(bw, n.Then)
		serializeTerm(bw, n.Else)
	case *core.Tuple:
		bw.writeByte(tagTuple)
		bw.writeUint32(uint32(len(n.Elems)))
		for _, e := range n.Elems {
			serializeTerm(bw, e)
		}
	case *core.Proj:
		bw.writeByte(tagProj)
		bw.writeInt64(n.Index)
		serializeTerm(bw, n.Target)
	case *core.Ctor:
		bw.writeByte(tagCtor)
		bw.writeString(n.Tag)
		bw.writeUint32(uint32(len(n.Fields)))
		for _, f := range n.Fields {
			serializeTerm(bw, f)
		}
	case *core.Match:
		bw.writeByte(tagMatch)
		bw.writeUint32(uint32(len(n.Arms)))
		serializeTerm(bw, n.Scrutinee)
		for _, arm := range n.Arms {
			serializePattern(bw, arm.Pattern)
			serializeTerm(bw, arm.Body)
		}
	default:
		msg := fmt.Sprintf("bundle: unknown term type %T", t)
		return axiserrors.WrapReport(axiserrors.New(axiserrors.PhaseCodec, axiserrors.COD002, msg, ast.Pos{}))
	}
	return bw.err
}

func serializePattern(bw *byteWriter, p core.Pattern) {
	if bw.err != nil {
		return
	}
	switch n := p.(type) {
	case core.PInt:
		bw.writeByte(patInt)
		bw.writeInt64(n.Value)
	case core.PBool:
		bw.writeByte(patBool)
		bw.writeBool(n.Value)
	case core.PUnit:
		bw.writeByte(patUnit)
	case core.PVar:
		bw.writeByte(patVar)
		bw.writeString(n.Name)
	case core.PTuple:
		bw.writeByte(patTuple)
		bw.writeUint32(uint32(len(n.Elems)))
		for _, e := range n.Elems {
			serializePattern(bw, e)
		}
	case core.PEnum:
		bw.writeByte(patEnum)
		bw.writeString(n.Tag)
		bw.writeUint32(uint32(len(n.Fields)))
		for _, f := range n.Fields {
			serializePattern(bw, f)
		}
	default:
		msg := fmt.Sprintf("bundle: unknown pattern type %T", p)
		bw.err = axiserrors.WrapReport(axiserrors.New(axiserrors.PhaseCodec, axiserrors.COD002, msg, ast.Pos{}))
	}
}

// --- pattern deserialization: ordinary recursion (shallow by construction) ---

func decodePattern(br *byteReader) (core.Pattern, error) {
	if br.err != nil {
		return nil, br.err
	}
	tag := br.readByte()
	switch tag {
	case patInt:
		return core.PInt{Value: br.readInt64()}, br.err
	case patBool:
		return core.PBool{Value: br.readBool()}, br.err
	case patUnit:
		return core.PUnit{}, br.err
	case patVar:
		return core.PVar{Name: br.readString()}, br.err
	case patTuple:
		n := br.readUint32()
		elems := make([]core.Pattern, n)
		for i := range elems {
			e, err := decodePattern(br)
			if err != nil {
				return nil, err
			}
			elems[i] = e
		}
		return core.PTuple{Elems: elems}, nil
	case patEnum:
		name := br.readString()
		n := br.readUint32()
		fields := make([]core.Pattern, n)
		for i := range fields {
			f, err := decodePattern(br)
			if err != nil {
				return nil, err
			}
			fields[i] = f
		}
		return core.PEnum{Tag: name, Fields: fields}, nil
	default:
		msg := fmt.Sprintf("bundle: unknown pattern tag %d", tag)
		return nil, axiserrors.WrapReport(axiserrors.New(axiserrors.PhaseCodec, axiserrors.COD002, msg, ast.Pos{}))
	}
}

// --- term deserialization: explicit work stack (spec.md §4.6 invariant) ---

// pendingKind identifies which CoreTerm shape a frame is reconstructing.
type pendingKind int

const (
	pendLam pendingKind = iota
	pendApp
	pendLet
	pendIf
	pendTuple
	pendProj
	pendCtor
	pendMatch
)

// frame accumulates the already-decoded children of one in-progress
// term. want is the number of Term children still needed before the
// frame can be reduced into a finished term and handed to its parent.
type frame struct {
	kind pendingKind

	name string // Lam.Param, Let.Name, Ctor.Tag
	idx  int64  // Proj.Index

	// arm bookkeeping for Match: arms accumulates finished (pattern, body)
	// pairs; pendingPattern holds a decoded pattern awaiting its body.
	arms           []core.Arm
	pendingPattern core.Pattern
	armsWanted     int

	children []core.Term
	want     int
}

// done reports whether frame has collected every child it needs.
func (f *frame) done() bool {
	if f.kind == pendMatch {
		return len(f.children) >= 1 && len(f.arms) >= f.armsWanted && f.pendingPattern == nil
	}
	return len(f.children) >= f.want
}

// reduce builds the finished term from a complete frame's children.
func (f *frame) reduce() core.Term {
	span := ast.Pos{}
	switch f.kind {
	case pendLam:
		return core.MkLam(span, f.name, f.children[0])
	case pendApp:
		return core.MkApp(span, f.children[0], f.children[1])
	case pendLet:
		return core.MkLet(span, f.name, f.children[0], f.children[1])
	case pendIf:
		return core.MkIf(span, f.children[0], f.children[1], f.children[2])
	case pendTuple:
		return core.MkTuple(span, f.children)
	case pendProj:
		return core.MkProj(span, f.children[0], f.idx)
	case pendCtor:
		return core.MkCtor(span, f.name, f.children)
	case pendMatch:
		scrutinee := f.children[0]
		return core.MkMatch(span, scrutinee, f.arms)
	}
	panic("bundle: unreachable frame kind")
}

// decodeTermIterative reconstructs a CoreTerm tree from br without ever
// recursing: it maintains an explicit stack of frames, each representing
// one not-yet-finished term, and a work loop that either (a) decodes the
// next leaf directly and feeds it to the top frame, (b) decodes the next
// interior node's scalar fields and pushes a new frame for its Term
// children, or (c) pops a completed frame, reduces it to a term, and
// feeds the result to its parent (or returns it, if the stack is empty).
func decodeTermIterative(br *byteReader) (core.Term, error) {
	var stack []*frame

	// feed delivers a finished child term t to whichever frame is
	// waiting for it. For an ordinary frame the child is appended to
	// children; for a pendMatch frame, the first child fed is the
	// scrutinee and every subsequent one is an arm body paired with
	// whatever pattern the main loop stashed in pendingPattern. Once a
	// frame is done it is popped and reduced, and the resulting term is
	// fed to the new top of stack in turn — this is what lets a deeply
	// nested chain of Lets collapse without any native recursion.
	feed := func(t core.Term) (core.Term, bool) {
		for {
			if len(stack) == 0 {
				return t, true
			}
			top := stack[len(stack)-1]
			if top.kind == pendMatch && len(top.children) >= 1 {
				top.arms = append(top.arms, core.Arm{Pattern: top.pendingPattern, Body: t})
				top.pendingPattern = nil
			} else {
				top.children = append(top.children, t)
			}
			if !top.done() {
				return nil, false
			}
			stack = stack[:len(stack)-1]
			t = top.reduce()
		}
	}

	for {
		if br.err != nil {
			return nil, br.err
		}

		// A match frame that already has its scrutinee and is still
		// short of arms needs its next arm's pattern decoded (ordinary
		// recursion — patterns don't nest to the depths terms do)
		// before the loop falls through to decode that arm's body term.
		if len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.kind == pendMatch && len(top.children) >= 1 && top.pendingPattern == nil && len(top.arms) < top.armsWanted {
				pat, err := decodePattern(br)
				if err != nil {
					return nil, err
				}
				top.pendingPattern = pat
				continue
			}
		}

		tag := br.readByte()
		if br.err != nil {
			return nil, br.err
		}

		var leaf core.Term
		isLeaf := false
		span := ast.Pos{}

		switch tag {
		case tagIntLit:
			leaf, isLeaf = core.MkInt(span, br.readInt64()), true
		case tagBoolLit:
			leaf, isLeaf = core.MkBool(span, br.readBool()), true
		case tagUnitLit:
			leaf, isLeaf = core.MkUnit(span), true
		case tagStrLit:
			leaf, isLeaf = core.MkStr(span, br.readString()), true
		case tagVar:
			leaf, isLeaf = core.MkVar(span, br.readString()), true

		case tagLam:
			stack = append(stack, &frame{kind: pendLam, name: br.readString(), want: 1})
		case tagApp:
			stack = append(stack, &frame{kind: pendApp, want: 2})
		case tagLet:
			stack = append(stack, &frame{kind: pendLet, name: br.readString(), want: 2})
		case tagIf:
			stack = append(stack, &frame{kind: pendIf, want: 3})
		case tagTuple:
			stack = append(stack, &frame{kind: pendTuple, want: int(br.readUint32())})
		case tagProj:
			stack = append(stack, &frame{kind: pendProj, idx: br.readInt64(), want: 1})
		case tagCtor:
			name := br.readString()
			stack = append(stack, &frame{kind: pendCtor, name: name, want: int(br.readUint32())})
		case tagMatch:
			n := br.readUint32()
			stack = append(stack, &frame{kind: pendMatch, want: 1, armsWanted: int(n)})

		default:
			msg := fmt.Sprintf("bundle: unknown term tag %d", tag)
			return nil, axiserrors.WrapReport(axiserrors.New(axiserrors.PhaseCodec, axiserrors.COD002, msg, ast.Pos{}))
		}

		if br.err != nil {
			return nil, br.err
		}

		if isLeaf {
			result, finished := feed(leaf)
			if finished {
				return result, nil
			}
			continue
		}

		// A freshly pushed frame that needs zero Term children (a
		// nullary Ctor, an empty Tuple) is already done — pop and feed
		// it immediately rather than waiting for a child that never
		// arrives.
		if top := stack[len(stack)-1]; top.done() {
			stack = stack[:len(stack)-1]
			result, finished := feed(top.reduce())
			if finished {
				return result, nil
			}
		}
	}
}
