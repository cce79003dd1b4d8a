// Package types holds the generic (pre-monomorphization) type trees and
// declaration tables handed over by type inference. Everything in this
// package is consumed read-only by the later stages.
package types

import (
	"strconv"
	"strings"
)

// Kind discriminates generic type tree nodes.
type Kind uint8

const (
	// KindInvalid is the zero value and never appears in well-formed input.
	KindInvalid Kind = iota
	// KindInt is a sized integer.
	KindInt
	// KindFloat is a 64-bit float.
	KindFloat
	// KindBool is a boolean.
	KindBool
	// KindPointer is a pointer to Elem.
	KindPointer
	// KindFnPointer is a raw function pointer.
	KindFnPointer
	// KindClosure is a capturing function value.
	KindClosure
	// KindTuple is a structural tuple.
	KindTuple
	// KindDefined is a nominal record/variant/interface applied to Args.
	KindDefined
	// KindGeneric is an unsubstituted generic parameter.
	KindGeneric
	// KindSelf refers to the enclosing declaration's own type.
	KindSelf
	// KindNever is the bottom type.
	KindNever
)

// IntSize describes an integer's signedness and bit width.
type IntSize struct {
	Signed bool
	Bits   uint8
}

// MakeIntSize builds an IntSize.
func MakeIntSize(signed bool, bits uint8) IntSize {
	return IntSize{Signed: signed, Bits: bits}
}

// Bytes returns the integer's storage size in bytes.
func (s IntSize) Bytes() uint32 {
	return uint32(s.Bits) / 8
}

func (s IntSize) String() string {
	var b strings.Builder
	if s.Signed {
		b.WriteByte('i')
	} else {
		b.WriteByte('u')
	}
	b.WriteString(strconv.FormatUint(uint64(s.Bits), 10))
	return b.String()
}

// Type is a generic type tree node. Payload fields are valid per Kind:
// Int for KindInt; Elem for KindPointer; Params/Ret for KindFnPointer and
// KindClosure; Params for KindTuple (elements) and KindDefined (arguments);
// Def for KindDefined; Index for KindGeneric.
type Type struct {
	Kind Kind

	Int    IntSize
	Elem   *Type
	Params []Type
	Ret    *Type
	Def    DefID
	Index  uint32
}

// MakeInt builds a sized integer type.
func MakeInt(signed bool, bits uint8) Type {
	return Type{Kind: KindInt, Int: MakeIntSize(signed, bits)}
}

// MakeFloat builds the 64-bit float type.
func MakeFloat() Type {
	return Type{Kind: KindFloat}
}

// MakeBool builds the boolean type.
func MakeBool() Type {
	return Type{Kind: KindBool}
}

// MakePointer builds a pointer to elem.
func MakePointer(elem Type) Type {
	return Type{Kind: KindPointer, Elem: &elem}
}

// MakeFnPointer builds a raw function pointer type.
func MakeFnPointer(params []Type, ret Type) Type {
	return Type{Kind: KindFnPointer, Params: params, Ret: &ret}
}

// MakeClosure builds a capturing function type.
func MakeClosure(params []Type, ret Type) Type {
	return Type{Kind: KindClosure, Params: params, Ret: &ret}
}

// MakeTuple builds a structural tuple.
func MakeTuple(elems []Type) Type {
	return Type{Kind: KindTuple, Params: elems}
}

// MakeUnit builds the empty tuple.
func MakeUnit() Type {
	return Type{Kind: KindTuple}
}

// MakeDefined applies a nominal declaration to type arguments.
func MakeDefined(def DefID, args []Type) Type {
	return Type{Kind: KindDefined, Def: def, Params: args}
}

// MakeGeneric builds a reference to the generic parameter at index.
func MakeGeneric(index uint32) Type {
	return Type{Kind: KindGeneric, Index: index}
}

// MakeSelf builds a reference to the enclosing declaration.
func MakeSelf() Type {
	return Type{Kind: KindSelf}
}

// MakeNever builds the bottom type.
func MakeNever() Type {
	return Type{Kind: KindNever}
}

func (t Type) String() string {
	var b strings.Builder
	t.format(&b)
	return b.String()
}

func (t Type) format(b *strings.Builder) {
	switch t.Kind {
	case KindInt:
		b.WriteString(t.Int.String())
	case KindFloat:
		b.WriteString("f64")
	case KindBool:
		b.WriteString("bool")
	case KindPointer:
		b.WriteByte('*')
		t.Elem.format(b)
	case KindFnPointer, KindClosure:
		if t.Kind == KindFnPointer {
			b.WriteString("fnptr(")
		} else {
			b.WriteString("fn(")
		}
		for i := range t.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			t.Params[i].format(b)
		}
		b.WriteString(" -> ")
		t.Ret.format(b)
		b.WriteByte(')')
	case KindTuple:
		b.WriteByte('(')
		for i := range t.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			t.Params[i].format(b)
		}
		b.WriteByte(')')
	case KindDefined:
		b.WriteString("def#")
		b.WriteString(strconv.FormatUint(uint64(t.Def), 10))
		if len(t.Params) > 0 {
			b.WriteByte('<')
			for i := range t.Params {
				if i > 0 {
					b.WriteString(", ")
				}
				t.Params[i].format(b)
			}
			b.WriteByte('>')
		}
	case KindGeneric:
		b.WriteByte('$')
		b.WriteString(strconv.FormatUint(uint64(t.Index), 10))
	case KindSelf:
		b.WriteString("self")
	case KindNever:
		b.WriteByte('!')
	default:
		b.WriteString("<invalid>")
	}
}

