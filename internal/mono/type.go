// Package mono specializes generic declarations against concrete type
// arguments and owns the layout table every later stage reads from.
package mono

import (
	"fmt"
	"strconv"
	"strings"

	"prism/internal/types"
)

// RecordKey is the opaque handle for one entry in the layout table. Keys are
// ordered by creation only; they carry no semantic ordering.
type RecordKey uint32

// Unit is the key of the empty tuple, created at engine initialization.
const Unit RecordKey = 0

func (k RecordKey) String() string {
	return "mtkey" + strconv.FormatUint(uint64(k), 10)
}

// TypeKind discriminates concrete (fully monomorphized) types.
type TypeKind uint8

const (
	// KindInt is a sized integer.
	KindInt TypeKind = iota
	// KindFloat is a 64-bit float.
	KindFloat
	// KindPointer is a pointer to Elem.
	KindPointer
	// KindFnPointer is a raw function pointer.
	KindFnPointer
	// KindUnreachable is the bottom type.
	KindUnreachable
	// KindVariantPayload is an opaque byte region holding a variant's data.
	KindVariantPayload
	// KindComposite references a layout-table record.
	KindComposite
)

// Type is a concrete type. Payload fields are valid per Kind: Int for
// KindInt; Elem for KindPointer; Params/Ret for KindFnPointer; Payload
// (byte size) for KindVariantPayload; Key for KindComposite.
type Type struct {
	Kind TypeKind

	Int     types.IntSize
	Elem    *Type
	Params  []Type
	Ret     *Type
	Payload uint32
	Key     RecordKey
}

// Int returns a sized integer type.
func Int(size types.IntSize) Type {
	return Type{Kind: KindInt, Int: size}
}

// Uint returns an unsigned integer of the given bit width.
func Uint(bits uint8) Type {
	return Int(types.MakeIntSize(false, bits))
}

// Bool is represented as u8.
func Bool() Type {
	return Uint(8)
}

// Byte returns the u8 type.
func Byte() Type {
	return Uint(8)
}

// Float returns the 64-bit float type.
func Float() Type {
	return Type{Kind: KindFloat}
}

// Pointer returns a pointer to elem.
func Pointer(elem Type) Type {
	return Type{Kind: KindPointer, Elem: &elem}
}

// BytePointer returns *u8, the opaque receiver pointer type.
func BytePointer() Type {
	return Pointer(Byte())
}

// FnPointer returns a function pointer type.
func FnPointer(params []Type, ret Type) Type {
	return Type{Kind: KindFnPointer, Params: params, Ret: &ret}
}

// Unreachable returns the bottom type.
func Unreachable() Type {
	return Type{Kind: KindUnreachable}
}

// VariantPayload returns an opaque byte region of the given size.
func VariantPayload(size uint32) Type {
	return Type{Kind: KindVariantPayload, Payload: size}
}

// Composite returns a reference to a layout-table record.
func Composite(key RecordKey) Type {
	return Type{Kind: KindComposite, Key: key}
}

// UnitType returns the canonical empty tuple type.
func UnitType() Type {
	return Composite(Unit)
}

// Deref unwraps one pointer level. Calling it on a non-pointer is a defect
// in the caller.
func (t Type) Deref() Type {
	if t.Kind != KindPointer {
		panic(fmt.Sprintf("mono: cannot deref non-pointer: %s", t))
	}
	return *t.Elem
}

// AsKey returns the layout key of a composite type.
func (t Type) AsKey() RecordKey {
	if t.Kind != KindComposite {
		panic(fmt.Sprintf("mono: not a monomorphized composite: %s", t))
	}
	return t.Key
}

// AsFnPointer splits a function pointer into parameters and return.
func (t Type) AsFnPointer() ([]Type, Type) {
	if t.Kind != KindFnPointer {
		panic(fmt.Sprintf("mono: not a function pointer: %s", t))
	}
	return t.Params, *t.Ret
}

// IsComposite reports whether the type references the layout table.
func (t Type) IsComposite() bool {
	return t.Kind == KindComposite
}

// Equal reports structural equality.
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindInt:
		return t.Int == o.Int
	case KindPointer:
		return t.Elem.Equal(*o.Elem)
	case KindFnPointer:
		if len(t.Params) != len(o.Params) || !t.Ret.Equal(*o.Ret) {
			return false
		}
		for i := range t.Params {
			if !t.Params[i].Equal(o.Params[i]) {
				return false
			}
		}
		return true
	case KindVariantPayload:
		return t.Payload == o.Payload
	case KindComposite:
		return t.Key == o.Key
	default:
		return true
	}
}

// Fingerprint renders a canonical encoding used as a memoization map key.
// Structurally equal types always produce equal fingerprints.
func (t Type) Fingerprint() string {
	var b strings.Builder
	t.fingerprint(&b)
	return b.String()
}

func (t Type) fingerprint(b *strings.Builder) {
	switch t.Kind {
	case KindInt:
		if t.Int.Signed {
			b.WriteByte('i')
		} else {
			b.WriteByte('u')
		}
		b.WriteString(strconv.Itoa(int(t.Int.Bits)))
	case KindFloat:
		b.WriteByte('f')
	case KindPointer:
		b.WriteByte('*')
		t.Elem.fingerprint(b)
	case KindFnPointer:
		b.WriteByte('F')
		b.WriteByte('(')
		for i := range t.Params {
			if i > 0 {
				b.WriteByte(',')
			}
			t.Params[i].fingerprint(b)
		}
		b.WriteByte(')')
		t.Ret.fingerprint(b)
	case KindUnreachable:
		b.WriteByte('!')
	case KindVariantPayload:
		b.WriteByte('S')
		b.WriteString(strconv.FormatUint(uint64(t.Payload), 10))
	case KindComposite:
		b.WriteByte('#')
		b.WriteString(strconv.FormatUint(uint64(t.Key), 10))
	}
}

// FingerprintTypes renders the canonical encoding of a type argument list.
func FingerprintTypes(list []Type) string {
	var b strings.Builder
	for i := range list {
		if i > 0 {
			b.WriteByte('#')
		}
		list[i].fingerprint(&b)
	}
	return b.String()
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
	case KindPointer:
		b.WriteByte('*')
		t.Elem.format(b)
	case KindFnPointer:
		b.WriteString("fnptr(")
		for i := range t.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			t.Params[i].format(b)
		}
		b.WriteString(" -> ")
		t.Ret.format(b)
		b.WriteByte(')')
	case KindUnreachable:
		b.WriteByte('!')
	case KindVariantPayload:
		b.WriteString("<payload ")
		b.WriteString(strconv.FormatUint(uint64(t.Payload), 10))
		b.WriteByte('>')
	case KindComposite:
		b.WriteString(t.Key.String())
	default:
		b.WriteString("<invalid>")
	}
}
