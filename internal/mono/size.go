package mono

import (
	"fmt"

	"prism/internal/types"
)

// Size returns the byte size of a concrete type. Fields are laid out
// back-to-back: a record's size is the sum of its fields' effective sizes,
// where an autoboxed field always contributes pointer size.
func (rs *Records) Size(t Type) uint32 {
	switch t.Kind {
	case KindInt:
		return t.Int.Bytes()
	case KindFloat:
		return 8
	case KindPointer, KindFnPointer:
		return rs.PointerSize
	case KindUnreachable:
		return 0
	case KindVariantPayload:
		return t.Payload
	case KindComposite:
		return rs.SizeOf(t.Key)
	default:
		panic(fmt.Sprintf("mono: size of invalid type kind %d", t.Kind))
	}
}

// SizeOf returns the byte size of a layout record.
func (rs *Records) SizeOf(key RecordKey) uint32 {
	r := rs.Get(key)
	if r.Repr.Kind == types.ReprTransparent && len(r.Fields) > 0 {
		return rs.effectiveFieldSize(r, 0)
	}
	var size uint32
	for i := range r.Fields {
		size += rs.effectiveFieldSize(r, i)
	}
	return size
}

// FieldOffset returns the byte offset of a field: the sum of the effective
// sizes of all preceding fields. Autoboxed fields contribute pointer size
// here exactly as they do in SizeOf, so offsets stay valid for records that
// carry autoboxed fields.
func (rs *Records) FieldOffset(key RecordKey, field int) uint32 {
	r := rs.Get(key)
	if field < 0 || field >= len(r.Fields) {
		panic(fmt.Sprintf("mono: %s has no field %d", key, field))
	}
	var offset uint32
	for i := 0; i < field; i++ {
		offset += rs.effectiveFieldSize(r, i)
	}
	return offset
}

// EffectiveFieldSize returns how many bytes the field occupies in the
// record: its own size, or pointer size when the field is autoboxed.
func (rs *Records) EffectiveFieldSize(key RecordKey, field int) uint32 {
	r := rs.Get(key)
	if field < 0 || field >= len(r.Fields) {
		panic(fmt.Sprintf("mono: %s has no field %d", key, field))
	}
	return rs.effectiveFieldSize(r, field)
}

func (rs *Records) effectiveFieldSize(r *Record, field int) uint32 {
	if r.IsAutoboxed(field) {
		return rs.PointerSize
	}
	return rs.Size(r.Fields[field].Type)
}

// Align returns the natural alignment of a concrete type, capped at the
// pointer size. It only informs padding between scalar stores; record
// fields themselves are packed.
func (rs *Records) Align(t Type) uint32 {
	switch t.Kind {
	case KindInt:
		return maxU32(1, t.Int.Bytes())
	case KindFloat:
		return 8
	case KindPointer, KindFnPointer:
		return rs.PointerSize
	case KindUnreachable:
		return 1
	case KindVariantPayload:
		return rs.PointerSize
	case KindComposite:
		return rs.AlignOf(t.Key)
	default:
		return 1
	}
}

// AlignOf returns the natural alignment of a layout record.
func (rs *Records) AlignOf(key RecordKey) uint32 {
	r := rs.Get(key)
	align := uint32(1)
	for i := range r.Fields {
		var a uint32
		if r.IsAutoboxed(i) {
			a = rs.PointerSize
		} else {
			a = rs.Align(r.Fields[i].Type)
		}
		align = maxU32(align, a)
	}
	return align
}

// sizeForPayload sizes a variant case field while the variant's own record
// is still a placeholder. A composite that is itself unresolved at this
// point is necessarily on the instantiation stack, so its storage in the
// payload is a pointer.
func (rs *Records) sizeForPayload(t Type) uint32 {
	if t.Kind == KindComposite && rs.rec(t.Key).placeholder {
		return rs.PointerSize
	}
	return rs.Size(t)
}

func maxU32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}
