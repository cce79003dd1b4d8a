package lir

import (
	"prism/internal/mono"
)

// EntryKind enumerates value-producing instruction kinds.
type EntryKind uint8

const (
	// EntryBlockParam is a block parameter; its V is defined on jump entry.
	EntryBlockParam EntryKind = iota
	// EntryCallStatic calls a module function.
	EntryCallStatic
	// EntryCallExtern calls an external function.
	EntryCallExtern
	// EntryCallValue calls through a function pointer operand.
	EntryCallValue
	// EntryCopy rebinds an operand as a new value.
	EntryCopy
	// EntryConstruct builds a composite from field operands in order.
	EntryConstruct
	// EntryField reads one field of a composite value.
	EntryField
	// EntryVariantField reads payload bytes of a variant case at an offset.
	EntryVariantField
	// EntryTagOf reads a variant's tag.
	EntryTagOf
	// EntryAdd is addition; integer or float per the operand type.
	EntryAdd
	// EntrySub is subtraction.
	EntrySub
	// EntryMul is multiplication.
	EntryMul
	// EntryDiv is division.
	EntryDiv
	// EntryIntCmp compares two integers, yielding a bool.
	EntryIntCmp
	// EntryBitAnd is bitwise and.
	EntryBitAnd
	// EntryReduce truncates an integer to a narrower size.
	EntryReduce
	// EntryExtendSigned sign-extends an integer.
	EntryExtendSigned
	// EntryExtendUnsigned zero-extends an integer.
	EntryExtendUnsigned
	// EntryAlloc heap-allocates storage for the result's pointee type.
	EntryAlloc
	// EntryDealloc releases an allocation.
	EntryDealloc
	// EntryWritePtr stores a value through a pointer.
	EntryWritePtr
	// EntryDeref loads the pointee of a pointer.
	EntryDeref
	// EntryRefGlobal takes the address of a global value slot.
	EntryRefGlobal
)

// CmpPredicate selects an integer comparison.
type CmpPredicate uint8

const (
	// CmpEq is equality.
	CmpEq CmpPredicate = iota
	// CmpLt is signed/unsigned less-than per operand size.
	CmpLt
	// CmpGt is signed/unsigned greater-than per operand size.
	CmpGt
)

func (p CmpPredicate) String() string {
	switch p {
	case CmpEq:
		return "eq"
	case CmpLt:
		return "lt"
	case CmpGt:
		return "gt"
	default:
		return "<invalid>"
	}
}

// Entry is one value-producing instruction. Exactly one payload field is
// valid, selected by Kind.
type Entry struct {
	Kind EntryKind

	BlockParam   BlockParamEntry
	CallStatic   CallStaticEntry
	CallExtern   CallExternEntry
	CallValue    CallValueEntry
	Copy         CopyEntry
	Construct    ConstructEntry
	Field        FieldEntry
	VariantField VariantFieldEntry
	TagOf        TagOfEntry
	BinOp        BinOpEntry
	IntCmp       IntCmpEntry
	Convert      ConvertEntry
	Dealloc      DeallocEntry
	WritePtr     WritePtrEntry
	Deref        DerefEntry
	RefGlobal    RefGlobalEntry
}

// BlockParamEntry marks a block parameter and its position.
type BlockParamEntry struct {
	Block Block
	Index int
}

// CallStaticEntry calls a module function.
type CallStaticEntry struct {
	Func FuncID
	Args []Value
}

// CallExternEntry calls an external function.
type CallExternEntry struct {
	Extern ExternID
	Args   []Value
}

// CallValueEntry calls through a function pointer operand.
type CallValueEntry struct {
	Callee Value
	Args   []Value
}

// CopyEntry rebinds an operand.
type CopyEntry struct {
	Src Value
}

// ConstructEntry builds a composite; field operands in declaration order.
type ConstructEntry struct {
	Values []Value
}

// FieldEntry reads a composite field.
type FieldEntry struct {
	Of    Value
	Key   mono.RecordKey
	Index int
}

// VariantFieldEntry reads variant payload bytes at a byte offset.
type VariantFieldEntry struct {
	Of     Value
	Key    mono.RecordKey
	Offset uint32
}

// TagOfEntry reads a variant's tag.
type TagOfEntry struct {
	Of  Value
	Key mono.RecordKey
}

// BinOpEntry is the shared payload of the arithmetic and bitwise entries.
type BinOpEntry struct {
	Lhs Value
	Rhs Value
}

// IntCmpEntry compares two integers.
type IntCmpEntry struct {
	Lhs       Value
	Rhs       Value
	Predicate CmpPredicate
}

// ConvertEntry is the shared payload of reduce/extend.
type ConvertEntry struct {
	Src Value
}

// DeallocEntry releases an allocation.
type DeallocEntry struct {
	Ptr Value
}

// WritePtrEntry stores Value at Ptr.
type WritePtrEntry struct {
	Ptr   Value
	Value Value
}

// DerefEntry loads through a pointer.
type DerefEntry struct {
	Ptr Value
}

// RefGlobalEntry takes the address of a global slot.
type RefGlobalEntry struct {
	Global GlobalID
}
