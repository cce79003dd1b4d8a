// Package lir is the pre-codegen low IR: per-function SSA with
// block parameters instead of phi nodes, over fully monomorphized types.
package lir

import (
	"strconv"

	"prism/internal/types"
)

// V identifies one SSA value inside a single function. Ids are assigned
// monotonically across the whole function; each block owns one contiguous
// half-open range of them.
type V uint32

func (v V) String() string {
	return "v" + strconv.FormatUint(uint64(v), 10)
}

// Block identifies one basic block inside a function. Block 0 is the entry.
type Block uint32

// EntryBlock is the id of a function's entry block.
const EntryBlock Block = 0

func (b Block) String() string {
	return "block" + strconv.FormatUint(uint64(b), 10)
}

// FuncID indexes Module.Functions.
type FuncID uint32

// NoFuncID marks an absent function reference.
const NoFuncID FuncID = ^FuncID(0)

// ExternID indexes Module.Externs.
type ExternID uint32

// GlobalID indexes Module.Globals.
type GlobalID uint32

// ReadOnlyID indexes Module.ReadOnly.
type ReadOnlyID uint32

// ValueKind discriminates operand values.
type ValueKind uint8

const (
	// ValueV is a reference to an SSA value.
	ValueV ValueKind = iota
	// ValueInt is a sized integer constant.
	ValueInt
	// ValueFloat is a float constant.
	ValueFloat
	// ValueReadOnly is the address of a read-only data entry.
	ValueReadOnly
	// ValueFuncPtr is the address of a module function.
	ValueFuncPtr
	// ValueExternPtr is the address of an external function.
	ValueExternPtr
)

// Value is an instruction operand.
type Value struct {
	Kind ValueKind

	V        V
	Int      int64
	IntSize  types.IntSize
	Float    float64
	ReadOnly ReadOnlyID
	Func     FuncID
	Extern   ExternID
}

// Val wraps an SSA value as an operand.
func Val(v V) Value {
	return Value{Kind: ValueV, V: v}
}

// IntVal returns a sized integer constant.
func IntVal(n int64, size types.IntSize) Value {
	return Value{Kind: ValueInt, Int: n, IntSize: size}
}

// BoolVal returns a bool constant (u8).
func BoolVal(b bool) Value {
	var n int64
	if b {
		n = 1
	}
	return IntVal(n, types.MakeIntSize(false, 8))
}

// FloatVal returns a float constant.
func FloatVal(f float64) Value {
	return Value{Kind: ValueFloat, Float: f}
}

// ReadOnlyVal returns the address of a read-only data entry.
func ReadOnlyVal(id ReadOnlyID) Value {
	return Value{Kind: ValueReadOnly, ReadOnly: id}
}

// FuncPtr returns the address of a module function.
func FuncPtr(id FuncID) Value {
	return Value{Kind: ValueFuncPtr, Func: id}
}

// ExternPtr returns the address of an external function.
func ExternPtr(id ExternID) Value {
	return Value{Kind: ValueExternPtr, Extern: id}
}

func (v Value) String() string {
	switch v.Kind {
	case ValueV:
		return v.V.String()
	case ValueInt:
		return strconv.FormatInt(v.Int, 10) + " " + v.IntSize.String()
	case ValueFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case ValueReadOnly:
		return "ro" + strconv.FormatUint(uint64(v.ReadOnly), 10)
	case ValueFuncPtr:
		return "fn" + strconv.FormatUint(uint64(v.Func), 10)
	case ValueExternPtr:
		return "ext" + strconv.FormatUint(uint64(v.Extern), 10)
	default:
		return "<invalid>"
	}
}
