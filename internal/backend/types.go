// Package backend lowers lowered modules into object code through a
// pluggable code generator. The ABI classification, the synthetic startup
// functions, and the symbol plumbing live here; instruction selection is
// behind the ObjectModule interface.
package backend

import "fmt"

// Scalar is a machine-level value class.
type Scalar uint8

const (
	// I8 is an 8-bit integer register class.
	I8 Scalar = iota
	// I16 is a 16-bit integer register class.
	I16
	// I32 is a 32-bit integer register class.
	I32
	// I64 is a 64-bit integer register class.
	I64
	// F64 is a 64-bit float register class.
	F64
)

// Bytes returns the scalar's width.
func (s Scalar) Bytes() uint32 {
	switch s {
	case I8:
		return 1
	case I16:
		return 2
	case I32:
		return 4
	case I64, F64:
		return 8
	default:
		panic(fmt.Sprintf("backend: width of invalid scalar %d", s))
	}
}

func (s Scalar) String() string {
	switch s {
	case I8:
		return "i8"
	case I16:
		return "i16"
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F64:
		return "f64"
	default:
		return "<invalid>"
	}
}

// IntScalar returns the integer scalar for a byte width, rounding up.
func IntScalar(bytes uint32) Scalar {
	switch {
	case bytes <= 1:
		return I8
	case bytes <= 2:
		return I16
	case bytes <= 4:
		return I32
	case bytes <= 8:
		return I64
	default:
		panic(fmt.Sprintf("backend: no integer scalar holds %d bytes", bytes))
	}
}

// ParamPurpose distinguishes ordinary parameters from the hidden
// struct-return pointer.
type ParamPurpose uint8

const (
	// PurposeNormal is an ordinary parameter.
	PurposeNormal ParamPurpose = iota
	// PurposeStructReturn is the hidden pointer a by-pointer return is
	// written through.
	PurposeStructReturn
)

// AbiParam is one slot of a machine signature.
type AbiParam struct {
	Type    Scalar
	Purpose ParamPurpose
}

// Param wraps a scalar as an ordinary parameter.
func Param(s Scalar) AbiParam {
	return AbiParam{Type: s}
}

// SretParam is the hidden struct-return pointer slot.
func SretParam(ptr Scalar) AbiParam {
	return AbiParam{Type: ptr, Purpose: PurposeStructReturn}
}

// CallConv selects the calling convention.
type CallConv uint8

const (
	// CallConvSystemV is the platform C convention, used at every external
	// boundary.
	CallConvSystemV CallConv = iota
	// CallConvTail is the internal convention; it guarantees tail transfers
	// between module functions.
	CallConvTail
)

func (c CallConv) String() string {
	switch c {
	case CallConvSystemV:
		return "system_v"
	case CallConvTail:
		return "tail"
	default:
		return "<invalid>"
	}
}

// Signature is a machine-level function signature.
type Signature struct {
	CallConv CallConv
	Params   []AbiParam
	Returns  []AbiParam
}

// Linkage is the visibility of a declared symbol.
type Linkage uint8

const (
	// LinkageExport keeps the symbol visible to the linker.
	LinkageExport Linkage = iota
	// LinkageHidden restricts the symbol to the object.
	LinkageHidden
	// LinkageImport marks a symbol resolved at link time.
	LinkageImport
)

func (l Linkage) String() string {
	switch l {
	case LinkageExport:
		return "export"
	case LinkageHidden:
		return "hidden"
	case LinkageImport:
		return "import"
	default:
		return "<invalid>"
	}
}
