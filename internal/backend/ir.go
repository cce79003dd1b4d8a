package backend

import (
	"fmt"

	"fortio.org/safecast"
)

// ValueID names one value inside a native function.
type ValueID uint32

// Op enumerates native instruction kinds. Native functions are the small
// synthetic bodies the driver builds itself (startup code, value-slot
// initialization); everything else reaches the code generator as lowered IR.
type Op uint8

const (
	// OpIConst materializes an integer constant.
	OpIConst Op = iota
	// OpSymbolAddr materializes the address of a declared symbol.
	OpSymbolAddr
	// OpCall calls a declared symbol.
	OpCall
	// OpStore writes a value at ptr+offset.
	OpStore
	// OpReturn leaves the function.
	OpReturn
)

// Instr is one native instruction. Fields are valid per Op.
type Instr struct {
	Op Op

	Scalar  Scalar
	Imm     int64
	Symbol  string
	Sig     Signature
	Args    []ValueID
	Value   ValueID
	Ptr     ValueID
	Offset  uint32
	Results []ValueID
}

// Function is a straight-line native function body.
type Function struct {
	Sig    Signature
	Instrs []Instr

	params    []ValueID
	numValues uint32
}

// NewFunction creates a body with one value per signature parameter.
func NewFunction(sig Signature) *Function {
	f := &Function{Sig: sig}
	f.params = make([]ValueID, len(sig.Params))
	for i := range sig.Params {
		f.params[i] = f.newValue()
	}
	return f
}

// Params returns the parameter values in signature order.
func (f *Function) Params() []ValueID {
	return f.params
}

// NumValues returns how many values the body defines.
func (f *Function) NumValues() int {
	return int(f.numValues)
}

func (f *Function) newValue() ValueID {
	raw, err := safecast.Conv[uint32](int(f.numValues))
	if err != nil {
		panic(fmt.Errorf("backend: native value id overflow: %w", err))
	}
	f.numValues++
	return ValueID(raw)
}

// IConst materializes an integer constant.
func (f *Function) IConst(s Scalar, imm int64) ValueID {
	v := f.newValue()
	f.Instrs = append(f.Instrs, Instr{Op: OpIConst, Scalar: s, Imm: imm, Results: []ValueID{v}})
	return v
}

// SymbolAddr materializes the address of a declared symbol.
func (f *Function) SymbolAddr(symbol string) ValueID {
	v := f.newValue()
	f.Instrs = append(f.Instrs, Instr{Op: OpSymbolAddr, Symbol: symbol, Results: []ValueID{v}})
	return v
}

// Call calls a declared symbol, yielding one value per signature return.
func (f *Function) Call(symbol string, sig Signature, args []ValueID) []ValueID {
	results := make([]ValueID, len(sig.Returns))
	for i := range results {
		results[i] = f.newValue()
	}
	f.Instrs = append(f.Instrs, Instr{Op: OpCall, Symbol: symbol, Sig: sig, Args: args, Results: results})
	return results
}

// Store writes value at ptr+offset.
func (f *Function) Store(value, ptr ValueID, offset uint32) {
	f.Instrs = append(f.Instrs, Instr{Op: OpStore, Value: value, Ptr: ptr, Offset: offset})
}

// Return leaves the function with the given values.
func (f *Function) Return(values []ValueID) {
	f.Instrs = append(f.Instrs, Instr{Op: OpReturn, Args: values})
}
