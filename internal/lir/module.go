package lir

import (
	"fmt"

	"fortio.org/safecast"

	"prism/internal/mono"
)

// Func is one lowered function. Its parameters are the entry block's
// parameters.
type Func struct {
	Symbol  string
	Blocks  *Blocks
	Returns mono.Type

	// Exported functions keep their symbol visible in the object file;
	// everything else gets hidden linkage.
	Exported bool
}

// Params returns the function's parameter values.
func (f *Func) Params() []V {
	return f.Blocks.ParamsOf(EntryBlock)
}

// Extern is a declared external function, linked by symbol.
type Extern struct {
	Symbol  string
	Params  []mono.Type
	Returns mono.Type
}

// GlobalVal is one module-level value slot: zero-initialized storage plus
// the function that computes its value before user code runs.
type GlobalVal struct {
	Symbol string
	Type   mono.Type
	Init   FuncID
}

// ReadOnly is immutable bytes placed in the object's read-only data.
type ReadOnly struct {
	Symbol string
	Bytes  []byte
	Type   mono.Type
}

// Module is a complete lowered compilation unit, ready for code generation.
type Module struct {
	Functions []Func
	Externs   []Extern
	Globals   []GlobalVal
	ReadOnly  []ReadOnly

	// Main is the user entry function; SysInit runs before it on hosted
	// targets. NoFuncID when absent.
	Main    FuncID
	SysInit FuncID

	// Types is the layout table every size and offset was computed against.
	Types *mono.Records
}

// NewModule creates an empty module over a layout table.
func NewModule(records *mono.Records) *Module {
	return &Module{Main: NoFuncID, SysInit: NoFuncID, Types: records}
}

// PushFunction appends a function and returns its id.
func (m *Module) PushFunction(f Func) FuncID {
	raw, err := safecast.Conv[uint32](len(m.Functions))
	if err != nil {
		panic(fmt.Errorf("lir: function id overflow: %w", err))
	}
	m.Functions = append(m.Functions, f)
	return FuncID(raw)
}

// PushExtern appends an external declaration and returns its id.
func (m *Module) PushExtern(e Extern) ExternID {
	raw, err := safecast.Conv[uint32](len(m.Externs))
	if err != nil {
		panic(fmt.Errorf("lir: extern id overflow: %w", err))
	}
	m.Externs = append(m.Externs, e)
	return ExternID(raw)
}

// PushGlobal appends a global slot and returns its id.
func (m *Module) PushGlobal(g GlobalVal) GlobalID {
	raw, err := safecast.Conv[uint32](len(m.Globals))
	if err != nil {
		panic(fmt.Errorf("lir: global id overflow: %w", err))
	}
	m.Globals = append(m.Globals, g)
	return GlobalID(raw)
}

// PushReadOnly appends read-only bytes and returns their id.
func (m *Module) PushReadOnly(r ReadOnly) ReadOnlyID {
	raw, err := safecast.Conv[uint32](len(m.ReadOnly))
	if err != nil {
		panic(fmt.Errorf("lir: read-only id overflow: %w", err))
	}
	m.ReadOnly = append(m.ReadOnly, r)
	return ReadOnlyID(raw)
}

// Function returns the function behind id.
func (m *Module) Function(id FuncID) *Func {
	if int(id) >= len(m.Functions) {
		panic(fmt.Sprintf("lir: unknown function fn%d", id))
	}
	return &m.Functions[id]
}

// ExternOf returns the external declaration behind id.
func (m *Module) ExternOf(id ExternID) *Extern {
	if int(id) >= len(m.Externs) {
		panic(fmt.Sprintf("lir: unknown extern ext%d", id))
	}
	return &m.Externs[id]
}
