package lir

import (
	"errors"
	"fmt"
)

// Validate checks the structural invariants of a lowered module: id ranges,
// jump targets and their argument counts, operand definitions, and return
// types. It reports every violation it finds.
func Validate(m *Module) error {
	var errs []error

	if m.Main != NoFuncID && int(m.Main) >= len(m.Functions) {
		errs = append(errs, fmt.Errorf("main references unknown function fn%d", m.Main))
	}
	if m.SysInit != NoFuncID && int(m.SysInit) >= len(m.Functions) {
		errs = append(errs, fmt.Errorf("sys-init references unknown function fn%d", m.SysInit))
	}
	for i := range m.Globals {
		if int(m.Globals[i].Init) >= len(m.Functions) {
			errs = append(errs, fmt.Errorf("global %d initializer references unknown function fn%d", i, m.Globals[i].Init))
		}
	}

	for id := range m.Functions {
		f := &m.Functions[id]
		v := funcValidator{m: m, f: f, id: FuncID(id)}
		errs = append(errs, v.run()...)
	}

	return errors.Join(errs...)
}

type funcValidator struct {
	m  *Module
	f  *Func
	id FuncID
}

func (fv *funcValidator) errorf(format string, args ...any) error {
	prefix := fmt.Sprintf("%s (fn%d): ", fv.f.Symbol, fv.id)
	return fmt.Errorf(prefix+format, args...)
}

func (fv *funcValidator) run() []error {
	var errs []error
	b := fv.f.Blocks

	for block := Block(0); int(block) < b.NumBlocks(); block++ {
		if start, end, ok := b.Range(block); ok {
			for v := start; v < end; v++ {
				errs = append(errs, fv.checkEntry(block, v)...)
			}
		}
		errs = append(errs, fv.checkFlow(block, b.Tail(block))...)
	}
	return errs
}

func (fv *funcValidator) checkEntry(block Block, v V) []error {
	var errs []error
	entry := fv.f.Blocks.EntryOf(v)

	check := func(operands ...Value) {
		for _, op := range operands {
			errs = append(errs, fv.checkOperand(block, v, op)...)
		}
	}
	checkAll := func(operands []Value) {
		check(operands...)
	}

	switch entry.Kind {
	case EntryBlockParam:
	case EntryCallStatic:
		if int(entry.CallStatic.Func) >= len(fv.m.Functions) {
			errs = append(errs, fv.errorf("%s calls unknown function fn%d", v, entry.CallStatic.Func))
		}
		checkAll(entry.CallStatic.Args)
	case EntryCallExtern:
		if int(entry.CallExtern.Extern) >= len(fv.m.Externs) {
			errs = append(errs, fv.errorf("%s calls unknown extern ext%d", v, entry.CallExtern.Extern))
		}
		checkAll(entry.CallExtern.Args)
	case EntryCallValue:
		check(entry.CallValue.Callee)
		checkAll(entry.CallValue.Args)
	case EntryCopy:
		check(entry.Copy.Src)
	case EntryConstruct:
		checkAll(entry.Construct.Values)
	case EntryField:
		check(entry.Field.Of)
		if !fv.m.Types.HasField(entry.Field.Key, entry.Field.Index) {
			errs = append(errs, fv.errorf("%s reads missing field %d of %s", v, entry.Field.Index, entry.Field.Key))
		}
	case EntryVariantField:
		check(entry.VariantField.Of)
	case EntryTagOf:
		check(entry.TagOf.Of)
		if _, ok := fv.m.Types.AsVariant(entry.TagOf.Key); !ok {
			errs = append(errs, fv.errorf("%s reads tag of non-variant %s", v, entry.TagOf.Key))
		}
	case EntryAdd, EntrySub, EntryMul, EntryDiv, EntryBitAnd:
		check(entry.BinOp.Lhs, entry.BinOp.Rhs)
	case EntryIntCmp:
		check(entry.IntCmp.Lhs, entry.IntCmp.Rhs)
	case EntryReduce, EntryExtendSigned, EntryExtendUnsigned:
		check(entry.Convert.Src)
	case EntryAlloc:
	case EntryDealloc:
		check(entry.Dealloc.Ptr)
	case EntryWritePtr:
		check(entry.WritePtr.Ptr, entry.WritePtr.Value)
	case EntryDeref:
		check(entry.Deref.Ptr)
	case EntryRefGlobal:
		if int(entry.RefGlobal.Global) >= len(fv.m.Globals) {
			errs = append(errs, fv.errorf("%s references unknown global g%d", v, entry.RefGlobal.Global))
		}
	default:
		errs = append(errs, fv.errorf("%s has invalid entry kind %d", v, entry.Kind))
	}
	return errs
}

func (fv *funcValidator) checkOperand(block Block, v V, op Value) []error {
	var errs []error
	switch op.Kind {
	case ValueV:
		if int(op.V) >= fv.f.Blocks.NumValues() {
			errs = append(errs, fv.errorf("%s in %s uses undefined %s", v, block, op.V))
		} else if op.V >= v {
			errs = append(errs, fv.errorf("%s uses %s before its definition", v, op.V))
		}
	case ValueReadOnly:
		if int(op.ReadOnly) >= len(fv.m.ReadOnly) {
			errs = append(errs, fv.errorf("%s references unknown read-only ro%d", v, op.ReadOnly))
		}
	case ValueFuncPtr:
		if int(op.Func) >= len(fv.m.Functions) {
			errs = append(errs, fv.errorf("%s references unknown function fn%d", v, op.Func))
		}
	case ValueExternPtr:
		if int(op.Extern) >= len(fv.m.Externs) {
			errs = append(errs, fv.errorf("%s references unknown extern ext%d", v, op.Extern))
		}
	}
	return errs
}

func (fv *funcValidator) checkFlow(block Block, flow Flow) []error {
	var errs []error
	b := fv.f.Blocks

	checkJump := func(jump BlockJump) {
		if int(jump.Block) >= b.NumBlocks() {
			errs = append(errs, fv.errorf("%s jumps to unknown %s", block, jump.Block))
			return
		}
		params := b.ParamsOf(jump.Block)
		if len(jump.Args) != len(params) {
			errs = append(errs, fv.errorf("%s jumps to %s with %d args, want %d",
				block, jump.Block, len(jump.Args), len(params)))
		}
	}

	switch flow.Kind {
	case FlowUnreachable:
	case FlowJumpBlock:
		checkJump(flow.JumpBlock)
	case FlowJumpFunc:
		if int(flow.JumpFunc.Func) >= len(fv.m.Functions) {
			errs = append(errs, fv.errorf("%s tail-jumps to unknown function fn%d", block, flow.JumpFunc.Func))
		}
	case FlowReturn:
		if flow.Return.Kind == ValueV && int(flow.Return.V) < b.NumValues() {
			got := b.TypeOf(flow.Return.V)
			if !got.Equal(fv.f.Returns) {
				errs = append(errs, fv.errorf("%s returns %s, function returns %s", block, got, fv.f.Returns))
			}
		}
	case FlowSelect:
		checkJump(flow.Select.OnTrue)
		checkJump(flow.Select.OnFalse)
	case FlowJumpTable:
		if len(flow.JumpTable.Blocks) == 0 {
			errs = append(errs, fv.errorf("%s has an empty jump table", block))
		}
		for _, target := range flow.JumpTable.Blocks {
			if int(target) >= b.NumBlocks() {
				errs = append(errs, fv.errorf("%s jump table targets unknown %s", block, target))
			} else if len(b.ParamsOf(target)) != 0 {
				errs = append(errs, fv.errorf("%s jump table targets %s, which takes parameters", block, target))
			}
		}
	default:
		errs = append(errs, fv.errorf("%s has invalid flow kind %d", block, flow.Kind))
	}
	return errs
}
