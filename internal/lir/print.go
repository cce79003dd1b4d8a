package lir

import (
	"fmt"
	"io"
	"strings"
)

// DumpModule writes a human-readable listing of a lowered module.
func DumpModule(w io.Writer, m *Module) error {
	if w == nil || m == nil {
		return nil
	}

	for i := range m.Externs {
		e := &m.Externs[i]
		params := make([]string, len(e.Params))
		for j := range e.Params {
			params[j] = e.Params[j].String()
		}
		if _, err := fmt.Fprintf(w, "extern ext%d %s(%s) -> %s\n",
			i, e.Symbol, strings.Join(params, ", "), e.Returns); err != nil {
			return err
		}
	}
	for i := range m.Globals {
		g := &m.Globals[i]
		if _, err := fmt.Fprintf(w, "global g%d %s: %s = fn%d()\n", i, g.Symbol, g.Type, g.Init); err != nil {
			return err
		}
	}
	for i := range m.ReadOnly {
		r := &m.ReadOnly[i]
		if _, err := fmt.Fprintf(w, "rodata ro%d %s: %d bytes\n", i, r.Symbol, len(r.Bytes)); err != nil {
			return err
		}
	}

	for id := range m.Functions {
		if err := dumpFunc(w, FuncID(id), &m.Functions[id]); err != nil {
			return err
		}
	}
	return nil
}

func dumpFunc(w io.Writer, id FuncID, f *Func) error {
	b := f.Blocks

	marker := ""
	if f.Exported {
		marker = " export"
	}
	if _, err := fmt.Fprintf(w, "fn%d %s%s -> %s\n", id, f.Symbol, marker, f.Returns); err != nil {
		return err
	}

	for block := Block(0); int(block) < b.NumBlocks(); block++ {
		params := b.ParamsOf(block)
		strs := make([]string, len(params))
		for i, p := range params {
			strs[i] = fmt.Sprintf("%s: %s", p, b.TypeOf(p))
		}
		if _, err := fmt.Fprintf(w, "  %s(%s):\n", block, strings.Join(strs, ", ")); err != nil {
			return err
		}

		if start, end, ok := b.Range(block); ok {
			for v := start + V(len(params)); v < end; v++ {
				if _, err := fmt.Fprintf(w, "    %s: %s = %s\n", v, b.TypeOf(v), entryStr(b.EntryOf(v))); err != nil {
					return err
				}
			}
		}
		if _, err := fmt.Fprintf(w, "    %s\n", flowStr(b.Tail(block))); err != nil {
			return err
		}
	}
	return nil
}

func entryStr(e *Entry) string {
	switch e.Kind {
	case EntryCallStatic:
		return fmt.Sprintf("call fn%d%s", e.CallStatic.Func, argsStr(e.CallStatic.Args))
	case EntryCallExtern:
		return fmt.Sprintf("callext ext%d%s", e.CallExtern.Extern, argsStr(e.CallExtern.Args))
	case EntryCallValue:
		return fmt.Sprintf("callind %s%s", e.CallValue.Callee, argsStr(e.CallValue.Args))
	case EntryCopy:
		return fmt.Sprintf("copy %s", e.Copy.Src)
	case EntryConstruct:
		return fmt.Sprintf("construct%s", argsStr(e.Construct.Values))
	case EntryField:
		return fmt.Sprintf("field %s of %s .%d", e.Field.Of, e.Field.Key, e.Field.Index)
	case EntryVariantField:
		return fmt.Sprintf("varfield %s of %s +%d", e.VariantField.Of, e.VariantField.Key, e.VariantField.Offset)
	case EntryTagOf:
		return fmt.Sprintf("tag %s of %s", e.TagOf.Of, e.TagOf.Key)
	case EntryAdd:
		return fmt.Sprintf("add %s %s", e.BinOp.Lhs, e.BinOp.Rhs)
	case EntrySub:
		return fmt.Sprintf("sub %s %s", e.BinOp.Lhs, e.BinOp.Rhs)
	case EntryMul:
		return fmt.Sprintf("mul %s %s", e.BinOp.Lhs, e.BinOp.Rhs)
	case EntryDiv:
		return fmt.Sprintf("div %s %s", e.BinOp.Lhs, e.BinOp.Rhs)
	case EntryBitAnd:
		return fmt.Sprintf("and %s %s", e.BinOp.Lhs, e.BinOp.Rhs)
	case EntryIntCmp:
		return fmt.Sprintf("cmp %s %s %s", e.IntCmp.Predicate, e.IntCmp.Lhs, e.IntCmp.Rhs)
	case EntryReduce:
		return fmt.Sprintf("reduce %s", e.Convert.Src)
	case EntryExtendSigned:
		return fmt.Sprintf("sext %s", e.Convert.Src)
	case EntryExtendUnsigned:
		return fmt.Sprintf("zext %s", e.Convert.Src)
	case EntryAlloc:
		return "alloc"
	case EntryDealloc:
		return fmt.Sprintf("dealloc %s", e.Dealloc.Ptr)
	case EntryWritePtr:
		return fmt.Sprintf("write %s <- %s", e.WritePtr.Ptr, e.WritePtr.Value)
	case EntryDeref:
		return fmt.Sprintf("deref %s", e.Deref.Ptr)
	case EntryRefGlobal:
		return fmt.Sprintf("refglobal g%d", e.RefGlobal.Global)
	case EntryBlockParam:
		return fmt.Sprintf("param %d of %s", e.BlockParam.Index, e.BlockParam.Block)
	default:
		return "<invalid>"
	}
}

func flowStr(f Flow) string {
	switch f.Kind {
	case FlowUnreachable:
		return "unreachable"
	case FlowJumpBlock:
		op := "jump"
		if f.Continuation {
			op = "jumpcont"
		}
		return fmt.Sprintf("%s %s%s", op, f.JumpBlock.Block, argsStr(f.JumpBlock.Args))
	case FlowJumpFunc:
		return fmt.Sprintf("jumpfn fn%d%s", f.JumpFunc.Func, argsStr(f.JumpFunc.Args))
	case FlowReturn:
		return fmt.Sprintf("return %s", f.Return)
	case FlowSelect:
		return fmt.Sprintf("select %s then jump %s%s else jump %s%s",
			f.Select.Cond,
			f.Select.OnTrue.Block, argsStr(f.Select.OnTrue.Args),
			f.Select.OnFalse.Block, argsStr(f.Select.OnFalse.Args))
	case FlowJumpTable:
		targets := make([]string, len(f.JumpTable.Blocks))
		for i, b := range f.JumpTable.Blocks {
			targets[i] = b.String()
		}
		return fmt.Sprintf("jumptable %s [%s]", f.JumpTable.Index, strings.Join(targets, ", "))
	default:
		return "<invalid>"
	}
}

func argsStr(args []Value) string {
	if len(args) == 0 {
		return "()"
	}
	strs := make([]string, len(args))
	for i := range args {
		strs[i] = args[i].String()
	}
	return "(" + strings.Join(strs, ", ") + ")"
}
