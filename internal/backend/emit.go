package backend

import (
	"fmt"

	"prism/internal/lir"
	"prism/internal/target"
)

const (
	// valSuffix is appended to a global's symbol to name its storage.
	valSuffix = "___VAL"

	// initValsSymbol is the synthetic function that runs every global
	// initializer before user code.
	initValsSymbol = "__init_vals"

	// syscallSymbol is the well-known raw syscall shim freestanding targets
	// exit through.
	syscallSymbol = "x86_64_syscall"
)

// Run emits mod as object code for tgt through object, returning the object
// file bytes. It declares every symbol, defines all data and functions,
// synthesizes the global-initializer runner and the platform entry point,
// and finishes the module.
func Run(mod *lir.Module, tgt target.Target, object ObjectModule) ([]byte, error) {
	e := &emitter{
		mod:     mod,
		tgt:     tgt,
		object:  object,
		structs: NewStructs(mod.Types),
	}

	if err := e.defineGlobals(); err != nil {
		return nil, err
	}
	if err := e.defineReadOnly(); err != nil {
		return nil, err
	}
	if err := e.declareExterns(); err != nil {
		return nil, err
	}
	if err := e.defineFunctions(); err != nil {
		return nil, err
	}
	if err := e.defineValRunner(); err != nil {
		return nil, err
	}
	if err := e.defineEntrypoint(); err != nil {
		return nil, err
	}
	return object.Finish()
}

type emitter struct {
	mod     *lir.Module
	tgt     target.Target
	object  ObjectModule
	structs *Structs
}

func valSymbol(g *lir.GlobalVal) string {
	return g.Symbol + valSuffix
}

// funcSignature lowers a module function's boundary. Module functions use
// the tail convention so jump-to-function flows stay true tails.
func (e *emitter) funcSignature(f *lir.Func) Signature {
	return e.structs.Signature(e.funcTyping(f), CallConvTail)
}

func (e *emitter) funcTyping(f *lir.Func) Typing {
	params := f.Params()
	ptypes := make([]Pass, len(params))
	for i, p := range params {
		ptypes[i] = e.structs.Classify(f.Blocks.TypeOf(p))
	}
	return Typing{Params: ptypes, Ret: e.structs.ClassifyReturn(f.Returns)}
}

func (e *emitter) defineGlobals() error {
	for i := range e.mod.Globals {
		g := &e.mod.Globals[i]
		size := e.mod.Types.Size(g.Type)
		if err := e.object.DefineZeroed(valSymbol(g), LinkageExport, size, true); err != nil {
			return fmt.Errorf("backend: global %s: %w", g.Symbol, err)
		}
	}
	return nil
}

func (e *emitter) defineReadOnly() error {
	for i := range e.mod.ReadOnly {
		r := &e.mod.ReadOnly[i]
		if err := e.object.DefineData(r.Symbol, LinkageExport, r.Bytes, false); err != nil {
			return fmt.Errorf("backend: rodata %s: %w", r.Symbol, err)
		}
	}
	return nil
}

func (e *emitter) declareExterns() error {
	for i := range e.mod.Externs {
		ext := &e.mod.Externs[i]
		typing := e.structs.FuncTyping(ext.Params, ext.Returns)
		sig := e.structs.Signature(typing, CallConvSystemV)
		if err := e.object.DeclareFunction(ext.Symbol, LinkageImport, sig); err != nil {
			return fmt.Errorf("backend: extern %s: %w", ext.Symbol, err)
		}
	}
	return nil
}

func (e *emitter) defineFunctions() error {
	// Declare everything first; bodies may reference any function.
	for i := range e.mod.Functions {
		f := &e.mod.Functions[i]
		linkage := LinkageHidden
		if f.Exported {
			linkage = LinkageExport
		}
		if err := e.object.DeclareFunction(f.Symbol, linkage, e.funcSignature(f)); err != nil {
			return fmt.Errorf("backend: declare %s: %w", f.Symbol, err)
		}
	}
	for i := range e.mod.Functions {
		f := &e.mod.Functions[i]
		if err := e.object.DefineFunction(f.Symbol, f); err != nil {
			return fmt.Errorf("backend: define %s: %w", f.Symbol, err)
		}
	}
	return nil
}
