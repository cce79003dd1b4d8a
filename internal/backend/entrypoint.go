package backend

import (
	"fmt"

	"prism/internal/lir"
)

// defineValRunner synthesizes the function that computes every global's
// value and stores it into the global's zeroed storage. By-pointer results
// are written in place through the sret parameter; register results are
// stored one scalar at a time at alignment-padded offsets.
func (e *emitter) defineValRunner() error {
	sig := Signature{CallConv: CallConvSystemV}
	fn := NewFunction(sig)

	for i := range e.mod.Globals {
		g := &e.mod.Globals[i]
		init := e.mod.Function(g.Init)
		initSig := e.funcSignature(init)

		ret := e.structs.ClassifyReturn(init.Returns)
		switch ret.Kind {
		case PassEmpty:
			fn.Call(init.Symbol, initSig, nil)
		case PassPointer:
			slot := fn.SymbolAddr(valSymbol(g))
			fn.Call(init.Symbol, initSig, []ValueID{slot})
		case PassDirect:
			results := fn.Call(init.Symbol, initSig, nil)
			slot := fn.SymbolAddr(valSymbol(g))
			var offset uint32
			for j, sc := range ret.Scalars {
				offset = alignUp(offset, sc.Bytes())
				fn.Store(results[j], slot, offset)
				offset += sc.Bytes()
			}
		}
	}
	fn.Return(nil)

	return e.defineSynthetic(initValsSymbol, LinkageHidden, sig, fn)
}

// defineEntrypoint synthesizes program startup. Hosted targets expose the
// libc-shaped main(argc, argv); freestanding targets expose _start and exit
// through the raw syscall shim.
func (e *emitter) defineEntrypoint() error {
	if e.mod.Main == lir.NoFuncID {
		return fmt.Errorf("backend: module has no main function")
	}
	if e.tgt.Hosted() {
		return e.defineHostedEntry()
	}
	return e.defineFreestandingEntry()
}

func (e *emitter) defineHostedEntry() error {
	sig := Signature{
		CallConv: CallConvSystemV,
		Params:   []AbiParam{Param(I32), Param(e.structs.ptrScalar())},
		Returns:  []AbiParam{Param(I64)},
	}
	fn := NewFunction(sig)
	argc, argv := fn.Params()[0], fn.Params()[1]

	fn.Call(initValsSymbol, Signature{CallConv: CallConvSystemV}, nil)

	if e.mod.SysInit != lir.NoFuncID {
		sysInit := e.mod.Function(e.mod.SysInit)
		fn.Call(sysInit.Symbol, e.funcSignature(sysInit), []ValueID{argc, argv})
	}

	main := e.mod.Function(e.mod.Main)
	fn.Call(main.Symbol, e.funcSignature(main), nil)

	zero := fn.IConst(I64, 0)
	fn.Return([]ValueID{zero})

	return e.defineSynthetic(e.tgt.EntrySymbol(), LinkageExport, sig, fn)
}

func (e *emitter) defineFreestandingEntry() error {
	if !e.object.HasFunction(syscallSymbol) {
		return fmt.Errorf("backend: freestanding target requires the %q symbol", syscallSymbol)
	}

	sig := Signature{CallConv: CallConvSystemV}
	fn := NewFunction(sig)

	fn.Call(initValsSymbol, Signature{CallConv: CallConvSystemV}, nil)

	main := e.mod.Function(e.mod.Main)
	fn.Call(main.Symbol, e.funcSignature(main), nil)

	// exit(0): syscall 60 never returns, but the body still needs a
	// terminator the verifier accepts.
	syscallSig := Signature{
		CallConv: CallConvSystemV,
		Params:   []AbiParam{Param(I64), Param(I64), Param(I64), Param(I64), Param(I64), Param(I64)},
		Returns:  []AbiParam{Param(I64)},
	}
	zero := fn.IConst(I64, 0)
	nr := fn.IConst(I64, 60)
	fn.Call(syscallSymbol, syscallSig, []ValueID{zero, zero, zero, zero, zero, nr})
	fn.Return(nil)

	return e.defineSynthetic(e.tgt.EntrySymbol(), LinkageExport, sig, fn)
}

func (e *emitter) defineSynthetic(symbol string, linkage Linkage, sig Signature, fn *Function) error {
	if err := Verify(fn); err != nil {
		return fmt.Errorf("backend: %s failed verification: %w", symbol, err)
	}
	if err := e.object.DeclareFunction(symbol, linkage, sig); err != nil {
		return fmt.Errorf("backend: declare %s: %w", symbol, err)
	}
	if err := e.object.DefineNative(symbol, fn); err != nil {
		return fmt.Errorf("backend: define %s: %w", symbol, err)
	}
	return nil
}

func alignUp(offset, align uint32) uint32 {
	if align == 0 {
		return offset
	}
	rem := offset % align
	if rem == 0 {
		return offset
	}
	return offset + align - rem
}
