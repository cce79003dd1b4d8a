package backend

import (
	"fmt"
	"testing"

	"prism/internal/lir"
	"prism/internal/mono"
	"prism/internal/target"
	"prism/internal/types"
)

// fakeObject records every declaration and definition so tests can assert
// on what the driver handed to the code generator.
type fakeObject struct {
	sigs     map[string]Signature
	linkages map[string]Linkage
	funcs    map[string]*lir.Func
	natives  map[string]*Function
	data     map[string][]byte
	zeroed   map[string]uint32
	finished bool
}

func newFakeObject() *fakeObject {
	return &fakeObject{
		sigs:     make(map[string]Signature),
		linkages: make(map[string]Linkage),
		funcs:    make(map[string]*lir.Func),
		natives:  make(map[string]*Function),
		data:     make(map[string][]byte),
		zeroed:   make(map[string]uint32),
	}
}

func (f *fakeObject) DeclareFunction(symbol string, linkage Linkage, sig Signature) error {
	if _, ok := f.sigs[symbol]; ok {
		return fmt.Errorf("redeclared %s", symbol)
	}
	f.sigs[symbol] = sig
	f.linkages[symbol] = linkage
	return nil
}

func (f *fakeObject) DefineFunction(symbol string, fn *lir.Func) error {
	if _, ok := f.sigs[symbol]; !ok {
		return fmt.Errorf("define of undeclared %s", symbol)
	}
	f.funcs[symbol] = fn
	return nil
}

func (f *fakeObject) DefineNative(symbol string, fn *Function) error {
	if _, ok := f.sigs[symbol]; !ok {
		return fmt.Errorf("define of undeclared %s", symbol)
	}
	f.natives[symbol] = fn
	return nil
}

func (f *fakeObject) DefineData(symbol string, _ Linkage, bytes []byte, _ bool) error {
	f.data[symbol] = bytes
	return nil
}

func (f *fakeObject) DefineZeroed(symbol string, _ Linkage, size uint32, _ bool) error {
	f.zeroed[symbol] = size
	return nil
}

func (f *fakeObject) HasFunction(symbol string) bool {
	_, ok := f.sigs[symbol]
	return ok
}

func (f *fakeObject) Finish() ([]byte, error) {
	f.finished = true
	return []byte("object"), nil
}

func i64Ty() mono.Type {
	return mono.Int(types.MakeIntSize(true, 64))
}

func emptyFunc(symbol string, ret mono.Type) lir.Func {
	b := lir.NewBlocks()
	b.SetTail(lir.Flow{Kind: lir.FlowUnreachable})
	return lir.Func{Symbol: symbol, Blocks: b, Returns: ret}
}

func newEmitModule(t *testing.T) (*lir.Module, *mono.Types) {
	t.Helper()
	engine := mono.NewTypes(types.NoDefID, 8)
	return lir.NewModule(engine.Records), engine
}

func TestClassifySmallCompositePassesDirect(t *testing.T) {
	engine := mono.NewTypes(types.NoDefID, 8)
	s := NewStructs(engine.Records)

	pair := engine.GetOrMakeTuple([]mono.Type{
		mono.Int(types.MakeIntSize(true, 32)),
		mono.Float(),
	})
	pass := s.Classify(mono.Composite(pair))
	if pass.Kind != PassDirect {
		t.Fatalf("small composite: got kind=%d want direct", pass.Kind)
	}
	if len(pass.Scalars) != 2 || pass.Scalars[0] != I32 || pass.Scalars[1] != F64 {
		t.Fatalf("flattened scalars: got=%v", pass.Scalars)
	}
}

func TestClassifyLargeCompositePassesByPointer(t *testing.T) {
	engine := mono.NewTypes(types.NoDefID, 8)
	s := NewStructs(engine.Records)

	wide := engine.GetOrMakeTuple([]mono.Type{i64Ty(), i64Ty(), i64Ty()})
	pass := s.Classify(mono.Composite(wide))
	if pass.Kind != PassPointer {
		t.Fatalf("24-byte composite: got kind=%d want pointer", pass.Kind)
	}

	// Exactly two pointers stays in registers.
	edge := engine.GetOrMakeTuple([]mono.Type{i64Ty(), i64Ty()})
	if got := s.Classify(mono.Composite(edge)); got.Kind != PassDirect {
		t.Fatalf("16-byte composite: got kind=%d want direct", got.Kind)
	}
}

func TestClassifyZeroSizedIsEmpty(t *testing.T) {
	engine := mono.NewTypes(types.NoDefID, 8)
	s := NewStructs(engine.Records)

	if got := s.Classify(mono.UnitType()); got.Kind != PassEmpty {
		t.Fatalf("unit: got kind=%d want empty", got.Kind)
	}
	if got := s.Classify(mono.Unreachable()); got.Kind != PassEmpty {
		t.Fatalf("unreachable: got kind=%d want empty", got.Kind)
	}
}

func TestSignatureAppendsSretForPointerReturn(t *testing.T) {
	engine := mono.NewTypes(types.NoDefID, 8)
	s := NewStructs(engine.Records)

	wide := engine.GetOrMakeTuple([]mono.Type{i64Ty(), i64Ty(), i64Ty()})
	typing := s.FuncTyping([]mono.Type{i64Ty()}, mono.Composite(wide))
	sig := s.Signature(typing, CallConvTail)

	if len(sig.Returns) != 0 {
		t.Fatalf("by-pointer return left %d return slots", len(sig.Returns))
	}
	if len(sig.Params) != 2 {
		t.Fatalf("param count: got=%d want=2", len(sig.Params))
	}
	last := sig.Params[len(sig.Params)-1]
	if last.Purpose != PurposeStructReturn || last.Type != I64 {
		t.Fatalf("trailing param is not sret: %+v", last)
	}
}

func TestFlattenAutoboxedFieldIsPointer(t *testing.T) {
	decls := types.NewDecls()
	node := decls.AddRecord(types.RecordDecl{Name: "Node"})
	decls.MustRecord(node).Fields = []types.Field{
		{Name: "value", Type: types.MakeInt(true, 32)},
		{Name: "next", Type: types.MakeDefined(node, nil)},
	}
	engine := mono.NewTypes(types.NoDefID, 8)
	key := mono.New(engine, decls, nil).Instantiate(node, nil)

	s := NewStructs(engine.Records)
	scalars := s.Flatten(mono.Composite(key))
	if len(scalars) != 2 || scalars[0] != I32 || scalars[1] != I64 {
		t.Fatalf("flattened: got=%v want=[i32 i64]", scalars)
	}
}

func TestRunEmitsHostedEntrypoint(t *testing.T) {
	mod, _ := newEmitModule(t)
	mod.Main = mod.PushFunction(emptyFunc("app_main", mono.UnitType()))
	mod.SysInit = mod.PushFunction(emptyFunc("app_sys_init", mono.UnitType()))

	object := newFakeObject()
	out, err := Run(mod, target.Target{Arch: target.X86_64, Platform: target.LinuxGnu}, object)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if string(out) != "object" {
		t.Fatalf("object bytes not returned")
	}
	if !object.finished {
		t.Fatalf("module not finished")
	}

	entry, ok := object.natives["main"]
	if !ok {
		t.Fatalf("hosted entry not defined; natives=%v", object.natives)
	}
	if object.linkages["main"] != LinkageExport {
		t.Fatalf("entry linkage: got=%s want=export", object.linkages["main"])
	}
	if len(entry.Sig.Params) != 2 || len(entry.Sig.Returns) != 1 {
		t.Fatalf("entry signature: %+v", entry.Sig)
	}

	// init vals, sys init, main, in that order.
	var calls []string
	for _, instr := range entry.Instrs {
		if instr.Op == OpCall {
			calls = append(calls, instr.Symbol)
		}
	}
	want := []string{initValsSymbol, "app_sys_init", "app_main"}
	if len(calls) != len(want) {
		t.Fatalf("entry calls: got=%v want=%v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("entry calls: got=%v want=%v", calls, want)
		}
	}
}

func TestRunEmitsFreestandingEntrypoint(t *testing.T) {
	mod, _ := newEmitModule(t)
	mod.Main = mod.PushFunction(emptyFunc("app_main", mono.UnitType()))
	mod.PushExtern(lir.Extern{Symbol: syscallSymbol, Params: []mono.Type{
		i64Ty(), i64Ty(), i64Ty(), i64Ty(), i64Ty(), i64Ty(),
	}, Returns: i64Ty()})

	object := newFakeObject()
	if _, err := Run(mod, target.Target{Arch: target.X86_64, Platform: target.LinuxSyscall}, object); err != nil {
		t.Fatalf("run: %v", err)
	}

	entry, ok := object.natives["_start"]
	if !ok {
		t.Fatalf("_start not defined")
	}

	var exitCall *Instr
	for i := range entry.Instrs {
		if entry.Instrs[i].Op == OpCall && entry.Instrs[i].Symbol == syscallSymbol {
			exitCall = &entry.Instrs[i]
		}
	}
	if exitCall == nil {
		t.Fatalf("no exit syscall in _start")
	}
	if len(exitCall.Args) != 6 {
		t.Fatalf("syscall args: got=%d want=6", len(exitCall.Args))
	}
}

func TestRunFailsFreestandingWithoutSyscallShim(t *testing.T) {
	mod, _ := newEmitModule(t)
	mod.Main = mod.PushFunction(emptyFunc("app_main", mono.UnitType()))

	object := newFakeObject()
	_, err := Run(mod, target.Target{Arch: target.X86_64, Platform: target.LinuxSyscall}, object)
	if err == nil {
		t.Fatalf("expected error without %q", syscallSymbol)
	}
}

func TestValRunnerStoresScalarsAtPaddedOffsets(t *testing.T) {
	mod, engine := newEmitModule(t)

	// Initializer returns (u8, i64): the second store must land at offset 8.
	pair := engine.GetOrMakeTuple([]mono.Type{mono.Byte(), i64Ty()})
	init := mod.PushFunction(emptyFunc("init_cfg", mono.Composite(pair)))
	mod.PushGlobal(lir.GlobalVal{Symbol: "cfg", Type: mono.Composite(pair), Init: init})
	mod.Main = mod.PushFunction(emptyFunc("app_main", mono.UnitType()))

	object := newFakeObject()
	if _, err := Run(mod, target.Target{Arch: target.X86_64, Platform: target.LinuxGnu}, object); err != nil {
		t.Fatalf("run: %v", err)
	}

	if size := object.zeroed["cfg"+valSuffix]; size != 9 {
		t.Fatalf("global storage: got=%d want=9", size)
	}

	runner, ok := object.natives[initValsSymbol]
	if !ok {
		t.Fatalf("val runner not defined")
	}
	var offsets []uint32
	for _, instr := range runner.Instrs {
		if instr.Op == OpStore {
			offsets = append(offsets, instr.Offset)
		}
	}
	if len(offsets) != 2 || offsets[0] != 0 || offsets[1] != 8 {
		t.Fatalf("store offsets: got=%v want=[0 8]", offsets)
	}
}

func TestValRunnerPassesSretForWideGlobals(t *testing.T) {
	mod, engine := newEmitModule(t)

	wide := engine.GetOrMakeTuple([]mono.Type{i64Ty(), i64Ty(), i64Ty()})
	init := mod.PushFunction(emptyFunc("init_table", mono.Composite(wide)))
	mod.PushGlobal(lir.GlobalVal{Symbol: "table", Type: mono.Composite(wide), Init: init})
	mod.Main = mod.PushFunction(emptyFunc("app_main", mono.UnitType()))

	object := newFakeObject()
	if _, err := Run(mod, target.Target{Arch: target.X86_64, Platform: target.LinuxGnu}, object); err != nil {
		t.Fatalf("run: %v", err)
	}

	runner := object.natives[initValsSymbol]
	for _, instr := range runner.Instrs {
		if instr.Op == OpCall && instr.Symbol == "init_table" {
			if len(instr.Args) != 1 {
				t.Fatalf("sret call args: got=%d want=1", len(instr.Args))
			}
			return
		}
	}
	t.Fatalf("initializer never called")
}

func TestVerifyRejectsMissingReturn(t *testing.T) {
	fn := NewFunction(Signature{CallConv: CallConvSystemV})
	fn.IConst(I64, 1)
	if err := Verify(fn); err == nil {
		t.Fatalf("expected verification error for missing return")
	}
}

func TestVerifyRejectsUndefinedOperand(t *testing.T) {
	fn := NewFunction(Signature{CallConv: CallConvSystemV})
	fn.Store(ValueID(9), ValueID(8), 0)
	fn.Return(nil)
	if err := Verify(fn); err == nil {
		t.Fatalf("expected verification error for undefined operand")
	}
}
