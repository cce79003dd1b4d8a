package lir

import (
	"strings"
	"testing"

	"prism/internal/mono"
	"prism/internal/types"
)

func newTestModule(t *testing.T) *Module {
	t.Helper()
	engine := mono.NewTypes(types.NoDefID, 8)
	return NewModule(engine.Records)
}

func TestValidateAcceptsWellFormedModule(t *testing.T) {
	m := newTestModule(t)

	b := NewBlocks()
	p := b.AddBlockParam(EntryBlock, i64())
	done := b.NewBlock()

	doubled := b.Add(Val(p), Val(p), i64())
	b.Jump(done, []Value{Val(doubled)})

	b.Switch(done)
	r := b.AddBlockParam(done, i64())
	b.Return(Val(r))

	m.PushFunction(Func{Symbol: "double", Blocks: b, Returns: i64()})

	if err := Validate(m); err != nil {
		t.Fatalf("unexpected validation errors: %v", err)
	}
}

func TestValidateRejectsArgCountMismatch(t *testing.T) {
	m := newTestModule(t)

	b := NewBlocks()
	done := b.NewBlock()
	b.AddBlockParam(done, i64())

	b.Switch(EntryBlock)
	b.Jump(done, nil) // target wants one argument

	b.Switch(done)
	b.Return(IntVal(0, types.MakeIntSize(true, 64)))

	m.PushFunction(Func{Symbol: "bad_jump", Blocks: b, Returns: i64()})

	err := Validate(m)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "0 args, want 1") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsUseBeforeDefinition(t *testing.T) {
	m := newTestModule(t)

	b := NewBlocks()
	b.Copy(Val(V(5)), i64())
	b.Return(IntVal(0, types.MakeIntSize(true, 64)))

	m.PushFunction(Func{Symbol: "bad_use", Blocks: b, Returns: i64()})

	err := Validate(m)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "undefined") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsReturnTypeMismatch(t *testing.T) {
	m := newTestModule(t)

	b := NewBlocks()
	v := b.Copy(FloatVal(1.5), mono.Float())
	b.Return(Val(v))

	m.PushFunction(Func{Symbol: "bad_return", Blocks: b, Returns: i64()})

	err := Validate(m)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "returns") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsJumpTableTargetWithParams(t *testing.T) {
	m := newTestModule(t)

	b := NewBlocks()
	armed := b.NewBlock()
	b.AddBlockParam(armed, i64())

	b.Switch(EntryBlock)
	b.JumpTable(IntVal(0, types.MakeIntSize(false, 16)), []Block{armed})

	b.Switch(armed)
	b.Return(IntVal(0, types.MakeIntSize(true, 64)))

	m.PushFunction(Func{Symbol: "bad_table", Blocks: b, Returns: i64()})

	err := Validate(m)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "takes parameters") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsUnknownCallTarget(t *testing.T) {
	m := newTestModule(t)

	b := NewBlocks()
	b.CallStatic(FuncID(7), nil, i64())
	b.Return(IntVal(0, types.MakeIntSize(true, 64)))

	m.PushFunction(Func{Symbol: "bad_call", Blocks: b, Returns: i64()})

	err := Validate(m)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "unknown function") {
		t.Fatalf("unexpected error: %v", err)
	}
}
