package lir

import (
	"testing"

	"prism/internal/mono"
	"prism/internal/types"
)

func i64() mono.Type {
	return mono.Int(types.MakeIntSize(true, 64))
}

func TestBlocksOwnContiguousRanges(t *testing.T) {
	b := NewBlocks()

	p := b.AddBlockParam(EntryBlock, i64())
	sum := b.Add(Val(p), IntVal(1, types.MakeIntSize(true, 64)), i64())

	next := b.NewBlock()
	b.Jump(next, nil)
	b.Switch(next)
	prod := b.Mul(Val(sum), Val(sum), i64())
	b.Return(Val(prod))

	if got := b.BlockOf(p); got != EntryBlock {
		t.Fatalf("param block: got=%s want=%s", got, EntryBlock)
	}
	if got := b.BlockOf(prod); got != next {
		t.Fatalf("prod block: got=%s want=%s", got, next)
	}

	start, end, ok := b.Range(EntryBlock)
	if !ok || start != 0 || end != 2 {
		t.Fatalf("entry range: got=[%d,%d) ok=%v want=[0,2)", start, end, ok)
	}
	start, end, ok = b.Range(next)
	if !ok || start != 2 || end != 3 {
		t.Fatalf("next range: got=[%d,%d) ok=%v want=[2,3)", start, end, ok)
	}
}

func TestAssignIntoSealedBlockPanics(t *testing.T) {
	b := NewBlocks()
	b.Add(IntVal(1, types.MakeIntSize(true, 64)), IntVal(2, types.MakeIntSize(true, 64)), i64())

	other := b.NewBlock()
	b.Switch(other)
	b.Add(IntVal(3, types.MakeIntSize(true, 64)), IntVal(4, types.MakeIntSize(true, 64)), i64())

	// The entry block's range was closed the moment `other` claimed an id.
	b.Switch(EntryBlock)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on assignment into a sealed block")
		}
	}()
	b.Copy(IntVal(0, types.MakeIntSize(true, 64)), i64())
}

func TestAssignAfterTerminatorPanics(t *testing.T) {
	b := NewBlocks()
	b.Return(IntVal(0, types.MakeIntSize(true, 64)))

	// The entry block is still the most recent assigner, so only the
	// terminator guards it.
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on assignment into a terminated block; NumValues=%d", b.NumValues())
		}
	}()
	b.Add(IntVal(1, types.MakeIntSize(true, 64)), IntVal(2, types.MakeIntSize(true, 64)), i64())
}

func TestSetTailTwicePanics(t *testing.T) {
	b := NewBlocks()
	b.Return(IntVal(0, types.MakeIntSize(true, 64)))

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on second tail assignment")
		}
	}()
	b.Return(IntVal(1, types.MakeIntSize(true, 64)))
}

func TestUnsealedBlockReadsUnreachable(t *testing.T) {
	b := NewBlocks()
	if got := b.Tail(EntryBlock); got.Kind != FlowUnreachable {
		t.Fatalf("initial tail: got kind=%d want unreachable", got.Kind)
	}
	if b.Sealed(EntryBlock) {
		t.Fatalf("fresh block reads as sealed")
	}
}

func TestInBlockRestoresCursor(t *testing.T) {
	b := NewBlocks()
	side := b.NewBlock()

	var inside Block
	b.InBlock(side, func() {
		inside = b.Current()
		b.Return(IntVal(0, types.MakeIntSize(true, 64)))
	})

	if inside != side {
		t.Fatalf("in-block cursor: got=%s want=%s", inside, side)
	}
	if got := b.Current(); got != EntryBlock {
		t.Fatalf("restored cursor: got=%s want=%s", got, EntryBlock)
	}
}

func TestInBlockRestoresCursorOnPanic(t *testing.T) {
	b := NewBlocks()
	side := b.NewBlock()

	func() {
		defer func() { _ = recover() }()
		b.InBlock(side, func() {
			panic("boom")
		})
	}()

	if got := b.Current(); got != EntryBlock {
		t.Fatalf("cursor after panic: got=%s want=%s", got, EntryBlock)
	}
}

func TestBlockParamAfterInstructionPanics(t *testing.T) {
	b := NewBlocks()
	b.Add(IntVal(1, types.MakeIntSize(true, 64)), IntVal(2, types.MakeIntSize(true, 64)), i64())

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on late parameter")
		}
	}()
	b.AddBlockParam(EntryBlock, i64())
}

func TestCmpsFoldsLeftAssociatively(t *testing.T) {
	b := NewBlocks()

	size := types.MakeIntSize(true, 32)
	lhs := []Value{IntVal(1, size), IntVal(2, size), IntVal(3, size)}
	rhs := []Value{IntVal(1, size), IntVal(2, size), IntVal(4, size)}

	result := b.Cmps(lhs, rhs, CmpEq)

	// Three comparisons plus two folds.
	if got := b.NumValues(); got != 5 {
		t.Fatalf("value count: got=%d want=5", got)
	}
	top := b.EntryOf(result)
	if top.Kind != EntryBitAnd {
		t.Fatalf("chain top: got kind=%d want bitand", top.Kind)
	}
	if top.BinOp.Lhs.Kind != ValueV || top.BinOp.Rhs.Kind != ValueV {
		t.Fatalf("chain operands are not values")
	}
	if inner := b.EntryOf(top.BinOp.Lhs.V); inner.Kind != EntryBitAnd {
		t.Fatalf("fold is not left-associative: lhs kind=%d", inner.Kind)
	}
	if leaf := b.EntryOf(top.BinOp.Rhs.V); leaf.Kind != EntryIntCmp {
		t.Fatalf("rightmost operand is not a comparison: kind=%d", leaf.Kind)
	}
	if !b.TypeOf(result).Equal(mono.Bool()) {
		t.Fatalf("cmps type: got=%s want bool", b.TypeOf(result))
	}
}

func TestAllocYieldsPointerToPointee(t *testing.T) {
	b := NewBlocks()
	v := b.Alloc(i64())
	if got := b.TypeOf(v); !got.Equal(mono.Pointer(i64())) {
		t.Fatalf("alloc type: got=%s want=*i64", got)
	}
}
