package lir

import (
	"fmt"

	"fortio.org/safecast"

	"prism/internal/mono"
	"prism/internal/types"
)

type blockData struct {
	params int

	// Half-open-range bookkeeping: the block owns [start, end] once hasRange
	// is set. Ids are function-global, so the ranges of two blocks never
	// overlap and interleaving assignments between blocks is rejected.
	hasRange bool
	start    V
	end      V

	tail    Flow
	tailSet bool
}

// Blocks is the per-function SSA builder. Every value-producing instruction
// assigned through it gets the next V of the function; the block being built
// owns all ids assigned while it is current. Assigning into a block after a
// later block has started claiming ids panics.
type Blocks struct {
	current Block
	blocks  []blockData

	ventries []Entry
	vtypes   []mono.Type
}

// NewBlocks creates a builder with an empty entry block as current.
func NewBlocks() *Blocks {
	return &Blocks{blocks: make([]blockData, 1)}
}

// NewBlock appends an empty block without switching to it.
func (b *Blocks) NewBlock() Block {
	raw, err := safecast.Conv[uint32](len(b.blocks))
	if err != nil {
		panic(fmt.Errorf("lir: block id overflow: %w", err))
	}
	b.blocks = append(b.blocks, blockData{})
	return Block(raw)
}

// Switch makes block the assignment target for subsequent instructions.
func (b *Blocks) Switch(block Block) {
	b.block(block)
	b.current = block
}

// Current returns the block instructions are being assigned into.
func (b *Blocks) Current() Block {
	return b.current
}

// InBlock runs fn with block as current, then restores the previous cursor,
// also when fn panics.
func (b *Blocks) InBlock(block Block, fn func()) {
	prev := b.current
	b.Switch(block)
	defer func() { b.current = prev }()
	fn()
}

// NumBlocks returns the number of created blocks.
func (b *Blocks) NumBlocks() int {
	return len(b.blocks)
}

// NumValues returns the number of assigned values.
func (b *Blocks) NumValues() int {
	return len(b.ventries)
}

func (b *Blocks) block(block Block) *blockData {
	if int(block) >= len(b.blocks) {
		panic(fmt.Sprintf("lir: unknown %s", block))
	}
	return &b.blocks[block]
}

func (b *Blocks) assignIn(block Block, entry Entry, ty mono.Type) V {
	raw, err := safecast.Conv[uint32](len(b.ventries))
	if err != nil {
		panic(fmt.Errorf("lir: value id overflow: %w", err))
	}
	v := V(raw)

	blk := b.block(block)
	if blk.tailSet {
		panic(fmt.Sprintf("lir: assignment in %s after it has been sealed", block))
	}
	if !blk.hasRange {
		blk.hasRange = true
		blk.start = v
	} else if blk.end+1 != v {
		// Another block has claimed ids since this one last assigned.
		panic(fmt.Sprintf("lir: assignment in %s after it has been sealed", block))
	}
	blk.end = v

	b.ventries = append(b.ventries, entry)
	b.vtypes = append(b.vtypes, ty)
	return v
}

func (b *Blocks) assign(entry Entry, ty mono.Type) V {
	return b.assignIn(b.current, entry, ty)
}

// AddBlockParam appends a parameter to block. Parameters must be declared
// before any instruction is assigned into the block.
func (b *Blocks) AddBlockParam(block Block, ty mono.Type) V {
	blk := b.block(block)
	if blk.hasRange && int(blk.end-blk.start)+1 != blk.params {
		panic(fmt.Sprintf("lir: parameter added to %s after instructions", block))
	}
	index := blk.params
	v := b.assignIn(block, Entry{
		Kind:       EntryBlockParam,
		BlockParam: BlockParamEntry{Block: block, Index: index},
	}, ty)
	b.block(block).params++
	return v
}

// ParamsOf returns block's parameter values in declaration order.
func (b *Blocks) ParamsOf(block Block) []V {
	blk := b.block(block)
	params := make([]V, blk.params)
	for i := range params {
		params[i] = blk.start + V(i)
	}
	return params
}

// Range returns the half-open id range owned by block.
func (b *Blocks) Range(block Block) (start, end V, ok bool) {
	blk := b.block(block)
	if !blk.hasRange {
		return 0, 0, false
	}
	return blk.start, blk.end + 1, true
}

// BlockOf returns the block that assigned v.
func (b *Blocks) BlockOf(v V) Block {
	for i := range b.blocks {
		blk := &b.blocks[i]
		if blk.hasRange && v >= blk.start && v <= blk.end {
			return Block(i)
		}
	}
	panic(fmt.Sprintf("lir: %s belongs to no block", v))
}

// TypeOf returns the type of an assigned value.
func (b *Blocks) TypeOf(v V) mono.Type {
	if int(v) >= len(b.vtypes) {
		panic(fmt.Sprintf("lir: unknown value %s", v))
	}
	return b.vtypes[v]
}

// EntryOf returns the instruction that assigned v.
func (b *Blocks) EntryOf(v V) *Entry {
	if int(v) >= len(b.ventries) {
		panic(fmt.Sprintf("lir: unknown value %s", v))
	}
	return &b.ventries[v]
}

// SetTail seals the current block with its terminator. Sealing twice is a
// defect in the caller.
func (b *Blocks) SetTail(flow Flow) {
	blk := b.block(b.current)
	if blk.tailSet {
		panic(fmt.Sprintf("lir: tail already assigned in %s", b.current))
	}
	blk.tail = flow
	blk.tailSet = true
}

// Tail returns block's terminator; unsealed blocks read as unreachable.
func (b *Blocks) Tail(block Block) Flow {
	return b.block(block).tail
}

// Sealed reports whether block's tail has been assigned.
func (b *Blocks) Sealed(block Block) bool {
	return b.block(block).tailSet
}

// Copy rebinds src as a fresh value of type ty.
func (b *Blocks) Copy(src Value, ty mono.Type) V {
	return b.assign(Entry{Kind: EntryCopy, Copy: CopyEntry{Src: src}}, ty)
}

// CallStatic calls a module function.
func (b *Blocks) CallStatic(f FuncID, args []Value, ret mono.Type) V {
	return b.assign(Entry{Kind: EntryCallStatic, CallStatic: CallStaticEntry{Func: f, Args: args}}, ret)
}

// CallExtern calls an external function.
func (b *Blocks) CallExtern(e ExternID, args []Value, ret mono.Type) V {
	return b.assign(Entry{Kind: EntryCallExtern, CallExtern: CallExternEntry{Extern: e, Args: args}}, ret)
}

// CallValue calls through a function pointer operand.
func (b *Blocks) CallValue(callee Value, args []Value, ret mono.Type) V {
	return b.assign(Entry{Kind: EntryCallValue, CallValue: CallValueEntry{Callee: callee, Args: args}}, ret)
}

// Construct builds a composite value from field operands in order.
func (b *Blocks) Construct(values []Value, ty mono.Type) V {
	return b.assign(Entry{Kind: EntryConstruct, Construct: ConstructEntry{Values: values}}, ty)
}

// Field reads field index of a composite.
func (b *Blocks) Field(of Value, key mono.RecordKey, index int, ty mono.Type) V {
	return b.assign(Entry{Kind: EntryField, Field: FieldEntry{Of: of, Key: key, Index: index}}, ty)
}

// VariantField reads payload bytes of a variant case at a byte offset.
func (b *Blocks) VariantField(of Value, key mono.RecordKey, offset uint32, ty mono.Type) V {
	return b.assign(Entry{Kind: EntryVariantField, VariantField: VariantFieldEntry{Of: of, Key: key, Offset: offset}}, ty)
}

// TagOf reads a variant's tag.
func (b *Blocks) TagOf(of Value, key mono.RecordKey, tag types.IntSize) V {
	return b.assign(Entry{Kind: EntryTagOf, TagOf: TagOfEntry{Of: of, Key: key}}, mono.Int(tag))
}

// Add emits an addition; integer or float per the operand type.
func (b *Blocks) Add(lhs, rhs Value, ty mono.Type) V {
	return b.assign(Entry{Kind: EntryAdd, BinOp: BinOpEntry{Lhs: lhs, Rhs: rhs}}, ty)
}

// Sub emits a subtraction.
func (b *Blocks) Sub(lhs, rhs Value, ty mono.Type) V {
	return b.assign(Entry{Kind: EntrySub, BinOp: BinOpEntry{Lhs: lhs, Rhs: rhs}}, ty)
}

// Mul emits a multiplication.
func (b *Blocks) Mul(lhs, rhs Value, ty mono.Type) V {
	return b.assign(Entry{Kind: EntryMul, BinOp: BinOpEntry{Lhs: lhs, Rhs: rhs}}, ty)
}

// Div emits a division.
func (b *Blocks) Div(lhs, rhs Value, ty mono.Type) V {
	return b.assign(Entry{Kind: EntryDiv, BinOp: BinOpEntry{Lhs: lhs, Rhs: rhs}}, ty)
}

// BitAnd is bitwise and.
func (b *Blocks) BitAnd(lhs, rhs Value, ty mono.Type) V {
	return b.assign(Entry{Kind: EntryBitAnd, BinOp: BinOpEntry{Lhs: lhs, Rhs: rhs}}, ty)
}

// Cmp compares two integers, producing a bool.
func (b *Blocks) Cmp(lhs, rhs Value, pred CmpPredicate) V {
	return b.assign(Entry{Kind: EntryIntCmp, IntCmp: IntCmpEntry{Lhs: lhs, Rhs: rhs, Predicate: pred}}, mono.Bool())
}

// Eq compares for equality.
func (b *Blocks) Eq(lhs, rhs Value) V {
	return b.Cmp(lhs, rhs, CmpEq)
}

// Lti compares less-than.
func (b *Blocks) Lti(lhs, rhs Value) V {
	return b.Cmp(lhs, rhs, CmpLt)
}

// Gti compares greater-than.
func (b *Blocks) Gti(lhs, rhs Value) V {
	return b.Cmp(lhs, rhs, CmpGt)
}

// Cmps compares two operand lists pairwise and folds the results
// left-associatively with bitwise and.
func (b *Blocks) Cmps(lhs, rhs []Value, pred CmpPredicate) V {
	if len(lhs) != len(rhs) || len(lhs) == 0 {
		panic(fmt.Sprintf("lir: cmps over %d/%d operands", len(lhs), len(rhs)))
	}
	acc := b.Cmp(lhs[0], rhs[0], pred)
	for i := 1; i < len(lhs); i++ {
		next := b.Cmp(lhs[i], rhs[i], pred)
		acc = b.BitAnd(Val(acc), Val(next), mono.Bool())
	}
	return acc
}

// Reduce truncates an integer to a narrower size.
func (b *Blocks) Reduce(src Value, to types.IntSize) V {
	return b.assign(Entry{Kind: EntryReduce, Convert: ConvertEntry{Src: src}}, mono.Int(to))
}

// ExtendSigned sign-extends an integer.
func (b *Blocks) ExtendSigned(src Value, to types.IntSize) V {
	return b.assign(Entry{Kind: EntryExtendSigned, Convert: ConvertEntry{Src: src}}, mono.Int(to))
}

// ExtendUnsigned zero-extends an integer.
func (b *Blocks) ExtendUnsigned(src Value, to types.IntSize) V {
	return b.assign(Entry{Kind: EntryExtendUnsigned, Convert: ConvertEntry{Src: src}}, mono.Int(to))
}

// Alloc heap-allocates storage for pointee, yielding its pointer.
func (b *Blocks) Alloc(pointee mono.Type) V {
	return b.assign(Entry{Kind: EntryAlloc}, mono.Pointer(pointee))
}

// Dealloc releases an allocation.
func (b *Blocks) Dealloc(ptr Value) V {
	return b.assign(Entry{Kind: EntryDealloc, Dealloc: DeallocEntry{Ptr: ptr}}, mono.UnitType())
}

// WritePtr stores value through ptr.
func (b *Blocks) WritePtr(ptr, value Value) V {
	return b.assign(Entry{Kind: EntryWritePtr, WritePtr: WritePtrEntry{Ptr: ptr, Value: value}}, mono.UnitType())
}

// Deref loads the pointee of ptr.
func (b *Blocks) Deref(ptr Value, ty mono.Type) V {
	return b.assign(Entry{Kind: EntryDeref, Deref: DerefEntry{Ptr: ptr}}, ty)
}

// RefGlobal takes the address of a global slot.
func (b *Blocks) RefGlobal(g GlobalID, pointee mono.Type) V {
	return b.assign(Entry{Kind: EntryRefGlobal, RefGlobal: RefGlobalEntry{Global: g}}, mono.Pointer(pointee))
}

// Jump seals the current block with a jump.
func (b *Blocks) Jump(block Block, args []Value) {
	b.SetTail(Flow{Kind: FlowJumpBlock, JumpBlock: BlockJump{Block: block, Args: args}})
}

// JumpContinuation seals the current block with a jump that resumes an
// enclosing expression's continuation block.
func (b *Blocks) JumpContinuation(block Block, args []Value) {
	b.SetTail(Flow{
		Kind:         FlowJumpBlock,
		JumpBlock:    BlockJump{Block: block, Args: args},
		Continuation: true,
	})
}

// JumpFunc seals the current block with a tail transfer.
func (b *Blocks) JumpFunc(f FuncID, args []Value) {
	b.SetTail(Flow{Kind: FlowJumpFunc, JumpFunc: JumpFuncFlow{Func: f, Args: args}})
}

// Return seals the current block with a return.
func (b *Blocks) Return(v Value) {
	b.SetTail(Flow{Kind: FlowReturn, Return: v})
}

// Select seals the current block with a bool branch.
func (b *Blocks) Select(cond Value, onTrue, onFalse BlockJump) {
	b.SetTail(Flow{Kind: FlowSelect, Select: SelectFlow{Cond: cond, OnTrue: onTrue, OnFalse: onFalse}})
}

// JumpTable seals the current block with an indexed branch.
func (b *Blocks) JumpTable(index Value, blocks []Block) {
	b.SetTail(Flow{Kind: FlowJumpTable, JumpTable: JumpTableFlow{Index: index, Blocks: blocks}})
}
