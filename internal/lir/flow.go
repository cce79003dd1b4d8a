package lir

// FlowKind enumerates block terminators. The zero value is FlowUnreachable,
// which is what every block starts out as until sealed.
type FlowKind uint8

const (
	// FlowUnreachable marks a block whose end is never executed.
	FlowUnreachable FlowKind = iota
	// FlowJumpBlock transfers control to another block with arguments.
	FlowJumpBlock
	// FlowJumpFunc is a tail transfer to another function.
	FlowJumpFunc
	// FlowReturn leaves the function with a value.
	FlowReturn
	// FlowSelect branches on a bool with independent argument lists.
	FlowSelect
	// FlowJumpTable branches on an integer index; targets carry no arguments.
	FlowJumpTable
)

// BlockJump is a jump target with the arguments bound to its parameters.
type BlockJump struct {
	Block Block
	Args  []Value
}

// JumpFuncFlow tail-transfers to another function.
type JumpFuncFlow struct {
	Func FuncID
	Args []Value
}

// SelectFlow branches on a bool. Each edge carries its own argument list.
type SelectFlow struct {
	Cond    Value
	OnTrue  BlockJump
	OnFalse BlockJump
}

// JumpTableFlow branches on an integer index into Blocks. Values out of
// range are undefined behavior; the builder emits exhaustive tables only.
type JumpTableFlow struct {
	Index  Value
	Blocks []Block
}

// Flow is one block terminator. The payload field selected by Kind is valid.
type Flow struct {
	Kind FlowKind

	JumpBlock BlockJump
	JumpFunc  JumpFuncFlow
	Return    Value
	Select    SelectFlow
	JumpTable JumpTableFlow

	// Continuation marks a jump-to-block that resumes an enclosing
	// expression rather than branching within it. Valid for FlowJumpBlock.
	Continuation bool
}
