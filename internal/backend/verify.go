package backend

import (
	"errors"
	"fmt"
)

// Verify checks a native body before it is handed to the code generator:
// every operand must be defined before use, the body must end in exactly one
// return, and the return arity must match the signature.
func Verify(f *Function) error {
	var errs []error

	defined := make([]bool, f.NumValues())
	for _, p := range f.params {
		defined[p] = true
	}

	use := func(i int, v ValueID) {
		if int(v) >= len(defined) || !defined[v] {
			errs = append(errs, fmt.Errorf("instr %d uses undefined value %d", i, v))
		}
	}

	returns := 0
	for i := range f.Instrs {
		instr := &f.Instrs[i]
		switch instr.Op {
		case OpIConst, OpSymbolAddr:
		case OpCall:
			if len(instr.Results) != len(instr.Sig.Returns) {
				errs = append(errs, fmt.Errorf("instr %d: call yields %d values, signature returns %d",
					i, len(instr.Results), len(instr.Sig.Returns)))
			}
			for _, a := range instr.Args {
				use(i, a)
			}
		case OpStore:
			use(i, instr.Value)
			use(i, instr.Ptr)
		case OpReturn:
			returns++
			if i != len(f.Instrs)-1 {
				errs = append(errs, fmt.Errorf("instr %d: return before end of body", i))
			}
			if len(instr.Args) != len(f.Sig.Returns) {
				errs = append(errs, fmt.Errorf("instr %d: returns %d values, signature wants %d",
					i, len(instr.Args), len(f.Sig.Returns)))
			}
			for _, a := range instr.Args {
				use(i, a)
			}
		default:
			errs = append(errs, fmt.Errorf("instr %d: invalid op %d", i, instr.Op))
		}
		for _, r := range instr.Results {
			if int(r) < len(defined) {
				defined[r] = true
			}
		}
	}
	if returns != 1 {
		errs = append(errs, fmt.Errorf("body has %d returns, want exactly 1", returns))
	}

	return errors.Join(errs...)
}
