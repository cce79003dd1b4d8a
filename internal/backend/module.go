package backend

import "prism/internal/lir"

// ObjectModule is the code generator boundary. Implementations own
// instruction selection, relocation, and object-file layout; the driver only
// declares symbols, hands over bodies, and collects the final bytes.
//
// Symbols must be declared before they are defined or referenced from a
// body. Finish invalidates the module.
type ObjectModule interface {
	// DeclareFunction registers a function symbol with its signature.
	DeclareFunction(symbol string, linkage Linkage, sig Signature) error

	// DefineFunction lowers and emits a module function.
	DefineFunction(symbol string, f *lir.Func) error

	// DefineNative emits a pre-lowered synthetic body.
	DefineNative(symbol string, f *Function) error

	// DefineData emits initialized bytes.
	DefineData(symbol string, linkage Linkage, bytes []byte, writable bool) error

	// DefineZeroed emits zero-initialized storage of the given size.
	DefineZeroed(symbol string, linkage Linkage, size uint32, writable bool) error

	// HasFunction reports whether a function symbol has been declared.
	HasFunction(symbol string) bool

	// Finish returns the object file bytes.
	Finish() ([]byte, error)
}
