package backend

import (
	"fmt"

	"prism/internal/mono"
)

// PassKind classifies how a type crosses a function boundary.
type PassKind uint8

const (
	// PassEmpty is a zero-sized type: it does not appear in signatures.
	PassEmpty PassKind = iota
	// PassDirect carries the type in registers, one slot per scalar.
	PassDirect
	// PassPointer carries the address of caller-owned storage. Returns use
	// a hidden trailing sret parameter instead of a return slot.
	PassPointer
)

// Pass is one classified parameter or return.
type Pass struct {
	Kind    PassKind
	Scalars []Scalar
}

// Typing is a fully classified function boundary.
type Typing struct {
	Params []Pass
	Ret    Pass
}

// Structs classifies monomorphized types against the layout table.
type Structs struct {
	Records *mono.Records
}

// NewStructs creates a classifier over a layout table.
func NewStructs(records *mono.Records) *Structs {
	return &Structs{Records: records}
}

func (s *Structs) ptrScalar() Scalar {
	return IntScalar(s.Records.PointerSize)
}

// ScalarOf maps a non-composite type to its register class.
func (s *Structs) ScalarOf(t mono.Type) Scalar {
	switch t.Kind {
	case mono.KindInt:
		return IntScalar(t.Int.Bytes())
	case mono.KindFloat:
		return F64
	case mono.KindPointer, mono.KindFnPointer:
		return s.ptrScalar()
	default:
		panic(fmt.Sprintf("backend: no scalar for %s", t))
	}
}

// Flatten breaks a type into the scalar sequence a direct pass carries.
// Autoboxed fields flatten to a single pointer; variant payloads to
// pointer-sized chunks plus a rounded-up tail.
func (s *Structs) Flatten(t mono.Type) []Scalar {
	var out []Scalar
	s.flatten(t, &out)
	return out
}

func (s *Structs) flatten(t mono.Type, out *[]Scalar) {
	switch t.Kind {
	case mono.KindUnreachable:
	case mono.KindVariantPayload:
		remaining := t.Payload
		for remaining > 8 {
			*out = append(*out, I64)
			remaining -= 8
		}
		if remaining > 0 {
			*out = append(*out, IntScalar(remaining))
		}
	case mono.KindComposite:
		r := s.Records.Get(t.Key)
		for i := range r.Fields {
			if r.IsAutoboxed(i) {
				*out = append(*out, s.ptrScalar())
				continue
			}
			s.flatten(r.Fields[i].Type, out)
		}
	default:
		*out = append(*out, s.ScalarOf(t))
	}
}

// Classify decides how a parameter of type t is passed: zero-sized types
// vanish, anything larger than two pointers goes behind a pointer, the rest
// rides in registers.
func (s *Structs) Classify(t mono.Type) Pass {
	size := s.Records.Size(t)
	if size == 0 {
		return Pass{Kind: PassEmpty}
	}
	if size > 2*s.Records.PointerSize {
		return Pass{Kind: PassPointer, Scalars: []Scalar{s.ptrScalar()}}
	}
	return Pass{Kind: PassDirect, Scalars: s.Flatten(t)}
}

// ClassifyReturn decides how a return of type t leaves the function. The
// rules match Classify; by-pointer returns become a hidden sret parameter.
func (s *Structs) ClassifyReturn(t mono.Type) Pass {
	return s.Classify(t)
}

// FuncTyping classifies a full function boundary.
func (s *Structs) FuncTyping(params []mono.Type, ret mono.Type) Typing {
	t := Typing{Params: make([]Pass, len(params))}
	for i := range params {
		t.Params[i] = s.Classify(params[i])
	}
	t.Ret = s.ClassifyReturn(ret)
	return t
}

// Signature lowers a classified boundary to a machine signature. A
// by-pointer return appends the hidden sret pointer after the declared
// parameters.
func (s *Structs) Signature(t Typing, conv CallConv) Signature {
	sig := Signature{CallConv: conv}
	for i := range t.Params {
		for _, sc := range t.Params[i].Scalars {
			sig.Params = append(sig.Params, Param(sc))
		}
	}
	switch t.Ret.Kind {
	case PassEmpty:
	case PassDirect:
		for _, sc := range t.Ret.Scalars {
			sig.Returns = append(sig.Returns, Param(sc))
		}
	case PassPointer:
		sig.Params = append(sig.Params, SretParam(s.ptrScalar()))
	}
	return sig
}
