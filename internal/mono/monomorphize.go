package mono

import (
	"fmt"

	"prism/internal/types"
)

// defaultTagBits is the tag width of variants without an explicit size
// directive.
const defaultTagBits = 16

// TypeMap carries the generic substitution in effect: one concrete type per
// generic parameter index, plus the concrete meaning of Self.
type TypeMap struct {
	Generics []Type
	Self     *Type
}

// NewTypeMap creates an empty substitution.
func NewTypeMap() *TypeMap {
	return &TypeMap{}
}

// SetSelf records what Self resolves to under this substitution.
func (tm *TypeMap) SetSelf(self Type) {
	tm.Self = &self
}

// Typing is a function typing with every generic substituted away.
type Typing struct {
	Params  []Type
	Returns Type
}

// Monomorphization resolves generic type trees against one substitution.
// Forked instances share the engine but carry their own TypeMap.
type Monomorphization struct {
	Mono  *Types
	Decls *types.Decls
	TMap  *TypeMap
}

// New creates a monomorphization pass over the shared engine.
func New(mono *Types, decls *types.Decls, tmap *TypeMap) *Monomorphization {
	if tmap == nil {
		tmap = NewTypeMap()
	}
	return &Monomorphization{Mono: mono, Decls: decls, TMap: tmap}
}

func (m *Monomorphization) fork(tmap *TypeMap) *Monomorphization {
	return &Monomorphization{Mono: m.Mono, Decls: m.Decls, TMap: tmap}
}

// SubstituteGenericsForUnit maps the first n generic parameters to the unit
// type. Used for typings whose generics are irrelevant to layout.
func (m *Monomorphization) SubstituteGenericsForUnit(n int) {
	for i := 0; i < n; i++ {
		m.TMap.Generics = append(m.TMap.Generics, UnitType())
	}
}

// Apply substitutes every generic parameter in ty and resolves nested
// nominal types, tuples, closures, and interfaces through the engine.
func (m *Monomorphization) Apply(ty types.Type) Type {
	switch ty.Kind {
	case types.KindInt:
		return Int(ty.Int)
	case types.KindFloat:
		return Float()
	case types.KindBool:
		return Bool()
	case types.KindPointer:
		return Pointer(m.Apply(*ty.Elem))
	case types.KindFnPointer:
		return FnPointer(m.Applys(ty.Params), m.Apply(*ty.Ret))
	case types.KindClosure:
		mparams := m.Applys(ty.Params)
		ret := m.Apply(*ty.Ret)
		return Composite(m.ClosureObject(m.Mono.closure, mparams, ret))
	case types.KindTuple:
		return Composite(m.Mono.GetOrMakeTuple(m.Applys(ty.Params)))
	case types.KindDefined:
		return Composite(m.Instantiate(ty.Def, ty.Params))
	case types.KindGeneric:
		return m.generic(ty.Index)
	case types.KindSelf:
		if m.TMap.Self == nil {
			panic("mono: self type used outside a declaration substitution")
		}
		return *m.TMap.Self
	case types.KindNever:
		return Unreachable()
	default:
		panic(fmt.Sprintf("mono: invalid type for lowering: %s", ty))
	}
}

// Applys applies a list of generic types.
func (m *Monomorphization) Applys(tys []types.Type) []Type {
	if len(tys) == 0 {
		return nil
	}
	out := make([]Type, len(tys))
	for i := range tys {
		out[i] = m.Apply(tys[i])
	}
	return out
}

// ApplyTyping resolves a function typing.
func (m *Monomorphization) ApplyTyping(typing types.Typing) Typing {
	return Typing{
		Params:  m.Applys(typing.Params),
		Returns: m.Apply(typing.Ret),
	}
}

func (m *Monomorphization) generic(index uint32) Type {
	if int(index) >= len(m.TMap.Generics) {
		panic(fmt.Sprintf("mono: unresolved generic parameter $%d", index))
	}
	return m.TMap.Generics[index]
}

// Instantiate returns the unique layout key for a nominal declaration
// applied to concrete arguments, computing it on first request.
func (m *Monomorphization) Instantiate(def types.DefID, args []types.Type) RecordKey {
	kind, ok := m.Decls.Kind(def)
	if !ok {
		panic(fmt.Sprintf("mono: unknown declaration def#%d", def))
	}
	switch kind {
	case types.DefRecord:
		return m.RecordType(def, args)
	case types.DefVariant:
		return m.VariantType(def, args)
	case types.DefInterface:
		return m.InterfaceObject(def, m.Applys(args))
	default:
		panic(fmt.Sprintf("mono: invalid declaration kind %d for def#%d", kind, def))
	}
}

// getOrMonomorphise memoizes (def, args) before resolving any field type:
// it reserves a placeholder key, builds the substitution with Self bound to
// the reserved key, lets or() compute the record, then patches the
// placeholder. Field types that resolve back to the reserved key are how
// self-reference is detected.
func (m *Monomorphization) getOrMonomorphise(
	def types.DefID,
	args []types.Type,
	repr types.Repr,
	or func(fork *Monomorphization, self RecordKey) Record,
) RecordKey {
	mparams := m.Applys(args)

	if key, ok := m.Mono.lookup(def, mparams); ok {
		return key
	}

	reserved := m.Mono.reserve(def, mparams)
	tmap := &TypeMap{Generics: mparams}
	tmap.SetSelf(Composite(reserved))

	record := or(m.fork(tmap), reserved)
	record.Repr = repr
	m.Mono.patch(reserved, record)
	return reserved
}

// construct finishes a record, marking every field whose type reaches back
// to this instantiation as autoboxed.
func (m *Monomorphization) construct(self RecordKey, original types.DefID, fields []Field) Record {
	var autoboxed map[int]struct{}
	for i := range fields {
		if m.Mono.Records.fieldIsRecursive(self, original, fields[i].Type) {
			if autoboxed == nil {
				autoboxed = make(map[int]struct{})
			}
			autoboxed[i] = struct{}{}
		}
	}
	return Record{Fields: fields, Autoboxed: autoboxed, Original: original}
}

// RecordType instantiates a record declaration.
func (m *Monomorphization) RecordType(def types.DefID, args []types.Type) RecordKey {
	decl := m.Decls.MustRecord(def)
	return m.getOrMonomorphise(def, args, decl.Repr, func(fork *Monomorphization, self RecordKey) Record {
		fields := make([]Field, len(decl.Fields))
		for i := range decl.Fields {
			fields[i] = Field{Name: decl.Fields[i].Name, Type: fork.Apply(decl.Fields[i].Type)}
		}
		return fork.construct(self, def, fields)
	})
}

// VariantType instantiates a tagged sum: a record of {tag, payload} where
// the payload is sized to the widest case's field sum.
func (m *Monomorphization) VariantType(def types.DefID, args []types.Type) RecordKey {
	decl := m.Decls.MustVariant(def)
	return m.getOrMonomorphise(def, args, decl.Repr, func(fork *Monomorphization, self RecordKey) Record {
		tagBits := uint8(defaultTagBits)
		if decl.Repr.Kind == types.ReprEnum && decl.Repr.TagBits > 0 {
			tagBits = decl.Repr.TagBits
		}

		var payload uint32
		for ci := range decl.Cases {
			var sum uint32
			for _, fieldTy := range decl.Cases[ci].Payload {
				sum += fork.Mono.Records.sizeForPayload(fork.Apply(fieldTy))
			}
			payload = maxU32(payload, sum)
		}

		fields := []Field{
			{Name: "tag", Type: Uint(tagBits)},
			{Name: "payload", Type: VariantPayload(payload)},
		}
		return fork.construct(self, def, fields)
	})
}

// ClosureObject instantiates the closure interface against already-resolved
// parameter types and a return type. Unlike InterfaceObject it receives the
// parameters pre-splatted, which keeps partial application call sites flat.
func (m *Monomorphization) ClosureObject(def types.DefID, ptypes []Type, ret Type) RecordKey {
	memoArgs := make([]Type, 0, len(ptypes)+1)
	memoArgs = append(memoArgs, ptypes...)
	memoArgs = append(memoArgs, ret)

	if key, ok := m.Mono.lookup(def, memoArgs); ok {
		return key
	}

	// Reserve in case one of the parameter types contains this same object.
	reserved := m.Mono.reserve(def, memoArgs)

	params := make([]Type, 0, len(ptypes)+1)
	params = append(params, BytePointer())
	params = append(params, ptypes...)
	m.patchObject(reserved, def, FnPointer(params, ret))
	return reserved
}

// InterfaceObject instantiates an interface object: an opaque receiver
// pointer plus a dispatch slot. Single-method interfaces (and closures)
// dispatch through a bare function pointer; multi-method interfaces through
// a pointer to a tuple of function pointers in declaration order.
func (m *Monomorphization) InterfaceObject(def types.DefID, params []Type) RecordKey {
	if key, ok := m.Mono.lookup(def, params); ok {
		return key
	}

	// Reserve in case one of the methods mentions the same object type.
	reserved := m.Mono.reserve(def, params)

	var dispatch Type
	if def == m.Mono.closure {
		// Closure objects splat their parameter tuple: `call {a} {b, c}`
		// becomes `call {a} b c`.
		if len(params) != 2 {
			panic(fmt.Sprintf("mono: closure object expects (params, ret), got %d args", len(params)))
		}
		paramTuple := params[0].AsKey()
		ptypes := []Type{BytePointer()}
		tuple := m.Mono.Records.Get(paramTuple)
		for i := range tuple.Fields {
			ptypes = append(ptypes, tuple.Fields[i].Type)
		}
		dispatch = FnPointer(ptypes, params[1])
	} else {
		decl := m.Decls.MustInterface(def)
		if len(decl.Methods) == 0 {
			panic(fmt.Sprintf("mono: interface %s has no methods to dispatch", m.Decls.Name(def)))
		}

		tmap := &TypeMap{Generics: params}
		tmap.SetSelf(BytePointer())
		morph := m.fork(tmap)

		methodToFnPtr := func(method *types.Method) Type {
			return FnPointer(morph.Applys(method.Params), morph.Apply(method.Ret))
		}

		if len(decl.Methods) == 1 {
			dispatch = methodToFnPtr(&decl.Methods[0])
		} else {
			slots := make([]Type, len(decl.Methods))
			for i := range decl.Methods {
				slots[i] = methodToFnPtr(&decl.Methods[i])
			}
			table := m.Mono.GetOrMakeTuple(slots)
			dispatch = Pointer(Composite(table))
		}
	}

	m.patchObject(reserved, def, dispatch)
	return reserved
}

// patchObject finishes an interface/closure object record: receiver pointer
// plus dispatch slot.
func (m *Monomorphization) patchObject(dst RecordKey, def types.DefID, dispatch Type) {
	m.Mono.patch(dst, Record{
		Fields: []Field{
			{Name: "receiver", Type: BytePointer()},
			{Name: "dispatch", Type: dispatch},
		},
		Original: def,
	})
}
