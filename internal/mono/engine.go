package mono

import (
	"fmt"

	"prism/internal/types"
)

// resolveKey memoizes one (nominal identity, concrete argument list) pair.
//
// Note: Go maps cannot use slices as keys, so the argument list is stored as
// its canonical fingerprint string.
type resolveKey struct {
	Def  types.DefID
	Args string
}

// Types owns the layout table and both memoization maps. One Types value is
// shared by reference between every stage of a compilation unit; it is not
// safe for concurrent writers because the reserve-then-patch protocol must
// not interleave.
type Types struct {
	resolve map[resolveKey]RecordKey
	tuples  map[string]RecordKey

	Records *Records

	// closure is the well-known interface whose objects splat their
	// parameter tuple into the dispatch signature.
	closure types.DefID
}

// NewTypes creates the engine and the canonical unit tuple at key 0.
func NewTypes(closure types.DefID, pointerSize uint32) *Types {
	t := &Types{
		resolve: make(map[resolveKey]RecordKey, 64),
		tuples:  make(map[string]RecordKey, 16),
		Records: &Records{PointerSize: pointerSize},
		closure: closure,
	}
	if unit := t.GetOrMakeTuple(nil); unit != Unit {
		panic(fmt.Sprintf("mono: unit tuple got key %s", unit))
	}
	return t
}

// GetOrMakeTuple returns the unique key for a structural tuple. Two tuples
// with identical element type sequences share one key regardless of where
// they were requested from.
func (t *Types) GetOrMakeTuple(elems []Type) RecordKey {
	fp := FingerprintTypes(elems)
	if key, ok := t.tuples[fp]; ok {
		return key
	}

	fields := make([]Field, len(elems))
	for i := range elems {
		fields[i] = Field{Type: elems[i]}
	}
	key := t.Records.push(Record{Fields: fields})
	t.tuples[fp] = key
	return key
}

// lookup returns the memoized key for a nominal instantiation.
func (t *Types) lookup(def types.DefID, args []Type) (RecordKey, bool) {
	key, ok := t.resolve[resolveKey{Def: def, Args: FingerprintTypes(args)}]
	return key, ok
}

// reserve pushes a placeholder record and memoizes its key before any field
// type is resolved, so recursion through the same instantiation observes
// the reserved key instead of diverging.
func (t *Types) reserve(def types.DefID, args []Type) RecordKey {
	key := t.Records.push(placeholderRecord())
	t.resolve[resolveKey{Def: def, Args: FingerprintTypes(args)}] = key
	return key
}

// patch replaces the placeholder at key with the finished record. Patching
// a record that was never reserved, or twice, is a defect.
func (t *Types) patch(key RecordKey, r Record) {
	slot := t.Records.rec(key)
	if !slot.placeholder {
		panic(fmt.Sprintf("mono: double patch of %s", key))
	}
	*slot = r
}
