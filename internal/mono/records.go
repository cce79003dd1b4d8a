package mono

import (
	"fmt"

	"fortio.org/safecast"

	"prism/internal/types"
)

// Field is one resolved field of a layout record.
type Field struct {
	Name string
	Type Type
}

// Record is the concrete shape behind one RecordKey. Between reservation and
// patching it is a placeholder: the key is valid but field data is not yet
// readable.
type Record struct {
	Repr types.Repr

	Fields []Field

	// Autoboxed holds indices of fields stored behind an extra pointer
	// indirection because their type reaches back to this record.
	Autoboxed map[int]struct{}

	// Original is the nominal identity this record was instantiated from,
	// NoDefID for structural tuples.
	Original types.DefID

	placeholder bool
}

func placeholderRecord() Record {
	return Record{placeholder: true}
}

// NumFields returns the number of explicitly defined fields.
func (r *Record) NumFields() int {
	return len(r.Fields)
}

// IsAutoboxed reports whether the field at index is pointer-boxed.
func (r *Record) IsAutoboxed(field int) bool {
	_, ok := r.Autoboxed[field]
	return ok
}

// Records is the append-only layout table. It exclusively owns all records;
// RecordKeys are the only external reference.
type Records struct {
	recs []Record

	// PointerSize is the target pointer width in bytes.
	PointerSize uint32
}

func (rs *Records) push(r Record) RecordKey {
	raw, err := safecast.Conv[uint32](len(rs.recs))
	if err != nil {
		panic(fmt.Errorf("mono: layout key overflow: %w", err))
	}
	rs.recs = append(rs.recs, r)
	return RecordKey(raw)
}

// rec returns the record without a placeholder check. Internal callers that
// tolerate placeholders (cycle detection) use this.
func (rs *Records) rec(key RecordKey) *Record {
	if int(key) >= len(rs.recs) {
		panic(fmt.Sprintf("mono: unknown layout key %s", key))
	}
	return &rs.recs[key]
}

// Get returns the resolved record behind key. Reading a record before its
// placeholder was patched is a defect in the caller.
func (rs *Records) Get(key RecordKey) *Record {
	r := rs.rec(key)
	if r.placeholder {
		panic(fmt.Sprintf("mono: read of unresolved placeholder %s", key))
	}
	return r
}

// Len returns the number of reserved keys, placeholders included.
func (rs *Records) Len() int {
	return len(rs.recs)
}

// TypeOfField returns the declared type of one field.
func (rs *Records) TypeOfField(key RecordKey, field int) Type {
	r := rs.Get(key)
	if field < 0 || field >= len(r.Fields) {
		panic(fmt.Sprintf("mono: %s has no field %d", key, field))
	}
	return r.Fields[field].Type
}

// HasField reports whether key has a field at index.
func (rs *Records) HasField(key RecordKey, field int) bool {
	return field >= 0 && field < len(rs.Get(key).Fields)
}

// AsVariant reports whether key is a lowered variant ({tag, payload}) and
// returns its tag size.
func (rs *Records) AsVariant(key RecordKey) (types.IntSize, bool) {
	r := rs.Get(key)
	if len(r.Fields) != 2 {
		return types.IntSize{}, false
	}
	tag := r.Fields[0].Type
	if tag.Kind != KindInt {
		return types.IntSize{}, false
	}
	if r.Fields[1].Type.Kind != KindVariantPayload {
		return types.IntSize{}, false
	}
	return tag.Int, true
}

// AsObject reports whether key is a lowered interface/closure object:
// an opaque receiver pointer plus a dispatch slot.
func (rs *Records) AsObject(key RecordKey) bool {
	r := rs.Get(key)
	if len(r.Fields) != 2 {
		return false
	}
	if !r.Fields[0].Type.Equal(BytePointer()) {
		return false
	}
	switch r.Fields[1].Type.Kind {
	case KindFnPointer, KindPointer:
		return true
	default:
		return false
	}
}

// DispatchOfObject returns an object's dispatch slot type: a function
// pointer for single-method objects, a pointer to a function-pointer tuple
// otherwise.
func (rs *Records) DispatchOfObject(key RecordKey) Type {
	if !rs.Fields0IsReceiver(key) {
		panic(fmt.Sprintf("mono: %s is not an interface object", key))
	}
	return rs.TypeOfField(key, 1)
}

// Fields0IsReceiver reports whether field 0 is the opaque receiver pointer.
func (rs *Records) Fields0IsReceiver(key RecordKey) bool {
	r := rs.Get(key)
	return len(r.Fields) == 2 && r.Fields[0].Type.Equal(BytePointer())
}

// DispatchTableOfObject resolves a multi-method object's dispatch tuple key.
func (rs *Records) DispatchTableOfObject(key RecordKey) RecordKey {
	return rs.DispatchOfObject(key).Deref().AsKey()
}

// MethodSignature returns the parameter and return types of one method slot
// in a dispatch tuple.
func (rs *Records) MethodSignature(table RecordKey, method int) ([]Type, Type) {
	t := rs.TypeOfField(table, method)
	if t.Kind != KindFnPointer {
		panic(fmt.Sprintf("mono: dispatch slot %d of %s is not a function pointer", method, table))
	}
	return t.AsFnPointer()
}

// fieldIsRecursive reports whether ty transitively reaches back to the
// record being constructed: either the reserved key itself, a record still
// in placeholder state (necessarily on the current instantiation stack), or
// a resolved record whose original identity matches.
func (rs *Records) fieldIsRecursive(self RecordKey, original types.DefID, ty Type) bool {
	return rs.fieldIsRecursive1(self, original, ty, make(map[RecordKey]struct{}))
}

func (rs *Records) fieldIsRecursive1(self RecordKey, original types.DefID, ty Type, seen map[RecordKey]struct{}) bool {
	if ty.Kind != KindComposite {
		return false
	}
	key := ty.Key
	if key == self {
		return true
	}
	if _, ok := seen[key]; ok {
		return false
	}
	seen[key] = struct{}{}
	r := rs.rec(key)
	if r.placeholder {
		return true
	}
	if original.IsValid() && r.Original == original {
		return true
	}
	for i := range r.Fields {
		if rs.fieldIsRecursive1(self, original, r.Fields[i].Type, seen) {
			return true
		}
	}
	return false
}
