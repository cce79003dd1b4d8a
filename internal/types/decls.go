package types

import (
	"fmt"

	"fortio.org/safecast"
)

// DefID identifies one nominal declaration (record, variant, or interface).
type DefID uint32

// NoDefID is the invalid declaration sentinel.
const NoDefID DefID = 0

// IsValid reports whether the DefID refers to a declaration.
func (id DefID) IsValid() bool {
	return id != NoDefID
}

// DefKind discriminates nominal declarations.
type DefKind uint8

const (
	// DefRecord is a product type with named fields.
	DefRecord DefKind = iota + 1
	// DefVariant is a tagged sum type.
	DefVariant
	// DefInterface is a method set used for dynamic dispatch.
	DefInterface
)

// ReprKind selects how a declaration is laid out.
type ReprKind uint8

const (
	// ReprStandard lays fields out sequentially.
	ReprStandard ReprKind = iota
	// ReprTransparent makes the layout equal its first field.
	ReprTransparent
	// ReprEnum fixes a variant's tag width explicitly.
	ReprEnum
)

// Repr is a declaration's representation directive.
type Repr struct {
	Kind    ReprKind
	TagBits uint8 // ReprEnum only
}

// Field is one named record field with its generic type.
type Field struct {
	Name string
	Type Type
}

// RecordDecl is a (possibly generic) record declaration.
type RecordDecl struct {
	Name       string
	TypeParams int
	Fields     []Field
	Repr       Repr
}

// VariantCase is one case of a variant declaration and its payload types.
type VariantCase struct {
	Name    string
	Payload []Type
}

// VariantDecl is a (possibly generic) tagged sum declaration.
type VariantDecl struct {
	Name       string
	TypeParams int
	Cases      []VariantCase
	Repr       Repr
}

// Method is one interface method with its generic typing. Typings may refer
// to the interface's generic parameters and to Self.
type Method struct {
	Name   string
	Params []Type
	Ret    Type
}

// InterfaceDecl is a (possibly generic) method set, in declaration order.
type InterfaceDecl struct {
	Name       string
	TypeParams int
	Methods    []Method
}

// Typing is a function's generic parameter/return typing.
type Typing struct {
	Params []Type
	Ret    Type
}

// Decls is the read-only declaration universe produced by type inference.
// Index 0 of each table is reserved so DefID 0 stays invalid.
type Decls struct {
	kinds      []DefKind
	records    map[DefID]*RecordDecl
	variants   map[DefID]*VariantDecl
	interfaces map[DefID]*InterfaceDecl

	// Closure is the well-known single-method interface backing closures.
	Closure DefID
}

// NewDecls creates an empty declaration universe.
func NewDecls() *Decls {
	return &Decls{
		kinds:      []DefKind{0}, // reserve 0 as invalid sentinel
		records:    make(map[DefID]*RecordDecl),
		variants:   make(map[DefID]*VariantDecl),
		interfaces: make(map[DefID]*InterfaceDecl),
	}
}

func (d *Decls) alloc(kind DefKind) DefID {
	raw, err := safecast.Conv[uint32](len(d.kinds))
	if err != nil {
		panic(fmt.Errorf("types: declaration id overflow: %w", err))
	}
	d.kinds = append(d.kinds, kind)
	return DefID(raw)
}

// AddRecord registers a record declaration.
func (d *Decls) AddRecord(decl RecordDecl) DefID {
	id := d.alloc(DefRecord)
	d.records[id] = &decl
	return id
}

// AddVariant registers a variant declaration.
func (d *Decls) AddVariant(decl VariantDecl) DefID {
	id := d.alloc(DefVariant)
	d.variants[id] = &decl
	return id
}

// AddInterface registers an interface declaration.
func (d *Decls) AddInterface(decl InterfaceDecl) DefID {
	id := d.alloc(DefInterface)
	d.interfaces[id] = &decl
	return id
}

// Kind returns the declaration kind for id.
func (d *Decls) Kind(id DefID) (DefKind, bool) {
	if !id.IsValid() || int(id) >= len(d.kinds) {
		return 0, false
	}
	return d.kinds[id], true
}

// Record returns the record declaration behind id.
func (d *Decls) Record(id DefID) (*RecordDecl, bool) {
	decl, ok := d.records[id]
	return decl, ok
}

// Variant returns the variant declaration behind id.
func (d *Decls) Variant(id DefID) (*VariantDecl, bool) {
	decl, ok := d.variants[id]
	return decl, ok
}

// Interface returns the interface declaration behind id.
func (d *Decls) Interface(id DefID) (*InterfaceDecl, bool) {
	decl, ok := d.interfaces[id]
	return decl, ok
}

// MustRecord panics when id is not a record declaration.
func (d *Decls) MustRecord(id DefID) *RecordDecl {
	decl, ok := d.Record(id)
	if !ok {
		panic(fmt.Sprintf("types: def#%d is not a record", id))
	}
	return decl
}

// MustVariant panics when id is not a variant declaration.
func (d *Decls) MustVariant(id DefID) *VariantDecl {
	decl, ok := d.Variant(id)
	if !ok {
		panic(fmt.Sprintf("types: def#%d is not a variant", id))
	}
	return decl
}

// MustInterface panics when id is not an interface declaration.
func (d *Decls) MustInterface(id DefID) *InterfaceDecl {
	decl, ok := d.Interface(id)
	if !ok {
		panic(fmt.Sprintf("types: def#%d is not an interface", id))
	}
	return decl
}

// Name returns the declared name for diagnostics.
func (d *Decls) Name(id DefID) string {
	switch d.kinds[minInt(int(id), len(d.kinds)-1)] {
	case DefRecord:
		if decl, ok := d.records[id]; ok {
			return decl.Name
		}
	case DefVariant:
		if decl, ok := d.variants[id]; ok {
			return decl.Name
		}
	case DefInterface:
		if decl, ok := d.interfaces[id]; ok {
			return decl.Name
		}
	}
	return fmt.Sprintf("def#%d", id)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
