package mono

import (
	"strconv"
	"strings"

	"prism/internal/types"
)

// Fmt renders a type with composite keys expanded against the layout table.
// Records already being expanded higher up the same rendering are printed as
// their bare key, which keeps autoboxed cycles finite.
func (rs *Records) Fmt(t Type) string {
	var b strings.Builder
	p := printer{rs: rs, seen: make(map[RecordKey]struct{})}
	p.ty(&b, t)
	return b.String()
}

// FmtKey renders one layout record.
func (rs *Records) FmtKey(key RecordKey) string {
	var b strings.Builder
	p := printer{rs: rs, seen: make(map[RecordKey]struct{})}
	p.record(&b, key)
	return b.String()
}

type printer struct {
	rs   *Records
	seen map[RecordKey]struct{}
}

func (p *printer) ty(b *strings.Builder, t Type) {
	switch t.Kind {
	case KindPointer:
		b.WriteByte('*')
		p.ty(b, *t.Elem)
	case KindFnPointer:
		b.WriteString("fnptr(")
		for i := range t.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			p.ty(b, t.Params[i])
		}
		b.WriteString(" -> ")
		p.ty(b, *t.Ret)
		b.WriteByte(')')
	case KindComposite:
		p.record(b, t.Key)
	default:
		b.WriteString(t.String())
	}
}

func (p *printer) record(b *strings.Builder, key RecordKey) {
	if _, ok := p.seen[key]; ok {
		b.WriteString(key.String())
		return
	}
	p.seen[key] = struct{}{}
	defer delete(p.seen, key)

	r := p.rs.rec(key)
	if r.placeholder {
		b.WriteString(key.String())
		b.WriteString("?")
		return
	}

	b.WriteByte('{')
	for i := range r.Fields {
		if i > 0 {
			b.WriteString(", ")
		}
		if r.Fields[i].Name != "" {
			b.WriteString(r.Fields[i].Name)
			b.WriteString(": ")
		}
		if r.IsAutoboxed(i) {
			b.WriteString("box ")
		}
		p.ty(b, r.Fields[i].Type)
	}
	b.WriteByte('}')
	if r.Original != types.NoDefID {
		b.WriteString(" (def#")
		b.WriteString(strconv.FormatUint(uint64(r.Original), 10))
		b.WriteByte(')')
	}
}
