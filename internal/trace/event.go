package trace

import "time"

// Kind is the type of a trace event.
type Kind uint8

const (
	// KindSpanBegin marks the start of a logical operation.
	KindSpanBegin Kind = iota + 1
	// KindSpanEnd marks the end of a logical operation.
	KindSpanEnd
	// KindPoint is an instant event.
	KindPoint
)

func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	default:
		return "unknown"
	}
}

// Scope is the granularity of an event. Lower values are coarser.
type Scope uint8

const (
	// ScopeDriver covers whole-build operations.
	ScopeDriver Scope = iota + 1
	// ScopePass covers pipeline stages (monomorphize, lower, emit).
	ScopePass
	// ScopeFunction covers one function inside a pass.
	ScopeFunction
)

func (s Scope) String() string {
	switch s {
	case ScopeDriver:
		return "driver"
	case ScopePass:
		return "pass"
	case ScopeFunction:
		return "function"
	default:
		return "unknown"
	}
}

// Event is a single trace record.
type Event struct {
	Time     time.Time
	Seq      uint64 // monotonic sequence number
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 if root
	Name     string // e.g. "monomorphize", "fn:app_main"
	Detail   string
}
