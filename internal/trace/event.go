package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	// KindSpanBegin marks the start of a logical operation.
	KindSpanBegin Kind = iota + 1
	// KindSpanEnd marks the end of a logical operation.
	KindSpanEnd
	// KindPoint represents an instant event.
	KindPoint
)

// String returns the string representation of Kind.
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

// Scope indicates the granularity level of the event.
// Lower numeric values represent coarser events.
type Scope uint8

const (
	ScopeDriver Scope = iota + 1
	ScopeUnit
	ScopePass
	ScopeType
)

// String returns the string representation of Scope.
func (s Scope) String() string {
	switch s {
	case ScopeDriver:
		return "driver"
	case ScopeUnit:
		return "unit"
	case ScopePass:
		return "pass"
	case ScopeType:
		return "type"
	default:
		return "unknown"
	}
}

// Event represents a single trace event.
type Event struct {
	Time     time.Time         `msgpack:"time"`
	Seq      uint64            `msgpack:"seq"`
	Kind     Kind              `msgpack:"kind"`
	Scope    Scope             `msgpack:"scope"`
	SpanID   uint64            `msgpack:"span"`
	ParentID uint64            `msgpack:"parent,omitempty"`
	Name     string            `msgpack:"name"`
	Detail   string            `msgpack:"detail,omitempty"`
	Elapsed  time.Duration     `msgpack:"elapsed,omitempty"`
	Extra    map[string]string `msgpack:"extra,omitempty"`
}
