package fsm

// Event is an occurrence of kind E carrying an ordered, opaque payload.
// The payload is not checked against the kind; producer and handler agree on it.
type Event[E comparable] struct {
	kind    E
	payload []any
}

// NewEvent creates an event of the given kind.
func NewEvent[E comparable](kind E, payload ...any) Event[E] {
	var p []any
	if len(payload) > 0 {
		p = make([]any, len(payload))
		copy(p, payload)
	}
	return Event[E]{kind: kind, payload: p}
}

// Kind returns the event kind.
func (e Event[E]) Kind() E {
	return e.kind
}

// Payload returns a copy of the payload values.
func (e Event[E]) Payload() []any {
	if len(e.payload) == 0 {
		return nil
	}
	p := make([]any, len(e.payload))
	copy(p, e.payload)
	return p
}

// Len returns the number of payload values.
func (e Event[E]) Len() int {
	return len(e.payload)
}

// Arg returns the i-th payload value.
func (e Event[E]) Arg(i int) (any, bool) {
	if i < 0 || i >= len(e.payload) {
		return nil, false
	}
	return e.payload[i], true
}
