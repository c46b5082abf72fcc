package fsm

// Handler is a side effect bound to a (state, event kind) pair.
// It receives the event payload.
type Handler func(payload []any)

// entry is one row of a state's transition table.
type entry[S comparable] struct {
	target    S
	hasTarget bool
	handler   Handler
}

// State is a node of the machine. It is configured with the builder methods
// before the machine starts and must not be changed afterwards.
type State[S, E comparable] struct {
	id          S
	onEntry     func()
	transitions map[E]entry[S]
}

// NewState creates a state with an empty transition table.
func NewState[S, E comparable](id S) *State[S, E] {
	return &State[S, E]{
		id:          id,
		transitions: make(map[E]entry[S]),
	}
}

// ID returns the state id.
func (s *State[S, E]) ID() S {
	return s.id
}

// WithEntry sets the action run each time the state becomes current.
// A second call replaces the first.
func (s *State[S, E]) WithEntry(action func()) *State[S, E] {
	s.onEntry = action
	return s
}

// On registers a handler for kind that leaves the current state unchanged.
// Registering the same kind again replaces the previous entry.
func (s *State[S, E]) On(kind E, handler Handler) *State[S, E] {
	s.transitions[kind] = entry[S]{handler: handler}
	return s
}

// Transition registers a transition to target for kind. handler may be nil;
// when set it runs before the state changes.
// Registering the same kind again replaces the previous entry.
func (s *State[S, E]) Transition(kind E, target S, handler Handler) *State[S, E] {
	s.transitions[kind] = entry[S]{target: target, hasTarget: true, handler: handler}
	return s
}

// Handles reports whether the state has an entry for kind.
func (s *State[S, E]) Handles(kind E) bool {
	_, ok := s.transitions[kind]
	return ok
}

func (s *State[S, E]) lookup(kind E) (entry[S], bool) {
	e, ok := s.transitions[kind]
	return e, ok
}
