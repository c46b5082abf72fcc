package fsm

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// Option configures a Machine.
type Option func(*options)

type options struct {
	logger *zerolog.Logger
}

// WithLogger sets the logger used for dispatch tracing.
// Without it the global zerolog logger is used.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &logger
	}
}

// Machine is the runtime state machine.
//
// The transition table is fixed by Setup. After Start the only mutable state
// is the current state pointer. Dispatch must not be called concurrently or
// from inside a handler or entry action; use a Dispatcher for that.
type Machine[S, E comparable] struct {
	mu      sync.RWMutex // guards current and started
	current S
	started bool

	states     map[S]*State[S, E]
	initial    S
	configured bool

	busy     atomic.Bool
	onChange func(from, to S)
	logger   *zerolog.Logger
}

// NewMachine creates an unconfigured machine.
func NewMachine[S, E comparable](opts ...Option) *Machine[S, E] {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return &Machine[S, E]{logger: o.logger}
}

// OnStateChange sets a callback invoked after every transition, once the
// target's entry action has returned. Call it before Start.
func (m *Machine[S, E]) OnStateChange(fn func(from, to S)) {
	m.onChange = fn
}

// Setup registers the states and the initial state. It validates that ids are
// unique, that initial is registered and that every transition target is
// registered. On error the machine stays unconfigured.
func (m *Machine[S, E]) Setup(initial S, states ...*State[S, E]) error {
	if m.Started() {
		return ErrAlreadyStarted
	}
	if m.configured {
		return newConfigurationError(nil, "setup already done")
	}
	if len(states) == 0 {
		return newConfigurationError(nil, "no states")
	}

	table := make(map[S]*State[S, E], len(states))
	for i, s := range states {
		if s == nil {
			return newConfigurationError(nil, "state at index %d is nil", i)
		}
		if _, dup := table[s.id]; dup {
			return newConfigurationError(s.id, "duplicate state id")
		}
		table[s.id] = s
	}

	if _, ok := table[initial]; !ok {
		return newConfigurationError(initial, "initial state is not registered")
	}

	for _, s := range states {
		for kind, e := range s.transitions {
			if !e.hasTarget {
				continue
			}
			if _, ok := table[e.target]; !ok {
				return newConfigurationError(s.id, "event %v targets unregistered state %v", kind, e.target)
			}
		}
	}

	m.states = table
	m.initial = initial
	m.configured = true
	return nil
}

// Start makes the initial state current and runs its entry action.
// It may succeed only once.
func (m *Machine[S, E]) Start() error {
	if !m.busy.CompareAndSwap(false, true) {
		panic("fsm: Start during Dispatch")
	}
	defer m.busy.Store(false)

	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	if !m.configured {
		m.mu.Unlock()
		return ErrNotConfigured
	}
	m.started = true
	m.current = m.initial
	m.mu.Unlock()

	m.log().Debug().Msgf("fsm: started in state %v", m.initial)

	if action := m.states[m.initial].onEntry; action != nil {
		action()
	}
	return nil
}

// Dispatch processes ev against the current state and reports whether the
// current state had an entry for its kind.
//
// The handler, if any, runs first and observes the old state through Current.
// If the entry has a target, the state then switches and the target's entry
// action runs. Unmapped events, and events sent before Start, are ignored.
func (m *Machine[S, E]) Dispatch(ev Event[E]) bool {
	if !m.busy.CompareAndSwap(false, true) {
		panic("fsm: concurrent Dispatch")
	}
	defer m.busy.Store(false)

	m.mu.RLock()
	started, from := m.started, m.current
	m.mu.RUnlock()

	if !started {
		m.log().Debug().Msgf("fsm: event %v dispatched before start, ignored", ev.kind)
		return false
	}

	e, ok := m.states[from].lookup(ev.kind)
	if !ok {
		m.log().Debug().Msgf("fsm: no entry for event %v in state %v, ignored", ev.kind, from)
		return false
	}

	if e.handler != nil {
		e.handler(ev.Payload())
	}
	if !e.hasTarget {
		return true
	}

	m.mu.Lock()
	m.current = e.target
	m.mu.Unlock()

	m.log().Debug().Msgf("fsm: %v --(%v)--> %v", from, ev.kind, e.target)

	if action := m.states[e.target].onEntry; action != nil {
		action()
	}
	if m.onChange != nil {
		m.onChange(from, e.target)
	}
	return true
}

// Current returns the current state. It is the zero value before Start.
// Safe for concurrent use.
func (m *Machine[S, E]) Current() S {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Started reports whether Start has succeeded.
func (m *Machine[S, E]) Started() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.started
}

// Can reports whether the current state maps kind.
func (m *Machine[S, E]) Can(kind E) bool {
	m.mu.RLock()
	started, current := m.started, m.current
	m.mu.RUnlock()
	if !started {
		return false
	}
	return m.states[current].Handles(kind)
}

func (m *Machine[S, E]) log() *zerolog.Logger {
	if m.logger != nil {
		return m.logger
	}
	return &zlog.Logger
}
