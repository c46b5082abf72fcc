package fsm

import (
	"fmt"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testState string

type testEvent string

const (
	stateA testState = "a"
	stateB testState = "b"
	stateC testState = "c"

	evGo    testEvent = "go"
	evBack  testEvent = "back"
	evTouch testEvent = "touch"
	evNone  testEvent = "none"
)

func newTestState(id testState) *State[testState, testEvent] {
	return NewState[testState, testEvent](id)
}

func startedMachine(t *testing.T, initial testState, states ...*State[testState, testEvent]) *Machine[testState, testEvent] {
	t.Helper()
	m := NewMachine[testState, testEvent]()
	require.NoError(t, m.Setup(initial, states...))
	require.NoError(t, m.Start())
	return m
}

func TestEvent_Payload(t *testing.T) {
	ev := NewEvent(evGo, 42, "x")

	assert.Equal(t, evGo, ev.Kind())
	assert.Equal(t, 2, ev.Len())

	p := ev.Payload()
	p[0] = 7
	v, ok := ev.Arg(0)
	require.True(t, ok)
	assert.Equal(t, 42, v, "payload must not be mutable through Payload()")

	_, ok = ev.Arg(2)
	assert.False(t, ok)
	_, ok = ev.Arg(-1)
	assert.False(t, ok)

	assert.Nil(t, NewEvent(evGo).Payload())
}

func TestMachine_Setup(t *testing.T) {
	tests := []struct {
		name    string
		initial testState
		states  func() []*State[testState, testEvent]
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid table",
			initial: stateA,
			states: func() []*State[testState, testEvent] {
				return []*State[testState, testEvent]{
					newTestState(stateA).Transition(evGo, stateB, nil),
					newTestState(stateB).Transition(evBack, stateA, nil),
				}
			},
		},
		{
			name:    "no states",
			initial: stateA,
			states:  func() []*State[testState, testEvent] { return nil },
			wantErr: true,
			errMsg:  "no states",
		},
		{
			name:    "nil state",
			initial: stateA,
			states: func() []*State[testState, testEvent] {
				return []*State[testState, testEvent]{newTestState(stateA), nil}
			},
			wantErr: true,
			errMsg:  "index 1 is nil",
		},
		{
			name:    "duplicate id",
			initial: stateA,
			states: func() []*State[testState, testEvent] {
				return []*State[testState, testEvent]{newTestState(stateA), newTestState(stateA)}
			},
			wantErr: true,
			errMsg:  "duplicate state id",
		},
		{
			name:    "initial not registered",
			initial: stateC,
			states: func() []*State[testState, testEvent] {
				return []*State[testState, testEvent]{newTestState(stateA), newTestState(stateB)}
			},
			wantErr: true,
			errMsg:  "initial state is not registered",
		},
		{
			name:    "transition to unregistered state",
			initial: stateA,
			states: func() []*State[testState, testEvent] {
				return []*State[testState, testEvent]{
					newTestState(stateA).Transition(evGo, stateC, nil),
					newTestState(stateB),
				}
			},
			wantErr: true,
			errMsg:  "targets unregistered state c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine[testState, testEvent]()
			err := m.Setup(tt.initial, tt.states()...)

			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsConfigurationError(err))
			assert.Contains(t, err.Error(), tt.errMsg)

			// a machine whose setup failed cannot start
			assert.ErrorIs(t, m.Start(), ErrNotConfigured)
			assert.False(t, m.Started())
		})
	}
}

func TestMachine_SetupTwice(t *testing.T) {
	m := NewMachine[testState, testEvent]()
	require.NoError(t, m.Setup(stateA, newTestState(stateA)))

	err := m.Setup(stateA, newTestState(stateA))
	assert.True(t, IsConfigurationError(err))

	require.NoError(t, m.Start())
	assert.ErrorIs(t, m.Setup(stateA, newTestState(stateA)), ErrAlreadyStarted)
}

func TestMachine_Start(t *testing.T) {
	entries := 0
	m := NewMachine[testState, testEvent]()
	require.NoError(t, m.Setup(stateB,
		newTestState(stateA),
		newTestState(stateB).WithEntry(func() { entries++ }),
	))

	assert.False(t, m.Started())
	assert.Equal(t, testState(""), m.Current())

	require.NoError(t, m.Start())
	assert.Equal(t, stateB, m.Current(), "initial state is the one passed to Setup, not the first registered")
	assert.Equal(t, 1, entries)

	err := m.Start()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAlreadyStarted))
	assert.Equal(t, stateB, m.Current())
	assert.Equal(t, 1, entries, "second Start must not re-fire the entry action")
}

func TestMachine_DispatchBeforeStart(t *testing.T) {
	called := false
	m := NewMachine[testState, testEvent]()
	require.NoError(t, m.Setup(stateA,
		newTestState(stateA).Transition(evGo, stateB, func([]any) { called = true }),
		newTestState(stateB),
	))

	assert.False(t, m.Dispatch(NewEvent(evGo)))
	assert.False(t, called)
	assert.False(t, m.Can(evGo))
}

func TestMachine_UnmappedEventIsIgnored(t *testing.T) {
	calls := 0
	entries := 0
	handler := func([]any) { calls++ }

	m := startedMachine(t, stateA,
		newTestState(stateA).
			On(evTouch, handler).
			Transition(evGo, stateB, handler),
		newTestState(stateB).
			WithEntry(func() { entries++ }).
			Transition(evBack, stateA, handler),
	)

	for _, kind := range []testEvent{evBack, evNone} {
		assert.False(t, m.Dispatch(NewEvent(kind)), "event %s", kind)
		assert.Equal(t, stateA, m.Current())
	}
	assert.Zero(t, calls)
	assert.Zero(t, entries)
}

func TestMachine_DispatchOrdering(t *testing.T) {
	var m *Machine[testState, testEvent]
	var trace []string

	m = NewMachine[testState, testEvent]()
	require.NoError(t, m.Setup(stateA,
		newTestState(stateA).
			Transition(evGo, stateB, func(payload []any) {
				trace = append(trace, fmt.Sprintf("handler in %s with %v", m.Current(), payload))
			}),
		newTestState(stateB).
			WithEntry(func() {
				trace = append(trace, fmt.Sprintf("entry in %s", m.Current()))
			}),
	))
	m.OnStateChange(func(from, to testState) {
		trace = append(trace, fmt.Sprintf("changed %s->%s", from, to))
	})
	require.NoError(t, m.Start())

	require.True(t, m.Dispatch(NewEvent(evGo, 1, "two")))

	assert.Equal(t, []string{
		"handler in a with [1 two]",
		"entry in b",
		"changed a->b",
	}, trace)
	assert.Equal(t, stateB, m.Current())
}

func TestMachine_HandlerOnlyEntry(t *testing.T) {
	calls := 0
	entries := 0

	m := startedMachine(t, stateA,
		newTestState(stateA).
			WithEntry(func() { entries++ }).
			On(evTouch, func([]any) { calls++ }),
	)
	require.Equal(t, 1, entries)

	for i := 0; i < 3; i++ {
		assert.True(t, m.Dispatch(NewEvent(evTouch)))
	}
	assert.Equal(t, 3, calls)
	assert.Equal(t, 1, entries, "handler-only entries never run the entry action")
	assert.Equal(t, stateA, m.Current())
}

func TestMachine_PureTransition(t *testing.T) {
	m := startedMachine(t, stateA,
		newTestState(stateA).Transition(evGo, stateB, nil),
		newTestState(stateB).Transition(evBack, stateA, nil),
	)

	assert.True(t, m.Can(evGo))
	assert.False(t, m.Can(evBack))

	assert.True(t, m.Dispatch(NewEvent(evGo)))
	assert.Equal(t, stateB, m.Current())
	assert.True(t, m.Dispatch(NewEvent(evBack)))
	assert.Equal(t, stateA, m.Current())
}

func TestMachine_SelfTransitionRunsEntry(t *testing.T) {
	entries := 0
	m := startedMachine(t, stateA,
		newTestState(stateA).
			WithEntry(func() { entries++ }).
			Transition(evGo, stateA, nil),
	)

	m.Dispatch(NewEvent(evGo))
	assert.Equal(t, 2, entries)
}

func TestState_LastWriteWins(t *testing.T) {
	var got []string

	s := newTestState(stateA).
		WithEntry(func() { got = append(got, "first entry") }).
		WithEntry(func() { got = append(got, "second entry") }).
		Transition(evGo, stateB, func([]any) { got = append(got, "transition") }).
		On(evGo, func([]any) { got = append(got, "handler") })

	m := startedMachine(t, stateA, s, newTestState(stateB))
	m.Dispatch(NewEvent(evGo))

	assert.Equal(t, []string{"second entry", "handler"}, got)
	assert.Equal(t, stateA, m.Current(), "the later On replaced the transition")
}

func TestMachine_ReentrantDispatchPanics(t *testing.T) {
	var m *Machine[testState, testEvent]
	m = NewMachine[testState, testEvent]()
	require.NoError(t, m.Setup(stateA,
		newTestState(stateA).On(evTouch, func([]any) {
			m.Dispatch(NewEvent(evGo))
		}),
	))
	require.NoError(t, m.Start())

	assert.PanicsWithValue(t, "fsm: concurrent Dispatch", func() {
		m.Dispatch(NewEvent(evTouch))
	})

	// the guard is released after the panic
	assert.False(t, m.Dispatch(NewEvent(evNone)))
}

func TestDispatcher_ReentrantSendIsQueued(t *testing.T) {
	var d *Dispatcher[testState, testEvent]
	var trace []string

	m := NewMachine[testState, testEvent]()
	require.NoError(t, m.Setup(stateA,
		newTestState(stateA).
			WithEntry(func() {
				trace = append(trace, "entry a")
				d.Send(NewEvent(evGo))
			}).
			Transition(evGo, stateB, func([]any) {
				d.Send(NewEvent(evBack))
				trace = append(trace, "go handler")
			}),
		newTestState(stateB).
			WithEntry(func() { trace = append(trace, "entry b") }).
			On(evBack, func([]any) { trace = append(trace, "back in b") }),
	))
	d = NewDispatcher(m)

	require.NoError(t, d.Start())

	assert.Equal(t, []string{"entry a", "go handler", "entry b", "back in b"}, trace)
	assert.Equal(t, stateB, d.Machine().Current())
	assert.Zero(t, d.Pending())
}

func TestDispatcher_ConcurrentSenders(t *testing.T) {
	count := 0 // unsynchronized on purpose: the dispatcher must serialize access
	m := NewMachine[testState, testEvent]()
	require.NoError(t, m.Setup(stateA,
		newTestState(stateA).On(evTouch, func([]any) { count++ }),
	))
	d := NewDispatcher(m)
	require.NoError(t, d.Start())

	const senders, perSender = 8, 200
	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perSender; j++ {
				d.Send(NewEvent(evTouch))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, senders*perSender, count)
	assert.Zero(t, d.Pending())
}

func TestDispatcher_RecoversAfterPanic(t *testing.T) {
	calls := 0
	m := NewMachine[testState, testEvent]()
	require.NoError(t, m.Setup(stateA,
		newTestState(stateA).
			On(evGo, func([]any) { panic("boom") }).
			On(evTouch, func([]any) { calls++ }),
	))
	d := NewDispatcher(m)
	require.NoError(t, d.Start())

	assert.Panics(t, func() { d.Send(NewEvent(evGo)) })

	d.Send(NewEvent(evTouch))
	assert.Equal(t, 1, calls)
}

func TestDispatcher_RecoversAfterPanicInInitialEntry(t *testing.T) {
	m := NewMachine[testState, testEvent]()
	require.NoError(t, m.Setup(stateA,
		newTestState(stateA).
			WithEntry(func() { panic("boom") }).
			Transition(evGo, stateB, nil),
		newTestState(stateB),
	))
	d := NewDispatcher(m)

	assert.Panics(t, func() { _ = d.Start() })
	require.True(t, m.Started())

	d.Send(NewEvent(evGo))
	assert.Equal(t, stateB, m.Current())
	assert.Zero(t, d.Pending())
}
