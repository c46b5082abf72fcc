package fsm

import "sync"

// Dispatcher serializes events bound for one Machine.
//
// Send appends to a FIFO queue. The goroutine that finds the queue idle
// drains it, so at most one Dispatch runs at a time whatever goroutine the
// events come from. Events sent from inside a handler or entry action are
// queued and processed after the current dispatch completes.
type Dispatcher[S, E comparable] struct {
	machine *Machine[S, E]

	mu       sync.Mutex
	queue    []Event[E]
	draining bool
}

// NewDispatcher wraps m.
func NewDispatcher[S, E comparable](m *Machine[S, E]) *Dispatcher[S, E] {
	return &Dispatcher[S, E]{machine: m}
}

// Machine returns the wrapped machine.
func (d *Dispatcher[S, E]) Machine() *Machine[S, E] {
	return d.machine
}

// Start starts the machine. Events sent by the initial entry action are
// processed before Start returns.
func (d *Dispatcher[S, E]) Start() error {
	d.mu.Lock()
	if d.draining {
		d.mu.Unlock()
		panic("fsm: Start from inside a dispatch")
	}
	d.draining = true
	d.mu.Unlock()

	err := d.start()
	d.drain()
	return err
}

func (d *Dispatcher[S, E]) start() error {
	defer d.resetOnPanic()
	return d.machine.Start()
}

// Send queues ev and processes the queue unless another goroutine already is.
// Send does not wait for events queued behind a running dispatch.
func (d *Dispatcher[S, E]) Send(ev Event[E]) {
	d.mu.Lock()
	d.queue = append(d.queue, ev)
	if d.draining {
		d.mu.Unlock()
		return
	}
	d.draining = true
	d.mu.Unlock()

	d.drain()
}

// drain must be called with draining set.
func (d *Dispatcher[S, E]) drain() {
	for {
		d.mu.Lock()
		if len(d.queue) == 0 {
			d.draining = false
			d.mu.Unlock()
			return
		}
		ev := d.queue[0]
		d.queue[0] = Event[E]{}
		d.queue = d.queue[1:]
		d.mu.Unlock()

		d.dispatch(ev)
	}
}

func (d *Dispatcher[S, E]) dispatch(ev Event[E]) {
	defer d.resetOnPanic()
	d.machine.Dispatch(ev)
}

// resetOnPanic leaves the queue usable for the next Send, then re-panics.
func (d *Dispatcher[S, E]) resetOnPanic() {
	if r := recover(); r != nil {
		d.mu.Lock()
		d.draining = false
		d.mu.Unlock()
		panic(r)
	}
}

// Pending returns the number of queued events not yet dispatched.
func (d *Dispatcher[S, E]) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}
