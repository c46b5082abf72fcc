// Package fsm provides a small typed, event-driven finite state machine.
//
// A machine is configured once from a set of states, each holding an optional
// entry action and a table of event kinds mapped to an optional target state
// and an optional handler. Dispatching an event runs the handler against the
// current state, then switches to the target and runs its entry action.
// Events the current state does not map are ignored.
//
// Machine does no locking around Dispatch. Callers that feed events from more
// than one goroutine serialize them through a Dispatcher.
package fsm
