// Package playback drives a backend video player through the playback
// lifecycle state machine.
package playback

// State represents the playback lifecycle state.
type State int

const (
	StateWaitingAttach     State = iota // No player attached yet
	StateWaitingAttachPlay              // Play requested before a player was attached
	StateAttached                       // Player attached, idle
	StateBuffering                      // Media submitted, waiting for the decoder to start
	StatePlaying                        // Decoder reported playback
	StatePaused                         // Paused by the user
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateWaitingAttach:
		return "waiting_attach"
	case StateWaitingAttachPlay:
		return "waiting_attach_play"
	case StateAttached:
		return "attached"
	case StateBuffering:
		return "buffering"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// IsActive returns true while media is loaded in the backend.
func (s State) IsActive() bool {
	return s == StateBuffering || s == StatePlaying || s == StatePaused
}
