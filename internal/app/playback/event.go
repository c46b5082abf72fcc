package playback

// EventKind identifies an input to the playback state machine.
type EventKind int

const (
	EventAttach      EventKind = iota // Player attached
	EventAskForPlay                   // User asked to start playback
	EventSetSubtitle                  // Subtitle location changed
	EventPlay                         // Decoder started playing
	EventStop                         // User asked to stop
	EventBuffering                    // Decoder buffering progress; payload: percent int
	EventPosition                     // Decoder time update; payload: time.Duration
	EventPause                        // User asked to pause
	EventResume                       // User asked to resume
	EventEnd                          // Decoder reached end of stream
	EventError                        // Decoder error
)

// EventKinds lists every event kind.
var EventKinds = []EventKind{
	EventAttach, EventAskForPlay, EventSetSubtitle, EventPlay, EventStop, EventBuffering,
	EventPosition, EventPause, EventResume, EventEnd, EventError,
}

// String returns the string representation of the event kind.
func (e EventKind) String() string {
	switch e {
	case EventAttach:
		return "attach"
	case EventAskForPlay:
		return "ask_for_play"
	case EventSetSubtitle:
		return "set_subtitle"
	case EventPlay:
		return "play"
	case EventStop:
		return "stop"
	case EventBuffering:
		return "buffering"
	case EventPosition:
		return "position"
	case EventPause:
		return "pause"
	case EventResume:
		return "resume"
	case EventEnd:
		return "end"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}
