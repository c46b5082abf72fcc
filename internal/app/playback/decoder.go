package playback

import "time"

// DecoderEventType represents a decoder callback type.
type DecoderEventType int

const (
	DecoderBuffering        DecoderEventType = iota // Buffering progress
	DecoderPlaying                                  // Playback started or resumed
	DecoderPaused                                   // Playback paused
	DecoderStopped                                  // Playback stopped
	DecoderEndReached                               // End of stream
	DecoderTimeChanged                              // Playback time advanced
	DecoderLengthChanged                            // Media length became known
	DecoderEncounteredError                         // Read or decode error
)

// String returns the string representation of the decoder event type.
func (t DecoderEventType) String() string {
	switch t {
	case DecoderBuffering:
		return "buffering"
	case DecoderPlaying:
		return "playing"
	case DecoderPaused:
		return "paused"
	case DecoderStopped:
		return "stopped"
	case DecoderEndReached:
		return "end_reached"
	case DecoderTimeChanged:
		return "time_changed"
	case DecoderLengthChanged:
		return "length_changed"
	case DecoderEncounteredError:
		return "encountered_error"
	default:
		return "unknown"
	}
}

// DecoderEvent is a callback from the backend, delivered on the backend's goroutine.
type DecoderEvent struct {
	Type      DecoderEventType
	Buffering float64       // DecoderBuffering: 0..100
	Time      time.Duration // DecoderTimeChanged: current time; DecoderLengthChanged: length
	Err       error         // DecoderEncounteredError: cause, if known
}

// DecoderListener receives decoder callbacks.
type DecoderListener interface {
	OnDecoderEvent(ev DecoderEvent)
}
